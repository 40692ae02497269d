package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"regexp"

	"applicant-review-api/internal/model"
	"applicant-review-api/internal/repository"
	"applicant-review-api/pkg/apperr"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DTOs for request validation
type RegisterRequest struct {
	Email       string         `json:"email" binding:"required,email"`
	DisplayName string         `json:"display_name" binding:"required"`
	Password    string         `json:"password" binding:"required,min=6"`
	Category    model.Category `json:"category" binding:"required,oneof=provider requester"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// AccountResponse returns an Account without exposing sensitive data
type AccountResponse struct {
	ID                uuid.UUID      `json:"id"`
	Email             string         `json:"email"`
	DisplayName       string         `json:"display_name"`
	Role              string         `json:"role"`
	Category          model.Category `json:"category"`
	ApplicationStatus string         `json:"application_status"`
	CreatedAt         string         `json:"created_at"`
}

// AccountService defines the business logic around applicant accounts
type AccountService interface {
	Register(ctx context.Context, req RegisterRequest) (*AccountResponse, error)
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*AccountResponse, error)
	List(ctx context.Context, page, limit int) ([]AccountResponse, int64, error)
	DeleteAccount(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) error
}

type accountService struct {
	txm         repository.TransactionManager
	accounts    repository.AccountRepository
	records     repository.StatusRecordRepository
	submissions repository.SubmissionRepository
	profiles    repository.ProfileRepository
	audit       repository.AuditRepository
}

func NewAccountService(
	txm repository.TransactionManager,
	accounts repository.AccountRepository,
	records repository.StatusRecordRepository,
	submissions repository.SubmissionRepository,
	profiles repository.ProfileRepository,
	audit repository.AuditRepository,
) AccountService {
	return &accountService{
		txm:         txm,
		accounts:    accounts,
		records:     records,
		submissions: submissions,
		profiles:    profiles,
		audit:       audit,
	}
}

var emailRegex = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,10}$`)

func mapToAccountResponse(account *model.Account) *AccountResponse {
	return &AccountResponse{
		ID:                account.ID,
		Email:             account.Email,
		DisplayName:       account.DisplayName,
		Role:              account.Role,
		Category:          account.Category,
		ApplicationStatus: account.ApplicationStatus,
		CreatedAt:         account.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (s *accountService) Register(ctx context.Context, req RegisterRequest) (*AccountResponse, error) {
	if !emailRegex.MatchString(req.Email) {
		return nil, apperr.Validation("invalid email format")
	}
	if !req.Category.Valid() {
		return nil, apperr.Validation("unknown category %q", req.Category)
	}

	if _, err := s.accounts.GetByEmail(ctx, req.Email); err == nil {
		return nil, apperr.Validation("email already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Persistence("failed to hash password", err)
	}

	account := &model.Account{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Password:    string(hashed),
		Role:        model.RoleApplicant,
		Category:    req.Category,
	}

	txErr := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.accounts.Create(txCtx, account); err != nil {
			return err
		}
		return s.audit.Log(txCtx, &model.AuditLog{
			ActorID:    &account.ID,
			Action:     model.ActionRegisterAccount,
			EntityID:   account.ID.String(),
			EntityName: account.DisplayName,
			Details:    "{}",
		})
	})
	if txErr != nil {
		return nil, apperr.Persistence("failed to create account", txErr)
	}

	return mapToAccountResponse(account), nil
}

func (s *accountService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	account, err := s.accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperr.Validation("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(req.Password)); err != nil {
		return nil, apperr.Validation("invalid email or password")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      account.ID.String(),
		"role":     account.Role,
		"category": account.Category,
	})

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default_super_secret_key"
	}

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return nil, apperr.Persistence("failed to generate token", err)
	}

	return &TokenResponse{Token: signed}, nil
}

func (s *accountService) GetByID(ctx context.Context, id uuid.UUID) (*AccountResponse, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("account %s not found", id)
		}
		return nil, apperr.Persistence("failed to load account", err)
	}
	return mapToAccountResponse(account), nil
}

func (s *accountService) List(ctx context.Context, page, limit int) ([]AccountResponse, int64, error) {
	accounts, total, err := s.accounts.List(ctx, page, limit)
	if err != nil {
		return nil, 0, apperr.Persistence("failed to list accounts", err)
	}

	responses := make([]AccountResponse, 0, len(accounts))
	for i := range accounts {
		responses = append(responses, *mapToAccountResponse(&accounts[i]))
	}
	return responses, total, nil
}

// DeleteAccount removes everything the account owns in one transaction:
// published profiles, ledger rows and source submissions, then the
// account itself. This is the only path that physically deletes ledger
// data.
func (s *accountService) DeleteAccount(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) error {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("account %s not found", id)
		}
		return apperr.Persistence("failed to load account", err)
	}

	txErr := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.profiles.DeleteByAccount(txCtx, id); err != nil {
			return err
		}
		if err := s.records.DeleteByAccount(txCtx, id); err != nil {
			return err
		}
		if err := s.submissions.DeleteByAccount(txCtx, id); err != nil {
			return err
		}
		if err := s.accounts.Delete(txCtx, id); err != nil {
			return err
		}

		details, _ := json.Marshal(map[string]interface{}{"email": account.Email})
		return s.audit.Log(txCtx, &model.AuditLog{
			ActorID:    actorID,
			Action:     model.ActionDeleteAccount,
			EntityID:   id.String(),
			EntityName: account.DisplayName,
			Details:    string(details),
		})
	})
	if txErr != nil {
		log.Printf("account delete: transaction failed for %s: %v", id, txErr)
		return apperr.Persistence("failed to delete account", txErr)
	}

	return nil
}
