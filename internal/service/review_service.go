package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"applicant-review-api/internal/cache"
	"applicant-review-api/internal/model"
	"applicant-review-api/internal/repository"
	"applicant-review-api/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransitionRequest is the admin-facing payload for a status change.
type TransitionRequest struct {
	NewStatus string `json:"new_status" binding:"required,oneof=pending under_review approved rejected archived"`
	Notes     string `json:"notes"`
}

// ReviewService validates and applies review-status transitions. The
// ledger update, the external write-back and any profile change commit
// in one transaction; notification happens only after commit.
type ReviewService interface {
	Transition(ctx context.Context, submissionID int64, newStatus, notes string, actorID *uuid.UUID) (*model.StatusRecord, error)
}

type reviewService struct {
	txm         repository.TransactionManager
	submissions repository.SubmissionRepository
	records     repository.StatusRecordRepository
	accounts    repository.AccountRepository
	audit       repository.AuditRepository
	profiles    ProfileService
	notifier    Notifier
	cache       cache.Cache
}

func NewReviewService(
	txm repository.TransactionManager,
	submissions repository.SubmissionRepository,
	records repository.StatusRecordRepository,
	accounts repository.AccountRepository,
	audit repository.AuditRepository,
	profiles ProfileService,
	notifier Notifier,
	c cache.Cache,
) ReviewService {
	return &reviewService{
		txm:         txm,
		submissions: submissions,
		records:     records,
		accounts:    accounts,
		audit:       audit,
		profiles:    profiles,
		notifier:    notifier,
		cache:       c,
	}
}

func (s *reviewService) Transition(ctx context.Context, submissionID int64, newStatus, notes string, actorID *uuid.UUID) (*model.StatusRecord, error) {
	status, ok := model.ParseReviewStatus(newStatus)
	if !ok {
		return nil, apperr.Validation("unknown review status %q", newStatus)
	}

	sub, err := s.submissions.FindByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("submission %d not found", submissionID)
		}
		return nil, apperr.Persistence("failed to load submission", err)
	}

	var rec *model.StatusRecord
	txErr := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		rec, err = s.records.FindBySubmissionID(txCtx, submissionID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Lazy ledger row for submissions captured before processing.
			rec = &model.StatusRecord{
				SubmissionID:   submissionID,
				AccountID:      sub.OwnerAccountID,
				Category:       sub.Category,
				ReviewStatus:   model.StatusPending,
				SubmissionKind: model.KindInitial,
				IsActive:       sub.Category == model.CategoryProvider,
				ProfileStatus:  model.ProfileNone,
			}
			if err := s.records.Create(txCtx, rec); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		if rec.ReviewStatus == model.StatusArchived {
			return apperr.Invariant("submission %d is archived; archived is terminal", submissionID)
		}

		if status == model.StatusApproved && rec.Category == model.CategoryProvider && rec.AccountID != nil {
			count, err := s.records.CountActiveApproved(txCtx, *rec.AccountID, rec.SubmissionID)
			if err != nil {
				return err
			}
			if count > 0 {
				return apperr.Invariant("account %s already has an active approved submission", rec.AccountID)
			}
		}

		now := time.Now()
		rec.ReviewStatus = status
		rec.ReviewedAt = &now
		rec.ReviewedBy = actorID
		if notes != "" {
			rec.AdminNotes = appendNote(rec.AdminNotes, notes, now)
		}

		switch status {
		case model.StatusApproved:
			profile, err := s.profiles.CreateOrUpdate(txCtx, rec, sub)
			if err != nil {
				return err
			}
			rec.ProfileID = &profile.ID
			rec.ProfileStatus = model.ProfileActive
		case model.StatusArchived:
			rec.IsActive = false
			rec.ArchivedAt = &now
			rec.ArchivedReason = model.ReasonAdminArchived
			if rec.ProfileID != nil {
				if err := s.profiles.Unpublish(txCtx, *rec.ProfileID); err != nil {
					return err
				}
				rec.ProfileStatus = model.ProfileStatusArchived
			}
		}

		if err := s.records.Update(txCtx, rec); err != nil {
			return err
		}

		if err := s.submissions.UpdateExternalStatus(txCtx, submissionID, status.External()); err != nil {
			return err
		}

		if rec.AccountID != nil {
			if err := s.accounts.SetApplicationStatus(txCtx, *rec.AccountID, string(status)); err != nil {
				return err
			}
		}

		details, _ := json.Marshal(map[string]interface{}{
			"new_status": status,
			"notes":      notes,
		})
		return s.audit.Log(txCtx, &model.AuditLog{
			ActorID:  actorID,
			Action:   model.ActionTransitionStatus,
			EntityID: strconv.FormatInt(submissionID, 10),
			Details:  string(details),
		})
	})
	if txErr != nil {
		var ae *apperr.Error
		if errors.As(txErr, &ae) {
			return nil, ae
		}
		log.Printf("transition: transaction failed for submission %d -> %s: %v", submissionID, status, txErr)
		return nil, apperr.Persistence("failed to apply transition", txErr)
	}

	if rec.AccountID != nil {
		invalidateAccountCaches(ctx, s.cache, *rec.AccountID)
	}
	if status == model.StatusApproved || status == model.StatusRejected {
		var account *model.Account
		if rec.AccountID != nil {
			account, _ = s.accounts.GetByID(ctx, *rec.AccountID)
		}
		s.notifier.SubmissionDecided(account, submissionID, status, notes)
	}

	return rec, nil
}
