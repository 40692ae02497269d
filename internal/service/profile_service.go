package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strings"

	"applicant-review-api/internal/model"
	"applicant-review-api/internal/repository"
	"applicant-review-api/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProfileService manages the published documents derived from approved
// submissions. Create/Unpublish run inside the caller's transaction
// context so profile state moves in lockstep with the ledger.
type ProfileService interface {
	CreateOrUpdate(ctx context.Context, rec *model.StatusRecord, sub *model.Submission) (*model.Profile, error)
	Unpublish(ctx context.Context, profileID uuid.UUID) error
	GetVisible(ctx context.Context, profileID uuid.UUID) (*model.Profile, error)
}

type profileService struct {
	profiles repository.ProfileRepository
	accounts repository.AccountRepository
}

func NewProfileService(profiles repository.ProfileRepository, accounts repository.AccountRepository) ProfileService {
	return &profileService{profiles: profiles, accounts: accounts}
}

// buildTitle resolves the profile title with a three-step fallback:
// captured name field, account display name, synthetic label.
func (s *profileService) buildTitle(ctx context.Context, rec *model.StatusRecord, sub *model.Submission) string {
	if name, ok := sub.Field(NameFieldKey); ok && strings.TrimSpace(name) != "" {
		return strings.TrimSpace(name)
	}
	if rec.AccountID != nil {
		if account, err := s.accounts.GetByID(ctx, *rec.AccountID); err == nil && strings.TrimSpace(account.DisplayName) != "" {
			return strings.TrimSpace(account.DisplayName)
		}
	}
	if rec.AccountID != nil {
		short := rec.AccountID.String()
		if len(short) > 8 {
			short = short[:8]
		}
		return fmt.Sprintf("%s #%s", rec.Category, short)
	}
	return fmt.Sprintf("%s #%d", rec.Category, sub.ID)
}

// buildContent renders the captured fields through the category
// whitelist. Values are escaped here because they are untrusted input
// and the document is served to browsers downstream.
func buildContent(category model.Category, sub *model.Submission) model.ProfileContent {
	content := make(model.ProfileContent, 0, len(sub.Values))
	for _, spec := range FieldsForCategory(category) {
		value, ok := sub.Field(spec.Key)
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		content = append(content, model.ProfileRow{
			Key:   spec.Key,
			Label: spec.Label,
			Value: html.EscapeString(strings.TrimSpace(value)),
		})
	}
	return content
}

func (s *profileService) CreateOrUpdate(ctx context.Context, rec *model.StatusRecord, sub *model.Submission) (*model.Profile, error) {
	title := s.buildTitle(ctx, rec, sub)
	content := buildContent(rec.Category, sub)

	// Portrait attachment is best-effort. A bad value never blocks approval.
	imageURL := ""
	if raw, ok := sub.Field(ImageFieldKey); ok {
		raw = strings.TrimSpace(raw)
		if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
			imageURL = raw
		} else if raw != "" {
			log.Printf("profile: ignoring non-URL portrait value for submission %d", sub.ID)
		}
	}

	if rec.ProfileID != nil {
		profile, err := s.profiles.FindByID(ctx, *rec.ProfileID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
		} else {
			profile.Title = title
			profile.Content = content
			if imageURL != "" {
				profile.ImageURL = imageURL
			}
			profile.Visible = true
			if err := s.profiles.Update(ctx, profile); err != nil {
				return nil, err
			}
			return profile, nil
		}
	}

	profile := &model.Profile{
		AccountID: rec.AccountID,
		Category:  rec.Category,
		Title:     title,
		Content:   content,
		ImageURL:  imageURL,
		Visible:   true,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *profileService) Unpublish(ctx context.Context, profileID uuid.UUID) error {
	return s.profiles.SetVisible(ctx, profileID, false)
}

func (s *profileService) GetVisible(ctx context.Context, profileID uuid.UUID) (*model.Profile, error) {
	profile, err := s.profiles.FindByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("profile %s not found", profileID)
		}
		return nil, apperr.Persistence("failed to load profile", err)
	}
	if !profile.Visible {
		return nil, apperr.NotFound("profile %s not found", profileID)
	}
	return profile, nil
}
