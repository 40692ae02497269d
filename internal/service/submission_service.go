package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
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

// AdmitRequest carries the parameters of an admission call.
type AdmitRequest struct {
	SubmissionID int64                `json:"submission_id" binding:"required"`
	Category     model.Category       `json:"category" binding:"required,oneof=provider requester"`
	AccountID    *uuid.UUID           `json:"account_id"`
	Kind         model.SubmissionKind `json:"kind" binding:"required,oneof=initial revision new_request"`
	ReplacesID   *int64               `json:"replaces_id"`
}

// AdmitResult reports what an admission did. Created=false means the
// ledger row already existed and the call was a no-op.
type AdmitResult struct {
	StatusRecordID uuid.UUID `json:"status_record_id"`
	SubmissionID   int64     `json:"submission_id"`
	Created        bool      `json:"created"`
	ArchivedCount  int       `json:"archived_count"`
}

// SubmissionListItem is one row of the admin review queue, carrying the
// reconciled status so the queue is correct even for ledgerless rows.
type SubmissionListItem struct {
	Submission      model.Submission    `json:"submission"`
	StatusRecord    *model.StatusRecord `json:"status_record,omitempty"`
	EffectiveStatus model.ReviewStatus  `json:"effective_status"`
}

// SubmissionService owns admission and the archival & revision protocol.
type SubmissionService interface {
	AdmitSubmission(ctx context.Context, req AdmitRequest) (*AdmitResult, error)
	RequestRevision(ctx context.Context, accountID uuid.UUID) (int, error)
	SyncLatest(ctx context.Context, accountID uuid.UUID, category model.Category) (*AdmitResult, error)
	ScheduleAdmission(accountID uuid.UUID, category model.Category, delay time.Duration)
	ListSubmissions(ctx context.Context, category model.Category, externalStatus model.ExternalStatus, page, limit int) ([]SubmissionListItem, int64, error)
}

type submissionService struct {
	txm         repository.TransactionManager
	submissions repository.SubmissionRepository
	records     repository.StatusRecordRepository
	accounts    repository.AccountRepository
	audit       repository.AuditRepository
	profiles    ProfileService
	notifier    Notifier
	cache       cache.Cache
}

func NewSubmissionService(
	txm repository.TransactionManager,
	submissions repository.SubmissionRepository,
	records repository.StatusRecordRepository,
	accounts repository.AccountRepository,
	audit repository.AuditRepository,
	profiles ProfileService,
	notifier Notifier,
	c cache.Cache,
) SubmissionService {
	return &submissionService{
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

// appendNote adds a timestamped line to the append-only notes field.
func appendNote(existing, note string, at time.Time) string {
	line := fmt.Sprintf("[%s] %s", at.Format("2006-01-02 15:04:05"), note)
	if existing == "" {
		return line
	}
	return existing + "\n" + line
}

// archiveProviderRecords retires every non-archived provider ledger row
// for the account: status, active flag, write-back and linked profile all
// move together. Must be called inside a transaction context; partial
// archival would let a later approval break the single-active invariant.
func (s *submissionService) archiveProviderRecords(ctx context.Context, accountID uuid.UUID, reason string) (int, error) {
	recs, err := s.records.FindNonArchivedByAccount(ctx, accountID, model.CategoryProvider)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	for i := range recs {
		rec := &recs[i]
		rec.ReviewStatus = model.StatusArchived
		rec.IsActive = false
		rec.AdminNotes = appendNote(rec.AdminNotes, "archived: "+reason, now)
		rec.ArchivedAt = &now
		rec.ArchivedReason = reason
		if rec.ProfileID != nil {
			if err := s.profiles.Unpublish(ctx, *rec.ProfileID); err != nil {
				return 0, err
			}
			rec.ProfileStatus = model.ProfileStatusArchived
		}
		if err := s.records.Update(ctx, rec); err != nil {
			return 0, err
		}
		if err := s.submissions.UpdateExternalStatus(ctx, rec.SubmissionID, model.ExternalArchived); err != nil {
			return 0, err
		}
	}
	return len(recs), nil
}

func (s *submissionService) AdmitSubmission(ctx context.Context, req AdmitRequest) (*AdmitResult, error) {
	if !req.Category.Valid() {
		return nil, apperr.Validation("unknown category %q", req.Category)
	}
	if !req.Kind.Valid() {
		return nil, apperr.Validation("unknown submission kind %q", req.Kind)
	}

	sub, err := s.submissions.FindByID(ctx, req.SubmissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("submission %d not found", req.SubmissionID)
		}
		return nil, apperr.Persistence("failed to load submission", err)
	}
	if sub.Category != req.Category {
		return nil, apperr.Validation("submission %d is %q, not %q", sub.ID, sub.Category, req.Category)
	}

	var result AdmitResult
	txErr := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if req.AccountID != nil {
			if err := s.records.LockAccount(txCtx, *req.AccountID); err != nil {
				return err
			}
		}

		// Idempotency: the capture system delivers at-least-once, so a
		// duplicate admit must be a no-op returning the existing row.
		existing, err := s.records.FindBySubmissionID(txCtx, req.SubmissionID)
		if err == nil {
			result = AdmitResult{StatusRecordID: existing.ID, SubmissionID: existing.SubmissionID}
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		archived := 0
		if req.AccountID != nil && req.Category == model.CategoryProvider {
			archived, err = s.archiveProviderRecords(txCtx, *req.AccountID, model.ReasonUserResubmission)
			if err != nil {
				return err
			}
		}

		rec := &model.StatusRecord{
			SubmissionID:         req.SubmissionID,
			AccountID:            req.AccountID,
			Category:             req.Category,
			ReviewStatus:         model.StatusPending,
			SubmissionKind:       req.Kind,
			IsActive:             req.Category == model.CategoryProvider,
			ReplacesSubmissionID: req.ReplacesID,
			ProfileStatus:        model.ProfileNone,
		}
		if err := s.records.Create(txCtx, rec); err != nil {
			return err
		}

		result = AdmitResult{
			StatusRecordID: rec.ID,
			SubmissionID:   rec.SubmissionID,
			Created:        true,
			ArchivedCount:  archived,
		}

		details, _ := json.Marshal(map[string]interface{}{
			"category":       req.Category,
			"kind":           req.Kind,
			"archived_count": archived,
		})
		return s.audit.Log(txCtx, &model.AuditLog{
			ActorID:  req.AccountID,
			Action:   model.ActionAdmitSubmission,
			EntityID: strconv.FormatInt(req.SubmissionID, 10),
			Details:  string(details),
		})
	})
	if txErr != nil {
		log.Printf("admit: transaction failed for submission %d: %v", req.SubmissionID, txErr)
		return nil, apperr.Persistence("failed to admit submission", txErr)
	}

	if result.Created && req.AccountID != nil {
		invalidateAccountCaches(ctx, s.cache, *req.AccountID)
		if account, err := s.accounts.GetByID(ctx, *req.AccountID); err == nil {
			s.notifier.SubmissionReceived(account, result.SubmissionID, req.Category)
		} else {
			s.notifier.SubmissionReceived(nil, result.SubmissionID, req.Category)
		}
	}

	return &result, nil
}

func (s *submissionService) RequestRevision(ctx context.Context, accountID uuid.UUID) (int, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperr.NotFound("account %s not found", accountID)
		}
		return 0, apperr.Persistence("failed to load account", err)
	}

	archived := 0
	txErr := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.records.LockAccount(txCtx, accountID); err != nil {
			return err
		}

		archived, err = s.archiveProviderRecords(txCtx, accountID, model.ReasonUserRevisionRequest)
		if err != nil {
			return err
		}

		if err := s.accounts.SetApplicationStatus(txCtx, accountID, model.AppStatusRevisionPending); err != nil {
			return err
		}

		details, _ := json.Marshal(map[string]interface{}{"archived_count": archived})
		return s.audit.Log(txCtx, &model.AuditLog{
			ActorID:  &accountID,
			Action:   model.ActionRequestRevision,
			EntityID: accountID.String(),
			Details:  string(details),
		})
	})
	if txErr != nil {
		log.Printf("revision: transaction failed for account %s: %v", accountID, txErr)
		return 0, apperr.Persistence("failed to process revision request", txErr)
	}

	invalidateAccountCaches(ctx, s.cache, accountID)
	s.notifier.RevisionRequested(account, archived)

	return archived, nil
}

// SyncLatest reprocesses the account's most recent submission. Safe to
// call repeatedly; admission is idempotent.
func (s *submissionService) SyncLatest(ctx context.Context, accountID uuid.UUID, category model.Category) (*AdmitResult, error) {
	if !category.Valid() {
		return nil, apperr.Validation("unknown category %q", category)
	}

	sub, err := s.submissions.FindLatestByAccount(ctx, accountID, category)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("no submissions for account %s", accountID)
		}
		return nil, apperr.Persistence("failed to load latest submission", err)
	}

	kind := model.KindInitial
	var replaces *int64
	if prior, err := s.records.FindLatestByAccount(ctx, accountID, category); err == nil && prior.SubmissionID != sub.ID {
		if category == model.CategoryProvider {
			kind = model.KindRevision
			replaces = &prior.SubmissionID
		} else {
			kind = model.KindNewRequest
		}
	}

	return s.AdmitSubmission(ctx, AdmitRequest{
		SubmissionID: sub.ID,
		Category:     category,
		AccountID:    &accountID,
		Kind:         kind,
		ReplacesID:   replaces,
	})
}

// ScheduleAdmission defers processing so the capture system can finish
// writing field values before the ledger row is created. Delivery is
// at-least-once; duplicate or late firing is harmless because admission
// is idempotent.
func (s *submissionService) ScheduleAdmission(accountID uuid.UUID, category model.Category, delay time.Duration) {
	time.AfterFunc(delay, func() {
		if _, err := s.SyncLatest(context.Background(), accountID, category); err != nil {
			log.Printf("delayed admission failed for account %s: %v", accountID, err)
		}
	})
}

func (s *submissionService) ListSubmissions(ctx context.Context, category model.Category, externalStatus model.ExternalStatus, page, limit int) ([]SubmissionListItem, int64, error) {
	subs, total, err := s.submissions.List(ctx, category, externalStatus, page, limit)
	if err != nil {
		return nil, 0, apperr.Persistence("failed to list submissions", err)
	}

	items := make([]SubmissionListItem, 0, len(subs))
	for i := range subs {
		sub := subs[i]
		var rec *model.StatusRecord
		if found, err := s.records.FindBySubmissionID(ctx, sub.ID); err == nil {
			rec = found
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, apperr.Persistence("failed to load status record", err)
		}
		items = append(items, SubmissionListItem{
			Submission:      sub,
			StatusRecord:    rec,
			EffectiveStatus: EffectiveStatus(rec, sub.ExternalStatus),
		})
	}

	return items, total, nil
}
