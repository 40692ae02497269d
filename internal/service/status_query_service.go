package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"applicant-review-api/internal/cache"
	"applicant-review-api/internal/model"
	"applicant-review-api/internal/repository"
	"applicant-review-api/pkg/apperr"

	"github.com/google/uuid"
)

// StatusRecordSummary is the slim ledger projection embedded in a
// status summary.
type StatusRecordSummary struct {
	SubmissionID   int64                `json:"submission_id"`
	ReviewStatus   model.ReviewStatus   `json:"review_status"`
	SubmissionKind model.SubmissionKind `json:"submission_kind"`
	IsActive       bool                 `json:"is_active"`
	CreatedAt      time.Time            `json:"created_at"`
	ReviewedAt     *time.Time           `json:"reviewed_at,omitempty"`
}

// SubmissionStatusSummary answers "where does this applicant stand"
// from the ledger alone, no capture-store join.
type SubmissionStatusSummary struct {
	HasPending         bool                 `json:"has_pending"`
	HasActive          bool                 `json:"has_active"`
	HasAnyApproved     bool                 `json:"has_any_approved"`
	HasRejected        bool                 `json:"has_rejected"`
	PendingSubmission  *StatusRecordSummary `json:"pending_submission,omitempty"`
	ActiveSubmission   *StatusRecordSummary `json:"active_submission,omitempty"`
	RejectedSubmission *StatusRecordSummary `json:"rejected_submission,omitempty"`
}

type StatusQueryService interface {
	GetSubmissionStatus(ctx context.Context, accountID uuid.UUID, category model.Category) (*SubmissionStatusSummary, error)
	ListHistory(ctx context.Context, accountID uuid.UUID, category model.Category, page, limit int) ([]model.StatusRecord, int64, error)
}

type statusQueryService struct {
	records repository.StatusRecordRepository
	cache   cache.Cache
	ttl     time.Duration
}

// StatusCacheTTL bounds staleness of a cached summary; writes invalidate
// eagerly, the TTL only covers missed invalidations.
const StatusCacheTTL = 5 * time.Minute

func NewStatusQueryService(records repository.StatusRecordRepository, c cache.Cache) StatusQueryService {
	return &statusQueryService{records: records, cache: c, ttl: StatusCacheTTL}
}

func summarize(rec *model.StatusRecord) *StatusRecordSummary {
	return &StatusRecordSummary{
		SubmissionID:   rec.SubmissionID,
		ReviewStatus:   rec.ReviewStatus,
		SubmissionKind: rec.SubmissionKind,
		IsActive:       rec.IsActive,
		CreatedAt:      rec.CreatedAt,
		ReviewedAt:     rec.ReviewedAt,
	}
}

func (s *statusQueryService) GetSubmissionStatus(ctx context.Context, accountID uuid.UUID, category model.Category) (*SubmissionStatusSummary, error) {
	if !category.Valid() {
		return nil, apperr.Validation("unknown category %q", category)
	}

	key := statusCacheKey(accountID, category)
	if cached, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var summary SubmissionStatusSummary
		if err := json.Unmarshal(cached, &summary); err == nil {
			return &summary, nil
		}
	} else if err != nil {
		log.Printf("status query: cache read failed for %s: %v", key, err)
	}

	recs, err := s.records.FindAllByAccount(ctx, accountID, category)
	if err != nil {
		return nil, apperr.Persistence("failed to load status records", err)
	}

	summary := buildSummary(category, recs)

	if payload, err := json.Marshal(summary); err == nil {
		if err := s.cache.Set(ctx, key, payload, s.ttl); err != nil {
			log.Printf("status query: cache write failed for %s: %v", key, err)
		}
	}

	return summary, nil
}

// buildSummary computes the status flags from latest-first ledger rows.
//
// has_rejected deliberately uses latest-wins semantics: it is true only
// when the most recent row is rejected and nothing is pending. An older
// approved-then-archived history does not clear the flag.
func buildSummary(category model.Category, recs []model.StatusRecord) *SubmissionStatusSummary {
	summary := &SubmissionStatusSummary{}

	for i := range recs {
		rec := &recs[i]
		switch rec.ReviewStatus {
		case model.StatusPending, model.StatusUnderReview:
			summary.HasPending = true
			if summary.PendingSubmission == nil {
				summary.PendingSubmission = summarize(rec)
			}
		case model.StatusApproved:
			summary.HasAnyApproved = true
			if category == model.CategoryProvider && rec.IsActive && summary.ActiveSubmission == nil {
				summary.HasActive = true
				summary.ActiveSubmission = summarize(rec)
			}
		}
	}

	if category == model.CategoryRequester {
		summary.HasActive = summary.HasAnyApproved
	}

	if len(recs) > 0 && recs[0].ReviewStatus == model.StatusRejected && !summary.HasPending {
		summary.HasRejected = true
		summary.RejectedSubmission = summarize(&recs[0])
	}

	return summary
}

func (s *statusQueryService) ListHistory(ctx context.Context, accountID uuid.UUID, category model.Category, page, limit int) ([]model.StatusRecord, int64, error) {
	recs, total, err := s.records.ListByAccount(ctx, accountID, category, page, limit)
	if err != nil {
		return nil, 0, apperr.Persistence("failed to load submission history", err)
	}
	return recs, total, nil
}
