package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReviewStatus is the authoritative internal review state of a submission.
type ReviewStatus string

const (
	StatusPending     ReviewStatus = "pending"
	StatusUnderReview ReviewStatus = "under_review"
	StatusApproved    ReviewStatus = "approved"
	StatusRejected    ReviewStatus = "rejected"
	StatusArchived    ReviewStatus = "archived"
)

// ParseReviewStatus validates a caller-supplied status value.
func ParseReviewStatus(s string) (ReviewStatus, bool) {
	switch ReviewStatus(s) {
	case StatusPending, StatusUnderReview, StatusApproved, StatusRejected, StatusArchived:
		return ReviewStatus(s), true
	}
	return "", false
}

// External maps a review status onto the lossy write-back status the
// capture system understands. Pending and under_review both surface as
// "new" to external readers.
func (s ReviewStatus) External() ExternalStatus {
	switch s {
	case StatusApproved:
		return ExternalApproved
	case StatusRejected:
		return ExternalRejected
	case StatusArchived:
		return ExternalArchived
	default:
		return ExternalNew
	}
}

// ReviewStatusFromExternal derives a review status for submissions that
// predate the ledger or have not been processed yet.
func ReviewStatusFromExternal(e ExternalStatus) ReviewStatus {
	switch e {
	case ExternalApproved:
		return StatusApproved
	case ExternalRejected:
		return StatusRejected
	case ExternalArchived:
		return StatusArchived
	default:
		return StatusPending
	}
}

// SubmissionKind records why a ledger row exists.
type SubmissionKind string

const (
	KindInitial    SubmissionKind = "initial"
	KindRevision   SubmissionKind = "revision"
	KindNewRequest SubmissionKind = "new_request"
)

// Valid reports whether k is a known submission kind.
func (k SubmissionKind) Valid() bool {
	return k == KindInitial || k == KindRevision || k == KindNewRequest
}

// ProfileStatus tracks the published-profile linkage on a ledger row.
type ProfileStatus string

const (
	ProfileNone           ProfileStatus = "none"
	ProfileActive         ProfileStatus = "active"
	ProfileStatusArchived ProfileStatus = "archived"
	ProfileStatusDeleted  ProfileStatus = "deleted"
)

// Archival reasons recorded on retired ledger rows.
const (
	ReasonUserResubmission    = "user_resubmission"
	ReasonUserRevisionRequest = "user_revision_request"
	ReasonAdminArchived       = "admin_archived"
)

// StatusRecord is the internal review record, one per submission. It is
// the system of record for everything the review workflow reasons about.
type StatusRecord struct {
	ID                   uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SubmissionID         int64          `gorm:"not null;uniqueIndex" json:"submission_id"`
	AccountID            *uuid.UUID     `gorm:"type:uuid;index" json:"account_id"`
	Category             Category       `gorm:"type:varchar(20);not null;index" json:"category"`
	ReviewStatus         ReviewStatus   `gorm:"type:varchar(20);not null;default:pending;index" json:"review_status"`
	SubmissionKind       SubmissionKind `gorm:"type:varchar(20);not null;default:initial" json:"submission_kind"`
	IsActive             bool           `gorm:"not null;default:false;index" json:"is_active"`
	ReplacesSubmissionID *int64         `json:"replaces_submission_id,omitempty"`
	ProfileID            *uuid.UUID     `gorm:"type:uuid" json:"profile_id,omitempty"`
	ProfileStatus        ProfileStatus  `gorm:"type:varchar(20);not null;default:none" json:"profile_status"`
	AdminNotes           string         `gorm:"type:text" json:"admin_notes"`
	ReviewedAt           *time.Time     `json:"reviewed_at,omitempty"`
	ReviewedBy           *uuid.UUID     `gorm:"type:uuid" json:"reviewed_by,omitempty"`
	ArchivedAt           *time.Time     `json:"archived_at,omitempty"`
	ArchivedReason       string         `gorm:"type:varchar(50)" json:"archived_reason,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

func (r *StatusRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
