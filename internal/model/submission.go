package model

import (
	"time"

	"github.com/google/uuid"
)

// Category discriminates the two applicant types.
type Category string

const (
	CategoryProvider  Category = "provider"
	CategoryRequester Category = "requester"
)

// Valid reports whether c is one of the known applicant categories.
func (c Category) Valid() bool {
	return c == CategoryProvider || c == CategoryRequester
}

// ExternalStatus is the write-back status field consumed by the capture
// system and other external readers of the submission store.
type ExternalStatus string

const (
	ExternalNew      ExternalStatus = "new"
	ExternalApproved ExternalStatus = "approved"
	ExternalRejected ExternalStatus = "rejected"
	ExternalArchived ExternalStatus = "archived"
)

// Submission is one captured application from the form-capture system.
// The capture system owns every field except ExternalStatus, which this
// service writes back on each review-state change.
type Submission struct {
	ID             int64             `gorm:"primaryKey;autoIncrement:false" json:"id"`
	OwnerAccountID *uuid.UUID        `gorm:"type:uuid;index" json:"owner_account_id"` // nil = anonymous submitter
	Category       Category          `gorm:"type:varchar(20);not null;index" json:"category"`
	ExternalStatus ExternalStatus    `gorm:"type:varchar(20);not null;default:new" json:"external_status"`
	Values         []SubmissionValue `gorm:"foreignKey:SubmissionID" json:"values,omitempty"`
	CreatedAt      time.Time         `gorm:"index" json:"created_at"`
}

// SubmissionValue is one captured field. Position preserves the order the
// form captured them in; FieldKey is opaque except for the per-category
// whitelist used when building a profile.
type SubmissionValue struct {
	ID           int64  `gorm:"primaryKey" json:"id"`
	SubmissionID int64  `gorm:"not null;uniqueIndex:idx_submission_field" json:"submission_id"`
	FieldKey     string `gorm:"type:varchar(100);not null;uniqueIndex:idx_submission_field" json:"field_key"`
	FieldValue   string `gorm:"type:text" json:"field_value"`
	Position     int    `gorm:"not null;default:0" json:"position"`
}

// Field returns the captured value for key, and whether it was present.
func (s *Submission) Field(key string) (string, bool) {
	for _, v := range s.Values {
		if v.FieldKey == key {
			return v.FieldValue, true
		}
	}
	return "", false
}
