package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin     = "admin"
	RoleApplicant = "applicant"
)

// Application-status mirror values kept on the account itself so the
// front end can branch without a ledger query. The ledger stays
// authoritative; this field is a convenience marker.
const (
	AppStatusRevisionPending = "revision_pending"
)

// Account is a registered applicant or reviewer.
type Account struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email             string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	DisplayName       string    `gorm:"type:varchar(255)" json:"display_name"`
	Password          string    `gorm:"type:varchar(255);not null" json:"-"`
	Role              string    `gorm:"type:varchar(20);not null;default:applicant" json:"role"`
	Category          Category  `gorm:"type:varchar(20)" json:"category"`
	ApplicationStatus string    `gorm:"type:varchar(30)" json:"application_status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
