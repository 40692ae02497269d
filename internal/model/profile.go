package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProfileRow is one rendered label/value pair in a published profile.
type ProfileRow struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// ProfileContent is the ordered document body, stored as jsonb.
type ProfileContent []ProfileRow

func (c ProfileContent) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (c *ProfileContent) Scan(value interface{}) error {
	if value == nil {
		*c = nil
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported profile content type %T", value)
	}
	return json.Unmarshal(b, c)
}

// Profile is the published document derived from an approved submission.
// It is owned one-to-one by the ledger row that created it and outlives
// archival (hidden, not removed) until the owning account is deleted.
type Profile struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID *uuid.UUID     `gorm:"type:uuid;index" json:"account_id"`
	Category  Category       `gorm:"type:varchar(20);not null" json:"category"`
	Title     string         `gorm:"type:varchar(255);not null" json:"title"`
	Content   ProfileContent `gorm:"type:jsonb" json:"content"`
	ImageURL  string         `gorm:"type:varchar(500)" json:"image_url,omitempty"`
	Visible   bool           `gorm:"not null;default:false;index" json:"visible"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
