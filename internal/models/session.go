package models

import (
	"time"

	"github.com/google/uuid"
)

// FormKind names the form a session drives.
type FormKind string

const (
	FormResume     FormKind = "resume"
	FormSummarizer FormKind = "summarizer"
	FormDemo       FormKind = "demo"
	FormJobs       FormKind = "jobs"
)

// SessionRecord is the persisted snapshot of a form session.
type SessionRecord struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Kind         FormKind  `gorm:"type:text;not null" json:"kind"`
	State        string    `gorm:"type:text;not null" json:"state"`
	AdvanceState string    `gorm:"type:text" json:"advance_state"`
	Snapshot     []byte    `gorm:"type:jsonb" json:"-"`
	CreatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (SessionRecord) TableName() string {
	return "form_sessions"
}
