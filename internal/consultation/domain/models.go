package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// DefaultJoinGrace is how long after the scheduled end a reminder link
// still admits the patient.
const DefaultJoinGrace = 30 * time.Minute

type Consultation struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	PractitionerID snowflake.ID `gorm:"not null;index" json:"practitioner_id"`
	PatientEmail   string       `gorm:"column:patient_email;not null" json:"patient_email"`
	PatientPhone   string       `gorm:"column:patient_phone" json:"patient_phone,omitempty"`
	Status         Status       `gorm:"column:status;not null;default:scheduled" json:"status"`
	ScheduledAt    time.Time    `gorm:"not null;index" json:"scheduled_at"`
	EndsAt         time.Time    `gorm:"not null" json:"ends_at"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// WindowElapsed reports whether the consultation can no longer be joined.
func (c *Consultation) WindowElapsed(now time.Time) bool {
	deadline := c.EndsAt
	if deadline.IsZero() {
		deadline = c.ScheduledAt
	}
	return now.After(deadline.Add(DefaultJoinGrace))
}
