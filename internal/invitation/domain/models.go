package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusIssued       Status = "issued"
	StatusAcknowledged Status = "acknowledged"
	StatusDeviceTested Status = "device_tested"
	StatusAccepted     Status = "accepted"
)

// rank orders statuses so transitions can be checked for monotonicity.
func (s Status) rank() int {
	switch s {
	case StatusIssued:
		return 0
	case StatusAcknowledged:
		return 1
	case StatusDeviceTested:
		return 2
	case StatusAccepted:
		return 3
	default:
		return -1
	}
}

// AtLeast reports whether s has reached other in the lifecycle.
func (s Status) AtLeast(other Status) bool {
	return s.rank() >= other.rank()
}

// Invitation is one consultation's patient-facing entry ticket. Status
// only ever moves forward; the device-test results stay NULL until the
// patient runs them.
type Invitation struct {
	ID             snowflake.ID      `gorm:"primaryKey" json:"id"`
	ConsultationID snowflake.ID      `gorm:"not null;index" json:"consultation_id"`
	Token          string            `gorm:"not null;uniqueIndex" json:"token"`
	Status         Status            `gorm:"column:status;not null;default:issued" json:"status"`
	CameraTest     *bool             `gorm:"column:camera_test" json:"camera_test,omitempty"`
	MicrophoneTest *bool             `gorm:"column:microphone_test" json:"microphone_test,omitempty"`
	SpeakerTest    *bool             `gorm:"column:speaker_test" json:"speaker_test,omitempty"`
	AcknowledgedAt *time.Time        `gorm:"column:acknowledged_at" json:"acknowledged_at,omitempty"`
	DeviceTestedAt *time.Time        `gorm:"column:device_tested_at" json:"device_tested_at,omitempty"`
	AcceptedAt     *time.Time        `gorm:"column:accepted_at" json:"accepted_at,omitempty"`
	Metadata       datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}
