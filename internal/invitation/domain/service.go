package domain

import (
	"context"
	"errors"
	"time"

	"github.com/Vaibhavsahu2810/hcw-home-sub001/pkg/db/pagination"
)

var (
	ErrInvitationNotFound = errors.New("invitation_not_found")
	ErrInvitationExpired  = errors.New("invitation_expired")
	ErrInvalidInput       = errors.New("invalid_input")
	// ErrDependencyFailure marks persistence or collaborator failures. It
	// is the only retryable class and surfaces as a server error.
	ErrDependencyFailure = errors.New("dependency_failure")
)

// DeviceTestRequest carries the three device check results, already
// shape-checked at the transport boundary.
type DeviceTestRequest struct {
	CameraTest     bool
	MicrophoneTest bool
	SpeakerTest    bool
}

type CreateInvitationRequest struct {
	ConsultationID string
}

type ListInvitationRequest struct {
	ConsultationID string
	Status         string
	PageToken      string
	PageSize       int
}

type ListInvitationFilter struct {
	ConsultationID string
	Status         string
}

// Details is the caller-facing view of an invitation and its
// consultation's scheduled window.
type Details struct {
	ID             string     `json:"id"`
	Token          string     `json:"token"`
	ConsultationID string     `json:"consultation_id"`
	Status         Status     `json:"status"`
	CameraTest     *bool      `json:"camera_test,omitempty"`
	MicrophoneTest *bool      `json:"microphone_test,omitempty"`
	SpeakerTest    *bool      `json:"speaker_test,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	DeviceTestedAt *time.Time `json:"device_tested_at,omitempty"`
	AcceptedAt     *time.Time `json:"accepted_at,omitempty"`
	ScheduledAt    time.Time  `json:"scheduled_at"`
	EndsAt         time.Time  `json:"ends_at"`
}

type ListInvitationResponse struct {
	pagination.PageInfo
	Invitations []Details `json:"invitations"`
}

type Service interface {
	// Create issues a new invitation for a scheduled consultation.
	Create(ctx context.Context, req CreateInvitationRequest) (Details, error)
	// Acknowledge moves an issued invitation to acknowledged. Calling it
	// again is an idempotent read-through.
	Acknowledge(ctx context.Context, token string) (Details, error)
	// GetDetails is a pure read.
	GetDetails(ctx context.Context, token string) (Details, error)
	// CompleteDeviceTestAndAccept records the device check results and moves the
	// invitation through device_tested to accepted, dispatching the
	// confirmation notification exactly once.
	CompleteDeviceTestAndAccept(ctx context.Context, token string, req DeviceTestRequest) (Details, error)
	// JoinViaReminder marks the invitation accepted directly; a reminder
	// link join counts as acceptance and skips the device test.
	JoinViaReminder(ctx context.Context, token string) (Details, error)
	// SendPreConsultationNotice re-dispatches the reminder. Deliberately
	// not idempotency-guarded: operators use it to resend.
	SendPreConsultationNotice(ctx context.Context, invitationID string) error
	List(ctx context.Context, req ListInvitationRequest) (ListInvitationResponse, error)
}
