package domain

import (
	"context"
	"time"
)

// ConsultationMessage carries everything a delivery channel needs; the
// notification service never reaches back into other domains.
type ConsultationMessage struct {
	PatientEmail string
	PatientPhone string
	ScheduledAt  time.Time
	JoinURL      string
}

type Service interface {
	// SendConsultationConfirmed confirms acceptance to the patient.
	SendConsultationConfirmed(ctx context.Context, msg ConsultationMessage) error
	// SendPreConsultationNotice reminds the patient ahead of the
	// consultation; every call sends.
	SendPreConsultationNotice(ctx context.Context, msg ConsultationMessage) error
}
