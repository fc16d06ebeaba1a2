package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/notification/domain"
	obsmetrics "github.com/Vaibhavsahu2810/hcw-home-sub001/internal/observability/metrics"
	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/providers/email"
	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/providers/whatsapp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const scheduleLayout = "Monday, 2 January 2006 at 15:04 MST"

type Params struct {
	fx.In

	Log      *zap.Logger
	Email    email.Provider
	WhatsApp whatsapp.Provider
	Metrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log      *zap.Logger
	email    email.Provider
	whatsapp whatsapp.Provider
	metrics  *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		log:      p.Log.Named("notification.service"),
		email:    p.Email,
		whatsapp: p.WhatsApp,
		metrics:  p.Metrics,
	}
}

func (s *Service) SendConsultationConfirmed(ctx context.Context, msg domain.ConsultationMessage) error {
	subject := "Your consultation is confirmed"
	body := fmt.Sprintf(
		"<p>Your consultation on %s is confirmed.</p><p><a href=%q>Join your consultation</a></p>",
		msg.ScheduledAt.Format(scheduleLayout), msg.JoinURL,
	)
	text := fmt.Sprintf("Your consultation on %s is confirmed. Join: %s",
		msg.ScheduledAt.Format(scheduleLayout), msg.JoinURL)

	return s.dispatch(ctx, "confirmation", msg, subject, body, text)
}

func (s *Service) SendPreConsultationNotice(ctx context.Context, msg domain.ConsultationMessage) error {
	subject := "Reminder: your upcoming consultation"
	body := fmt.Sprintf(
		"<p>Your consultation is scheduled for %s.</p><p><a href=%q>Join your consultation</a></p>",
		msg.ScheduledAt.Format(scheduleLayout), msg.JoinURL,
	)
	text := fmt.Sprintf("Reminder: your consultation is scheduled for %s. Join: %s",
		msg.ScheduledAt.Format(scheduleLayout), msg.JoinURL)

	return s.dispatch(ctx, "reminder", msg, subject, body, text)
}

// dispatch sends on every configured channel. Email is the primary
// channel; a WhatsApp failure is logged but does not fail the dispatch.
func (s *Service) dispatch(ctx context.Context, kind string, msg domain.ConsultationMessage, subject, htmlBody, text string) error {
	to := strings.TrimSpace(msg.PatientEmail)
	if to == "" {
		return fmt.Errorf("notification: patient email is empty")
	}

	if err := s.email.Send(ctx, []string{to}, subject, htmlBody); err != nil {
		s.metrics.RecordNotificationDispatch(ctx, "email", kind, false)
		s.log.Error("email dispatch failed", zap.String("kind", kind), zap.Error(err))
		return err
	}
	s.metrics.RecordNotificationDispatch(ctx, "email", kind, true)

	if phone := strings.TrimSpace(msg.PatientPhone); phone != "" {
		if err := s.whatsapp.SendMessage(ctx, phone, text); err != nil {
			s.metrics.RecordNotificationDispatch(ctx, "whatsapp", kind, false)
			s.log.Warn("whatsapp dispatch failed", zap.String("kind", kind), zap.Error(err))
		} else {
			s.metrics.RecordNotificationDispatch(ctx, "whatsapp", kind, true)
		}
	}

	return nil
}
