package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/config"
	consultationdomain "github.com/Vaibhavsahu2810/hcw-home-sub001/internal/consultation/domain"
	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/invitation/domain"
	notificationdomain "github.com/Vaibhavsahu2810/hcw-home-sub001/internal/notification/domain"
	obsmetrics "github.com/Vaibhavsahu2810/hcw-home-sub001/internal/observability/metrics"
	pkgdb "github.com/Vaibhavsahu2810/hcw-home-sub001/pkg/db"
	"github.com/Vaibhavsahu2810/hcw-home-sub001/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Cfg           config.Config
	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Repo          domain.Repository
	Consultations consultationdomain.Service
	Notifier      notificationdomain.Service
	Metrics       *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	baseURL       string
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	repo          domain.Repository
	consultations consultationdomain.Service
	notifier      notificationdomain.Service
	metrics       *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		baseURL:       p.Cfg.PublicBaseURL,
		db:            p.DB,
		log:           p.Log.Named("invitation.service"),
		genID:         p.GenID,
		repo:          p.Repo,
		consultations: p.Consultations,
		notifier:      p.Notifier,
		metrics:       p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateInvitationRequest) (domain.Details, error) {
	consultation, err := s.lookupConsultation(ctx, strings.TrimSpace(req.ConsultationID))
	if err != nil {
		return domain.Details{}, err
	}

	now := time.Now().UTC()
	invitation := &domain.Invitation{
		ID:             s.genID.Generate(),
		ConsultationID: consultation.ID,
		Token:          uuid.NewString(),
		Status:         domain.StatusIssued,
		Metadata:       datatypes.JSONMap{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Insert(ctx, s.db, invitation); err != nil {
		if !pkgdb.IsDuplicateKeyErr(err) {
			s.log.Error("insert invitation", zap.Error(err))
			return domain.Details{}, fmt.Errorf("%w: %s", domain.ErrDependencyFailure, err)
		}
		// Token collision on the unique index: draw a fresh one and retry once.
		invitation.Token = uuid.NewString()
		if err := s.repo.Insert(ctx, s.db, invitation); err != nil {
			s.log.Error("insert invitation", zap.Error(err))
			return domain.Details{}, fmt.Errorf("%w: %s", domain.ErrDependencyFailure, err)
		}
	}

	s.metrics.RecordInviteTransition(ctx, "", string(domain.StatusIssued))

	return s.details(invitation, consultation), nil
}

// Acknowledge is idempotent: replays on an already-advanced invitation
// fall through to a plain read of the current state.
func (s *Service) Acknowledge(ctx context.Context, token string) (domain.Details, error) {
	invitation, consultation, err := s.load(ctx, token)
	if err != nil {
		return domain.Details{}, err
	}

	if !invitation.Status.AtLeast(domain.StatusAcknowledged) {
		now := time.Now().UTC()
		affected, err := s.repo.MarkAcknowledged(ctx, s.db, invitation.Token, now)
		if err != nil {
			s.log.Error("mark acknowledged", zap.Error(err))
			return domain.Details{}, fmt.Errorf("%w: %s", domain.ErrDependencyFailure, err)
		}
		if affected > 0 {
			invitation.Status = domain.StatusAcknowledged
			invitation.AcknowledgedAt = &now
			s.metrics.RecordInviteTransition(ctx, string(domain.StatusIssued), string(domain.StatusAcknowledged))
		} else {
			// Lost the race; re-read whichever state won.
			invitation, consultation, err = s.load(ctx, token)
			if err != nil {
				return domain.Details{}, err
			}
		}
	}

	return s.details(invitation, consultation), nil
}

func (s *Service) GetDetails(ctx context.Context, token string) (domain.Details, error) {
	invitation, consultation, err := s.load(ctx, token)
	if err != nil {
		return domain.Details{}, err
	}
	return s.details(invitation, consultation), nil
}

func (s *Service) CompleteDeviceTestAndAccept(ctx context.Context, token string, req domain.DeviceTestRequest) (domain.Details, error) {
	invitation, consultation, err := s.load(ctx, token)
	if err != nil {
		return domain.Details{}, err
	}

	if invitation.Status.AtLeast(domain.StatusAccepted) {
		return s.details(invitation, consultation), nil
	}

	now := time.Now().UTC()
	affected, err := s.repo.MarkDeviceTestedAndAccepted(ctx, s.db, invitation.Token, req, now)
	if err != nil {
		s.log.Error("mark device tested", zap.Error(err))
		return domain.Details{}, fmt.Errorf("%w: %s", domain.ErrDependencyFailure, err)
	}

	if affected == 0 {
		// A concurrent call already accepted it; that call owns the
		// notification.
		invitation, consultation, err = s.load(ctx, token)
		if err != nil {
			return domain.Details{}, err
		}
		return s.details(invitation, consultation), nil
	}

	invitation.Status = domain.StatusAccepted
	invitation.CameraTest = &req.CameraTest
	invitation.MicrophoneTest = &req.MicrophoneTest
	invitation.SpeakerTest = &req.SpeakerTest
	invitation.DeviceTestedAt = &now
	invitation.AcceptedAt = &now
	s.metrics.RecordInviteTransition(ctx, string(domain.StatusDeviceTested), string(domain.StatusAccepted))

	// The accepted state is already durable. A delivery failure here is
	// reported to the caller but never rolls the invitation back.
	if err := s.notifier.SendConsultationConfirmed(ctx, s.message(invitation, consultation)); err != nil {
		s.log.Error("send confirmation", zap.String("token", invitation.Token), zap.Error(err))
		return s.details(invitation, consultation), fmt.Errorf("%w: %s", domain.ErrDependencyFailure, err)
	}

	return s.details(invitation, consultation), nil
}

// JoinViaReminder admits through the reminder link. Following the link
// counts as acceptance, so the device-test step is skipped outright.
func (s *Service) JoinViaReminder(ctx context.Context, token string) (domain.Details, error) {
	invitation, consultation, err := s.load(ctx, token)
	if err != nil {
		return domain.Details{}, err
	}

	if consultation != nil && consultation.WindowElapsed(time.Now().UTC()) {
		return domain.Details{}, domain.ErrInvitationExpired
	}

	if !invitation.Status.AtLeast(domain.StatusAccepted) {
		now := time.Now().UTC()
		affected, err := s.repo.MarkAccepted(ctx, s.db, invitation.Token, now)
		if err != nil {
			s.log.Error("mark accepted", zap.Error(err))
			return domain.Details{}, fmt.Errorf("%w: %s", domain.ErrDependencyFailure, err)
		}
		if affected > 0 {
			s.metrics.RecordInviteTransition(ctx, string(invitation.Status), string(domain.StatusAccepted))
			invitation.Status = domain.StatusAccepted
			invitation.AcceptedAt = &now
		}
	}

	return s.details(invitation, consultation), nil
}

// SendPreConsultationNotice re-dispatches the reminder on demand. There
// is no once-only guard; operators resend deliberately.
func (s *Service) SendPreConsultationNotice(ctx context.Context, invitationID string) error {
	id, err := snowflake.ParseString(strings.TrimSpace(invitationID))
	if err != nil || id == 0 {
		return domain.ErrInvitationNotFound
	}

	invitation, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		s.log.Error("find invitation", zap.Error(err))
		return fmt.Errorf("%w: %s", domain.ErrDependencyFailure, err)
	}
	if invitation == nil {
		return domain.ErrInvitationNotFound
	}

	consultation, err := s.consultations.GetByID(ctx, invitation.ConsultationID.String())
	if err != nil {
		return s.mapConsultationErr(err)
	}

	if err := s.notifier.SendPreConsultationNotice(ctx, s.message(invitation, consultation)); err != nil {
		s.log.Error("send reminder", zap.String("token", invitation.Token), zap.Error(err))
		return fmt.Errorf("%w: %s", domain.ErrDependencyFailure, err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, req domain.ListInvitationRequest) (domain.ListInvitationResponse, error) {
	page := pagination.Pagination{PageToken: req.PageToken, PageSize: req.PageSize}
	if page.PageSize <= 0 {
		page.PageSize = 10
	}

	filter := domain.ListInvitationFilter{
		ConsultationID: strings.TrimSpace(req.ConsultationID),
		Status:         strings.TrimSpace(req.Status),
	}

	invitations, err := s.repo.List(ctx, s.db, filter, page)
	if err != nil {
		s.log.Error("list invitations", zap.Error(err))
		return domain.ListInvitationResponse{}, fmt.Errorf("%w: %s", domain.ErrDependencyFailure, err)
	}

	info := pagination.BuildCursorPageInfo(invitations, page.PageSize, func(inv *domain.Invitation) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        inv.ID.String(),
			CreatedAt: inv.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if len(invitations) > page.PageSize {
		invitations = invitations[:page.PageSize]
	}

	items := make([]domain.Details, 0, len(invitations))
	for _, inv := range invitations {
		items = append(items, s.details(inv, nil))
	}

	return domain.ListInvitationResponse{
		PageInfo:    *info,
		Invitations: items,
	}, nil
}

// load resolves a token to its invitation and consultation, mapping
// absence to the caller-facing not-found error.
func (s *Service) load(ctx context.Context, token string) (*domain.Invitation, *consultationdomain.Consultation, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil, domain.ErrInvitationNotFound
	}

	invitation, err := s.repo.FindByToken(ctx, s.db, token)
	if err != nil {
		s.log.Error("find invitation", zap.Error(err))
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrDependencyFailure, err)
	}
	if invitation == nil {
		return nil, nil, domain.ErrInvitationNotFound
	}

	consultation, err := s.consultations.GetByID(ctx, invitation.ConsultationID.String())
	if err != nil {
		return nil, nil, s.mapConsultationErr(err)
	}

	return invitation, consultation, nil
}

func (s *Service) lookupConsultation(ctx context.Context, id string) (*consultationdomain.Consultation, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	consultation, err := s.consultations.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapConsultationErr(err)
	}
	return consultation, nil
}

func (s *Service) mapConsultationErr(err error) error {
	if err == consultationdomain.ErrNotFound {
		return domain.ErrInvitationNotFound
	}
	s.log.Error("lookup consultation", zap.Error(err))
	return fmt.Errorf("%w: %s", domain.ErrDependencyFailure, err)
}

func (s *Service) details(inv *domain.Invitation, consultation *consultationdomain.Consultation) domain.Details {
	d := domain.Details{
		ID:             inv.ID.String(),
		Token:          inv.Token,
		ConsultationID: inv.ConsultationID.String(),
		Status:         inv.Status,
		CameraTest:     inv.CameraTest,
		MicrophoneTest: inv.MicrophoneTest,
		SpeakerTest:    inv.SpeakerTest,
		AcknowledgedAt: inv.AcknowledgedAt,
		DeviceTestedAt: inv.DeviceTestedAt,
		AcceptedAt:     inv.AcceptedAt,
	}
	if consultation != nil {
		d.ScheduledAt = consultation.ScheduledAt
		d.EndsAt = consultation.EndsAt
	}
	return d
}

func (s *Service) message(inv *domain.Invitation, consultation *consultationdomain.Consultation) notificationdomain.ConsultationMessage {
	msg := notificationdomain.ConsultationMessage{
		JoinURL: fmt.Sprintf("%s/invites/%s", s.baseURL, inv.Token),
	}
	if consultation != nil {
		msg.PatientEmail = consultation.PatientEmail
		msg.PatientPhone = consultation.PatientPhone
		msg.ScheduledAt = consultation.ScheduledAt
	}
	return msg
}
