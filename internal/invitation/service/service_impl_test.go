package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/config"
	consultationdomain "github.com/Vaibhavsahu2810/hcw-home-sub001/internal/consultation/domain"
	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/invitation/domain"
	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/invitation/repository"
	notificationdomain "github.com/Vaibhavsahu2810/hcw-home-sub001/internal/notification/domain"
)

// -- Mocks --

type consultationMock struct {
	mock.Mock
}

func (m *consultationMock) GetByID(ctx context.Context, id string) (*consultationdomain.Consultation, error) {
	args := m.Called(ctx, id)
	res := args.Get(0)
	if res == nil {
		return nil, args.Error(1)
	}
	return res.(*consultationdomain.Consultation), args.Error(1)
}

type notifierMock struct {
	mock.Mock
}

func (m *notifierMock) SendConsultationConfirmed(ctx context.Context, msg notificationdomain.ConsultationMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *notifierMock) SendPreConsultationNotice(ctx context.Context, msg notificationdomain.ConsultationMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// tokenCollisionRepo forces the first insert onto an already-taken
// token so the unique index fires, then delegates untouched.
type tokenCollisionRepo struct {
	domain.Repository
	stale    string
	collided bool
}

func (r *tokenCollisionRepo) Insert(ctx context.Context, db *gorm.DB, invitation *domain.Invitation) error {
	if !r.collided {
		r.collided = true
		invitation.Token = r.stale
	}
	return r.Repository.Insert(ctx, db, invitation)
}

// -- Helpers --

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Invitation{}))
	return db
}

func scheduledConsultation(id snowflake.ID) *consultationdomain.Consultation {
	now := time.Now().UTC()
	return &consultationdomain.Consultation{
		ID:           id,
		PatientEmail: "patient@example.com",
		PatientPhone: "+33600000000",
		Status:       consultationdomain.StatusScheduled,
		ScheduledAt:  now.Add(time.Hour),
		EndsAt:       now.Add(2 * time.Hour),
	}
}

func newTestService(t *testing.T, db *gorm.DB, consultations *consultationMock, notifier *notifierMock) domain.Service {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return New(Params{
		Cfg:           config.Config{PublicBaseURL: "http://localhost:8080"},
		DB:            db,
		Log:           zap.NewNop(),
		GenID:         node,
		Repo:          repository.Provide(),
		Consultations: consultations,
		Notifier:      notifier,
	})
}

// -- Tests --

func TestCreate_IssuesInvitation(t *testing.T) {
	db := setupDB(t)
	consultations := new(consultationMock)
	notifier := new(notifierMock)
	svc := newTestService(t, db, consultations, notifier)

	consultation := scheduledConsultation(100)
	consultations.On("GetByID", mock.Anything, "100").Return(consultation, nil)

	details, err := svc.Create(context.Background(), domain.CreateInvitationRequest{ConsultationID: "100"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusIssued, details.Status)
	assert.NotEmpty(t, details.Token)
	assert.Equal(t, "100", details.ConsultationID)
	assert.Nil(t, details.CameraTest)
	assert.Nil(t, details.AcceptedAt)
}

func TestCreate_RetriesOnTokenCollision(t *testing.T) {
	db := setupDB(t)
	consultations := new(consultationMock)
	consultations.On("GetByID", mock.Anything, "100").Return(scheduledConsultation(100), nil)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	base := repository.Provide()
	now := time.Now().UTC()
	require.NoError(t, base.Insert(context.Background(), db, &domain.Invitation{
		ID:             node.Generate(),
		ConsultationID: 100,
		Token:          "already-taken",
		Status:         domain.StatusIssued,
		Metadata:       datatypes.JSONMap{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}))

	svc := New(Params{
		Cfg:           config.Config{PublicBaseURL: "http://localhost:8080"},
		DB:            db,
		Log:           zap.NewNop(),
		GenID:         node,
		Repo:          &tokenCollisionRepo{Repository: base, stale: "already-taken"},
		Consultations: consultations,
		Notifier:      new(notifierMock),
	})

	details, err := svc.Create(context.Background(), domain.CreateInvitationRequest{ConsultationID: "100"})
	require.NoError(t, err)
	assert.NotEqual(t, "already-taken", details.Token)
	assert.NotEmpty(t, details.Token)
	assert.Equal(t, domain.StatusIssued, details.Status)
}

func TestCreate_UnknownConsultation(t *testing.T) {
	db := setupDB(t)
	consultations := new(consultationMock)
	svc := newTestService(t, db, consultations, new(notifierMock))

	consultations.On("GetByID", mock.Anything, "999").Return(nil, consultationdomain.ErrNotFound)

	_, err := svc.Create(context.Background(), domain.CreateInvitationRequest{ConsultationID: "999"})
	assert.ErrorIs(t, err, domain.ErrInvitationNotFound)
}

func TestAcknowledge_Transition(t *testing.T) {
	db := setupDB(t)
	consultations := new(consultationMock)
	svc := newTestService(t, db, consultations, new(notifierMock))

	consultations.On("GetByID", mock.Anything, "100").Return(scheduledConsultation(100), nil)

	created, err := svc.Create(context.Background(), domain.CreateInvitationRequest{ConsultationID: "100"})
	require.NoError(t, err)

	details, err := svc.Acknowledge(context.Background(), created.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAcknowledged, details.Status)
	require.NotNil(t, details.AcknowledgedAt)

	firstAck := *details.AcknowledgedAt

	// Replay is a read-through: state and timestamp are untouched.
	again, err := svc.Acknowledge(context.Background(), created.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAcknowledged, again.Status)
	require.NotNil(t, again.AcknowledgedAt)
	assert.Equal(t, firstAck.Unix(), again.AcknowledgedAt.Unix())
}

func TestAcknowledge_UnknownToken(t *testing.T) {
	db := setupDB(t)
	svc := newTestService(t, db, new(consultationMock), new(notifierMock))

	_, err := svc.Acknowledge(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, domain.ErrInvitationNotFound)
}

func TestCompleteDeviceTestAndAccept_SendsConfirmationOnce(t *testing.T) {
	db := setupDB(t)
	consultations := new(consultationMock)
	notifier := new(notifierMock)
	svc := newTestService(t, db, consultations, notifier)

	consultations.On("GetByID", mock.Anything, "100").Return(scheduledConsultation(100), nil)
	notifier.On("SendConsultationConfirmed", mock.Anything, mock.Anything).Return(nil).Once()

	created, err := svc.Create(context.Background(), domain.CreateInvitationRequest{ConsultationID: "100"})
	require.NoError(t, err)

	_, err = svc.Acknowledge(context.Background(), created.Token)
	require.NoError(t, err)

	req := domain.DeviceTestRequest{CameraTest: true, MicrophoneTest: true, SpeakerTest: false}
	details, err := svc.CompleteDeviceTestAndAccept(context.Background(), created.Token, req)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, details.Status)
	require.NotNil(t, details.SpeakerTest)
	assert.False(t, *details.SpeakerTest)
	require.NotNil(t, details.DeviceTestedAt)
	require.NotNil(t, details.AcceptedAt)

	// The replay must not re-dispatch the confirmation.
	again, err := svc.CompleteDeviceTestAndAccept(context.Background(), created.Token, req)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, again.Status)

	notifier.AssertNumberOfCalls(t, "SendConsultationConfirmed", 1)
}

func TestCompleteDeviceTestAndAccept_NotificationFailureKeepsState(t *testing.T) {
	db := setupDB(t)
	consultations := new(consultationMock)
	notifier := new(notifierMock)
	svc := newTestService(t, db, consultations, notifier)

	consultations.On("GetByID", mock.Anything, "100").Return(scheduledConsultation(100), nil)
	notifier.On("SendConsultationConfirmed", mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()

	created, err := svc.Create(context.Background(), domain.CreateInvitationRequest{ConsultationID: "100"})
	require.NoError(t, err)

	req := domain.DeviceTestRequest{CameraTest: true, MicrophoneTest: true, SpeakerTest: true}
	_, err = svc.CompleteDeviceTestAndAccept(context.Background(), created.Token, req)
	assert.ErrorIs(t, err, domain.ErrDependencyFailure)

	// Acceptance survived the delivery failure, and retrying the call
	// does not dispatch again.
	details, err := svc.GetDetails(context.Background(), created.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, details.Status)

	_, err = svc.CompleteDeviceTestAndAccept(context.Background(), created.Token, req)
	require.NoError(t, err)
	notifier.AssertNumberOfCalls(t, "SendConsultationConfirmed", 1)
}

func TestJoinViaReminder_SkipsDeviceTest(t *testing.T) {
	db := setupDB(t)
	consultations := new(consultationMock)
	svc := newTestService(t, db, consultations, new(notifierMock))

	consultations.On("GetByID", mock.Anything, "100").Return(scheduledConsultation(100), nil)

	created, err := svc.Create(context.Background(), domain.CreateInvitationRequest{ConsultationID: "100"})
	require.NoError(t, err)

	details, err := svc.JoinViaReminder(context.Background(), created.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, details.Status)
	assert.Nil(t, details.CameraTest)
	assert.Nil(t, details.DeviceTestedAt)
	require.NotNil(t, details.AcceptedAt)
}

func TestJoinViaReminder_ExpiredWindow(t *testing.T) {
	db := setupDB(t)
	consultations := new(consultationMock)
	svc := newTestService(t, db, consultations, new(notifierMock))

	consultation := scheduledConsultation(100)
	consultation.ScheduledAt = time.Now().UTC().Add(-3 * time.Hour)
	consultation.EndsAt = time.Now().UTC().Add(-2 * time.Hour)
	consultations.On("GetByID", mock.Anything, "100").Return(consultation, nil)

	created, err := svc.Create(context.Background(), domain.CreateInvitationRequest{ConsultationID: "100"})
	require.NoError(t, err)

	_, err = svc.JoinViaReminder(context.Background(), created.Token)
	assert.ErrorIs(t, err, domain.ErrInvitationExpired)

	// An expired reminder join must not have advanced the status.
	details, err := svc.GetDetails(context.Background(), created.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusIssued, details.Status)
}

func TestSendPreConsultationNotice_Resends(t *testing.T) {
	db := setupDB(t)
	consultations := new(consultationMock)
	notifier := new(notifierMock)
	svc := newTestService(t, db, consultations, notifier)

	consultations.On("GetByID", mock.Anything, "100").Return(scheduledConsultation(100), nil)
	notifier.On("SendPreConsultationNotice", mock.Anything, mock.Anything).Return(nil)

	created, err := svc.Create(context.Background(), domain.CreateInvitationRequest{ConsultationID: "100"})
	require.NoError(t, err)

	require.NoError(t, svc.SendPreConsultationNotice(context.Background(), created.ID))
	require.NoError(t, svc.SendPreConsultationNotice(context.Background(), created.ID))
	notifier.AssertNumberOfCalls(t, "SendPreConsultationNotice", 2)
}

func TestSendPreConsultationNotice_UnknownID(t *testing.T) {
	db := setupDB(t)
	svc := newTestService(t, db, new(consultationMock), new(notifierMock))

	err := svc.SendPreConsultationNotice(context.Background(), "12345")
	assert.ErrorIs(t, err, domain.ErrInvitationNotFound)

	err = svc.SendPreConsultationNotice(context.Background(), "not-a-number")
	assert.ErrorIs(t, err, domain.ErrInvitationNotFound)
}

func TestList_FiltersAndPaginates(t *testing.T) {
	db := setupDB(t)
	consultations := new(consultationMock)
	svc := newTestService(t, db, consultations, new(notifierMock))

	consultations.On("GetByID", mock.Anything, "100").Return(scheduledConsultation(100), nil)
	consultations.On("GetByID", mock.Anything, "200").Return(scheduledConsultation(200), nil)

	for i := 0; i < 3; i++ {
		_, err := svc.Create(context.Background(), domain.CreateInvitationRequest{ConsultationID: "100"})
		require.NoError(t, err)
	}
	other, err := svc.Create(context.Background(), domain.CreateInvitationRequest{ConsultationID: "200"})
	require.NoError(t, err)
	_, err = svc.Acknowledge(context.Background(), other.Token)
	require.NoError(t, err)

	resp, err := svc.List(context.Background(), domain.ListInvitationRequest{ConsultationID: "100", PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, resp.Invitations, 2)
	assert.True(t, resp.HasMore)
	assert.NotEmpty(t, resp.NextPageToken)

	resp, err = svc.List(context.Background(), domain.ListInvitationRequest{Status: string(domain.StatusAcknowledged), PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, resp.Invitations, 1)
	assert.False(t, resp.HasMore)
}
