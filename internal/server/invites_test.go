package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	invitationdomain "github.com/Vaibhavsahu2810/hcw-home-sub001/internal/invitation/domain"
)

type fakeInvitationService struct {
	details        invitationdomain.Details
	err            error
	lastDeviceTest invitationdomain.DeviceTestRequest
	deviceCalls    int
	noticeCalls    int
}

func (f *fakeInvitationService) Create(ctx context.Context, req invitationdomain.CreateInvitationRequest) (invitationdomain.Details, error) {
	_ = ctx
	_ = req
	return f.details, f.err
}

func (f *fakeInvitationService) Acknowledge(ctx context.Context, token string) (invitationdomain.Details, error) {
	_ = ctx
	_ = token
	return f.details, f.err
}

func (f *fakeInvitationService) GetDetails(ctx context.Context, token string) (invitationdomain.Details, error) {
	_ = ctx
	_ = token
	return f.details, f.err
}

func (f *fakeInvitationService) CompleteDeviceTestAndAccept(ctx context.Context, token string, req invitationdomain.DeviceTestRequest) (invitationdomain.Details, error) {
	f.deviceCalls++
	f.lastDeviceTest = req
	_ = ctx
	_ = token
	return f.details, f.err
}

func (f *fakeInvitationService) JoinViaReminder(ctx context.Context, token string) (invitationdomain.Details, error) {
	_ = ctx
	_ = token
	return f.details, f.err
}

func (f *fakeInvitationService) SendPreConsultationNotice(ctx context.Context, invitationID string) error {
	f.noticeCalls++
	_ = ctx
	_ = invitationID
	return f.err
}

func (f *fakeInvitationService) List(ctx context.Context, req invitationdomain.ListInvitationRequest) (invitationdomain.ListInvitationResponse, error) {
	_ = ctx
	_ = req
	return invitationdomain.ListInvitationResponse{}, f.err
}

func newTestRouter(svc invitationdomain.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	srv := &Server{invitationSvc: svc}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/public/invites/acknowledge/:token", srv.AcknowledgeInvitation)
	router.GET("/public/invites/details/:token", srv.GetInvitationDetails)
	router.POST("/public/invites/complete-device-test/:token", srv.CompleteDeviceTest)
	router.POST("/public/invites/join-consultation/:token", srv.JoinConsultation)
	router.POST("/public/invites/send-pre-consultation-email/:invitationId", srv.SendPreConsultationEmail)
	router.POST("/admin/invitations", srv.CreateInvitation)
	return router
}

func TestAcknowledgeReturnsInvitation(t *testing.T) {
	svc := &fakeInvitationService{details: invitationdomain.Details{
		Token:  "tok-1",
		Status: invitationdomain.StatusAcknowledged,
	}}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/public/invites/acknowledge/tok-1", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	var body invitationdomain.Details
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Status != invitationdomain.StatusAcknowledged {
		t.Fatalf("expected acknowledged status, got %s", body.Status)
	}
}

func TestUnknownTokenReturns404(t *testing.T) {
	svc := &fakeInvitationService{err: invitationdomain.ErrInvitationNotFound}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/public/invites/details/missing", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}

	var body errorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Error.Type != "invitation_not_found" {
		t.Fatalf("expected invitation_not_found error type, got %q", body.Error.Type)
	}
}

func TestCompleteDeviceTestRequiresAllProbes(t *testing.T) {
	svc := &fakeInvitationService{}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/public/invites/complete-device-test/tok-1",
		bytes.NewBufferString(`{"cameraTest":true,"microphoneTest":true}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if svc.deviceCalls != 0 {
		t.Fatal("expected device test not to reach the state machine")
	}
}

func TestCompleteDeviceTestRejectsNonBooleanProbe(t *testing.T) {
	svc := &fakeInvitationService{}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/public/invites/complete-device-test/tok-1",
		bytes.NewBufferString(`{"cameraTest":"yes","microphoneTest":true,"speakerTest":true}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if svc.deviceCalls != 0 {
		t.Fatal("expected device test not to reach the state machine")
	}
}

func TestCompleteDeviceTestBindsExplicitFalse(t *testing.T) {
	svc := &fakeInvitationService{details: invitationdomain.Details{Status: invitationdomain.StatusAccepted}}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/public/invites/complete-device-test/tok-1",
		bytes.NewBufferString(`{"cameraTest":false,"microphoneTest":true,"speakerTest":true}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if svc.deviceCalls != 1 {
		t.Fatalf("expected one device test call, got %d", svc.deviceCalls)
	}
	if svc.lastDeviceTest.CameraTest {
		t.Fatal("expected cameraTest false to be preserved")
	}
	if !svc.lastDeviceTest.MicrophoneTest || !svc.lastDeviceTest.SpeakerTest {
		t.Fatal("expected microphone and speaker checks true")
	}
}

func TestJoinConsultationExpiredReturns410(t *testing.T) {
	svc := &fakeInvitationService{err: invitationdomain.ErrInvitationExpired}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/public/invites/join-consultation/tok-1", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusGone {
		t.Fatalf("expected status 410, got %d", resp.Code)
	}

	var body errorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Error.Type != "invitation_expired" {
		t.Fatalf("expected invitation_expired error type, got %q", body.Error.Type)
	}
}

func TestSendPreConsultationEmailAcknowledgesDispatch(t *testing.T) {
	svc := &fakeInvitationService{}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/public/invites/send-pre-consultation-email/12345", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if svc.noticeCalls != 1 {
		t.Fatalf("expected one dispatch, got %d", svc.noticeCalls)
	}
}

func TestCreateInvitationRequiresConsultationID(t *testing.T) {
	svc := &fakeInvitationService{}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/admin/invitations", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestDependencyFailureReturnsServerError(t *testing.T) {
	svc := &fakeInvitationService{err: invitationdomain.ErrDependencyFailure}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/public/invites/join-consultation/tok-1", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", resp.Code)
	}
}
