package server

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	invitationdomain "github.com/Vaibhavsahu2810/hcw-home-sub001/internal/invitation/domain"
	"github.com/Vaibhavsahu2810/hcw-home-sub001/pkg/db/pagination"
)

// AcknowledgeInvitation handles GET /public/invites/acknowledge/:token.
func (s *Server) AcknowledgeInvitation(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		AbortWithError(c, invitationdomain.ErrInvitationNotFound)
		return
	}

	details, err := s.invitationSvc.Acknowledge(c.Request.Context(), token)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, details)
}

// GetInvitationDetails handles GET /public/invites/details/:token.
func (s *Server) GetInvitationDetails(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		AbortWithError(c, invitationdomain.ErrInvitationNotFound)
		return
	}

	details, err := s.invitationSvc.GetDetails(c.Request.Context(), token)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, details)
}

// Pointer fields so a missing check is a validation error while an
// explicit false still binds.
type deviceTestRequest struct {
	CameraTest     *bool `json:"cameraTest" binding:"required"`
	MicrophoneTest *bool `json:"microphoneTest" binding:"required"`
	SpeakerTest    *bool `json:"speakerTest" binding:"required"`
}

// CompleteDeviceTest handles POST /public/invites/complete-device-test/:token.
func (s *Server) CompleteDeviceTest(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		AbortWithError(c, invitationdomain.ErrInvitationNotFound)
		return
	}

	var req deviceTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("body", "invalid_input", "cameraTest, microphoneTest and speakerTest are required booleans"))
		return
	}

	details, err := s.invitationSvc.CompleteDeviceTestAndAccept(c.Request.Context(), token, invitationdomain.DeviceTestRequest{
		CameraTest:     *req.CameraTest,
		MicrophoneTest: *req.MicrophoneTest,
		SpeakerTest:    *req.SpeakerTest,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, details)
}

// JoinConsultation handles POST /public/invites/join-consultation/:token.
func (s *Server) JoinConsultation(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		AbortWithError(c, invitationdomain.ErrInvitationNotFound)
		return
	}

	details, err := s.invitationSvc.JoinViaReminder(c.Request.Context(), token)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, details)
}

// SendPreConsultationEmail handles POST /public/invites/send-pre-consultation-email/:invitationId.
func (s *Server) SendPreConsultationEmail(c *gin.Context) {
	invitationID := strings.TrimSpace(c.Param("invitationId"))
	if invitationID == "" {
		AbortWithError(c, invitationdomain.ErrInvitationNotFound)
		return
	}

	if err := s.invitationSvc.SendPreConsultationNotice(c.Request.Context(), invitationID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}

type createInvitationRequest struct {
	ConsultationID string `json:"consultation_id" binding:"required"`
}

// CreateInvitation handles POST /admin/invitations.
func (s *Server) CreateInvitation(c *gin.Context) {
	var req createInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("consultation_id", "required", "consultation_id is required"))
		return
	}

	details, err := s.invitationSvc.Create(c.Request.Context(), invitationdomain.CreateInvitationRequest{
		ConsultationID: req.ConsultationID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, details)
}

// ListInvitations handles GET /admin/invitations.
func (s *Server) ListInvitations(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invitationSvc.List(c.Request.Context(), invitationdomain.ListInvitationRequest{
		ConsultationID: strings.TrimSpace(c.Query("consultation_id")),
		Status:         strings.TrimSpace(c.Query("status")),
		PageToken:      page.PageToken,
		PageSize:       page.PageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// PublicInviteRateLimit throttles the unauthenticated invite endpoints
// per client address. Unconfigured or failing redis admits the request.
func (s *Server) PublicInviteRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.inviteLimiter == nil {
			c.Next()
			return
		}

		res, err := s.inviteLimiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			c.Next()
			return
		}
		if !res.Allowed {
			if res.RetryAfter > 0 {
				seconds := int(math.Ceil(res.RetryAfter.Seconds()))
				c.Header("Retry-After", strconv.Itoa(seconds))
			}
			s.obsMetrics.RecordRateLimitDenied(c.Request.Context(), c.FullPath())
			AbortWithError(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}
