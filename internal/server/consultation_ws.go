package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	consultationdomain "github.com/Vaibhavsahu2810/hcw-home-sub001/internal/consultation/domain"
	obscontext "github.com/Vaibhavsahu2810/hcw-home-sub001/internal/observability/context"
	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/observability/logger"
	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/realtime"
)

// CloseUnauthorized is the close code sent on rejected admissions. The
// reason is always the uniform one; the internal cause never leaves the
// process.
const CloseUnauthorized = 4401

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 50 * time.Second
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The entry ticket is the invitation token, not the Origin header.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ConsultationSession handles GET /ws/consultation/:consultationId.
// The admission decision resolves before any session traffic flows.
func (s *Server) ConsultationSession(c *gin.Context) {
	consultationID := strings.TrimSpace(c.Param("consultationId"))
	if consultationID == "" {
		AbortWithError(c, ErrNotFound)
		return
	}

	if _, err := s.consultationSvc.GetByID(c.Request.Context(), consultationID); err != nil {
		if err == consultationdomain.ErrNotFound {
			AbortWithError(c, ErrNotFound)
			return
		}
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	ctx := c.Request.Context()
	admission := s.guard.Admit(ctx, realtime.Sources(
		realtime.HandshakeCredential{Query: c.Request.URL.Query()},
		realtime.HeaderCredential{Header: c.Request.Header},
	))

	if admission.User != nil {
		ctx = obscontext.WithActor(ctx, "user", admission.User.ID)
	} else if admission.Admitted() {
		ctx = obscontext.WithActor(ctx, "anonymous", "")
	}

	log := logger.FromContext(ctx).Named("realtime.session")

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return
	}
	defer conn.Close()

	if !admission.Admitted() {
		deadline := time.Now().Add(wsWriteWait)
		msg := websocket.FormatCloseMessage(CloseUnauthorized, realtime.RejectionReason)
		_ = conn.WriteControl(websocket.CloseMessage, msg, deadline)
		return
	}

	joined := realtime.SessionEvent{
		ConsultationID: consultationID,
		Type:           realtime.EventParticipantJoined,
		Anonymous:      admission.User == nil,
		User:           admission.User,
		At:             time.Now().UTC(),
	}

	sub, backlog, err := s.hub.Subscribe(consultationID)
	if err != nil {
		log.Error("subscribe session", zap.Error(err))
		return
	}
	defer sub.Close()

	s.hub.Publish(consultationID, joined)
	defer func() {
		s.hub.Publish(consultationID, realtime.SessionEvent{
			ConsultationID: consultationID,
			Type:           realtime.EventParticipantLeft,
			Anonymous:      admission.User == nil,
			User:           admission.User,
			At:             time.Now().UTC(),
		})
	}()

	for _, event := range backlog {
		if err := writeSessionEvent(conn, event); err != nil {
			return
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(1024)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case event := <-sub.Events():
			if err := writeSessionEvent(conn, event); err != nil {
				return
			}
		case <-ping.C:
			deadline := time.Now().Add(wsWriteWait)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

func writeSessionEvent(conn *websocket.Conn, event realtime.SessionEvent) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(event)
}
