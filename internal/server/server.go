package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/config"
	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/consultation"
	consultationdomain "github.com/Vaibhavsahu2810/hcw-home-sub001/internal/consultation/domain"
	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/invitation"
	invitationdomain "github.com/Vaibhavsahu2810/hcw-home-sub001/internal/invitation/domain"
	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/notification"
	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/observability"
	obsmiddleware "github.com/Vaibhavsahu2810/hcw-home-sub001/internal/observability/logger"
	obsmetrics "github.com/Vaibhavsahu2810/hcw-home-sub001/internal/observability/metrics"
	obstracing "github.com/Vaibhavsahu2810/hcw-home-sub001/internal/observability/tracing"
	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/providers/email"
	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/providers/whatsapp"
	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/ratelimit"
	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/realtime"
	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/user"
)

var Module = fx.Module("http.server",
	config.Module,
	fx.Provide(registerGin),
	email.Module,
	whatsapp.Module,
	notification.Module,
	user.Module,
	consultation.Module,
	invitation.Module,
	ratelimit.Module,
	realtime.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine) {
	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	db              *gorm.DB
	invitationSvc   invitationdomain.Service
	consultationSvc consultationdomain.Service
	guard           *realtime.Guard
	hub             *realtime.Hub
	inviteLimiter   *ratelimit.PublicInviteLimiter
	obsMetrics      *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	InvitationSvc   invitationdomain.Service
	ConsultationSvc consultationdomain.Service
	Guard           *realtime.Guard
	Hub             *realtime.Hub
	InviteLimiter   *ratelimit.PublicInviteLimiter `optional:"true"`
	ObsMetrics      *obsmetrics.Metrics            `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		invitationSvc:   p.InvitationSvc,
		consultationSvc: p.ConsultationSvc,
		guard:           p.Guard,
		hub:             p.Hub,
		inviteLimiter:   p.InviteLimiter,
		obsMetrics:      p.ObsMetrics,
	}

	svc.registerPublicRoutes()
	svc.registerAdminRoutes()
	svc.registerRealtimeRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerPublicRoutes() {
	public := s.engine.Group("/public/invites", s.PublicInviteRateLimit())

	public.GET("/acknowledge/:token", s.AcknowledgeInvitation)
	public.GET("/details/:token", s.GetInvitationDetails)
	public.POST("/complete-device-test/:token", s.CompleteDeviceTest)
	public.POST("/join-consultation/:token", s.JoinConsultation)
	public.POST("/send-pre-consultation-email/:invitationId", s.SendPreConsultationEmail)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin")

	admin.POST("/invitations", s.CreateInvitation)
	admin.GET("/invitations", s.ListInvitations)
}

func (s *Server) registerRealtimeRoutes() {
	s.engine.GET("/ws/consultation/:consultationId", s.ConsultationSession)
}
