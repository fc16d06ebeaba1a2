package realtime

import (
	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/auth/token"
	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/config"
	obsmetrics "github.com/Vaibhavsahu2810/hcw-home-sub001/internal/observability/metrics"
	userdomain "github.com/Vaibhavsahu2810/hcw-home-sub001/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type GuardParams struct {
	fx.In

	Cfg     config.Config
	Users   userdomain.Service
	Log     *zap.Logger
	Metrics *obsmetrics.Metrics `optional:"true"`
}

func newGuard(p GuardParams) *Guard {
	verifier := token.NewVerifier(p.Cfg.AuthJWTSecret)
	strict := func() bool { return p.Cfg.WSAuthStrict }
	return NewGuard(verifier, p.Users, strict, p.Log, p.Metrics)
}

var Module = fx.Module("realtime",
	fx.Provide(
		newGuard,
		NewHub,
	),
)
