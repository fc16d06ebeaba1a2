package notification

import (
	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/notification/service"
	"go.uber.org/fx"
)

var Module = fx.Module("notification.service",
	fx.Provide(service.New),
)
