package invitation

import (
	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/invitation/repository"
	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/invitation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invitation.service",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
