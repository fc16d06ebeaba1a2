package user

import (
	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/user/repository"
	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/user/service"
	"go.uber.org/fx"
)

var Module = fx.Module("user.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
