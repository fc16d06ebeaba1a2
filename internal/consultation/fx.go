package consultation

import (
	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/consultation/repository"
	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/consultation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("consultation.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
