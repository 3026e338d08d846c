package workorder

import (
	"github.com/smallbiznis/spk/internal/workorder/repository"
	"github.com/smallbiznis/spk/internal/workorder/service"
	"github.com/smallbiznis/spk/internal/workorder/validation"
	"go.uber.org/fx"
)

var Module = fx.Module("workorder.service",
	fx.Provide(repository.Provide),
	fx.Provide(validation.New),
	fx.Provide(service.New),
)
