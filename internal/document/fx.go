package document

import (
	"github.com/smallbiznis/spk/internal/document/service"
	"go.uber.org/fx"
)

var Module = fx.Module("document.service",
	fx.Provide(service.NewDocumentCache),
	fx.Provide(service.New),
)
