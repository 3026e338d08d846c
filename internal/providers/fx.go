package providers

import (
	"github.com/smallbiznis/spk/internal/providers/artifact"
	"github.com/smallbiznis/spk/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	artifact.Module,
	pdf.Module,
)
