package notification

import (
	"context"

	"github.com/smallbiznis/spk/internal/config"
	"github.com/smallbiznis/spk/internal/observability/metrics"
	"github.com/smallbiznis/spk/internal/providers/webhook"
	"github.com/smallbiznis/spk/internal/workorder/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("notification",
	fx.Provide(NewHolderSource),
	fx.Provide(newTransport),
	fx.Provide(newDispatcher),
	fx.Provide(func(d *Dispatcher) domain.EventPublisher { return d }),
)

type dispatcherParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Source    ConfigSource
	Transport Transport
	Log       *zap.Logger
	Metrics   *metrics.Metrics `optional:"true"`
}

func newTransport(cfg config.Config, source ConfigSource) Transport {
	return webhook.New(source.Timeout(), cfg.AppName+"/"+cfg.AppVersion)
}

func newDispatcher(p dispatcherParams) *Dispatcher {
	d := NewDispatcher(p.Source, p.Transport, p.Log, p.Metrics)
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return d.Wait(ctx)
		},
	})
	return d
}
