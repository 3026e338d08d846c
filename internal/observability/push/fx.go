package push

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/spk/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const defaultInterval = time.Minute

var Module = fx.Module("metrics.push",
	fx.Invoke(register),
)

func configFrom(cfg config.Config) Config {
	return Config{
		Exporter:  cfg.MetricsPush.Exporter,
		Endpoint:  cfg.MetricsPush.Endpoint,
		AuthToken: cfg.MetricsPush.AuthToken,
		Job:       cfg.AppName,
		Instance:  cfg.Environment,
		Interval:  cfg.MetricsPush.Interval,
	}
}

// register starts the periodic push loop. A bad exporter config is logged
// and leaves the service running with /metrics only.
func register(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) {
	pushCfg := configFrom(cfg)
	log = log.Named("metrics.push")

	pusher, err := NewPusher(pushCfg)
	if err != nil {
		log.Warn("metrics push disabled", zap.Error(err))
		return
	}
	if pusher == nil {
		return
	}

	interval := pushCfg.Interval
	if interval <= 0 {
		interval = defaultInterval
	}

	loop := NewLoop(pusher, prometheus.DefaultGatherer, interval, log)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info("starting metrics push", zap.String("exporter", pushCfg.Exporter), zap.Duration("interval", interval))
			loop.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return loop.Stop(ctx)
		},
	})
}

// Loop pushes on a fixed interval and once more on stop.
type Loop struct {
	pusher   Pusher
	gatherer prometheus.Gatherer
	interval time.Duration
	log      *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewLoop(pusher Pusher, gatherer prometheus.Gatherer, interval time.Duration, log *zap.Logger) *Loop {
	return &Loop{
		pusher:   pusher,
		gatherer: gatherer,
		interval: interval,
		log:      log,
		done:     make(chan struct{}),
	}
}

func (l *Loop) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel

	go func() {
		defer close(l.done)
		ticker := time.NewTicker(l.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				l.pushOnce(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (l *Loop) Stop(ctx context.Context) error {
	if l.cancel == nil {
		return nil
	}
	l.cancel()
	select {
	case <-l.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	l.pushOnce(ctx)
	return nil
}

func (l *Loop) pushOnce(ctx context.Context) {
	pushCtx, cancel := context.WithTimeout(ctx, defaultPushTimeout)
	defer cancel()
	if err := l.pusher.Push(pushCtx, l.gatherer); err != nil {
		l.log.Warn("metrics push failed", zap.Error(err))
	}
}
