package metrics

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	RenderReasonDeadlineExceeded = "deadline_exceeded"
	RenderReasonNotFound         = "not_found"
	RenderReasonDBLockTimeout    = "db_lock_timeout"
	RenderReasonUnknown          = "unknown"
)

// RenderMetrics tracks document rendering latency and failures on the
// Prometheus registry scraped at /metrics.
type RenderMetrics struct {
	duration prometheus.Observer
	failures *prometheus.CounterVec
	inflight prometheus.Gauge
}

func NewRenderMetrics(registerer prometheus.Registerer, cfg Config) *RenderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "spk"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{"service": serviceName, "env": environment}

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "spk_document_render_duration_seconds",
		Help:        "Work order document render latency.",
		Buckets:     []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		ConstLabels: constLabels,
	})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "spk_document_render_failures_total",
		Help:        "Work order document render failures by reason.",
		ConstLabels: constLabels,
	}, []string{"reason"})
	inflight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "spk_document_renders_inflight",
		Help:        "Document renders currently in progress.",
		ConstLabels: constLabels,
	})

	registerer.MustRegister(duration, failures, inflight)

	return &RenderMetrics{duration: duration, failures: failures, inflight: inflight}
}

// Track marks a render as started and returns the func that completes it.
func (m *RenderMetrics) Track() func(err error) {
	if m == nil {
		return func(error) {}
	}
	start := time.Now()
	m.inflight.Inc()
	return func(err error) {
		m.inflight.Dec()
		m.duration.Observe(time.Since(start).Seconds())
		if err != nil {
			m.failures.WithLabelValues(ClassifyRenderReason(err)).Inc()
		}
	}
}

// ClassifyRenderReason maps an error to a low-cardinality reason label.
func ClassifyRenderReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return RenderReasonDeadlineExceeded
	case errors.Is(err, gorm.ErrRecordNotFound):
		return RenderReasonNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "55P03" {
		return RenderReasonDBLockTimeout
	}
	return RenderReasonUnknown
}
