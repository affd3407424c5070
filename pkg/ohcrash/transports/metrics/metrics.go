// Package metrics provides a transport decorator that records Prometheus
// metrics for every delivery attempt.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/strongdm/ohcrash-go/pkg/ohcrash"
)

// Result label values.
const (
	ResultSuccess     = "success"
	ResultFailure     = "failure"
	ResultRateLimited = "rate_limited"
)

// Metrics holds the collectors for one decorated transport.
type Metrics struct {
	sent     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inflight prometheus.Gauge
}

// Option configures the metrics transport.
type Option func(*config)

type config struct {
	namespace  string
	registerer prometheus.Registerer
	buckets    []float64
}

// WithNamespace prefixes metric names. Defaults to "ohcrash".
func WithNamespace(ns string) Option {
	return func(c *config) {
		c.namespace = ns
	}
}

// WithRegisterer registers the collectors with r instead of the default
// registry. A nil registerer leaves them unregistered.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(c *config) {
		c.registerer = r
	}
}

// WithBuckets sets the send latency histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *config) {
		c.buckets = buckets
	}
}

func newMetrics(cfg *config) *Metrics {
	return &Metrics{
		sent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.namespace,
				Name:      "reports_sent_total",
				Help:      "Total number of report delivery attempts",
			},
			[]string{"channel", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.namespace,
				Name:      "report_send_duration_seconds",
				Help:      "Latency of report delivery attempts",
				Buckets:   cfg.buckets,
			},
			[]string{"channel"},
		),
		inflight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.namespace,
				Name:      "reports_inflight",
				Help:      "Number of report deliveries in progress",
			},
		),
	}
}

func (m *Metrics) register(r prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.sent, m.duration, m.inflight} {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

type transport struct {
	next    ohcrash.Transport
	metrics *Metrics
}

// New wraps next with delivery metrics. It fails if the collectors cannot be
// registered.
func New(next ohcrash.Transport, opts ...Option) (ohcrash.Transport, *Metrics, error) {
	cfg := &config{
		namespace:  "ohcrash",
		registerer: prometheus.DefaultRegisterer,
		buckets:    prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	m := newMetrics(cfg)
	if cfg.registerer != nil {
		if err := m.register(cfg.registerer); err != nil {
			return nil, nil, err
		}
	}
	return &transport{next: next, metrics: m}, m, nil
}

// Send forwards to the wrapped transport and records the outcome.
func (t *transport) Send(ctx context.Context, report ohcrash.Report) error {
	channel := string(report.Channel)
	if channel == "" {
		channel = "send"
	}

	t.metrics.inflight.Inc()
	defer t.metrics.inflight.Dec()

	start := time.Now()
	err := t.next.Send(ctx, report)
	t.metrics.duration.WithLabelValues(channel).Observe(time.Since(start).Seconds())

	t.metrics.sent.WithLabelValues(channel, resultOf(err)).Inc()
	return err
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, ohcrash.ErrRateLimited):
		return ResultRateLimited
	default:
		return ResultFailure
	}
}

// Flush delegates to the wrapped transport.
func (t *transport) Flush(ctx context.Context) error {
	return t.next.Flush(ctx)
}

// Close delegates to the wrapped transport.
func (t *transport) Close() error {
	return t.next.Close()
}
