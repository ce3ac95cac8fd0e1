package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Job is the Pushgateway job name for uploader runs.
const Job = "stream_uploader"

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics counts uploads and polls of one run. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry
	uploads  *prometheus.CounterVec
	polls    prometheus.Counter
	duration prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stream_uploader_uploads_total",
			Help: "Uploads finished, by outcome.",
		}, []string{"outcome"}),
		polls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stream_uploader_polls_total",
			Help: "Readiness checks made while waiting for videos.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stream_uploader_upload_duration_seconds",
			Help:    "Time from copy request until the video was ready or failed.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
	m.registry.MustRegister(m.uploads, m.polls, m.duration)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveUpload(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(outcome).Inc()
	m.duration.Observe(d.Seconds())
}

func (m *Metrics) ObservePoll() {
	if m == nil {
		return
	}
	m.polls.Inc()
}

// Push sends the current values to a Pushgateway, replacing the job's group.
func (m *Metrics) Push(ctx context.Context, gatewayURL string) error {
	if m == nil {
		return nil
	}
	return push.New(gatewayURL, Job).Gatherer(m.registry).PushContext(ctx)
}
