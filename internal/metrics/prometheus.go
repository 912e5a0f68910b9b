package metrics

import (
	"context"
	"strconv"
	"strings"
	"time"

	"naasprov/internal/types"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
	log "github.com/sirupsen/logrus"
)

const (
	namespace = "naasprov"
	// JobName groups pushed series on the Pushgateway.
	JobName = "naasprov"
)

// Metrics holds the run metrics. A short-lived process has nothing to scrape, so the registry is pushed
// to a Pushgateway when the run ends.
type Metrics struct {
	Registry *prometheus.Registry

	RunsTotal              *prometheus.CounterVec
	StepFailuresTotal      *prometheus.CounterVec
	VendorRequestDuration  *prometheus.HistogramVec
	LastRunTimestampSecond prometheus.Gauge
}

// NewMetrics creates the metrics on a private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Workflow runs by outcome",
		}, []string{"outcome"}),
		StepFailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_failures_total",
			Help:      "Workflow runs that failed, by failing step",
		}, []string{"step"}),
		VendorRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "vendor_request_duration_seconds",
			Help:      "Vendor API call latency by operation and status code",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"op", "code"}),
		LastRunTimestampSecond: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last workflow run finished",
		}),
	}
}

// ObserveVendorCall records one vendor exchange. A status of 0 means no response was received.
func (m *Metrics) ObserveVendorCall(op string, statusCode int, elapsed time.Duration) {
	code := "error"
	if statusCode > 0 {
		code = strconv.Itoa(statusCode)
	}
	m.VendorRequestDuration.WithLabelValues(op, code).Observe(elapsed.Seconds())
}

func (m *Metrics) RunFinished(outcome string, at time.Time) {
	m.RunsTotal.WithLabelValues(outcome).Inc()
	m.LastRunTimestampSecond.Set(float64(at.Unix()))
}

func (m *Metrics) StepFailed(step string) {
	m.StepFailuresTotal.WithLabelValues(step).Inc()
}

// Push sends the registry to the Pushgateway at url, grouped by instance. An empty url is a no-op.
func (m *Metrics) Push(ctx context.Context, url, instance string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil
	}
	p := push.New(url, JobName).Gatherer(m.Registry)
	if instance != "" {
		p = p.Grouping("instance", instance)
	}
	if err := p.PushContext(ctx); err != nil {
		return types.Err(types.ErrUpstream, err, "push metrics to %s", url)
	}
	log.WithField("pushgateway", url).Debug("metrics pushed")
	return nil
}
