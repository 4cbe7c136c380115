package metrics

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the metrics collaborator of the import pipeline: counter
// increments and duration observations keyed by event name. Tags are
// slog-style key-value pairs carried for diagnostics.
type Recorder interface {
	Increment(event string, delta float64, tags ...any)
	Observe(event string, d time.Duration, tags ...any)
}

var _ Recorder = (*Prometheus)(nil)
var _ Recorder = Noop{}

// Prometheus records events into a dedicated registry. Fine-grained
// tags (owner id, url) are logged at debug level rather than used as
// labels to keep cardinality bounded.
type Prometheus struct {
	registry  *prometheus.Registry
	events    *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

func NewPrometheus() *Prometheus {
	registry := prometheus.NewRegistry()

	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_ingest_events_total",
		Help: "Pipeline event counters keyed by event name",
	}, []string{"event"})

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "feed_ingest_event_duration_seconds",
		Help:    "Pipeline event durations keyed by event name",
		Buckets: prometheus.DefBuckets,
	}, []string{"event"})

	registry.MustRegister(events, durations)

	return &Prometheus{
		registry:  registry,
		events:    events,
		durations: durations,
	}
}

func (p *Prometheus) Increment(event string, delta float64, tags ...any) {
	p.events.WithLabelValues(event).Add(delta)
	if len(tags) > 0 {
		slog.Debug("Metric incremented", append([]any{"event", event, "delta", delta}, tags...)...)
	}
}

func (p *Prometheus) Observe(event string, d time.Duration, tags ...any) {
	p.durations.WithLabelValues(event).Observe(d.Seconds())
	if len(tags) > 0 {
		slog.Debug("Metric observed", append([]any{"event", event, "duration", d.String()}, tags...)...)
	}
}

// Handler exposes the registry for the /metrics endpoint.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Noop discards all measurements. Used in tests.
type Noop struct{}

func (Noop) Increment(event string, delta float64, tags ...any) {}

func (Noop) Observe(event string, d time.Duration, tags ...any) {}
