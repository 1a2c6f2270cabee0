package metrics

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Sink receives operational signals from the pipeline. Implementations
// must be safe for concurrent use.
type Sink interface {
	// AlertCritical reports a condition that needs operator attention.
	AlertCritical(kind, message string, context map[string]string)

	// IncrementCounter adds n to the named counter.
	IncrementCounter(name string, n int)
}

// PrometheusSink implements Sink on a prometheus registry, with alerts
// mirrored to the log at error level.
type PrometheusSink struct {
	logger   *slog.Logger
	counters *prometheus.CounterVec
	alerts   *prometheus.CounterVec
}

var _ Sink = (*PrometheusSink)(nil)

// NewPrometheusSink creates a sink registered on the given registerer.
// Pass prometheus.NewRegistry() in tests to avoid duplicate registration.
func NewPrometheusSink(reg prometheus.Registerer, logger *slog.Logger) (*PrometheusSink, error) {
	if logger == nil {
		logger = slog.Default()
	}

	counters := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sitebot_events_total",
		Help: "Operational event counters, labeled by event name.",
	}, []string{"name"})
	if err := reg.Register(counters); err != nil {
		return nil, err
	}

	alerts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sitebot_critical_alerts_total",
		Help: "Critical alerts raised by the pipeline, labeled by kind.",
	}, []string{"kind"})
	if err := reg.Register(alerts); err != nil {
		return nil, err
	}

	return &PrometheusSink{
		logger:   logger.With("component", "metrics"),
		counters: counters,
		alerts:   alerts,
	}, nil
}

// AlertCritical logs the alert and bumps the labeled alert counter.
func (s *PrometheusSink) AlertCritical(kind, message string, context map[string]string) {
	args := make([]any, 0, 2*len(context)+2)
	args = append(args, "kind", kind)
	for k, v := range context {
		args = append(args, k, v)
	}
	s.logger.Error(message, args...)
	s.alerts.WithLabelValues(kind).Inc()
}

// IncrementCounter adds n to the named counter.
func (s *PrometheusSink) IncrementCounter(name string, n int) {
	s.counters.WithLabelValues(name).Add(float64(n))
}

// NopSink discards every signal. Useful as a default and in tests.
type NopSink struct{}

var _ Sink = NopSink{}

func (NopSink) AlertCritical(kind, message string, context map[string]string) {}

func (NopSink) IncrementCounter(name string, n int) {}
