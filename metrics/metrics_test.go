package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusSinkCounters(t *testing.T) {
	sink, err := NewPrometheusSink(prometheus.NewRegistry(), nil)
	require.NoError(t, err)

	sink.IncrementCounter("scrape_jobs_processed", 1)
	sink.IncrementCounter("scrape_jobs_processed", 2)
	sink.IncrementCounter("embedding_jobs_failed", 1)

	assert.Equal(t, 3.0, testutil.ToFloat64(sink.counters.WithLabelValues("scrape_jobs_processed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.counters.WithLabelValues("embedding_jobs_failed")))
}

func TestPrometheusSinkAlerts(t *testing.T) {
	sink, err := NewPrometheusSink(prometheus.NewRegistry(), nil)
	require.NoError(t, err)

	sink.AlertCritical("job_exhausted", "job failed permanently", map[string]string{
		"queue": "scrape",
		"job":   "abc",
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(sink.alerts.WithLabelValues("job_exhausted")))
}

func TestPrometheusSinkDuplicateRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()

	_, err := NewPrometheusSink(registry, nil)
	require.NoError(t, err)

	_, err = NewPrometheusSink(registry, nil)
	assert.Error(t, err, "one sink per registry")
}

func TestNopSink(t *testing.T) {
	var sink Sink = NopSink{}

	// Must not panic.
	sink.IncrementCounter("anything", 1)
	sink.AlertCritical("anything", "message", nil)
}
