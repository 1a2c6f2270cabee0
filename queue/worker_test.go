package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureSink records alerts and counters for assertions.
type captureSink struct {
	mu       sync.Mutex
	alerts   []string
	counters map[string]int
}

func newCaptureSink() *captureSink {
	return &captureSink{counters: make(map[string]int)}
}

func (s *captureSink) AlertCritical(kind, message string, context map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, kind)
}

func (s *captureSink) IncrementCounter(name string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[name] += n
}

func (s *captureSink) alertCount(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, a := range s.alerts {
		if a == kind {
			count++
		}
	}
	return count
}

func (s *captureSink) counter(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[name]
}

func TestWorkerProcessesJobs(t *testing.T) {
	ctx := context.Background()
	q := setupTestQueue(t, ScrapeQueue)
	sink := newCaptureSink()

	var mu sync.Mutex
	var seen []string
	worker, err := NewWorker(q, func(ctx context.Context, env *Envelope) error {
		mu.Lock()
		seen = append(seen, string(env.Payload))
		mu.Unlock()
		return nil
	},
		WithPollInterval(10*time.Millisecond),
		WithWorkerSink(sink))
	require.NoError(t, err)

	_, err = q.Enqueue(ctx, []byte("a"))
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, []byte("b"))
	require.NoError(t, err)

	worker.Start(ctx)
	defer worker.Stop()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 2
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, []string{"a", "b"}, seen)
	assert.Equal(t, 2, sink.counter(ScrapeQueue+"_jobs_processed"))
}

func TestWorkerRetriesThenExhausts(t *testing.T) {
	ctx := context.Background()
	q := setupTestQueue(t, EmbeddingQueue)
	sink := newCaptureSink()

	var mu sync.Mutex
	attempts := 0
	worker, err := NewWorker(q, func(ctx context.Context, env *Envelope) error {
		mu.Lock()
		attempts++
		mu.Unlock()
		return errors.New("boom")
	},
		WithPollInterval(5*time.Millisecond),
		WithRetryDelay(5*time.Millisecond),
		WithWorkerSink(sink))
	require.NoError(t, err)

	_, err = q.Enqueue(ctx, []byte("doomed"))
	require.NoError(t, err)

	worker.Start(ctx)
	defer worker.Stop()

	require.Eventually(t, func() bool {
		return sink.alertCount("job_exhausted") == 1
	}, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, DefaultMaxAttempts, attempts, "bounded retries, then give up")
	mu.Unlock()
	assert.Equal(t, DefaultMaxAttempts, sink.counter(EmbeddingQueue+"_jobs_failed"))

	// The job must not come back after exhaustion.
	time.Sleep(50 * time.Millisecond)
	length, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, length)
}

func TestWorkerRecoversAfterFailure(t *testing.T) {
	ctx := context.Background()
	q := setupTestQueue(t, ScrapeQueue)

	var mu sync.Mutex
	calls := 0
	worker, err := NewWorker(q, func(ctx context.Context, env *Envelope) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			return errors.New("transient")
		}
		return nil
	},
		WithPollInterval(5*time.Millisecond),
		WithRetryDelay(5*time.Millisecond))
	require.NoError(t, err)

	_, err = q.Enqueue(ctx, []byte("eventually"))
	require.NoError(t, err)

	worker.Start(ctx)
	defer worker.Stop()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 2
	}, 5*time.Second, 10*time.Millisecond)
}

func TestNewWorkerValidation(t *testing.T) {
	q := setupTestQueue(t, ScrapeQueue)

	_, err := NewWorker(nil, func(ctx context.Context, env *Envelope) error { return nil })
	assert.ErrorIs(t, err, ErrConnectionRequired)

	_, err = NewWorker(q, nil)
	assert.ErrorIs(t, err, ErrHandlerRequired)
}
