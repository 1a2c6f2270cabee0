package queue

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go"
	"github.com/poiesic/sitebot/metrics"
	"github.com/poiesic/sitebot/storage/badger"
)

const (
	// maxConnectAttempts bounds connection retries. The queue backend is a
	// shared, quota-limited resource; unbounded retry would amplify an
	// outage.
	maxConnectAttempts = 3

	backoffStep = 100 * time.Millisecond
	backoffCap  = 2 * time.Second
)

// Backoff returns the delay before the given 1-based connection attempt.
// Delays grow linearly (attempt x 100ms) and are capped at 2s. Attempts
// past the bound return ok=false: stop retrying.
func Backoff(attempt int) (delay time.Duration, ok bool) {
	if attempt < 1 || attempt > maxConnectAttempts {
		return 0, false
	}
	delay = time.Duration(attempt) * backoffStep
	if delay > backoffCap {
		delay = backoffCap
	}
	return delay, true
}

// Connection is the shared handle to the queue backend. Construct one at
// process start and pass it to every queue and worker.
type Connection struct {
	backend *badger.Backend
	logger  *slog.Logger
	sink    metrics.Sink
}

// ConnectOption configures a Connection.
type ConnectOption func(*Connection)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) ConnectOption {
	return func(c *Connection) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSink sets the metrics sink. Default is metrics.NopSink.
func WithSink(sink metrics.Sink) ConnectOption {
	return func(c *Connection) {
		if sink != nil {
			c.sink = sink
		}
	}
}

// Connect opens the queue backend at the given path, retrying with the
// bounded linear backoff. Pass inMemory=true for tests.
//
// After the final attempt fails the error is returned and the caller is
// degraded: no reconnection storm is started. The give-up is signaled at
// debug level so operators can distinguish "temporarily down" from
// "given up".
func Connect(filePath string, inMemory bool, opts ...ConnectOption) (*Connection, error) {
	conn := &Connection{
		logger: slog.Default(),
		sink:   metrics.NopSink{},
	}
	for _, opt := range opts {
		opt(conn)
	}
	conn.logger = conn.logger.With("component", "queue")

	err := retry.Do(
		func() error {
			backend, err := badger.OpenBackend(filePath, inMemory)
			if err != nil {
				return err
			}
			conn.backend = backend
			return nil
		},
		retry.Attempts(maxConnectAttempts),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			// n is the zero-based count of failed attempts.
			delay, _ := Backoff(int(n) + 1)
			return delay
		}),
		retry.OnRetry(func(n uint, err error) {
			conn.logger.Warn("queue connection failed, will retry",
				"attempt", n+1, "maxAttempts", maxConnectAttempts, "err", err)
		}),
	)
	if err != nil {
		conn.logger.Debug("queue connection retries exhausted, giving up",
			"attempts", maxConnectAttempts, "err", err)
		conn.sink.IncrementCounter("queue_connect_exhausted", 1)
		return nil, fmt.Errorf("%w: %w", ErrConnectExhausted, err)
	}

	return conn, nil
}

// Close closes the underlying backend.
func (c *Connection) Close() error {
	return c.backend.Close()
}
