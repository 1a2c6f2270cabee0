package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/sitebot/metrics"
)

const (
	defaultPollInterval = 250 * time.Millisecond
	defaultRetryDelay   = 5 * time.Second
)

// Handler processes one job. Returning an error re-enqueues the job until
// its attempts are exhausted.
type Handler func(ctx context.Context, env *Envelope) error

// Worker pulls envelopes from one queue and dispatches them to a bounded
// pool. Each job family gets its own Worker so concurrency can be tuned
// per queue; sweep workers run with concurrency 1.
type Worker struct {
	queue        *Queue
	handler      Handler
	pool         *ants.Pool
	pollInterval time.Duration
	retryDelay   time.Duration
	logger       *slog.Logger
	sink         metrics.Sink

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
	inflight sync.WaitGroup
}

// WorkerOption configures a Worker.
type WorkerOption func(*workerOptions)

type workerOptions struct {
	concurrency  int
	pollInterval time.Duration
	retryDelay   time.Duration
	logger       *slog.Logger
	sink         metrics.Sink
}

// WithConcurrency sets the worker pool size. Default is 1.
func WithConcurrency(n int) WorkerOption {
	return func(o *workerOptions) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithPollInterval sets the idle delay between empty polls.
func WithPollInterval(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithRetryDelay sets the base delay before a failed job becomes visible
// again. The delay grows linearly with the attempt count.
func WithRetryDelay(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.retryDelay = d
		}
	}
}

// WithWorkerLogger sets a custom logger. Default is slog.Default().
func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(o *workerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithWorkerSink sets the metrics sink. Default is metrics.NopSink.
func WithWorkerSink(sink metrics.Sink) WorkerOption {
	return func(o *workerOptions) {
		if sink != nil {
			o.sink = sink
		}
	}
}

// NewWorker creates a worker consuming the given queue.
func NewWorker(q *Queue, handler Handler, opts ...WorkerOption) (*Worker, error) {
	if q == nil {
		return nil, ErrConnectionRequired
	}
	if handler == nil {
		return nil, ErrHandlerRequired
	}

	options := &workerOptions{
		concurrency:  1,
		pollInterval: defaultPollInterval,
		retryDelay:   defaultRetryDelay,
		logger:       slog.Default(),
		sink:         metrics.NopSink{},
	}
	for _, opt := range opts {
		opt(options)
	}

	pool, err := ants.NewPool(options.concurrency)
	if err != nil {
		return nil, err
	}

	return &Worker{
		queue:        q,
		handler:      handler,
		pool:         pool,
		pollInterval: options.pollInterval,
		retryDelay:   options.retryDelay,
		logger:       options.logger.With("worker", q.Name()),
		sink:         options.sink,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}, nil
}

// Start launches the polling loop in its own goroutine.
func (w *Worker) Start(ctx context.Context) {
	go w.run(ctx)
}

// Stop terminates the polling loop, waits for in-flight jobs, and
// releases the pool. The worker cannot be restarted.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		<-w.done
		w.inflight.Wait()
		w.pool.Release()
	})
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		default:
		}

		env, err := w.queue.Dequeue(ctx)
		if err != nil {
			if err != ErrQueueEmpty {
				w.logger.Error("error polling queue", "err", err)
			}
			select {
			case <-ctx.Done():
				return
			case <-w.stop:
				return
			case <-time.After(w.pollInterval):
			}
			continue
		}

		w.inflight.Add(1)
		// Submit blocks when the pool is saturated, which is the
		// backpressure we want.
		submitErr := w.pool.Submit(func() {
			defer w.inflight.Done()
			w.process(ctx, env)
		})
		if submitErr != nil {
			w.inflight.Done()
			w.logger.Error("error submitting job to pool", "job", env.Id, "err", submitErr)
		}
	}
}

func (w *Worker) process(ctx context.Context, env *Envelope) {
	err := w.handler(ctx, env)
	if err == nil {
		w.sink.IncrementCounter(w.queue.Name()+"_jobs_processed", 1)
		return
	}

	env.Attempts++
	w.sink.IncrementCounter(w.queue.Name()+"_jobs_failed", 1)

	if env.Attempts < env.MaxAttempts {
		env.NotBefore = time.Now().UTC().Add(time.Duration(env.Attempts) * w.retryDelay)
		w.logger.Warn("job failed, will retry",
			"job", env.Id, "attempt", env.Attempts, "maxAttempts", env.MaxAttempts, "err", err)
		if rqErr := w.queue.Requeue(ctx, env); rqErr != nil {
			w.logger.Error("error requeueing job", "job", env.Id, "err", rqErr)
		}
		return
	}

	// Terminal: bounded retries exhausted. Failure is already recorded in
	// the run history by the handler; surface to operators, not users.
	w.logger.Error("job failed permanently", "job", env.Id, "attempts", env.Attempts, "err", err)
	w.sink.AlertCritical("job_exhausted", "job failed permanently", map[string]string{
		"queue": w.queue.Name(),
		"job":   env.Id,
		"error": err.Error(),
	})
}
