package schedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/sitebot/core"
	"github.com/poiesic/sitebot/queue"
	"github.com/poiesic/sitebot/storage"
)

// DeletionJob asks the deletion processor to erase one account. The
// processor lives outside this module; the sweep only enqueues.
type DeletionJob struct {
	RequestId core.ID
	UserId    core.ID
}

// DeletionJobMUS serializes deletion jobs for queue payloads.
var DeletionJobMUS = deletionJobMUS{}

type deletionJobMUS struct{}

func (deletionJobMUS) Marshal(v DeletionJob, bs []byte) int {
	n := core.IDMUS.Marshal(v.RequestId, bs)
	n += core.IDMUS.Marshal(v.UserId, bs[n:])
	return n
}

func (deletionJobMUS) Unmarshal(bs []byte) (v DeletionJob, n int, err error) {
	var m int
	if v.RequestId, n, err = core.IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if v.UserId, m, err = core.IDMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	return v, n, nil
}

func (deletionJobMUS) Size(v DeletionJob) int {
	return core.IDMUS.Size(v.RequestId) + core.IDMUS.Size(v.UserId)
}

// EncodeDeletionJob marshals a deletion job into a queue payload.
func EncodeDeletionJob(job DeletionJob) []byte {
	buf := make([]byte, DeletionJobMUS.Size(job))
	DeletionJobMUS.Marshal(job, buf)
	return buf
}

// DecodeDeletionJob unmarshals a queue payload into a deletion job.
func DecodeDeletionJob(payload []byte) (DeletionJob, error) {
	job, _, err := DeletionJobMUS.Unmarshal(payload)
	return job, err
}

// DeletionSweep finds pending account deletion requests whose scheduled
// date has passed and enqueues them for processing. It never mutates the
// requests; status changes belong to the deletion processor.
type DeletionSweep struct {
	deletions    storage.DeletionRequestRepository
	processQueue *queue.Queue
	logger       *slog.Logger
}

// DeletionOption configures a DeletionSweep.
type DeletionOption func(*DeletionSweep)

// WithDeletionLogger sets a custom logger. Default is slog.Default().
func WithDeletionLogger(logger *slog.Logger) DeletionOption {
	return func(s *DeletionSweep) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewDeletionSweep creates the nightly deletion sweep.
func NewDeletionSweep(
	deletions storage.DeletionRequestRepository,
	processQueue *queue.Queue,
	opts ...DeletionOption,
) (*DeletionSweep, error) {
	if deletions == nil {
		return nil, ErrDeletionRepositoryRequired
	}
	if processQueue == nil {
		return nil, ErrQueueRequired
	}

	s := &DeletionSweep{
		deletions:    deletions,
		processQueue: processQueue,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handle lets the sweep run as a queue job. It is the queue.Handler for
// the scheduled-deletion-check queue.
func (s *DeletionSweep) Handle(ctx context.Context, _ *queue.Envelope) error {
	_, err := s.Run(ctx, time.Now().UTC())
	return err
}

// Run performs one sweep pass at the given time, selecting every pending
// request with ScheduledFor at or before now.
func (s *DeletionSweep) Run(ctx context.Context, now time.Time) (Summary, error) {
	var summary Summary

	due, err := s.deletions.ListDuePending(ctx, now)
	if err != nil {
		return summary, err
	}
	summary.TotalFound = len(due)

	for _, req := range due {
		job := DeletionJob{RequestId: req.Id, UserId: req.UserId}
		if _, err := s.processQueue.Enqueue(ctx, EncodeDeletionJob(job)); err != nil {
			s.logger.Error("error enqueueing deletion", "request", req.Id, "err", err)
			continue
		}
		summary.Processed++
	}

	s.logger.Info("deletion sweep finished",
		"found", summary.TotalFound, "processed", summary.Processed)
	return summary, nil
}
