package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/sitebot/core"
	"github.com/poiesic/sitebot/queue"
	"github.com/poiesic/sitebot/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDeletionTest(t *testing.T) (*badger.Repositories, *queue.Queue) {
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	conn, err := queue.Connect("", true)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	processQueue, err := queue.New(conn, queue.DeletionProcessQueue)
	require.NoError(t, err)
	t.Cleanup(func() { processQueue.Close() })

	return repos, processQueue
}

func TestDeletionSweepEnqueuesDueRequests(t *testing.T) {
	ctx := context.Background()
	repos, processQueue := setupDeletionTest(t)
	now := time.Now().UTC()

	added, err := repos.Deletions.AddDeletionRequests(ctx,
		&core.DeletionRequest{UserId: 11, Status: core.DeletionPending, ScheduledFor: now.Add(-time.Hour)},
		&core.DeletionRequest{UserId: 12, Status: core.DeletionPending, ScheduledFor: now.Add(time.Hour)},
		&core.DeletionRequest{UserId: 13, Status: core.DeletionCompleted, ScheduledFor: now.Add(-time.Hour)},
	)
	require.NoError(t, err)

	sweep, err := NewDeletionSweep(repos.Deletions, processQueue)
	require.NoError(t, err)

	summary, err := sweep.Run(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalFound)
	assert.Equal(t, 1, summary.Processed)

	env, err := processQueue.Dequeue(ctx)
	require.NoError(t, err)
	job, err := DecodeDeletionJob(env.Payload)
	require.NoError(t, err)
	assert.Equal(t, added[0].Id, job.RequestId)
	assert.Equal(t, core.ID(11), job.UserId)

	// The sweep only enqueues; the request row itself is untouched.
	remaining, err := repos.Deletions.ListDuePending(ctx, now)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestDeletionSweepNothingDue(t *testing.T) {
	ctx := context.Background()
	repos, processQueue := setupDeletionTest(t)

	sweep, err := NewDeletionSweep(repos.Deletions, processQueue)
	require.NoError(t, err)

	summary, err := sweep.Run(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Zero(t, summary.TotalFound)
	assert.Zero(t, summary.Processed)

	length, err := processQueue.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, length)
}

func TestDeletionJobRoundTrip(t *testing.T) {
	job := DeletionJob{RequestId: 99, UserId: 7}

	decoded, err := DecodeDeletionJob(EncodeDeletionJob(job))
	require.NoError(t, err)
	assert.Equal(t, job, decoded)
}
