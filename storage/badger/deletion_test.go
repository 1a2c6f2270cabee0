package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/sitebot/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeletionListDuePending(t *testing.T) {
	ctx := context.Background()
	repos := setupTestRepositories(t)
	now := time.Now().UTC()

	due := &core.DeletionRequest{UserId: 1, Status: core.DeletionPending, ScheduledFor: now.Add(-time.Hour)}
	exactlyNow := &core.DeletionRequest{UserId: 2, Status: core.DeletionPending, ScheduledFor: now}
	future := &core.DeletionRequest{UserId: 3, Status: core.DeletionPending, ScheduledFor: now.Add(time.Hour)}
	cancelled := &core.DeletionRequest{UserId: 4, Status: core.DeletionCancelled, ScheduledFor: now.Add(-time.Hour)}
	processing := &core.DeletionRequest{UserId: 5, Status: core.DeletionProcessing, ScheduledFor: now.Add(-time.Hour)}

	_, err := repos.Deletions.AddDeletionRequests(ctx, due, exactlyNow, future, cancelled, processing)
	require.NoError(t, err)

	got, err := repos.Deletions.ListDuePending(ctx, now)
	require.NoError(t, err)
	require.Len(t, got, 2, "only pending requests at or past their date")

	users := []core.ID{got[0].UserId, got[1].UserId}
	assert.ElementsMatch(t, []core.ID{1, 2}, users)
}

func TestDeletionListDuePendingEmpty(t *testing.T) {
	ctx := context.Background()
	repos := setupTestRepositories(t)

	got, err := repos.Deletions.ListDuePending(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Empty(t, got)
}
