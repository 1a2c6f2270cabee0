package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/sitebot/core"
	"github.com/poiesic/sitebot/ingest"
	"github.com/poiesic/sitebot/queue"
	"github.com/poiesic/sitebot/storage"
	"github.com/poiesic/sitebot/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSweepTest(t *testing.T) (*badger.Repositories, *queue.Queue) {
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	conn, err := queue.Connect("", true)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	scrapeQueue, err := queue.New(conn, queue.ScrapeQueue)
	require.NoError(t, err)
	t.Cleanup(func() { scrapeQueue.Close() })

	return repos, scrapeQueue
}

func addRescrapeBot(t *testing.T, repos *badger.Repositories, name string, frequency core.ScrapeFrequency, lastScraped time.Time) *core.Chatbot {
	added, err := repos.Chatbots.AddChatbots(context.Background(), &core.Chatbot{
		Name:          name,
		WebsiteURL:    "https://" + name + ".example.com",
		MaxPages:      25,
		AutoRescrape:  true,
		Frequency:     frequency,
		LastScrapedAt: lastScraped,
	})
	require.NoError(t, err)
	return added[0]
}

func TestRescrapeSweepDueLogic(t *testing.T) {
	ctx := context.Background()
	repos, scrapeQueue := setupSweepTest(t)
	now := time.Now().UTC()

	due := addRescrapeBot(t, repos, "due-daily", core.FrequencyDaily, now.Add(-25*time.Hour))
	addRescrapeBot(t, repos, "fresh-daily", core.FrequencyDaily, now.Add(-10*time.Hour))
	addRescrapeBot(t, repos, "fresh-weekly", core.FrequencyWeekly, now.Add(-100*time.Hour))
	addRescrapeBot(t, repos, "unknown-freq", core.ScrapeFrequency("hourly"), now.Add(-500*time.Hour))
	never := addRescrapeBot(t, repos, "never-scraped", core.FrequencyMonthly, time.Time{})

	sweep, err := NewRescrapeSweep(repos.Chatbots, repos.Runs, scrapeQueue)
	require.NoError(t, err)

	summary, err := sweep.Run(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalFound)
	assert.Equal(t, 2, summary.Processed)

	// Each due chatbot got a pending scheduled run and a scrape job.
	wantBots := map[core.ID]bool{due.Id: true, never.Id: true}
	for i := 0; i < 2; i++ {
		env, err := scrapeQueue.Dequeue(ctx)
		require.NoError(t, err)
		job, err := ingest.DecodeScrapeJob(env.Payload)
		require.NoError(t, err)
		assert.True(t, wantBots[job.ChatbotId], "unexpected chatbot %d", job.ChatbotId)
		assert.True(t, job.IsRescrape)
		delete(wantBots, job.ChatbotId)

		run, err := repos.Runs.GetRunHistory(ctx, job.HistoryId)
		require.NoError(t, err)
		assert.Equal(t, core.RunStatusPending, run.Status)
		assert.Equal(t, core.TriggerScheduled, run.TriggeredBy)
	}

	_, err = scrapeQueue.Dequeue(ctx)
	assert.ErrorIs(t, err, queue.ErrQueueEmpty)
}

func TestRescrapeSweepSkipsManualChatbots(t *testing.T) {
	ctx := context.Background()
	repos, scrapeQueue := setupSweepTest(t)
	now := time.Now().UTC()

	addRescrapeBot(t, repos, "manual", core.FrequencyManual, now.Add(-1000*time.Hour))

	sweep, err := NewRescrapeSweep(repos.Chatbots, repos.Runs, scrapeQueue)
	require.NoError(t, err)

	summary, err := sweep.Run(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, summary.TotalFound)
	assert.Zero(t, summary.Processed)
}

// failingRunRepo fails run creation for one chatbot to simulate a
// broken tenant.
type failingRunRepo struct {
	storage.RunHistoryRepository
	failFor core.ID
}

func (r *failingRunRepo) AddRunHistories(ctx context.Context, runs ...*core.RunHistory) ([]*core.RunHistory, error) {
	for _, run := range runs {
		if run.ChatbotId == r.failFor {
			return nil, errors.New("tenant storage unavailable")
		}
	}
	return r.RunHistoryRepository.AddRunHistories(ctx, runs...)
}

func TestRescrapeSweepTenantFailureSkipsOnlyThatTenant(t *testing.T) {
	ctx := context.Background()
	repos, scrapeQueue := setupSweepTest(t)
	now := time.Now().UTC()

	broken := addRescrapeBot(t, repos, "broken", core.FrequencyDaily, now.Add(-48*time.Hour))
	addRescrapeBot(t, repos, "healthy-1", core.FrequencyDaily, now.Add(-48*time.Hour))
	addRescrapeBot(t, repos, "healthy-2", core.FrequencyDaily, now.Add(-48*time.Hour))

	runs := &failingRunRepo{RunHistoryRepository: repos.Runs, failFor: broken.Id}
	sweep, err := NewRescrapeSweep(repos.Chatbots, runs, scrapeQueue)
	require.NoError(t, err)

	summary, err := sweep.Run(ctx, now)
	require.NoError(t, err, "one bad tenant must not fail the sweep")
	assert.Equal(t, 3, summary.TotalFound)
	assert.Equal(t, 2, summary.Processed)

	length, err := scrapeQueue.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, length)
}

func TestRescrapeSweepHandle(t *testing.T) {
	ctx := context.Background()
	repos, scrapeQueue := setupSweepTest(t)

	addRescrapeBot(t, repos, "due", core.FrequencyDaily, time.Now().UTC().Add(-48*time.Hour))

	sweep, err := NewRescrapeSweep(repos.Chatbots, repos.Runs, scrapeQueue)
	require.NoError(t, err)

	require.NoError(t, sweep.Handle(ctx, &queue.Envelope{Id: "sweep", MaxAttempts: 3}))

	length, err := scrapeQueue.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, length)
}
