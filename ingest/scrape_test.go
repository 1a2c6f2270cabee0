package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/sitebot/core"
	crawlermock "github.com/poiesic/sitebot/crawler/mock"
	"github.com/poiesic/sitebot/queue"
	"github.com/poiesic/sitebot/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupScrapeTest(t *testing.T) (*badger.Repositories, *queue.Queue) {
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	conn, err := queue.Connect("", true)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	embedQueue, err := queue.New(conn, queue.EmbeddingQueue)
	require.NoError(t, err)
	t.Cleanup(func() { embedQueue.Close() })

	return repos, embedQueue
}

func newPendingRun(t *testing.T, repos *badger.Repositories, chatbotID core.ID) *core.RunHistory {
	added, err := repos.Runs.AddRunHistories(context.Background(), &core.RunHistory{
		ChatbotId:   chatbotID,
		Status:      core.RunStatusPending,
		TriggeredBy: core.TriggerManual,
		StartedAt:   time.Now().UTC(),
	})
	require.NoError(t, err)
	return added[0]
}

func scrapeEnvelope(job ScrapeJob, attempts int) *queue.Envelope {
	return &queue.Envelope{
		Id:          "test-envelope",
		Queue:       queue.ScrapeQueue,
		Payload:     EncodeScrapeJob(job),
		Attempts:    attempts,
		MaxAttempts: queue.DefaultMaxAttempts,
	}
}

func TestScrapeWorkerSuccess(t *testing.T) {
	ctx := context.Background()
	repos, embedQueue := setupScrapeTest(t)
	run := newPendingRun(t, repos, 1)

	worker, err := NewScrapeWorker(repos.Runs, crawlermock.NewMockCrawler(), embedQueue)
	require.NoError(t, err)

	job := ScrapeJob{ChatbotId: 1, HistoryId: run.Id, WebsiteURL: "https://example.com", MaxPages: 3}
	require.NoError(t, worker.Handle(ctx, scrapeEnvelope(job, 0)))

	got, err := repos.Runs.GetRunHistory(ctx, run.Id)
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusInProgress, got.Status, "completion belongs to the embedding stage")
	assert.Equal(t, 3, got.PagesScraped)

	env, err := embedQueue.Dequeue(ctx)
	require.NoError(t, err)
	embedJob, err := DecodeEmbeddingJob(env.Payload)
	require.NoError(t, err)
	assert.Equal(t, core.ID(1), embedJob.ChatbotId)
	assert.Equal(t, run.Id, embedJob.HistoryId)
	assert.Len(t, embedJob.Pages, 3)
	assert.Equal(t, run.StartedAt.Truncate(time.Microsecond), embedJob.StartedAt,
		"embedding generation comes from the run start time")
}

func TestScrapeWorkerCrawlFailure(t *testing.T) {
	ctx := context.Background()
	repos, embedQueue := setupScrapeTest(t)
	run := newPendingRun(t, repos, 1)

	crawl := crawlermock.NewMockCrawler()
	crawl.CrawlFunc = func(ctx context.Context, url string, maxPages int) ([]core.Page, error) {
		return nil, errors.New("connection refused")
	}

	worker, err := NewScrapeWorker(repos.Runs, crawl, embedQueue)
	require.NoError(t, err)

	job := ScrapeJob{ChatbotId: 1, HistoryId: run.Id, WebsiteURL: "https://example.com", MaxPages: 3}

	// Last attempt: the failure is recorded on the run.
	err = worker.Handle(ctx, scrapeEnvelope(job, queue.DefaultMaxAttempts-1))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrScrapeFailed)

	got, err := repos.Runs.GetRunHistory(ctx, run.Id)
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusFailed, got.Status)
	assert.Contains(t, got.ErrorMessage, "scrape failed")
	assert.False(t, got.CompletedAt.IsZero())

	_, err = embedQueue.Dequeue(ctx)
	assert.ErrorIs(t, err, queue.ErrQueueEmpty, "failed scrapes never reach the embedding stage")
}

func TestScrapeWorkerKeepsRunOpenBeforeLastAttempt(t *testing.T) {
	ctx := context.Background()
	repos, embedQueue := setupScrapeTest(t)
	run := newPendingRun(t, repos, 1)

	crawl := crawlermock.NewMockCrawler()
	crawl.CrawlFunc = func(ctx context.Context, url string, maxPages int) ([]core.Page, error) {
		return nil, errors.New("transient")
	}

	worker, err := NewScrapeWorker(repos.Runs, crawl, embedQueue)
	require.NoError(t, err)

	job := ScrapeJob{ChatbotId: 1, HistoryId: run.Id, WebsiteURL: "https://example.com", MaxPages: 3}
	require.Error(t, worker.Handle(ctx, scrapeEnvelope(job, 0)))

	got, err := repos.Runs.GetRunHistory(ctx, run.Id)
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusInProgress, got.Status, "run stays open while retries remain")
}

func TestScrapeWorkerZeroPagesIsFailure(t *testing.T) {
	ctx := context.Background()
	repos, embedQueue := setupScrapeTest(t)
	run := newPendingRun(t, repos, 1)

	crawl := crawlermock.NewMockCrawler()
	crawl.CrawlFunc = func(ctx context.Context, url string, maxPages int) ([]core.Page, error) {
		return []core.Page{}, nil
	}

	worker, err := NewScrapeWorker(repos.Runs, crawl, embedQueue)
	require.NoError(t, err)

	job := ScrapeJob{ChatbotId: 1, HistoryId: run.Id, WebsiteURL: "https://example.com", MaxPages: 3}
	err = worker.Handle(ctx, scrapeEnvelope(job, queue.DefaultMaxAttempts-1))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoPagesScraped)

	got, err := repos.Runs.GetRunHistory(ctx, run.Id)
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusFailed, got.Status)

	_, err = embedQueue.Dequeue(ctx)
	assert.ErrorIs(t, err, queue.ErrQueueEmpty)
}

func TestScrapeWorkerUntrackedJob(t *testing.T) {
	ctx := context.Background()
	repos, embedQueue := setupScrapeTest(t)

	worker, err := NewScrapeWorker(repos.Runs, crawlermock.NewMockCrawler(), embedQueue)
	require.NoError(t, err)

	job := ScrapeJob{ChatbotId: 5, WebsiteURL: "https://example.com", MaxPages: 2}
	require.NoError(t, worker.Handle(ctx, scrapeEnvelope(job, 0)))

	env, err := embedQueue.Dequeue(ctx)
	require.NoError(t, err)
	embedJob, err := DecodeEmbeddingJob(env.Payload)
	require.NoError(t, err)
	assert.Zero(t, embedJob.HistoryId)
	assert.False(t, embedJob.StartedAt.IsZero(), "untracked runs still carry a generation")
}

func TestScrapeWorkerDropsUndecodableJob(t *testing.T) {
	ctx := context.Background()
	repos, embedQueue := setupScrapeTest(t)

	worker, err := NewScrapeWorker(repos.Runs, crawlermock.NewMockCrawler(), embedQueue)
	require.NoError(t, err)

	env := &queue.Envelope{Id: "junk", Payload: []byte{0xff}, MaxAttempts: 3}
	assert.NoError(t, worker.Handle(ctx, env), "garbage payloads are dropped, not retried")
}

func TestNewScrapeWorkerValidation(t *testing.T) {
	repos, embedQueue := setupScrapeTest(t)

	_, err := NewScrapeWorker(nil, crawlermock.NewMockCrawler(), embedQueue)
	assert.ErrorIs(t, err, ErrRunRepositoryRequired)

	_, err = NewScrapeWorker(repos.Runs, nil, embedQueue)
	assert.ErrorIs(t, err, ErrCrawlerRequired)

	_, err = NewScrapeWorker(repos.Runs, crawlermock.NewMockCrawler(), nil)
	assert.ErrorIs(t, err, ErrQueueRequired)
}
