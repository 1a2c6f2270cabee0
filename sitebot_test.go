package sitebot

import (
	"context"
	"testing"
	"time"

	aimock "github.com/poiesic/sitebot/ai/mock"
	crawlermock "github.com/poiesic/sitebot/crawler/mock"
	"github.com/poiesic/sitebot/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestService(t *testing.T, opts ...ServiceOption) *Service {
	base := []ServiceOption{
		WithInMemory(),
		WithCrawler(crawlermock.NewMockCrawler()),
	}
	service, err := NewService("", "", append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { service.Stop() })
	return service
}

func TestNewServiceRequiresCrawler(t *testing.T) {
	_, err := NewService("", "", WithInMemory())
	assert.ErrorIs(t, err, ErrCrawlerRequired)
}

func TestTriggerScrape(t *testing.T) {
	ctx := context.Background()
	service := setupTestService(t)

	bots, err := service.ChatbotRepository().AddChatbots(ctx, &core.Chatbot{
		Name:       "Acme",
		WebsiteURL: "https://acme.example.com",
		MaxPages:   10,
	})
	require.NoError(t, err)
	bot := bots[0]

	history, err := service.TriggerScrape(ctx, bot.Id, core.TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusPending, history.Status)
	assert.Equal(t, core.TriggerManual, history.TriggeredBy)
	assert.Equal(t, bot.Id, history.ChatbotId)
	assert.False(t, history.StartedAt.IsZero())

	runs, err := service.RunHistoryRepository().ListRunsByChatbot(ctx, bot.Id)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, history.Id, runs[0].Id)
}

func TestTriggerScrapeUnknownChatbot(t *testing.T) {
	ctx := context.Background()
	service := setupTestService(t)

	_, err := service.TriggerScrape(ctx, 424242, core.TriggerManual)
	assert.Error(t, err)
}

func TestTriggerScrapeInvalidChatbot(t *testing.T) {
	ctx := context.Background()
	service := setupTestService(t)

	// A chatbot without a URL must not reach the crawler.
	bots, err := service.ChatbotRepository().AddChatbots(ctx, &core.Chatbot{
		Name:     "Broken",
		MaxPages: 10,
	})
	require.NoError(t, err)

	_, err = service.TriggerScrape(ctx, bots[0].Id, core.TriggerManual)
	assert.ErrorIs(t, err, core.ErrEmptyWebsiteURL)
}

func TestPipelineEndToEnd(t *testing.T) {
	// One job travels the whole pipeline: TriggerScrape enqueues, the
	// scrape worker crawls and hands off, the embedding worker swaps the
	// knowledge base in and completes the run.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	service := setupTestService(t, WithEmbedder(aimock.NewMockEmbedder()))

	bots, err := service.ChatbotRepository().AddChatbots(ctx, &core.Chatbot{
		Name:       "Acme",
		WebsiteURL: "https://acme.example.com",
		MaxPages:   3,
	})
	require.NoError(t, err)
	bot := bots[0]

	service.Start(ctx)

	history, err := service.TriggerScrape(ctx, bot.Id, core.TriggerManual)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		run, err := service.RunHistoryRepository().GetRunHistory(ctx, history.Id)
		return err == nil && run.Status == core.RunStatusCompleted
	}, 10*time.Second, 25*time.Millisecond, "run never completed")

	run, err := service.RunHistoryRepository().GetRunHistory(ctx, history.Id)
	require.NoError(t, err)
	assert.Equal(t, 3, run.PagesScraped)
	assert.Greater(t, run.EmbeddingsCreated, 0)
	assert.False(t, run.CompletedAt.IsZero())
	assert.Empty(t, run.ErrorMessage)

	records, err := service.EmbeddingRepository().ListByChatbot(ctx, bot.Id)
	require.NoError(t, err)
	require.NotEmpty(t, records)
	for _, rec := range records {
		assert.Equal(t, run.Generation(), rec.Generation)
	}

	updated, err := service.ChatbotRepository().GetChatbot(ctx, bot.Id)
	require.NoError(t, err)
	assert.False(t, updated.LastScrapedAt.IsZero())
}

func TestRunSweepsOnEmptyStore(t *testing.T) {
	ctx := context.Background()
	service := setupTestService(t)

	rescrape, err := service.RunRescrapeSweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, rescrape.TotalFound)

	deletion, err := service.RunDeletionSweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, deletion.TotalFound)
}
