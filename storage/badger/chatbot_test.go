package badger

import (
	"context"
	"testing"

	"github.com/poiesic/sitebot/core"
	"github.com/poiesic/sitebot/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRepositories(t *testing.T) *Repositories {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })
	return repos
}

func testChatbot(name string) *core.Chatbot {
	return &core.Chatbot{
		Name:       name,
		WebsiteURL: "https://" + name + ".example.com",
		MaxPages:   50,
		Frequency:  core.FrequencyDaily,
	}
}

func TestChatbotAddAndGet(t *testing.T) {
	ctx := context.Background()
	repos := setupTestRepositories(t)

	added, err := repos.Chatbots.AddChatbots(ctx, testChatbot("acme"))
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.NotZero(t, added[0].Id, "sequence must assign an ID")
	assert.False(t, added[0].InsertedAt.IsZero())

	got, err := repos.Chatbots.GetChatbot(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Equal(t, "acme", got.Name)
	assert.Equal(t, "https://acme.example.com", got.WebsiteURL)
}

func TestChatbotGetNotFound(t *testing.T) {
	ctx := context.Background()
	repos := setupTestRepositories(t)

	_, err := repos.Chatbots.GetChatbot(ctx, 9999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestChatbotUpdate(t *testing.T) {
	ctx := context.Background()
	repos := setupTestRepositories(t)

	added, err := repos.Chatbots.AddChatbots(ctx, testChatbot("acme"))
	require.NoError(t, err)
	bot := added[0]

	bot.MaxPages = 200
	_, err = repos.Chatbots.UpdateChatbots(ctx, bot)
	require.NoError(t, err)

	got, err := repos.Chatbots.GetChatbot(ctx, bot.Id)
	require.NoError(t, err)
	assert.Equal(t, 200, got.MaxPages)

	missing := testChatbot("ghost")
	missing.Id = 12345
	_, err = repos.Chatbots.UpdateChatbots(ctx, missing)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestChatbotListAutoRescrape(t *testing.T) {
	ctx := context.Background()
	repos := setupTestRepositories(t)

	auto := testChatbot("auto")
	auto.AutoRescrape = true
	manual := testChatbot("manual")
	manual.AutoRescrape = false

	_, err := repos.Chatbots.AddChatbots(ctx, auto, manual)
	require.NoError(t, err)

	bots, err := repos.Chatbots.ListAutoRescrape(ctx)
	require.NoError(t, err)
	require.Len(t, bots, 1)
	assert.Equal(t, "auto", bots[0].Name)
}

func TestUserAddAndGet(t *testing.T) {
	ctx := context.Background()
	repos := setupTestRepositories(t)

	added, err := repos.Users.AddUsers(ctx, &core.User{Email: "owner@example.com", Name: "Owner"})
	require.NoError(t, err)
	require.Len(t, added, 1)
	require.NotZero(t, added[0].Id)

	got, err := repos.Users.GetUser(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", got.Email)

	_, err = repos.Users.GetUser(ctx, 4242)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
