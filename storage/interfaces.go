package storage

import (
	"context"
	"time"

	"github.com/poiesic/sitebot/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the repository and releases resources.
	Close() error
}

// ChatbotRepository provides operations for managing chatbots.
// The ingestion pipeline only creates test fixtures and updates
// LastScrapedAt; full chatbot CRUD lives outside this module.
type ChatbotRepository interface {
	Repository

	// AddChatbots adds one or more chatbots to storage.
	// For chatbots with ID=0, generates new IDs from sequence.
	// Sets InsertedAt/UpdatedAt timestamps.
	AddChatbots(ctx context.Context, bots ...*core.Chatbot) ([]*core.Chatbot, error)

	// UpdateChatbots updates existing chatbots.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any chatbot doesn't exist.
	UpdateChatbots(ctx context.Context, bots ...*core.Chatbot) ([]*core.Chatbot, error)

	// GetChatbot retrieves a single chatbot by ID.
	// Returns ErrNotFound if the chatbot doesn't exist.
	GetChatbot(ctx context.Context, id core.ID) (*core.Chatbot, error)

	// ListAutoRescrape retrieves every chatbot with auto-rescrape enabled,
	// in ID order. Frequency filtering belongs to the caller.
	ListAutoRescrape(ctx context.Context) ([]*core.Chatbot, error)
}

// UserRepository provides owner lookup for notifications.
type UserRepository interface {
	Repository

	// AddUsers adds one or more users to storage.
	AddUsers(ctx context.Context, users ...*core.User) ([]*core.User, error)

	// GetUser retrieves a single user by ID.
	// Returns ErrNotFound if the user doesn't exist.
	GetUser(ctx context.Context, id core.ID) (*core.User, error)
}

// RunHistoryRepository persists the ingestion run state machine.
type RunHistoryRepository interface {
	Repository

	// AddRunHistories adds one or more run history rows.
	// For rows with ID=0, generates new IDs from sequence.
	AddRunHistories(ctx context.Context, runs ...*core.RunHistory) ([]*core.RunHistory, error)

	// UpdateRunHistories updates existing run history rows.
	// Returns ErrNotFound if any row doesn't exist.
	UpdateRunHistories(ctx context.Context, runs ...*core.RunHistory) ([]*core.RunHistory, error)

	// GetRunHistory retrieves a single run by ID.
	// Returns ErrNotFound if the run doesn't exist.
	GetRunHistory(ctx context.Context, id core.ID) (*core.RunHistory, error)

	// ListRunsByChatbot retrieves all runs for a chatbot, newest first.
	ListRunsByChatbot(ctx context.Context, chatbotID core.ID) ([]*core.RunHistory, error)
}

// EmbeddingRepository stores the per-chatbot knowledge base vectors.
// Records are grouped into generations, which is how a completed run
// atomically replaces the previous run's knowledge.
type EmbeddingRepository interface {
	Repository

	// AddEmbeddings adds one or more embedding records.
	// IDs are content-based and expected to be set by the caller.
	AddEmbeddings(ctx context.Context, records ...*core.EmbeddingRecord) ([]*core.EmbeddingRecord, error)

	// DeleteGenerationsBefore removes every embedding for the chatbot whose
	// generation is strictly older than the given one. Returns the number
	// of records removed.
	DeleteGenerationsBefore(ctx context.Context, chatbotID core.ID, generation int64) (int, error)

	// CountByChatbot returns the number of embeddings stored for a chatbot.
	CountByChatbot(ctx context.Context, chatbotID core.ID) (int, error)

	// ListByChatbot retrieves all embeddings for a chatbot.
	ListByChatbot(ctx context.Context, chatbotID core.ID) ([]*core.EmbeddingRecord, error)

	// FindSimilar finds embeddings for a chatbot similar to the given vector.
	// Returns records with similarity >= minSimilarity, up to limit results,
	// ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, chatbotID core.ID, vector []float32, minSimilarity float32, limit int) ([]*core.SimilarityMatch, error)
}

// DeletionRequestRepository reads pending account deletion requests.
// The sweep only selects rows; status changes belong to the deletion
// processor outside this module.
type DeletionRequestRepository interface {
	Repository

	// AddDeletionRequests adds one or more deletion requests.
	AddDeletionRequests(ctx context.Context, reqs ...*core.DeletionRequest) ([]*core.DeletionRequest, error)

	// ListDuePending retrieves requests with status pending and
	// ScheduledFor <= now, in ID order.
	ListDuePending(ctx context.Context, now time.Time) ([]*core.DeletionRequest, error)
}
