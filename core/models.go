package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ScrapeFrequency controls how often a chatbot's website is automatically
// re-ingested.
type ScrapeFrequency string

const (
	FrequencyManual  ScrapeFrequency = "manual"
	FrequencyDaily   ScrapeFrequency = "daily"
	FrequencyWeekly  ScrapeFrequency = "weekly"
	FrequencyMonthly ScrapeFrequency = "monthly"
)

// DueAfter returns the number of hours that must elapse since the last
// scrape before a chatbot with this frequency is due again.
// The second return value is false for manual and unrecognized frequencies,
// which are never due.
func (f ScrapeFrequency) DueAfter() (hours float64, ok bool) {
	switch f {
	case FrequencyDaily:
		return 24, true
	case FrequencyWeekly:
		return 168, true
	case FrequencyMonthly:
		return 720, true
	default:
		return 0, false
	}
}

// Chatbot is a tenant-owned knowledge base built from a website.
// The ingestion pipeline only mutates LastScrapedAt; everything else is
// owned by the CRUD layer.
type Chatbot struct {
	Id            ID
	OwnerId       ID
	Name          string
	WebsiteURL    string
	MaxPages      int
	AutoRescrape  bool
	Frequency     ScrapeFrequency
	LastScrapedAt time.Time // Zero means the site has never been scraped
	InsertedAt    time.Time
	UpdatedAt     time.Time
}

// User owns chatbots and receives training notifications.
type User struct {
	Id         ID
	Email      string
	Name       string
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// RunStatus is the lifecycle state of an ingestion run.
type RunStatus string

const (
	RunStatusPending    RunStatus = "pending"
	RunStatusInProgress RunStatus = "in_progress"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
)

// CanTransitionTo reports whether moving from s to next is a legal
// lifecycle transition. Completed and failed are terminal.
func (s RunStatus) CanTransitionTo(next RunStatus) bool {
	switch s {
	case RunStatusPending:
		return next == RunStatusInProgress
	case RunStatusInProgress:
		return next == RunStatusCompleted || next == RunStatusFailed
	default:
		return false
	}
}

// Terminal reports whether s is a final state.
func (s RunStatus) Terminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

// TriggerSource records what caused an ingestion run.
type TriggerSource string

const (
	TriggerManual    TriggerSource = "manual"
	TriggerScheduled TriggerSource = "scheduled"
	TriggerInitial   TriggerSource = "initial"
)

// RunHistory is one row per ingestion attempt for a chatbot.
// The scrape and embedding workers are its only writers after creation;
// a finished run is never reopened, a rescrape creates a new row.
type RunHistory struct {
	Id                ID
	ChatbotId         ID
	Status            RunStatus
	PagesScraped      int
	EmbeddingsCreated int
	ErrorMessage      string // Empty means no error
	TriggeredBy       TriggerSource
	StartedAt         time.Time
	CompletedAt       time.Time // Zero while the run is open
	InsertedAt        time.Time
	UpdatedAt         time.Time
}

// Transition moves the run to the given status, enforcing the
// pending -> in_progress -> {completed, failed} state machine.
func (h *RunHistory) Transition(next RunStatus) error {
	if !h.Status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	h.Status = next
	if next.Terminal() {
		h.CompletedAt = time.Now().UTC()
	}
	return nil
}

// Generation returns the embedding generation value for this run.
// Embeddings written by the run are stamped with it, and the swap step
// deletes everything strictly older.
func (h *RunHistory) Generation() int64 {
	return h.StartedAt.UnixMicro()
}

// Page is a single crawled page. Pages are transient: produced by the
// crawler, consumed by the embedding worker, never persisted as-is.
type Page struct {
	URL     string
	Title   string
	Content string
}

// EmbeddingRecord is one stored vector per content chunk per chatbot.
// Generation is the UnixMicro start time of the run that produced it;
// a completed run owns every record at its generation and the swap
// protocol removes all older generations.
type EmbeddingRecord struct {
	Id         ID
	ChatbotId  ID
	Generation int64
	Vector     []float32
	SourceURL  string
	Chunk      string
	InsertedAt time.Time
}

// DeletionStatus is the lifecycle state of an account deletion request.
type DeletionStatus string

const (
	DeletionPending    DeletionStatus = "pending"
	DeletionProcessing DeletionStatus = "processing"
	DeletionCompleted  DeletionStatus = "completed"
	DeletionCancelled  DeletionStatus = "cancelled"
)

// DeletionRequest is a pending account erasure. The deletion sweep only
// reads these rows and enqueues work; it never flips Status itself.
type DeletionRequest struct {
	Id           ID
	UserId       ID
	Status       DeletionStatus
	ScheduledFor time.Time
	InsertedAt   time.Time
	UpdatedAt    time.Time
}

// SimilarityMatch represents an embedding match from vector similarity search.
type SimilarityMatch struct {
	Record *EmbeddingRecord
	Score  float32
}
