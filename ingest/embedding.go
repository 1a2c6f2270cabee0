// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/sitebot/ai"
	"github.com/poiesic/sitebot/core"
	"github.com/poiesic/sitebot/mail"
	"github.com/poiesic/sitebot/queue"
	"github.com/poiesic/sitebot/storage"
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	defaultChunkSize    = 512
	defaultChunkOverlap = 64
)

// EmbeddingWorker consumes the embedding queue. It chunks the crawled
// pages, embeds every chunk, and swaps the chatbot's knowledge base to
// the run's generation: the new records are written first and only then
// are older generations deleted, so the chatbot keeps answering from the
// previous generation until the new one is fully in place.
type EmbeddingWorker struct {
	chatbots   storage.ChatbotRepository
	runs       storage.RunHistoryRepository
	embeddings storage.EmbeddingRepository
	users      storage.UserRepository
	embedder   ai.Embedder
	mailer     mail.Mailer
	splitter   textsplitter.TextSplitter
	logger     *slog.Logger
}

// EmbeddingOption configures an EmbeddingWorker.
type EmbeddingOption func(*EmbeddingWorker)

// WithMailer enables owner notification when a run completes.
// Delivery is best-effort: failures are logged and never fail the run.
func WithMailer(mailer mail.Mailer) EmbeddingOption {
	return func(w *EmbeddingWorker) {
		w.mailer = mailer
	}
}

// WithSplitter overrides the default recursive-character splitter.
func WithSplitter(splitter textsplitter.TextSplitter) EmbeddingOption {
	return func(w *EmbeddingWorker) {
		if splitter != nil {
			w.splitter = splitter
		}
	}
}

// WithEmbeddingLogger sets a custom logger. Default is slog.Default().
func WithEmbeddingLogger(logger *slog.Logger) EmbeddingOption {
	return func(w *EmbeddingWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewEmbeddingWorker creates the embedding stage of the pipeline.
// The users repository may be nil only when no mailer is configured.
func NewEmbeddingWorker(
	chatbots storage.ChatbotRepository,
	runs storage.RunHistoryRepository,
	embeddings storage.EmbeddingRepository,
	users storage.UserRepository,
	embedder ai.Embedder,
	opts ...EmbeddingOption,
) (*EmbeddingWorker, error) {
	if chatbots == nil {
		return nil, ErrChatbotRepositoryRequired
	}
	if runs == nil {
		return nil, ErrRunRepositoryRequired
	}
	if embeddings == nil {
		return nil, ErrEmbeddingRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	w := &EmbeddingWorker{
		chatbots:   chatbots,
		runs:       runs,
		embeddings: embeddings,
		users:      users,
		embedder:   embedder,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(defaultChunkSize),
			textsplitter.WithChunkOverlap(defaultChunkOverlap),
		),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.mailer != nil && w.users == nil {
		return nil, ErrUserRepositoryRequired
	}
	return w, nil
}

// Handle processes one embedding job. It is the queue.Handler for the
// embedding queue.
func (w *EmbeddingWorker) Handle(ctx context.Context, env *queue.Envelope) error {
	job, err := DecodeEmbeddingJob(env.Payload)
	if err != nil {
		w.logger.Error("dropping undecodable embedding job", "job", env.Id, "err", err)
		return nil
	}

	history, generation, err := w.resolveGeneration(ctx, job)
	if err != nil {
		return err
	}
	if history != nil && history.Status.Terminal() {
		// A redelivered job for a finished run has nothing left to do.
		w.logger.Warn("skipping job for finished run", "run", history.Id, "status", history.Status)
		return nil
	}

	records, err := w.embedPages(ctx, job, generation)
	if err != nil {
		wrapped := fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
		w.failRun(ctx, history, env, wrapped)
		return wrapped
	}

	// Insert before delete. If anything below fails the worst case is
	// duplicated knowledge across two generations, never an empty base.
	if _, err := w.embeddings.AddEmbeddings(ctx, records...); err != nil {
		wrapped := fmt.Errorf("%w: storing embeddings: %w", ErrEmbeddingFailed, err)
		w.failRun(ctx, history, env, wrapped)
		return wrapped
	}

	removed, err := w.embeddings.DeleteGenerationsBefore(ctx, job.ChatbotId, generation)
	if err != nil {
		wrapped := fmt.Errorf("%w: deleting stale generations: %w", ErrEmbeddingFailed, err)
		w.failRun(ctx, history, env, wrapped)
		return wrapped
	}

	w.logger.Info("knowledge base swapped",
		"chatbot", job.ChatbotId, "generation", generation,
		"embeddings", len(records), "removed", removed)

	chatbot, err := w.touchChatbot(ctx, job.ChatbotId)
	if err != nil {
		wrapped := fmt.Errorf("%w: updating chatbot: %w", ErrEmbeddingFailed, err)
		w.failRun(ctx, history, env, wrapped)
		return wrapped
	}

	if history != nil {
		history.EmbeddingsCreated = len(records)
		history.PagesScraped = len(job.Pages)
		if err := history.Transition(core.RunStatusCompleted); err != nil {
			return err
		}
		if _, err := w.runs.UpdateRunHistories(ctx, history); err != nil {
			return err
		}
	}

	w.notifyOwner(ctx, chatbot)
	return nil
}

// resolveGeneration returns the tracked run (nil for untracked jobs) and
// the generation to stamp on fresh embeddings. The tracked run's start
// time wins over the job's copy so retries reuse the same generation.
func (w *EmbeddingWorker) resolveGeneration(ctx context.Context, job EmbeddingJob) (*core.RunHistory, int64, error) {
	if job.HistoryId != 0 {
		history, err := w.runs.GetRunHistory(ctx, job.HistoryId)
		if err != nil {
			return nil, 0, err
		}
		return history, history.Generation(), nil
	}

	startedAt := job.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}
	return nil, startedAt.UnixMicro(), nil
}

// embedPages chunks every page and embeds the chunks in one batch.
func (w *EmbeddingWorker) embedPages(ctx context.Context, job EmbeddingJob, generation int64) ([]*core.EmbeddingRecord, error) {
	var texts []string
	var sources []string

	for _, page := range job.Pages {
		chunks, err := w.splitter.SplitText(page.Content)
		if err != nil {
			return nil, fmt.Errorf("splitting %s: %w", page.URL, err)
		}
		for _, chunk := range chunks {
			chunk = strings.TrimSpace(chunk)
			if chunk == "" {
				continue
			}
			texts = append(texts, chunk)
			sources = append(sources, page.URL)
		}
		w.logger.Debug("page chunked", "url", page.URL, "chunks", len(chunks))
	}

	if len(texts) == 0 {
		return nil, ErrNoPagesScraped
	}

	vectors, err := w.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding %d chunks: %w", len(texts), err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(texts))
	}

	records := make([]*core.EmbeddingRecord, len(texts))
	for i, chunk := range texts {
		records[i] = &core.EmbeddingRecord{
			ChatbotId:  job.ChatbotId,
			Generation: generation,
			Vector:     vectors[i],
			SourceURL:  sources[i],
			Chunk:      chunk,
		}
	}
	return records, nil
}

// touchChatbot stamps the chatbot with the time this ingestion finished.
func (w *EmbeddingWorker) touchChatbot(ctx context.Context, id core.ID) (*core.Chatbot, error) {
	chatbot, err := w.chatbots.GetChatbot(ctx, id)
	if err != nil {
		return nil, err
	}
	chatbot.LastScrapedAt = time.Now().UTC()
	if _, err := w.chatbots.UpdateChatbots(ctx, chatbot); err != nil {
		return nil, err
	}
	return chatbot, nil
}

func (w *EmbeddingWorker) notifyOwner(ctx context.Context, chatbot *core.Chatbot) {
	if w.mailer == nil {
		return
	}

	owner, err := w.users.GetUser(ctx, chatbot.OwnerId)
	if err != nil {
		w.logger.Warn("error loading owner for notification",
			"chatbot", chatbot.Id, "owner", chatbot.OwnerId, "err", err)
		return
	}
	if err := w.mailer.NotifyTrainingComplete(ctx, owner.Email, chatbot.Name); err != nil {
		w.logger.Warn("error sending training notification",
			"chatbot", chatbot.Id, "owner", owner.Email, "err", err)
	}
}

// failRun mirrors the scrape worker: the run history is only marked
// failed once the envelope has no attempts left.
func (w *EmbeddingWorker) failRun(ctx context.Context, history *core.RunHistory, env *queue.Envelope, cause error) {
	if history == nil || history.Status.Terminal() {
		return
	}
	if env.Attempts+1 < env.MaxAttempts {
		return
	}

	history.ErrorMessage = cause.Error()
	if err := history.Transition(core.RunStatusFailed); err != nil {
		w.logger.Error("error failing run", "run", history.Id, "err", err)
		return
	}
	if _, err := w.runs.UpdateRunHistories(ctx, history); err != nil {
		w.logger.Error("error recording run failure", "run", history.Id, "err", err)
	}
}
