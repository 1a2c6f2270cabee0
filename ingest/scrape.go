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
	"time"

	"github.com/poiesic/sitebot/core"
	"github.com/poiesic/sitebot/crawler"
	"github.com/poiesic/sitebot/queue"
	"github.com/poiesic/sitebot/storage"
)

// ScrapeWorker consumes the scrape queue. For each job it moves the run
// to in_progress, crawls the chatbot's website, and hands the pages to
// the embedding queue. A crawl that yields zero pages is a hard failure:
// the run is marked failed and the existing knowledge base is untouched.
type ScrapeWorker struct {
	runs       storage.RunHistoryRepository
	crawl      crawler.Crawler
	embedQueue *queue.Queue
	logger     *slog.Logger
}

// ScrapeOption configures a ScrapeWorker.
type ScrapeOption func(*ScrapeWorker)

// WithScrapeLogger sets a custom logger. Default is slog.Default().
func WithScrapeLogger(logger *slog.Logger) ScrapeOption {
	return func(w *ScrapeWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewScrapeWorker creates the scrape stage of the pipeline.
func NewScrapeWorker(
	runs storage.RunHistoryRepository,
	crawl crawler.Crawler,
	embedQueue *queue.Queue,
	opts ...ScrapeOption,
) (*ScrapeWorker, error) {
	if runs == nil {
		return nil, ErrRunRepositoryRequired
	}
	if crawl == nil {
		return nil, ErrCrawlerRequired
	}
	if embedQueue == nil {
		return nil, ErrQueueRequired
	}

	w := &ScrapeWorker{
		runs:       runs,
		crawl:      crawl,
		embedQueue: embedQueue,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Handle processes one scrape job. It is the queue.Handler for the
// scrape queue: returned errors re-enqueue the job, and the run history
// is only marked failed once the envelope has no attempts left.
func (w *ScrapeWorker) Handle(ctx context.Context, env *queue.Envelope) error {
	job, err := DecodeScrapeJob(env.Payload)
	if err != nil {
		// Undecodable payloads never succeed; don't burn retries on them.
		w.logger.Error("dropping undecodable scrape job", "job", env.Id, "err", err)
		return nil
	}

	history, err := w.beginRun(ctx, job)
	if err != nil {
		return err
	}

	startedAt := time.Now().UTC()
	if history != nil {
		startedAt = history.StartedAt
	}

	pages, err := w.crawl.Crawl(ctx, job.WebsiteURL, job.MaxPages)
	if err == nil && len(pages) == 0 {
		err = ErrNoPagesScraped
	}
	if err != nil {
		wrapped := fmt.Errorf("%w: %w", ErrScrapeFailed, err)
		w.failRun(ctx, history, env, wrapped)
		return wrapped
	}

	w.logger.Info("scrape finished",
		"chatbot", job.ChatbotId, "pages", len(pages), "url", job.WebsiteURL,
		"rescrape", job.IsRescrape)

	if history != nil {
		history.PagesScraped = len(pages)
		if _, err := w.runs.UpdateRunHistories(ctx, history); err != nil {
			w.logger.Error("error recording page count", "run", history.Id, "err", err)
		}
	}

	embedJob := EmbeddingJob{
		ChatbotId: job.ChatbotId,
		HistoryId: job.HistoryId,
		StartedAt: startedAt,
		Pages:     pages,
	}
	if _, err := w.embedQueue.Enqueue(ctx, EncodeEmbeddingJob(embedJob)); err != nil {
		wrapped := fmt.Errorf("%w: enqueue embedding job: %w", ErrScrapeFailed, err)
		w.failRun(ctx, history, env, wrapped)
		return wrapped
	}
	return nil
}

// beginRun loads the tracked run and moves a pending run to in_progress.
// Runs retried after a transient failure are already in_progress, which
// is fine; a run that somehow reached a terminal state stays there.
func (w *ScrapeWorker) beginRun(ctx context.Context, job ScrapeJob) (*core.RunHistory, error) {
	if job.HistoryId == 0 {
		return nil, nil
	}

	history, err := w.runs.GetRunHistory(ctx, job.HistoryId)
	if err != nil {
		return nil, err
	}

	if history.Status == core.RunStatusPending {
		if err := history.Transition(core.RunStatusInProgress); err != nil {
			return nil, err
		}
		if _, err := w.runs.UpdateRunHistories(ctx, history); err != nil {
			return nil, err
		}
	}
	return history, nil
}

// failRun records the failure on the run history when this was the last
// attempt. Earlier attempts leave the run in_progress for the retry.
func (w *ScrapeWorker) failRun(ctx context.Context, history *core.RunHistory, env *queue.Envelope, cause error) {
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
