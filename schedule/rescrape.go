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

package schedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/sitebot/core"
	"github.com/poiesic/sitebot/ingest"
	"github.com/poiesic/sitebot/queue"
	"github.com/poiesic/sitebot/storage"
)

// Summary reports the outcome of one sweep pass.
type Summary struct {
	// Processed is how many items were successfully enqueued.
	Processed int
	// TotalFound is how many items were due, including ones that failed
	// to enqueue. Processed < TotalFound means some tenants were skipped.
	TotalFound int
}

// RescrapeSweep finds chatbots whose automatic rescrape is overdue and
// enqueues a scrape run for each. One tenant failing never blocks the
// rest of the sweep.
type RescrapeSweep struct {
	chatbots    storage.ChatbotRepository
	runs        storage.RunHistoryRepository
	scrapeQueue *queue.Queue
	logger      *slog.Logger
}

// RescrapeOption configures a RescrapeSweep.
type RescrapeOption func(*RescrapeSweep)

// WithRescrapeLogger sets a custom logger. Default is slog.Default().
func WithRescrapeLogger(logger *slog.Logger) RescrapeOption {
	return func(s *RescrapeSweep) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewRescrapeSweep creates the nightly rescrape sweep.
func NewRescrapeSweep(
	chatbots storage.ChatbotRepository,
	runs storage.RunHistoryRepository,
	scrapeQueue *queue.Queue,
	opts ...RescrapeOption,
) (*RescrapeSweep, error) {
	if chatbots == nil {
		return nil, ErrChatbotRepositoryRequired
	}
	if runs == nil {
		return nil, ErrRunRepositoryRequired
	}
	if scrapeQueue == nil {
		return nil, ErrQueueRequired
	}

	s := &RescrapeSweep{
		chatbots:    chatbots,
		runs:        runs,
		scrapeQueue: scrapeQueue,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handle lets the sweep run as a queue job. It is the queue.Handler for
// the scheduled-rescrape queue.
func (s *RescrapeSweep) Handle(ctx context.Context, _ *queue.Envelope) error {
	_, err := s.Run(ctx, time.Now().UTC())
	return err
}

// Run performs one sweep pass at the given time.
//
// A chatbot is due when auto-rescrape is on, its frequency maps to an
// interval, and at least that many hours have passed since its last
// scrape. A chatbot that has never been scraped is always due. Chatbots
// with manual or unrecognized frequencies are skipped.
func (s *RescrapeSweep) Run(ctx context.Context, now time.Time) (Summary, error) {
	var summary Summary

	bots, err := s.chatbots.ListAutoRescrape(ctx)
	if err != nil {
		return summary, err
	}

	for _, bot := range bots {
		if !s.isDue(bot, now) {
			continue
		}
		summary.TotalFound++

		if err := s.enqueueRescrape(ctx, bot, now); err != nil {
			// Skip this tenant, keep sweeping.
			s.logger.Error("error scheduling rescrape", "chatbot", bot.Id, "err", err)
			continue
		}
		summary.Processed++
	}

	s.logger.Info("rescrape sweep finished",
		"found", summary.TotalFound, "processed", summary.Processed)
	return summary, nil
}

func (s *RescrapeSweep) isDue(bot *core.Chatbot, now time.Time) bool {
	hours, ok := bot.Frequency.DueAfter()
	if !ok {
		return false
	}
	if bot.LastScrapedAt.IsZero() {
		return true
	}
	return now.Sub(bot.LastScrapedAt).Hours() >= hours
}

func (s *RescrapeSweep) enqueueRescrape(ctx context.Context, bot *core.Chatbot, now time.Time) error {
	history := &core.RunHistory{
		ChatbotId:   bot.Id,
		Status:      core.RunStatusPending,
		TriggeredBy: core.TriggerScheduled,
		StartedAt:   now,
	}
	added, err := s.runs.AddRunHistories(ctx, history)
	if err != nil {
		return err
	}
	history = added[0]

	job := ingest.ScrapeJob{
		ChatbotId:  bot.Id,
		HistoryId:  history.Id,
		WebsiteURL: bot.WebsiteURL,
		MaxPages:   bot.MaxPages,
		IsRescrape: true,
	}
	_, err = s.scrapeQueue.Enqueue(ctx, ingest.EncodeScrapeJob(job))
	return err
}
