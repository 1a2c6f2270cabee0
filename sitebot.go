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

// Package sitebot turns customer websites into AI chatbot knowledge
// bases. It wires the storage, queues, workers, and schedules of the
// asynchronous ingestion pipeline into a single Service.
package sitebot

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/poiesic/sitebot/ai"
	"github.com/poiesic/sitebot/ai/openai"
	"github.com/poiesic/sitebot/core"
	"github.com/poiesic/sitebot/crawler"
	"github.com/poiesic/sitebot/ingest"
	"github.com/poiesic/sitebot/mail"
	"github.com/poiesic/sitebot/metrics"
	"github.com/poiesic/sitebot/queue"
	"github.com/poiesic/sitebot/schedule"
	"github.com/poiesic/sitebot/storage"
	"github.com/poiesic/sitebot/storage/badger"
)

// ErrCrawlerRequired is returned when no crawler was configured.
var ErrCrawlerRequired = errors.New("a crawler is required: set WithCrawler or WithCrawlerBaseURL")

// Service is the assembled ingestion pipeline. Construct it once per
// process with NewService, Start it, and Stop it on shutdown.
type Service struct {
	repos  *badger.Repositories
	conn   *queue.Connection
	queues map[string]*queue.Queue

	embedder ai.Embedder
	crawl    crawler.Crawler
	mailer   mail.Mailer
	sink     metrics.Sink

	workers   []*queue.Worker
	scheduler *schedule.Scheduler
	rescrape  *schedule.RescrapeSweep
	deletion  *schedule.DeletionSweep

	logger *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	aiConfig       *ai.Config
	embedder       ai.Embedder
	crawl          crawler.Crawler
	crawlerBaseURL string
	mailer         mail.Mailer
	sink           metrics.Sink
	logger         *slog.Logger
	inMemory       bool
	scrapeWorkers  int
	embedWorkers   int
}

// WithAIConfig sets the embedding provider configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(config *ai.Config) ServiceOption {
	return func(o *serviceOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithEmbedder injects an embedder implementation directly, bypassing
// the provider configured with WithAIConfig.
func WithEmbedder(e ai.Embedder) ServiceOption {
	return func(o *serviceOptions) {
		o.embedder = e
	}
}

// WithCrawler injects a crawler implementation directly.
func WithCrawler(c crawler.Crawler) ServiceOption {
	return func(o *serviceOptions) {
		o.crawl = c
	}
}

// WithCrawlerBaseURL points the service at a remote crawler endpoint.
func WithCrawlerBaseURL(baseURL string) ServiceOption {
	return func(o *serviceOptions) {
		o.crawlerBaseURL = baseURL
	}
}

// WithMailer enables owner notifications when training completes.
func WithMailer(m mail.Mailer) ServiceOption {
	return func(o *serviceOptions) {
		o.mailer = m
	}
}

// WithSink sets the metrics sink. Default is metrics.NopSink.
func WithSink(sink metrics.Sink) ServiceOption {
	return func(o *serviceOptions) {
		if sink != nil {
			o.sink = sink
		}
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithInMemory keeps storage and queues in memory. For tests.
func WithInMemory() ServiceOption {
	return func(o *serviceOptions) {
		o.inMemory = true
	}
}

// WithScrapeConcurrency sets the scrape worker pool size. Default is 2.
func WithScrapeConcurrency(n int) ServiceOption {
	return func(o *serviceOptions) {
		if n > 0 {
			o.scrapeWorkers = n
		}
	}
}

// WithEmbedConcurrency sets the embedding worker pool size. Default is 2.
func WithEmbedConcurrency(n int) ServiceOption {
	return func(o *serviceOptions) {
		if n > 0 {
			o.embedWorkers = n
		}
	}
}

// NewService builds the full pipeline. dataPath holds the knowledge
// base; queuePath holds the durable queues. The two are separate badger
// stores so queue churn never compacts against knowledge reads.
func NewService(dataPath, queuePath string, opts ...ServiceOption) (*Service, error) {
	options := &serviceOptions{
		aiConfig:      ai.DefaultConfig(),
		sink:          metrics.NopSink{},
		logger:        slog.Default(),
		scrapeWorkers: 2,
		embedWorkers:  2,
	}
	for _, opt := range opts {
		opt(options)
	}

	crawl := options.crawl
	if crawl == nil {
		if options.crawlerBaseURL == "" {
			return nil, ErrCrawlerRequired
		}
		var err error
		crawl, err = crawler.NewRemoteCrawler(options.crawlerBaseURL,
			crawler.WithLogger(options.logger))
		if err != nil {
			return nil, err
		}
	}

	embedder := options.embedder
	if embedder == nil {
		var err error
		embedder, err = openai.NewEmbedder(options.aiConfig)
		if err != nil {
			return nil, err
		}
	}

	repos, err := badger.NewRepositories(dataPath, options.inMemory)
	if err != nil {
		return nil, err
	}

	conn, err := queue.Connect(queuePath, options.inMemory,
		queue.WithLogger(options.logger), queue.WithSink(options.sink))
	if err != nil {
		repos.Close()
		return nil, err
	}

	s := &Service{
		repos:    repos,
		conn:     conn,
		queues:   make(map[string]*queue.Queue),
		embedder: embedder,
		crawl:    crawl,
		mailer:   options.mailer,
		sink:     options.sink,
		logger:   options.logger,
	}

	if err := s.buildPipeline(options); err != nil {
		s.closeStores()
		return nil, err
	}
	return s, nil
}

// buildPipeline opens every queue, builds the stage workers and sweeps,
// and registers the standing cron schedules.
func (s *Service) buildPipeline(options *serviceOptions) error {
	for _, name := range []string{
		queue.ScrapeQueue,
		queue.EmbeddingQueue,
		queue.RescrapeSweepQueue,
		queue.DeletionSweepQueue,
		queue.DeletionProcessQueue,
	} {
		q, err := queue.New(s.conn, name)
		if err != nil {
			return err
		}
		s.queues[name] = q
	}

	scraper, err := ingest.NewScrapeWorker(
		s.repos.Runs, s.crawl, s.queues[queue.EmbeddingQueue],
		ingest.WithScrapeLogger(s.logger))
	if err != nil {
		return err
	}

	embedOpts := []ingest.EmbeddingOption{ingest.WithEmbeddingLogger(s.logger)}
	if s.mailer != nil {
		embedOpts = append(embedOpts, ingest.WithMailer(s.mailer))
	}
	embed, err := ingest.NewEmbeddingWorker(
		s.repos.Chatbots, s.repos.Runs, s.repos.Embedding, s.repos.Users,
		s.embedder, embedOpts...)
	if err != nil {
		return err
	}

	s.rescrape, err = schedule.NewRescrapeSweep(
		s.repos.Chatbots, s.repos.Runs, s.queues[queue.ScrapeQueue],
		schedule.WithRescrapeLogger(s.logger))
	if err != nil {
		return err
	}

	s.deletion, err = schedule.NewDeletionSweep(
		s.repos.Deletions, s.queues[queue.DeletionProcessQueue],
		schedule.WithDeletionLogger(s.logger))
	if err != nil {
		return err
	}

	// Sweeps run single-file; overlapping sweep passes would double-book
	// the same chatbots.
	stages := []struct {
		queue       string
		handler     queue.Handler
		concurrency int
	}{
		{queue.ScrapeQueue, scraper.Handle, options.scrapeWorkers},
		{queue.EmbeddingQueue, embed.Handle, options.embedWorkers},
		{queue.RescrapeSweepQueue, s.rescrape.Handle, 1},
		{queue.DeletionSweepQueue, s.deletion.Handle, 1},
	}
	for _, stage := range stages {
		worker, err := queue.NewWorker(s.queues[stage.queue], stage.handler,
			queue.WithConcurrency(stage.concurrency),
			queue.WithWorkerLogger(s.logger),
			queue.WithWorkerSink(s.sink))
		if err != nil {
			return err
		}
		s.workers = append(s.workers, worker)
	}

	s.scheduler = schedule.NewScheduler(schedule.WithSchedulerLogger(s.logger))
	if err := s.scheduler.Register("rescrape-sweep", schedule.RescrapeCronSpec, func() {
		s.enqueueSweep(queue.RescrapeSweepQueue)
	}); err != nil {
		return err
	}
	return s.scheduler.Register("deletion-sweep", schedule.DeletionCronSpec, func() {
		s.enqueueSweep(queue.DeletionSweepQueue)
	})
}

func (s *Service) enqueueSweep(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := s.queues[name].Enqueue(ctx, nil); err != nil {
		s.logger.Error("error enqueueing sweep", "queue", name, "err", err)
	}
}

// Start launches the queue workers and the cron scheduler.
func (s *Service) Start(ctx context.Context) {
	for _, w := range s.workers {
		w.Start(ctx)
	}
	s.scheduler.Start()
	s.logger.Info("sitebot service started", "workers", len(s.workers))
}

// Stop shuts the pipeline down: schedules first so no new sweeps fire,
// then workers drain in-flight jobs, then storage closes.
func (s *Service) Stop() error {
	s.scheduler.Stop()
	for _, w := range s.workers {
		w.Stop()
	}
	return s.closeStores()
}

func (s *Service) closeStores() error {
	for _, q := range s.queues {
		if err := q.Close(); err != nil {
			s.logger.Error("error closing queue", "queue", q.Name(), "err", err)
		}
	}
	if err := s.conn.Close(); err != nil {
		s.logger.Error("error closing queue connection", "err", err)
		return err
	}
	if err := s.repos.Close(); err != nil {
		s.logger.Error("error closing repositories", "err", err)
		return err
	}
	return nil
}

// TriggerScrape starts an ingestion run for one chatbot. It creates a
// pending run history row and enqueues the scrape job; the pipeline
// takes it from there.
func (s *Service) TriggerScrape(ctx context.Context, chatbotID core.ID, source core.TriggerSource) (*core.RunHistory, error) {
	bot, err := s.repos.Chatbots.GetChatbot(ctx, chatbotID)
	if err != nil {
		return nil, err
	}
	if err := core.ValidateChatbot(bot); err != nil {
		return nil, err
	}

	history := &core.RunHistory{
		ChatbotId:   bot.Id,
		Status:      core.RunStatusPending,
		TriggeredBy: source,
		StartedAt:   time.Now().UTC(),
	}
	added, err := s.repos.Runs.AddRunHistories(ctx, history)
	if err != nil {
		return nil, err
	}
	history = added[0]

	job := ingest.ScrapeJob{
		ChatbotId:  bot.Id,
		HistoryId:  history.Id,
		WebsiteURL: bot.WebsiteURL,
		MaxPages:   bot.MaxPages,
		IsRescrape: !bot.LastScrapedAt.IsZero(),
	}
	if _, err := s.queues[queue.ScrapeQueue].Enqueue(ctx, ingest.EncodeScrapeJob(job)); err != nil {
		return nil, err
	}

	s.logger.Info("scrape triggered", "chatbot", bot.Id, "run", history.Id, "source", source)
	return history, nil
}

// RunRescrapeSweep performs one rescrape sweep pass immediately,
// bypassing the cron schedule.
func (s *Service) RunRescrapeSweep(ctx context.Context) (schedule.Summary, error) {
	return s.rescrape.Run(ctx, time.Now().UTC())
}

// RunDeletionSweep performs one deletion sweep pass immediately,
// bypassing the cron schedule.
func (s *Service) RunDeletionSweep(ctx context.Context) (schedule.Summary, error) {
	return s.deletion.Run(ctx, time.Now().UTC())
}

// Ask embeds the query and returns the chatbot's most similar knowledge.
func (s *Service) Ask(ctx context.Context, chatbotID core.ID, query string, limit int) ([]*core.SimilarityMatch, error) {
	vector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.repos.Embedding.FindSimilar(ctx, chatbotID, vector, 0, limit)
}

// ChatbotRepository exposes chatbot storage for the CRUD layer.
func (s *Service) ChatbotRepository() storage.ChatbotRepository {
	return s.repos.Chatbots
}

// UserRepository exposes user storage for the CRUD layer.
func (s *Service) UserRepository() storage.UserRepository {
	return s.repos.Users
}

// RunHistoryRepository exposes run history storage.
func (s *Service) RunHistoryRepository() storage.RunHistoryRepository {
	return s.repos.Runs
}

// EmbeddingRepository exposes the knowledge base vectors.
func (s *Service) EmbeddingRepository() storage.EmbeddingRepository {
	return s.repos.Embedding
}

// DeletionRequestRepository exposes deletion request storage.
func (s *Service) DeletionRequestRepository() storage.DeletionRequestRepository {
	return s.repos.Deletions
}
