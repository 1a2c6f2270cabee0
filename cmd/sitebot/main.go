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

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/sitebot"
	"github.com/poiesic/sitebot/ai"
	"github.com/poiesic/sitebot/core"
	"github.com/poiesic/sitebot/mail"
	"github.com/poiesic/sitebot/metrics"
)

func main() {
	// Missing .env is fine; flags and real env still apply.
	_ = godotenv.Load()

	app := &cli.App{
		Name:   "sitebot",
		Usage:  "Website ingestion pipeline for AI chatbot knowledge bases",
		Before: setupLogger,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the ingestion pipeline: queue workers, cron sweeps, metrics",
				Action: serveCommand,
				Flags: append(serviceFlags(),
					&cli.StringFlag{
						Name:  "metrics-addr",
						Usage: "Listen address for the Prometheus /metrics endpoint",
						Value: ":9090",
					},
				),
			},
			{
				Name:      "trigger",
				Usage:     "Trigger an ingestion run for one chatbot",
				ArgsUsage: "<chatbot-id>",
				Action:    triggerCommand,
				Flags:     serviceFlags(),
			},
			{
				Name:   "sweep",
				Usage:  "Run a sweep pass immediately, bypassing the cron schedule",
				Subcommands: []*cli.Command{
					{
						Name:   "rescrape",
						Usage:  "Enqueue scrape runs for every overdue auto-rescrape chatbot",
						Action: rescrapeSweepCommand,
						Flags:  serviceFlags(),
					},
					{
						Name:   "deletion",
						Usage:  "Enqueue processing for every due account deletion request",
						Action: deletionSweepCommand,
						Flags:  serviceFlags(),
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Query a chatbot's knowledge base",
				ArgsUsage: "<chatbot-id> <query>",
				Action:    askCommand,
				Flags: append(serviceFlags(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of matches to return",
						Value: 5,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serviceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "data",
			Aliases: []string{"d"},
			Usage:   "Path to the knowledge base database directory",
			EnvVars: []string{"SITEBOT_DATA"},
			Value:   "data/store",
		},
		&cli.StringFlag{
			Name:    "queue-db",
			Usage:   "Path to the durable queue database directory",
			EnvVars: []string{"SITEBOT_QUEUE_DB"},
			Value:   "data/queues",
		},
		&cli.StringFlag{
			Name:     "crawler-url",
			Usage:    "Base URL of the crawler service",
			EnvVars:  []string{"SITEBOT_CRAWLER_URL"},
			Required: true,
		},
		&cli.StringFlag{
			Name:    "embedding-host",
			Usage:   "Embedding service host URL",
			EnvVars: []string{"SITEBOT_EMBEDDING_HOST"},
			Value:   "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			EnvVars: []string{"SITEBOT_EMBEDDING_MODEL"},
			Value:   "embeddinggemma",
		},
		&cli.StringFlag{
			Name:    "api-token",
			Usage:   "API token for the embedding service",
			EnvVars: []string{"SITEBOT_API_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "sendgrid-key",
			Usage:   "SendGrid API key for training notifications (omit to disable email)",
			EnvVars: []string{"SENDGRID_API_KEY"},
		},
	}
}

// buildService assembles a Service from CLI flags. The caller owns the
// returned service and must Stop it.
func buildService(c *cli.Context, extra ...sitebot.ServiceOption) (*sitebot.Service, error) {
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithAPIToken(c.String("api-token")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	opts := []sitebot.ServiceOption{
		sitebot.WithAIConfig(aiConfig),
		sitebot.WithCrawlerBaseURL(c.String("crawler-url")),
	}

	if key := c.String("sendgrid-key"); key != "" {
		mailer, err := mail.NewSendGridMailer(key)
		if err != nil {
			return nil, err
		}
		opts = append(opts, sitebot.WithMailer(mailer))
	}

	opts = append(opts, extra...)
	return sitebot.NewService(c.String("data"), c.String("queue-db"), opts...)
}

func serveCommand(c *cli.Context) error {
	registry := prometheus.NewRegistry()
	sink, err := metrics.NewPrometheusSink(registry, slog.Default())
	if err != nil {
		return err
	}

	service, err := buildService(c, sitebot.WithSink(sink))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	service.Start(ctx)

	metricsServer := &http.Server{
		Addr: c.String("metrics-addr"),
		Handler: promhttp.HandlerFor(registry,
			promhttp.HandlerOpts{EnableOpenMetrics: true}),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server failed", "err", err)
		}
	}()
	slog.Info("serving", "metrics", c.String("metrics-addr"))

	<-ctx.Done()
	slog.Info("shutting down")

	metricsServer.Close()
	return service.Stop()
}

func triggerCommand(c *cli.Context) error {
	id, err := parseID(c.Args().Get(0))
	if err != nil {
		return err
	}

	service, err := buildService(c)
	if err != nil {
		return err
	}
	defer service.Stop()

	history, err := service.TriggerScrape(c.Context, id, core.TriggerManual)
	if err != nil {
		return err
	}

	fmt.Printf("Run %d enqueued for chatbot %d\n", history.Id, history.ChatbotId)
	return nil
}

func rescrapeSweepCommand(c *cli.Context) error {
	service, err := buildService(c)
	if err != nil {
		return err
	}
	defer service.Stop()

	summary, err := service.RunRescrapeSweep(c.Context)
	if err != nil {
		return err
	}

	fmt.Printf("Rescrape sweep: %d due, %d enqueued\n", summary.TotalFound, summary.Processed)
	return nil
}

func deletionSweepCommand(c *cli.Context) error {
	service, err := buildService(c)
	if err != nil {
		return err
	}
	defer service.Stop()

	summary, err := service.RunDeletionSweep(c.Context)
	if err != nil {
		return err
	}

	fmt.Printf("Deletion sweep: %d due, %d enqueued\n", summary.TotalFound, summary.Processed)
	return nil
}

func askCommand(c *cli.Context) error {
	id, err := parseID(c.Args().Get(0))
	if err != nil {
		return err
	}
	query := strings.Join(c.Args().Slice()[1:], " ")
	if query == "" {
		return fmt.Errorf("a query is required")
	}

	service, err := buildService(c)
	if err != nil {
		return err
	}
	defer service.Stop()

	matches, err := service.Ask(c.Context, id, query, c.Int("limit"))
	if err != nil {
		return err
	}

	for _, match := range matches {
		fmt.Printf("%.3f  %s\n      %s\n", match.Score, match.Record.SourceURL, match.Record.Chunk)
	}
	return nil
}

func parseID(arg string) (core.ID, error) {
	if arg == "" {
		return 0, fmt.Errorf("a chatbot id is required")
	}
	var id uint64
	if _, err := fmt.Sscanf(arg, "%d", &id); err != nil || id == 0 {
		return 0, fmt.Errorf("invalid chatbot id %q", arg)
	}
	return core.ID(id), nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
