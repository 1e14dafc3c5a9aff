// Copyright 2025 Practical AI & ML
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
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/practicalaiml/askdocs"
	"github.com/practicalaiml/askdocs/ai"
	"github.com/practicalaiml/askdocs/reindex"
	"github.com/practicalaiml/askdocs/server"
	"github.com/practicalaiml/askdocs/watch"
	"github.com/urfave/cli/v2"
)

func main() {
	// Secrets and local overrides come from .env when present.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "askdocs",
		Usage: "Knowledge-base support assistant for Practical AI & ML",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API server",
				Action: serveCommand,
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:  "addr",
						Usage: "HTTP listen address",
						Value: ":8080",
					},
				),
			},
			{
				Name:      "ingest",
				Usage:     "Upload and process documents from local files",
				ArgsUsage: "FILE [FILE...]",
				Action:    ingestCommand,
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:  "title",
						Usage: "Document title (single file only; defaults to the file name)",
					},
					&cli.StringFlag{
						Name:  "description",
						Usage: "Document description",
					},
				),
			},
			{
				Name:   "reindex",
				Usage:  "Re-process every stored document",
				Action: reindexCommand,
				Flags: append(commonFlags(),
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N documents",
						Value: 10,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts per document",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				),
			},
			{
				Name:   "watch",
				Usage:  "Ingest documents dropped into a directory",
				Action: watchCommand,
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Drop directory to watch",
						Value: "./drops",
					},
					&cli.BoolFlag{
						Name:  "sync",
						Usage: "Also ingest files already present in the drop directory",
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "data",
			Aliases: []string{"d"},
			Usage:   "Data directory (badger database and uploaded files)",
			Value:   "./data",
		},
		&cli.StringFlag{
			Name:  "api-host",
			Usage: "OpenAI-compatible API base URL",
			Value: ai.DefaultHost,
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: ai.DefaultEmbeddingModel,
		},
		&cli.StringFlag{
			Name:  "completion-model",
			Usage: "Chat completion model name",
			Value: ai.DefaultCompletionModel,
		},
		&cli.StringFlag{
			Name:    "api-key",
			Usage:   "API key for the AI service",
			EnvVars: []string{"OPENAI_API_KEY"},
		},
	}
}

func openKnowledgeBase(c *cli.Context) (*askdocs.KnowledgeBase, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("api-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithCompletionModel(c.String("completion-model")),
		ai.WithAPIKey(c.String("api-key")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	kb, err := askdocs.NewKnowledgeBase(c.String("data"), askdocs.WithAIConfig(aiConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge base: %w", err)
	}
	return kb, nil
}

func serveCommand(c *cli.Context) error {
	kb, err := openKnowledgeBase(c)
	if err != nil {
		return err
	}
	defer kb.Close()

	pipeline, err := kb.NewIngestionPipeline()
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	defer pipeline.Release()

	searcher, err := kb.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	responder, err := kb.NewResponder(searcher)
	if err != nil {
		return fmt.Errorf("failed to create responder: %w", err)
	}

	handler := server.NewHandler(
		kb.Documents(), kb.Chunks(), kb.Conversations(), kb.Files(), pipeline, responder)
	srv := server.NewServer(c.String("addr"), server.NewRouter(handler))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return <-errCh
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file argument is required")
	}
	if c.String("title") != "" && c.NArg() > 1 {
		return fmt.Errorf("--title can only be used with a single file")
	}

	kb, err := openKnowledgeBase(c)
	if err != nil {
		return err
	}
	defer kb.Close()

	pipeline, err := kb.NewIngestionPipeline()
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	defer pipeline.Release()

	ctx := context.Background()
	for _, path := range c.Args().Slice() {
		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}

		fileName := filepath.Base(path)
		fileType := mime.TypeByExtension(filepath.Ext(path))

		doc, err := kb.UploadDocument(ctx, fileName, c.String("title"), c.String("description"), fileType, file)
		file.Close()
		if err != nil {
			return fmt.Errorf("failed to upload %s: %w", path, err)
		}

		if err := pipeline.Process(ctx, doc.Id); err != nil {
			return fmt.Errorf("failed to process %s: %w", path, err)
		}

		chunkCount, err := kb.Chunks().CountChunks(ctx, doc.Id)
		if err != nil {
			return fmt.Errorf("failed to count chunks for %s: %w", path, err)
		}
		fmt.Printf("%s: document %s processed (%d chunks)\n", fileName, doc.Id, chunkCount)
	}
	return nil
}

func reindexCommand(c *cli.Context) error {
	kb, err := openKnowledgeBase(c)
	if err != nil {
		return err
	}
	defer kb.Close()

	pipeline, err := kb.NewIngestionPipeline()
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	defer pipeline.Release()

	config := &reindex.Config{
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if config.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	reindexer, err := reindex.NewReindexer(kb.Documents(), pipeline, config, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to create reindexer: %w", err)
	}

	if _, err := reindexer.Run(context.Background()); err != nil {
		return fmt.Errorf("reindexing failed: %w", err)
	}
	return nil
}

func watchCommand(c *cli.Context) error {
	kb, err := openKnowledgeBase(c)
	if err != nil {
		return err
	}
	defer kb.Close()

	pipeline, err := kb.NewIngestionPipeline()
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	defer pipeline.Release()

	watcher, err := watch.NewWatcher(c.String("dir"), kb, pipeline)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Stop()

	if c.Bool("sync") {
		if err := watcher.SyncExistingFiles(ctx); err != nil {
			return fmt.Errorf("failed to sync existing files: %w", err)
		}
	}

	<-ctx.Done()
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
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
