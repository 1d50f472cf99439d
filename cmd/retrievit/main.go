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
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/retrievit"
	"github.com/poiesic/retrievit/ai"
	"github.com/poiesic/retrievit/bench"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/indexer"
	"github.com/poiesic/retrievit/rebuild"
	"github.com/poiesic/retrievit/search"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "retrievit",
		Usage: "Question answering retrieval core for policy documents",
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
				Name:      "ingest",
				Usage:     "Ingest documents into the store and submit them for embedding",
				Action:    ingestCommand,
				ArgsUsage: "FILE [FILE...]",
				Flags: append(engineFlags(),
					&cli.StringFlag{
						Name:  "status",
						Usage: "Document status (active, draft, archived)",
						Value: "active",
					},
					&cli.BoolFlag{
						Name:  "rebuild",
						Usage: "Rebuild and publish the index snapshot after ingesting",
					},
				),
			},
			{
				Name:      "query",
				Usage:     "Answer a natural-language question against the indexed corpus",
				Action:    queryCommand,
				ArgsUsage: "QUESTION",
				Flags: append(engineFlags(),
					&cli.IntFlag{
						Name:  "top",
						Usage: "Maximum number of hits to return",
						Value: 5,
					},
					&cli.Float64Flag{
						Name:  "gate",
						Usage: "Calibrated confidence gate threshold",
					},
					&cli.IntFlag{
						Name:  "broad-k",
						Usage: "Breadth of the first-pass vector search",
					},
					&cli.StringSliceFlag{
						Name:  "status",
						Usage: "Restrict to document statuses (active, draft, archived)",
					},
				),
			},
			{
				Name:   "feedback",
				Usage:  "Record whether a returned chunk answered its query",
				Action: feedbackCommand,
				Flags: append(engineFlags(),
					&cli.StringFlag{
						Name:     "query-id",
						Usage:    "Query id from a previous query response",
						Required: true,
					},
					&cli.Uint64Flag{
						Name:     "chunk",
						Usage:    "Chunk id the feedback refers to",
						Required: true,
					},
					&cli.Float64Flag{
						Name:     "predicted",
						Usage:    "Calibrated confidence the chunk was returned with",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "correct",
						Usage: "The chunk answered the query",
					},
				),
			},
			{
				Name:   "recalibrate",
				Usage:  "Refit the confidence calibration mapping from feedback history",
				Action: recalibrateCommand,
				Flags:  engineFlags(),
			},
			{
				Name:   "rebuild",
				Usage:  "Rebuild the vector index snapshot from stored chunks",
				Action: rebuildCommand,
				Flags: append(engineFlags(),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.BoolFlag{
						Name:  "reembed",
						Usage: "Regenerate every chunk embedding, not only missing ones",
					},
					&cli.BoolFlag{
						Name:  "prune",
						Usage: "Delete retired snapshots after publishing",
					},
				),
			},
			{
				Name:   "bench",
				Usage:  "Evaluate retrieval quality against a labeled query set",
				Action: benchCommand,
				Flags: append(engineFlags(),
					&cli.StringFlag{
						Name:     "dataset",
						Usage:    "Path to the labeled dataset JSON file",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "baseline",
						Usage: "Path to the baseline JSON file to compare against",
					},
					&cli.BoolFlag{
						Name:  "update-baseline",
						Usage: "Record this run as the new baseline",
					},
					&cli.Float64Flag{
						Name:  "tolerance",
						Usage: "Allowed metric drop before reporting a regression",
						Value: bench.DefaultTolerance,
					},
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Number of queries evaluated in parallel",
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// engineFlags returns the flags every command that opens the store needs.
func engineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.StringFlag{
			Name:  "rater-host",
			Usage: "Confidence rater host URL (defaults to embedding-host)",
		},
		&cli.StringFlag{
			Name:  "rater-model",
			Usage: "Confidence rater model name",
			Value: "qwen2.5:3b",
		},
		&cli.BoolFlag{
			Name:  "no-rater",
			Usage: "Disable the model-confidence factor",
		},
	}
}

func openEngine(c *cli.Context) (*retrievit.Engine, error) {
	raterHost := c.String("rater-host")
	if raterHost == "" {
		raterHost = c.String("embedding-host")
	}

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithRaterHost(raterHost),
		ai.WithRaterModel(c.String("rater-model")),
		ai.WithRaterEnabled(!c.Bool("no-rater")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	engine, err := retrievit.NewEngine(c.String("db"), retrievit.WithAIConfig(aiConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return engine, nil
}

func parseStatus(s string) (core.DocumentStatus, error) {
	switch strings.ToLower(s) {
	case "active":
		return core.StatusActive, nil
	case "draft":
		return core.StatusDraft, nil
	case "archived":
		return core.StatusArchived, nil
	default:
		return 0, fmt.Errorf("invalid status %q: must be one of active, draft, archived", s)
	}
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	if c.NArg() == 0 {
		return fmt.Errorf("at least one document file is required")
	}

	status, err := parseStatus(c.String("status"))
	if err != nil {
		return err
	}

	docs := make([]indexer.ExtractedDocument, c.NArg())
	for i, path := range c.Args().Slice() {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		name := filepath.Base(path)
		ext := filepath.Ext(name)
		docs[i] = indexer.ExtractedDocument{
			Title:  strings.TrimSuffix(name, ext),
			Format: strings.TrimPrefix(ext, "."),
			Status: status,
			Text:   string(data),
		}
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	pipeline, err := engine.NewIngestionPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Release()

	report, err := pipeline.IngestBatch(ctx, docs)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	for _, failure := range report.Failures {
		fmt.Fprintf(os.Stderr, "skipped %q: %s\n", failure.Title, failure.Reason)
	}

	// Embedding runs async; wait before the process exits.
	if err := pipeline.Drain(ctx); err != nil {
		return err
	}

	ingested := 0
	for _, doc := range report.Documents {
		if doc != nil {
			ingested++
		}
	}
	fmt.Printf("Ingested %d/%d documents (%d flagged)\n",
		ingested, len(docs), len(report.Failures))

	if c.Bool("rebuild") {
		rebuilder, err := engine.NewRebuilder(nil, os.Stderr)
		if err != nil {
			return err
		}
		if _, err := rebuilder.Run(ctx); err != nil {
			return fmt.Errorf("rebuild failed: %w", err)
		}
	}
	return nil
}

func queryCommand(c *cli.Context) error {
	ctx := context.Background()

	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("a question is required")
	}

	var filter core.StatusFilter
	for _, s := range c.StringSlice("status") {
		status, err := parseStatus(s)
		if err != nil {
			return err
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	searcher, err := engine.NewSearcher()
	if err != nil {
		return err
	}

	resp, err := searcher.Answer(ctx, search.Request{
		Text:          question,
		Filter:        filter,
		TopN:          c.Int("top"),
		BroadK:        c.Int("broad-k"),
		GateThreshold: c.Float64("gate"),
	})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	fmt.Printf("Query %s (snapshot %d, mapping %d)\n",
		resp.QueryId, resp.SnapshotVersion, resp.MappingVersion)
	if resp.Reason != search.ReasonNone {
		fmt.Printf("No answer: %s\n", resp.Reason)
	}
	if resp.Partial {
		fmt.Println("Note: results are partial")
	}
	for i, hit := range resp.Hits {
		fmt.Printf("%d. [%d] %.3f (%s)\n   %s\n",
			i+1, hit.ChunkId, hit.CalibratedConfidence,
			strings.Join(hit.HierarchyPath, " > "), hit.Excerpt)
	}
	return nil
}

func feedbackCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	err = engine.RecordFeedback(context.Background(),
		c.String("query-id"), core.ID(c.Uint64("chunk")),
		c.Float64("predicted"), c.Bool("correct"))
	if err != nil {
		return fmt.Errorf("failed to record feedback: %w", err)
	}
	fmt.Println("Feedback recorded")
	return nil
}

func recalibrateCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	mapping, err := engine.Recalibrate(context.Background())
	if err != nil {
		return fmt.Errorf("recalibration failed: %w", err)
	}

	fmt.Printf("Calibration mapping %d fitted from %d observations",
		mapping.Version(), mapping.Observations())
	if mapping.SparseBuckets() > 0 {
		fmt.Printf(" (%d sparse buckets on identity fallback)", mapping.SparseBuckets())
	}
	fmt.Println()
	return nil
}

func rebuildCommand(c *cli.Context) error {
	config := &rebuild.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		Reembed:        c.Bool("reembed"),
		Prune:          c.Bool("prune"),
	}
	if config.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if config.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	rebuilder, err := engine.NewRebuilder(config, os.Stderr)
	if err != nil {
		return err
	}
	if _, err := rebuilder.Run(context.Background()); err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}
	return nil
}

func benchCommand(c *cli.Context) error {
	dataset, err := bench.LoadDataset(c.String("dataset"))
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	var opts []bench.RunnerOption
	if n := c.Int("concurrency"); n > 0 {
		opts = append(opts, bench.WithConcurrency(n))
	}
	runner, err := engine.NewBenchRunner(opts...)
	if err != nil {
		return err
	}

	result, err := runner.Run(context.Background(), dataset)
	if err != nil {
		return fmt.Errorf("benchmark failed: %w", err)
	}

	fmt.Printf("Dataset %s: %d queries, %d failed\n",
		result.Dataset, len(result.PerQuery), result.Failed)
	fmt.Printf("nDCG@%d: %.4f  Recall@%d: %.4f  (%v)\n",
		bench.NDCGCutoff, result.MeanNDCG, bench.RecallCutoff, result.MeanRecall,
		result.Duration.Round(time.Millisecond))

	if path := c.String("baseline"); path != "" {
		baseline, err := bench.LoadBaseline(path)
		switch {
		case err == nil:
			cmp := bench.Compare(result, baseline, c.Float64("tolerance"))
			fmt.Printf("Baseline delta: nDCG %+.4f, recall %+.4f\n",
				cmp.NDCGDelta, cmp.RecallDelta)
			if cmp.Regressed {
				return cli.Exit("regression detected against baseline", 1)
			}
		case os.IsNotExist(err) && c.Bool("update-baseline"):
			// First run, nothing to compare against yet.
		default:
			return fmt.Errorf("failed to load baseline: %w", err)
		}

		if c.Bool("update-baseline") {
			if err := bench.BaselineFromResult(result).Save(path); err != nil {
				return fmt.Errorf("failed to save baseline: %w", err)
			}
			fmt.Printf("Baseline updated: %s\n", path)
		}
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
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

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
