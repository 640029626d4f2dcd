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
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "ragvec",
		Usage: "Asynchronous embedding pipeline and vector store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
				EnvVars: []string{"RAGVEC_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory (overrides storage.path)",
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL (overrides embedding.host)",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name (overrides embedding.model)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "worker",
				Usage:  "Process queued embedding jobs until interrupted",
				Action: workerCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Jobs processed in parallel (overrides worker.concurrency)",
					},
					&cli.BoolFlag{
						Name:  "cache-only",
						Usage: "Fail jobs on any cache miss instead of calling the embedder",
					},
				},
			},
			{
				Name:      "submit",
				Usage:     "Register chunks from a JSON file and enqueue an embedding job",
				ArgsUsage: "<chunks.json | ->",
				Action:    submitCommand,
				Flags: []cli.Flag{
					docFlag(),
					&cli.IntFlag{
						Name:  "progress-base",
						Usage: "Progress already reported for the document (0-100)",
					},
					&cli.IntFlag{
						Name:  "attempts",
						Usage: "Retry attempts for this job (overrides queue.retry.attempts)",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Find the chunks closest to a query",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: 5,
					},
					&cli.StringSliceFlag{
						Name:  "doc",
						Usage: "Restrict the search to these documents",
					},
				},
			},
			{
				Name:   "status",
				Usage:  "Show the processing status of a document",
				Action: statusCommand,
				Flags:  []cli.Flag{docFlag()},
			},
			{
				Name:   "coverage",
				Usage:  "Compare a document's chunk count with its embedding count",
				Action: coverageCommand,
				Flags:  []cli.Flag{docFlag()},
			},
			{
				Name:   "delete",
				Usage:  "Remove a document's chunks, embeddings and status",
				Action: deleteCommand,
				Flags:  []cli.Flag{docFlag()},
			},
			{
				Name:   "reembed",
				Usage:  "Enqueue every stored document for re-embedding",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "doc",
						Usage: "Only re-embed these documents",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of documents to submit in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N documents",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum enqueue attempts per document",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}
}

func docFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "doc",
		Usage:    "Document ID (UUID)",
		Required: true,
	}
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
