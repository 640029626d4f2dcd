package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/ragvec"
	"github.com/poiesic/ragvec/config"
	"github.com/poiesic/ragvec/core"
	"github.com/poiesic/ragvec/queue"
	"github.com/poiesic/ragvec/reembed"
	"github.com/poiesic/ragvec/storage"
)

// chunkInput is one element of the submit command's JSON input.
type chunkInput struct {
	Index      int    `json:"index"`
	Content    string `json:"content"`
	TokenCount int    `json:"tokenCount"`
	PageStart  int    `json:"pageStart"`
	PageEnd    int    `json:"pageEnd"`
	Section    string `json:"section"`
}

// loadConfig reads the config file and applies global flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if path := c.String("db"); path != "" {
		cfg.Storage.Path = path
	}
	if host := c.String("embedding-host"); host != "" {
		cfg.Embedding.Host = host
	}
	if model := c.String("embedding-model"); model != "" {
		cfg.Embedding.Model = model
	}
	if cfg.Storage.Path == "" {
		return nil, fmt.Errorf("database path is required (--db or storage.path)")
	}
	return cfg, cfg.Validate()
}

func openDatabase(c *cli.Context, cfg *config.Config) (*ragvec.Database, error) {
	db, err := ragvec.NewDatabase(c.Context, cfg.Storage.Path, ragvec.WithConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func withDatabase(c *cli.Context, fn func(*ragvec.Database) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	db, err := openDatabase(c, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}

func workerCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if n := c.Int("concurrency"); n > 0 {
		cfg.Worker.Concurrency = n
	}
	if c.Bool("cache-only") {
		cfg.Worker.CacheOnly = true
	}

	db, err := openDatabase(c, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Database: %s\n", cfg.Storage.Path)
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", cfg.Embedding.Host)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", cfg.Embedding.Model)
	fmt.Fprintf(os.Stderr, "Workers: %d, batch size: %d, parallel batches: %d\n",
		cfg.Worker.Concurrency, cfg.Worker.BatchSize, cfg.Worker.ParallelBatches)
	fmt.Fprintln(os.Stderr)

	return db.RunWorkers(ctx)
}

func readChunks(c *cli.Context) ([]*core.Chunk, error) {
	if c.NArg() != 1 {
		return nil, fmt.Errorf("expected one chunks file argument, got %d", c.NArg())
	}

	var r io.Reader
	if name := c.Args().First(); name == "-" {
		r = c.App.Reader
	} else {
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var inputs []chunkInput
	if err := json.NewDecoder(r).Decode(&inputs); err != nil {
		return nil, fmt.Errorf("parsing chunks: %w", err)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no chunks to submit")
	}

	chunks := make([]*core.Chunk, len(inputs))
	for i, in := range inputs {
		chunks[i] = &core.Chunk{
			Index:      in.Index,
			Content:    in.Content,
			TokenCount: in.TokenCount,
			PageStart:  in.PageStart,
			PageEnd:    in.PageEnd,
			Section:    in.Section,
		}
	}
	return chunks, nil
}

func submitCommand(c *cli.Context) error {
	chunks, err := readChunks(c)
	if err != nil {
		return err
	}

	var opts []queue.EnqueueOption
	if n := c.Int("attempts"); n > 0 {
		opts = append(opts, queue.WithAttempts(n))
	}

	return withDatabase(c, func(db *ragvec.Database) error {
		handle, err := db.Submit(c.Context, c.String("doc"), chunks, c.Int("progress-base"), opts...)
		if err != nil {
			return fmt.Errorf("submit failed: %w", err)
		}

		out := c.App.Writer
		switch {
		case handle.Stub:
			fmt.Fprintf(out, "Queue disabled; chunks registered for %s but no job will run\n", handle.DocumentID)
		case handle.Existing:
			fmt.Fprintf(out, "Job %s already %s for %s\n", handle.ID, handle.State, handle.DocumentID)
		default:
			fmt.Fprintf(out, "Job %s queued for %s (%d chunks, next attempt %s)\n",
				handle.ID, handle.DocumentID, len(chunks), handle.NextAttemptAt.Format("15:04:05"))
		}
		return nil
	})
}

func searchCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("query is required")
	}
	if c.Int("limit") <= 0 {
		return fmt.Errorf("limit must be greater than 0")
	}
	query := c.Args().First()

	return withDatabase(c, func(db *ragvec.Database) error {
		searcher, err := db.NewSearcher()
		if err != nil {
			return err
		}
		hits, err := searcher.FindSimilarHits(c.Context, query, c.Int("limit"), c.StringSlice("doc")...)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		out := c.App.Writer
		if len(hits) == 0 {
			fmt.Fprintln(out, "No results")
			return nil
		}
		for i, hit := range hits {
			fmt.Fprintf(out, "%d. [%.4f] %s chunk %d\n", i+1, hit.Distance, hit.DocumentID, hit.ChunkID)
			if hit.Chunk != nil {
				fmt.Fprintf(out, "   %s\n", hit.Chunk.Content)
			}
		}
		return nil
	})
}

func statusCommand(c *cli.Context) error {
	return withDatabase(c, func(db *ragvec.Database) error {
		documentID := c.String("doc")
		s, err := db.Status(c.Context, documentID)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("no status reported for %s", documentID)
		}
		if err != nil {
			return err
		}

		out := c.App.Writer
		fmt.Fprintf(out, "Document: %s\n", s.DocumentID)
		fmt.Fprintf(out, "State: %s\n", s.State)
		fmt.Fprintf(out, "Progress: %d%%\n", s.Progress)
		if s.Error != "" {
			fmt.Fprintf(out, "Error: %s\n", s.Error)
		}
		fmt.Fprintf(out, "Updated: %s\n", s.UpdatedAt.Format("2006-01-02 15:04:05"))
		return nil
	})
}

func coverageCommand(c *cli.Context) error {
	return withDatabase(c, func(db *ragvec.Database) error {
		cov, err := db.Coverage(c.Context, c.String("doc"))
		if err != nil {
			return err
		}
		complete := "incomplete"
		if cov.Complete() {
			complete = "complete"
		}
		fmt.Fprintf(c.App.Writer, "%s: %d/%d chunks embedded (%s)\n",
			c.String("doc"), cov.Embeddings, cov.Chunks, complete)
		return nil
	})
}

func deleteCommand(c *cli.Context) error {
	return withDatabase(c, func(db *ragvec.Database) error {
		if err := db.DeleteDocument(c.Context, c.String("doc")); err != nil {
			return fmt.Errorf("delete failed: %w", err)
		}
		fmt.Fprintf(c.App.Writer, "Deleted %s\n", c.String("doc"))
		return nil
	})
}

func reembedCommand(c *cli.Context) error {
	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	return withDatabase(c, func(db *ragvec.Database) error {
		reembedder, err := db.NewReembedder(reembedConfig, os.Stderr)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
		defer stop()
		if _, _, err := reembedder.Run(ctx, c.StringSlice("doc")...); err != nil {
			return fmt.Errorf("reembedding failed: %w", err)
		}
		return nil
	})
}
