package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/poiesic/ragvec/ai"
	"github.com/poiesic/ragvec/cache"
	"github.com/poiesic/ragvec/queue"
	"github.com/poiesic/ragvec/status/redisbus"
	"github.com/poiesic/ragvec/worker"
)

// EnvEmbeddingToken overrides embedding.token when set.
const EnvEmbeddingToken = "RAGVEC_EMBEDDING_TOKEN"

// ErrInvalidConfig is returned when a config fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the on-disk configuration. Durations are stored as milliseconds.
type Config struct {
	Storage   StorageConfig   `yaml:"storage"`
	Queue     QueueConfig     `yaml:"queue"`
	Worker    WorkerConfig    `yaml:"worker"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Cache     CacheConfig     `yaml:"cache"`
	Notify    NotifyConfig    `yaml:"notify"`
}

type StorageConfig struct {
	// Path is the badger directory. Empty runs in memory.
	Path string `yaml:"path"`
}

type QueueConfig struct {
	Disabled       bool            `yaml:"disabled"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Retry          RetryConfig     `yaml:"retry"`
	PollIntervalMs int             `yaml:"pollIntervalMs"`
}

type RateLimitConfig struct {
	Max      int `yaml:"max"`
	WindowMs int `yaml:"windowMs"`
}

type RetryConfig struct {
	Attempts      int `yaml:"attempts"`
	BackoffBaseMs int `yaml:"backoffBaseMs"`
}

type WorkerConfig struct {
	Concurrency     int  `yaml:"concurrency"`
	BatchSize       int  `yaml:"batchSize"`
	ParallelBatches int  `yaml:"parallelBatches"`
	CacheOnly       bool `yaml:"cacheOnly"`
}

type EmbeddingConfig struct {
	Host      string `yaml:"host"`
	Model     string `yaml:"model"`
	Token     string `yaml:"token"`
	Dimension int    `yaml:"dimension"`
	TimeoutMs int    `yaml:"timeoutMs"`
}

type CacheConfig struct {
	// HotEntries sizes the in-process LRU in front of the persistent cache.
	// Zero disables it.
	HotEntries int `yaml:"hotEntries"`
}

type NotifyConfig struct {
	// RedisAddr enables job event publication when non-empty.
	RedisAddr    string `yaml:"redisAddr"`
	RedisChannel string `yaml:"redisChannel"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	q := queue.DefaultConfig()
	w := worker.DefaultConfig()
	e := ai.DefaultConfig()
	return &Config{
		Queue: QueueConfig{
			Disabled: q.Disabled,
			RateLimit: RateLimitConfig{
				Max:      q.RateLimitMax,
				WindowMs: int(q.RateLimitWindow.Milliseconds()),
			},
			Retry: RetryConfig{
				Attempts:      q.RetryAttempts,
				BackoffBaseMs: int(q.BackoffBase.Milliseconds()),
			},
			PollIntervalMs: int(q.PollInterval.Milliseconds()),
		},
		Worker: WorkerConfig{
			Concurrency:     w.Concurrency,
			BatchSize:       w.BatchSize,
			ParallelBatches: w.ParallelBatches,
			CacheOnly:       w.CacheOnly,
		},
		Embedding: EmbeddingConfig{
			Host:      e.EmbeddingHost,
			Model:     e.EmbeddingModel,
			Token:     e.EmbeddingToken,
			TimeoutMs: int(e.RequestTimeout.Milliseconds()),
		},
		Cache: CacheConfig{
			HotEntries: cache.DefaultHotEntries,
		},
		Notify: NotifyConfig{
			RedisChannel: redisbus.DefaultChannel,
		},
	}
}

// Load reads a YAML file over the defaults. A missing file yields the
// defaults; keys absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}
	if token := os.Getenv(EnvEmbeddingToken); token != "" {
		cfg.Embedding.Token = token
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks every section.
func (c *Config) Validate() error {
	if c.Embedding.Dimension < 0 {
		return fmt.Errorf("%w: embedding.dimension must not be negative", ErrInvalidConfig)
	}
	if c.Embedding.TimeoutMs < 0 {
		return fmt.Errorf("%w: embedding.timeoutMs must not be negative", ErrInvalidConfig)
	}
	if c.Cache.HotEntries < 0 {
		return fmt.Errorf("%w: cache.hotEntries must not be negative", ErrInvalidConfig)
	}
	if err := c.QueueConfig().Validate(); err != nil {
		return err
	}
	if err := c.WorkerConfig().Validate(); err != nil {
		return err
	}
	return c.AIConfig().Validate()
}

// QueueConfig maps the queue section onto queue.Config.
func (c *Config) QueueConfig() queue.Config {
	return queue.Config{
		Disabled:        c.Queue.Disabled,
		RateLimitMax:    c.Queue.RateLimit.Max,
		RateLimitWindow: millis(c.Queue.RateLimit.WindowMs),
		RetryAttempts:   c.Queue.Retry.Attempts,
		BackoffBase:     millis(c.Queue.Retry.BackoffBaseMs),
		PollInterval:    millis(c.Queue.PollIntervalMs),
	}
}

// WorkerConfig maps the worker section onto worker.Config.
func (c *Config) WorkerConfig() worker.Config {
	return worker.Config{
		Concurrency:     c.Worker.Concurrency,
		BatchSize:       c.Worker.BatchSize,
		ParallelBatches: c.Worker.ParallelBatches,
		CacheOnly:       c.Worker.CacheOnly,
	}
}

// AIConfig maps the embedding section onto ai.Config.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.Embedding.Host),
		ai.WithEmbeddingModel(c.Embedding.Model),
		ai.WithEmbeddingToken(c.Embedding.Token),
		ai.WithRequestTimeout(millis(c.Embedding.TimeoutMs)),
	)
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
