// Package cache memoizes embeddings by content so identical text is only
// sent to the embedding model once per model.
package cache

import (
	"context"
	"log/slog"
	"slices"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/poiesic/ragvec/core"
	"github.com/poiesic/ragvec/storage"
)

// DefaultHotEntries is the default size of the in-process LRU tier.
const DefaultHotEntries = 4096

// Layer is a two-tier embedding cache: an in-process LRU in front of a
// persistent CacheRepository. Entries are keyed on (model, content hash).
// All failures are logged and reported as misses; the cache never fails a caller.
type Layer struct {
	repo   storage.CacheRepository
	hot    *lru.Cache[string, *core.CacheEntry]
	logger *slog.Logger
}

// Option configures a Layer.
type Option func(*options)

type options struct {
	hotEntries int
	logger     *slog.Logger
}

// WithHotEntries sets the LRU capacity. Zero disables the hot tier.
func WithHotEntries(n int) Option {
	return func(o *options) {
		o.hotEntries = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New creates a cache layer over repo.
func New(repo storage.CacheRepository, opts ...Option) (*Layer, error) {
	o := options{
		hotEntries: DefaultHotEntries,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	l := &Layer{
		repo:   repo,
		logger: o.logger.With("component", "cache"),
	}
	if o.hotEntries > 0 {
		hot, err := lru.New[string, *core.CacheEntry](o.hotEntries)
		if err != nil {
			return nil, err
		}
		l.hot = hot
	}
	return l, nil
}

// Hash returns the cache key digest of content.
func Hash(content string) string {
	return core.ContentHash(content)
}

func hotKey(model, hash string) string {
	return model + "\x00" + hash
}

// Get returns the entry computed by model for hash, or false on a miss.
func (l *Layer) Get(ctx context.Context, model, hash string) (*core.CacheEntry, bool) {
	key := hotKey(model, hash)
	if l.hot != nil {
		if entry, ok := l.hot.Get(key); ok {
			return entry, true
		}
	}

	entry, err := l.repo.GetCacheEntry(ctx, model, hash)
	if err != nil {
		l.logger.Warn("cache read failed", "hash", hash, "err", err)
		return nil, false
	}
	if entry == nil || entry.Model != model {
		return nil, false
	}
	if l.hot != nil {
		l.hot.Add(key, entry)
	}
	return entry, true
}

// Put records vector as model's embedding of the content behind hash.
// Errors are logged and swallowed.
func (l *Layer) Put(ctx context.Context, hash string, vector []float32, model string, tokenCount int) {
	if err := core.ValidateVector(vector, 0); err != nil {
		l.logger.Warn("refusing to cache invalid vector", "hash", hash, "err", err)
		return
	}

	entry := &core.CacheEntry{
		Hash:       hash,
		Model:      model,
		Vector:     slices.Clone(vector),
		TokenCount: tokenCount,
		InsertedAt: time.Now().UTC(),
	}
	if err := l.repo.PutCacheEntry(ctx, entry); err != nil {
		l.logger.Warn("cache write failed", "hash", hash, "err", err)
		return
	}
	if l.hot != nil {
		l.hot.Add(hotKey(model, hash), entry)
	}
}

// Purge drops the hot tier. Persisted entries are kept.
func (l *Layer) Purge() {
	if l.hot != nil {
		l.hot.Purge()
	}
}
