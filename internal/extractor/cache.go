// internal/extractor/cache.go
package extractor

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/voxweb/voxweb/api/schemas"
)

// Cache serves snapshots from memory while the page reports no DOM mutations.
// A mutation watch installed in the page flips a flag on any subtree change;
// consuming a set flag forces the next snapshot to be rebuilt.
type Cache struct {
	inner   *Extractor
	page    schemas.Page
	enabled bool
	logger  *zap.Logger

	mu        sync.Mutex
	last      *Snapshot
	installed bool
}

// NewCache wraps an extractor with mutation-aware caching. With enabled false
// every call falls through to a fresh extraction.
func NewCache(inner *Extractor, page schemas.Page, enabled bool, logger *zap.Logger) *Cache {
	return &Cache{
		inner:   inner,
		page:    page,
		enabled: enabled,
		logger:  logger.Named("extractor.cache"),
	}
}

// Snapshot returns the cached snapshot when the page is unchanged, otherwise
// a fresh one. The previous snapshot is invalidated whenever it is replaced,
// so element ids handed out earlier turn stale rather than silently pointing
// at a different page.
func (c *Cache) Snapshot(ctx context.Context) *Snapshot {
	if !c.enabled {
		return c.refresh(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.installed {
		if err := c.page.InstallMutationWatch(ctx); err != nil {
			c.logger.Warn("Mutation watch unavailable; caching disabled for this page", zap.Error(err))
			c.enabled = false
			return c.refreshLocked(ctx)
		}
		c.installed = true
		return c.refreshLocked(ctx)
	}

	mutated, err := c.page.ConsumeMutationFlag(ctx)
	if err != nil {
		c.logger.Warn("Mutation flag check failed; rebuilding snapshot", zap.Error(err))
		return c.refreshLocked(ctx)
	}
	if mutated || c.last == nil || c.last.Stale() {
		return c.refreshLocked(ctx)
	}

	c.logger.Debug("Serving cached snapshot", zap.Int("elements", len(c.last.Elements)))
	return c.last
}

// Invalidate drops the cached snapshot and marks it stale. The next Snapshot
// call rebuilds from the live page.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last != nil {
		c.last.Invalidate()
		c.last = nil
	}
}

func (c *Cache) refresh(ctx context.Context) *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshLocked(ctx)
}

func (c *Cache) refreshLocked(ctx context.Context) *Snapshot {
	if c.last != nil {
		c.last.Invalidate()
	}
	c.last = c.inner.Snapshot(ctx)
	return c.last
}
