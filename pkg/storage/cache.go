package storage

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/shelfd/shelfd/pkg/observability"
)

// DefaultCacheTTL bounds how stale a cached book listing can get.
const DefaultCacheTTL = 30 * time.Second

const defaultCacheEntries = 128

// CachedBookStore wraps a BookStore with an expiring in-process LRU
// cache over its read paths. Any write purges the whole cache; the
// catalog is small enough that fine-grained invalidation is not worth
// the bookkeeping.
type CachedBookStore struct {
	store   *BookStore
	lists   *lru.LRU[string, []*Book]
	byID    *lru.LRU[int64, *Book]
	metrics *observability.Metrics
}

// NewCachedBookStore wraps store with caches holding entries for ttl.
// A non-positive ttl falls back to DefaultCacheTTL. metrics may be nil.
func NewCachedBookStore(store *BookStore, ttl time.Duration, metrics *observability.Metrics) *CachedBookStore {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedBookStore{
		store:   store,
		lists:   lru.NewLRU[string, []*Book](defaultCacheEntries, nil, ttl),
		byID:    lru.NewLRU[int64, *Book](defaultCacheEntries, nil, ttl),
		metrics: metrics,
	}
}

func (c *CachedBookStore) recordHit() {
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *CachedBookStore) recordMiss() {
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

func listKey(filter BookFilter) string {
	return fmt.Sprintf("author=%s|year=%d", filter.Author, filter.Year)
}

// List returns books matching filter, served from cache when fresh.
func (c *CachedBookStore) List(ctx context.Context, filter BookFilter) ([]*Book, error) {
	key := listKey(filter)
	if books, ok := c.lists.Get(key); ok {
		c.recordHit()
		return books, nil
	}
	c.recordMiss()

	books, err := c.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	c.lists.Add(key, books)
	return books, nil
}

// Get returns a single book, served from cache when fresh.
func (c *CachedBookStore) Get(ctx context.Context, id int64) (*Book, error) {
	if book, ok := c.byID.Get(id); ok {
		c.recordHit()
		return book, nil
	}
	c.recordMiss()

	book, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.byID.Add(id, book)
	return book, nil
}

// Create inserts a book and invalidates the cache.
func (c *CachedBookStore) Create(ctx context.Context, book *Book) error {
	if err := c.store.Create(ctx, book); err != nil {
		return err
	}
	c.purge()
	return nil
}

// Update replaces a book and invalidates the cache.
func (c *CachedBookStore) Update(ctx context.Context, book *Book) error {
	if err := c.store.Update(ctx, book); err != nil {
		return err
	}
	c.purge()
	return nil
}

// Delete removes a book and invalidates the cache.
func (c *CachedBookStore) Delete(ctx context.Context, id int64) error {
	if err := c.store.Delete(ctx, id); err != nil {
		return err
	}
	c.purge()
	return nil
}

func (c *CachedBookStore) purge() {
	c.lists.Purge()
	c.byID.Purge()
}
