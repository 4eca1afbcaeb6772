package finance

import (
	"context"
	"slices"
	"time"

	"dividend-backend/lib/scraper"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache stores dividend histories keyed by company name. A missing entry is
// reported with ok == false, errors are reserved for the store itself failing.
type Cache interface {
	Get(ctx context.Context, companyName string) (result scraper.ScrapeResult, ok bool, err error)
	Set(ctx context.Context, companyName string, result scraper.ScrapeResult) error
	Delete(ctx context.Context, companyName string) error
}

// SharedCache is a Cache that several processes write to. Delete bumps a
// per-company generation kept in the store itself, SetIfGeneration only
// writes while the generation still equals the one read before the fill.
type SharedCache interface {
	Cache
	Generation(ctx context.Context, companyName string) (int64, error)
	SetIfGeneration(ctx context.Context, companyName string, generation int64, result scraper.ScrapeResult) (stored bool, err error)
}

func cloneResult(result scraper.ScrapeResult) scraper.ScrapeResult {
	result.Dividends = slices.Clone(result.Dividends)
	if result.Dividends == nil {
		result.Dividends = []scraper.Dividend{}
	}
	return result
}

// LRUCache is an in-process Cache, entries are dropped when the cache is full
// or when they are older than the ttl.
type LRUCache struct {
	lru *expirable.LRU[string, scraper.ScrapeResult]
}

var _ Cache = LRUCache{}

// NewLRUCache creates a cache holding at most size entries, a ttl of 0 keeps
// entries until they are evicted.
func NewLRUCache(size int, ttl time.Duration) LRUCache {
	return LRUCache{
		lru: expirable.NewLRU[string, scraper.ScrapeResult](size, nil, ttl),
	}
}

func (c LRUCache) Get(_ context.Context, companyName string) (scraper.ScrapeResult, bool, error) {
	result, ok := c.lru.Get(companyName)
	if !ok {
		return scraper.ScrapeResult{}, false, nil
	}
	return cloneResult(result), true, nil
}

func (c LRUCache) Set(_ context.Context, companyName string, result scraper.ScrapeResult) error {
	c.lru.Add(companyName, cloneResult(result))
	return nil
}

func (c LRUCache) Delete(_ context.Context, companyName string) error {
	c.lru.Remove(companyName)
	return nil
}

func (c LRUCache) Len() int {
	return c.lru.Len()
}
