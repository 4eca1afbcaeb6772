package finance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"dividend-backend/lib/scraper"
	"dividend-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

type fakeLookup map[string]scraper.Company

func (l fakeLookup) GetCompanyByName(ctx context.Context, name string) (scraper.Company, error) {
	company, ok := l[name]
	if !ok {
		return scraper.Company{}, fmt.Errorf("%w: %s", scraper.ErrNotFound, name)
	}
	return company, nil
}

type fakeScraper struct {
	dividendCalls atomic.Int32
	companyCalls  atomic.Int32
	err           error

	// when set, ScrapeDividends signals started and then waits for release
	started chan struct{}
	release chan struct{}
}

func (f *fakeScraper) ScrapeCompany(ctx context.Context, ticker string) (scraper.Company, error) {
	f.companyCalls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return scraper.Company{}, errors.New("expected a deadline")
	}
	return scraper.Company{Ticker: ticker, Name: "Name of " + ticker}, nil
}

func (f *fakeScraper) ScrapeDividends(ctx context.Context, company scraper.Company) (scraper.ScrapeResult, error) {
	f.dividendCalls.Add(1)
	if f.started != nil {
		f.started <- struct{}{}
		<-f.release
	}
	if f.err != nil {
		return scraper.ScrapeResult{}, f.err
	}
	date, err := scraper.NewDate(2023, time.August, 15)
	if err != nil {
		return scraper.ScrapeResult{}, err
	}
	return scraper.ScrapeResult{
		Company: company,
		Dividends: []scraper.Dividend{
			{Date: date, Amount: "0.24"},
			{Date: date, Amount: "0.23"},
		},
	}, nil
}

var testCompanies = fakeLookup{
	"Apple Inc.":        {Ticker: "AAPL", Name: "Apple Inc."},
	"Coca-Cola Company": {Ticker: "KO", Name: "Coca-Cola Company"},
}

func TestGetDividendHistoryCaches(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/finance")
	defer cleanup()

	source := &fakeScraper{}
	cache := NewLRUCache(16, 0)
	service := NewService(source, testCompanies, cache)
	ctx := context.Background()

	first, err := service.GetDividendHistory(ctx, "Apple Inc.")
	require.NoError(t, err)
	require.Equal(t, "AAPL", first.Company.Ticker)
	require.Len(t, first.Dividends, 2)
	require.EqualValues(t, 1, source.dividendCalls.Load())

	second, err := service.GetDividendHistory(ctx, "Apple Inc.")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.EqualValues(t, 1, source.dividendCalls.Load(), "a cached result must not be scraped again")

	require.NoError(t, service.Evict(ctx, "Apple Inc."))
	_, ok, err := cache.Get(ctx, "Apple Inc.")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = service.GetDividendHistory(ctx, "Apple Inc.")
	require.NoError(t, err)
	require.EqualValues(t, 2, source.dividendCalls.Load())
}

func TestGetDividendHistoryIdempotent(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/finance")
	defer cleanup()

	ctx := context.Background()
	var encoded [][]byte
	for i := 0; i < 2; i++ {
		service := NewService(&fakeScraper{}, testCompanies, NewLRUCache(16, 0))
		result, err := service.GetDividendHistory(ctx, "Coca-Cola Company")
		require.NoError(t, err)
		serialized, err := json.Marshal(result)
		require.NoError(t, err)
		encoded = append(encoded, serialized)
	}
	require.Equal(t, encoded[0], encoded[1])
}

func TestCachedResultIsNotShared(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/finance")
	defer cleanup()

	service := NewService(&fakeScraper{}, testCompanies, NewLRUCache(16, 0))
	ctx := context.Background()

	first, err := service.GetDividendHistory(ctx, "Apple Inc.")
	require.NoError(t, err)
	first.Dividends[0].Amount = "999"

	second, err := service.GetDividendHistory(ctx, "Apple Inc.")
	require.NoError(t, err)
	require.Equal(t, "0.24", second.Dividends[0].Amount)
}

func TestGetDividendHistoryErrors(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/finance")
	defer cleanup()

	ctx := context.Background()
	cache := NewLRUCache(16, 0)

	_, err := NewService(&fakeScraper{}, testCompanies, cache).GetDividendHistory(ctx, "Unknown Corp")
	require.ErrorIs(t, err, scraper.ErrNotFound)

	_, err = NewService(&fakeScraper{}, testCompanies, cache).GetDividendHistory(ctx, "  ")
	require.ErrorIs(t, err, scraper.ErrNotFound)

	failing := &fakeScraper{err: fmt.Errorf("%w: unknown month", scraper.ErrFormat)}
	_, err = NewService(failing, testCompanies, cache).GetDividendHistory(ctx, "Apple Inc.")
	require.ErrorIs(t, err, scraper.ErrFormat)
	require.Equal(t, 0, cache.Len(), "failed scrapes are not cached")
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) (scraper.ScrapeResult, bool, error) {
	return scraper.ScrapeResult{}, false, errors.New("connection refused")
}

func (brokenCache) Set(context.Context, string, scraper.ScrapeResult) error {
	return errors.New("connection refused")
}

func (brokenCache) Delete(context.Context, string) error {
	return errors.New("connection refused")
}

func TestBrokenCacheDegradesToScraping(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/finance")
	defer cleanup()

	source := &fakeScraper{}
	service := NewService(source, testCompanies, brokenCache{})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := service.GetDividendHistory(ctx, "Apple Inc.")
		require.NoError(t, err)
		require.Len(t, result.Dividends, 2)
	}
	require.EqualValues(t, 2, source.dividendCalls.Load())

	require.Error(t, service.Evict(ctx, "Apple Inc."))
}

func TestEvictDuringFillDoesNotCache(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/finance")
	defer cleanup()

	source := &fakeScraper{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	cache := NewLRUCache(16, 0)
	service := NewService(source, testCompanies, cache)
	ctx := context.Background()

	var fillErr error
	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, fillErr = service.GetDividendHistory(ctx, "Apple Inc.")
	}()

	<-source.started
	require.NoError(t, service.Evict(ctx, "Apple Inc."))
	close(source.release)
	wg.Wait()
	require.NoError(t, fillErr)

	_, ok, err := cache.Get(ctx, "Apple Inc.")
	require.NoError(t, err)
	require.False(t, ok, "a fill that started before the eviction must not be cached")

	source.started = nil
	_, err = service.GetDividendHistory(ctx, "Apple Inc.")
	require.NoError(t, err)
	_, ok, err = cache.Get(ctx, "Apple Inc.")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCancelledCallerDoesNotCache(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/finance")
	defer cleanup()

	source := &fakeScraper{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	cache := NewLRUCache(16, 0)
	service := NewService(source, testCompanies, cache)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		service.GetDividendHistory(ctx, "Apple Inc.")
	}()

	<-source.started
	cancel()
	close(source.release)
	<-done

	require.Equal(t, 0, cache.Len())
}

func TestResolveCompany(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/finance")
	defer cleanup()

	source := &fakeScraper{}
	service := NewService(source, testCompanies, NewLRUCache(16, 0), WithScrapeTimeout(time.Second))
	ctx := context.Background()

	company, err := service.ResolveCompany(ctx, " msft ")
	require.NoError(t, err)
	require.Equal(t, scraper.Company{Ticker: "MSFT", Name: "Name of MSFT"}, company)

	_, err = service.ResolveCompany(ctx, "")
	require.ErrorIs(t, err, scraper.ErrInvalidTicker)
	require.EqualValues(t, 1, source.companyCalls.Load())
}

// memorySharedCache stands in for a store shared by several processes.
type memorySharedCache struct {
	mutex         sync.Mutex
	entries       map[string]scraper.ScrapeResult
	generations   map[string]int64
	generationErr error
}

func newMemorySharedCache() *memorySharedCache {
	return &memorySharedCache{
		entries:     map[string]scraper.ScrapeResult{},
		generations: map[string]int64{},
	}
}

func (c *memorySharedCache) Get(ctx context.Context, companyName string) (scraper.ScrapeResult, bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	result, ok := c.entries[companyName]
	return result, ok, nil
}

func (c *memorySharedCache) Set(ctx context.Context, companyName string, result scraper.ScrapeResult) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries[companyName] = result
	return nil
}

func (c *memorySharedCache) Delete(ctx context.Context, companyName string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.entries, companyName)
	c.generations[companyName]++
	return nil
}

func (c *memorySharedCache) Generation(ctx context.Context, companyName string) (int64, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.generationErr != nil {
		return 0, c.generationErr
	}
	return c.generations[companyName], nil
}

func (c *memorySharedCache) SetIfGeneration(ctx context.Context, companyName string, generation int64, result scraper.ScrapeResult) (bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.generations[companyName] != generation {
		return false, nil
	}
	c.entries[companyName] = result
	return true, nil
}

// fillWhileOtherInstanceEvicts starts a fill through one service, evicts
// through a second service while the scrape is in flight and then lets the
// fill finish. The services may use separate handles to the same store.
func fillWhileOtherInstanceEvicts(t *testing.T, cache, otherCache Cache, companyName string) {
	ctx := context.Background()
	source := &fakeScraper{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	filling := NewService(source, testCompanies, cache)
	evicting := NewService(&fakeScraper{}, testCompanies, otherCache)

	var fillErr error
	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, fillErr = filling.GetDividendHistory(ctx, companyName)
	}()

	<-source.started
	require.NoError(t, evicting.Evict(ctx, companyName))
	close(source.release)
	wg.Wait()
	require.NoError(t, fillErr)

	_, ok, err := cache.Get(ctx, companyName)
	require.NoError(t, err)
	require.False(t, ok, "a fill that started before another instance evicted must not be cached")

	source.started = nil
	_, err = filling.GetDividendHistory(ctx, companyName)
	require.NoError(t, err)
	_, ok, err = cache.Get(ctx, companyName)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestEvictFromOtherInstanceDuringFill(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/finance")
	defer cleanup()

	cache := newMemorySharedCache()
	fillWhileOtherInstanceEvicts(t, cache, cache, "Apple Inc.")
}

func TestUnreadableGenerationDoesNotCache(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/finance")
	defer cleanup()

	cache := newMemorySharedCache()
	cache.generationErr = errors.New("connection reset")
	service := NewService(&fakeScraper{}, testCompanies, cache)
	ctx := context.Background()

	result, err := service.GetDividendHistory(ctx, "Apple Inc.")
	require.NoError(t, err)
	require.Len(t, result.Dividends, 2)

	_, ok, err := cache.Get(ctx, "Apple Inc.")
	require.NoError(t, err)
	require.False(t, ok)
}
