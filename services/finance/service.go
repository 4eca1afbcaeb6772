package finance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"dividend-backend/lib/scraper"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const defaultScrapeTimeout = time.Second * 30

// CompanyLookup finds registered companies by their display name, unknown
// names are reported with scraper.ErrNotFound.
type CompanyLookup interface {
	GetCompanyByName(ctx context.Context, name string) (scraper.Company, error)
}

type Option func(s *Service)

// WithScrapeTimeout bounds every call made to the scraper.
func WithScrapeTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.scrapeTimeout = timeout
		}
	}
}

// Service serves dividend histories from the cache and fills it from the
// scraper on a miss.
type Service struct {
	scraper       scraper.Scraper
	companies     CompanyLookup
	cache         Cache
	scrapeTimeout time.Duration
	metrics       metrics

	// epoch is bumped by every eviction, fills that started in an older epoch
	// are not written back. fills hold the read lock while writing so an
	// eviction cannot interleave between the check and the write. evictions
	// made by other processes are caught by SharedCache generations instead.
	epochLock sync.RWMutex
	epoch     uint64
}

func NewService(scraper scraper.Scraper, companies CompanyLookup, cache Cache, opts ...Option) *Service {
	s := &Service{
		scraper:       scraper,
		companies:     companies,
		cache:         cache,
		scrapeTimeout: defaultScrapeTimeout,
		metrics:       newMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) currentEpoch() uint64 {
	s.epochLock.RLock()
	defer s.epochLock.RUnlock()
	return s.epoch
}

// ResolveCompany resolves a ticker into a company through the scraper.
func (s *Service) ResolveCompany(ctx context.Context, ticker string) (scraper.Company, error) {
	ctx, span := tracer.Start(ctx, "ResolveCompany")
	defer span.End()

	ticker, err := scraper.NormalizeTicker(ticker)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return scraper.Company{}, err
	}
	span.SetAttributes(attribute.String("ticker", ticker))

	scrapeCtx, cancel := context.WithTimeout(ctx, s.scrapeTimeout)
	defer cancel()

	company, err := s.scraper.ScrapeCompany(scrapeCtx, ticker)
	if err != nil {
		s.metrics.scrapeError.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return scraper.Company{}, err
	}
	return company, nil
}

// GetDividendHistory returns the dividend history of a registered company.
// Cache failures are logged and treated as misses.
func (s *Service) GetDividendHistory(ctx context.Context, companyName string) (scraper.ScrapeResult, error) {
	ctx, span := tracer.Start(ctx, "GetDividendHistory")
	defer span.End()

	span.SetAttributes(attribute.String("company", companyName))

	if strings.TrimSpace(companyName) == "" {
		err := fmt.Errorf("%w: company name is empty", scraper.ErrNotFound)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return scraper.ScrapeResult{}, err
	}

	cached, ok, err := s.cache.Get(ctx, companyName)
	if err != nil {
		span.RecordError(err)
		slog.WarnContext(ctx, "failed to read dividend cache", "company", companyName, "err", err)
	}
	if ok {
		s.metrics.cacheHit.Add(ctx, 1)
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return cached, nil
	}
	s.metrics.cacheMiss.Add(ctx, 1)
	span.SetAttributes(attribute.Bool("cache_hit", false))

	guard := s.startFill(ctx, companyName)

	company, err := s.companies.GetCompanyByName(ctx, companyName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return scraper.ScrapeResult{}, err
	}

	scrapeCtx, cancel := context.WithTimeout(ctx, s.scrapeTimeout)
	defer cancel()

	result, err := s.scraper.ScrapeDividends(scrapeCtx, company)
	if err != nil {
		s.metrics.scrapeError.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return scraper.ScrapeResult{}, err
	}
	result = cloneResult(result)

	s.fill(ctx, companyName, guard, result)
	return result, nil
}

// fillGuard is what a fill has to still match when it writes its result.
type fillGuard struct {
	epoch      uint64
	generation int64
	// false when the shared generation could not be read
	shareable bool
}

func (s *Service) startFill(ctx context.Context, companyName string) fillGuard {
	guard := fillGuard{epoch: s.currentEpoch(), shareable: true}
	shared, ok := s.cache.(SharedCache)
	if !ok {
		return guard
	}
	generation, err := shared.Generation(ctx, companyName)
	if err != nil {
		slog.WarnContext(ctx, "failed to read cache generation", "company", companyName, "err", err)
		guard.shareable = false
		return guard
	}
	guard.generation = generation
	return guard
}

func (s *Service) fill(ctx context.Context, companyName string, guard fillGuard, result scraper.ScrapeResult) {
	s.epochLock.RLock()
	defer s.epochLock.RUnlock()

	if ctx.Err() != nil {
		slog.DebugContext(ctx, "caller went away, not caching", "company", companyName)
		return
	}
	if s.epoch != guard.epoch {
		slog.DebugContext(ctx, "evicted while scraping, not caching", "company", companyName)
		return
	}
	if !guard.shareable {
		return
	}

	shared, ok := s.cache.(SharedCache)
	if !ok {
		err := s.cache.Set(ctx, companyName, result)
		if err != nil {
			slog.WarnContext(ctx, "failed to write dividend cache", "company", companyName, "err", err)
		}
		return
	}

	stored, err := shared.SetIfGeneration(ctx, companyName, guard.generation, result)
	if err != nil {
		slog.WarnContext(ctx, "failed to write dividend cache", "company", companyName, "err", err)
		return
	}
	if !stored {
		slog.DebugContext(ctx, "evicted elsewhere while scraping, not caching", "company", companyName)
	}
}

// Evict removes the cached dividend history of a company, it returns after
// the entry is gone.
func (s *Service) Evict(ctx context.Context, companyName string) error {
	ctx, span := tracer.Start(ctx, "Evict")
	defer span.End()

	span.SetAttributes(attribute.String("company", companyName))

	s.epochLock.Lock()
	defer s.epochLock.Unlock()
	s.epoch++

	err := s.cache.Delete(ctx, companyName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("evict %q: %w", companyName, err)
	}
	slog.DebugContext(ctx, "evicted dividend history", "company", companyName)
	return nil
}
