package finance

import (
	"log/slog"

	"dividend-backend/lib/telemetry"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

var tracer = telemetry.Tracer("dividend.services.finance")
var meter = telemetry.Meter("dividend.services.finance")

type metrics struct {
	cacheHit    metric.Int64Counter
	cacheMiss   metric.Int64Counter
	scrapeError metric.Int64Counter
}

func int64Counter(name, description string) metric.Int64Counter {
	counter, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		slog.Warn("failed to create counter", "name", name, "err", err)
		return noop.Int64Counter{}
	}
	return counter
}

func newMetrics() metrics {
	return metrics{
		cacheHit:    int64Counter("finance.cache.hit", "dividend histories served from the cache"),
		cacheMiss:   int64Counter("finance.cache.miss", "dividend histories that had to be scraped"),
		scrapeError: int64Counter("finance.scrape.error", "failed scrapes"),
	}
}
