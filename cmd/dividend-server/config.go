package main

import (
	"fmt"
	"time"

	"dividend-backend/lib/scrapers/yahoo"
	"dividend-backend/services/finance"
)

type ScraperConfig struct {
	BaseUrl           string          `json:"base_url"`
	TimeoutSeconds    int             `json:"timeout_seconds"`
	RequestsPerSecond float64         `json:"requests_per_second"`
	HistoryStart      int64           `json:"history_start"`
	Endpoints         yahoo.Endpoints `json:"endpoints"`
	Selectors         yahoo.Selectors `json:"selectors"`
}

type CacheConfig struct {
	// "lru" or "redis", defaults to "lru"
	Kind string `json:"kind"`
	// lru only
	Size       int                  `json:"size"`
	TtlMinutes int                  `json:"ttl_minutes"`
	Redis      finance.RedisOptions `json:"redis"`
}

type Config struct {
	Addr string `json:"addr"`
	// a sqlite path (may start with <dev_state>) or a libsql:// url
	Database string `json:"database"`
	// protects adding and deleting companies, empty leaves them open
	AdminToken string        `json:"admin_token"`
	Scraper    ScraperConfig `json:"scraper"`
	Cache      CacheConfig   `json:"cache"`
}

func (c Config) Validate() error {
	if c.Database == "" {
		return fmt.Errorf("database must be specified")
	}
	switch c.Cache.Kind {
	case "", "lru":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("cache.redis.addr must be specified when cache.kind is redis")
		}
	default:
		return fmt.Errorf("unknown cache kind %q", c.Cache.Kind)
	}
	if c.Scraper.TimeoutSeconds < 0 || c.Scraper.RequestsPerSecond < 0 {
		return fmt.Errorf("scraper limits must not be negative")
	}
	return nil
}

func (c Config) addr() string {
	if c.Addr == "" {
		return "0.0.0.0:8000"
	}
	return c.Addr
}

func (c ScraperConfig) timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c CacheConfig) ttl() time.Duration {
	return time.Duration(c.TtlMinutes) * time.Minute
}
