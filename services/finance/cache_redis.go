package finance

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dividend-backend/lib/scraper"

	"github.com/go-redis/redis"
)

const defaultRedisPrefix = "finance:"

type RedisOptions struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	// defaults to "finance:"
	Prefix string `json:"prefix"`
	// 0 means entries never expire
	TTL time.Duration `json:"-"`
}

// RedisCache is a Cache shared by every process pointed at the same redis,
// values are stored as json.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ SharedCache = RedisCache{}

func NewRedisCache(opts RedisOptions) RedisCache {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		MaxRetries:   2,
		ReadTimeout:  time.Second * 5,
		WriteTimeout: time.Second * 5,
	})
	return RedisCache{
		client: client,
		prefix: prefix,
		ttl:    opts.TTL,
	}
}

func (c RedisCache) key(companyName string) string {
	return c.prefix + "dividends:" + companyName
}

func (c RedisCache) generationKey(companyName string) string {
	return c.prefix + "generation:" + companyName
}

// Ping checks that redis is reachable.
func (c RedisCache) Ping(ctx context.Context) error {
	return c.client.WithContext(ctx).Ping().Err()
}

func (c RedisCache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c RedisCache) Get(ctx context.Context, companyName string) (scraper.ScrapeResult, bool, error) {
	serialized, err := c.client.WithContext(ctx).Get(c.key(companyName)).Bytes()
	if err == redis.Nil {
		return scraper.ScrapeResult{}, false, nil
	}
	if err != nil {
		return scraper.ScrapeResult{}, false, fmt.Errorf("redis get: %w", err)
	}

	var result scraper.ScrapeResult
	err = json.Unmarshal(serialized, &result)
	if err != nil {
		return scraper.ScrapeResult{}, false, fmt.Errorf("decode cached result: %w", err)
	}
	return cloneResult(result), true, nil
}

func (c RedisCache) Set(ctx context.Context, companyName string, result scraper.ScrapeResult) error {
	serialized, err := json.Marshal(cloneResult(result))
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	err = c.client.WithContext(ctx).Set(c.key(companyName), serialized, c.ttl).Err()
	if err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes the entry and bumps its generation in one transaction.
func (c RedisCache) Delete(ctx context.Context, companyName string) error {
	_, err := c.client.WithContext(ctx).TxPipelined(func(pipe redis.Pipeliner) error {
		pipe.Del(c.key(companyName))
		pipe.Incr(c.generationKey(companyName))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (c RedisCache) Generation(ctx context.Context, companyName string) (int64, error) {
	generation, err := c.client.WithContext(ctx).Get(c.generationKey(companyName)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get generation: %w", err)
	}
	return generation, nil
}

// SetIfGeneration writes the entry under WATCH on the generation key, a
// Delete from any process between the read and EXEC aborts the write.
func (c RedisCache) SetIfGeneration(ctx context.Context, companyName string, generation int64, result scraper.ScrapeResult) (bool, error) {
	serialized, err := json.Marshal(cloneResult(result))
	if err != nil {
		return false, fmt.Errorf("encode result: %w", err)
	}

	generationKey := c.generationKey(companyName)
	stored := false
	err = c.client.WithContext(ctx).Watch(func(tx *redis.Tx) error {
		current, err := tx.Get(generationKey).Int64()
		if err == redis.Nil {
			current = 0
		} else if err != nil {
			return err
		}
		if current != generation {
			return nil
		}

		_, err = tx.Pipelined(func(pipe redis.Pipeliner) error {
			pipe.Set(c.key(companyName), serialized, c.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		stored = true
		return nil
	}, generationKey)
	if err == redis.TxFailedErr {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis set: %w", err)
	}
	return stored, nil
}
