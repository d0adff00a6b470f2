// Package cache stores query service responses in redis.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ngmaloney/flightmap/internal/models"
)

// keyPrefix namespaces every key written by this package.
const keyPrefix = "flightmap:"

type Cache interface {
	// Get decodes the value stored under key into dest and reports a hit.
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any) error
	// Purge drops every cached response, e.g. after an import.
	Purge(ctx context.Context) error
	Close() error
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

type RedisConfig struct {
	URL string // redis://[:password@]host:port/db
	TTL time.Duration
}

func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		URL: "redis://localhost:6379/0",
		TTL: 5 * time.Minute,
	}
}

func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &RedisCache{
		client: client,
		ttl:    cfg.TTL,
	}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string, dest any) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

func (c *RedisCache) Purge(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scanning cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

type NoOpCache struct{}

func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) Get(ctx context.Context, key string, dest any) bool {
	return false
}

func (c *NoOpCache) Set(ctx context.Context, key string, value any) error {
	return nil
}

func (c *NoOpCache) Purge(ctx context.Context) error {
	return nil
}

func (c *NoOpCache) Close() error {
	return nil
}

// FlightsKey identifies a flight search. Equivalent queries share a key.
func FlightsKey(q models.SearchQuery, limit int) string {
	keyData := struct {
		Departure string
		Arrival   string
		DayOfWeek string
		Airline   string
		FromHour  *float64
		ToHour    *float64
		Limit     int
	}{
		Departure: q.Departure,
		Arrival:   q.Arrival,
		DayOfWeek: q.DayOfWeek(),
		Airline:   q.Airline,
		FromHour:  q.FromHour,
		ToHour:    q.ToHour,
		Limit:     limit,
	}
	return hashKey("flights:", keyData)
}

// AirportsKey identifies an airport listing.
func AirportsKey(search string, limit int) string {
	return hashKey("airports:", struct {
		Search string
		Limit  int
	}{search, limit})
}

func DestinationsKey(code string) string {
	return keyPrefix + "destinations:" + code
}

func AirlinesKey() string {
	return keyPrefix + "airlines"
}

func hashKey(kind string, v any) string {
	data, _ := json.Marshal(v)
	hash := sha256.Sum256(data)
	return keyPrefix + kind + hex.EncodeToString(hash[:])
}
