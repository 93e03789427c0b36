// Package redis caches course price candidates in Redis in front of the SQL repository.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/course_billing_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/course_billing_engine/internal/core/ports/repositories"
	"github.com/go-redis/redis/v8"
)

const keyPrefix = "billing:course_prices:"

// ErrCacheMiss is returned by Store.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// Store is the slice of Redis the cache needs.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Client adapts a go-redis client to Store.
type Client struct {
	client *redis.Client
}

// NewClient creates a Redis client for addr.
func NewClient(addr string) *Client {
	return &Client{client: redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})}
}

// Ping checks connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return val, err
}

func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *Client) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.client.Close()
}

// CoursePriceCache decorates a course price repository. Cache failures are logged
// and fall through to the repository; they never fail a lookup.
type CoursePriceCache struct {
	next   portsrepo.CoursePriceRepositoryFacade
	store  Store
	ttl    time.Duration
	logger *slog.Logger
}

var _ portsrepo.CoursePriceRepositoryFacade = (*CoursePriceCache)(nil)

// NewCoursePriceCache wraps next.
func NewCoursePriceCache(next portsrepo.CoursePriceRepositoryFacade, store Store, ttl time.Duration, logger *slog.Logger) *CoursePriceCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &CoursePriceCache{next: next, store: store, ttl: ttl, logger: logger}
}

// CacheKey is the Redis key holding the candidates of a course.
func CacheKey(courseID int64) string {
	return fmt.Sprintf("%s%d", keyPrefix, courseID)
}

func (c *CoursePriceCache) ListActiveCoursePrices(ctx context.Context, courseID int64) ([]domain.CoursePrice, error) {
	key := CacheKey(courseID)
	data, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var prices []domain.CoursePrice
		if jsonErr := json.Unmarshal(data, &prices); jsonErr == nil {
			return prices, nil
		}
		c.logger.WarnContext(ctx, "discarding unreadable cached course prices", slog.String("key", key))
	case !errors.Is(err, ErrCacheMiss):
		c.logger.WarnContext(ctx, "course price cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}

	prices, err := c.next.ListActiveCoursePrices(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if payload, jsonErr := json.Marshal(prices); jsonErr == nil {
		if setErr := c.store.Set(ctx, key, payload, c.ttl); setErr != nil {
			c.logger.WarnContext(ctx, "course price cache write failed", slog.String("key", key), slog.String("error", setErr.Error()))
		}
	}
	return prices, nil
}

// SaveCoursePrice writes through and drops the cached candidates of the course.
func (c *CoursePriceCache) SaveCoursePrice(ctx context.Context, price domain.CoursePrice) (*domain.CoursePrice, error) {
	saved, err := c.next.SaveCoursePrice(ctx, price)
	if err != nil {
		return nil, err
	}
	if delErr := c.store.Delete(ctx, CacheKey(price.CourseID)); delErr != nil {
		c.logger.WarnContext(ctx, "course price cache invalidation failed", slog.Int64("courseID", price.CourseID), slog.String("error", delErr.Error()))
	}
	return saved, nil
}
