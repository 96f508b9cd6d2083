package nohit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bibcovers/cover-indexer/internal/adapter"
	"github.com/bibcovers/cover-indexer/internal/domain"
	"github.com/bibcovers/cover-indexer/internal/logger"
	"github.com/bibcovers/cover-indexer/internal/messaging"
	"github.com/bibcovers/cover-indexer/internal/metrics"
)

const (
	defaultTTL = 24 * time.Hour
	keyPrefix  = "nohit:"
	cachedFlag = "1"
)

// Reporter accepts identifiers the bibliographic search could not resolve
//
//go:generate mockgen -source=nohit.go -destination=../mocks/nohit.go -package=mocks -mock_names=Reporter=MockNoHitReporter
type Reporter interface {
	// Report publishes the items not reported within the cache TTL and returns how many were published
	Report(ctx context.Context, items []domain.NoHitItem) (int, error)
}

// Key returns the cache key of an item
func Key(item domain.NoHitItem) string {
	return fmt.Sprintf("%s%s:%s", keyPrefix, item.IdentifierType, item.Identifier)
}

// Cache suppresses no-hit notifications already published within the TTL
type Cache struct {
	redis     adapter.RedisClient
	publisher messaging.Publisher
	ttl       time.Duration
}

// NewCache creates a Redis backed no-hit cache
func NewCache(redis adapter.RedisClient, publisher messaging.Publisher, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{redis: redis, publisher: publisher, ttl: ttl}
}

// Report looks every key up with one MGET, publishes the absent items one by one
// and marks the published ones with a single MULTI/EXEC.
// A failed lookup is treated as a cold cache.
func (c *Cache) Report(ctx context.Context, items []domain.NoHitItem) (int, error) {
	items, keys := uniqueItems(items)
	if len(items) == 0 {
		return 0, nil
	}

	values, err := c.redis.MGet(ctx, keys...)
	if err != nil {
		logger.WarnCtx(ctx, "No-hit cache lookup failed, publishing every item", zap.Error(err), zap.Int("items", len(items)))
		values = make([]interface{}, len(keys))
	}

	var (
		published []string
		errs      []error
	)
	for i, item := range items {
		if i < len(values) && values[i] != nil {
			continue
		}

		if err := c.publisher.Publish(ctx, messaging.TopicNoHit, keys[i], item); err != nil {
			errs = append(errs, fmt.Errorf("failed to publish no-hit %s: %w", keys[i], err))
			continue
		}
		published = append(published, keys[i])
	}

	if len(published) > 0 {
		if err := c.redis.SetAllWithTTL(ctx, published, cachedFlag, c.ttl); err != nil {
			logger.WarnCtx(ctx, "Failed to mark no-hit items as reported", zap.Error(err), zap.Int("items", len(published)))
		}
	}

	logger.DebugCtx(ctx, "No-hit items reported",
		zap.Int("received", len(items)),
		zap.Int("published", len(published)))

	return len(published), errors.Join(errs...)
}

// uniqueItems drops items with empty fields and collapses duplicates, keeping input order
func uniqueItems(items []domain.NoHitItem) ([]domain.NoHitItem, []string) {
	seen := make(map[string]struct{}, len(items))
	out := make([]domain.NoHitItem, 0, len(items))
	keys := make([]string, 0, len(items))

	for _, item := range items {
		if item.Identifier == "" || item.IdentifierType == "" {
			continue
		}
		key := Key(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
		keys = append(keys, key)
	}

	return out, keys
}

// Service applies the feature flag in front of the cache
type Service struct {
	enabled bool
	cache   Reporter
}

// NewService creates a no-hit service; when disabled neither the cache nor the publisher is used
func NewService(enabled bool, cache Reporter) *Service {
	return &Service{enabled: enabled, cache: cache}
}

func (s *Service) Report(ctx context.Context, items []domain.NoHitItem) (int, error) {
	if !s.enabled || len(items) == 0 {
		return 0, nil
	}
	published, err := s.cache.Report(ctx, items)
	metrics.ObserveNoHitsPublished(published)
	return published, err
}
