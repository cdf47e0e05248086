// Package cached decorates repositories whose rows never change after seeding.
package cached

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"events-service/internal/domain"
	"events-service/internal/repository"
	"events-service/pkg/cache"
)

const namespace = "event_results"

// JSONCache is satisfied by *cache.Cache. A miss is reported as redis.Nil.
type JSONCache interface {
	GetJSON(ctx context.Context, namespace, key string, dest interface{}) error
	SetJSON(ctx context.Context, namespace, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, namespace, key string) error
}

// Results caches (event_type_id, rank) lookups. A missing row is not cached,
// so seeding a new rank takes effect immediately.
type Results struct {
	next   repository.EventResultRepository
	cache  JSONCache
	ttl    time.Duration
	logger *zap.Logger
}

var _ repository.EventResultRepository = (*Results)(nil)

func NewResults(next repository.EventResultRepository, c JSONCache, ttl time.Duration, logger *zap.Logger) *Results {
	return &Results{next: next, cache: c, ttl: ttl, logger: logger}
}

func rankKey(eventTypeID int64, rank domain.Rank) string {
	return fmt.Sprintf("%d:%s", eventTypeID, rank)
}

func (r *Results) GetByTypeAndRank(ctx context.Context, eventTypeID int64, rank domain.Rank) (*domain.EventResult, error) {
	key := rankKey(eventTypeID, rank)
	var hit domain.EventResult
	err := r.cache.GetJSON(ctx, namespace, key, &hit)
	switch {
	case err == nil:
		return &hit, nil
	case !cache.IsMiss(err):
		r.logger.Warn("event result cache unavailable", zap.String("key", key), zap.Error(err))
	}

	res, err := r.next.GetByTypeAndRank(ctx, eventTypeID, rank)
	if err != nil {
		return nil, err
	}
	if err := r.cache.SetJSON(ctx, namespace, key, res, r.ttl); err != nil {
		r.logger.Warn("failed to cache event result", zap.String("key", key), zap.Error(err))
	}
	return res, nil
}

func (r *Results) GetByID(ctx context.Context, id int64) (*domain.EventResult, error) {
	return r.next.GetByID(ctx, id)
}

func (r *Results) ListByEventType(ctx context.Context, eventTypeID int64) ([]*domain.EventResult, error) {
	return r.next.ListByEventType(ctx, eventTypeID)
}

// Upsert writes through and drops the cached entry.
func (r *Results) Upsert(ctx context.Context, res *domain.EventResult) error {
	if err := r.next.Upsert(ctx, res); err != nil {
		return err
	}
	if err := r.cache.Delete(ctx, namespace, rankKey(res.EventTypeID, res.Rank)); err != nil && !errors.Is(err, context.Canceled) {
		r.logger.Warn("failed to invalidate event result", zap.Error(err))
	}
	return nil
}
