package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/case-service/internal/domain"
)

// cachedCaseRepository decorates a CaseRepository with a redis read-through
// cache for single-case lookups. Cache failures are logged and degrade to the
// underlying store; they never surface to callers.
type cachedCaseRepository struct {
	inner  CaseRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedCaseRepository wraps inner with a redis cache. A nil client
// returns inner unchanged.
func NewCachedCaseRepository(inner CaseRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) CaseRepository {
	if client == nil {
		return inner
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &cachedCaseRepository{inner: inner, client: client, ttl: ttl, logger: logger}
}

func (r *cachedCaseRepository) Save(ctx context.Context, c domain.Case) (domain.Case, error) {
	saved, err := r.inner.Save(ctx, c)
	if err != nil {
		return domain.Case{}, err
	}
	r.store(ctx, saved)
	return saved, nil
}

func (r *cachedCaseRepository) GetByID(ctx context.Context, id string) (domain.Case, error) {
	if cached, ok := r.lookup(ctx, id); ok {
		return cached, nil
	}
	c, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return domain.Case{}, err
	}
	r.store(ctx, c)
	return c, nil
}

// List always hits the underlying store; listings are filter-dependent and
// not worth caching at this scale.
func (r *cachedCaseRepository) List(ctx context.Context, filter CaseFilter) ([]domain.Case, error) {
	return r.inner.List(ctx, filter)
}

func (r *cachedCaseRepository) lookup(ctx context.Context, id string) (domain.Case, bool) {
	payload, err := r.client.Get(ctx, cacheKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("case cache read failed", zap.String("case_id", id), zap.Error(err))
		}
		return domain.Case{}, false
	}
	var c domain.Case
	if err := json.Unmarshal(payload, &c); err != nil {
		r.logger.Warn("case cache entry corrupt", zap.String("case_id", id), zap.Error(err))
		return domain.Case{}, false
	}
	return c, true
}

func (r *cachedCaseRepository) store(ctx context.Context, c domain.Case) {
	payload, err := json.Marshal(c)
	if err != nil {
		r.logger.Warn("case cache marshal failed", zap.String("case_id", c.ID), zap.Error(err))
		return
	}
	if err := r.client.Set(ctx, cacheKey(c.ID), payload, r.ttl).Err(); err != nil {
		r.logger.Warn("case cache write failed", zap.String("case_id", c.ID), zap.Error(err))
	}
}

func cacheKey(id string) string {
	return "case:" + id
}
