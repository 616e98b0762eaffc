package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/owagajadoh/hotspot-billing/internal/domain/model"
	"github.com/owagajadoh/hotspot-billing/internal/domain/ports/repository"
	"github.com/owagajadoh/hotspot-billing/internal/infra/metrics"
	red "github.com/owagajadoh/hotspot-billing/internal/infra/redis"
)

var _ repository.PlanRepository = (*planRepoCacheDecorator)(nil)

// planRepoCacheDecorator fronts the plan repo with redis. Captive-portal
// pages poll GET /plans aggressively, so the active list is the hot path.
// Price matching on the webhook goes straight to the store for freshness.
type planRepoCacheDecorator struct {
	inner repository.PlanRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewPlanRepoCacheDecorator(inner repository.PlanRepository, cache red.RedisClient, ttl time.Duration) repository.PlanRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &planRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func (d *planRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.Plan, error) {
	key := fmt.Sprintf("plan:%d", id)
	if val, err := d.cache.Get(ctx, key); err == nil {
		var plan model.Plan
		if json.Unmarshal([]byte(val), &plan) == nil {
			metrics.IncCacheRequest("plan", "hit")
			return &plan, nil
		}
	}

	metrics.IncCacheRequest("plan", "miss")
	plan, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(plan); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return plan, nil
}

func (d *planRepoCacheDecorator) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	const key = "plans:active"
	if val, err := d.cache.Get(ctx, key); err == nil {
		var plans []*model.Plan
		if json.Unmarshal([]byte(val), &plans) == nil {
			metrics.IncCacheRequest("plan_list", "hit")
			return plans, nil
		}
	}

	metrics.IncCacheRequest("plan_list", "miss")
	plans, err := d.inner.ListActive(ctx, tx)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(plans); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return plans, nil
}

func (d *planRepoCacheDecorator) FindActiveByPrice(ctx context.Context, tx repository.Tx, price int64) (*model.Plan, error) {
	return d.inner.FindActiveByPrice(ctx, tx, price)
}
