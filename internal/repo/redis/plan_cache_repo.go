package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/rendydev404/beatly/internal/domain/model"
)

const plansCacheKey = "plans:all"

// PlanCacheRepo is a read-through cache for the plan catalog. The store stays
// the source of truth; callers treat a miss and a redis failure the same way.
type PlanCacheRepo struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewPlanCacheRepo(client *goredis.Client, ttl time.Duration) *PlanCacheRepo {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &PlanCacheRepo{client: client, ttl: ttl}
}

func (r *PlanCacheRepo) Get(ctx context.Context) ([]model.Plan, bool, error) {
	if r.client == nil {
		return nil, false, nil
	}

	raw, err := r.client.Get(ctx, plansCacheKey).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get cached plans: %w", err)
	}

	var plans []model.Plan
	if err := json.Unmarshal(raw, &plans); err != nil {
		// Treat a corrupt entry as a miss; the next Set overwrites it.
		return nil, false, nil
	}

	return plans, true, nil
}

func (r *PlanCacheRepo) Set(ctx context.Context, plans []model.Plan) error {
	if r.client == nil {
		return nil
	}

	raw, err := json.Marshal(plans)
	if err != nil {
		return fmt.Errorf("marshal plans for cache: %w", err)
	}

	if err := r.client.Set(ctx, plansCacheKey, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("set cached plans: %w", err)
	}

	return nil
}

func (r *PlanCacheRepo) Invalidate(ctx context.Context) error {
	if r.client == nil {
		return nil
	}

	if err := r.client.Del(ctx, plansCacheKey).Err(); err != nil {
		return fmt.Errorf("invalidate cached plans: %w", err)
	}

	return nil
}
