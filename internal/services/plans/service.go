package plans

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rendydev404/beatly/internal/domain/model"
	pgrepo "github.com/rendydev404/beatly/internal/repo/postgres"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrPlanNotFound = errors.New("plan not found")
)

type Store interface {
	List(ctx context.Context) ([]model.Plan, error)
	UpdatePricing(ctx context.Context, planID string, price, dailyLimit int) (model.Plan, error)
}

type Cache interface {
	Get(ctx context.Context) ([]model.Plan, bool, error)
	Set(ctx context.Context, plans []model.Plan) error
	Invalidate(ctx context.Context) error
}

// Service serves the plan catalog through a read-through cache and lets an
// admin adjust pricing. Cache failures never block a read or a write; the
// database stays authoritative.
type Service struct {
	store Store
	cache Cache
	log   *zap.Logger
}

func NewService(store Store, cache Cache, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, cache: cache, log: log}
}

func (s *Service) List(ctx context.Context) ([]model.Plan, error) {
	if s.store == nil {
		return nil, fmt.Errorf("plan store is not configured")
	}

	if s.cache != nil {
		cached, hit, err := s.cache.Get(ctx)
		if err != nil {
			s.log.Debug("plan cache read failed", zap.Error(err))
		} else if hit {
			return cached, nil
		}
	}

	listed, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, listed); err != nil {
			s.log.Debug("plan cache write failed", zap.Error(err))
		}
	}

	return listed, nil
}

func (s *Service) UpdatePricing(ctx context.Context, planID string, price, dailyLimit int) (model.Plan, error) {
	if strings.TrimSpace(planID) == "" || price < 0 || dailyLimit < 0 {
		return model.Plan{}, ErrValidation
	}
	if s.store == nil {
		return model.Plan{}, fmt.Errorf("plan store is not configured")
	}

	plan, err := s.store.UpdatePricing(ctx, planID, price, dailyLimit)
	if err != nil {
		if errors.Is(err, pgrepo.ErrPlanNotFound) {
			return model.Plan{}, ErrPlanNotFound
		}
		return model.Plan{}, fmt.Errorf("update plan pricing: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.log.Warn("plan cache invalidation failed", zap.Error(err))
		}
	}

	s.log.Info("plan pricing updated",
		zap.String("plan_id", plan.ID),
		zap.Int("price", plan.Price),
		zap.Int("daily_limit", plan.DailyLimit),
	)

	return plan, nil
}
