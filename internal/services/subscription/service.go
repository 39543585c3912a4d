package subscription

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rendydev404/beatly/internal/domain/model"
	"github.com/rendydev404/beatly/internal/domain/rules"
	pgrepo "github.com/rendydev404/beatly/internal/repo/postgres"
)

var ErrValidation = errors.New("validation error")

type Store interface {
	Find(ctx context.Context, userID string) (model.Subscription, error)
	Promote(ctx context.Context, userID, planID, dayKey string) (model.Subscription, error)
}

type PlanStore interface {
	FindByID(ctx context.Context, planID string) (model.Plan, error)
}

type Config struct {
	FreeDailyLimit int
}

type Service struct {
	store Store
	plans PlanStore
	cfg   Config
	log   *zap.Logger
	now   func() time.Time
}

type Snapshot struct {
	PlanID     string
	PlanName   string
	DailyLimit int
	DailyUsage int
}

func NewService(store Store, plans PlanStore, cfg Config, log *zap.Logger) *Service {
	if cfg.FreeDailyLimit <= 0 {
		cfg.FreeDailyLimit = rules.FreeSongsPerDay
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		store: store,
		plans: plans,
		cfg:   cfg,
		log:   log,
		now:   time.Now,
	}
}

func (s *Service) freeSnapshot() Snapshot {
	return Snapshot{
		PlanID:     rules.FreePlanID,
		PlanName:   rules.FreePlanName,
		DailyLimit: s.cfg.FreeDailyLimit,
		DailyUsage: 0,
	}
}

// Current returns the user's subscription snapshot. It fails open: any store
// problem degrades to the free-plan defaults so a profile or player page
// never hard-fails on a subscription read.
func (s *Service) Current(ctx context.Context, userID string) Snapshot {
	if strings.TrimSpace(userID) == "" || s.store == nil {
		return s.freeSnapshot()
	}

	sub, err := s.store.Find(ctx, userID)
	if err != nil {
		if !errors.Is(err, pgrepo.ErrSubscriptionNotFound) {
			s.log.Debug("subscription read degraded to free defaults", zap.Error(err))
		}
		return s.freeSnapshot()
	}

	snapshot := Snapshot{
		PlanID:     sub.PlanID,
		PlanName:   sub.PlanID,
		DailyLimit: s.cfg.FreeDailyLimit,
		DailyUsage: sub.DailyUsage,
	}

	if s.plans != nil {
		if plan, err := s.plans.FindByID(ctx, sub.PlanID); err == nil {
			snapshot.PlanName = plan.Name
			if plan.DailyLimit > 0 {
				snapshot.DailyLimit = plan.DailyLimit
			}
		} else {
			s.log.Debug("plan read degraded to defaults", zap.String("plan_id", sub.PlanID), zap.Error(err))
		}
	}

	return snapshot
}

// Promote is the single upgrade path: confirmed payments set the plan and
// reset usage. The underlying upsert is idempotent, so replays (duplicate
// webhooks, webhook racing the poll path) converge on the same row.
func (s *Service) Promote(ctx context.Context, userID, planID string) (model.Subscription, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(planID) == "" {
		return model.Subscription{}, ErrValidation
	}
	if s.store == nil {
		return model.Subscription{}, fmt.Errorf("subscription store is not configured")
	}

	sub, err := s.store.Promote(ctx, userID, planID, rules.DayKey(s.now()))
	if err != nil {
		return model.Subscription{}, fmt.Errorf("promote subscription: %w", err)
	}

	s.log.Info("subscription promoted",
		zap.String("user_id", userID),
		zap.String("plan_id", planID),
	)

	return sub, nil
}
