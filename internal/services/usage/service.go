package usage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rendydev404/beatly/internal/domain/model"
	"github.com/rendydev404/beatly/internal/domain/rules"
)

var ErrValidation = errors.New("validation error")

type SubscriptionStore interface {
	Ensure(ctx context.Context, userID, dayKey string) (model.Subscription, error)
	ResetIfStale(ctx context.Context, userID, dayKey string) (bool, error)
	IncrementUsage(ctx context.Context, userID, dayKey string) (int, error)
}

type PlanStore interface {
	FindByID(ctx context.Context, planID string) (model.Plan, error)
}

type Config struct {
	FreeDailyLimit int
}

// Service is the usage gate: Check decides whether one more play is allowed,
// Consume records one. The two calls are deliberately separate: a check runs
// before the track is resolved and consumption is recorded after playback
// actually starts, so a small overshoot window under concurrent requests
// from the same user is accepted rather than locked away.
type Service struct {
	subscriptions SubscriptionStore
	plans         PlanStore
	cfg           Config
	log           *zap.Logger
	now           func() time.Time
}

type CheckResult struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
	Message   string
}

func NewService(subscriptions SubscriptionStore, plans PlanStore, cfg Config, log *zap.Logger) *Service {
	if cfg.FreeDailyLimit <= 0 {
		cfg.FreeDailyLimit = rules.FreeSongsPerDay
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		subscriptions: subscriptions,
		plans:         plans,
		cfg:           cfg,
		log:           log,
		now:           time.Now,
	}
}

func (s *Service) failClosed(err error) CheckResult {
	s.log.Warn("usage check degraded, denying play", zap.Error(err))
	return CheckResult{
		Allowed: false,
		Message: "Unable to verify your daily limit. Please try again.",
	}
}

// Check decides whether one more play is allowed. It fails closed: when the
// quota cannot be read, the answer is a denial with a generic message, never
// an error the transport would surface as a 5xx.
func (s *Service) Check(ctx context.Context, userID string) (CheckResult, error) {
	if strings.TrimSpace(userID) == "" {
		return CheckResult{}, ErrValidation
	}
	if s.subscriptions == nil || s.plans == nil {
		return s.failClosed(errors.New("usage gate stores are not configured")), nil
	}

	now := s.now()
	today := rules.DayKey(now)
	resetAt := rules.NextResetAt(now)

	sub, err := s.subscriptions.Ensure(ctx, userID, today)
	if err != nil {
		return s.failClosed(fmt.Errorf("ensure subscription: %w", err)), nil
	}

	limit, err := s.resolveLimit(ctx, sub.PlanID)
	if err != nil {
		return s.failClosed(err), nil
	}

	if sub.LastResetDate != today {
		if _, err := s.subscriptions.ResetIfStale(ctx, userID, today); err != nil {
			return s.failClosed(fmt.Errorf("reset daily usage: %w", err)), nil
		}
		return CheckResult{Allowed: true, Remaining: limit, ResetAt: resetAt}, nil
	}

	if sub.DailyUsage >= limit {
		return CheckResult{
			Allowed: false,
			ResetAt: resetAt,
			Message: fmt.Sprintf("Daily limit of %d songs reached. Upgrade to listen more!", limit),
		}, nil
	}

	return CheckResult{Allowed: true, Remaining: limit - sub.DailyUsage, ResetAt: resetAt}, nil
}

// Consume records one play. It never caps at the limit: the gate check
// happened earlier and the content may already be streaming.
func (s *Service) Consume(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrValidation
	}
	if s.subscriptions == nil {
		return fmt.Errorf("subscription store is not configured")
	}

	if _, err := s.subscriptions.IncrementUsage(ctx, userID, rules.DayKey(s.now())); err != nil {
		return fmt.Errorf("record consumption: %w", err)
	}

	return nil
}

func (s *Service) resolveLimit(ctx context.Context, planID string) (int, error) {
	plan, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		return 0, fmt.Errorf("resolve plan %q: %w", planID, err)
	}
	if plan.DailyLimit <= 0 {
		return s.cfg.FreeDailyLimit, nil
	}
	return plan.DailyLimit, nil
}
