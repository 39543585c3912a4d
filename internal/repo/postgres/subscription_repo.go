package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rendydev404/beatly/internal/domain/model"
	"github.com/rendydev404/beatly/internal/domain/rules"
)

var ErrSubscriptionNotFound = errors.New("subscription not found")

type SubscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *SubscriptionRepo {
	return &SubscriptionRepo{pool: pool}
}

const subscriptionColumns = `
	user_id,
	plan_id,
	daily_usage,
	to_char(last_reset_date, 'YYYY-MM-DD'),
	updated_at
`

func (r *SubscriptionRepo) Find(ctx context.Context, userID string) (model.Subscription, error) {
	if strings.TrimSpace(userID) == "" {
		return model.Subscription{}, fmt.Errorf("user id is required")
	}
	if r.pool == nil {
		return model.Subscription{}, fmt.Errorf("postgres pool is nil")
	}

	sub, err := scanSubscription(r.pool.QueryRow(ctx, `
SELECT`+subscriptionColumns+`
FROM user_subscriptions
WHERE user_id = $1
`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Subscription{}, ErrSubscriptionNotFound
		}
		return model.Subscription{}, fmt.Errorf("find subscription: %w", err)
	}

	return sub, nil
}

// Ensure returns the user's subscription row, inserting a free-plan row when
// none exists. The no-op DO UPDATE makes the statement return the surviving
// row either way, so two concurrent first calls can never create two rows and
// neither caller sees an error.
func (r *SubscriptionRepo) Ensure(ctx context.Context, userID, dayKey string) (model.Subscription, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(dayKey) == "" {
		return model.Subscription{}, fmt.Errorf("invalid subscription ensure payload")
	}
	if r.pool == nil {
		return model.Subscription{}, fmt.Errorf("postgres pool is nil")
	}

	sub, err := scanSubscription(r.pool.QueryRow(ctx, `
INSERT INTO user_subscriptions (
	user_id,
	plan_id,
	daily_usage,
	last_reset_date,
	updated_at
) VALUES ($1, $2, 0, $3::date, NOW())
ON CONFLICT (user_id) DO UPDATE SET
	user_id = user_subscriptions.user_id
RETURNING`+subscriptionColumns+`
`, userID, rules.FreePlanID, dayKey))
	if err != nil {
		return model.Subscription{}, fmt.Errorf("ensure subscription: %w", err)
	}

	return sub, nil
}

// ResetIfStale zeroes daily usage and advances the reset date in one
// statement, guarded by the stored date so concurrent rollover checks apply
// the reset at most once.
func (r *SubscriptionRepo) ResetIfStale(ctx context.Context, userID, dayKey string) (bool, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(dayKey) == "" {
		return false, fmt.Errorf("invalid subscription reset payload")
	}
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE user_subscriptions
SET
	daily_usage = 0,
	last_reset_date = $2::date,
	updated_at = NOW()
WHERE user_id = $1 AND last_reset_date <> $2::date
`, userID, dayKey)
	if err != nil {
		return false, fmt.Errorf("reset subscription usage: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// IncrementUsage adds one consumed unit, creating the row (free plan, usage 1)
// when it does not exist yet. No cap is applied here: the gate check runs
// before playback and consumption is recorded after, so overshoot by one unit
// under concurrent requests is tolerated.
func (r *SubscriptionRepo) IncrementUsage(ctx context.Context, userID, dayKey string) (int, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(dayKey) == "" {
		return 0, fmt.Errorf("invalid usage increment payload")
	}
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var usage int
	err := r.pool.QueryRow(ctx, `
INSERT INTO user_subscriptions (
	user_id,
	plan_id,
	daily_usage,
	last_reset_date,
	updated_at
) VALUES ($1, $2, 1, $3::date, NOW())
ON CONFLICT (user_id) DO UPDATE SET
	daily_usage = user_subscriptions.daily_usage + 1,
	updated_at = NOW()
RETURNING daily_usage
`, userID, rules.FreePlanID, dayKey).Scan(&usage)
	if err != nil {
		return 0, fmt.Errorf("increment daily usage: %w", err)
	}

	return usage, nil
}

// Promote moves the user to the target plan and resets usage. The upsert is
// naturally idempotent: replaying it after a duplicate webhook leaves the row
// observably identical.
func (r *SubscriptionRepo) Promote(ctx context.Context, userID, planID, dayKey string) (model.Subscription, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(planID) == "" || strings.TrimSpace(dayKey) == "" {
		return model.Subscription{}, fmt.Errorf("invalid subscription promote payload")
	}
	if r.pool == nil {
		return model.Subscription{}, fmt.Errorf("postgres pool is nil")
	}

	sub, err := scanSubscription(r.pool.QueryRow(ctx, `
INSERT INTO user_subscriptions (
	user_id,
	plan_id,
	daily_usage,
	last_reset_date,
	updated_at
) VALUES ($1, $2, 0, $3::date, NOW())
ON CONFLICT (user_id) DO UPDATE SET
	plan_id = EXCLUDED.plan_id,
	daily_usage = 0,
	updated_at = NOW()
RETURNING`+subscriptionColumns+`
`, userID, planID, dayKey))
	if err != nil {
		return model.Subscription{}, fmt.Errorf("promote subscription: %w", err)
	}

	return sub, nil
}

func scanSubscription(row pgx.Row) (model.Subscription, error) {
	var sub model.Subscription
	if err := row.Scan(
		&sub.UserID,
		&sub.PlanID,
		&sub.DailyUsage,
		&sub.LastResetDate,
		&sub.UpdatedAt,
	); err != nil {
		return model.Subscription{}, err
	}
	return sub, nil
}
