package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rendydev404/beatly/internal/domain/enums"
	"github.com/rendydev404/beatly/internal/domain/model"
)

var ErrPlanNotFound = errors.New("plan not found")

type PlanRepo struct {
	pool *pgxpool.Pool
}

func NewPlanRepo(pool *pgxpool.Pool) *PlanRepo {
	return &PlanRepo{pool: pool}
}

const planColumns = `
	id,
	name,
	price,
	daily_limit,
	features,
	duration_type,
	duration_value,
	is_popular
`

func (r *PlanRepo) List(ctx context.Context) ([]model.Plan, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT`+planColumns+`
FROM plans
ORDER BY price
`)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var plans []model.Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan row: %w", err)
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plan rows: %w", err)
	}

	return plans, nil
}

func (r *PlanRepo) FindByID(ctx context.Context, planID string) (model.Plan, error) {
	if strings.TrimSpace(planID) == "" {
		return model.Plan{}, fmt.Errorf("plan id is required")
	}
	if r.pool == nil {
		return model.Plan{}, fmt.Errorf("postgres pool is nil")
	}

	plan, err := scanPlan(r.pool.QueryRow(ctx, `
SELECT`+planColumns+`
FROM plans
WHERE id = $1
`, planID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Plan{}, ErrPlanNotFound
		}
		return model.Plan{}, fmt.Errorf("find plan: %w", err)
	}

	return plan, nil
}

func (r *PlanRepo) UpdatePricing(ctx context.Context, planID string, price, dailyLimit int) (model.Plan, error) {
	if strings.TrimSpace(planID) == "" {
		return model.Plan{}, fmt.Errorf("plan id is required")
	}
	if price < 0 || dailyLimit < 0 {
		return model.Plan{}, fmt.Errorf("invalid plan pricing payload")
	}
	if r.pool == nil {
		return model.Plan{}, fmt.Errorf("postgres pool is nil")
	}

	plan, err := scanPlan(r.pool.QueryRow(ctx, `
UPDATE plans
SET
	price = $2,
	daily_limit = $3
WHERE id = $1
RETURNING`+planColumns+`
`, planID, price, dailyLimit))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Plan{}, ErrPlanNotFound
		}
		return model.Plan{}, fmt.Errorf("update plan pricing: %w", err)
	}

	return plan, nil
}

func scanPlan(row pgx.Row) (model.Plan, error) {
	var plan model.Plan
	var featuresRaw []byte
	var durationType string
	if err := row.Scan(
		&plan.ID,
		&plan.Name,
		&plan.Price,
		&plan.DailyLimit,
		&featuresRaw,
		&durationType,
		&plan.DurationValue,
		&plan.IsPopular,
	); err != nil {
		return model.Plan{}, err
	}

	plan.DurationType = enums.DurationType(durationType)
	if len(featuresRaw) > 0 {
		if err := json.Unmarshal(featuresRaw, &plan.Features); err != nil {
			return model.Plan{}, fmt.Errorf("decode plan features: %w", err)
		}
	}

	return plan, nil
}
