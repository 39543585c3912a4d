package model

import "time"

type Subscription struct {
	UserID        string    `json:"user_id"`
	PlanID        string    `json:"plan_id"`
	DailyUsage    int       `json:"daily_usage"`
	LastResetDate string    `json:"last_reset_date"`
	UpdatedAt     time.Time `json:"updated_at"`
}
