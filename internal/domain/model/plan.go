package model

import "github.com/rendydev404/beatly/internal/domain/enums"

type Plan struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Price         int                `json:"price"`
	DailyLimit    int                `json:"daily_limit"`
	Features      []string           `json:"features"`
	DurationType  enums.DurationType `json:"duration_type"`
	DurationValue int                `json:"duration_value"`
	IsPopular     bool               `json:"is_popular"`
}
