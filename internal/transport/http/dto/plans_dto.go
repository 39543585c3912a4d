package dto

type PlanResponse struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Price         int      `json:"price"`
	DailyLimit    int      `json:"daily_limit"`
	Features      []string `json:"features"`
	DurationType  string   `json:"duration_type"`
	DurationValue int      `json:"duration_value"`
	IsPopular     bool     `json:"is_popular"`
}

type PlanPricingUpdateRequest struct {
	PlanID     string `json:"plan_id"`
	Price      int    `json:"price"`
	DailyLimit int    `json:"daily_limit"`
}
