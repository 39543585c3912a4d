package dto

type SubscriptionResponse struct {
	PlanID     string `json:"plan_id"`
	PlanName   string `json:"plan_name"`
	DailyLimit int    `json:"daily_limit"`
	DailyUsage int    `json:"daily_usage"`
}
