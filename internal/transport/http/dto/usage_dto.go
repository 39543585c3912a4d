package dto

import "time"

type UsageCheckResponse struct {
	Allowed   bool      `json:"allowed"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
	Message   string    `json:"message,omitempty"`
}

type UsageIncrementResponse struct {
	Success bool `json:"success"`
}
