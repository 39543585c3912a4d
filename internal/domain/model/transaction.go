package model

import (
	"time"

	"github.com/rendydev404/beatly/internal/domain/enums"
)

// Transaction is one payment attempt. Its ID doubles as the gateway order id,
// so webhook and poll lookups correlate 1:1 without a mapping table.
type Transaction struct {
	ID        string                  `json:"id"`
	UserID    string                  `json:"user_id"`
	PlanID    string                  `json:"plan_id"`
	Amount    int                     `json:"amount"`
	Status    enums.TransactionStatus `json:"status"`
	SnapToken *string                 `json:"snap_token,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
}
