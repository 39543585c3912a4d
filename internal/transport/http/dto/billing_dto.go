package dto

type CheckoutTokenRequest struct {
	PlanID string `json:"planId"`
	// Price is accepted for compatibility with existing clients but the
	// charged amount always comes from the plan catalog.
	Price int `json:"price"`
}

type CheckoutTokenResponse struct {
	Token         string `json:"token"`
	TransactionID string `json:"transactionId"`
}

type VerifyPaymentRequest struct {
	TransactionID string `json:"transactionId"`
}

type VerifyPaymentResponse struct {
	Status            string `json:"status"`
	TransactionStatus string `json:"transactionStatus,omitempty"`
	Plan              string `json:"plan,omitempty"`
	Message           string `json:"message"`
}

type NotificationAckResponse struct {
	Status string `json:"status"`
}
