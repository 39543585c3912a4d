package enums

import "strings"

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusSuccess   TransactionStatus = "success"
	TransactionStatusChallenge TransactionStatus = "challenge"
	TransactionStatusFailed    TransactionStatus = "failed"
)

func (s TransactionStatus) Terminal() bool {
	switch s {
	case TransactionStatusSuccess, TransactionStatusChallenge, TransactionStatusFailed:
		return true
	default:
		return false
	}
}

// MapGatewayStatus translates Midtrans transaction/fraud status pairs into the
// internal vocabulary. Unknown gateway statuses map to ok=false so callers can
// leave the stored status untouched and log the payload for investigation.
func MapGatewayStatus(transactionStatus, fraudStatus string) (TransactionStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(transactionStatus)) {
	case "capture":
		switch strings.ToLower(strings.TrimSpace(fraudStatus)) {
		case "accept", "":
			return TransactionStatusSuccess, true
		case "challenge":
			return TransactionStatusChallenge, true
		default:
			return "", false
		}
	case "settlement":
		return TransactionStatusSuccess, true
	case "cancel", "deny", "expire":
		return TransactionStatusFailed, true
	case "pending":
		return TransactionStatusPending, true
	default:
		return "", false
	}
}
