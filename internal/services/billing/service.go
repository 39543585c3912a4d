package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rendydev404/beatly/internal/domain/enums"
	"github.com/rendydev404/beatly/internal/domain/model"
	"github.com/rendydev404/beatly/internal/infra/midtrans"
	pgrepo "github.com/rendydev404/beatly/internal/repo/postgres"
)

var (
	ErrValidation          = errors.New("validation error")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvalidSignature    = errors.New("invalid notification signature")
)

type TransactionStore interface {
	CreatePending(ctx context.Context, userID, planID string, amount int) (model.Transaction, error)
	AttachSnapToken(ctx context.Context, transactionID, snapToken string) error
	FindByID(ctx context.Context, transactionID string) (model.Transaction, error)
	FindByIDForUser(ctx context.Context, transactionID, userID string) (model.Transaction, error)
	MarkTerminal(ctx context.Context, transactionID string, status enums.TransactionStatus) (model.Transaction, bool, error)
}

type Promoter interface {
	Promote(ctx context.Context, userID, planID string) (model.Subscription, error)
}

type Gateway interface {
	CreateSnapTransaction(ctx context.Context, req midtrans.SnapRequest) (midtrans.SnapToken, error)
	TransactionStatus(ctx context.Context, orderID string) (midtrans.StatusResponse, error)
	VerifyNotificationSignature(n midtrans.Notification) bool
}

type Config struct {
	// FinishURL is where the payment popup sends the browser after checkout.
	FinishURL string
}

// Service owns the payment lifecycle: it opens checkout sessions and runs the
// two reconciliation paths (gateway webhook, client poll) that converge on
// the transaction ledger and, on success, subscription promotion.
type Service struct {
	transactions  TransactionStore
	subscriptions Promoter
	gateway       Gateway
	cfg           Config
	log           *zap.Logger
}

func NewService(transactions TransactionStore, subscriptions Promoter, gateway Gateway, cfg Config, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		transactions:  transactions,
		subscriptions: subscriptions,
		gateway:       gateway,
		cfg:           cfg,
		log:           log,
	}
}

type CheckoutResult struct {
	Token         string
	TransactionID string
}

// Checkout creates a pending transaction and opens a gateway session keyed by
// the transaction id, so the webhook's order id resolves straight back to our
// ledger row. Gateway errors propagate; no retry here.
func (s *Service) Checkout(ctx context.Context, userID, userEmail, planID string, price int) (CheckoutResult, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(planID) == "" || price <= 0 {
		return CheckoutResult{}, ErrValidation
	}
	if s.transactions == nil || s.gateway == nil {
		return CheckoutResult{}, fmt.Errorf("billing dependencies are not configured")
	}

	txn, err := s.transactions.CreatePending(ctx, userID, planID, price)
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("create pending transaction: %w", err)
	}

	token, err := s.gateway.CreateSnapTransaction(ctx, midtrans.SnapRequest{
		OrderID:       txn.ID,
		GrossAmount:   price,
		CustomerEmail: userEmail,
		FinishURL:     s.cfg.FinishURL,
	})
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("create gateway session: %w", err)
	}

	if err := s.transactions.AttachSnapToken(ctx, txn.ID, token.Token); err != nil {
		return CheckoutResult{}, fmt.Errorf("persist snap token: %w", err)
	}

	s.log.Info("checkout session opened",
		zap.String("transaction_id", txn.ID),
		zap.String("plan_id", planID),
		zap.Int("amount", price),
	)

	return CheckoutResult{Token: token.Token, TransactionID: txn.ID}, nil
}

type NotificationResult struct {
	TransactionID string
	Status        enums.TransactionStatus
	Promoted      bool
}

// HandleNotification is the webhook path. The gateway may deliver the same
// notification more than once and may race the poll path; the sticky-success
// ledger update and the idempotent promotion make the outcome
// order-independent. Store errors bubble up so the handler returns non-2xx
// and the gateway redelivers.
func (s *Service) HandleNotification(ctx context.Context, n midtrans.Notification) (NotificationResult, error) {
	if s.transactions == nil || s.subscriptions == nil || s.gateway == nil {
		return NotificationResult{}, fmt.Errorf("billing dependencies are not configured")
	}
	if strings.TrimSpace(n.OrderID) == "" {
		return NotificationResult{}, ErrValidation
	}
	if !s.gateway.VerifyNotificationSignature(n) {
		return NotificationResult{}, ErrInvalidSignature
	}

	mapped, known := enums.MapGatewayStatus(n.TransactionStatus, n.FraudStatus)
	if !known {
		s.log.Warn("unknown gateway status, leaving transaction unchanged",
			zap.String("order_id", n.OrderID),
			zap.String("transaction_status", n.TransactionStatus),
			zap.String("fraud_status", n.FraudStatus),
		)
		txn, err := s.transactions.FindByID(ctx, n.OrderID)
		if err != nil {
			return NotificationResult{}, s.wrapLookupErr(err)
		}
		return NotificationResult{TransactionID: txn.ID, Status: txn.Status}, nil
	}

	if mapped == enums.TransactionStatusPending {
		txn, err := s.transactions.FindByID(ctx, n.OrderID)
		if err != nil {
			return NotificationResult{}, s.wrapLookupErr(err)
		}
		return NotificationResult{TransactionID: txn.ID, Status: txn.Status}, nil
	}

	txn, changed, err := s.transactions.MarkTerminal(ctx, n.OrderID, mapped)
	if err != nil {
		return NotificationResult{}, s.wrapLookupErr(err)
	}

	result := NotificationResult{TransactionID: txn.ID, Status: txn.Status}
	if txn.Status == enums.TransactionStatusSuccess && changed {
		if _, err := s.subscriptions.Promote(ctx, txn.UserID, txn.PlanID); err != nil {
			return NotificationResult{}, fmt.Errorf("promote after payment: %w", err)
		}
		result.Promoted = true
	}

	s.log.Info("gateway notification reconciled",
		zap.String("transaction_id", txn.ID),
		zap.String("status", string(txn.Status)),
		zap.Bool("changed", changed),
	)

	return result, nil
}

type VerifyResult struct {
	Status            string
	TransactionStatus string
	Plan              string
	Message           string
}

// Verify is the poll path: the client asks after returning from checkout.
// The stored status short-circuits when already success; otherwise the live
// gateway status is authoritative; client-supplied state is never trusted.
// An unreachable gateway reports pending without touching any record.
func (s *Service) Verify(ctx context.Context, userID, transactionID string) (VerifyResult, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(transactionID) == "" {
		return VerifyResult{}, ErrValidation
	}
	if s.transactions == nil || s.subscriptions == nil || s.gateway == nil {
		return VerifyResult{}, fmt.Errorf("billing dependencies are not configured")
	}

	txn, err := s.transactions.FindByIDForUser(ctx, transactionID, userID)
	if err != nil {
		return VerifyResult{}, s.wrapLookupErr(err)
	}

	if txn.Status == enums.TransactionStatusSuccess {
		return VerifyResult{
			Status:            "success",
			TransactionStatus: "settlement",
			Plan:              txn.PlanID,
			Message:           "Payment already confirmed",
		}, nil
	}

	live, err := s.gateway.TransactionStatus(ctx, txn.ID)
	if err != nil {
		s.log.Debug("gateway status poll failed, reporting pending",
			zap.String("transaction_id", txn.ID),
			zap.Error(err),
		)
		return VerifyResult{
			Status:            "pending",
			TransactionStatus: "pending",
			Message:           "Payment not received yet",
		}, nil
	}

	mapped, known := enums.MapGatewayStatus(live.TransactionStatus, live.FraudStatus)
	if !known {
		s.log.Warn("unknown gateway status during verify",
			zap.String("transaction_id", txn.ID),
			zap.String("transaction_status", live.TransactionStatus),
			zap.String("fraud_status", live.FraudStatus),
		)
		return VerifyResult{
			Status:            "pending",
			TransactionStatus: live.TransactionStatus,
			Message:           "Status: " + live.TransactionStatus,
		}, nil
	}

	switch mapped {
	case enums.TransactionStatusSuccess:
		updated, changed, err := s.transactions.MarkTerminal(ctx, txn.ID, mapped)
		if err != nil {
			return VerifyResult{}, s.wrapLookupErr(err)
		}
		if changed {
			if _, err := s.subscriptions.Promote(ctx, updated.UserID, updated.PlanID); err != nil {
				return VerifyResult{}, fmt.Errorf("promote after payment: %w", err)
			}
		}
		return VerifyResult{
			Status:            "success",
			TransactionStatus: live.TransactionStatus,
			Plan:              updated.PlanID,
			Message:           "Payment confirmed",
		}, nil

	case enums.TransactionStatusChallenge:
		if _, _, err := s.transactions.MarkTerminal(ctx, txn.ID, mapped); err != nil {
			return VerifyResult{}, s.wrapLookupErr(err)
		}
		return VerifyResult{
			Status:            "pending",
			TransactionStatus: live.TransactionStatus,
			Message:           "Payment held for fraud review",
		}, nil

	case enums.TransactionStatusFailed:
		if _, _, err := s.transactions.MarkTerminal(ctx, txn.ID, mapped); err != nil {
			return VerifyResult{}, s.wrapLookupErr(err)
		}
		message := "Payment was cancelled"
		if strings.EqualFold(live.TransactionStatus, "expire") {
			message = "Payment expired"
		}
		return VerifyResult{
			Status:            "failed",
			TransactionStatus: live.TransactionStatus,
			Message:           message,
		}, nil

	default:
		return VerifyResult{
			Status:            "pending",
			TransactionStatus: live.TransactionStatus,
			Message:           "Waiting for payment",
		}, nil
	}
}

func (s *Service) wrapLookupErr(err error) error {
	if errors.Is(err, pgrepo.ErrTransactionNotFound) {
		return ErrTransactionNotFound
	}
	return err
}
