package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rendydev404/beatly/internal/domain/model"
	"github.com/rendydev404/beatly/internal/infra/midtrans"
	authsvc "github.com/rendydev404/beatly/internal/services/auth"
	billingsvc "github.com/rendydev404/beatly/internal/services/billing"
	"github.com/rendydev404/beatly/internal/transport/http/dto"
	httperrors "github.com/rendydev404/beatly/internal/transport/http/errors"
)

type PlanFinder interface {
	FindByID(ctx context.Context, planID string) (model.Plan, error)
}

type BillingHandler struct {
	service *billingsvc.Service
	plans   PlanFinder
}

func NewBillingHandler(service *billingsvc.Service, plans PlanFinder) *BillingHandler {
	return &BillingHandler{service: service, plans: plans}
}

// Token opens a checkout session. The amount comes from the plan catalog, not
// the request body.
func (h *BillingHandler) Token(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil || h.plans == nil {
		writeInternal(w, "BILLING_SERVICE_UNAVAILABLE", "billing service is unavailable")
		return
	}

	var req dto.CheckoutTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	plan, err := h.plans.FindByID(r.Context(), req.PlanID)
	if err != nil {
		writeBadRequest(w, "UNKNOWN_PLAN", "unknown plan")
		return
	}
	if plan.Price <= 0 {
		writeBadRequest(w, "PLAN_NOT_PURCHASABLE", "plan cannot be purchased")
		return
	}

	res, err := h.service.Checkout(r.Context(), identity.UserID, identity.Email, plan.ID, plan.Price)
	if err != nil {
		if errors.Is(err, billingsvc.ErrValidation) {
			writeBadRequest(w, "INVALID_REQUEST", "request validation failed")
			return
		}
		writeInternal(w, "CHECKOUT_FAILED", "failed to create payment session")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.CheckoutTokenResponse{
		Token:         res.Token,
		TransactionID: res.TransactionID,
	})
}

// Notification is the unauthenticated gateway webhook. A non-2xx response
// makes the gateway redeliver, so only signature and payload problems are
// rejected outright; store failures return 500.
func (h *BillingHandler) Notification(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "BILLING_SERVICE_UNAVAILABLE", "billing service is unavailable")
		return
	}

	var n midtrans.Notification
	if err := decodeNotification(r, &n); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid notification payload")
		return
	}

	_, err := h.service.HandleNotification(r.Context(), n)
	switch {
	case err == nil:
		httperrors.Write(w, http.StatusOK, dto.NotificationAckResponse{Status: "OK"})
	case errors.Is(err, billingsvc.ErrInvalidSignature):
		writeUnauthorized(w, "INVALID_SIGNATURE", "notification signature mismatch")
	case errors.Is(err, billingsvc.ErrValidation):
		writeBadRequest(w, "INVALID_REQUEST", "invalid notification payload")
	case errors.Is(err, billingsvc.ErrTransactionNotFound):
		writeNotFound(w, "TRANSACTION_NOT_FOUND", "unknown order id")
	default:
		writeInternal(w, "INTERNAL_ERROR", "failed to process notification")
	}
}

func (h *BillingHandler) Verify(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "BILLING_SERVICE_UNAVAILABLE", "billing service is unavailable")
		return
	}

	var req dto.VerifyPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	res, err := h.service.Verify(r.Context(), identity.UserID, req.TransactionID)
	switch {
	case err == nil:
		httperrors.Write(w, http.StatusOK, dto.VerifyPaymentResponse{
			Status:            res.Status,
			TransactionStatus: res.TransactionStatus,
			Plan:              res.Plan,
			Message:           res.Message,
		})
	case errors.Is(err, billingsvc.ErrValidation):
		writeBadRequest(w, "INVALID_REQUEST", "request validation failed")
	case errors.Is(err, billingsvc.ErrTransactionNotFound):
		writeNotFound(w, "TRANSACTION_NOT_FOUND", "transaction not found")
	default:
		writeInternal(w, "INTERNAL_ERROR", "failed to verify payment")
	}
}

// Midtrans sends extra fields we do not model, so the webhook body is decoded
// leniently, unlike the strict client-facing endpoints.
func decodeNotification(r *http.Request, n *midtrans.Notification) error {
	return json.NewDecoder(r.Body).Decode(n)
}
