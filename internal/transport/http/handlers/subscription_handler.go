package handlers

import (
	"net/http"

	authsvc "github.com/rendydev404/beatly/internal/services/auth"
	subssvc "github.com/rendydev404/beatly/internal/services/subscription"
	"github.com/rendydev404/beatly/internal/transport/http/dto"
	httperrors "github.com/rendydev404/beatly/internal/transport/http/errors"
)

type SubscriptionHandler struct {
	service *subssvc.Service
}

func NewSubscriptionHandler(service *subssvc.Service) *SubscriptionHandler {
	return &SubscriptionHandler{service: service}
}

func (h *SubscriptionHandler) Current(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "SUBSCRIPTION_SERVICE_UNAVAILABLE", "subscription service is unavailable")
		return
	}

	snapshot := h.service.Current(r.Context(), identity.UserID)

	httperrors.Write(w, http.StatusOK, dto.SubscriptionResponse{
		PlanID:     snapshot.PlanID,
		PlanName:   snapshot.PlanName,
		DailyLimit: snapshot.DailyLimit,
		DailyUsage: snapshot.DailyUsage,
	})
}
