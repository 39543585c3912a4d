package handlers

import (
	"errors"
	"net/http"

	"github.com/rendydev404/beatly/internal/domain/model"
	planssvc "github.com/rendydev404/beatly/internal/services/plans"
	"github.com/rendydev404/beatly/internal/transport/http/dto"
	httperrors "github.com/rendydev404/beatly/internal/transport/http/errors"
)

type PlansHandler struct {
	service *planssvc.Service
}

func NewPlansHandler(service *planssvc.Service) *PlansHandler {
	return &PlansHandler{service: service}
}

// List is public: the pricing page renders before login.
func (h *PlansHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "PLANS_SERVICE_UNAVAILABLE", "plans service is unavailable")
		return
	}

	listed, err := h.service.List(r.Context())
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load plans")
		return
	}

	payload := make([]dto.PlanResponse, 0, len(listed))
	for _, plan := range listed {
		payload = append(payload, mapPlan(plan))
	}

	httperrors.Write(w, http.StatusOK, payload)
}

// UpdatePricing sits behind the admin password middleware.
func (h *PlansHandler) UpdatePricing(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "PLANS_SERVICE_UNAVAILABLE", "plans service is unavailable")
		return
	}

	var req dto.PlanPricingUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	plan, err := h.service.UpdatePricing(r.Context(), req.PlanID, req.Price, req.DailyLimit)
	switch {
	case err == nil:
		httperrors.Write(w, http.StatusOK, mapPlan(plan))
	case errors.Is(err, planssvc.ErrValidation):
		writeBadRequest(w, "INVALID_REQUEST", "request validation failed")
	case errors.Is(err, planssvc.ErrPlanNotFound):
		writeNotFound(w, "PLAN_NOT_FOUND", "plan not found")
	default:
		writeInternal(w, "INTERNAL_ERROR", "failed to update plan")
	}
}

func mapPlan(plan model.Plan) dto.PlanResponse {
	features := plan.Features
	if features == nil {
		features = []string{}
	}
	return dto.PlanResponse{
		ID:            plan.ID,
		Name:          plan.Name,
		Price:         plan.Price,
		DailyLimit:    plan.DailyLimit,
		Features:      features,
		DurationType:  string(plan.DurationType),
		DurationValue: plan.DurationValue,
		IsPopular:     plan.IsPopular,
	}
}
