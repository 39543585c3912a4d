package handlers

import (
	"encoding/json"
	"net/http"

	authsvc "github.com/rendydev404/beatly/internal/services/auth"
	usagesvc "github.com/rendydev404/beatly/internal/services/usage"
	"github.com/rendydev404/beatly/internal/transport/http/dto"
	httperrors "github.com/rendydev404/beatly/internal/transport/http/errors"
)

type UsageHandler struct {
	service *usagesvc.Service
}

func NewUsageHandler(service *usagesvc.Service) *UsageHandler {
	return &UsageHandler{service: service}
}

func (h *UsageHandler) Check(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "USAGE_SERVICE_UNAVAILABLE", "usage service is unavailable")
		return
	}

	// The gate fails closed inside the service: a store outage comes back
	// as a denial with a message, not as an error. Only bad input reaches
	// this branch.
	result, err := h.service.Check(r.Context(), identity.UserID)
	if err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "failed to check usage")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.UsageCheckResponse{
		Allowed:   result.Allowed,
		Remaining: result.Remaining,
		ResetAt:   result.ResetAt.UTC(),
		Message:   result.Message,
	})
}

func (h *UsageHandler) Increment(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "USAGE_SERVICE_UNAVAILABLE", "usage service is unavailable")
		return
	}

	if err := h.service.Consume(r.Context(), identity.UserID); err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to record usage")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.UsageIncrementResponse{Success: true})
}

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: code, Message: message})
}

func writeNotFound(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusNotFound, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}
