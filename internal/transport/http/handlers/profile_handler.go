package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/rendydev404/beatly/internal/services/auth"
	profilesvc "github.com/rendydev404/beatly/internal/services/profile"
	"github.com/rendydev404/beatly/internal/transport/http/dto"
	httperrors "github.com/rendydev404/beatly/internal/transport/http/errors"
)

type ProfileHandler struct {
	service *profilesvc.Service
}

func NewProfileHandler(service *profilesvc.Service) *ProfileHandler {
	return &ProfileHandler{service: service}
}

func (h *ProfileHandler) Profile(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "PROFILE_SERVICE_UNAVAILABLE", "profile service is unavailable")
		return
	}

	view, err := h.service.Profile(r.Context(), identity.UserID, identity.Email)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load profile")
		return
	}

	stats := dto.ListeningStatsResponse{
		TotalPlays:     view.Stats.TotalPlays,
		UniqueArtists:  view.Stats.UniqueArtists,
		TodayPlays:     view.Stats.TodayPlays,
		WeekPlays:      view.Stats.WeekPlays,
		EstimatedHours: view.Stats.EstimatedHours,
	}
	if view.Stats.TopArtist != nil {
		stats.TopArtist = &dto.TopArtistResponse{
			Name:  view.Stats.TopArtist.Name,
			Count: view.Stats.TopArtist.Count,
		}
	}

	httperrors.Write(w, http.StatusOK, dto.ProfileResponse{
		UserID: view.UserID,
		Email:  view.Email,
		Subscription: dto.SubscriptionResponse{
			PlanID:     view.Subscription.PlanID,
			PlanName:   view.Subscription.PlanName,
			DailyLimit: view.Subscription.DailyLimit,
			DailyUsage: view.Subscription.DailyUsage,
		},
		Stats: stats,
	})
}

func (h *ProfileHandler) RecordPlay(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "PROFILE_SERVICE_UNAVAILABLE", "profile service is unavailable")
		return
	}

	var req dto.RecordPlayRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	err := h.service.RecordPlay(r.Context(), identity.UserID, req.TrackID, req.TrackName, req.ArtistName)
	switch {
	case err == nil:
		httperrors.Write(w, http.StatusOK, dto.RecordPlayResponse{Success: true})
	case errors.Is(err, profilesvc.ErrValidation):
		writeBadRequest(w, "INVALID_REQUEST", "track_id is required")
	default:
		writeInternal(w, "INTERNAL_ERROR", "failed to record play")
	}
}
