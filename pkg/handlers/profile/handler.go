package profile

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/letsmultiply/pulse/pkg/models/api"
	"github.com/letsmultiply/pulse/pkg/models/domain"
	"github.com/rs/zerolog"
)

// Service is the profile slice of the analytics API client.
type Service interface {
	FetchProfile(ctx context.Context, identity string, filterEvents []string) (*domain.UserProfile, error)
	UploadEvent(ctx context.Context, identity, eventName string, eventData map[string]any) (map[string]any, error)
}

type Handler struct {
	profiles Service
}

func NewHandler(profiles Service) *Handler {
	return &Handler{profiles: profiles}
}

func (h *Handler) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	var req api.ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Identity == "" {
		writeError(ctx, w, http.StatusBadRequest, "identity is required")
		return
	}

	userProfile, err := h.profiles.FetchProfile(ctx, req.Identity, req.FilterEvents)
	if err != nil {
		logger.Error().Err(err).Msg("profile fetch failed")
		writeError(ctx, w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(ctx, w, http.StatusOK, userProfile)
}

func (h *Handler) UploadEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	var req api.UploadEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Identity == "" || req.EventName == "" {
		writeError(ctx, w, http.StatusBadRequest, "identity and eventName are required")
		return
	}

	data, err := h.profiles.UploadEvent(ctx, req.Identity, req.EventName, req.EventData)
	if err != nil {
		logger.Error().Err(err).Str("event", req.EventName).Msg("event upload failed")
		writeError(ctx, w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(ctx, w, http.StatusOK, data)
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	logger := zerolog.Ctx(ctx)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, msg string) {
	writeJSON(ctx, w, status, api.ErrorResponse{Error: msg})
}
