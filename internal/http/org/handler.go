package org

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/docledger/docledger/internal/http/httperr"
	"github.com/docledger/docledger/internal/http/middleware"
	"github.com/docledger/docledger/internal/org"
)

type Handler struct {
	svc *org.Service
}

func NewHandler(svc *org.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/settings", h.get)
	r.Put("/settings", h.update)
}

type settingsResponse struct {
	Level1Threshold int64      `json:"level1_threshold"`
	Level2Threshold int64      `json:"level2_threshold"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

func toResponse(s *org.Settings) settingsResponse {
	resp := settingsResponse{
		Level1Threshold: s.Level1Threshold,
		Level2Threshold: s.Level2Threshold,
	}

	if !s.UpdatedAt.IsZero() {
		resp.UpdatedAt = &s.UpdatedAt
	}

	return resp
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	settings, err := h.svc.Get(r.Context(), actor.OrgID)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(settings))
}

type updateRequest struct {
	Level1Threshold int64 `json:"level1_threshold"`
	Level2Threshold int64 `json:"level2_threshold"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	settings, err := h.svc.Update(r.Context(), actor, org.Settings{
		Level1Threshold: req.Level1Threshold,
		Level2Threshold: req.Level2Threshold,
	})
	if err != nil {
		httperr.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(settings))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
