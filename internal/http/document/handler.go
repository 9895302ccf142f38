package document

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/docledger/docledger/internal/authority"
	"github.com/docledger/docledger/internal/document"
	"github.com/docledger/docledger/internal/history"
	"github.com/docledger/docledger/internal/http/httperr"
	"github.com/docledger/docledger/internal/http/middleware"
)

type Handler struct {
	svc     *document.Service
	history *history.Service
}

func NewHandler(svc *document.Service, history *history.Service) *Handler {
	return &Handler{svc: svc, history: history}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Post("/bulk-approve", h.bulkApprove)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Get("/{id}/history", h.listHistory)

	r.Post("/{id}/submit", h.action(h.svc.Submit))
	r.Post("/{id}/approve", h.action(h.svc.Approve))
	r.Post("/{id}/reject", h.reject)
	r.Post("/{id}/send", h.action(h.svc.Send))
	r.Post("/{id}/order", h.action(h.svc.Order))
	r.Post("/{id}/receive-partial", h.action(h.svc.ReceivePartial))
	r.Post("/{id}/receive", h.action(h.svc.Receive))
	r.Post("/{id}/cancel", h.action(h.svc.Cancel))
}

type itemRequest struct {
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	UnitAmount  int64  `json:"unit_amount"`
	TaxAmount   int64  `json:"tax_amount"`
}

type createRequest struct {
	Type           document.Type `json:"type"`
	CounterpartyID uuid.UUID     `json:"counterparty_id"`
	Items          []itemRequest `json:"items"`
}

func toItemParams(items []itemRequest) []document.ItemParams {
	params := make([]document.ItemParams, len(items))
	for i, item := range items {
		params[i] = document.ItemParams{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitAmount:  item.UnitAmount,
			TaxAmount:   item.TaxAmount,
		}
	}

	return params
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	doc, err := h.svc.Create(r.Context(), actor, document.CreateParams{
		Type:           req.Type,
		CounterpartyID: req.CounterpartyID,
		Items:          toItemParams(req.Items),
	})
	if err != nil {
		httperr.Write(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(doc))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	filter := document.ListFilter{OrgID: actor.OrgID}

	if s := r.URL.Query().Get("type"); s != "" {
		filter.Type = new(document.Type(s))
	}

	if s := r.URL.Query().Get("status"); s != "" {
		filter.Status = new(document.Status(s))
	}

	if s := r.URL.Query().Get("counterparty_id"); s != "" {
		if id, err := uuid.Parse(s); err == nil {
			filter.CounterpartyID = new(id)
		}
	}

	docs, err := h.svc.List(r.Context(), filter)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponseList(docs))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	doc, err := h.svc.Get(r.Context(), id)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(doc))
}

type updateRequest struct {
	CounterpartyID *uuid.UUID    `json:"counterparty_id,omitempty"`
	Items          []itemRequest `json:"items"`
	Version        int           `json:"version"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	doc, err := h.svc.UpdateDraft(r.Context(), actor, id, document.UpdateDraftParams{
		CounterpartyID: req.CounterpartyID,
		Items:          toItemParams(req.Items),
		Version:        req.Version,
	})
	if err != nil {
		httperr.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(doc))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.svc.Delete(r.Context(), actor, id); err != nil {
		httperr.Write(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type actionFunc func(ctx context.Context, actor authority.Actor, id uuid.UUID) (*document.Document, error)

// action adapts one lifecycle transition into a handler.
func (h *Handler) action(fn actionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.ActorFromContext(r.Context())

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		doc, err := fn(r.Context(), actor, id)
		if err != nil {
			httperr.Write(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toResponse(doc))
	}
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	doc, err := h.svc.Reject(r.Context(), actor, id, req.Reason)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(doc))
}

type bulkApproveRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

type bulkFailureResponse struct {
	ID     uuid.UUID `json:"id"`
	Reason string    `json:"reason"`
}

type bulkApproveResponse struct {
	Succeeded []uuid.UUID           `json:"succeeded"`
	Failed    []bulkFailureResponse `json:"failed"`
}

// bulkApprove always answers 200 with a per-document report; partial
// failure is data, not an HTTP error.
func (h *Handler) bulkApprove(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	var req bulkApproveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if len(req.IDs) == 0 {
		http.Error(w, "ids are required", http.StatusBadRequest)
		return
	}

	result := h.svc.BulkApprove(r.Context(), actor, req.IDs)

	resp := bulkApproveResponse{Succeeded: result.Succeeded}
	for _, f := range result.Failed {
		resp.Failed = append(resp.Failed, bulkFailureResponse{ID: f.ID, Reason: f.Reason})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) listHistory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if _, err := h.svc.Get(r.Context(), id); err != nil {
		httperr.Write(w, err)
		return
	}

	entries, err := h.history.List(r.Context(), id)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toHistoryList(entries))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
