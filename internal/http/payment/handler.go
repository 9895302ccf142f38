package payment

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/docledger/docledger/internal/document"
	"github.com/docledger/docledger/internal/http/httperr"
	"github.com/docledger/docledger/internal/http/middleware"
	"github.com/docledger/docledger/internal/payment"
)

type Handler struct {
	svc *payment.Service
}

func NewHandler(svc *payment.Service) *Handler {
	return &Handler{svc: svc}
}

// DocumentRoutes hangs the per-document payment endpoints under the
// documents resource.
func (h *Handler) DocumentRoutes(r chi.Router) {
	r.Post("/{id}/payments", h.apply)
	r.Get("/{id}/payments", h.list)
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/{paymentID}", h.get)
	r.Delete("/{paymentID}", h.remove)
}

type applyRequest struct {
	Amount         int64          `json:"amount"`
	Method         payment.Method `json:"method"`
	Date           *time.Time     `json:"date,omitempty"`
	Reference      string         `json:"reference,omitempty"`
	Notes          string         `json:"notes,omitempty"`
	IdempotencyKey string         `json:"idempotency_key,omitempty"`
}

type paymentResponse struct {
	ID         uuid.UUID      `json:"id"`
	DocumentID uuid.UUID      `json:"document_id"`
	Amount     int64          `json:"amount"`
	Method     payment.Method `json:"method"`
	Date       time.Time      `json:"date"`
	RecordedBy uuid.UUID      `json:"recorded_by"`
	Reference  string         `json:"reference,omitempty"`
	Notes      string         `json:"notes,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

type applyResponse struct {
	Payment        paymentResponse `json:"payment"`
	DocumentStatus document.Status `json:"document_status"`
	Replayed       bool            `json:"replayed,omitempty"`
}

func toResponse(p *payment.Payment) paymentResponse {
	return paymentResponse{
		ID:         p.ID,
		DocumentID: p.DocumentID,
		Amount:     p.Amount,
		Method:     p.Method,
		Date:       p.Date,
		RecordedBy: p.RecordedBy,
		Reference:  p.Reference,
		Notes:      p.Notes,
		CreatedAt:  p.CreatedAt,
	}
}

func (h *Handler) apply(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	documentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid document id", http.StatusBadRequest)
		return
	}

	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	params := payment.ApplyParams{
		DocumentID:     documentID,
		Amount:         req.Amount,
		Method:         req.Method,
		Reference:      req.Reference,
		Notes:          req.Notes,
		IdempotencyKey: req.IdempotencyKey,
	}
	if req.Date != nil {
		params.Date = *req.Date
	}

	res, err := h.svc.ApplyPayment(r.Context(), actor, params)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}

	writeJSON(w, status, applyResponse{
		Payment:        toResponse(res.Payment),
		DocumentStatus: res.NewStatus,
		Replayed:       res.Replayed,
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	documentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid document id", http.StatusBadRequest)
		return
	}

	payments, err := h.svc.List(r.Context(), documentID)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	resp := make([]paymentResponse, len(payments))
	for i, p := range payments {
		resp[i] = toResponse(p)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "paymentID"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	p, err := h.svc.Get(r.Context(), id)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(p))
}

type removeResponse struct {
	DocumentStatus document.Status `json:"document_status"`
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "paymentID"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	status, err := h.svc.RemovePayment(r.Context(), actor, id)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, removeResponse{DocumentStatus: status})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
