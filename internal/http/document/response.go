package document

import (
	"time"

	"github.com/google/uuid"

	"github.com/docledger/docledger/internal/document"
	"github.com/docledger/docledger/internal/history"
)

type lineItemResponse struct {
	ID          uuid.UUID `json:"id"`
	Position    int       `json:"position"`
	Description string    `json:"description"`
	Quantity    int64     `json:"quantity"`
	UnitAmount  int64     `json:"unit_amount"`
	TaxAmount   int64     `json:"tax_amount"`
}

type documentResponse struct {
	ID             uuid.UUID          `json:"id"`
	Type           document.Type      `json:"type"`
	Number         string             `json:"number"`
	CounterpartyID uuid.UUID          `json:"counterparty_id"`
	Status         document.Status    `json:"status"`
	Subtotal       int64              `json:"subtotal"`
	TaxAmount      int64              `json:"tax_amount"`
	TotalAmount    int64              `json:"total_amount"`
	PaidAmount     int64              `json:"paid_amount"`
	Items          []lineItemResponse `json:"items,omitempty"`
	Version        int                `json:"version"`
	CreatedBy      uuid.UUID          `json:"created_by"`
	CreatedAt      time.Time          `json:"created_at"`
	SubmittedAt    *time.Time         `json:"submitted_at,omitempty"`
	ApprovedAt     *time.Time         `json:"approved_at,omitempty"`
	RejectedAt     *time.Time         `json:"rejected_at,omitempty"`
	RejectedReason string             `json:"rejected_reason,omitempty"`
	SentAt         *time.Time         `json:"sent_at,omitempty"`
	PaidAt         *time.Time         `json:"paid_at,omitempty"`
	UpdatedAt      *time.Time         `json:"updated_at,omitempty"`
}

func toResponse(doc *document.Document) documentResponse {
	resp := documentResponse{
		ID:             doc.ID,
		Type:           doc.Type,
		Number:         doc.Number,
		CounterpartyID: doc.CounterpartyID,
		Status:         doc.Status,
		Subtotal:       doc.Subtotal,
		TaxAmount:      doc.TaxAmount,
		TotalAmount:    doc.TotalAmount,
		PaidAmount:     doc.PaidAmount,
		Version:        doc.Version,
		CreatedBy:      doc.CreatedBy,
		CreatedAt:      doc.CreatedAt,
		SubmittedAt:    doc.SubmittedAt,
		ApprovedAt:     doc.ApprovedAt,
		RejectedAt:     doc.RejectedAt,
		RejectedReason: doc.RejectedReason,
		SentAt:         doc.SentAt,
		PaidAt:         doc.PaidAt,
		UpdatedAt:      doc.UpdatedAt,
	}

	for _, item := range doc.Items {
		resp.Items = append(resp.Items, lineItemResponse{
			ID:          item.ID,
			Position:    item.Position,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitAmount:  item.UnitAmount,
			TaxAmount:   item.TaxAmount,
		})
	}

	return resp
}

func toResponseList(docs []*document.Document) []documentResponse {
	resp := make([]documentResponse, len(docs))
	for i, doc := range docs {
		resp[i] = toResponse(doc)
	}

	return resp
}

type historyResponse struct {
	ID        uuid.UUID `json:"id"`
	Action    string    `json:"action"`
	ActorID   uuid.UUID `json:"actor_id"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toHistoryList(entries []*history.Entry) []historyResponse {
	resp := make([]historyResponse, len(entries))
	for i, e := range entries {
		resp[i] = historyResponse{
			ID:        e.ID,
			Action:    e.Action,
			ActorID:   e.ActorID,
			Notes:     e.Notes,
			CreatedAt: e.CreatedAt,
		}
	}

	return resp
}
