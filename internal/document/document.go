package document

import (
	"time"

	"github.com/google/uuid"
)

// Type distinguishes the two document kinds. They share a shape but run
// different state sets.
type Type string

const (
	TypeInvoice       Type = "invoice"
	TypePurchaseOrder Type = "purchase_order"
)

// Status represents the lifecycle state of a document.
type Status string

const (
	StatusDraft             Status = "draft"
	StatusSubmitted         Status = "submitted"
	StatusApproved          Status = "approved"
	StatusRejected          Status = "rejected"
	StatusSent              Status = "sent"
	StatusOrdered           Status = "ordered"
	StatusPartiallyReceived Status = "partially_received"
	StatusReceived          Status = "received"
	StatusPaid              Status = "paid"
	StatusCancelled         Status = "cancelled"
)

// LineItem is one ordered line of a document. Amounts are cents; the tax
// amount is supplied per line, never computed here.
type LineItem struct {
	ID          uuid.UUID
	Position    int
	Description string
	Quantity    int64
	UnitAmount  int64
	TaxAmount   int64
}

// Document is an Invoice or PurchaseOrder aggregate.
//
// PaidAmount is always the sum of the non-deleted payment records for the
// document; it is recomputed inside every payment transaction and never
// incremented independently.
type Document struct {
	ID             uuid.UUID
	OrgID          uuid.UUID
	Type           Type
	Number         string
	CounterpartyID uuid.UUID // customer for invoices, supplier for purchase orders
	Status         Status

	Subtotal    int64 // cents
	TaxAmount   int64
	TotalAmount int64 // invariant: Subtotal + TaxAmount
	PaidAmount  int64

	Items []LineItem

	// Version backs the optimistic check on draft updates.
	Version int

	CreatedBy      uuid.UUID
	CreatedAt      time.Time
	SubmittedBy    *uuid.UUID
	SubmittedAt    *time.Time
	ApprovedBy     *uuid.UUID
	ApprovedAt     *time.Time
	RejectedBy     *uuid.UUID
	RejectedAt     *time.Time
	RejectedReason string
	SentBy         *uuid.UUID
	SentAt         *time.Time
	PaidAt         *time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
}

// ComputeTotals recomputes subtotal, tax and total from the line items.
// Called on every draft edit so the header never drifts from the lines.
func (d *Document) ComputeTotals() {
	var subtotal, tax int64

	for _, item := range d.Items {
		subtotal += item.Quantity * item.UnitAmount
		tax += item.TaxAmount
	}

	d.Subtotal = subtotal
	d.TaxAmount = tax
	d.TotalAmount = subtotal + tax
}

// Editable reports whether header fields and line items may be changed.
// Rejected documents return to a draft-equivalent editable state.
func (d *Document) Editable() bool {
	return d.Status == StatusDraft || d.Status == StatusRejected
}

// SendableStatus is the status at which a document of the given type
// becomes eligible for payment application.
func SendableStatus(t Type) Status {
	if t == TypePurchaseOrder {
		return StatusReceived
	}

	return StatusSent
}

// PaymentEligible reports whether payments may be applied to the document
// in its current state.
func (d *Document) PaymentEligible() bool {
	return d.Status == SendableStatus(d.Type)
}
