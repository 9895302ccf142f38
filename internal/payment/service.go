package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/docledger/docledger/internal/authority"
	"github.com/docledger/docledger/internal/document"
	"github.com/docledger/docledger/internal/event"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=payment
type Repository interface {
	GetPayment(ctx context.Context, id uuid.UUID) (*Payment, error)
	ListPayments(ctx context.Context, documentID uuid.UUID) ([]*Payment, error)

	Begin(ctx context.Context, documentID uuid.UUID) (Tx, error)
}

// Tx is one transaction scoped to a single document's payment set. Begin
// locks the document row, so racing payment entry and removal serialize.
type Tx interface {
	Document() *document.Document
	FindPayment(ctx context.Context, id uuid.UUID) (*Payment, error)
	FindByKey(ctx context.Context, key string) (*Payment, error)
	InsertPayment(ctx context.Context, p *Payment) error
	SoftDeletePayment(ctx context.Context, id uuid.UUID) error
	SumPayments(ctx context.Context) (int64, error)
	UpdateDocumentPayment(ctx context.Context, paidAmount int64, status document.Status, paidAt *time.Time) error
	AppendHistory(ctx context.Context, action string, actorID uuid.UUID, notes string) error
	Commit() error
	Rollback() error
}

// Service is the reconciliation engine: it owns every mutation of a
// document's paid amount, and always derives that amount from the full
// set of non-deleted payment records rather than incrementing a total.
type Service struct {
	repo   Repository
	events event.Dispatcher
}

func NewService(repo Repository, events event.Dispatcher) *Service {
	return &Service{repo: repo, events: events}
}

type ApplyParams struct {
	DocumentID     uuid.UUID
	Amount         int64
	Method         Method
	Date           time.Time
	Reference      string
	Notes          string
	IdempotencyKey string
}

// ApplyResult reports the recorded payment and the document status the
// reconciliation produced.
type ApplyResult struct {
	Payment   *Payment
	NewStatus document.Status
	// Replayed is set when an idempotency key matched an existing record
	// and nothing was written.
	Replayed bool
}

// ApplyPayment records a payment against a payment-eligible document,
// recomputes the paid amount from all non-deleted records, and moves the
// document to paid once the total is covered. Insert, recompute, status
// change and history entry commit atomically; a failure anywhere aborts
// them all.
func (s *Service) ApplyPayment(ctx context.Context, actor authority.Actor, params ApplyParams) (*ApplyResult, error) {
	if params.Amount <= 0 {
		return nil, &document.ValidationError{Field: "amount", Reason: "must be positive"}
	}

	if !params.Method.Valid() {
		return nil, &document.ValidationError{Field: "method", Reason: "unknown payment method"}
	}

	tx, err := s.repo.Begin(ctx, params.DocumentID)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	doc := tx.Document()
	if !doc.PaymentEligible() {
		return nil, &document.InvalidTransitionError{
			DocType: doc.Type,
			Current: doc.Status,
			Action:  "apply_payment",
			Target:  document.StatusPaid,
		}
	}

	if params.IdempotencyKey != "" {
		existing, err := tx.FindByKey(ctx, params.IdempotencyKey)
		if err == nil {
			// Same submission seen before: hand back what was recorded
			// then, write nothing.
			return &ApplyResult{Payment: existing, NewStatus: doc.Status, Replayed: true}, nil
		}

		if !errors.Is(err, document.ErrNotFound) {
			return nil, err
		}
	}

	date := params.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	p := &Payment{
		DocumentID:     doc.ID,
		Amount:         params.Amount,
		Method:         params.Method,
		Date:           date,
		RecordedBy:     actor.ID,
		Reference:      params.Reference,
		Notes:          params.Notes,
		IdempotencyKey: params.IdempotencyKey,
	}

	if err := tx.InsertPayment(ctx, p); err != nil {
		return nil, err
	}

	paid, err := tx.SumPayments(ctx)
	if err != nil {
		return nil, err
	}

	newStatus := doc.Status

	var paidAt *time.Time

	if paid >= doc.TotalAmount {
		newStatus = document.StatusPaid
		now := time.Now().UTC()
		paidAt = &now
	}

	if err := tx.UpdateDocumentPayment(ctx, paid, newStatus, paidAt); err != nil {
		return nil, err
	}

	notes := fmt.Sprintf("payment of %d applied, paid %d of %d, status %s", params.Amount, paid, doc.TotalAmount, newStatus)
	if err := tx.AppendHistory(ctx, "apply_payment", actor.ID, notes); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit payment: %w", err)
	}

	doc.PaidAmount = paid
	doc.Status = newStatus
	doc.PaidAt = paidAt

	evType := event.TypePartiallyPaid
	if newStatus == document.StatusPaid {
		evType = event.TypePaid
	}

	s.events.Dispatch(ctx, event.Event{
		DocumentID: doc.ID,
		Type:       evType,
		Actor:      actor.ID,
		Metadata:   map[string]any{"amount": params.Amount, "paid_amount": paid},
		OccurredAt: time.Now().UTC(),
	})

	return &ApplyResult{Payment: p, NewStatus: newStatus}, nil
}

// RemovePayment soft-deletes a payment record and reconciles: the paid
// amount is recomputed from the remaining records, and a paid document
// whose total is no longer covered falls back to its payment-eligible
// state with paidAt cleared. Exactly the inverse of ApplyPayment, in one
// transaction.
func (s *Service) RemovePayment(ctx context.Context, actor authority.Actor, paymentID uuid.UUID) (document.Status, error) {
	p, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return "", err
	}

	tx, err := s.repo.Begin(ctx, p.DocumentID)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	doc := tx.Document()

	// Re-read under the lock; a racing removal loses here.
	if _, err := tx.FindPayment(ctx, paymentID); err != nil {
		return "", err
	}

	if err := tx.SoftDeletePayment(ctx, paymentID); err != nil {
		return "", err
	}

	paid, err := tx.SumPayments(ctx)
	if err != nil {
		return "", err
	}

	newStatus := doc.Status
	paidAt := doc.PaidAt
	reverted := false

	if doc.Status == document.StatusPaid && paid < doc.TotalAmount {
		newStatus = document.SendableStatus(doc.Type)
		paidAt = nil
		reverted = true
	}

	if err := tx.UpdateDocumentPayment(ctx, paid, newStatus, paidAt); err != nil {
		return "", err
	}

	notes := fmt.Sprintf("payment of %d removed, paid %d of %d, status %s", p.Amount, paid, doc.TotalAmount, newStatus)
	if err := tx.AppendHistory(ctx, "remove_payment", actor.ID, notes); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit payment removal: %w", err)
	}

	if reverted {
		s.events.Dispatch(ctx, event.Event{
			DocumentID: doc.ID,
			Type:       event.TypePartiallyPaid,
			Actor:      actor.ID,
			Metadata:   map[string]any{"paid_amount": paid},
			OccurredAt: time.Now().UTC(),
		})
	}

	return newStatus, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Payment, error) {
	return s.repo.GetPayment(ctx, id)
}

func (s *Service) List(ctx context.Context, documentID uuid.UUID) ([]*Payment, error) {
	return s.repo.ListPayments(ctx, documentID)
}
