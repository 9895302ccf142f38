package document

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docledger/docledger/internal/authority"
	"github.com/docledger/docledger/internal/event"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=document
type Repository interface {
	CreateDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, id uuid.UUID) (*Document, error)
	GetDocumentByNumber(ctx context.Context, orgID uuid.UUID, number string) (*Document, error)
	ListDocuments(ctx context.Context, filter ListFilter) ([]*Document, error)

	Begin(ctx context.Context, id uuid.UUID) (Tx, error)
}

// Tx is one row-scoped transaction against a single document. Begin
// re-reads the row under a lock, so Document reflects current persisted
// state, not whatever the caller saw earlier.
type Tx interface {
	Document() *Document
	SetStatus(ctx context.Context, action Action, status Status, stamp Stamp) error
	UpdateDraft(ctx context.Context, doc *Document) error
	SoftDelete(ctx context.Context) error
	AppendHistory(ctx context.Context, action string, actorID uuid.UUID, notes string) error
	Commit() error
	Rollback() error
}

// ThresholdSource supplies per-organization approval thresholds.
type ThresholdSource interface {
	Thresholds(ctx context.Context, orgID uuid.UUID) (authority.Thresholds, error)
}

// Stamp carries the actor/timestamp pair written alongside a status
// change. AutoApproved marks a manager submit that also stamps the
// approval pair.
type Stamp struct {
	Actor        uuid.UUID
	At           time.Time
	Reason       string
	AutoApproved bool
}

type Service struct {
	repo   Repository
	orgs   ThresholdSource
	events event.Dispatcher
}

func NewService(repo Repository, orgs ThresholdSource, events event.Dispatcher) *Service {
	return &Service{repo: repo, orgs: orgs, events: events}
}

type ItemParams struct {
	Description string
	Quantity    int64
	UnitAmount  int64
	TaxAmount   int64
}

type CreateParams struct {
	Type           Type
	CounterpartyID uuid.UUID
	Items          []ItemParams
}

type UpdateDraftParams struct {
	CounterpartyID *uuid.UUID
	Items          []ItemParams
	// Version is the version the caller last read. A mismatch means the
	// document changed underneath them and yields ErrConflict.
	Version int
}

type ListFilter struct {
	OrgID          uuid.UUID
	Type           *Type
	Status         *Status
	CounterpartyID *uuid.UUID
}

func validateItems(items []ItemParams) error {
	if len(items) == 0 {
		return &ValidationError{Field: "items", Reason: "at least one line item is required"}
	}

	for i, item := range items {
		if strings.TrimSpace(item.Description) == "" {
			return &ValidationError{Field: fmt.Sprintf("items[%d].description", i), Reason: "must not be empty"}
		}

		if item.Quantity <= 0 {
			return &ValidationError{Field: fmt.Sprintf("items[%d].quantity", i), Reason: "must be positive"}
		}

		if item.UnitAmount < 0 || item.TaxAmount < 0 {
			return &ValidationError{Field: fmt.Sprintf("items[%d]", i), Reason: "amounts must not be negative"}
		}
	}

	return nil
}

func toLineItems(items []ItemParams) []LineItem {
	out := make([]LineItem, len(items))
	for i, item := range items {
		out[i] = LineItem{
			Position:    i,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitAmount:  item.UnitAmount,
			TaxAmount:   item.TaxAmount,
		}
	}

	return out
}

// Create opens a new draft document for the actor's organization. The
// store assigns the human-readable number and writes the creation history
// entry in the same transaction.
func (s *Service) Create(ctx context.Context, actor authority.Actor, params CreateParams) (*Document, error) {
	if params.Type != TypeInvoice && params.Type != TypePurchaseOrder {
		return nil, &ValidationError{Field: "type", Reason: "must be invoice or purchase_order"}
	}

	if params.CounterpartyID == uuid.Nil {
		return nil, &ValidationError{Field: "counterparty_id", Reason: "is required"}
	}

	if err := validateItems(params.Items); err != nil {
		return nil, err
	}

	doc := &Document{
		OrgID:          actor.OrgID,
		Type:           params.Type,
		CounterpartyID: params.CounterpartyID,
		Status:         StatusDraft,
		Items:          toLineItems(params.Items),
		CreatedBy:      actor.ID,
	}
	doc.ComputeTotals()

	if err := s.repo.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}

	return doc, nil
}

// UpdateDraft replaces header fields and line items of an editable
// document and recomputes the totals. Only draft and rejected documents
// are editable.
func (s *Service) UpdateDraft(ctx context.Context, actor authority.Actor, id uuid.UUID, params UpdateDraftParams) (*Document, error) {
	if err := validateItems(params.Items); err != nil {
		return nil, err
	}

	tx, err := s.repo.Begin(ctx, id)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	doc := tx.Document()
	if !doc.Editable() {
		return nil, &InvalidTransitionError{DocType: doc.Type, Current: doc.Status, Action: "update_draft", Target: doc.Status}
	}

	if doc.Version != params.Version {
		return nil, ErrConflict
	}

	if params.CounterpartyID != nil {
		doc.CounterpartyID = *params.CounterpartyID
	}

	doc.Items = toLineItems(params.Items)
	doc.ComputeTotals()

	if err := tx.UpdateDraft(ctx, doc); err != nil {
		return nil, err
	}

	if err := tx.AppendHistory(ctx, "updated", actor.ID, ""); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit draft update: %w", err)
	}

	return doc, nil
}

// Delete soft-deletes a document. Allowed only while the document is
// still a draft.
func (s *Service) Delete(ctx context.Context, actor authority.Actor, id uuid.UUID) error {
	tx, err := s.repo.Begin(ctx, id)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	doc := tx.Document()
	if doc.Status != StatusDraft {
		return &InvalidTransitionError{DocType: doc.Type, Current: doc.Status, Action: "delete"}
	}

	if err := tx.SoftDelete(ctx); err != nil {
		return err
	}

	if err := tx.AppendHistory(ctx, "deleted", actor.ID, ""); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}

	return nil
}

// Submit moves an editable document into the approval flow. A
// manager-or-above submitter who is authorized for the document amount
// skips the submitted state and lands directly on approved.
func (s *Service) Submit(ctx context.Context, actor authority.Actor, id uuid.UUID) (*Document, error) {
	return s.apply(ctx, actor, id, ActionSubmit, "")
}

func (s *Service) Approve(ctx context.Context, actor authority.Actor, id uuid.UUID) (*Document, error) {
	return s.apply(ctx, actor, id, ActionApprove, "")
}

func (s *Service) Reject(ctx context.Context, actor authority.Actor, id uuid.UUID, reason string) (*Document, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, &ValidationError{Field: "reason", Reason: "is required when rejecting"}
	}

	return s.apply(ctx, actor, id, ActionReject, reason)
}

func (s *Service) Send(ctx context.Context, actor authority.Actor, id uuid.UUID) (*Document, error) {
	return s.apply(ctx, actor, id, ActionSend, "")
}

func (s *Service) Order(ctx context.Context, actor authority.Actor, id uuid.UUID) (*Document, error) {
	return s.apply(ctx, actor, id, ActionOrder, "")
}

func (s *Service) ReceivePartial(ctx context.Context, actor authority.Actor, id uuid.UUID) (*Document, error) {
	return s.apply(ctx, actor, id, ActionReceivePartial, "")
}

func (s *Service) Receive(ctx context.Context, actor authority.Actor, id uuid.UUID) (*Document, error) {
	return s.apply(ctx, actor, id, ActionReceive, "")
}

func (s *Service) Cancel(ctx context.Context, actor authority.Actor, id uuid.UUID) (*Document, error) {
	return s.apply(ctx, actor, id, ActionCancel, "")
}

// apply is the single authoritative transition path: every lifecycle
// action funnels through it. One short transaction re-reads the persisted
// status under a row lock, validates the transition and the actor's
// authority, writes the new status with its actor/timestamp stamp and the
// history entry, and commits. The lifecycle event is dispatched only
// after the commit.
func (s *Service) apply(ctx context.Context, actor authority.Actor, id uuid.UUID, action Action, reason string) (*Document, error) {
	tx, err := s.repo.Begin(ctx, id)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	doc := tx.Document()

	next, err := Next(doc.Type, doc.Status, action)
	if err != nil {
		return nil, err
	}

	if action == ActionCancel && doc.PaidAmount > 0 {
		return nil, &InvalidTransitionError{DocType: doc.Type, Current: doc.Status, Action: action, Target: StatusCancelled}
	}

	stamp := Stamp{Actor: actor.ID, At: time.Now().UTC(), Reason: reason}
	notes := reason

	if action == ActionSubmit || AuthorityGated(action) {
		thresholds, err := s.orgs.Thresholds(ctx, doc.OrgID)
		if err != nil {
			return nil, fmt.Errorf("resolving thresholds: %w", err)
		}

		decision := authority.Resolve(actor.Role, doc.TotalAmount, thresholds)

		if AuthorityGated(action) && !decision.Authorized {
			return nil, &AuthorizationError{Role: actor.Role, Required: decision.Required}
		}

		if action == ActionSubmit && decision.Authorized && actor.Role.AtLeast(authority.RoleManager) {
			next = StatusApproved
			stamp.AutoApproved = true
			notes = "auto-approved on submit"
		}
	}

	if err := tx.SetStatus(ctx, action, next, stamp); err != nil {
		return nil, err
	}

	if err := tx.AppendHistory(ctx, string(action), actor.ID, notes); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit %s: %w", action, err)
	}

	applyStamp(doc, action, next, stamp)

	if evType, ok := eventFor(next, action); ok {
		s.events.Dispatch(ctx, event.Event{
			DocumentID: doc.ID,
			Type:       evType,
			Actor:      actor.ID,
			OccurredAt: stamp.At,
		})
	}

	return doc, nil
}

// applyStamp mirrors onto the in-memory copy what the store just
// persisted, so callers get the post-transition document back.
func applyStamp(doc *Document, action Action, next Status, stamp Stamp) {
	doc.Status = next
	doc.Version++

	at := stamp.At

	switch action {
	case ActionSubmit:
		doc.SubmittedBy = &stamp.Actor
		doc.SubmittedAt = &at

		if stamp.AutoApproved {
			doc.ApprovedBy = &stamp.Actor
			doc.ApprovedAt = &at
		}
	case ActionApprove:
		doc.ApprovedBy = &stamp.Actor
		doc.ApprovedAt = &at
	case ActionReject:
		doc.RejectedBy = &stamp.Actor
		doc.RejectedAt = &at
		doc.RejectedReason = stamp.Reason
	case ActionSend, ActionOrder:
		doc.SentBy = &stamp.Actor
		doc.SentAt = &at
	}
}

// eventFor maps a committed transition to the notification event type.
// Purchase-order receipt and cancellation are not part of the dispatcher's
// event set.
func eventFor(next Status, action Action) (event.Type, bool) {
	switch {
	case next == StatusApproved:
		return event.TypeApproved, true
	case next == StatusSubmitted:
		return event.TypeSubmitted, true
	case next == StatusRejected:
		return event.TypeRejected, true
	case action == ActionSend:
		return event.TypeSent, true
	default:
		return "", false
	}
}

type BulkFailure struct {
	ID     uuid.UUID
	Reason string
}

type BulkResult struct {
	Succeeded []uuid.UUID
	Failed    []BulkFailure
}

// BulkApprove applies the approve transition to each document
// independently, one short transaction per id. A failure on one document
// never rolls back or blocks the others; the only record of partial
// failure is the returned report.
func (s *Service) BulkApprove(ctx context.Context, actor authority.Actor, ids []uuid.UUID) BulkResult {
	var result BulkResult

	for _, id := range ids {
		if _, err := s.Approve(ctx, actor, id); err != nil {
			result.Failed = append(result.Failed, BulkFailure{ID: id, Reason: err.Error()})
			continue
		}

		result.Succeeded = append(result.Succeeded, id)
	}

	return result
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Document, error) {
	return s.repo.GetDocument(ctx, id)
}

func (s *Service) GetByNumber(ctx context.Context, orgID uuid.UUID, number string) (*Document, error) {
	return s.repo.GetDocumentByNumber(ctx, orgID, number)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Document, error) {
	return s.repo.ListDocuments(ctx, filter)
}
