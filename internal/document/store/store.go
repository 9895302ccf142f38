package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/docledger/docledger/internal/document"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectDocumentColumns = `
	d.id, d.org_id, d.doc_type, d.number, d.counterparty_id, d.status,
	d.subtotal, d.tax_amount, d.total_amount, d.paid_amount, d.version,
	d.created_by, d.created_at, d.submitted_by, d.submitted_at,
	d.approved_by, d.approved_at, d.rejected_by, d.rejected_at, d.rejected_reason,
	d.sent_by, d.sent_at, d.paid_at, d.updated_at, d.deleted_at
`

// scanDocument reads a document row in selectDocumentColumns order.
func scanDocument(s scanner) (*document.Document, error) {
	var doc document.Document

	var typeStr, statusStr string

	var rejectedReason sql.NullString

	if err := s.Scan(
		&doc.ID, &doc.OrgID, &typeStr, &doc.Number, &doc.CounterpartyID, &statusStr,
		&doc.Subtotal, &doc.TaxAmount, &doc.TotalAmount, &doc.PaidAmount, &doc.Version,
		&doc.CreatedBy, &doc.CreatedAt, &doc.SubmittedBy, &doc.SubmittedAt,
		&doc.ApprovedBy, &doc.ApprovedAt, &doc.RejectedBy, &doc.RejectedAt, &rejectedReason,
		&doc.SentBy, &doc.SentAt, &doc.PaidAt, &doc.UpdatedAt, &doc.DeletedAt,
	); err != nil {
		return nil, err
	}

	doc.Type = document.Type(typeStr)
	doc.Status = document.Status(statusStr)
	doc.RejectedReason = rejectedReason.String

	return &doc, nil
}

func numberPrefix(t document.Type) string {
	if t == document.TypePurchaseOrder {
		return "PO"
	}

	return "INV"
}

// CreateDocument inserts the document, its line items and the creation
// history entry in one transaction. The human-readable number comes from
// an atomic per-org counter upsert, so concurrent creates never collide.
func (s *Store) CreateDocument(ctx context.Context, doc *document.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning create tx: %w", err)
	}
	defer tx.Rollback()

	var seq int64

	counterQuery := `
		INSERT INTO document_numbers (org_id, doc_type, n)
		VALUES ($1, $2, 1)
		ON CONFLICT (org_id, doc_type) DO UPDATE SET n = document_numbers.n + 1
		RETURNING n
	`
	if err := tx.QueryRowContext(ctx, counterQuery, doc.OrgID, doc.Type).Scan(&seq); err != nil {
		return fmt.Errorf("allocating document number: %w", err)
	}

	doc.Number = fmt.Sprintf("%s-%06d", numberPrefix(doc.Type), seq)

	insertQuery := `
		INSERT INTO documents (org_id, doc_type, number, counterparty_id, status,
			subtotal, tax_amount, total_amount, paid_amount, version, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, 1, $9, NOW())
		RETURNING id, created_at
	`

	err = tx.QueryRowContext(ctx, insertQuery,
		doc.OrgID,
		doc.Type,
		doc.Number,
		doc.CounterpartyID,
		doc.Status,
		doc.Subtotal,
		doc.TaxAmount,
		doc.TotalAmount,
		doc.CreatedBy,
	).Scan(&doc.ID, &doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating document: %w", err)
	}

	doc.Version = 1

	if err := insertItems(ctx, tx, doc.ID, doc.Items); err != nil {
		return err
	}

	historyQuery := `
		INSERT INTO history_entries (document_id, action, actor_id, notes, created_at)
		VALUES ($1, 'created', $2, '', NOW())
	`
	if _, err := tx.ExecContext(ctx, historyQuery, doc.ID, doc.CreatedBy); err != nil {
		return fmt.Errorf("recording creation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing create: %w", err)
	}

	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertItems(ctx context.Context, tx execer, docID uuid.UUID, items []document.LineItem) error {
	query := `
		INSERT INTO line_items (document_id, position, description, quantity, unit_amount, tax_amount)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, item := range items {
		if _, err := tx.ExecContext(ctx, query,
			docID, item.Position, item.Description, item.Quantity, item.UnitAmount, item.TaxAmount,
		); err != nil {
			return fmt.Errorf("inserting line item: %w", err)
		}
	}

	return nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func loadItems(ctx context.Context, q querier, docID uuid.UUID) ([]document.LineItem, error) {
	query := `
		SELECT id, position, description, quantity, unit_amount, tax_amount
		FROM line_items
		WHERE document_id = $1
		ORDER BY position ASC
	`

	rows, err := q.QueryContext(ctx, query, docID)
	if err != nil {
		return nil, fmt.Errorf("loading line items: %w", err)
	}
	defer rows.Close()

	var items []document.LineItem

	for rows.Next() {
		var item document.LineItem
		if err := rows.Scan(&item.ID, &item.Position, &item.Description, &item.Quantity, &item.UnitAmount, &item.TaxAmount); err != nil {
			return nil, fmt.Errorf("scanning line item: %w", err)
		}

		items = append(items, item)
	}

	return items, rows.Err()
}

func (s *Store) GetDocument(ctx context.Context, id uuid.UUID) (*document.Document, error) {
	query := `SELECT ` + selectDocumentColumns + `
		FROM documents d
		WHERE d.id = $1 AND d.deleted_at IS NULL`

	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, document.ErrNotFound
		}

		return nil, fmt.Errorf("getting document: %w", err)
	}

	if doc.Items, err = loadItems(ctx, s.db, doc.ID); err != nil {
		return nil, err
	}

	return doc, nil
}

func (s *Store) GetDocumentByNumber(ctx context.Context, orgID uuid.UUID, number string) (*document.Document, error) {
	query := `SELECT ` + selectDocumentColumns + `
		FROM documents d
		WHERE d.org_id = $1 AND d.number = $2 AND d.deleted_at IS NULL`

	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, orgID, number))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, document.ErrNotFound
		}

		return nil, fmt.Errorf("getting document by number: %w", err)
	}

	if doc.Items, err = loadItems(ctx, s.db, doc.ID); err != nil {
		return nil, err
	}

	return doc, nil
}

// ListDocuments returns documents without their line items; listings feed
// read-only surfaces and never drive mutating decisions.
func (s *Store) ListDocuments(ctx context.Context, filter document.ListFilter) ([]*document.Document, error) {
	query := `SELECT ` + selectDocumentColumns + `
		FROM documents d
		WHERE d.deleted_at IS NULL AND d.org_id = $1`

	args := []any{filter.OrgID}
	argIdx := 2

	if filter.Type != nil {
		query += fmt.Sprintf(" AND d.doc_type = $%d", argIdx)

		args = append(args, *filter.Type)
		argIdx++
	}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND d.status = $%d", argIdx)

		args = append(args, *filter.Status)
		argIdx++
	}

	if filter.CounterpartyID != nil {
		query += fmt.Sprintf(" AND d.counterparty_id = $%d", argIdx)

		args = append(args, *filter.CounterpartyID)
		argIdx++
	}

	query += " ORDER BY d.created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []*document.Document

	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}

		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

type docTx struct {
	tx  *sql.Tx
	doc *document.Document
}

// Begin opens a transaction and re-reads the document row FOR UPDATE.
// Racing mutations on the same document serialize here; the loser
// observes the already-advanced state once the winner commits.
func (s *Store) Begin(ctx context.Context, id uuid.UUID) (document.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning document tx: %w", err)
	}

	query := `SELECT ` + selectDocumentColumns + `
		FROM documents d
		WHERE d.id = $1 AND d.deleted_at IS NULL
		FOR UPDATE`

	doc, err := scanDocument(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		tx.Rollback()

		if errors.Is(err, sql.ErrNoRows) {
			return nil, document.ErrNotFound
		}

		return nil, fmt.Errorf("locking document: %w", err)
	}

	return &docTx{tx: tx, doc: doc}, nil
}

func (t *docTx) Document() *document.Document { return t.doc }
func (t *docTx) Commit() error                { return t.tx.Commit() }
func (t *docTx) Rollback() error              { return t.tx.Rollback() }

// SetStatus writes the new status, the actor/timestamp pair the action
// reaches, and bumps the version.
func (t *docTx) SetStatus(ctx context.Context, action document.Action, status document.Status, stamp document.Stamp) error {
	query := `UPDATE documents SET status = $1, version = version + 1, updated_at = NOW()`
	args := []any{status}
	argIdx := 2

	stampPair := func(byCol, atCol string) {
		query += fmt.Sprintf(", %s = $%d, %s = $%d", byCol, argIdx, atCol, argIdx+1)

		args = append(args, stamp.Actor, stamp.At)
		argIdx += 2
	}

	switch action {
	case document.ActionSubmit:
		stampPair("submitted_by", "submitted_at")

		if stamp.AutoApproved {
			stampPair("approved_by", "approved_at")
		}
	case document.ActionApprove:
		stampPair("approved_by", "approved_at")
	case document.ActionReject:
		stampPair("rejected_by", "rejected_at")

		query += fmt.Sprintf(", rejected_reason = $%d", argIdx)
		args = append(args, stamp.Reason)
		argIdx++
	case document.ActionSend, document.ActionOrder:
		stampPair("sent_by", "sent_at")
	}

	query += fmt.Sprintf(" WHERE id = $%d AND deleted_at IS NULL", argIdx)
	args = append(args, t.doc.ID)

	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("updating status: %w", err)
	}

	return nil
}

// UpdateDraft rewrites the header totals and replaces the line items. The
// version predicate backs the optimistic check for callers editing a
// stale read.
func (t *docTx) UpdateDraft(ctx context.Context, doc *document.Document) error {
	query := `
		UPDATE documents
		SET counterparty_id = $1, subtotal = $2, tax_amount = $3, total_amount = $4,
			version = version + 1, updated_at = NOW()
		WHERE id = $5 AND version = $6 AND deleted_at IS NULL
	`

	res, err := t.tx.ExecContext(ctx, query,
		doc.CounterpartyID, doc.Subtotal, doc.TaxAmount, doc.TotalAmount,
		doc.ID, doc.Version,
	)
	if err != nil {
		return fmt.Errorf("updating draft: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating draft: %w", err)
	}

	if affected == 0 {
		return document.ErrConflict
	}

	if _, err := t.tx.ExecContext(ctx, `DELETE FROM line_items WHERE document_id = $1`, doc.ID); err != nil {
		return fmt.Errorf("clearing line items: %w", err)
	}

	if err := insertItems(ctx, t.tx, doc.ID, doc.Items); err != nil {
		return err
	}

	doc.Version++

	return nil
}

func (t *docTx) SoftDelete(ctx context.Context) error {
	query := `
		UPDATE documents
		SET deleted_at = NOW(), version = version + 1
		WHERE id = $1
	`

	if _, err := t.tx.ExecContext(ctx, query, t.doc.ID); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}

	return nil
}

func (t *docTx) AppendHistory(ctx context.Context, action string, actorID uuid.UUID, notes string) error {
	query := `
		INSERT INTO history_entries (document_id, action, actor_id, notes, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`

	if _, err := t.tx.ExecContext(ctx, query, t.doc.ID, action, actorID, notes); err != nil {
		return fmt.Errorf("appending history: %w", err)
	}

	return nil
}
