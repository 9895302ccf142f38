package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/docledger/docledger/internal/document"
	"github.com/docledger/docledger/internal/payment"
)

const pgUniqueViolation = "23505"

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

const selectPaymentColumns = `
	p.id, p.document_id, p.amount, p.method, p.paid_on, p.recorded_by,
	p.reference, p.notes, p.idempotency_key, p.created_at, p.deleted_at
`

func scanPayment(s scanner) (*payment.Payment, error) {
	var p payment.Payment

	var methodStr string

	var key sql.NullString

	if err := s.Scan(
		&p.ID, &p.DocumentID, &p.Amount, &methodStr, &p.Date, &p.RecordedBy,
		&p.Reference, &p.Notes, &key, &p.CreatedAt, &p.DeletedAt,
	); err != nil {
		return nil, err
	}

	p.Method = payment.Method(methodStr)
	p.IdempotencyKey = key.String

	return &p, nil
}

func (s *Store) GetPayment(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	query := `SELECT ` + selectPaymentColumns + `
		FROM payments p
		WHERE p.id = $1 AND p.deleted_at IS NULL`

	p, err := scanPayment(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, document.ErrNotFound
		}

		return nil, fmt.Errorf("getting payment: %w", err)
	}

	return p, nil
}

func (s *Store) ListPayments(ctx context.Context, documentID uuid.UUID) ([]*payment.Payment, error) {
	query := `SELECT ` + selectPaymentColumns + `
		FROM payments p
		WHERE p.document_id = $1 AND p.deleted_at IS NULL
		ORDER BY p.paid_on ASC, p.created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}
	defer rows.Close()

	var payments []*payment.Payment

	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning payment: %w", err)
		}

		payments = append(payments, p)
	}

	return payments, rows.Err()
}

type paymentTx struct {
	tx  *sql.Tx
	doc *document.Document
}

const selectDocumentColumns = `
	d.id, d.org_id, d.doc_type, d.status, d.total_amount, d.paid_amount, d.paid_at
`

// Begin opens a transaction and locks the owning document row, so
// concurrent payment entry and removal against one document serialize.
func (s *Store) Begin(ctx context.Context, documentID uuid.UUID) (payment.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning payment tx: %w", err)
	}

	query := `SELECT ` + selectDocumentColumns + `
		FROM documents d
		WHERE d.id = $1 AND d.deleted_at IS NULL
		FOR UPDATE`

	var doc document.Document

	var typeStr, statusStr string

	err = tx.QueryRowContext(ctx, query, documentID).Scan(
		&doc.ID, &doc.OrgID, &typeStr, &statusStr, &doc.TotalAmount, &doc.PaidAmount, &doc.PaidAt,
	)
	if err != nil {
		tx.Rollback()

		if errors.Is(err, sql.ErrNoRows) {
			return nil, document.ErrNotFound
		}

		return nil, fmt.Errorf("locking document: %w", err)
	}

	doc.Type = document.Type(typeStr)
	doc.Status = document.Status(statusStr)

	return &paymentTx{tx: tx, doc: &doc}, nil
}

func (t *paymentTx) Document() *document.Document { return t.doc }
func (t *paymentTx) Commit() error                { return t.tx.Commit() }
func (t *paymentTx) Rollback() error              { return t.tx.Rollback() }

func (t *paymentTx) FindPayment(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	query := `SELECT ` + selectPaymentColumns + `
		FROM payments p
		WHERE p.id = $1 AND p.document_id = $2 AND p.deleted_at IS NULL`

	p, err := scanPayment(t.tx.QueryRowContext(ctx, query, id, t.doc.ID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, document.ErrNotFound
		}

		return nil, fmt.Errorf("finding payment: %w", err)
	}

	return p, nil
}

func (t *paymentTx) FindByKey(ctx context.Context, key string) (*payment.Payment, error) {
	query := `SELECT ` + selectPaymentColumns + `
		FROM payments p
		WHERE p.document_id = $1 AND p.idempotency_key = $2 AND p.deleted_at IS NULL`

	p, err := scanPayment(t.tx.QueryRowContext(ctx, query, t.doc.ID, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, document.ErrNotFound
		}

		return nil, fmt.Errorf("finding payment by key: %w", err)
	}

	return p, nil
}

func (t *paymentTx) InsertPayment(ctx context.Context, p *payment.Payment) error {
	query := `
		INSERT INTO payments (document_id, amount, method, paid_on, recorded_by, reference, notes, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NOW())
		RETURNING id, created_at
	`

	err := t.tx.QueryRowContext(ctx, query,
		p.DocumentID, p.Amount, p.Method, p.Date, p.RecordedBy, p.Reference, p.Notes, p.IdempotencyKey,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		// The partial unique index on (document_id, idempotency_key)
		// catches a duplicate that raced past the in-tx lookup.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return document.ErrConflict
		}

		return fmt.Errorf("inserting payment: %w", err)
	}

	return nil
}

func (t *paymentTx) SoftDeletePayment(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE payments
		SET deleted_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	if _, err := t.tx.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("deleting payment: %w", err)
	}

	return nil
}

// SumPayments recomputes the paid amount from the full set of non-deleted
// records. Always a fresh aggregate, never a running total.
func (t *paymentTx) SumPayments(ctx context.Context) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM payments
		WHERE document_id = $1 AND deleted_at IS NULL
	`

	var sum int64
	if err := t.tx.QueryRowContext(ctx, query, t.doc.ID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("summing payments: %w", err)
	}

	return sum, nil
}

func (t *paymentTx) UpdateDocumentPayment(ctx context.Context, paidAmount int64, status document.Status, paidAt *time.Time) error {
	query := `
		UPDATE documents
		SET paid_amount = $1, status = $2, paid_at = $3, version = version + 1, updated_at = NOW()
		WHERE id = $4 AND deleted_at IS NULL
	`

	if _, err := t.tx.ExecContext(ctx, query, paidAmount, status, paidAt, t.doc.ID); err != nil {
		return fmt.Errorf("updating document payment state: %w", err)
	}

	return nil
}

func (t *paymentTx) AppendHistory(ctx context.Context, action string, actorID uuid.UUID, notes string) error {
	query := `
		INSERT INTO history_entries (document_id, action, actor_id, notes, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`

	if _, err := t.tx.ExecContext(ctx, query, t.doc.ID, action, actorID, notes); err != nil {
		return fmt.Errorf("appending history: %w", err)
	}

	return nil
}
