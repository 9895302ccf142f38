package importer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/docledger/docledger/internal/authority"
	"github.com/docledger/docledger/internal/document"
	"github.com/docledger/docledger/internal/payment"
)

// documentNumber matches the references generated for documents, e.g.
// INV-000042 or PO-000007, anywhere inside a statement line.
var documentNumber = regexp.MustCompile(`\b(?:INV|PO)-\d{6}\b`)

type DocumentSource interface {
	GetByNumber(ctx context.Context, orgID uuid.UUID, number string) (*document.Document, error)
}

type PaymentApplier interface {
	ApplyPayment(ctx context.Context, actor authority.Actor, params payment.ApplyParams) (*payment.ApplyResult, error)
}

// Service matches parsed statement records to documents by number and
// records the matched ones as payments. Each record carries an
// idempotency key derived from its content, so re-uploading the same
// statement never double-pays anything.
type Service struct {
	parser   Parser
	docs     DocumentSource
	payments PaymentApplier
}

func NewService(parser Parser, docs DocumentSource, payments PaymentApplier) *Service {
	return &Service{parser: parser, docs: docs, payments: payments}
}

// RowResult is the outcome for one statement record.
type RowResult struct {
	Record         Record          `json:"record"`
	DocumentNumber string          `json:"document_number,omitempty"`
	PaymentID      string          `json:"payment_id,omitempty"`
	Status         document.Status `json:"status,omitempty"`
	Reason         string          `json:"reason,omitempty"`
}

// Report summarizes one statement import.
type Report struct {
	Applied   []RowResult `json:"applied"`
	Replayed  []RowResult `json:"replayed"`
	Unmatched []RowResult `json:"unmatched"`
	Failed    []RowResult `json:"failed"`
}

// Import parses the statement and applies every record that names a
// known document. Records without a recognizable document number are
// reported, not treated as errors; a statement usually carries plenty
// of unrelated movements.
func (s *Service) Import(ctx context.Context, actor authority.Actor, r io.Reader) (*Report, error) {
	records, err := s.parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse statement: %w", err)
	}

	report := new(Report)

	for _, rec := range records {
		s.applyRecord(ctx, actor, rec, report)
	}

	return report, nil
}

func (s *Service) applyRecord(ctx context.Context, actor authority.Actor, rec Record, report *Report) {
	number := documentNumber.FindString(rec.Reference)
	if number == "" {
		number = documentNumber.FindString(rec.Description)
	}

	if number == "" {
		report.Unmatched = append(report.Unmatched, RowResult{Record: rec, Reason: "no document number in reference"})
		return
	}

	doc, err := s.docs.GetByNumber(ctx, actor.OrgID, number)
	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			report.Unmatched = append(report.Unmatched, RowResult{Record: rec, DocumentNumber: number, Reason: "document not found"})
			return
		}

		report.Failed = append(report.Failed, RowResult{Record: rec, DocumentNumber: number, Reason: err.Error()})

		return
	}

	// Invoices are settled by money coming in, purchase orders by money
	// going out. A record moving the wrong way is someone else's.
	if want := expectedDirection(doc.Type); rec.Direction != want {
		report.Unmatched = append(report.Unmatched, RowResult{
			Record:         rec,
			DocumentNumber: number,
			Reason:         fmt.Sprintf("expected %s movement for %s", want, doc.Type),
		})

		return
	}

	res, err := s.payments.ApplyPayment(ctx, actor, payment.ApplyParams{
		DocumentID:     doc.ID,
		Amount:         rec.Amount,
		Method:         payment.MethodTransfer,
		Date:           rec.Date,
		Reference:      rec.Reference,
		Notes:          rec.Description,
		IdempotencyKey: recordKey(rec, number),
	})
	if err != nil {
		report.Failed = append(report.Failed, RowResult{Record: rec, DocumentNumber: number, Reason: err.Error()})
		return
	}

	row := RowResult{
		Record:         rec,
		DocumentNumber: number,
		PaymentID:      res.Payment.ID.String(),
		Status:         res.NewStatus,
	}

	if res.Replayed {
		report.Replayed = append(report.Replayed, row)
	} else {
		report.Applied = append(report.Applied, row)
	}
}

func expectedDirection(t document.Type) Direction {
	if t == document.TypePurchaseOrder {
		return DirectionDebit
	}

	return DirectionCredit
}

// recordKey fingerprints a statement record. Stable across uploads of
// the same file, distinct for genuinely different movements.
func recordKey(rec Record, number string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%s|%s|%s",
		rec.Date.Format("2006-01-02"), rec.Amount, rec.Direction, number, strings.TrimSpace(rec.Reference))

	return "stmt-" + hex.EncodeToString(h.Sum(nil))[:32]
}
