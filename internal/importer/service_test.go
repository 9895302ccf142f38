package importer_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docledger/docledger/internal/authority"
	"github.com/docledger/docledger/internal/document"
	"github.com/docledger/docledger/internal/importer"
	"github.com/docledger/docledger/internal/importer/bankcsv"
	"github.com/docledger/docledger/internal/payment"
)

type fakeDocs struct {
	byNumber map[string]*document.Document
}

func (f *fakeDocs) GetByNumber(_ context.Context, _ uuid.UUID, number string) (*document.Document, error) {
	doc, ok := f.byNumber[number]
	if !ok {
		return nil, document.ErrNotFound
	}

	return doc, nil
}

type appliedPayment struct {
	params payment.ApplyParams
	result *payment.ApplyResult
}

type fakePayments struct {
	seen    map[string]*payment.ApplyResult
	applied []appliedPayment
}

func (f *fakePayments) ApplyPayment(_ context.Context, _ authority.Actor, params payment.ApplyParams) (*payment.ApplyResult, error) {
	if res, ok := f.seen[params.IdempotencyKey]; ok {
		replay := *res
		replay.Replayed = true

		return &replay, nil
	}

	res := &payment.ApplyResult{
		Payment:   &payment.Payment{ID: uuid.New(), DocumentID: params.DocumentID, Amount: params.Amount},
		NewStatus: document.StatusSent,
	}

	if f.seen == nil {
		f.seen = make(map[string]*payment.ApplyResult)
	}

	f.seen[params.IdempotencyKey] = res
	f.applied = append(f.applied, appliedPayment{params: params, result: res})

	return res, nil
}

const statement = `Date;Reference;Description;Amount
15-01-2026;INV-000042;Customer payment;500,00
16-01-2026;;transfer PO-000007 settlement;-120,00
17-01-2026;INV-000042;Refund issued;-500,00
18-01-2026;INV-999999;Ghost;10,00
19-01-2026;;Coffee;-2,50
`

func newService(docs *fakeDocs, payments *fakePayments) *importer.Service {
	return importer.NewService(bankcsv.New(), docs, payments)
}

func TestImport_MatchesByNumber(t *testing.T) {
	invoice := &document.Document{ID: uuid.New(), Type: document.TypeInvoice, Status: document.StatusSent}
	po := &document.Document{ID: uuid.New(), Type: document.TypePurchaseOrder, Status: document.StatusReceived}

	docs := &fakeDocs{byNumber: map[string]*document.Document{
		"INV-000042": invoice,
		"PO-000007":  po,
	}}
	payments := &fakePayments{}
	svc := newService(docs, payments)

	actor := authority.Actor{ID: uuid.New(), Role: authority.RoleStaff, OrgID: uuid.New()}

	report, err := svc.Import(context.Background(), actor, strings.NewReader(statement))
	require.NoError(t, err)

	// Credit on the invoice and debit on the purchase order apply; the
	// refund moves the wrong way, the ghost number and the coffee do not
	// match anything.
	require.Len(t, report.Applied, 2)
	assert.Equal(t, invoice.ID, payments.applied[0].params.DocumentID)
	assert.Equal(t, int64(50000), payments.applied[0].params.Amount)
	assert.Equal(t, po.ID, payments.applied[1].params.DocumentID)
	assert.Equal(t, int64(12000), payments.applied[1].params.Amount)

	assert.Len(t, report.Unmatched, 3)
	assert.Empty(t, report.Failed)
	assert.Empty(t, report.Replayed)
}

func TestImport_ReuploadReplays(t *testing.T) {
	invoice := &document.Document{ID: uuid.New(), Type: document.TypeInvoice, Status: document.StatusSent}
	docs := &fakeDocs{byNumber: map[string]*document.Document{"INV-000042": invoice}}
	payments := &fakePayments{}
	svc := newService(docs, payments)

	actor := authority.Actor{ID: uuid.New(), Role: authority.RoleStaff, OrgID: uuid.New()}
	input := "Date;Reference;Description;Amount\n15-01-2026;INV-000042;Customer payment;500,00\n"

	first, err := svc.Import(context.Background(), actor, strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, first.Applied, 1)

	second, err := svc.Import(context.Background(), actor, strings.NewReader(input))
	require.NoError(t, err)

	assert.Empty(t, second.Applied)
	require.Len(t, second.Replayed, 1)
	assert.Equal(t, first.Applied[0].PaymentID, second.Replayed[0].PaymentID)

	// Only one payment was ever recorded.
	assert.Len(t, payments.applied, 1)
}
