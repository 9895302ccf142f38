package payment_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/docledger/docledger/internal/authority"
	"github.com/docledger/docledger/internal/document"
	"github.com/docledger/docledger/internal/event"
	"github.com/docledger/docledger/internal/payment"
)

type captureDispatcher struct {
	mu     sync.Mutex
	events []event.Event
}

func (d *captureDispatcher) Dispatch(_ context.Context, ev event.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, ev)
}

func (d *captureDispatcher) last() (event.Event, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.events) == 0 {
		return event.Event{}, false
	}

	return d.events[len(d.events)-1], true
}

func newActor() authority.Actor {
	return authority.Actor{ID: uuid.New(), Role: authority.RoleStaff, OrgID: uuid.New()}
}

func sentInvoice(total, paid int64) *document.Document {
	return &document.Document{
		ID:          uuid.New(),
		Type:        document.TypeInvoice,
		Status:      document.StatusSent,
		TotalAmount: total,
		PaidAmount:  paid,
	}
}

func expectTx(repo *payment.MockRepository, tx *payment.MockTx, doc *document.Document) {
	repo.EXPECT().Begin(gomock.Any(), doc.ID).Return(tx, nil)
	tx.EXPECT().Document().Return(doc).AnyTimes()
	tx.EXPECT().Rollback().Return(nil).AnyTimes()
}

// A 1100.00 invoice paid in two installments: the first leaves it sent
// with the partial sum recorded, the second covers the total and flips
// it to paid.
func TestService_ApplyPayment_Installments(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := payment.NewMockRepository(ctrl)
	events := &captureDispatcher{}
	svc := payment.NewService(repo, events)

	actor := newActor()
	doc := sentInvoice(110000, 0)

	// First installment: 500.00 of 1100.00.
	tx := payment.NewMockTx(ctrl)
	expectTx(repo, tx, doc)
	tx.EXPECT().InsertPayment(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, p *payment.Payment) error {
			p.ID = uuid.New()
			return nil
		})
	tx.EXPECT().SumPayments(gomock.Any()).Return(int64(50000), nil)
	tx.EXPECT().UpdateDocumentPayment(gomock.Any(), int64(50000), document.StatusSent, nil).Return(nil)
	tx.EXPECT().AppendHistory(gomock.Any(), "apply_payment", actor.ID, gomock.Any()).Return(nil)
	tx.EXPECT().Commit().Return(nil)

	res, err := svc.ApplyPayment(context.Background(), actor, payment.ApplyParams{
		DocumentID: doc.ID,
		Amount:     50000,
		Method:     payment.MethodTransfer,
	})
	require.NoError(t, err)
	assert.Equal(t, document.StatusSent, res.NewStatus)
	assert.False(t, res.Replayed)
	assert.Equal(t, int64(50000), doc.PaidAmount)
	assert.Nil(t, doc.PaidAt)

	ev, ok := events.last()
	require.True(t, ok)
	assert.Equal(t, event.TypePartiallyPaid, ev.Type)
	assert.Equal(t, int64(50000), ev.Metadata["paid_amount"])

	// Second installment: 600.00 covers the remainder.
	tx2 := payment.NewMockTx(ctrl)
	expectTx(repo, tx2, doc)
	tx2.EXPECT().InsertPayment(gomock.Any(), gomock.Any()).Return(nil)
	tx2.EXPECT().SumPayments(gomock.Any()).Return(int64(110000), nil)
	tx2.EXPECT().UpdateDocumentPayment(gomock.Any(), int64(110000), document.StatusPaid, gomock.Not(gomock.Nil())).Return(nil)
	tx2.EXPECT().AppendHistory(gomock.Any(), "apply_payment", actor.ID, gomock.Any()).Return(nil)
	tx2.EXPECT().Commit().Return(nil)

	res, err = svc.ApplyPayment(context.Background(), actor, payment.ApplyParams{
		DocumentID: doc.ID,
		Amount:     60000,
		Method:     payment.MethodTransfer,
	})
	require.NoError(t, err)
	assert.Equal(t, document.StatusPaid, res.NewStatus)
	assert.Equal(t, int64(110000), doc.PaidAmount)
	require.NotNil(t, doc.PaidAt)

	ev, ok = events.last()
	require.True(t, ok)
	assert.Equal(t, event.TypePaid, ev.Type)
}

func TestService_ApplyPayment_Invalid(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := payment.NewMockRepository(ctrl)
	svc := payment.NewService(repo, &captureDispatcher{})

	actor := newActor()

	tests := []struct {
		name   string
		params payment.ApplyParams
		field  string
	}{
		{
			name:   "ZeroAmount",
			params: payment.ApplyParams{DocumentID: uuid.New(), Amount: 0, Method: payment.MethodCash},
			field:  "amount",
		},
		{
			name:   "NegativeAmount",
			params: payment.ApplyParams{DocumentID: uuid.New(), Amount: -100, Method: payment.MethodCash},
			field:  "amount",
		},
		{
			name:   "UnknownMethod",
			params: payment.ApplyParams{DocumentID: uuid.New(), Amount: 100, Method: payment.Method("barter")},
			field:  "method",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ApplyPayment(context.Background(), actor, tt.params)

			var valErr *document.ValidationError
			require.ErrorAs(t, err, &valErr)
			assert.Equal(t, tt.field, valErr.Field)
		})
	}
}

func TestService_ApplyPayment_IneligibleStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := payment.NewMockRepository(ctrl)
	svc := payment.NewService(repo, &captureDispatcher{})

	actor := newActor()

	for _, status := range []document.Status{
		document.StatusDraft,
		document.StatusSubmitted,
		document.StatusApproved,
		document.StatusPaid,
		document.StatusCancelled,
	} {
		doc := sentInvoice(110000, 0)
		doc.Status = status

		tx := payment.NewMockTx(ctrl)
		expectTx(repo, tx, doc)

		_, err := svc.ApplyPayment(context.Background(), actor, payment.ApplyParams{
			DocumentID: doc.ID,
			Amount:     50000,
			Method:     payment.MethodCard,
		})

		var transErr *document.InvalidTransitionError
		require.ErrorAs(t, err, &transErr, "status %s", status)
		assert.Equal(t, status, transErr.Current)
	}
}

func TestService_ApplyPayment_IdempotencyReplay(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := payment.NewMockRepository(ctrl)
	events := &captureDispatcher{}
	svc := payment.NewService(repo, events)

	actor := newActor()
	doc := sentInvoice(110000, 50000)

	existing := &payment.Payment{
		ID:             uuid.New(),
		DocumentID:     doc.ID,
		Amount:         50000,
		Method:         payment.MethodTransfer,
		IdempotencyKey: "req-42",
	}

	tx := payment.NewMockTx(ctrl)
	expectTx(repo, tx, doc)
	tx.EXPECT().FindByKey(gomock.Any(), "req-42").Return(existing, nil)

	res, err := svc.ApplyPayment(context.Background(), actor, payment.ApplyParams{
		DocumentID:     doc.ID,
		Amount:         50000,
		Method:         payment.MethodTransfer,
		IdempotencyKey: "req-42",
	})
	require.NoError(t, err)

	assert.True(t, res.Replayed)
	assert.Equal(t, existing.ID, res.Payment.ID)
	assert.Equal(t, document.StatusSent, res.NewStatus)

	// Nothing written, nothing announced.
	_, ok := events.last()
	assert.False(t, ok)
}

func TestService_RemovePayment_RevertsPaid(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := payment.NewMockRepository(ctrl)
	events := &captureDispatcher{}
	svc := payment.NewService(repo, events)

	actor := newActor()
	doc := sentInvoice(110000, 110000)
	doc.Status = document.StatusPaid
	doc.PaidAt = new(time.Now().UTC())

	p := &payment.Payment{ID: uuid.New(), DocumentID: doc.ID, Amount: 60000, Method: payment.MethodTransfer}

	repo.EXPECT().GetPayment(gomock.Any(), p.ID).Return(p, nil)

	tx := payment.NewMockTx(ctrl)
	expectTx(repo, tx, doc)
	tx.EXPECT().FindPayment(gomock.Any(), p.ID).Return(p, nil)
	tx.EXPECT().SoftDeletePayment(gomock.Any(), p.ID).Return(nil)
	tx.EXPECT().SumPayments(gomock.Any()).Return(int64(50000), nil)
	tx.EXPECT().UpdateDocumentPayment(gomock.Any(), int64(50000), document.StatusSent, nil).Return(nil)
	tx.EXPECT().AppendHistory(gomock.Any(), "remove_payment", actor.ID, gomock.Any()).Return(nil)
	tx.EXPECT().Commit().Return(nil)

	status, err := svc.RemovePayment(context.Background(), actor, p.ID)
	require.NoError(t, err)
	assert.Equal(t, document.StatusSent, status)

	ev, ok := events.last()
	require.True(t, ok)
	assert.Equal(t, event.TypePartiallyPaid, ev.Type)
	assert.Equal(t, int64(50000), ev.Metadata["paid_amount"])
}

// A received purchase order that was fully paid falls back to received,
// not sent, when the covering payment is removed.
func TestService_RemovePayment_RevertsToReceived(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := payment.NewMockRepository(ctrl)
	svc := payment.NewService(repo, &captureDispatcher{})

	actor := newActor()
	doc := &document.Document{
		ID:          uuid.New(),
		Type:        document.TypePurchaseOrder,
		Status:      document.StatusPaid,
		TotalAmount: 80000,
		PaidAmount:  80000,
		PaidAt:      new(time.Now().UTC()),
	}

	p := &payment.Payment{ID: uuid.New(), DocumentID: doc.ID, Amount: 80000, Method: payment.MethodCheque}

	repo.EXPECT().GetPayment(gomock.Any(), p.ID).Return(p, nil)

	tx := payment.NewMockTx(ctrl)
	expectTx(repo, tx, doc)
	tx.EXPECT().FindPayment(gomock.Any(), p.ID).Return(p, nil)
	tx.EXPECT().SoftDeletePayment(gomock.Any(), p.ID).Return(nil)
	tx.EXPECT().SumPayments(gomock.Any()).Return(int64(0), nil)
	tx.EXPECT().UpdateDocumentPayment(gomock.Any(), int64(0), document.StatusReceived, nil).Return(nil)
	tx.EXPECT().AppendHistory(gomock.Any(), "remove_payment", actor.ID, gomock.Any()).Return(nil)
	tx.EXPECT().Commit().Return(nil)

	status, err := svc.RemovePayment(context.Background(), actor, p.ID)
	require.NoError(t, err)
	assert.Equal(t, document.StatusReceived, status)
}

func TestService_RemovePayment_KeepsPartialStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := payment.NewMockRepository(ctrl)
	events := &captureDispatcher{}
	svc := payment.NewService(repo, events)

	actor := newActor()
	doc := sentInvoice(110000, 80000)

	p := &payment.Payment{ID: uuid.New(), DocumentID: doc.ID, Amount: 30000, Method: payment.MethodCash}

	repo.EXPECT().GetPayment(gomock.Any(), p.ID).Return(p, nil)

	tx := payment.NewMockTx(ctrl)
	expectTx(repo, tx, doc)
	tx.EXPECT().FindPayment(gomock.Any(), p.ID).Return(p, nil)
	tx.EXPECT().SoftDeletePayment(gomock.Any(), p.ID).Return(nil)
	tx.EXPECT().SumPayments(gomock.Any()).Return(int64(50000), nil)
	tx.EXPECT().UpdateDocumentPayment(gomock.Any(), int64(50000), document.StatusSent, nil).Return(nil)
	tx.EXPECT().AppendHistory(gomock.Any(), "remove_payment", actor.ID, gomock.Any()).Return(nil)
	tx.EXPECT().Commit().Return(nil)

	status, err := svc.RemovePayment(context.Background(), actor, p.ID)
	require.NoError(t, err)
	assert.Equal(t, document.StatusSent, status)

	// No status change happened, so nothing is dispatched.
	_, ok := events.last()
	assert.False(t, ok)
}

func TestService_RemovePayment_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := payment.NewMockRepository(ctrl)
	svc := payment.NewService(repo, &captureDispatcher{})

	id := uuid.New()
	repo.EXPECT().GetPayment(gomock.Any(), id).Return(nil, document.ErrNotFound)

	_, err := svc.RemovePayment(context.Background(), newActor(), id)
	require.ErrorIs(t, err, document.ErrNotFound)
}
