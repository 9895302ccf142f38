package document_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docledger/docledger/internal/document"
)

func TestNext_InvoiceHappyPath(t *testing.T) {
	steps := []struct {
		action document.Action
		from   document.Status
		to     document.Status
	}{
		{document.ActionSubmit, document.StatusDraft, document.StatusSubmitted},
		{document.ActionApprove, document.StatusSubmitted, document.StatusApproved},
		{document.ActionSend, document.StatusApproved, document.StatusSent},
	}

	for _, step := range steps {
		got, err := document.Next(document.TypeInvoice, step.from, step.action)
		require.NoError(t, err, "%s from %s", step.action, step.from)
		assert.Equal(t, step.to, got)
	}
}

func TestNext_PurchaseOrderHappyPath(t *testing.T) {
	steps := []struct {
		action document.Action
		from   document.Status
		to     document.Status
	}{
		{document.ActionSubmit, document.StatusDraft, document.StatusSubmitted},
		{document.ActionApprove, document.StatusSubmitted, document.StatusApproved},
		{document.ActionOrder, document.StatusApproved, document.StatusOrdered},
		{document.ActionReceivePartial, document.StatusOrdered, document.StatusPartiallyReceived},
		{document.ActionReceive, document.StatusPartiallyReceived, document.StatusReceived},
	}

	for _, step := range steps {
		got, err := document.Next(document.TypePurchaseOrder, step.from, step.action)
		require.NoError(t, err, "%s from %s", step.action, step.from)
		assert.Equal(t, step.to, got)
	}
}

func TestNext_RejectAndResubmit(t *testing.T) {
	got, err := document.Next(document.TypeInvoice, document.StatusSubmitted, document.ActionReject)
	require.NoError(t, err)
	assert.Equal(t, document.StatusRejected, got)

	got, err = document.Next(document.TypeInvoice, document.StatusRejected, document.ActionSubmit)
	require.NoError(t, err)
	assert.Equal(t, document.StatusSubmitted, got)
}

// Approved is only reachable from submitted; in particular never straight
// from draft.
func TestNext_ApproveRequiresSubmitted(t *testing.T) {
	for _, docType := range []document.Type{document.TypeInvoice, document.TypePurchaseOrder} {
		for _, from := range []document.Status{
			document.StatusDraft,
			document.StatusRejected,
			document.StatusApproved,
			document.StatusSent,
			document.StatusPaid,
			document.StatusCancelled,
		} {
			_, err := document.Next(docType, from, document.ActionApprove)

			var transErr *document.InvalidTransitionError
			require.ErrorAs(t, err, &transErr, "%s approve from %s", docType, from)
			assert.Equal(t, from, transErr.Current)
		}
	}
}

func TestNext_IllegalTransitions(t *testing.T) {
	tests := []struct {
		name    string
		docType document.Type
		from    document.Status
		action  document.Action
	}{
		{"SendUnapprovedInvoice", document.TypeInvoice, document.StatusSubmitted, document.ActionSend},
		{"SendDraftInvoice", document.TypeInvoice, document.StatusDraft, document.ActionSend},
		{"OrderOnInvoice", document.TypeInvoice, document.StatusApproved, document.ActionOrder},
		{"CancelOnInvoice", document.TypeInvoice, document.StatusApproved, document.ActionCancel},
		{"ReceiveUnordered", document.TypePurchaseOrder, document.StatusApproved, document.ActionReceive},
		{"CancelDraftPO", document.TypePurchaseOrder, document.StatusDraft, document.ActionCancel},
		{"CancelPaidPO", document.TypePurchaseOrder, document.StatusPaid, document.ActionCancel},
		{"ResubmitApproved", document.TypeInvoice, document.StatusApproved, document.ActionSubmit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := document.Next(tt.docType, tt.from, tt.action)

			var transErr *document.InvalidTransitionError
			require.ErrorAs(t, err, &transErr)
			assert.Equal(t, tt.from, transErr.Current)
			assert.Equal(t, tt.action, transErr.Action)
		})
	}
}

func TestNext_CancelBeforePayment(t *testing.T) {
	for _, from := range []document.Status{
		document.StatusApproved,
		document.StatusOrdered,
		document.StatusPartiallyReceived,
		document.StatusReceived,
	} {
		got, err := document.Next(document.TypePurchaseOrder, from, document.ActionCancel)
		require.NoError(t, err, "cancel from %s", from)
		assert.Equal(t, document.StatusCancelled, got)
	}
}

func TestSendableStatus(t *testing.T) {
	assert.Equal(t, document.StatusSent, document.SendableStatus(document.TypeInvoice))
	assert.Equal(t, document.StatusReceived, document.SendableStatus(document.TypePurchaseOrder))
}
