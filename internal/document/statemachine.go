package document

// Action is a lifecycle operation requested against a document.
type Action string

const (
	ActionSubmit         Action = "submit"
	ActionApprove        Action = "approve"
	ActionReject         Action = "reject"
	ActionSend           Action = "send"
	ActionOrder          Action = "order"
	ActionReceivePartial Action = "receive_partial"
	ActionReceive        Action = "receive"
	ActionCancel         Action = "cancel"
)

// transitions is the static action→precondition table per document type.
// Reaching "paid" is owned by the payment reconciliation engine and is
// deliberately absent here.
var transitions = map[Type]map[Action]map[Status]Status{
	TypeInvoice: {
		ActionSubmit: {
			StatusDraft:    StatusSubmitted,
			StatusRejected: StatusSubmitted,
		},
		ActionApprove: {
			StatusSubmitted: StatusApproved,
		},
		ActionReject: {
			StatusSubmitted: StatusRejected,
		},
		ActionSend: {
			StatusApproved: StatusSent,
		},
	},
	TypePurchaseOrder: {
		ActionSubmit: {
			StatusDraft:    StatusSubmitted,
			StatusRejected: StatusSubmitted,
		},
		ActionApprove: {
			StatusSubmitted: StatusApproved,
		},
		ActionReject: {
			StatusSubmitted: StatusRejected,
		},
		ActionOrder: {
			StatusApproved: StatusOrdered,
		},
		ActionReceivePartial: {
			StatusOrdered: StatusPartiallyReceived,
		},
		ActionReceive: {
			StatusOrdered:           StatusReceived,
			StatusPartiallyReceived: StatusReceived,
		},
		ActionCancel: {
			StatusApproved:          StatusCancelled,
			StatusOrdered:           StatusCancelled,
			StatusPartiallyReceived: StatusCancelled,
			StatusReceived:          StatusCancelled,
		},
	},
}

// Next validates the action against the current status and returns the
// resulting status. Illegal attempts always fail with a typed
// *InvalidTransitionError, never a silent no-op.
func Next(docType Type, current Status, action Action) (Status, error) {
	byAction, ok := transitions[docType]
	if !ok {
		return "", &InvalidTransitionError{DocType: docType, Current: current, Action: action}
	}

	preconditions, ok := byAction[action]
	if !ok {
		return "", &InvalidTransitionError{DocType: docType, Current: current, Action: action}
	}

	next, ok := preconditions[current]
	if !ok {
		return "", &InvalidTransitionError{DocType: docType, Current: current, Action: action, Target: targetOf(preconditions)}
	}

	return next, nil
}

// targetOf reports the state an action leads to, for error messages. All
// preconditions of one action share a target except receive, where either
// source lands on received anyway.
func targetOf(preconditions map[Status]Status) Status {
	for _, to := range preconditions {
		return to
	}

	return ""
}

// AuthorityGated reports whether the action is refused outright when the
// actor's role is below the tier the document amount requires. Submit is
// not listed: anyone may submit, but the resolver is still consulted there
// to decide manager auto-approval.
func AuthorityGated(action Action) bool {
	switch action {
	case ActionApprove, ActionReject:
		return true
	default:
		return false
	}
}
