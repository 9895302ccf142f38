package payment

import (
	"time"

	"github.com/google/uuid"
)

// Method is how a payment was made.
type Method string

const (
	MethodTransfer Method = "transfer"
	MethodCard     Method = "card"
	MethodCash     Method = "cash"
	MethodCheque   Method = "cheque"
	MethodOther    Method = "other"
)

// Valid reports whether the method is one of the known values.
func (m Method) Valid() bool {
	switch m {
	case MethodTransfer, MethodCard, MethodCash, MethodCheque, MethodOther:
		return true
	default:
		return false
	}
}

// Payment is one payment record against a document. Records are
// soft-deleted, never removed, so the paid amount can always be
// recomputed from what remains.
type Payment struct {
	ID         uuid.UUID
	DocumentID uuid.UUID
	Amount     int64 // cents, always > 0
	Method     Method
	Date       time.Time
	RecordedBy uuid.UUID
	Reference  string
	Notes      string
	// IdempotencyKey guards against a duplicated client submission
	// recording the same payment twice. Optional.
	IdempotencyKey string
	CreatedAt      time.Time
	DeletedAt      *time.Time
}
