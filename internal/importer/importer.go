// Package importer turns uploaded bank statement files into payment
// records reconciled against open documents.
package importer

import (
	"io"
	"time"
)

// Direction tells whether money moved into or out of the account.
type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// Record is one statement line after parsing: a positive amount in
// cents plus the direction it moved.
type Record struct {
	Date        time.Time
	Amount      int64
	Direction   Direction
	Reference   string
	Description string
}

type Parser interface {
	Parse(r io.Reader) ([]Record, error)
}
