package bankcsv

// amountMode determines how amounts are extracted from a row.
type amountMode int

const (
	// amountSigned means one signed column ("Amount" holding "-10,00").
	amountSigned amountMode = iota
	// amountSplit means separate debit and credit columns.
	amountSplit
)

// Profile describes the column layout of one bank's CSV export. Adding
// support for another bank is adding a Profile here.
type Profile struct {
	Name       string
	DateCol    string
	DateLayout string
	RefCol     string
	DescCol    string
	AmountMode amountMode
	AmountCol  string // amountSigned
	DebitCol   string // amountSplit
	CreditCol  string // amountSplit
}

// requiredCols returns the columns that must all be present for this
// profile to match a header row.
func (p Profile) requiredCols() []string {
	cols := []string{p.DateCol, p.DescCol}

	switch p.AmountMode {
	case amountSigned:
		cols = append(cols, p.AmountCol)
	case amountSplit:
		cols = append(cols, p.DebitCol, p.CreditCol)
	}

	return cols
}

// profiles is tried in order during auto-detection; more specific
// layouts come first.
var profiles = []Profile{
	{
		Name:       "split",
		DateCol:    "Booking Date",
		DateLayout: "2006-01-02",
		RefCol:     "Reference",
		DescCol:    "Description",
		AmountMode: amountSplit,
		DebitCol:   "Debit",
		CreditCol:  "Credit",
	},
	{
		Name:       "signed",
		DateCol:    "Date",
		DateLayout: "02-01-2006",
		RefCol:     "Reference",
		DescCol:    "Description",
		AmountMode: amountSigned,
		AmountCol:  "Amount",
	},
}
