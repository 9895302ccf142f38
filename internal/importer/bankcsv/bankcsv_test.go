package bankcsv_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docledger/docledger/internal/importer"
	"github.com/docledger/docledger/internal/importer/bankcsv"
)

func TestParse_SignedLayout(t *testing.T) {
	input := strings.Join([]string{
		"Account statement export",
		"",
		"Date;Reference;Description;Amount",
		"15-01-2026;INV-000042;Payment invoice;1.250,00",
		"16-01-2026;PO-000007;Supplier settlement;-588,74",
		"17-01-2026;;Card fee;-2,50",
		"Total;;;658,76",
	}, "\n")

	records, err := bankcsv.New().Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), records[0].Date)
	assert.Equal(t, int64(125000), records[0].Amount)
	assert.Equal(t, importer.DirectionCredit, records[0].Direction)
	assert.Equal(t, "INV-000042", records[0].Reference)

	assert.Equal(t, int64(58874), records[1].Amount)
	assert.Equal(t, importer.DirectionDebit, records[1].Direction)

	assert.Equal(t, int64(250), records[2].Amount)
	assert.Equal(t, importer.DirectionDebit, records[2].Direction)
}

func TestParse_SplitLayout(t *testing.T) {
	input := strings.Join([]string{
		"Booking Date;Reference;Description;Debit;Credit",
		"2026-01-15;INV-000042;Customer payment;;500,00",
		"2026-01-16;PO-000007;Supplier;120,00;",
		"2026-01-17;;Empty row;;",
	}, "\n")

	records, err := bankcsv.New().Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, int64(50000), records[0].Amount)
	assert.Equal(t, importer.DirectionCredit, records[0].Direction)

	assert.Equal(t, int64(12000), records[1].Amount)
	assert.Equal(t, importer.DirectionDebit, records[1].Direction)
}

func TestParse_UnknownLayout(t *testing.T) {
	input := "Foo;Bar\n1;2\n"

	_, err := bankcsv.New().Parse(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no known statement layout")
}
