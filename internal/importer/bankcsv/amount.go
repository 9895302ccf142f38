package bankcsv

import (
	"strings"

	"github.com/shopspring/decimal"
)

// parseStatementAmount parses a European-formatted amount into cents.
// "1.234,56" -> 123456, "-588,74" -> -58874, "10,00" -> 1000.
func parseStatementAmount(s string) (int64, error) {
	clean := strings.ReplaceAll(s, " ", "")
	clean = strings.ReplaceAll(clean, " ", "")
	clean = strings.ReplaceAll(clean, ".", "")
	clean = strings.ReplaceAll(clean, ",", ".")

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, err
	}

	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}
