// Package bankcsv parses bank CSV exports. The header row is located by
// scanning for a known column layout, so preamble lines and footers in
// the export do not matter.
package bankcsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/docledger/docledger/internal/encoding"
	"github.com/docledger/docledger/internal/importer"
)

type Parser struct{}

func New() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) ([]importer.Record, error) {
	utf8r, err := encoding.NormalizeUTF8(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(utf8r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	profile, cols, headerIdx := detectProfile(rows)
	if profile == nil {
		return nil, fmt.Errorf("no known statement layout found in file")
	}

	return parseRows(profile, cols, rows[headerIdx+1:])
}

// colIndex maps column names to their index in the row.
type colIndex map[string]int

func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			if name := strings.TrimSpace(cell); name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

func parseRows(p *Profile, cols colIndex, rows [][]string) ([]importer.Record, error) {
	var records []importer.Record

	for _, row := range rows {
		date, ok := parseDate(row, cols[p.DateCol], p.DateLayout)
		if !ok {
			// Footer or summary row.
			continue
		}

		amount, direction, ok := parseRowAmount(p, cols, row)
		if !ok {
			continue
		}

		records = append(records, importer.Record{
			Date:        date,
			Amount:      amount,
			Direction:   direction,
			Reference:   refValue(row, cols, p.RefCol),
			Description: cellValue(row, cols[p.DescCol]),
		})
	}

	return records, nil
}

func parseDate(row []string, idx int, layout string) (time.Time, bool) {
	s := cellValue(row, idx)
	if s == "" {
		return time.Time{}, false
	}

	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, false
	}

	return t, true
}

func parseRowAmount(p *Profile, cols colIndex, row []string) (int64, importer.Direction, bool) {
	switch p.AmountMode {
	case amountSigned:
		return parseSignedAmount(row, cols[p.AmountCol])
	case amountSplit:
		return parseSplitAmount(row, cols[p.DebitCol], cols[p.CreditCol])
	}

	return 0, "", false
}

func parseSignedAmount(row []string, idx int) (int64, importer.Direction, bool) {
	s := cellValue(row, idx)
	if s == "" {
		return 0, "", false
	}

	cents, err := parseStatementAmount(s)
	if err != nil || cents == 0 {
		return 0, "", false
	}

	if cents < 0 {
		return -cents, importer.DirectionDebit, true
	}

	return cents, importer.DirectionCredit, true
}

func parseSplitAmount(row []string, debitIdx, creditIdx int) (int64, importer.Direction, bool) {
	if s := cellValue(row, debitIdx); s != "" {
		if cents, err := parseStatementAmount(s); err == nil && cents != 0 {
			return abs(cents), importer.DirectionDebit, true
		}
	}

	if s := cellValue(row, creditIdx); s != "" {
		if cents, err := parseStatementAmount(s); err == nil && cents != 0 {
			return abs(cents), importer.DirectionCredit, true
		}
	}

	return 0, "", false
}

func refValue(row []string, cols colIndex, refCol string) string {
	idx, ok := cols[refCol]
	if !ok {
		return ""
	}

	return cellValue(row, idx)
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}

	return n
}
