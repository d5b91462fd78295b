package claims

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	enc "github.com/MrJamesThe3rd/benefits/internal/encoding"
	"github.com/MrJamesThe3rd/benefits/internal/importer"
	"github.com/MrJamesThe3rd/benefits/internal/transaction"
)

var ErrNoProfile = errors.New("no matching claims format found: expected columns for portal, clínica or seguradora")

// Parser reads partner claims exports. The layout is detected by matching
// column headers against known profiles.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) ([]importer.Row, error) {
	utf8r, charset, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	content, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("read %s input: %w", charset, err)
	}

	for _, comma := range []rune{';', ','} {
		records, err := readCSV(content, comma)
		if err != nil {
			continue
		}

		profile, cols, headerIdx := detectProfile(records, comma)
		if profile == nil {
			continue
		}

		return parseRows(profile, cols, records[headerIdx+1:]), nil
	}

	return nil, ErrNoProfile
}

// record is a CSV record and the 1-based file line it starts on. The csv
// reader skips blank lines, so the index of a record is not its line.
type record struct {
	fields []string
	line   int
}

func readCSV(content []byte, comma rune) ([]record, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records []record

	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}

		if err != nil {
			return nil, err
		}

		line, _ := reader.FieldPos(0)
		records = append(records, record{fields: fields, line: line})
	}
}

// colIndex maps column names to their index in the row.
type colIndex map[string]int

func (c colIndex) get(row []string, name string) string {
	if name == "" {
		return ""
	}

	idx, ok := c[name]
	if !ok {
		return ""
	}

	return cellValue(row, idx)
}

// detectProfile scans records for a header that matches a profile using comma.
// Returns the matched profile, column index map, and header record index.
func detectProfile(records []record, comma rune) (*Profile, colIndex, int) {
	for rowIdx, rec := range records {
		cols := make(colIndex)

		for i, cell := range rec.fields {
			name := strings.TrimSpace(cell)
			if name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if profiles[i].Comma == comma && matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

// matchesProfile checks if all required columns of a profile are present.
func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

// parseRows extracts claims from data records using the matched profile.
// A malformed row is kept with only Line and Err set so the rest of the file
// still goes through.
func parseRows(p *Profile, cols colIndex, records []record) []importer.Row {
	var claims []importer.Row

	for _, rec := range records {
		if cols.get(rec.fields, p.CustomerCol) == "" {
			// Blank or footer row.
			continue
		}

		claim, err := parseRow(p, cols, rec.fields)
		if err != nil {
			claim = importer.Row{Err: err}
		}

		claim.Line = rec.line
		claims = append(claims, claim)
	}

	return claims
}

func parseRow(p *Profile, cols colIndex, row []string) (importer.Row, error) {
	var (
		claim importer.Row
		err   error
	)

	if claim.CustomerID, err = uuid.Parse(cols.get(row, p.CustomerCol)); err != nil {
		return claim, fmt.Errorf("invalid customer id: %w", err)
	}

	if s := cols.get(row, p.PlanCol); s != "" {
		if claim.PlanID, err = uuid.Parse(s); err != nil {
			return claim, fmt.Errorf("invalid plan id: %w", err)
		}
	}

	service := cols.get(row, p.ServiceCol)
	if service == "" {
		return claim, errors.New("missing service")
	}

	switch p.Service {
	case serviceByID:
		if claim.ServiceID, err = uuid.Parse(service); err != nil {
			return claim, fmt.Errorf("invalid service id: %w", err)
		}
	case serviceByLabel:
		claim.ServiceLabel = service
	}

	if claim.Amount, err = parseAmount(cols.get(row, p.AmountCol), p.Decimal); err != nil {
		return claim, err
	}

	if !claim.Amount.IsPositive() {
		return claim, fmt.Errorf("amount must be positive, got %s", claim.Amount)
	}

	claim.PaymentMethod = transaction.PaymentMethod(strings.ToLower(cols.get(row, p.PaymentCol)))

	if s := cols.get(row, p.DateCol); s != "" {
		if claim.Date, err = time.Parse(p.DateLayout, s); err != nil {
			return claim, fmt.Errorf("invalid date %q", s)
		}
	}

	return claim, nil
}

// cellValue safely gets a trimmed cell value from a row.
func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
