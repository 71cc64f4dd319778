package statement

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/NgigiN/ledger/internal/storage"
)

const (
	ColumnDate        = "Date"
	ColumnDescription = "Description"
	ColumnAmount      = "Amount"
	ColumnRawText     = "RawText"
)

var requiredColumns = []string{ColumnDate, ColumnDescription, ColumnAmount}

// Accepted date layouts in priority order: YYYY-MM-DD, MM/DD/YYYY, DD/MM/YYYY.
var dateLayouts = []string{"2006-1-2", "1/2/2006", "2/1/2006"}

var (
	ErrMissingColumns = errors.New("missing required columns")
	ErrEmptyInput     = errors.New("statement contains no data rows")
	ErrMissingValue   = errors.New("missing required values")
	ErrInvalidDate    = errors.New("invalid date format, use YYYY-MM-DD, MM/DD/YYYY, or DD/MM/YYYY")
	ErrInvalidAmount  = errors.New("invalid amount value")
)

// SchemaError rejects a whole batch before any row is looked at.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%v: %s", ErrMissingColumns, strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Unwrap() error { return ErrMissingColumns }

// RowError rejects one row. Line is 1-based and counts the header.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Record is an accepted row.
type Record struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Kind        storage.Kind
	RawText     *string
}

// Row is the outcome for one data row: exactly one of Record and Err is set.
type Row struct {
	Line   int
	Record *Record
	Err    *RowError
}

type Batch struct {
	Rows []Row
}

// Accepted counts rows that passed validation.
func (b *Batch) Accepted() int {
	n := 0
	for _, r := range b.Rows {
		if r.Err == nil {
			n++
		}
	}
	return n
}

// Validate checks the header, then every row independently.
func Validate(t *Table) (*Batch, error) {
	index := make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		if _, seen := index[h]; !seen {
			index[h] = i
		}
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}
	if len(t.Rows) == 0 {
		return nil, ErrEmptyInput
	}

	batch := &Batch{Rows: make([]Row, 0, len(t.Rows))}
	for i, fields := range t.Rows {
		line := i + 2
		rec, err := parseRow(fields, index)
		if err != nil {
			batch.Rows = append(batch.Rows, Row{Line: line, Err: &RowError{Line: line, Err: err}})
			continue
		}
		batch.Rows = append(batch.Rows, Row{Line: line, Record: rec})
	}
	return batch, nil
}

// ParseRecord applies the row rules to a single entry given outside a table.
func ParseRecord(date, description, amount, rawText string) (*Record, error) {
	return parseRow([]string{date, description, amount, rawText}, map[string]int{
		ColumnDate:        0,
		ColumnDescription: 1,
		ColumnAmount:      2,
		ColumnRawText:     3,
	})
}

func parseRow(fields []string, index map[string]int) (*Record, error) {
	get := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(fields) {
			return ""
		}
		return fields[i]
	}

	rawDate := strings.TrimSpace(get(ColumnDate))
	description := get(ColumnDescription)
	rawAmount := strings.TrimSpace(get(ColumnAmount))
	if rawDate == "" || strings.TrimSpace(description) == "" || rawAmount == "" {
		return nil, ErrMissingValue
	}

	date, err := ParseDate(rawDate)
	if err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		return nil, ErrInvalidAmount
	}

	rec := &Record{
		Date:        date,
		Description: description,
		Amount:      amount.Abs(),
		Kind:        storage.KindCredit,
	}
	if amount.IsNegative() {
		rec.Kind = storage.KindDebit
	}
	if raw := get(ColumnRawText); raw != "" {
		rec.RawText = &raw
	}
	return rec, nil
}

// ParseDate tries each accepted layout in order and returns UTC midnight.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, ErrInvalidDate
}
