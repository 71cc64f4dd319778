package summary

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/NgigiN/ledger/internal/storage"
)

const filterDateLayout = "2006-01-02"

var (
	ErrInvalidMonth      = errors.New("month must be between 1 and 12")
	ErrInvalidDateFilter = errors.New("invalid date filter, use YYYY-MM-DD")
	ErrInvalidKind       = errors.New("kind must be debit or credit")
)

// Monthly maps a month name to category name to the debits spent.
type Monthly map[string]map[string]decimal.Decimal

// CategoryTotal is one row of the per-category summary.
type CategoryTotal struct {
	CategoryID       uint            `json:"category_id"`
	CategoryName     string          `json:"category_name"`
	Color            string          `json:"color"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	TransactionCount int64           `json:"transaction_count"`
}

// Filter holds the raw, optional filters of a category summary.
type Filter struct {
	Start string
	End   string
	Kind  string
}

type Service struct {
	db *storage.Database
}

func NewService(db *storage.Database) *Service {
	return &Service{db: db}
}

// Monthly sums the owner's categorized debits in year, optionally limited
// to one month. Months without debits are absent.
func (s *Service) Monthly(ctx context.Context, ownerID uint, year int, month *int) (Monthly, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	if month != nil {
		if *month < 1 || *month > 12 {
			return nil, ErrInvalidMonth
		}
		from = time.Date(year, time.Month(*month), 1, 0, 0, 0, 0, time.UTC)
		to = from.AddDate(0, 1, 0)
	}

	days, err := s.db.DebitTotalsByDay(ctx, ownerID, from, to)
	if err != nil {
		return nil, err
	}

	out := Monthly{}
	for _, d := range days {
		name := d.Date.Month().String()
		if out[name] == nil {
			out[name] = map[string]decimal.Decimal{}
		}
		out[name][d.Category] = out[name][d.Category].Add(d.Total)
	}
	for _, byCategory := range out {
		for name, total := range byCategory {
			byCategory[name] = total.Round(2)
		}
	}
	return out, nil
}

// ByCategory totals the owner's transactions for every category, including
// categories with none.
func (s *Service) ByCategory(ctx context.Context, ownerID uint, f Filter) ([]CategoryTotal, error) {
	var filter storage.CategoryTotalsFilter
	if f.Start != "" {
		start, err := ParseFilterDate(f.Start)
		if err != nil {
			return nil, fmt.Errorf("start date: %w", err)
		}
		filter.Start = &start
	}
	if f.End != "" {
		end, err := ParseFilterDate(f.End)
		if err != nil {
			return nil, fmt.Errorf("end date: %w", err)
		}
		filter.End = &end
	}
	if f.Kind != "" {
		kind := storage.Kind(f.Kind)
		if !kind.Valid() {
			return nil, ErrInvalidKind
		}
		filter.Kind = kind
	}

	rows, err := s.db.CategoryTotals(ctx, ownerID, filter)
	if err != nil {
		return nil, err
	}
	out := make([]CategoryTotal, len(rows))
	for i, r := range rows {
		out[i] = CategoryTotal{
			CategoryID:       r.CategoryID,
			CategoryName:     r.Name,
			Color:            r.Color,
			TotalAmount:      r.TotalAmount.Round(2),
			TransactionCount: r.TransactionCount,
		}
	}
	return out, nil
}

// ParseFilterDate accepts only YYYY-MM-DD.
func ParseFilterDate(s string) (time.Time, error) {
	d, err := time.Parse(filterDateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateFilter, s)
	}
	return d, nil
}
