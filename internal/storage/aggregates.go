package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DayTotal is the sum of one owner's debits for a category on one day.
type DayTotal struct {
	Date     time.Time
	Category string
	Total    decimal.Decimal
}

// DebitTotalsByDay sums an owner's categorized debits in [from, to) grouped
// by day and category name.
func (d *Database) DebitTotalsByDay(ctx context.Context, ownerID uint, from, to time.Time) ([]DayTotal, error) {
	var rows []DayTotal
	err := d.db.WithContext(ctx).
		Table("transactions").
		Select("transactions.date AS date, categories.name AS category, SUM(transactions.amount) AS total").
		Joins("JOIN categories ON categories.id = transactions.category_id").
		Where("transactions.owner_id = ? AND transactions.kind = ?", ownerID, KindDebit).
		Where("transactions.date >= ? AND transactions.date < ?", from, to).
		Group("transactions.date, categories.name").
		Order("transactions.date, categories.name").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum debits: %w", err)
	}
	return rows, nil
}

// CategoryTotalsFilter restricts which transactions count towards
// CategoryTotals. Zero values are ignored.
type CategoryTotalsFilter struct {
	Start *time.Time
	End   *time.Time
	Kind  Kind
}

type CategoryTotal struct {
	CategoryID       uint
	Name             string
	Color            string
	TotalAmount      decimal.Decimal
	TransactionCount int64
}

// CategoryTotals returns one row per category, including categories with
// no matching transactions. All filters live in the join condition so the
// outer join keeps empty categories.
func (d *Database) CategoryTotals(ctx context.Context, ownerID uint, f CategoryTotalsFilter) ([]CategoryTotal, error) {
	on := []string{"transactions.category_id = categories.id", "transactions.owner_id = ?"}
	args := []any{ownerID}
	if f.Kind != "" {
		on = append(on, "transactions.kind = ?")
		args = append(args, f.Kind)
	}
	if f.Start != nil {
		on = append(on, "transactions.date >= ?")
		args = append(args, *f.Start)
	}
	if f.End != nil {
		on = append(on, "transactions.date <= ?")
		args = append(args, *f.End)
	}

	var rows []CategoryTotal
	err := d.db.WithContext(ctx).
		Table("categories").
		Select("categories.id AS category_id, categories.name AS name, categories.color AS color, " +
			"COALESCE(SUM(transactions.amount), 0) AS total_amount, COUNT(transactions.id) AS transaction_count").
		Joins("LEFT JOIN transactions ON "+strings.Join(on, " AND "), args...).
		Group("categories.id, categories.name, categories.color").
		Order("categories.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to total categories: %w", err)
	}
	return rows, nil
}

// DuplicateGroup is a set of transactions sharing date, description and amount.
type DuplicateGroup struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Count       int64
	KeepID      uint
}

func (d *Database) DuplicateGroups(ctx context.Context) ([]DuplicateGroup, error) {
	var groups []DuplicateGroup
	err := d.db.WithContext(ctx).
		Model(&Transaction{}).
		Select("date, description, amount, COUNT(*) AS count, MIN(id) AS keep_id").
		Group("date, description, amount").
		Having("COUNT(*) > 1").
		Order("keep_id").
		Scan(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find duplicate groups: %w", err)
	}
	return groups, nil
}

// DeleteDuplicates removes every transaction that is not the lowest id of
// its (date, description, amount) group.
func (d *Database) DeleteDuplicates(ctx context.Context) (int64, error) {
	db := d.db.WithContext(ctx)
	keep := db.Model(&Transaction{}).Select("MIN(id)").Group("date, description, amount")
	res := db.Where("id NOT IN (?)", keep).Delete(&Transaction{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete duplicates: %w", res.Error)
	}
	return res.RowsAffected, nil
}
