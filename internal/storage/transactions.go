package storage

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const insertBatchSize = 100

// TransactionFilter narrows ListTransactions. Nil fields are ignored.
type TransactionFilter struct {
	CategoryID *uint
	OwnerID    *uint
	Start      *time.Time
	End        *time.Time
	Offset     int
	Limit      int
}

func (d *Database) SaveTransaction(ctx context.Context, tx *Transaction) error {
	if tx.CategoryID != nil {
		if _, err := d.GetCategory(ctx, *tx.CategoryID); err != nil {
			return err
		}
	}
	if err := d.db.WithContext(ctx).Create(tx).Error; err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}
	return nil
}

// SaveTransactions inserts a staged batch in chunks.
func (d *Database) SaveTransactions(ctx context.Context, txs []Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	if err := d.db.WithContext(ctx).CreateInBatches(txs, insertBatchSize).Error; err != nil {
		return fmt.Errorf("failed to save %d transactions: %w", len(txs), err)
	}
	return nil
}

func (d *Database) GetTransaction(ctx context.Context, id uint) (*Transaction, error) {
	var txs []Transaction
	if err := d.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("failed to get transaction %d: %w", id, err)
	}
	if len(txs) == 0 {
		return nil, fmt.Errorf("transaction %d: %w", id, ErrNotFound)
	}
	return &txs[0], nil
}

// ListTransactions returns transactions newest first.
func (d *Database) ListTransactions(ctx context.Context, f TransactionFilter) ([]Transaction, error) {
	q := d.db.WithContext(ctx).Model(&Transaction{})
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.OwnerID != nil {
		q = q.Where("owner_id = ?", *f.OwnerID)
	}
	if f.Start != nil {
		q = q.Where("date >= ?", *f.Start)
	}
	if f.End != nil {
		q = q.Where("date <= ?", *f.End)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	var txs []Transaction
	if err := q.Order("date DESC, id DESC").Offset(f.Offset).Limit(limit).Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

// SetCategory attaches (or with nil, detaches) a category explicitly.
func (d *Database) SetCategory(ctx context.Context, id uint, categoryID *uint) error {
	if categoryID != nil {
		if _, err := d.GetCategory(ctx, *categoryID); err != nil {
			return err
		}
	}
	res := d.db.WithContext(ctx).Model(&Transaction{}).Where("id = ?", id).Update("category_id", categoryID)
	if res.Error != nil {
		return fmt.Errorf("failed to update transaction %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("transaction %d: %w", id, ErrNotFound)
	}
	return nil
}

// AssignCategories writes transaction id -> category id assignments.
func (d *Database) AssignCategories(ctx context.Context, assignments map[uint]uint) error {
	for id, categoryID := range assignments {
		err := d.db.WithContext(ctx).Model(&Transaction{}).Where("id = ?", id).Update("category_id", categoryID).Error
		if err != nil {
			return fmt.Errorf("failed to categorize transaction %d: %w", id, err)
		}
	}
	return nil
}

func (d *Database) DeleteTransaction(ctx context.Context, id uint) error {
	res := d.db.WithContext(ctx).Where("id = ?", id).Delete(&Transaction{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete transaction %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("transaction %d: %w", id, ErrNotFound)
	}
	return nil
}

// ClaimTransactions sets the owner of every listed transaction and returns
// how many rows matched.
func (d *Database) ClaimTransactions(ctx context.Context, ownerID uint, ids []uint) (int64, error) {
	res := d.db.WithContext(ctx).Model(&Transaction{}).Where("id IN ?", ids).Update("owner_id", ownerID)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to claim transactions: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ListUncategorized returns every transaction without a category, oldest id first.
func (d *Database) ListUncategorized(ctx context.Context) ([]Transaction, error) {
	var txs []Transaction
	if err := d.db.WithContext(ctx).Where("category_id IS NULL").Order("id").Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("failed to list uncategorized transactions: %w", err)
	}
	return txs, nil
}

// CategoryOfSimilar returns the category of the lowest-id categorized
// transaction whose description contains description under Unicode case
// folding.
// It returns nil when nothing matches.
func (d *Database) CategoryOfSimilar(ctx context.Context, description string) (*uint, error) {
	pattern := "%" + escapeLike(Fold(description)) + "%"

	var txs []Transaction
	err := d.db.WithContext(ctx).
		Where("category_id IS NOT NULL").
		Where("search_text LIKE ? ESCAPE '\\'", pattern).
		Order("id").
		Limit(1).
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search similar transactions: %w", err)
	}
	if len(txs) == 0 {
		return nil, nil
	}
	return txs[0].CategoryID, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
