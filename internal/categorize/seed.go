package categorize

import (
	"context"
	"fmt"

	"github.com/NgigiN/ledger/internal/storage"
)

var seedCategories = []string{
	"Groceries", "Dining", "Transportation", "Utilities", "Housing", "Entertainment",
	"Shopping", "Health", "Travel", "Income", "Other",
}

// Seed creates the bootstrap categories when the category table is empty
// and returns how many it created.
func Seed(ctx context.Context, db *storage.Database) (int, error) {
	created := 0
	err := db.Transaction(ctx, func(tx *storage.Database) error {
		count, err := tx.CountCategories(ctx)
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		for _, name := range seedCategories {
			if _, err := tx.UpsertCategory(ctx, name, Color(name)); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to seed categories: %w", err)
	}
	return created, nil
}
