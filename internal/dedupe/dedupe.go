// Package dedupe removes transactions that share date, description and
// amount, keeping the lowest id of each group. Kind, raw text, category and
// owner are not part of the key; whatever the removed rows carried is lost.
package dedupe

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/NgigiN/ledger/internal/storage"
)

type Report struct {
	GroupsFound int   `json:"groups_found"`
	RowsDeleted int64 `json:"rows_deleted"`
}

type Engine struct {
	db  *storage.Database
	log zerolog.Logger
}

func New(db *storage.Database, log zerolog.Logger) *Engine {
	return &Engine{db: db, log: log}
}

// Preview lists the duplicate groups a Run would collapse.
func (e *Engine) Preview(ctx context.Context) ([]storage.DuplicateGroup, error) {
	return e.db.DuplicateGroups(ctx)
}

// Run deletes duplicates in a single database transaction. A failure
// leaves every row in place.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	report := &Report{}
	err := e.db.Transaction(ctx, func(tx *storage.Database) error {
		groups, err := tx.DuplicateGroups(ctx)
		if err != nil {
			return err
		}
		report.GroupsFound = len(groups)
		if len(groups) == 0 {
			return nil
		}

		deleted, err := tx.DeleteDuplicates(ctx)
		if err != nil {
			return err
		}
		var expected int64
		for _, g := range groups {
			expected += g.Count - 1
		}
		if deleted != expected {
			return fmt.Errorf("deleted %d rows, expected %d", deleted, expected)
		}
		report.RowsDeleted = deleted
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to remove duplicates: %w", err)
	}

	e.log.Info().Int("groups_found", report.GroupsFound).Int64("rows_deleted", report.RowsDeleted).Msg("duplicates removed")
	return report, nil
}
