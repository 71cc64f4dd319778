package categorize

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/NgigiN/ledger/internal/storage"
)

// Repository is the storage the engine reads history from and creates
// categories in.
type Repository interface {
	CategoryOfSimilar(ctx context.Context, description string) (*uint, error)
	UpsertCategory(ctx context.Context, name, color string) (*storage.Category, error)
}

type Engine struct {
	repo  Repository
	rules Rules
	log   zerolog.Logger
}

func New(repo Repository, rules Rules, log zerolog.Logger) *Engine {
	return &Engine{repo: repo, rules: rules, log: log}
}

// With returns a copy of the engine reading and writing through repo,
// typically a transaction-bound database.
func (e *Engine) With(repo Repository) *Engine {
	c := *e
	c.repo = repo
	return &c
}

// Categorize resolves a description to a category id, or nil when no tier
// matches. Previously categorized transactions whose description contains
// this one win over keyword rules.
func (e *Engine) Categorize(ctx context.Context, description string) (*uint, error) {
	if strings.TrimSpace(description) == "" {
		return nil, nil
	}

	id, err := e.repo.CategoryOfSimilar(ctx, description)
	if err != nil {
		return nil, err
	}
	if id != nil {
		e.log.Debug().Str("description", description).Uint("category_id", *id).Msg("matched history")
		return id, nil
	}

	name, ok := e.rules.Match(description)
	if !ok {
		return nil, nil
	}
	category, err := e.repo.UpsertCategory(ctx, name, Color(name))
	if err != nil {
		return nil, fmt.Errorf("failed to materialize category %q: %w", name, err)
	}
	e.log.Debug().Str("description", description).Str("category", name).Msg("matched keyword")
	return &category.ID, nil
}

// Result summarizes a CategorizeUncategorized run.
type Result struct {
	TotalUncategorized     int `json:"total_uncategorized"`
	Categorized            int `json:"categorized"`
	RemainingUncategorized int `json:"remaining_uncategorized"`
}

// CategorizeUncategorized resolves every transaction without a category and
// writes all assignments in one database transaction. Assignments are
// written after every row has been resolved, so rows categorized in this
// run never feed the history tier of later rows.
func (e *Engine) CategorizeUncategorized(ctx context.Context, db *storage.Database) (*Result, error) {
	result := &Result{}
	err := db.Transaction(ctx, func(tx *storage.Database) error {
		pending, err := tx.ListUncategorized(ctx)
		if err != nil {
			return err
		}
		engine := e.With(tx)
		assignments := make(map[uint]uint)
		for _, t := range pending {
			id, err := engine.Categorize(ctx, t.Description)
			if err != nil {
				return fmt.Errorf("transaction %d: %w", t.ID, err)
			}
			if id != nil {
				assignments[t.ID] = *id
			}
		}
		if err := tx.AssignCategories(ctx, assignments); err != nil {
			return err
		}
		result.TotalUncategorized = len(pending)
		result.Categorized = len(assignments)
		result.RemainingUncategorized = len(pending) - len(assignments)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to categorize transactions: %w", err)
	}

	e.log.Info().
		Int("total_uncategorized", result.TotalUncategorized).
		Int("categorized", result.Categorized).
		Msg("categorized pending transactions")
	return result, nil
}
