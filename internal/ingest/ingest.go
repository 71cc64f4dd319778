package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/NgigiN/ledger/internal/categorize"
	"github.com/NgigiN/ledger/internal/statement"
	"github.com/NgigiN/ledger/internal/storage"
)

var ErrNoIDs = errors.New("no transaction ids provided")

// Options control where imported transactions land.
type Options struct {
	// OwnerID, when set, attaches every imported transaction to that owner.
	OwnerID *uint
}

// Report is the outcome of one import batch.
type Report struct {
	BatchID       string   `json:"batch_id"`
	TotalImported int      `json:"total_imported"`
	Successful    int      `json:"successful"`
	Failed        int      `json:"failed"`
	Errors        []string `json:"errors"`
}

type Service struct {
	db     *storage.Database
	engine *categorize.Engine
	log    zerolog.Logger
}

func NewService(db *storage.Database, engine *categorize.Engine, log zerolog.Logger) *Service {
	return &Service{db: db, engine: engine, log: log}
}

// ImportFile imports a .csv or .xlsx statement from disk.
func (s *Service) ImportFile(ctx context.Context, path string, opts Options) (*Report, error) {
	table, err := statement.Open(path)
	if err != nil {
		return nil, err
	}
	return s.Import(ctx, table, opts)
}

// ImportReader imports a statement whose format is taken from name.
func (s *Service) ImportReader(ctx context.Context, r io.Reader, name string, opts Options) (*Report, error) {
	table, err := statement.Read(r, name)
	if err != nil {
		return nil, err
	}
	return s.Import(ctx, table, opts)
}

// Import validates every row, categorizes the accepted ones and writes them
// in one database transaction. Rejected rows are reported and skipped;
// schema errors abort before anything is read from storage. Nothing is
// written when no row is accepted.
func (s *Service) Import(ctx context.Context, table *statement.Table, opts Options) (*Report, error) {
	batch, err := statement.Validate(table)
	if err != nil {
		return nil, err
	}

	report := &Report{
		BatchID:       uuid.NewString(),
		TotalImported: len(batch.Rows),
		Errors:        []string{},
	}
	log := s.log.With().Str("batch_id", report.BatchID).Logger()

	err = s.db.Transaction(ctx, func(tx *storage.Database) error {
		engine := s.engine.With(tx)
		staged := make([]storage.Transaction, 0, batch.Accepted())

		for _, row := range batch.Rows {
			if row.Err != nil {
				report.Errors = append(report.Errors, row.Err.Error())
				continue
			}
			rec := row.Record
			categoryID, err := engine.Categorize(ctx, rec.Description)
			if err != nil {
				return fmt.Errorf("row %d: %w", row.Line, err)
			}
			staged = append(staged, storage.Transaction{
				Date:        rec.Date,
				Description: rec.Description,
				Amount:      rec.Amount,
				Kind:        rec.Kind,
				RawText:     rec.RawText,
				CategoryID:  categoryID,
				OwnerID:     opts.OwnerID,
			})
		}

		if len(staged) == 0 {
			return nil
		}
		return tx.SaveTransactions(ctx, staged)
	})
	if err != nil {
		log.Error().Err(err).Msg("import rolled back")
		return nil, fmt.Errorf("failed to import statement: %w", err)
	}

	report.Successful = batch.Accepted()
	report.Failed = report.TotalImported - report.Successful
	log.Info().
		Int("total", report.TotalImported).
		Int("successful", report.Successful).
		Int("failed", report.Failed).
		Msg("statement imported")
	return report, nil
}

// Add stores a single record. Without an explicit category the record goes
// through the same categorization as imported rows.
func (s *Service) Add(ctx context.Context, rec *statement.Record, categoryID *uint, opts Options) (*storage.Transaction, error) {
	t := &storage.Transaction{
		Date:        rec.Date,
		Description: rec.Description,
		Amount:      rec.Amount,
		Kind:        rec.Kind,
		RawText:     rec.RawText,
		CategoryID:  categoryID,
		OwnerID:     opts.OwnerID,
	}
	err := s.db.Transaction(ctx, func(tx *storage.Database) error {
		if t.CategoryID == nil {
			id, err := s.engine.With(tx).Categorize(ctx, rec.Description)
			if err != nil {
				return err
			}
			t.CategoryID = id
		}
		return tx.SaveTransaction(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug().Uint("id", t.ID).Msg("transaction added")
	return t, nil
}

// Claim attaches the listed transactions to ownerID and returns how many
// were found.
func (s *Service) Claim(ctx context.Context, ownerID uint, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrNoIDs
	}
	unique := make([]uint, 0, len(ids))
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	var claimed int64
	err := s.db.Transaction(ctx, func(tx *storage.Database) error {
		n, err := tx.ClaimTransactions(ctx, ownerID, unique)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("no transactions found with the provided ids: %w", storage.ErrNotFound)
		}
		claimed = n
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Info().Uint("owner_id", ownerID).Int64("count", claimed).Msg("transactions claimed")
	return claimed, nil
}
