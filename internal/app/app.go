// Package app wires configuration, storage and the pipeline services
// together for the command line and the Discord bot.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/NgigiN/ledger/internal/categorize"
	"github.com/NgigiN/ledger/internal/config"
	"github.com/NgigiN/ledger/internal/dedupe"
	"github.com/NgigiN/ledger/internal/ingest"
	"github.com/NgigiN/ledger/internal/logger"
	"github.com/NgigiN/ledger/internal/storage"
	"github.com/NgigiN/ledger/internal/summary"
)

type App struct {
	Config  *config.Config
	Log     zerolog.Logger
	DB      *storage.Database
	Engine  *categorize.Engine
	Ingest  *ingest.Service
	Dedupe  *dedupe.Engine
	Summary *summary.Service
}

func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	rules := categorize.DefaultRules()
	if cfg.RulesFile != "" {
		loaded, err := categorize.LoadRules(cfg.RulesFile)
		if err != nil {
			return nil, err
		}
		rules = loaded
	}

	db, err := storage.NewDatabase(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize the database: %w", err)
	}
	seeded, err := categorize.Seed(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	if seeded > 0 {
		log.Info().Int("count", seeded).Msg("seeded default categories")
	}

	engine := categorize.New(db, rules, logger.Component(log, "categorize"))
	return &App{
		Config:  cfg,
		Log:     log,
		DB:      db,
		Engine:  engine,
		Ingest:  ingest.NewService(db, engine, logger.Component(log, "ingest")),
		Dedupe:  dedupe.New(db, logger.Component(log, "dedupe")),
		Summary: summary.NewService(db),
	}, nil
}

func (a *App) Close() error {
	return a.DB.Close()
}
