// Package cli is the ledger command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/NgigiN/ledger/internal/app"
	"github.com/NgigiN/ledger/internal/config"
	"github.com/NgigiN/ledger/internal/logger"
)

type options struct {
	verbose bool
}

func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "ledger",
		Short: "Import, categorize and summarize bank statement transactions",
		Long: `ledger imports bank statements (.csv or .xlsx), assigns every transaction
a category from its history or a keyword table, removes duplicates and
reports spending per month and per category.

Configuration is read from the environment and an optional .env file:
  DATABASE_DRIVER   sqlite (default) or postgres
  DATABASE_DSN      sqlite file or postgres DSN (default transaction.db)
  RULES_FILE        YAML keyword rules replacing the built-in table
  LOG_LEVEL         debug, info, warn or error
  LOG_FORMAT        console or json`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newImportCmd(opts),
		newCategorizeCmd(opts),
		newDedupeCmd(opts),
		newClaimCmd(opts),
		newSummaryCmd(opts),
		newCategoriesCmd(opts),
		newTransactionsCmd(opts),
		newBotCmd(opts),
	)
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// withApp builds the application for one command run and closes it after.
func withApp(opts *options, fn func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if opts.verbose {
			cfg.LogLevel = "debug"
		}
		log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

		ctx := logger.WithContext(cmd.Context(), log)
		a, err := app.New(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(ctx, cmd, a, args)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
