package cli

import (
	"context"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/NgigiN/ledger/internal/app"
	"github.com/NgigiN/ledger/internal/discord"
	"github.com/NgigiN/ledger/internal/ingest"
	"github.com/NgigiN/ledger/internal/logger"
	"github.com/NgigiN/ledger/internal/summary"
)

func newImportCmd(opts *options) *cobra.Command {
	var owner uint
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a .csv or .xlsx statement",
		Long: `Import validates every row of the statement, categorizes the accepted
rows and stores them in a single transaction. Rejected rows are listed in
the report with their spreadsheet row number.`,
		Args: cobra.ExactArgs(1),
	}
	cmd.RunE = withApp(opts, func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
		var o ingest.Options
		if owner != 0 {
			o.OwnerID = &owner
		}
		report, err := a.Ingest.ImportFile(ctx, args[0], o)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), report)
	})
	cmd.Flags().UintVar(&owner, "owner", 0, "Owner id attached to every imported transaction")
	return cmd
}

func newCategorizeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categorize",
		Short: "Categorize every transaction without a category",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = withApp(opts, func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
		res, err := a.Engine.CategorizeUncategorized(ctx, a.DB)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), res)
	})
	return cmd
}

func newDedupeCmd(opts *options) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Remove transactions sharing date, description and amount",
		Long: `Dedupe keeps the lowest id of every group of transactions with the same
date, description and amount and deletes the rest. Category, owner and raw
text of the deleted rows are lost; use --dry-run to list the groups first.`,
		Args: cobra.NoArgs,
	}
	cmd.RunE = withApp(opts, func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
		if dryRun {
			groups, err := a.Dedupe.Preview(ctx)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), groups)
		}
		report, err := a.Dedupe.Run(ctx)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), report)
	})
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List duplicate groups without deleting anything")
	return cmd
}

func newClaimCmd(opts *options) *cobra.Command {
	var owner uint
	cmd := &cobra.Command{
		Use:   "claim <id>...",
		Short: "Attach transactions to an owner",
		Args:  cobra.MinimumNArgs(1),
	}
	cmd.RunE = withApp(opts, func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
		ids, err := parseIDArgs(args)
		if err != nil {
			return err
		}
		n, err := a.Ingest.Claim(ctx, owner, ids)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), map[string]any{"owner_id": owner, "claimed": n})
	})
	cmd.Flags().UintVar(&owner, "owner", 0, "Owner id to attach")
	cmd.MarkFlagRequired("owner")
	return cmd
}

func parseIDArgs(args []string) ([]uint, error) {
	ids := make([]uint, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseUint(a, 10, 64)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("invalid transaction id %q", a)
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

func newSummaryCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Spending reports",
	}
	cmd.AddCommand(newMonthlyCmd(opts), newCategorySummaryCmd(opts))
	return cmd
}

func newMonthlyCmd(opts *options) *cobra.Command {
	var (
		owner uint
		year  int
		month int
	)
	cmd := &cobra.Command{
		Use:   "monthly",
		Short: "Debits per month and category for one owner",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = withApp(opts, func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
		var m *int
		if cmd.Flags().Changed("month") {
			m = &month
		}
		out, err := a.Summary.Monthly(ctx, owner, year, m)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), out)
	})
	cmd.Flags().UintVar(&owner, "owner", 0, "Owner id")
	cmd.Flags().IntVar(&year, "year", 0, "Calendar year")
	cmd.Flags().IntVar(&month, "month", 0, "Month number 1-12")
	cmd.MarkFlagRequired("owner")
	cmd.MarkFlagRequired("year")
	return cmd
}

func newCategorySummaryCmd(opts *options) *cobra.Command {
	var (
		owner uint
		f     summary.Filter
	)
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Totals per category for one owner, including empty categories",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = withApp(opts, func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
		out, err := a.Summary.ByCategory(ctx, owner, f)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), out)
	})
	cmd.Flags().UintVar(&owner, "owner", 0, "Owner id")
	cmd.Flags().StringVar(&f.Start, "start", "", "Inclusive start date, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.End, "end", "", "Inclusive end date, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.Kind, "kind", "", "Only debit or credit transactions")
	cmd.MarkFlagRequired("owner")
	return cmd
}

func newBotCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Run the Discord bot",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = withApp(opts, func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
		bot, err := discord.NewBot(a)
		if err != nil {
			return fmt.Errorf("failed to initialize the discord bot: %w", err)
		}
		if err := bot.Start(); err != nil {
			return fmt.Errorf("failed to start bot: %w", err)
		}

		log := logger.FromContext(ctx)
		log.Info().Str("health_addr", a.Config.HealthAddr).Msg("bot is running")
		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()

		bot.Stop()
		log.Info().Msg("bot stopped")
		return nil
	})
	return cmd
}
