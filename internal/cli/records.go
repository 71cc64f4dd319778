package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/NgigiN/ledger/internal/app"
	"github.com/NgigiN/ledger/internal/categorize"
	"github.com/NgigiN/ledger/internal/ingest"
	"github.com/NgigiN/ledger/internal/statement"
	"github.com/NgigiN/ledger/internal/storage"
	"github.com/NgigiN/ledger/internal/summary"
)

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return uint(id), nil
}

func newCategoriesCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List and manage categories",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = withApp(opts, func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
		categories, err := a.DB.ListCategories(ctx)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), categories)
	})

	var color string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a category; the color defaults to one derived from the name",
		Args:  cobra.ExactArgs(1),
	}
	create.RunE = withApp(opts, func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
		c := &storage.Category{Name: args[0], Color: color}
		if c.Color == "" {
			c.Color = categorize.Color(c.Name)
		}
		if err := a.DB.CreateCategory(ctx, c); err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), c)
	})
	create.Flags().StringVar(&color, "color", "", "CSS color, e.g. hsl(120, 70%, 50%)")

	var name, newColor string
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename or recolor a category",
		Args:  cobra.ExactArgs(1),
	}
	update.RunE = withApp(opts, func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if name == "" && newColor == "" {
			return fmt.Errorf("nothing to update: pass --name or --color")
		}
		c, err := a.DB.UpdateCategory(ctx, id, name, newColor)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), c)
	})
	update.Flags().StringVar(&name, "name", "", "New name")
	update.Flags().StringVar(&newColor, "color", "", "New color")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category; its transactions become uncategorized",
		Args:  cobra.ExactArgs(1),
	}
	del.RunE = withApp(opts, func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := a.DB.DeleteCategory(ctx, id); err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), map[string]any{"deleted": id})
	})

	cmd.AddCommand(create, update, del)
	return cmd
}

func newTransactionsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "Inspect and edit individual transactions",
	}
	cmd.AddCommand(
		newTxListCmd(opts),
		newTxShowCmd(opts),
		newTxAddCmd(opts),
		newTxSetCategoryCmd(opts),
		newTxDeleteCmd(opts),
	)
	return cmd
}

func newTxListCmd(opts *options) *cobra.Command {
	var (
		owner, category uint
		start, end      string
		f               storage.TransactionFilter
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = withApp(opts, func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
		if cmd.Flags().Changed("owner") {
			f.OwnerID = &owner
		}
		if cmd.Flags().Changed("category") {
			f.CategoryID = &category
		}
		for _, d := range []struct {
			raw string
			dst **time.Time
		}{{start, &f.Start}, {end, &f.End}} {
			if d.raw == "" {
				continue
			}
			t, err := summary.ParseFilterDate(d.raw)
			if err != nil {
				return err
			}
			*d.dst = &t
		}
		txs, err := a.DB.ListTransactions(ctx, f)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), txs)
	})
	cmd.Flags().UintVar(&owner, "owner", 0, "Only this owner's transactions")
	cmd.Flags().UintVar(&category, "category", 0, "Only transactions in this category")
	cmd.Flags().StringVar(&start, "start", "", "Inclusive start date, YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "Inclusive end date, YYYY-MM-DD")
	cmd.Flags().IntVar(&f.Limit, "limit", 100, "Maximum number of transactions")
	cmd.Flags().IntVar(&f.Offset, "offset", 0, "Number of transactions to skip")
	return cmd
}

func newTxShowCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one transaction",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = withApp(opts, func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		t, err := a.DB.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), t)
	})
	return cmd
}

func newTxAddCmd(opts *options) *cobra.Command {
	var (
		date, description, amount, rawText string
		owner, category                    uint
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a single transaction",
		Long: `Add checks the entry with the same rules as an imported row: a negative
amount is a debit, a positive one a credit. Without --category the
transaction is categorized like an imported one.`,
		Args: cobra.NoArgs,
	}
	cmd.RunE = withApp(opts, func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
		rec, err := statement.ParseRecord(date, description, amount, rawText)
		if err != nil {
			return err
		}
		var o ingest.Options
		if cmd.Flags().Changed("owner") {
			o.OwnerID = &owner
		}
		var categoryID *uint
		if cmd.Flags().Changed("category") {
			categoryID = &category
		}
		t, err := a.Ingest.Add(ctx, rec, categoryID, o)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), t)
	})
	cmd.Flags().StringVar(&date, "date", "", "Date as YYYY-MM-DD, MM/DD/YYYY or DD/MM/YYYY")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringVar(&amount, "amount", "", "Signed amount, negative for money spent")
	cmd.Flags().StringVar(&rawText, "raw-text", "", "Original statement text")
	cmd.Flags().UintVar(&owner, "owner", 0, "Owner id")
	cmd.Flags().UintVar(&category, "category", 0, "Category id")
	cmd.MarkFlagRequired("date")
	cmd.MarkFlagRequired("description")
	cmd.MarkFlagRequired("amount")
	return cmd
}

func newTxSetCategoryCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-category <id> <category-id|none>",
		Short: "Assign or clear the category of a transaction",
		Args:  cobra.ExactArgs(2),
	}
	cmd.RunE = withApp(opts, func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		var categoryID *uint
		if args[1] != "none" {
			c, err := parseID(args[1])
			if err != nil {
				return err
			}
			categoryID = &c
		}
		if err := a.DB.SetCategory(ctx, id, categoryID); err != nil {
			return err
		}
		t, err := a.DB.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), t)
	})
	return cmd
}

func newTxDeleteCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one transaction",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = withApp(opts, func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := a.DB.DeleteTransaction(ctx, id); err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), map[string]any{"deleted": id})
	})
	return cmd
}
