package discord

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/NgigiN/ledger/internal/ingest"
	"github.com/NgigiN/ledger/internal/summary"
)

// Discord rejects messages over 2000 characters.
const maxListedErrors = 10

// ownerID maps a Discord user snowflake to the owner id stored on
// transactions.
func ownerID(userID string) (uint, error) {
	id, err := strconv.ParseUint(userID, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid user id %q", userID)
	}
	return uint(id), nil
}

func parseIDs(args []string) ([]uint, error) {
	if len(args) == 0 {
		return nil, errors.New("no transaction ids given")
	}
	ids := make([]uint, 0, len(args))
	for _, a := range args {
		for _, part := range strings.Split(a, ",") {
			if part == "" {
				continue
			}
			id, err := strconv.ParseUint(part, 10, 64)
			if err != nil || id == 0 {
				return nil, fmt.Errorf("invalid transaction id %q", part)
			}
			ids = append(ids, uint(id))
		}
	}
	if len(ids) == 0 {
		return nil, errors.New("no transaction ids given")
	}
	return ids, nil
}

func parseMonthlyArgs(args []string) (int, *int, error) {
	if len(args) == 0 || len(args) > 2 {
		return 0, nil, errors.New("expected a year and an optional month")
	}
	year, err := strconv.Atoi(args[0])
	if err != nil || year < 1 {
		return 0, nil, fmt.Errorf("invalid year %q", args[0])
	}
	if len(args) == 1 {
		return year, nil, nil
	}
	month, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, nil, fmt.Errorf("invalid month %q", args[1])
	}
	return year, &month, nil
}

func formatReport(source string, r *ingest.Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 **Import of %s complete**\n", source)
	fmt.Fprintf(&sb, "✅ **Successfully processed**: %d transactions\n", r.Successful)

	if r.Failed > 0 {
		fmt.Fprintf(&sb, "❌ **Failed**: %d transactions\n", r.Failed)
		sb.WriteString("**Errors:**\n")
		for i, e := range r.Errors {
			if i == maxListedErrors {
				fmt.Fprintf(&sb, "... and %d more\n", len(r.Errors)-maxListedErrors)
				break
			}
			fmt.Fprintf(&sb, "• %s\n", e)
		}
	}
	if r.BatchID != "" {
		fmt.Fprintf(&sb, "Batch: `%s`", r.BatchID)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatCategorySummary(totals []summary.CategoryTotal) string {
	var sb strings.Builder
	sb.WriteString("📊 **Category Summary**\n\n")

	total := decimal.Zero
	var count int64
	for _, c := range totals {
		if c.TransactionCount == 0 {
			continue
		}
		fmt.Fprintf(&sb, "**%s**: %s (%d transactions)\n", c.CategoryName, c.TotalAmount.StringFixed(2), c.TransactionCount)
		total = total.Add(c.TotalAmount)
		count += c.TransactionCount
	}
	if count == 0 {
		return "No transactions found."
	}

	fmt.Fprintf(&sb, "\n**Total**: %s (%d transactions)", total.StringFixed(2), count)
	return sb.String()
}

func formatMonthly(year int, m summary.Monthly) string {
	if len(m) == 0 {
		return fmt.Sprintf("No spending found for %d.", year)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 **Spending in %d**\n", year)

	for month := time.January; month <= time.December; month++ {
		cats, ok := m[month.String()]
		if !ok {
			continue
		}
		names := make([]string, 0, len(cats))
		for name := range cats {
			names = append(names, name)
		}
		slices.Sort(names)

		total := decimal.Zero
		fmt.Fprintf(&sb, "\n**%s**\n", month)
		for _, name := range names {
			fmt.Fprintf(&sb, "• %s: %s\n", name, cats[name].StringFixed(2))
			total = total.Add(cats[name])
		}
		fmt.Fprintf(&sb, "Total: %s\n", total.StringFixed(2))
	}
	return strings.TrimRight(sb.String(), "\n")
}
