package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/NgigiN/ledger/internal/categorize"
	"github.com/NgigiN/ledger/internal/storage"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_DSN", filepath.Join(dir, "cli.db"))
	t.Setenv("RULES_FILE", "")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FORMAT", "json")
	return dir
}

func run(t *testing.T, args ...string) []byte {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		t.Fatalf("ledger %v: %v\n%s", args, err, out.String())
	}
	return out.Bytes()
}

func TestImportThenSummarize(t *testing.T) {
	dir := setupEnv(t)
	path := filepath.Join(dir, "march.csv")
	csv := "Date,Description,Amount\n" +
		"2024-03-02,KROGER #1,-25.00\n" +
		"2024-03-02,KROGER #1,-25.00\n" +
		"03/15/2024,Shell Oil,-40.10\n" +
		"bad,Nothing,-1\n" +
		"2024-03-20,Payroll ACME,2000\n"
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	var report struct {
		TotalImported int      `json:"total_imported"`
		Successful    int      `json:"successful"`
		Failed        int      `json:"failed"`
		Errors        []string `json:"errors"`
	}
	if err := json.Unmarshal(run(t, "import", "--owner", "9", path), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.TotalImported != 5 || report.Successful != 4 || report.Failed != 1 || len(report.Errors) != 1 {
		t.Fatalf("unexpected report %+v", report)
	}

	var dedupe struct {
		GroupsFound int   `json:"groups_found"`
		RowsDeleted int64 `json:"rows_deleted"`
	}
	if err := json.Unmarshal(run(t, "dedupe"), &dedupe); err != nil {
		t.Fatalf("decode dedupe: %v", err)
	}
	if dedupe.GroupsFound != 1 || dedupe.RowsDeleted != 1 {
		t.Fatalf("unexpected dedupe report %+v", dedupe)
	}

	var monthly map[string]map[string]string
	if err := json.Unmarshal(run(t, "summary", "monthly", "--owner", "9", "--year", "2024"), &monthly); err != nil {
		t.Fatalf("decode monthly: %v", err)
	}
	want := map[string]map[string]string{
		"March": {"Groceries": "25", "Transportation": "40.1"},
	}
	if diff := cmp.Diff(want, monthly); diff != "" {
		t.Fatalf("monthly mismatch (-want +got):\n%s", diff)
	}
}

func TestClaimRequiresOwner(t *testing.T) {
	setupEnv(t)
	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"claim", "1"})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected error without --owner")
	}
}

func TestParseIDArgs(t *testing.T) {
	ids, err := parseIDArgs([]string{"3", "8"})
	if err != nil {
		t.Fatalf("parseIDArgs: %v", err)
	}
	if diff := cmp.Diff([]uint{3, 8}, ids); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	if _, err := parseIDArgs([]string{"x"}); err == nil {
		t.Fatalf("expected error for non-numeric id")
	}
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return v
}

func TestCategoryAndTransactionCommands(t *testing.T) {
	setupEnv(t)

	pets := decode[storage.Category](t, run(t, "categories", "create", "Pets"))
	if pets.ID == 0 || pets.Color != categorize.Color("Pets") {
		t.Fatalf("unexpected category %+v", pets)
	}
	renamed := decode[storage.Category](t, run(t, "categories", "update", fmt.Sprint(pets.ID), "--name", "Animals"))
	if renamed.Name != "Animals" || renamed.Color != pets.Color {
		t.Fatalf("unexpected update %+v", renamed)
	}

	vet := decode[storage.Transaction](t, run(t, "transactions", "add",
		"--date", "2024-3-5", "--description", "Vet visit", "--amount", "-80", "--owner", "3", "--category", fmt.Sprint(pets.ID)))
	if vet.CategoryID == nil || *vet.CategoryID != pets.ID || vet.Kind != storage.KindDebit || vet.Amount.String() != "80" {
		t.Fatalf("unexpected transaction %+v", vet)
	}
	coffee := decode[storage.Transaction](t, run(t, "tx", "add", "--date", "2024-03-06", "--description", "STARBUCKS 12", "--amount", "-5"))
	if coffee.CategoryID == nil {
		t.Fatalf("expected the new transaction to be categorized")
	}

	listed := decode[[]storage.Transaction](t, run(t, "tx", "list", "--owner", "3"))
	if len(listed) != 1 || listed[0].ID != vet.ID {
		t.Fatalf("unexpected list %+v", listed)
	}

	cleared := decode[storage.Transaction](t, run(t, "tx", "set-category", fmt.Sprint(vet.ID), "none"))
	if cleared.CategoryID != nil {
		t.Fatalf("expected category cleared, got %v", *cleared.CategoryID)
	}
	run(t, "tx", "set-category", fmt.Sprint(vet.ID), fmt.Sprint(pets.ID))

	run(t, "categories", "delete", fmt.Sprint(pets.ID))
	shown := decode[storage.Transaction](t, run(t, "tx", "show", fmt.Sprint(vet.ID)))
	if shown.CategoryID != nil {
		t.Fatalf("expected transaction detached from deleted category")
	}

	run(t, "tx", "delete", fmt.Sprint(vet.ID))
	if err := runErr(t, "tx", "show", fmt.Sprint(vet.ID)); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestTransactionAddRejectsBadAmount(t *testing.T) {
	setupEnv(t)
	err := runErr(t, "tx", "add", "--date", "2024-03-06", "--description", "x", "--amount", "lots")
	if err == nil || !strings.Contains(err.Error(), "invalid amount") {
		t.Fatalf("expected invalid amount error, got %v", err)
	}
}

func runErr(t *testing.T, args ...string) error {
	t.Helper()
	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	return root.Execute()
}
