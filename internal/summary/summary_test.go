package summary

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"github.com/NgigiN/ledger/internal/storage"
	"github.com/NgigiN/ledger/internal/storage/storagetest"
)

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	db        *storage.Database
	svc       *Service
	owner     uint
	groceries *storage.Category
	dining    *storage.Category
	empty     *storage.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := storagetest.New(t)
	f := &fixture{db: db, svc: NewService(db), owner: 5}

	var err error
	if f.groceries, err = db.UpsertCategory(ctx, "Groceries", "g"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if f.dining, err = db.UpsertCategory(ctx, "Dining", "d"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if f.empty, err = db.UpsertCategory(ctx, "Travel", "t"); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	other := uint(6)
	add := func(date time.Time, amount string, kind storage.Kind, cat *storage.Category, owner *uint) storage.Transaction {
		tx := storage.Transaction{Date: date, Description: "x", Amount: decimal.RequireFromString(amount), Kind: kind, OwnerID: owner}
		if cat != nil {
			tx.CategoryID = &cat.ID
		}
		return tx
	}
	txs := []storage.Transaction{
		add(day(2024, 3, 2), "10", storage.KindDebit, f.groceries, &f.owner),
		add(day(2024, 3, 15), "20", storage.KindDebit, f.groceries, &f.owner),
		add(day(2024, 3, 31), "5", storage.KindDebit, f.groceries, &f.owner),
		add(day(2024, 3, 20), "1000", storage.KindCredit, f.groceries, &f.owner),
		add(day(2024, 4, 1), "12.40", storage.KindDebit, f.dining, &f.owner),
		add(day(2024, 4, 1), "7.60", storage.KindDebit, f.dining, &f.owner),
		add(day(2024, 4, 2), "99", storage.KindDebit, nil, &f.owner),
		add(day(2024, 3, 5), "500", storage.KindDebit, f.groceries, &other),
		add(day(2024, 3, 6), "300", storage.KindDebit, f.groceries, nil),
		add(day(2023, 3, 5), "70", storage.KindDebit, f.groceries, &f.owner),
	}
	if err := db.SaveTransactions(ctx, txs); err != nil {
		t.Fatalf("save: %v", err)
	}
	return f
}

func TestMonthly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.svc.Monthly(ctx, f.owner, 2024, nil)
	if err != nil {
		t.Fatalf("Monthly failed: %v", err)
	}
	want := Monthly{
		"March": {"Groceries": decimal.NewFromInt(35)},
		"April": {"Dining": decimal.NewFromInt(20)},
	}
	if diff := cmp.Diff(want, got, decimalEqual); diff != "" {
		t.Fatalf("monthly mismatch (-want +got):\n%s", diff)
	}

	march := 3
	got, err = f.svc.Monthly(ctx, f.owner, 2024, &march)
	if err != nil {
		t.Fatalf("Monthly(march) failed: %v", err)
	}
	if diff := cmp.Diff(Monthly{"March": {"Groceries": decimal.NewFromInt(35)}}, got, decimalEqual); diff != "" {
		t.Fatalf("march mismatch (-want +got):\n%s", diff)
	}

	bad := 13
	if _, err := f.svc.Monthly(ctx, f.owner, 2024, &bad); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}

	none, err := f.svc.Monthly(ctx, 999, 2024, nil)
	if err != nil || len(none) != 0 {
		t.Fatalf("expected empty summary for unknown owner, got %v, %v", none, err)
	}
}

func TestByCategoryOuterJoin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.svc.ByCategory(ctx, f.owner, Filter{})
	if err != nil {
		t.Fatalf("ByCategory failed: %v", err)
	}
	want := []CategoryTotal{
		{CategoryID: f.groceries.ID, CategoryName: "Groceries", Color: "g", TotalAmount: decimal.NewFromInt(1105), TransactionCount: 5},
		{CategoryID: f.dining.ID, CategoryName: "Dining", Color: "d", TotalAmount: decimal.NewFromInt(20), TransactionCount: 2},
		{CategoryID: f.empty.ID, CategoryName: "Travel", Color: "t", TotalAmount: decimal.Zero, TransactionCount: 0},
	}
	if diff := cmp.Diff(want, got, decimalEqual); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}

	got, err = f.svc.ByCategory(ctx, f.owner, Filter{Start: "2024-03-01", End: "2024-03-31", Kind: "debit"})
	if err != nil {
		t.Fatalf("filtered ByCategory failed: %v", err)
	}
	want = []CategoryTotal{
		{CategoryID: f.groceries.ID, CategoryName: "Groceries", Color: "g", TotalAmount: decimal.NewFromInt(35), TransactionCount: 3},
		{CategoryID: f.dining.ID, CategoryName: "Dining", Color: "d", TotalAmount: decimal.Zero, TransactionCount: 0},
		{CategoryID: f.empty.ID, CategoryName: "Travel", Color: "t", TotalAmount: decimal.Zero, TransactionCount: 0},
	}
	if diff := cmp.Diff(want, got, decimalEqual); diff != "" {
		t.Fatalf("filtered summary mismatch (-want +got):\n%s", diff)
	}
}

func TestByCategoryRejectsBadFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter Filter
		want   error
	}{
		{"us style start", Filter{Start: "03/01/2024"}, ErrInvalidDateFilter},
		{"garbage end", Filter{End: "soon"}, ErrInvalidDateFilter},
		{"unknown kind", Filter{Kind: "refund"}, ErrInvalidKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.ByCategory(ctx, f.owner, tt.filter); !errors.Is(err, tt.want) {
				t.Errorf("ByCategory(%+v) error = %v, want %v", tt.filter, err, tt.want)
			}
		})
	}
}
