// Package storagetest opens throwaway sqlite databases for tests.
package storagetest

import (
	"path/filepath"
	"testing"

	"github.com/NgigiN/ledger/internal/storage"
)

// New returns a migrated database living in the test's temp dir.
func New(t testing.TB) *storage.Database {
	t.Helper()
	db, err := storage.NewDatabase("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
