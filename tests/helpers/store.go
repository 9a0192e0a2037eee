package helpers

import (
	"testing"

	"github.com/82deutschmark/MagicalFarmStories/internal/repository"
)

// NewTestSQLiteStore returns a migrated in-memory store closed at test cleanup.
func NewTestSQLiteStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()

	s, err := repository.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}
