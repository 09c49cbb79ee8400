package ops

import (
	"context"
	"database/sql"
	"testing"

	"github.com/hpungsan/trak/internal/config"
	"github.com/hpungsan/trak/internal/db"
)

// testSetup creates a temporary database and config for testing.
func testSetup(t *testing.T) (*sql.DB, *config.Config, string) {
	t.Helper()

	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	return database, config.DefaultConfig(), tmpDir
}

func mustCreate(t *testing.T, database *sql.DB, cfg *config.Config, name string) string {
	t.Helper()
	out, err := Create(context.Background(), database, cfg, CreateInput{Name: name})
	if err != nil {
		t.Fatalf("Create %q failed: %v", name, err)
	}
	return out.ID
}

func stringPtr(s string) *string { return &s }
