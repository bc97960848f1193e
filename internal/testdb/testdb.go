//go:build integration

// Package testdb opens the PostgreSQL database used by integration tests.
//
// The database URL is read from DATABASE_URL, CHECKLIST_TEST_DB_URL or
// CHECKLIST_DATABASE_URL, in that order. Without one the calling test is
// skipped, except in CI where a missing database is a failure.
package testdb

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/phrazzld/checklist-api/internal/redact"
)

var urlVars = []string{"DATABASE_URL", "CHECKLIST_TEST_DB_URL", "CHECKLIST_DATABASE_URL"}

// DatabaseURL returns the first database URL found in the environment.
func DatabaseURL() string {
	for _, name := range urlVars {
		if url := os.Getenv(name); url != "" {
			return url
		}
	}
	return ""
}

// isCIEnvironment reports whether the tests run under a CI system.
func isCIEnvironment() bool {
	for _, name := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI"} {
		if os.Getenv(name) != "" {
			return true
		}
	}
	return false
}

// Open connects to the test database and closes it when the test ends.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	url := DatabaseURL()
	if url == "" {
		if isCIEnvironment() {
			t.Fatal("no test database URL set in CI")
		}
		t.Skip("no test database URL set")
	}

	db, err := sql.Open("pgx", url)
	if err != nil {
		t.Fatalf("open test database: %s", redact.Error(err))
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("ping test database %s: %s", redact.String(url), redact.Error(err))
	}

	slog.Debug("test database ready", "url", redact.String(url))
	return db
}

// Reset deletes every stored checklist.
func Reset(t *testing.T, db *sql.DB) {
	t.Helper()
	if _, err := db.ExecContext(context.Background(), "DELETE FROM checklists"); err != nil {
		t.Fatalf("reset test database: %s", redact.Error(err))
	}
}
