package auth

import (
	"database/sql"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// testDB creates a temporary SQLite database with the grant schema applied.
// The database file is cleaned up when the test completes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "auth-test-*.db")
	if err != nil {
		t.Fatalf("creating temp db: %v", err)
	}
	dbPath := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(dbPath) })

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schemaSQL := `
		CREATE TABLE auth_grants (
			id           TEXT PRIMARY KEY,
			client_id    TEXT NOT NULL,
			redirect_uri TEXT NOT NULL,
			token_hash   TEXT NOT NULL DEFAULT '',
			expires_at   TEXT NOT NULL,
			created_at   TEXT NOT NULL
		);

		CREATE INDEX idx_auth_grants_expires_at ON auth_grants(expires_at);
	`
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("applying grant schema: %v", err)
	}

	return db
}
