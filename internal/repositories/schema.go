package repositories

import (
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS tokens (
	id TEXT PRIMARY KEY,
	service TEXT NOT NULL UNIQUE,
	access_token TEXT NOT NULL,
	refresh_token TEXT,
	token_type TEXT NOT NULL DEFAULT 'Bearer',
	expiry DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tokens_service ON tokens(service);
`

// Migrate creates the token cache schema if it does not exist. Idempotent.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
