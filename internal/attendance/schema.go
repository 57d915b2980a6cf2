package attendance

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate creates the relational schema when it does not exist yet. Each
// statement is idempotent so startup can always run it.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sections (
			id   BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id         BIGSERIAL PRIMARY KEY,
			name       TEXT NOT NULL UNIQUE,
			section_id BIGINT REFERENCES sections(id)
		)`,
		`CREATE TABLE IF NOT EXISTS attendance (
			id            UUID PRIMARY KEY,
			user_id       BIGINT NOT NULL REFERENCES users(id),
			date          DATE NOT NULL,
			morning_in    TIMESTAMPTZ,
			morning_out   TIMESTAMPTZ,
			afternoon_in  TIMESTAMPTZ,
			afternoon_out TIMESTAMPTZ,
			UNIQUE (user_id, date)
		)`,
		`CREATE TABLE IF NOT EXISTS admins (
			id            BIGSERIAL PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS attendance_date_idx ON attendance (date)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
