package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// RunMigrations executes database migrations for the connected driver
func RunMigrations(db *sqlx.DB) error {
	var migrations []string
	switch db.DriverName() {
	case "postgres":
		migrations = []string{createCandidatesTablePostgres, createCandidateIndices}
	default:
		migrations = []string{createCandidatesTableSQLite, createCandidateIndices}
	}

	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}

const createCandidatesTableSQLite = `
CREATE TABLE IF NOT EXISTS candidates (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    designation TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`

const createCandidatesTablePostgres = `
CREATE TABLE IF NOT EXISTS candidates (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    designation TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`

const createCandidateIndices = `
CREATE INDEX IF NOT EXISTS idx_candidates_name ON candidates(name);
`
