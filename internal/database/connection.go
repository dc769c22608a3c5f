package database

import (
	"fmt"

	"interview-api/pkg/config"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// NewConnection opens the SQL database selected by the storage configuration.
// It must not be called for the in-memory store.
func NewConnection(cfg *config.Config) (*sqlx.DB, error) {
	driverName, dsn := cfg.GetStorageDSN()
	if driverName == "" {
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Storage.Type)
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(cfg.Storage.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Storage.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Storage.MaxLifetime)

	return db, nil
}
