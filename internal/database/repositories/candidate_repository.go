package repositories

import (
	"context"
	"errors"
	"fmt"

	"interview-api/internal/database"

	"github.com/jmoiron/sqlx"
)

// ErrCandidateNotFound is returned when no candidate carries the requested name
var ErrCandidateNotFound = errors.New("candidate not found")

// CandidateRepository stores candidates in a SQL database (sqlite or postgres)
type CandidateRepository struct {
	db *sqlx.DB
}

func NewCandidateRepository(db *sqlx.DB) *CandidateRepository {
	return &CandidateRepository{db: db}
}

// List returns every candidate in insertion order
func (r *CandidateRepository) List(ctx context.Context) ([]database.Candidate, error) {
	query := `
        SELECT id, name, designation, created_at, updated_at
        FROM candidates
        ORDER BY id ASC
    `
	out := []database.Candidate{}
	if err := r.db.SelectContext(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return out, nil
}

// Add appends a candidate. Names are not unique.
func (r *CandidateRepository) Add(ctx context.Context, candidate database.Candidate) error {
	query := r.db.Rebind(`
        INSERT INTO candidates (name, designation)
        VALUES (?, ?)
    `)
	if _, err := r.db.ExecContext(ctx, query, candidate.Name, candidate.Designation); err != nil {
		return fmt.Errorf("add candidate: %w", err)
	}
	return nil
}

// UpdateDesignation changes the designation of the first candidate with the given name
func (r *CandidateRepository) UpdateDesignation(ctx context.Context, name, designation string) error {
	query := r.db.Rebind(`
        UPDATE candidates
        SET designation = ?, updated_at = CURRENT_TIMESTAMP
        WHERE id = (SELECT MIN(id) FROM candidates WHERE name = ?)
    `)
	result, err := r.db.ExecContext(ctx, query, designation, name)
	if err != nil {
		return fmt.Errorf("update candidate: %w", err)
	}
	return requireAffected(result.RowsAffected())
}

// Delete removes the first candidate with the given name
func (r *CandidateRepository) Delete(ctx context.Context, name string) error {
	query := r.db.Rebind(`
        DELETE FROM candidates
        WHERE id = (SELECT MIN(id) FROM candidates WHERE name = ?)
    `)
	result, err := r.db.ExecContext(ctx, query, name)
	if err != nil {
		return fmt.Errorf("delete candidate: %w", err)
	}
	return requireAffected(result.RowsAffected())
}

// Ping reports whether the database is reachable
func (r *CandidateRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func requireAffected(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCandidateNotFound
	}
	return nil
}
