package repositories

import (
	"context"
	"sync"
	"time"

	"interview-api/internal/database"
)

// MemoryCandidateRepository keeps candidates in process memory. Nothing survives a restart.
type MemoryCandidateRepository struct {
	mu         sync.RWMutex
	candidates []database.Candidate
	nextID     int64
}

func NewMemoryCandidateRepository() *MemoryCandidateRepository {
	return &MemoryCandidateRepository{nextID: 1}
}

// List returns a snapshot of the current candidates
func (r *MemoryCandidateRepository) List(ctx context.Context) ([]database.Candidate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]database.Candidate, len(r.candidates))
	copy(out, r.candidates)
	return out, nil
}

func (r *MemoryCandidateRepository) Add(ctx context.Context, candidate database.Candidate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	candidate.ID = r.nextID
	candidate.CreatedAt = now
	candidate.UpdatedAt = now
	r.nextID++

	r.candidates = append(r.candidates, candidate)
	return nil
}

func (r *MemoryCandidateRepository) UpdateDesignation(ctx context.Context, name, designation string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(name)
	if idx < 0 {
		return ErrCandidateNotFound
	}

	r.candidates[idx].Designation = designation
	r.candidates[idx].UpdatedAt = time.Now()
	return nil
}

// Delete removes the first candidate with the given name by moving the last
// element into its slot, so ordering is not preserved.
func (r *MemoryCandidateRepository) Delete(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(name)
	if idx < 0 {
		return ErrCandidateNotFound
	}

	last := len(r.candidates) - 1
	r.candidates[idx] = r.candidates[last]
	r.candidates[last] = database.Candidate{}
	r.candidates = r.candidates[:last]
	return nil
}

func (r *MemoryCandidateRepository) Ping(ctx context.Context) error {
	return nil
}

// indexOf must be called with the lock held
func (r *MemoryCandidateRepository) indexOf(name string) int {
	for i := range r.candidates {
		if r.candidates[i].Name == name {
			return i
		}
	}
	return -1
}
