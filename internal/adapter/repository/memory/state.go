// Package memory provides an in-memory StateRepository, useful for tests and
// for running without a database file.
package memory

import (
	"sync"

	"github.com/niarxxi/webmusic/internal/domain"
	"github.com/niarxxi/webmusic/internal/ports"
)

// StateRepository keeps the latest snapshot in memory.
type StateRepository struct {
	mu       sync.Mutex
	snapshot domain.StateSnapshot
	stored   bool

	saveErr error
	loadErr error
}

// NewStateRepository creates an empty repository.
func NewStateRepository() *StateRepository {
	return &StateRepository{}
}

// Save implements ports.StateRepository.
func (r *StateRepository) Save(snapshot domain.StateSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.saveErr != nil {
		return r.saveErr
	}

	r.snapshot = snapshot
	r.stored = true
	return nil
}

// Load implements ports.StateRepository.
func (r *StateRepository) Load() (domain.StateSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loadErr != nil {
		return domain.StateSnapshot{}, r.loadErr
	}
	if !r.stored {
		return domain.StateSnapshot{}, domain.ErrNoSnapshot
	}
	return r.snapshot, nil
}

// SetSaveErr makes subsequent Save calls fail with err (nil to clear).
func (r *StateRepository) SetSaveErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveErr = err
}

// SetLoadErr makes subsequent Load calls fail with err (nil to clear).
func (r *StateRepository) SetLoadErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadErr = err
}

// Stored reports whether a snapshot has been saved (for assertions).
func (r *StateRepository) Stored() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stored
}

// Verify that StateRepository implements the StateRepository interface
var _ ports.StateRepository = (*StateRepository)(nil)
