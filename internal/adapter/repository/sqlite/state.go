// Package sqlite persists session snapshots in a local SQLite database.
// The snapshot is stored as a single JSON document in a key/value table,
// which keeps schema churn out of the way of the state shape.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/niarxxi/webmusic/internal/domain"
	"github.com/niarxxi/webmusic/internal/ports"
)

const snapshotKey = "player_state"

const schema = `
CREATE TABLE IF NOT EXISTS state (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

// StateRepository stores session snapshots in SQLite.
type StateRepository struct {
	logger *slog.Logger
	db     *sqlx.DB
}

// NewStateRepository opens (or creates) the database at dsn and applies the
// schema.
func NewStateRepository(logger *slog.Logger, dsn string) (*StateRepository, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, domain.NewRepositoryError("open", fmt.Sprintf("failed to open database %q", dsn), err)
	}

	// Set pragmas for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, domain.NewRepositoryError("open", "failed to set WAL mode", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=30000"); err != nil {
		db.Close()
		return nil, domain.NewRepositoryError("open", "failed to set busy timeout", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, domain.NewRepositoryError("open", fmt.Sprintf("failed to ping database %q", dsn), err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, domain.NewRepositoryError("open", "failed to apply schema", err)
	}

	return &StateRepository{
		logger: logger,
		db:     db,
	}, nil
}

// Save implements ports.StateRepository.
func (r *StateRepository) Save(snapshot domain.StateSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return domain.NewRepositoryError("save", "failed to encode snapshot", err)
	}

	query := `INSERT INTO state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	if _, err := r.db.Exec(query, snapshotKey, string(payload), time.Now().UTC()); err != nil {
		return domain.NewRepositoryError("save", "failed to write snapshot", err)
	}

	r.logger.Debug("snapshot saved", "bytes", len(payload))
	return nil
}

// Load implements ports.StateRepository. A database without a stored
// snapshot yields domain.ErrNoSnapshot.
func (r *StateRepository) Load() (domain.StateSnapshot, error) {
	var payload string
	err := r.db.Get(&payload, `SELECT value FROM state WHERE key = ?`, snapshotKey)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.StateSnapshot{}, domain.ErrNoSnapshot
	}
	if err != nil {
		return domain.StateSnapshot{}, domain.NewRepositoryError("load", "failed to read snapshot", err)
	}

	var snapshot domain.StateSnapshot
	if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
		return domain.StateSnapshot{}, domain.NewRepositoryError("load", "failed to decode snapshot", err)
	}

	return snapshot, nil
}

// Close releases the underlying database handle.
func (r *StateRepository) Close() error {
	return r.db.Close()
}

// Verify that StateRepository implements the StateRepository interface
var _ ports.StateRepository = (*StateRepository)(nil)
