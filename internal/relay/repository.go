package relay

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// StateRepository persists logical relay state across restarts.
type StateRepository interface {
	// Get returns the stored state for a relay id. ok is false when no
	// state has ever been stored.
	Get(ctx context.Context, id string) (on bool, ok bool, err error)

	// Save inserts or replaces the stored state for a relay id.
	Save(ctx context.Context, id string, on bool) error
}

// SQLiteStateRepository implements StateRepository using SQLite.
type SQLiteStateRepository struct {
	db *sql.DB
}

// NewSQLiteStateRepository creates a repository on an open database.
func NewSQLiteStateRepository(db *sql.DB) *SQLiteStateRepository {
	return &SQLiteStateRepository{db: db}
}

// Get returns the stored state for a relay id.
func (r *SQLiteStateRepository) Get(ctx context.Context, id string) (bool, bool, error) {
	var state int
	err := r.db.QueryRowContext(ctx,
		"SELECT state FROM relay_states WHERE id = ?", id,
	).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("querying relay state: %w", err)
	}
	return state != 0, true, nil
}

// Save inserts or replaces the stored state for a relay id.
func (r *SQLiteStateRepository) Save(ctx context.Context, id string, on bool) error {
	state := 0
	if on {
		state = 1
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO relay_states (id, state, updated_at)
		 VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(id) DO UPDATE SET
		   state = excluded.state,
		   updated_at = CURRENT_TIMESTAMP`,
		id, state,
	)
	if err != nil {
		return fmt.Errorf("saving relay state: %w", err)
	}
	return nil
}
