package sensor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Metadata is the persisted, user-editable part of a unit: its display
// name and location. Hardware identity (pin, 1-wire id) stays in config.
type Metadata struct {
	Name     string
	Location string
}

// MetadataRepository persists unit metadata across restarts.
type MetadataRepository interface {
	// Get returns the stored metadata for a unit, or nil if none exists.
	Get(ctx context.Context, family, key string) (*Metadata, error)

	// Save inserts or replaces the stored metadata for a unit.
	Save(ctx context.Context, family, key string, meta Metadata) error
}

// SQLiteMetadataRepository implements MetadataRepository using SQLite.
type SQLiteMetadataRepository struct {
	db *sql.DB
}

// NewSQLiteMetadataRepository creates a repository on an open database.
func NewSQLiteMetadataRepository(db *sql.DB) *SQLiteMetadataRepository {
	return &SQLiteMetadataRepository{db: db}
}

// Get returns the stored metadata for a unit, or nil if none exists.
func (r *SQLiteMetadataRepository) Get(ctx context.Context, family, key string) (*Metadata, error) {
	var meta Metadata
	err := r.db.QueryRowContext(ctx,
		"SELECT name, location FROM sensor_metadata WHERE family = ? AND key = ?",
		family, key,
	).Scan(&meta.Name, &meta.Location)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying sensor metadata: %w", err)
	}
	return &meta, nil
}

// Save inserts or replaces the stored metadata for a unit.
func (r *SQLiteMetadataRepository) Save(ctx context.Context, family, key string, meta Metadata) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sensor_metadata (family, key, name, location, updated_at)
		 VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(family, key) DO UPDATE SET
		   name = excluded.name,
		   location = excluded.location,
		   updated_at = CURRENT_TIMESTAMP`,
		family, key, meta.Name, meta.Location,
	)
	if err != nil {
		return fmt.Errorf("saving sensor metadata: %w", err)
	}
	return nil
}
