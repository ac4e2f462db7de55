package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"skydeck/flightdeck/internal/models"
)

const directorySchema = `
CREATE TABLE IF NOT EXISTS directory_airports (
	iata       TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	fetched_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS directory_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

const metaKeyLastFullRefresh = "last_full_refresh"

// DirectoryRepository persists the airport directory cache on raw SQL.
// Entries are only replaced, never evicted on read pressure.
type DirectoryRepository struct {
	db *sqlx.DB
}

// NewDirectoryRepository creates the repository and ensures the schema exists.
func NewDirectoryRepository(db *sqlx.DB) (*DirectoryRepository, error) {
	if _, err := db.Exec(directorySchema); err != nil {
		return nil, fmt.Errorf("failed to create directory schema: %w", err)
	}
	return &DirectoryRepository{db: db}, nil
}

// Get returns the cached entry for an IATA code, or nil on miss.
func (r *DirectoryRepository) Get(ctx context.Context, iata string) (*models.DirectoryEntry, error) {
	var payload string
	err := r.db.GetContext(ctx, &payload,
		r.db.Rebind("SELECT payload FROM directory_airports WHERE iata = ?"), iata)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read directory entry %s: %w", iata, err)
	}

	var entry models.DirectoryEntry
	if err := json.Unmarshal([]byte(payload), &entry); err != nil {
		// Corrupt entry behaves as a miss; the next fill overwrites it.
		return nil, nil
	}
	return &entry, nil
}

// Put upserts a single entry, used for incremental miss-fills between full
// refreshes.
func (r *DirectoryRepository) Put(ctx context.Context, entry *models.DirectoryEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to serialize directory entry %s: %w", entry.IATA, err)
	}

	query := r.db.Rebind(`
		INSERT INTO directory_airports (iata, payload, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(iata) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`)
	if _, err := r.db.ExecContext(ctx, query, entry.IATA, string(payload), entry.FetchedAt.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to upsert directory entry %s: %w", entry.IATA, err)
	}
	return nil
}

// ReplaceAll swaps the whole table for a fresh dataset in one transaction and
// records the refresh timestamp.
func (r *DirectoryRepository) ReplaceAll(ctx context.Context, entries []*models.DirectoryEntry, refreshedAt time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin directory refresh: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM directory_airports"); err != nil {
		return fmt.Errorf("failed to clear directory: %w", err)
	}

	insert := tx.Rebind("INSERT INTO directory_airports (iata, payload, fetched_at) VALUES (?, ?, ?)")
	for _, entry := range entries {
		payload, err := json.Marshal(entry)
		if err != nil {
			continue
		}
		if _, err := tx.ExecContext(ctx, insert, entry.IATA, string(payload), entry.FetchedAt.UTC().Format(time.RFC3339)); err != nil {
			return fmt.Errorf("failed to insert directory entry %s: %w", entry.IATA, err)
		}
	}

	meta := tx.Rebind(`
		INSERT INTO directory_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`)
	if _, err := tx.ExecContext(ctx, meta, metaKeyLastFullRefresh, refreshedAt.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to record refresh timestamp: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit directory refresh: %w", err)
	}
	return nil
}

// LastFullRefresh returns when the directory was last replaced wholesale;
// zero time when it never was.
func (r *DirectoryRepository) LastFullRefresh(ctx context.Context) (time.Time, error) {
	var value string
	err := r.db.GetContext(ctx, &value,
		r.db.Rebind("SELECT value FROM directory_meta WHERE key = ?"), metaKeyLastFullRefresh)
	if err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to read refresh timestamp: %w", err)
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, nil
	}
	return t.UTC(), nil
}

// Count returns the number of cached airports.
func (r *DirectoryRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM directory_airports"); err != nil {
		return 0, fmt.Errorf("failed to count directory entries: %w", err)
	}
	return n, nil
}
