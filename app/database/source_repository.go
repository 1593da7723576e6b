package database

import (
	"errors"
	"fmt"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrDuplicate is returned when an insert violates a uniqueness constraint.
var ErrDuplicate = errors.New("already exists")

// SourceRepo handles database operations for feed sources
type SourceRepo struct {
	db *DB
}

var _ SourceRepository = (*SourceRepo)(nil)

// NewSourceRepo creates a new source repository
func NewSourceRepo(db *DB) *SourceRepo {
	return &SourceRepo{db: db}
}

// Add registers a feed endpoint. Sources are unique by name and by feed URL;
// name is the removal handle, so it cannot be shared either.
func (r *SourceRepo) Add(name, feedURL string) error {
	_, err := r.db.Exec(`
		INSERT INTO sources (name, feed_url, created_at)
		VALUES (?, ?, ?)
	`, name, feedURL, time.Now().UTC())

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("source %s (%s): %w", name, feedURL, ErrDuplicate)
		}
		return fmt.Errorf("failed to add source: %w", err)
	}

	return nil
}

// Remove deletes a source by name and reports whether anything was removed.
func (r *SourceRepo) Remove(name string) (bool, error) {
	res, err := r.db.Exec(`DELETE FROM sources WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("failed to remove source: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}

// List returns all sources in registration order.
func (r *SourceRepo) List() ([]Source, error) {
	rows, err := r.db.Query(`
		SELECT id, name, feed_url, created_at
		FROM sources
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.Name, &s.FeedURL, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source rows: %w", err)
	}

	return sources, nil
}

// Count returns the total number of registered sources.
func (r *SourceRepo) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM sources`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sources: %w", err)
	}
	return count, nil
}

func isUniqueViolation(err error) bool {
	var serr *sqlite.Error
	if errors.As(err, &serr) {
		code := serr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
