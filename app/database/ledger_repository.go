package database

import (
	"fmt"
)

// LedgerRepo handles database operations for the delivered-URL ledger
type LedgerRepo struct {
	db *DB
}

var _ LedgerRepository = (*LedgerRepo)(nil)

// NewLedgerRepo creates a new ledger repository
func NewLedgerRepo(db *DB) *LedgerRepo {
	return &LedgerRepo{db: db}
}

// LoadAll returns the full delivered set keyed by URL.
func (r *LedgerRepo) LoadAll() (map[string]struct{}, error) {
	rows, err := r.db.Query(`SELECT url FROM delivered`)
	if err != nil {
		return nil, fmt.Errorf("failed to load delivered set: %w", err)
	}
	defer rows.Close()

	delivered := make(map[string]struct{})
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan delivered row: %w", err)
		}
		delivered[url] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating delivered rows: %w", err)
	}

	return delivered, nil
}

// AddURLs merges the batch into the delivered set. Re-running with the same
// batch is a no-op, so the commit is idempotent.
func (r *LedgerRepo) AddURLs(urls []string) error {
	if len(urls) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO delivered (url)
		VALUES (?)
		ON CONFLICT (url) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, url := range urls {
		if _, err := stmt.Exec(url); err != nil {
			return fmt.Errorf("failed to insert delivered URL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delivered set: %w", err)
	}

	return nil
}

// Count returns the size of the delivered set.
func (r *LedgerRepo) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM delivered`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count delivered set: %w", err)
	}
	return count, nil
}
