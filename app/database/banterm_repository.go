package database

import (
	"fmt"
	"strings"
	"time"
)

// BanTermRepo handles database operations for banned terms
type BanTermRepo struct {
	db *DB
}

var _ BanTermRepository = (*BanTermRepo)(nil)

// NewBanTermRepo creates a new ban term repository
func NewBanTermRepo(db *DB) *BanTermRepo {
	return &BanTermRepo{db: db}
}

// Add stores a term. Terms are matched case-insensitively, so they are
// lowercased before storage. Adding an existing term is a no-op.
func (r *BanTermRepo) Add(term string) error {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return fmt.Errorf("ban term is empty")
	}

	_, err := r.db.Exec(`
		INSERT INTO ban_terms (term, created_at)
		VALUES (?, ?)
		ON CONFLICT (term) DO NOTHING
	`, term, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to add ban term: %w", err)
	}

	return nil
}

// Remove deletes a term and reports whether anything was removed.
func (r *BanTermRepo) Remove(term string) (bool, error) {
	res, err := r.db.Exec(`DELETE FROM ban_terms WHERE term = ?`, strings.ToLower(strings.TrimSpace(term)))
	if err != nil {
		return false, fmt.Errorf("failed to remove ban term: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}

// List returns all operator terms in insertion order.
func (r *BanTermRepo) List() ([]string, error) {
	rows, err := r.db.Query(`SELECT term FROM ban_terms ORDER BY created_at, term`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ban terms: %w", err)
	}
	defer rows.Close()

	var terms []string
	for rows.Next() {
		var term string
		if err := rows.Scan(&term); err != nil {
			return nil, fmt.Errorf("failed to scan ban term row: %w", err)
		}
		terms = append(terms, term)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ban term rows: %w", err)
	}

	return terms, nil
}

// Count returns the number of operator terms.
func (r *BanTermRepo) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM ban_terms`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count ban terms: %w", err)
	}
	return count, nil
}
