package database

import (
	"errors"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

func TestSourceRepo_AddAndList(t *testing.T) {
	repo := NewSourceRepo(newTestDB(t))

	if err := repo.Add("first", "https://example.com/a.xml"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := repo.Add("second", "https://example.com/b.xml"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	sources, err := repo.List()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("Expected 2 sources, got %d", len(sources))
	}
	if sources[0].Name != "first" || sources[1].Name != "second" {
		t.Errorf("List should keep registration order, got %v", sources)
	}
	if sources[0].CreatedAt.IsZero() {
		t.Errorf("CreatedAt should be populated")
	}

	count, err := repo.Count()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if count != 2 {
		t.Errorf("Expected count 2, got %d", count)
	}
}

func TestSourceRepo_DuplicateURL(t *testing.T) {
	repo := NewSourceRepo(newTestDB(t))

	if err := repo.Add("first", "https://example.com/a.xml"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	err := repo.Add("other-name", "https://example.com/a.xml")
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate for repeated URL, got %v", err)
	}
}

func TestSourceRepo_DuplicateName(t *testing.T) {
	repo := NewSourceRepo(newTestDB(t))

	if err := repo.Add("shared", "https://example.com/a.xml"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// Name is the removal handle; a second source must not hide behind it.
	err := repo.Add("shared", "https://example.com/b.xml")
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate for repeated name, got %v", err)
	}

	count, err := repo.Count()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 source, got %d", count)
	}
}

func TestSourceRepo_Remove(t *testing.T) {
	repo := NewSourceRepo(newTestDB(t))

	if err := repo.Add("first", "https://example.com/a.xml"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	removed, err := repo.Remove("first")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !removed {
		t.Errorf("Expected existing source to be removed")
	}

	removed, err = repo.Remove("first")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if removed {
		t.Errorf("Removing an unknown source should report false")
	}
}

func TestLedgerRepo_AddAndLoad(t *testing.T) {
	repo := NewLedgerRepo(newTestDB(t))

	urls := []string{"https://example.com/1", "https://example.com/2"}
	if err := repo.AddURLs(urls); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	delivered, err := repo.LoadAll()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(delivered) != 2 {
		t.Fatalf("Expected 2 delivered URLs, got %d", len(delivered))
	}
	for _, url := range urls {
		if _, ok := delivered[url]; !ok {
			t.Errorf("Expected %s in delivered set", url)
		}
	}
}

func TestLedgerRepo_AddURLsIsIdempotent(t *testing.T) {
	repo := NewLedgerRepo(newTestDB(t))

	urls := []string{"https://example.com/1", "https://example.com/2"}
	if err := repo.AddURLs(urls); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// Overlapping batch: only the new URL is added.
	if err := repo.AddURLs([]string{"https://example.com/2", "https://example.com/3"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	count, err := repo.Count()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 delivered URLs, got %d", count)
	}
}

func TestLedgerRepo_AddEmptyBatch(t *testing.T) {
	repo := NewLedgerRepo(newTestDB(t))

	if err := repo.AddURLs(nil); err != nil {
		t.Errorf("Empty batch should be a no-op, got %v", err)
	}
}

func TestBanTermRepo_AddNormalizes(t *testing.T) {
	repo := NewBanTermRepo(newTestDB(t))

	if err := repo.Add("  GoSsIp  "); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	terms, err := repo.List()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(terms) != 1 || terms[0] != "gossip" {
		t.Errorf("Expected lowercased trimmed term, got %v", terms)
	}
}

func TestBanTermRepo_AddExistingIsNoop(t *testing.T) {
	repo := NewBanTermRepo(newTestDB(t))

	if err := repo.Add("gossip"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := repo.Add("GOSSIP"); err != nil {
		t.Fatalf("Re-adding a term should be a no-op, got %v", err)
	}

	count, err := repo.Count()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 term, got %d", count)
	}
}

func TestBanTermRepo_AddEmpty(t *testing.T) {
	repo := NewBanTermRepo(newTestDB(t))

	if err := repo.Add("   "); err == nil {
		t.Errorf("Expected error for empty term")
	}
}

func TestBanTermRepo_Remove(t *testing.T) {
	repo := NewBanTermRepo(newTestDB(t))

	if err := repo.Add("gossip"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	removed, err := repo.Remove("GOSSIP")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !removed {
		t.Errorf("Removal should match case-insensitively")
	}

	removed, err = repo.Remove("gossip")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if removed {
		t.Errorf("Removing an unknown term should report false")
	}
}
