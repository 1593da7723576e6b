package seed

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/imartinez/kindlefeed/app/database"
)

// MockSourceRepository implements a simple mock for testing
type MockSourceRepository struct {
	added    []string
	existing map[string]bool
}

func (m *MockSourceRepository) Add(name, feedURL string) error {
	if m.existing[feedURL] {
		return fmt.Errorf("source %s: %w", feedURL, database.ErrDuplicate)
	}
	m.added = append(m.added, feedURL)
	return nil
}

func (m *MockSourceRepository) Remove(name string) (bool, error) { return false, nil }
func (m *MockSourceRepository) List() ([]database.Source, error) { return nil, nil }
func (m *MockSourceRepository) Count() (int, error)              { return len(m.added), nil }

type MockBanTermRepository struct {
	added []string
}

func (m *MockBanTermRepository) Add(term string) error {
	m.added = append(m.added, term)
	return nil
}

func (m *MockBanTermRepository) Remove(term string) (bool, error) { return false, nil }
func (m *MockBanTermRepository) List() ([]string, error)          { return m.added, nil }
func (m *MockBanTermRepository) Count() (int, error)              { return len(m.added), nil }

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "seed.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write seed file: %v", err)
	}
	return path
}

func TestApply_RegistersSourcesAndTerms(t *testing.T) {
	path := writeSeedFile(t, `
sources:
  - name: first
    url: https://example.com/a.xml
  - name: second
    url: https://example.com/b.xml
ban_terms:
  - gossip
  - horoscope
`)

	sources := &MockSourceRepository{}
	banTerms := &MockBanTermRepository{}

	if err := Apply(path, sources, banTerms); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(sources.added) != 2 {
		t.Errorf("Expected 2 sources added, got %d", len(sources.added))
	}
	if len(banTerms.added) != 2 {
		t.Errorf("Expected 2 ban terms added, got %d", len(banTerms.added))
	}
}

func TestApply_SkipsExistingSources(t *testing.T) {
	path := writeSeedFile(t, `
sources:
  - name: first
    url: https://example.com/a.xml
  - name: second
    url: https://example.com/b.xml
`)

	sources := &MockSourceRepository{existing: map[string]bool{"https://example.com/a.xml": true}}

	if err := Apply(path, sources, &MockBanTermRepository{}); err != nil {
		t.Fatalf("Re-applying a seed file should be idempotent, got %v", err)
	}

	if len(sources.added) != 1 || sources.added[0] != "https://example.com/b.xml" {
		t.Errorf("Expected only the new source added, got %v", sources.added)
	}
}

func TestApply_SkipsSourcesWithoutURL(t *testing.T) {
	path := writeSeedFile(t, `
sources:
  - name: broken
`)

	sources := &MockSourceRepository{}

	if err := Apply(path, sources, &MockBanTermRepository{}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(sources.added) != 0 {
		t.Errorf("Expected no sources added, got %v", sources.added)
	}
}

func TestApply_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yml")

	if err := Apply(path, &MockSourceRepository{}, &MockBanTermRepository{}); err != nil {
		t.Errorf("Missing seed file should not be an error, got %v", err)
	}
}

func TestApply_InvalidYAML(t *testing.T) {
	path := writeSeedFile(t, "sources: [unclosed")

	if err := Apply(path, &MockSourceRepository{}, &MockBanTermRepository{}); err == nil {
		t.Errorf("Expected error for malformed seed file")
	}
}
