// Package seed applies the optional startup file with initial sources and
// ban terms.
package seed

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/imartinez/kindlefeed/app/database"
)

type File struct {
	Sources  []Source `yaml:"sources"`
	BanTerms []string `yaml:"ban_terms"`
}

type Source struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Apply registers the seed file contents. Already-registered sources and
// terms are skipped, so applying the same file on every startup is
// idempotent. A missing file is not an error.
func Apply(path string, sources database.SourceRepository, banTerms database.BanTermRepository) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("No seed file found", "path", path)
			return nil
		}
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}

	added := 0
	for _, source := range file.Sources {
		if source.URL == "" {
			slog.Warn("Skipping seed source without URL", "name", source.Name)
			continue
		}
		if err := sources.Add(source.Name, source.URL); err != nil {
			if errors.Is(err, database.ErrDuplicate) {
				continue
			}
			return fmt.Errorf("failed to seed source %s: %w", source.URL, err)
		}
		added++
	}

	for _, term := range file.BanTerms {
		if err := banTerms.Add(term); err != nil {
			return fmt.Errorf("failed to seed ban term %q: %w", term, err)
		}
	}

	slog.Info("Seed file applied", "path", path, "new_sources", added, "ban_terms", len(file.BanTerms))
	return nil
}
