package harvest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/imartinez/kindlefeed/app/database"
)

// Harvester fetches registered feeds and selects new article URLs for one
// pipeline run.
type Harvester struct {
	client    *http.Client
	parser    *gofeed.Parser
	filter    *Filter
	userAgent string
	timeout   time.Duration
}

func NewHarvester(client *http.Client, userAgent string, timeout time.Duration) *Harvester {
	if client == nil {
		client = &http.Client{}
	}
	return &Harvester{
		client:    client,
		parser:    gofeed.NewParser(),
		filter:    NewFilter(),
		userAgent: userAgent,
		timeout:   timeout,
	}
}

// Harvest walks the sources in registry order and returns the URLs of new,
// non-blocked articles in discovery order, capped at maxBatch. A failing
// source is logged and skipped; it never aborts the whole harvest.
func (h *Harvester) Harvest(ctx context.Context, sources []database.Source, delivered map[string]struct{}, banTerms []string, maxBatch int) []string {
	seen := make(map[string]struct{})
	var selected []string

	for _, source := range sources {
		entries, err := h.fetchEntries(ctx, source.FeedURL)
		if err != nil {
			slog.Warn("Failed to harvest source", "source", source.Name, "url", source.FeedURL, "error", err)
			continue
		}

		for _, entry := range entries {
			if blocked, reason := h.filter.Blocked(entry, banTerms); blocked {
				slog.Debug("Entry blocked by filter", "source", source.Name, "link", entry.Link, "reason", reason)
				continue
			}

			if _, ok := delivered[entry.Link]; ok {
				continue
			}

			// URL-level dedup across sources within this harvest.
			if _, ok := seen[entry.Link]; ok {
				continue
			}

			seen[entry.Link] = struct{}{}
			selected = append(selected, entry.Link)
		}
	}

	if maxBatch > 0 && len(selected) > maxBatch {
		selected = selected[:maxBatch]
	}

	return selected
}

func (h *Harvester) fetchEntries(ctx context.Context, feedURL string) ([]FeedEntry, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	feed, err := h.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	entries := make([]FeedEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}

		link := strings.TrimSpace(item.Link)
		if link == "" {
			slog.Debug("Dropping feed entry without link", "feed", feedURL, "title", item.Title)
			continue
		}

		entries = append(entries, FeedEntry{
			Title:   strings.TrimSpace(item.Title),
			Link:    link,
			Summary: strings.TrimSpace(item.Description),
		})
	}

	return entries, nil
}
