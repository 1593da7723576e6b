package book

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "codeberg.org/readeck/go-readability"
	"github.com/PuerkitoBio/goquery"
)

// Renderer turns one article URL into a Chapter: fetch, extract readable
// content, and prepare the lead image.
type Renderer struct {
	client       *http.Client
	userAgent    string
	fetchTimeout time.Duration
	imageTimeout time.Duration
}

func NewRenderer(client *http.Client, userAgent string, fetchTimeout, imageTimeout time.Duration) *Renderer {
	if client == nil {
		client = &http.Client{}
	}
	return &Renderer{
		client:       client,
		userAgent:    userAgent,
		fetchTimeout: fetchTimeout,
		imageTimeout: imageTimeout,
	}
}

// Render fetches and extracts one article. An error here fails only this
// chapter; the caller drops it and continues with the rest of the batch.
// Image problems are absorbed: the chapter just loses its image.
func (r *Renderer) Render(ctx context.Context, articleURL string, index int) (*Chapter, error) {
	data, err := r.fetch(ctx, articleURL, r.fetchTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch article: %w", err)
	}

	pageURL, _ := url.Parse(articleURL)
	article, err := readability.FromReader(bytes.NewReader(data), pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to extract content: %w", err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return nil, fmt.Errorf("no content extracted from article")
	}

	title := strings.TrimSpace(article.Title)
	if title == "" {
		title = fmt.Sprintf("Article %d", index+1)
	}

	chapter := &Chapter{
		Index: index,
		URL:   articleURL,
		Title: title,
		Body:  formatBody(text),
	}

	imageURL := strings.TrimSpace(article.Image)
	if imageURL == "" {
		imageURL = leadImageFromHTML(data, pageURL)
	}

	if imageURL != "" {
		img, err := r.fetchImage(ctx, imageURL)
		if err != nil {
			slog.Warn("Failed to prepare lead image, continuing without it", "article", articleURL, "image", imageURL, "error", err)
		} else {
			chapter.Image = img
		}
	}

	return chapter, nil
}

func (r *Renderer) fetch(ctx context.Context, rawURL string, timeout time.Duration) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

func (r *Renderer) fetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	data, err := r.fetch(ctx, imageURL, r.imageTimeout)
	if err != nil {
		return nil, err
	}
	return OptimizeImage(data)
}

// leadImageFromHTML falls back to the page's og:image metadata when
// readability did not identify a lead image.
func leadImageFromHTML(data []byte, pageURL *url.URL) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return ""
	}

	content, ok := doc.Find(`meta[property="og:image"]`).First().Attr("content")
	if !ok {
		content, ok = doc.Find(`meta[name="twitter:image"]`).First().Attr("content")
	}
	if !ok {
		return ""
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}

	if ref, err := url.Parse(content); err == nil && pageURL != nil {
		return pageURL.ResolveReference(ref).String()
	}

	return content
}

func formatBody(text string) string {
	lines := strings.Split(text, "\n")
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts = append(parts, html.EscapeString(line))
	}
	return strings.Join(parts, "<br/><br/>")
}
