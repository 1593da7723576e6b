package book

import (
	"fmt"
	"html"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	epub "github.com/bmaupin/go-epub"
)

const stylesheet = `body { font-family: Georgia, serif; margin: 2em; color: #333; line-height: 1.6; }
h2 { color: #0055a5; }
img { max-width: 100%; margin: 1em 0; }
`

// Assembler composes rendered chapters and a cover into a single EPUB file.
type Assembler struct {
	tmpDir   string
	language string
}

// NewAssembler writes bundles into uniquely named files under tmpDir. The
// caller owns the returned file and is responsible for deleting it.
func NewAssembler(tmpDir, language string) *Assembler {
	return &Assembler{tmpDir: tmpDir, language: language}
}

// Assemble builds the bundle and flushes it to a transient file, returning
// its path. Chapters appear in slice order; cover failure falls back to the
// plain banner cover and never aborts assembly.
func (a *Assembler) Assemble(chapters []Chapter, date time.Time) (string, error) {
	if err := os.MkdirAll(a.tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create bundle directory: %w", err)
	}

	// Scratch directory for files go-epub embeds by path; removed once the
	// bundle is written.
	workDir, err := os.MkdirTemp(a.tmpDir, "assemble-*")
	if err != nil {
		return "", fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	title := fmt.Sprintf("News %s", date.Format("2006-01-02"))

	book := epub.NewEpub(title)
	book.SetIdentifier("kindlefeed-daily")
	book.SetAuthor("KindleFeed")
	book.SetLang(a.language)

	cssFile := filepath.Join(workDir, "style.css")
	if err := os.WriteFile(cssFile, []byte(stylesheet), 0o644); err != nil {
		return "", fmt.Errorf("failed to write stylesheet: %w", err)
	}
	cssPath, err := book.AddCSS(cssFile, "style.css")
	if err != nil {
		return "", fmt.Errorf("failed to add stylesheet: %w", err)
	}

	a.addCover(book, workDir, chapters, title)

	for _, chapter := range chapters {
		body := fmt.Sprintf("<h2>%s</h2>", html.EscapeString(chapter.Title))

		if len(chapter.Image) > 0 {
			imgFile := filepath.Join(workDir, fmt.Sprintf("chapter%d.jpg", chapter.Index))
			if err := os.WriteFile(imgFile, chapter.Image, 0o644); err == nil {
				if internal, err := book.AddImage(imgFile, fmt.Sprintf("chapter%d.jpg", chapter.Index)); err == nil {
					body += fmt.Sprintf(`<div><img src="%s"/></div>`, internal)
				} else {
					slog.Warn("Failed to embed chapter image", "chapter", chapter.Index, "error", err)
				}
			}
		}

		body += fmt.Sprintf("<div>%s</div>", chapter.Body)

		if _, err := book.AddSection(body, chapter.Title, fmt.Sprintf("chapter%d.xhtml", chapter.Index), cssPath); err != nil {
			return "", fmt.Errorf("failed to add chapter %d: %w", chapter.Index, err)
		}
	}

	outPath := filepath.Join(a.tmpDir, fmt.Sprintf("news_%s_%d.epub", date.Format("20060102"), time.Now().UnixNano()))
	if err := book.Write(outPath); err != nil {
		return "", fmt.Errorf("failed to write bundle: %w", err)
	}

	return outPath, nil
}

// addCover composes the collage cover from the first chapter images. Cover
// problems degrade to the no-cover path.
func (a *Assembler) addCover(book *epub.Epub, workDir string, chapters []Chapter, title string) {
	var images [][]byte
	for _, chapter := range chapters {
		if len(images) >= 4 {
			break
		}
		if len(chapter.Image) > 0 {
			images = append(images, chapter.Image)
		}
	}

	cover, err := ComposeCover(images, title)
	if err != nil {
		slog.Warn("Failed to compose cover, continuing without one", "error", err)
		return
	}

	coverFile := filepath.Join(workDir, "cover.jpg")
	if err := os.WriteFile(coverFile, cover, 0o644); err != nil {
		slog.Warn("Failed to write cover file, continuing without one", "error", err)
		return
	}

	internal, err := book.AddImage(coverFile, "cover.jpg")
	if err != nil {
		slog.Warn("Failed to embed cover, continuing without one", "error", err)
		return
	}

	book.SetCover(internal, "")
}
