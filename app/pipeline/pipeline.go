// Package pipeline ties harvesting, rendering, assembly and delivery into
// the single end-to-end run operation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/imartinez/kindlefeed/app/book"
	"github.com/imartinez/kindlefeed/app/database"
	"github.com/imartinez/kindlefeed/app/delivery"
)

var (
	// ErrBusy is returned when a run is requested while another is in progress.
	ErrBusy = errors.New("a run is already in progress")
	// ErrNothingToSend is returned when the harvest yields no new articles.
	ErrNothingToSend = errors.New("nothing to send")
	// ErrNoChapters is returned when every harvested article failed to render.
	ErrNoChapters = errors.New("no chapters rendered")
)

// Clock provides the current time; replaceable in tests.
type Clock func() time.Time

// HarvesterInterface selects new article URLs from the registered sources.
type HarvesterInterface interface {
	Harvest(ctx context.Context, sources []database.Source, delivered map[string]struct{}, banTerms []string, maxBatch int) []string
}

// RendererInterface turns one article URL into a chapter.
type RendererInterface interface {
	Render(ctx context.Context, articleURL string, index int) (*book.Chapter, error)
}

// AssemblerInterface composes chapters into a transient bundle file.
type AssemblerInterface interface {
	Assemble(chapters []book.Chapter, date time.Time) (string, error)
}

// DispatcherInterface fans the bundle out to all delivery targets.
type DispatcherInterface interface {
	Deliver(ctx context.Context, bundlePath, filename string, recipients []string) delivery.Report
}

// RecipientListerInterface supplies the registered email recipients.
type RecipientListerInterface interface {
	List() []string
}

// Report summarizes one completed run.
type Report struct {
	Harvested int             `json:"harvested"`
	Rendered  int             `json:"rendered"`
	Delivery  delivery.Report `json:"delivery"`
	Duration  string          `json:"duration"`
}

// Deps enumerates the pipeline collaborators.
type Deps struct {
	Harvester  HarvesterInterface
	Renderer   RendererInterface
	Assembler  AssemblerInterface
	Dispatcher DispatcherInterface
	Recipients RecipientListerInterface
	Sources    database.SourceRepository
	Ledger     database.LedgerRepository
	BanTerms   database.BanTermRepository
	Clock      Clock

	MaxBatch           int
	RenderWorkers      int
	AllowEmptyDocument bool
}

// Pipeline executes runs. A single run at a time: concurrent callers get
// ErrBusy instead of queueing.
type Pipeline struct {
	running atomic.Bool

	harvester  HarvesterInterface
	renderer   RendererInterface
	assembler  AssemblerInterface
	dispatcher DispatcherInterface
	recipients RecipientListerInterface
	sources    database.SourceRepository
	ledger     database.LedgerRepository
	banTerms   database.BanTermRepository
	clock      Clock

	maxBatch           int
	renderWorkers      int
	allowEmptyDocument bool
}

func New(deps Deps) *Pipeline {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	workers := deps.RenderWorkers
	if workers < 1 {
		workers = 1
	}

	return &Pipeline{
		harvester:          deps.Harvester,
		renderer:           deps.Renderer,
		assembler:          deps.Assembler,
		dispatcher:         deps.Dispatcher,
		recipients:         deps.Recipients,
		sources:            deps.Sources,
		ledger:             deps.Ledger,
		banTerms:           deps.BanTerms,
		clock:              clock,
		maxBatch:           deps.MaxBatch,
		renderWorkers:      workers,
		allowEmptyDocument: deps.AllowEmptyDocument,
	}
}

// Running reports whether a run is currently in progress.
func (p *Pipeline) Running() bool {
	return p.running.Load()
}

// Run executes one harvest-assemble-deliver cycle. The harvested URLs are
// committed to the ledger after the delivery phase regardless of delivery
// outcomes; the transient bundle file is removed on every exit path.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	if !p.running.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer p.running.Store(false)

	started := p.clock()

	sources, err := p.sources.List()
	if err != nil {
		return nil, fmt.Errorf("failed to load sources: %w", err)
	}

	delivered, err := p.ledger.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load delivered set: %w", err)
	}

	terms, err := p.banTerms.List()
	if err != nil {
		return nil, fmt.Errorf("failed to load ban terms: %w", err)
	}

	urls := p.harvester.Harvest(ctx, sources, delivered, terms, p.maxBatch)
	if len(urls) == 0 {
		slog.Info("Harvest yielded no new articles")
		return nil, ErrNothingToSend
	}
	slog.Info("Harvest completed", "articles", len(urls))

	chapters := p.renderAll(ctx, urls)
	slog.Info("Rendering completed", "rendered", len(chapters), "failed", len(urls)-len(chapters))

	if len(chapters) == 0 && !p.allowEmptyDocument {
		// Nothing rendered: leave the ledger alone so the batch is retried
		// on the next run.
		return nil, ErrNoChapters
	}

	date := p.clock()
	bundlePath, err := p.assembler.Assemble(chapters, date)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble bundle: %w", err)
	}
	defer func() {
		if err := os.Remove(bundlePath); err != nil && !os.IsNotExist(err) {
			slog.Warn("Failed to remove transient bundle", "path", bundlePath, "error", err)
		}
	}()

	filename := fmt.Sprintf("news_%s.epub", date.Format("20060102"))
	deliveryReport := p.dispatcher.Deliver(ctx, bundlePath, filename, p.recipients.List())

	// "Seen" rather than "successfully delivered": the batch is committed
	// even when every delivery attempt failed, so the same URLs are never
	// harvested again.
	if err := p.ledger.AddURLs(urls); err != nil {
		return nil, fmt.Errorf("failed to commit delivered set: %w", err)
	}

	report := &Report{
		Harvested: len(urls),
		Rendered:  len(chapters),
		Delivery:  deliveryReport,
		Duration:  p.clock().Sub(started).String(),
	}

	slog.Info("Run completed",
		"harvested", report.Harvested,
		"rendered", report.Rendered,
		"delivery_failures", deliveryReport.Failures(),
		"duration", report.Duration)

	return report, nil
}

// renderAll renders chapters with bounded concurrency. Results keep harvest
// order regardless of completion order; failed chapters are dropped.
func (p *Pipeline) renderAll(ctx context.Context, urls []string) []book.Chapter {
	slots := make([]*book.Chapter, len(urls))

	var wg sync.WaitGroup
	sem := make(chan struct{}, p.renderWorkers)

	for i, articleURL := range urls {
		wg.Add(1)
		go func(index int, articleURL string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			chapter, err := p.renderer.Render(ctx, articleURL, index)
			if err != nil {
				slog.Warn("Failed to render article, dropping chapter", "url", articleURL, "error", err)
				return
			}
			slots[index] = chapter
		}(i, articleURL)
	}

	wg.Wait()

	chapters := make([]book.Chapter, 0, len(urls))
	for _, chapter := range slots {
		if chapter != nil {
			chapters = append(chapters, *chapter)
		}
	}
	return chapters
}
