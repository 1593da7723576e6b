// Package tasks drives scheduled pipeline runs.
package tasks

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/imartinez/kindlefeed/app/pipeline"
)

// RunnerInterface is the pipeline surface the scheduler needs.
type RunnerInterface interface {
	Run(ctx context.Context) (*pipeline.Report, error)
}

var _ RunnerInterface = (*pipeline.Pipeline)(nil)

// Scheduler triggers a pipeline run at a fixed interval. A run still in
// progress when the ticker fires is reported and skipped, never queued.
type Scheduler struct {
	runner   RunnerInterface
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewScheduler(runner RunnerInterface, interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		runner:   runner,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *Scheduler) Start() {
	if s.interval <= 0 {
		slog.Info("Scheduler disabled")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.runOnce()
			}
		}
	}()

	slog.Info("Scheduler started", "interval", s.interval.String())
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

// runOnce executes a scheduled run. Failures are logged only: there is no
// interactive caller to report to.
func (s *Scheduler) runOnce() {
	report, err := s.runner.Run(s.ctx)
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrBusy):
			slog.Warn("Skipping scheduled run, previous run still in progress")
		case errors.Is(err, pipeline.ErrNothingToSend):
			slog.Info("Scheduled run found nothing to send")
		case errors.Is(err, pipeline.ErrNoChapters):
			slog.Warn("Scheduled run rendered no chapters, batch will be retried")
		default:
			slog.Error("Scheduled run failed", "error", err)
		}
		return
	}

	slog.Info("Scheduled run completed",
		"harvested", report.Harvested,
		"rendered", report.Rendered,
		"delivery_failures", report.Delivery.Failures())
}
