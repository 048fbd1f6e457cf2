// Package schedule runs the pipeline on a cron expression in daemon mode.
//
// Ticks never overlap: a tick that fires while a run is still in flight is
// skipped and logged, relying on the runner's instance lock. Because each
// run re-derives its work from the sheet, a skipped tick loses nothing.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"quill/internal/logging"
	"quill/internal/runner"
)

// Pipeline is the single operation the scheduler triggers.
type Pipeline interface {
	Run(ctx context.Context) (runErr error)
}

// Scheduler fires pipeline runs on a cron spec until stopped.
type Scheduler struct {
	spec     string
	pipeline Pipeline
	logger   *slog.Logger

	cron    *cron.Cron
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New builds a scheduler for the given cron spec. The spec uses the
// standard five-field format plus descriptors such as "@every 1h".
func New(spec string, pipeline Pipeline, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		spec:     spec,
		pipeline: pipeline,
		logger:   logging.WithComponent(logger, "schedule"),
	}
}

// Start validates the cron spec and begins firing ticks. It returns
// immediately; use Stop to shut down.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("scheduler already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	c := cron.New()
	if _, err := c.AddFunc(s.spec, func() { s.tick(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("invalid cron spec %q: %w", s.spec, err)
	}

	s.cron = c
	s.cancel = cancel
	s.running = true
	c.Start()
	s.logger.Info("scheduler started", logging.String("spec", s.spec))
	return nil
}

// Stop halts the tick source, cancels any run in flight, and waits for it
// to finish summarizing.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	c := s.cron
	cancel := s.cancel
	s.running = false
	s.cron = nil
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	<-c.Stop().Done()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// RunNow triggers one run outside the cron cadence, used by daemon startup
// to avoid waiting a full interval for the first pass.
func (s *Scheduler) RunNow(ctx context.Context) {
	s.tick(ctx)
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.wg.Add(1)
	defer s.wg.Done()

	err := s.pipeline.Run(ctx)
	switch {
	case err == nil:
	case errors.Is(err, runner.ErrAlreadyRunning):
		s.logger.Info("previous run still in progress, skipping tick")
	default:
		// Fatal run errors are already reported by the runner; in daemon
		// mode the next tick simply tries again.
		s.logger.Error("scheduled run failed", logging.Error(err))
	}
}
