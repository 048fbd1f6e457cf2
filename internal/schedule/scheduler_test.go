package schedule

import (
	"context"
	"sync"
	"testing"
	"time"

	"quill/internal/logging"
	"quill/internal/runner"
)

type countingPipeline struct {
	mu    sync.Mutex
	runs  int
	err   error
	fired chan struct{}
}

func (p *countingPipeline) Run(context.Context) error {
	p.mu.Lock()
	p.runs++
	p.mu.Unlock()
	select {
	case p.fired <- struct{}{}:
	default:
	}
	return p.err
}

func (p *countingPipeline) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runs
}

func TestStartRejectsInvalidSpec(t *testing.T) {
	s := New("not a cron spec", &countingPipeline{fired: make(chan struct{}, 1)}, logging.NewNop())
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("Start() accepted an invalid cron spec")
	}
}

func TestSchedulerFiresTicks(t *testing.T) {
	pipeline := &countingPipeline{fired: make(chan struct{}, 1)}
	s := New("@every 10ms", pipeline, logging.NewNop())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	select {
	case <-pipeline.fired:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler never fired a tick")
	}
}

func TestSchedulerSkipsTickWhenRunInProgress(t *testing.T) {
	pipeline := &countingPipeline{fired: make(chan struct{}, 1), err: runner.ErrAlreadyRunning}
	s := New("@every 10ms", pipeline, logging.NewNop())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	select {
	case <-pipeline.fired:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler never fired a tick")
	}
	// The busy error is swallowed; the scheduler keeps running.
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("Start() on a running scheduler must fail")
	}
}

func TestStopWaitsForInFlightRun(t *testing.T) {
	pipeline := &countingPipeline{fired: make(chan struct{}, 1)}
	s := New("@every 10ms", pipeline, logging.NewNop())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	<-pipeline.fired
	s.Stop()
	after := pipeline.count()
	time.Sleep(50 * time.Millisecond)
	if pipeline.count() != after {
		t.Fatal("ticks fired after Stop()")
	}
	// Stop on a stopped scheduler is a no-op.
	s.Stop()
}

type blockingPipeline struct {
	started chan struct{}
}

// Run blocks until its context is cancelled, like a real run waiting on a
// slow transcription call.
func (p *blockingPipeline) Run(ctx context.Context) error {
	select {
	case p.started <- struct{}{}:
	default:
	}
	<-ctx.Done()
	return nil
}

func TestStopCancelsInFlightRun(t *testing.T) {
	pipeline := &blockingPipeline{started: make(chan struct{}, 1)}
	s := New("@every 10ms", pipeline, logging.NewNop())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	select {
	case <-pipeline.started:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler never fired a tick")
	}

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop() did not cancel the run in flight")
	}
}

func TestRunNowTriggersImmediately(t *testing.T) {
	pipeline := &countingPipeline{fired: make(chan struct{}, 1)}
	s := New("@every 1h", pipeline, logging.NewNop())

	s.RunNow(context.Background())
	if pipeline.count() != 1 {
		t.Fatalf("runs = %d, want 1", pipeline.count())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.RunNow(ctx)
	if pipeline.count() != 1 {
		t.Fatal("RunNow must not fire with a cancelled context")
	}
}
