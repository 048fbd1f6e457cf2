package transcribe

import (
	"context"
	"time"

	"quill/internal/services"
)

const (
	defaultBackoff = 2 * time.Second
	maxBackoff     = 30 * time.Second
)

// Policy bounds the local retry loop. Retries counts attempts after the
// first one, so Retries=2 allows three attempts in total.
type Policy struct {
	Retries int
	Backoff time.Duration
}

// attemptState is the explicit retry state machine: how many attempts have
// run and what the last one returned.
type attemptState struct {
	attempts int
	lastErr  error
}

// Do runs op until it succeeds, fails permanently, or exhausts the retry
// budget. Only transient errors consume budget-funded retries; a permanent
// error returns immediately. Context cancellation stops the loop between
// attempts.
func (p Policy) Do(ctx context.Context, op func(context.Context) error) error {
	backoff := p.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}

	state := attemptState{}
	for {
		state.lastErr = op(ctx)
		state.attempts++
		if state.lastErr == nil {
			return nil
		}
		if !services.IsTransient(state.lastErr) {
			return state.lastErr
		}
		if state.attempts > p.Retries {
			return state.lastErr
		}
		if err := sleep(ctx, backoff); err != nil {
			return state.lastErr
		}
		if next := backoff * 2; next <= maxBackoff {
			backoff = next
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
