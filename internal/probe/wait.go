package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pagewatch/pagewatch/internal/dom"
)

// ErrWaitTimeout is returned by Wait when the deadline passes with the
// condition unmet.
var ErrWaitTimeout = errors.New("pagewatch: wait timed out")

// WaitSpec describes a condition to block on. When Stable is set the wait
// ignores Condition and instead waits for the document fingerprint to hold
// still for the quiet window — the runner's way of waiting out a settling
// page.
type WaitSpec struct {
	Condition Condition
	Stable    time.Duration
	Timeout   time.Duration
	// Poll overrides the evaluation interval. Defaults to the instrument's
	// poll interval, or 100ms for stable waits.
	Poll time.Duration
}

// Wait blocks until spec holds, the timeout passes, or ctx is cancelled,
// returning the elapsed time either way. It reuses the session's trigger
// pattern — mutation wake-ups merged with a fixed poll, immediate first
// evaluation — without the click arming machinery, for programmatic callers
// like the scenario runner.
func Wait(ctx context.Context, host dom.Host, spec WaitSpec) (time.Duration, error) {
	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	poll := spec.Poll
	if poll <= 0 {
		if spec.Stable > 0 {
			poll = 100 * time.Millisecond
		} else {
			poll = DefaultPollInterval
		}
	}

	start := time.Now()
	deadline := start.Add(timeout)

	kick := make(chan struct{}, 1)
	wake := func() {
		select {
		case kick <- struct{}{}:
		default:
		}
	}
	if stop, err := host.Observe(wake); err == nil {
		defer stop()
	}

	eval := NewEvaluator(host)
	var quiet settle
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		now := time.Now()
		if !now.Before(deadline) {
			return now.Sub(start), fmt.Errorf("%w after %s", ErrWaitTimeout, timeout)
		}
		var ok bool
		if spec.Stable > 0 {
			ok = quiet.settled(host, now, spec.Stable)
		} else {
			ok = eval.Eval(spec.Condition)
		}
		if ok {
			return time.Since(start), nil
		}
		select {
		case <-ctx.Done():
			return time.Since(start), ctx.Err()
		case <-ticker.C:
		case <-kick:
		}
	}
}

// settle tracks the last time the document fingerprint changed.
type settle struct {
	prev   dom.Fingerprint
	last   time.Time
	primed bool
}

func (s *settle) settled(host dom.Host, now time.Time, quiet time.Duration) bool {
	cur, err := host.Fingerprint()
	if err != nil {
		return false
	}
	if !s.primed || cur != s.prev {
		s.prev = cur
		s.last = now
		s.primed = true
		return false
	}
	return now.Sub(s.last) >= quiet
}
