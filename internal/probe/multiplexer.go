package probe

import (
	"log/slog"
	"time"

	"github.com/pagewatch/pagewatch/internal/dom"
)

// multiplexer bundles the per-session wake-up sources — mutation watcher,
// fixed-interval poll, and display frame chain — behind one disposal routine.
// Disposal is idempotent and total: a terminal transition tears all three
// down together, so no trigger can leak into a later session.
type multiplexer struct {
	cancelPoll   func()
	stopObserver dom.Disposer
	cancelFrame  func()
}

// startTriggers arms the mutation watcher and the poll for one running
// session. The caller performs the immediate first check and attaches the
// frame chain. A host that cannot observe mutations degrades to poll-only
// coverage.
func startTriggers(host dom.Host, sched Scheduler, exec Executor, poll time.Duration, check func(), logger *slog.Logger) *multiplexer {
	m := &multiplexer{}
	stop, err := host.Observe(func() { exec.Post(check) })
	if err != nil {
		logger.Warn("mutation watcher unavailable, relying on poll", "error", err)
	} else {
		m.stopObserver = stop
	}
	m.cancelPoll = sched.Every(poll, check)
	return m
}

func (m *multiplexer) dispose() {
	if m == nil {
		return
	}
	if m.cancelPoll != nil {
		m.cancelPoll()
		m.cancelPoll = nil
	}
	if m.stopObserver != nil {
		m.stopObserver()
		m.stopObserver = nil
	}
	if m.cancelFrame != nil {
		m.cancelFrame()
		m.cancelFrame = nil
	}
}
