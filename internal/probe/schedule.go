package probe

import (
	"sync"
	"time"
)

const (
	// DefaultTimeout bounds a session whose stop spec carries no usable
	// timeout value.
	DefaultTimeout = 20 * time.Second

	// DefaultPollInterval is the fixed re-evaluation interval covering
	// changes the mutation watcher cannot see.
	DefaultPollInterval = 50 * time.Millisecond

	// frameInterval approximates a display refresh for the live elapsed-time
	// readout.
	frameInterval = 16 * time.Millisecond
)

// Clock supplies the monotonic time the timer reads. time.Time carries a
// monotonic component on all supported platforms.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Scheduler provides the two recurring wake-up sources of a running session.
// Implementations must deliver callbacks on the instrument's Executor, and
// returned cancel functions must be idempotent. Stragglers already in flight
// when cancel runs are tolerated: every session callback re-checks state
// before doing anything.
type Scheduler interface {
	// Every invokes fn at the fixed interval d until cancelled.
	Every(d time.Duration, fn func()) (cancel func())
	// Frame invokes fn once on the next display frame.
	Frame(fn func()) (cancel func())
}

// loopScheduler implements Scheduler with real timers posting onto an
// Executor.
type loopScheduler struct {
	exec Executor
}

func (s loopScheduler) Every(d time.Duration, fn func()) func() {
	ticker := time.NewTicker(d)
	stop := make(chan struct{})
	var once sync.Once
	go func() {
		for {
			select {
			case <-ticker.C:
				s.exec.Post(fn)
			case <-stop:
				return
			}
		}
	}()
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(stop)
		})
	}
}

func (s loopScheduler) Frame(fn func()) func() {
	t := time.AfterFunc(frameInterval, func() { s.exec.Post(fn) })
	return func() { t.Stop() }
}
