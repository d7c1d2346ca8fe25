package probe

import "sync"

// Executor posts work onto the instrument's event-processing turn. Work posted
// while a task is executing runs after that task fully unwinds, before any
// later external event — the ordering the deferred session start relies on.
type Executor interface {
	Post(fn func())
}

// Loop is the default Executor: a single goroutine draining a task queue.
// Every callback the instrument reacts to (clicks, mutation notifications,
// poll ticks, display frames) runs here, so tasks never interleave and the
// session state needs no locking.
type Loop struct {
	tasks chan func()
	quit  chan struct{}
	done  chan struct{}
	once  sync.Once
}

// NewLoop creates a loop. The caller must run it, typically via go loop.Run().
func NewLoop() *Loop {
	return &Loop{
		tasks: make(chan func(), 64),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Run processes tasks until Close. It blocks the calling goroutine.
func (l *Loop) Run() {
	defer close(l.done)
	for {
		select {
		case fn := <-l.tasks:
			fn()
		case <-l.quit:
			return
		}
	}
}

// Post implements Executor. Posting to a closed loop drops the task.
func (l *Loop) Post(fn func()) {
	select {
	case l.tasks <- fn:
	case <-l.quit:
	}
}

// Close stops the loop and waits for the run goroutine to exit. It must not
// be called from a task running on the loop itself.
func (l *Loop) Close() {
	l.once.Do(func() { close(l.quit) })
	<-l.done
}
