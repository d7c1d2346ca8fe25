package probe

import (
	"time"
)

// fakeExec emulates the run-to-completion executor synchronously: a task
// posted while another task runs is queued and runs after it unwinds, exactly
// like the real loop, but on the test goroutine.
type fakeExec struct {
	q    []func()
	busy bool
}

func (e *fakeExec) Post(fn func()) {
	e.q = append(e.q, fn)
	if e.busy {
		return
	}
	e.busy = true
	for len(e.q) > 0 {
		next := e.q[0]
		e.q = e.q[1:]
		next()
	}
	e.busy = false
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// fakeScheduler collects interval and frame registrations and fires them on
// demand, tracking live registrations for leak assertions.
type fakeScheduler struct {
	nextID    int
	intervals map[int]func()
	frames    map[int]func()
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{
		intervals: make(map[int]func()),
		frames:    make(map[int]func()),
	}
}

func (s *fakeScheduler) Every(_ time.Duration, fn func()) func() {
	id := s.nextID
	s.nextID++
	s.intervals[id] = fn
	return func() { delete(s.intervals, id) }
}

func (s *fakeScheduler) Frame(fn func()) func() {
	id := s.nextID
	s.nextID++
	s.frames[id] = fn
	return func() { delete(s.frames, id) }
}

// tick fires every live poll interval once.
func (s *fakeScheduler) tick() {
	for _, fn := range s.snapshot(s.intervals) {
		fn()
	}
}

// fireFrames delivers all pending frame callbacks once.
func (s *fakeScheduler) fireFrames() {
	pending := s.snapshot(s.frames)
	s.frames = make(map[int]func())
	for _, fn := range pending {
		fn()
	}
}

func (s *fakeScheduler) snapshot(m map[int]func()) []func() {
	out := make([]func(), 0, len(m))
	for _, fn := range m {
		out = append(out, fn)
	}
	return out
}

// statusLog records every published status in order.
type statusLog struct {
	all []Status
}

func (l *statusLog) record(st Status) { l.all = append(l.all, st) }

func (l *statusLog) last() Status {
	if len(l.all) == 0 {
		return Status{}
	}
	return l.all[len(l.all)-1]
}

func (l *statusLog) countStarting() int {
	n := 0
	for _, st := range l.all {
		if st.Starting {
			n++
		}
	}
	return n
}
