// Package probe implements the perceived-latency instrument: a timer state
// machine armed by a qualifying click and stopped by a DOM condition, a
// timeout, or the operator. It owns no UI and no browser; both arrive through
// small interfaces (dom.Host, Notify) so the whole machine runs in-process
// under test.
package probe

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/pagewatch/pagewatch/internal/dom"
)

// ErrAlreadyInstalled is returned by Install while another instrument holds
// the process slot. The slot frees on Close.
var ErrAlreadyInstalled = errors.New("pagewatch: an instrument is already installed")

// installed guards against a second concurrent instrument. One instrument
// means one click listener, one trigger set, and one unambiguous session.
var installed atomic.Bool

// Options configures Install.
type Options struct {
	// Host is the document under measurement. Required.
	Host dom.Host

	// StartSelector supplies the start selector and is consulted at click
	// time, never snapshotted, so the operator can edit it while armed.
	// Required.
	StartSelector func() string

	// StopSpec supplies the stop condition. It is read once, at the moment a
	// session transitions to running. Required.
	StopSpec func() StopSpec

	// Notify receives every status publication. It is invoked on the
	// instrument's executor and must not block. Optional.
	Notify func(Status)

	// PollInterval overrides the fixed re-evaluation interval.
	PollInterval time.Duration

	// Clock, Scheduler and Executor exist as seams for tests. When Executor
	// is nil the instrument runs its own Loop.
	Clock     Clock
	Scheduler Scheduler
	Executor  Executor

	Logger *slog.Logger
}

// Probe is an installed instrument. All state below the sync fields is
// confined to the executor and never touched from other goroutines.
type Probe struct {
	host    dom.Host
	startFn func() string
	specFn  func() StopSpec
	notify  func(Status)
	clock   Clock
	sched   Scheduler
	exec    Executor
	poll    time.Duration
	logger  *slog.Logger
	eval    *Evaluator

	loop      *Loop // owned loop, nil when Executor was supplied
	closeOnce sync.Once

	// Executor-confined session state.
	state    State
	outcome  Outcome
	armed    bool
	pending  bool
	session  string
	spec     StopSpec
	startAt  time.Time
	deadline time.Time
	elapsed  time.Duration
	triggers *multiplexer
	unclick  dom.Disposer
}

// Install creates the instrument, registers its capture-phase click listener
// for the lifetime of the handle, and publishes the initial idle status.
// A second Install before Close fails with ErrAlreadyInstalled and modifies
// nothing.
func Install(opts Options) (*Probe, error) {
	if opts.Host == nil {
		return nil, fmt.Errorf("probe: Options.Host is required")
	}
	if opts.StartSelector == nil {
		return nil, fmt.Errorf("probe: Options.StartSelector is required")
	}
	if opts.StopSpec == nil {
		return nil, fmt.Errorf("probe: Options.StopSpec is required")
	}
	if !installed.CompareAndSwap(false, true) {
		return nil, ErrAlreadyInstalled
	}

	p := &Probe{
		host:    opts.Host,
		startFn: opts.StartSelector,
		specFn:  opts.StopSpec,
		notify:  opts.Notify,
		clock:   opts.Clock,
		sched:   opts.Scheduler,
		exec:    opts.Executor,
		poll:    opts.PollInterval,
		logger:  opts.Logger,
		eval:    NewEvaluator(opts.Host),
		state:   StateIdle,
	}
	if p.clock == nil {
		p.clock = systemClock{}
	}
	if p.poll <= 0 {
		p.poll = DefaultPollInterval
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.exec == nil {
		p.loop = NewLoop()
		go p.loop.Run()
		p.exec = p.loop
	}
	if p.sched == nil {
		p.sched = loopScheduler{exec: p.exec}
	}

	unclick, err := p.host.Clicks(func(target dom.Element) {
		p.exec.Post(func() { p.handleClick(target) })
	})
	if err != nil {
		if p.loop != nil {
			p.loop.Close()
		}
		installed.Store(false)
		return nil, fmt.Errorf("probe: install click listener: %w", err)
	}
	p.unclick = unclick
	p.exec.Post(func() { p.publish(false) })
	return p, nil
}

// Arm puts the instrument into the armed state: the next click matching the
// start selector begins timing. Arming from any state first disposes leftover
// session resources.
func (p *Probe) Arm() { p.exec.Post(p.arm) }

// Stop manually terminates the armed or running session. It is a no-op when
// nothing is in flight.
func (p *Probe) Stop() { p.exec.Post(p.stop) }

// Close tears down the instrument: session triggers, the click listener, and
// the owned loop. It frees the install slot and is safe to call once from any
// goroutine other than the executor.
func (p *Probe) Close() {
	p.closeOnce.Do(func() {
		done := make(chan struct{})
		p.exec.Post(func() {
			p.disposeTriggers()
			if p.unclick != nil {
				p.unclick()
				p.unclick = nil
			}
			p.armed = false
			p.pending = false
			p.state = StateIdle
			close(done)
		})
		<-done
		if p.loop != nil {
			p.loop.Close()
		}
		installed.Store(false)
	})
}

func (p *Probe) arm() {
	p.disposeTriggers()
	p.state = StateArmed
	p.outcome = OutcomeNone
	p.armed = true
	p.pending = false
	p.session = ""
	p.elapsed = 0
	p.publish(false)
}

// begin runs one executor turn after a qualifying click, so the page's own
// handlers for that click (often the very ones opening the thing being
// measured) have already run.
func (p *Probe) begin() {
	if !p.pending {
		return
	}
	p.pending = false

	spec := p.specFn()
	if spec.Timeout <= 0 {
		spec.Timeout = DefaultTimeout
	}
	if m, ok := ParseMode(string(spec.Mode)); ok {
		spec.Mode = m
	} else {
		spec.Mode = ModeVisible
	}
	p.spec = spec
	p.session = uuid.NewString()
	p.startAt = p.clock.Now()
	p.deadline = p.startAt.Add(spec.Timeout)
	p.state = StateRunning
	p.elapsed = 0
	p.logger.Info("session started",
		"session", p.session,
		"stop_selector", spec.Selector,
		"stop_mode", string(spec.Mode),
		"timeout_ms", spec.Timeout.Milliseconds())
	p.publish(false)

	p.triggers = startTriggers(p.host, p.sched, p.exec, p.poll, p.check, p.logger)
	p.triggers.cancelFrame = p.sched.Frame(p.frame)
	// A condition already true at start time must be caught without waiting
	// for the first interval or mutation.
	p.check()
}

// check is the single function every trigger invokes.
func (p *Probe) check() {
	if p.state != StateRunning {
		return
	}
	now := p.clock.Now()
	if !now.Before(p.deadline) {
		p.elapsed = now.Sub(p.startAt)
		p.finish(OutcomeTimedOut)
		return
	}
	if p.eval.Eval(Condition{Selector: p.spec.Selector, Mode: p.spec.Mode}) {
		p.elapsed = now.Sub(p.startAt)
		p.finish(OutcomeCompleted)
	}
}

// frame republishes the live elapsed time and reschedules itself, checking
// state first so the chain stops being scheduled once the session leaves
// running.
func (p *Probe) frame() {
	if p.state != StateRunning {
		return
	}
	p.elapsed = p.clock.Now().Sub(p.startAt)
	p.publish(false)
	if p.triggers != nil {
		p.triggers.cancelFrame = p.sched.Frame(p.frame)
	}
}

func (p *Probe) finish(o Outcome) {
	p.disposeTriggers()
	p.state = StateTerminal
	p.outcome = o
	p.logger.Info("session finished",
		"session", p.session,
		"outcome", o.String(),
		"elapsed_ms", p.elapsed.Milliseconds())
	p.publish(false)
}

func (p *Probe) stop() {
	switch {
	case p.state == StateRunning:
		p.elapsed = p.clock.Now().Sub(p.startAt)
		p.finish(OutcomeStopped)
	case p.state == StateArmed || p.pending:
		p.armed = false
		p.pending = false
		p.finish(OutcomeStopped)
	}
}

func (p *Probe) disposeTriggers() {
	p.triggers.dispose()
	p.triggers = nil
}

func (p *Probe) publish(starting bool) {
	if p.notify == nil {
		return
	}
	p.notify(Status{
		Session:  p.session,
		State:    p.state,
		Outcome:  p.outcome,
		Starting: starting,
		Elapsed:  p.elapsed,
	})
}
