package probe

import "time"

// State is the timer state machine's position.
type State int

const (
	// StateIdle is the initial state; no session exists.
	StateIdle State = iota
	// StateArmed means the next qualifying click starts timing.
	StateArmed
	// StateRunning means the timer is live and triggers are armed.
	StateRunning
	// StateTerminal means the session ended; no resources remain active.
	StateTerminal
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateRunning:
		return "running"
	case StateTerminal:
		return "done"
	}
	return "unknown"
}

// Outcome distinguishes how a session reached StateTerminal. Timeout expiry
// is a normal outcome, not an error, and is reported distinctly from both
// completion and manual stop.
type Outcome int

const (
	// OutcomeNone means the session has not terminated.
	OutcomeNone Outcome = iota
	// OutcomeCompleted means the stop condition was satisfied in time.
	OutcomeCompleted
	// OutcomeTimedOut means the deadline passed with the condition unmet.
	OutcomeTimedOut
	// OutcomeStopped means the operator stopped the session manually.
	OutcomeStopped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeTimedOut:
		return "timed out"
	case OutcomeStopped:
		return "stopped"
	}
	return "none"
}

// StopSpec is the stop condition a session snapshots at the moment it starts
// running. Configuration edits after that moment do not affect the in-flight
// session.
type StopSpec struct {
	Selector string
	Mode     Mode
	Timeout  time.Duration
}

// Status is a point-in-time publication of the instrument's state, delivered
// to the Notify callback on every transition and on every display frame while
// running.
type Status struct {
	// Session identifies the timing session, assigned when it starts running.
	Session string
	State   State
	Outcome Outcome
	// Starting marks the window between a qualifying click and the deferred
	// transition to running.
	Starting bool
	Elapsed  time.Duration
}
