package probe

import (
	"strings"

	"github.com/pagewatch/pagewatch/internal/dom"
)

// Mode describes how a stop selector's match is interpreted.
type Mode string

const (
	// ModeVisible is satisfied when a match exists and the oracle sees it.
	ModeVisible Mode = "visible"
	// ModePresent is satisfied when a match exists, visible or not.
	ModePresent Mode = "present"
	// ModeHidden is satisfied when no visible match exists; absence counts
	// as hidden.
	ModeHidden Mode = "hidden"
	// ModeGone is satisfied when no match exists at all.
	ModeGone Mode = "gone"
)

// ParseMode normalizes a user-supplied mode string.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeVisible:
		return ModeVisible, true
	case ModePresent:
		return ModePresent, true
	case ModeHidden:
		return ModeHidden, true
	case ModeGone:
		return ModeGone, true
	}
	return "", false
}

// Condition is a (selector, mode) pair whose satisfaction ends a session.
type Condition struct {
	Selector string
	Mode     Mode
}

// Evaluator resolves a condition against the live DOM. Evaluation never
// caches: visibility is recomputed from scratch on every tick, because any
// mutation can invalidate a prior verdict.
type Evaluator struct {
	host   dom.Host
	oracle Oracle
}

// NewEvaluator returns an evaluator over host.
func NewEvaluator(host dom.Host) *Evaluator {
	return &Evaluator{host: host, oracle: NewOracle(host)}
}

// Eval reports whether c currently holds. Selector resolution fails soft: an
// empty or malformed selector resolves to "no element found", which combined
// with the mode produces the documented degenerate results (gone with an
// empty selector is vacuously true).
func (e *Evaluator) Eval(c Condition) bool {
	el := e.query(c.Selector)
	switch c.Mode {
	case ModePresent:
		return el != nil
	case ModeGone:
		return el == nil
	case ModeVisible:
		return el != nil && e.oracle.Visible(el)
	case ModeHidden:
		return el == nil || !e.oracle.Visible(el)
	}
	return false
}

func (e *Evaluator) query(selector string) dom.Element {
	if strings.TrimSpace(selector) == "" {
		return nil
	}
	el, err := e.host.Query(selector)
	if err != nil {
		return nil
	}
	return el
}
