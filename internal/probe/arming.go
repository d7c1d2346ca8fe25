package probe

import (
	"strings"

	"github.com/pagewatch/pagewatch/internal/dom"
)

// handleClick is the arming filter, fed every click the host captures for the
// lifetime of the instrument. While not armed it ignores everything. While
// armed, it reads the current start selector (never a snapshot), walks from
// the click target up through its ancestors for a match, and consumes the arm
// state exactly once on success.
func (p *Probe) handleClick(target dom.Element) {
	if !p.armed || target == nil {
		return
	}
	selector := strings.TrimSpace(p.startFn())
	if selector == "" {
		// Stay armed; an empty selector can never qualify a click.
		return
	}
	match, err := target.Closest(selector)
	if err != nil {
		// Malformed selector: treated as no match, not as a fault.
		p.logger.Debug("start selector did not parse", "selector", selector, "error", err)
		return
	}
	if match == nil {
		return
	}
	p.armed = false
	p.pending = true
	p.publish(true)
	// Defer the actual start past the current event dispatch so it cannot
	// interfere with the page's own handlers for this same click.
	p.exec.Post(p.begin)
}
