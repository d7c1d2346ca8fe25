package probe

import (
	"github.com/pagewatch/pagewatch/internal/dom"
)

// Oracle decides whether an element is genuinely visible to a user right now.
// DOM presence and non-zero opacity are insufficient proxies: a dialog
// collapsed to zero height, or fully covered by a spinner overlay, must count
// as not visible. Any host error along the way degrades to not visible.
type Oracle struct {
	host dom.Host
}

// NewOracle returns an oracle over host.
func NewOracle(host dom.Host) Oracle {
	return Oracle{host: host}
}

// minRenderedSize filters out zero-size and collapsed elements. Boxes under
// 2x2 device-independent pixels do not count as visible.
const minRenderedSize = 2

// Visible reports whether el can be seen. It checks computed style, then
// rendered size, then occlusion at the box center, short-circuiting on the
// first failure.
func (o Oracle) Visible(el dom.Element) bool {
	if el == nil {
		return false
	}
	st, err := el.Style()
	if err != nil {
		return false
	}
	if st.Display == "none" || st.Visibility == "hidden" || st.Opacity == 0 {
		return false
	}
	r, err := el.Rect()
	if err != nil {
		return false
	}
	if r.Width < minRenderedSize || r.Height < minRenderedSize {
		return false
	}
	vp, err := o.host.Viewport()
	if err != nil {
		return false
	}
	// Sample the box center, clamped into the viewport so an off-screen
	// center still probes at the visible edge.
	x := clamp(r.X+r.Width/2, 0, vp.Width-1)
	y := clamp(r.Y+r.Height/2, 0, vp.Height-1)
	top, err := o.host.ElementFromPoint(x, y)
	if err != nil || top == nil {
		return false
	}
	// Covered by an unrelated overlay defeats visibility; the element's own
	// descendants on top of it do not.
	ok, err := el.Contains(top)
	return err == nil && ok
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
