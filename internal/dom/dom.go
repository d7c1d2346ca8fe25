// Package dom abstracts the host DOM environment consumed by the measurement
// core: selector queries, computed style, geometry, point hit-testing,
// mutation observation, and click capture. Implementations exist for a live
// Chrome tab (internal/chrome) and for in-process tests (internal/dom/domtest).
package dom

// Style is the subset of an element's computed style the visibility oracle
// inspects.
type Style struct {
	Display    string
	Visibility string
	Opacity    float64
}

// Rect is an element's rendered bounding box in viewport coordinates.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Size is the viewport extent in device-independent pixels.
type Size struct {
	Width  float64
	Height float64
}

// Fingerprint is a coarse snapshot of document shape, used to detect the DOM
// settling down (no structural or layout-extent churn for a quiet window).
type Fingerprint struct {
	Nodes      int
	Width      float64
	Height     float64
	ReadyState string
}

// Element is a handle to a live element. Handles stay valid while the element
// is reachable from the host; operations on detached or stale handles return
// errors, which callers degrade to "not found" / "not visible".
type Element interface {
	// Closest returns the nearest self-or-ancestor element matching selector,
	// or (nil, nil) when there is none. A selector the host cannot parse is an
	// error.
	Closest(selector string) (Element, error)

	// Style returns the element's computed style.
	Style() (Style, error)

	// Rect returns the element's bounding box.
	Rect() (Rect, error)

	// Contains reports whether other is this element or one of its
	// descendants.
	Contains(other Element) (bool, error)
}

// Disposer releases a registration. Disposers are idempotent.
type Disposer func()

// Host is a live document plus the event sources the core needs. Callback
// registrations (Observe, Clicks) may invoke their functions from arbitrary
// goroutines; callers are responsible for serialization.
type Host interface {
	// Query resolves selector to its first match in document order, or
	// (nil, nil) when nothing matches. A selector the host cannot parse is an
	// error.
	Query(selector string) (Element, error)

	// ElementFromPoint returns the topmost rendered element at the viewport
	// point, or (nil, nil) when the point hits nothing.
	ElementFromPoint(x, y float64) (Element, error)

	// Viewport returns the current viewport size.
	Viewport() (Size, error)

	// Observe registers fn to be called whenever the document subtree sees a
	// child-list change, or an attribute change to one of style, class,
	// aria-hidden, or hidden.
	Observe(fn func()) (Disposer, error)

	// Clicks registers fn to receive the target of every click dispatched in
	// the document, during the capture phase.
	Clicks(fn func(target Element)) (Disposer, error)

	// Fingerprint returns the current document shape snapshot.
	Fingerprint() (Fingerprint, error)
}
