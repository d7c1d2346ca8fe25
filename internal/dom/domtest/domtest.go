// Package domtest provides an in-process dom.Host backed by a parsed HTML
// document, for exercising the measurement core without a browser. Markup and
// selector matching are real (golang.org/x/net/html, cascadia); layout and
// stacking are supplied by the test through side tables, since a parsed tree
// has no renderer.
//
// Mutating APIs mirror what a MutationObserver configured for child-list
// changes plus the style/class/aria-hidden/hidden attributes would report:
// SetStyle, SetAttr (for observed attributes), Append, and Remove notify
// watchers; layout-only changes (SetRect, SetZ, SetViewport) deliberately do
// not, so tests can cover the poll-only detection path.
package domtest

import (
	"fmt"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/pagewatch/pagewatch/internal/dom"
)

// Doc is a fake document implementing dom.Host.
type Doc struct {
	mu       sync.Mutex
	root     *html.Node
	styles   map[*html.Node]map[string]string
	rects    map[*html.Node]dom.Rect
	stacking map[*html.Node]int
	viewport dom.Size
	ready    string

	nextReg  int
	watchers map[int]func()
	clicks   map[int]func(dom.Element)
}

// New parses markup into a fake document with a 1280x800 viewport.
func New(markup string) (*Doc, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return &Doc{
		root:     root,
		styles:   make(map[*html.Node]map[string]string),
		rects:    make(map[*html.Node]dom.Rect),
		stacking: make(map[*html.Node]int),
		viewport: dom.Size{Width: 1280, Height: 800},
		ready:    "complete",
		watchers: make(map[int]func()),
		clicks:   make(map[int]func(dom.Element)),
	}, nil
}

// MustNew is New for test setup that cannot proceed on bad markup.
func MustNew(markup string) *Doc {
	d, err := New(markup)
	if err != nil {
		panic(err)
	}
	return d
}

type element struct {
	doc  *Doc
	node *html.Node
}

// Query implements dom.Host.
func (d *Doc) Query(selector string) (dom.Element, error) {
	sel, err := cascadia.ParseGroup(selector)
	if err != nil {
		return nil, fmt.Errorf("parse selector %q: %w", selector, err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	n := firstMatch(d.root, sel)
	if n == nil {
		return nil, nil
	}
	return &element{doc: d, node: n}, nil
}

// ElementFromPoint implements dom.Host. The topmost element is decided by the
// test-assigned stacking index, ties broken by document order (later wins),
// among elements whose rect contains the point and whose own style does not
// remove them from rendering.
func (d *Doc) ElementFromPoint(x, y float64) (dom.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var top *html.Node
	topZ := 0
	walk(d.root, func(n *html.Node) {
		r, ok := d.rects[n]
		if !ok {
			return
		}
		if x < r.X || x >= r.X+r.Width || y < r.Y || y >= r.Y+r.Height {
			return
		}
		st := d.styleOf(n)
		if st.Display == "none" || st.Visibility == "hidden" {
			return
		}
		z := d.stacking[n]
		if top == nil || z >= topZ {
			top = n
			topZ = z
		}
	})
	if top == nil {
		return nil, nil
	}
	return &element{doc: d, node: top}, nil
}

// Viewport implements dom.Host.
func (d *Doc) Viewport() (dom.Size, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.viewport, nil
}

// Observe implements dom.Host.
func (d *Doc) Observe(fn func()) (dom.Disposer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextReg
	d.nextReg++
	d.watchers[id] = fn
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.watchers, id)
	}, nil
}

// Clicks implements dom.Host.
func (d *Doc) Clicks(fn func(dom.Element)) (dom.Disposer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextReg
	d.nextReg++
	d.clicks[id] = fn
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.clicks, id)
	}, nil
}

// Fingerprint implements dom.Host.
func (d *Doc) Fingerprint() (dom.Fingerprint, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	count := 0
	walk(d.root, func(*html.Node) { count++ })
	return dom.Fingerprint{
		Nodes:      count,
		Width:      d.viewport.Width,
		Height:     d.viewport.Height,
		ReadyState: d.ready,
	}, nil
}

// ActiveWatchers reports the number of live mutation registrations, for
// resource-leak assertions.
func (d *Doc) ActiveWatchers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.watchers)
}

// ActiveClickListeners reports the number of live click registrations.
func (d *Doc) ActiveClickListeners() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.clicks)
}

// Click dispatches a click whose target is the first match of selector.
func (d *Doc) Click(selector string) error {
	el, err := d.Query(selector)
	if err != nil {
		return err
	}
	if el == nil {
		return fmt.Errorf("click: no element matches %q", selector)
	}
	for _, fn := range d.snapshotClicks() {
		fn(el)
	}
	return nil
}

func (d *Doc) snapshotClicks() []func(dom.Element) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]func(dom.Element), 0, len(d.clicks))
	for _, fn := range d.clicks {
		out = append(out, fn)
	}
	return out
}

// observedAttrs is the attribute filter a real mutation watcher would use.
var observedAttrs = map[string]bool{
	"style":       true,
	"class":       true,
	"aria-hidden": true,
	"hidden":      true,
}

// SetStyle sets one computed-style property on the first match of selector
// and notifies watchers (a style attribute mutation).
func (d *Doc) SetStyle(selector, property, value string) error {
	n, err := d.firstNode(selector)
	if err != nil {
		return err
	}
	d.mu.Lock()
	m := d.styles[n]
	if m == nil {
		m = make(map[string]string)
		d.styles[n] = m
	}
	m[property] = value
	d.mu.Unlock()
	d.notify()
	return nil
}

// SetAttr sets an attribute on the first match of selector. Watchers are
// notified only for attributes in the observed set, matching the mutation
// watcher's attribute filter.
func (d *Doc) SetAttr(selector, name, value string) error {
	n, err := d.firstNode(selector)
	if err != nil {
		return err
	}
	d.mu.Lock()
	replaced := false
	for i := range n.Attr {
		if n.Attr[i].Key == name {
			n.Attr[i].Val = value
			replaced = true
			break
		}
	}
	if !replaced {
		n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
	}
	d.mu.Unlock()
	if observedAttrs[name] {
		d.notify()
	}
	return nil
}

// Append parses fragment in the context of the first match of parentSelector,
// appends the resulting nodes, and notifies watchers (a child-list mutation).
func (d *Doc) Append(parentSelector, fragment string) error {
	parent, err := d.firstNode(parentSelector)
	if err != nil {
		return err
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), parent)
	if err != nil {
		return fmt.Errorf("parse fragment: %w", err)
	}
	d.mu.Lock()
	for _, n := range nodes {
		parent.AppendChild(n)
	}
	d.mu.Unlock()
	d.notify()
	return nil
}

// Remove detaches the first match of selector and notifies watchers.
func (d *Doc) Remove(selector string) error {
	n, err := d.firstNode(selector)
	if err != nil {
		return err
	}
	d.mu.Lock()
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
	d.mu.Unlock()
	d.notify()
	return nil
}

// SetRect assigns a layout box without notifying watchers: geometry changes
// are invisible to a mutation watcher and only the poll can catch them.
func (d *Doc) SetRect(selector string, r dom.Rect) error {
	n, err := d.firstNode(selector)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.rects[n] = r
	d.mu.Unlock()
	return nil
}

// SetStacking assigns a stacking index for ElementFromPoint, without
// notifying watchers.
func (d *Doc) SetStacking(selector string, z int) error {
	n, err := d.firstNode(selector)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.stacking[n] = z
	d.mu.Unlock()
	return nil
}

// SetViewport resizes the viewport, without notifying watchers.
func (d *Doc) SetViewport(s dom.Size) {
	d.mu.Lock()
	d.viewport = s
	d.mu.Unlock()
}

// SetReadyState changes the document ready state, without notifying watchers.
func (d *Doc) SetReadyState(state string) {
	d.mu.Lock()
	d.ready = state
	d.mu.Unlock()
}

func (d *Doc) firstNode(selector string) (*html.Node, error) {
	sel, err := cascadia.ParseGroup(selector)
	if err != nil {
		return nil, fmt.Errorf("parse selector %q: %w", selector, err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	n := firstMatch(d.root, sel)
	if n == nil {
		return nil, fmt.Errorf("no element matches %q", selector)
	}
	return n, nil
}

func (d *Doc) notify() {
	d.mu.Lock()
	fns := make([]func(), 0, len(d.watchers))
	for _, fn := range d.watchers {
		fns = append(fns, fn)
	}
	d.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// styleOf resolves the effective style of a node from the side table.
// Unset properties get renderer defaults. Callers hold d.mu.
func (d *Doc) styleOf(n *html.Node) dom.Style {
	st := dom.Style{Display: "block", Visibility: "visible", Opacity: 1}
	m := d.styles[n]
	if v, ok := m["display"]; ok {
		st.Display = v
	}
	if v, ok := m["visibility"]; ok {
		st.Visibility = v
	}
	if v, ok := m["opacity"]; ok {
		var f float64
		if _, err := fmt.Sscanf(v, "%g", &f); err == nil {
			st.Opacity = f
		}
	}
	return st
}

// Closest implements dom.Element.
func (e *element) Closest(selector string) (dom.Element, error) {
	sel, err := cascadia.ParseGroup(selector)
	if err != nil {
		return nil, fmt.Errorf("parse selector %q: %w", selector, err)
	}
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	for n := e.node; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && sel.Match(n) {
			return &element{doc: e.doc, node: n}, nil
		}
	}
	return nil, nil
}

// Style implements dom.Element.
func (e *element) Style() (dom.Style, error) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if detached(e.doc.root, e.node) {
		return dom.Style{}, fmt.Errorf("stale element handle")
	}
	return e.doc.styleOf(e.node), nil
}

// Rect implements dom.Element. Elements without an assigned rect report a
// zero-size box, like an unrendered element.
func (e *element) Rect() (dom.Rect, error) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if detached(e.doc.root, e.node) {
		return dom.Rect{}, fmt.Errorf("stale element handle")
	}
	return e.doc.rects[e.node], nil
}

// Contains implements dom.Element.
func (e *element) Contains(other dom.Element) (bool, error) {
	o, ok := other.(*element)
	if !ok || o == nil {
		return false, fmt.Errorf("foreign element handle")
	}
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	for n := o.node; n != nil; n = n.Parent {
		if n == e.node {
			return true, nil
		}
	}
	return false, nil
}

func firstMatch(root *html.Node, sel cascadia.SelectorGroup) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) {
		if found == nil && sel.Match(n) {
			found = n
		}
	})
	return found
}

func walk(n *html.Node, fn func(*html.Node)) {
	if n.Type == html.ElementNode {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func detached(root, n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == root {
			return false
		}
	}
	return true
}
