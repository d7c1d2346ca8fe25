// Package chrome backs the dom interfaces with a real browser over the
// DevTools protocol. A small script injected into every document holds
// element handles and streams click and mutation events back over a runtime
// binding, so the rest of the program never deals with CDP node IDs.
package chrome

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/pagewatch/pagewatch/internal/dom"
)

//go:embed bridge.js
var bridgeScript string

const bindingName = "__pagewatchEmit"

// event is the payload shape sent through the binding.
type event struct {
	Kind string `json:"kind"`
	ID   int64  `json:"id"`
}

// Host implements dom.Host on top of a browser tab. Create one with
// Browser.Host; the zero value is not usable.
type Host struct {
	browser *Browser
	logger  *slog.Logger

	mu        sync.Mutex
	nextSub   int
	observers map[int]func()
	clicks    map[int]func(dom.Element)
}

var _ dom.Host = (*Host)(nil)

func newHost(b *Browser, logger *slog.Logger) *Host {
	return &Host{
		browser:   b,
		logger:    logger,
		observers: make(map[int]func()),
		clicks:    make(map[int]func(dom.Element)),
	}
}

// dispatch handles one binding payload from the page. It runs on its own
// goroutine; CDP listeners must not block.
func (h *Host) dispatch(payload string) {
	var ev event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		h.logger.Warn("undecodable page event", "payload", payload, "error", err)
		return
	}
	switch ev.Kind {
	case "mutation":
		for _, fn := range h.snapshotObservers() {
			fn()
		}
	case "click":
		var el dom.Element
		if ev.ID != 0 {
			el = &element{host: h, id: ev.ID}
		}
		for _, fn := range h.snapshotClicks() {
			fn(el)
		}
	default:
		h.logger.Debug("unknown page event", "kind", ev.Kind)
	}
}

func (h *Host) snapshotObservers() []func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]func(), 0, len(h.observers))
	for _, fn := range h.observers {
		out = append(out, fn)
	}
	return out
}

func (h *Host) snapshotClicks() []func(dom.Element) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]func(dom.Element), 0, len(h.clicks))
	for _, fn := range h.clicks {
		out = append(out, fn)
	}
	return out
}

// eval runs a bridge call in the page and decodes the result.
func (h *Host) eval(out any, fn string, args ...any) error {
	expr, err := bridgeCall(fn, args...)
	if err != nil {
		return err
	}
	if err := chromedp.Run(h.browser.ctx, chromedp.Evaluate(expr, out)); err != nil {
		return fmt.Errorf("chrome: %s: %w", fn, err)
	}
	return nil
}

// bridgeCall builds a window.__pagewatch.<fn>(...) expression with the
// arguments encoded as JSON literals.
func bridgeCall(fn string, args ...any) (string, error) {
	encoded := make([]string, len(args))
	for i, a := range args {
		b, err := json.Marshal(a)
		if err != nil {
			return "", fmt.Errorf("chrome: encode argument %d of %s: %w", i, fn, err)
		}
		encoded[i] = string(b)
	}
	return fmt.Sprintf("window.__pagewatch.%s(%s)", fn, strings.Join(encoded, ", ")), nil
}

type handleResult struct {
	ID int64 `json:"id"`
}

func (h *Host) Query(selector string) (dom.Element, error) {
	var res handleResult
	if err := h.eval(&res, "query", selector); err != nil {
		return nil, err
	}
	if res.ID == 0 {
		return nil, nil
	}
	return &element{host: h, id: res.ID}, nil
}

func (h *Host) ElementFromPoint(x, y float64) (dom.Element, error) {
	var res handleResult
	if err := h.eval(&res, "fromPoint", x, y); err != nil {
		return nil, err
	}
	if res.ID == 0 {
		return nil, nil
	}
	return &element{host: h, id: res.ID}, nil
}

func (h *Host) Viewport() (dom.Size, error) {
	var res struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}
	if err := h.eval(&res, "viewport"); err != nil {
		return dom.Size{}, err
	}
	return dom.Size{Width: res.Width, Height: res.Height}, nil
}

func (h *Host) Fingerprint() (dom.Fingerprint, error) {
	var res struct {
		Nodes      int     `json:"nodes"`
		Width      float64 `json:"width"`
		Height     float64 `json:"height"`
		ReadyState string  `json:"readyState"`
	}
	if err := h.eval(&res, "fingerprint"); err != nil {
		return dom.Fingerprint{}, err
	}
	return dom.Fingerprint{
		Nodes:      res.Nodes,
		Width:      res.Width,
		Height:     res.Height,
		ReadyState: res.ReadyState,
	}, nil
}

// Observe subscribes to mutation notifications. The page-side observer is
// reference counted, so overlapping subscriptions share one MutationObserver.
func (h *Host) Observe(fn func()) (dom.Disposer, error) {
	var res struct{}
	if err := h.eval(&res, "observe"); err != nil {
		return nil, err
	}
	h.mu.Lock()
	h.nextSub++
	id := h.nextSub
	h.observers[id] = fn
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		_, live := h.observers[id]
		delete(h.observers, id)
		h.mu.Unlock()
		if live {
			if err := h.eval(&res, "disconnect"); err != nil {
				h.logger.Debug("mutation observer disconnect", "error", err)
			}
		}
	}, nil
}

// Clicks subscribes to capture-phase clicks anywhere in the document. The
// page-side listener is installed unconditionally at document start, so this
// only registers the callback.
func (h *Host) Clicks(fn func(dom.Element)) (dom.Disposer, error) {
	h.mu.Lock()
	h.nextSub++
	id := h.nextSub
	h.clicks[id] = fn
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		delete(h.clicks, id)
		h.mu.Unlock()
	}, nil
}

// element is a page-held handle. Handles do not survive navigation; the
// bridge reports them stale once the node is detached.
type element struct {
	host *Host
	id   int64
}

var _ dom.Element = (*element)(nil)

func (e *element) Closest(selector string) (dom.Element, error) {
	var res handleResult
	if err := e.host.eval(&res, "closest", e.id, selector); err != nil {
		return nil, err
	}
	if res.ID == 0 {
		return nil, nil
	}
	return &element{host: e.host, id: res.ID}, nil
}

func (e *element) Style() (dom.Style, error) {
	var res struct {
		Display    string  `json:"display"`
		Visibility string  `json:"visibility"`
		Opacity    float64 `json:"opacity"`
	}
	if err := e.host.eval(&res, "style", e.id); err != nil {
		return dom.Style{}, err
	}
	return dom.Style{Display: res.Display, Visibility: res.Visibility, Opacity: res.Opacity}, nil
}

func (e *element) Rect() (dom.Rect, error) {
	var res struct {
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}
	if err := e.host.eval(&res, "rect", e.id); err != nil {
		return dom.Rect{}, err
	}
	return dom.Rect{X: res.X, Y: res.Y, Width: res.Width, Height: res.Height}, nil
}

func (e *element) Contains(other dom.Element) (bool, error) {
	o, ok := other.(*element)
	if !ok {
		return false, fmt.Errorf("chrome: contains: foreign element %T", other)
	}
	var res struct {
		Contains bool `json:"contains"`
	}
	if err := e.host.eval(&res, "contains", e.id, o.id); err != nil {
		return false, err
	}
	return res.Contains, nil
}

// listen wires the runtime binding events from one tab into the host.
func (h *Host) listen(b *Browser) {
	chromedp.ListenTarget(b.ctx, func(ev any) {
		if bc, ok := ev.(*runtime.EventBindingCalled); ok && bc.Name == bindingName {
			go h.dispatch(bc.Payload)
		}
	})
}
