package probe

import (
	"testing"

	"github.com/pagewatch/pagewatch/internal/dom"
	"github.com/pagewatch/pagewatch/internal/dom/domtest"
)

const visibilityPage = `<html><body>
<div id="target">payload<span id="inner">x</span></div>
<div id="overlay"></div>
</body></html>`

func visibleTarget(t *testing.T) *domtest.Doc {
	t.Helper()
	doc := domtest.MustNew(visibilityPage)
	if err := doc.SetRect("#target", dom.Rect{X: 100, Y: 100, Width: 200, Height: 50}); err != nil {
		t.Fatal(err)
	}
	return doc
}

func mustQuery(t *testing.T, doc *domtest.Doc, sel string) dom.Element {
	t.Helper()
	el, err := doc.Query(sel)
	if err != nil {
		t.Fatalf("query %q: %v", sel, err)
	}
	if el == nil {
		t.Fatalf("query %q: no match", sel)
	}
	return el
}

func TestOracleVisible(t *testing.T) {
	doc := visibleTarget(t)
	oracle := NewOracle(doc)
	if !oracle.Visible(mustQuery(t, doc, "#target")) {
		t.Fatal("expected styled, sized, uncovered element to be visible")
	}
}

func TestOracleNilElement(t *testing.T) {
	doc := visibleTarget(t)
	if NewOracle(doc).Visible(nil) {
		t.Fatal("nil element must not be visible")
	}
}

func TestOracleStyleFailures(t *testing.T) {
	tests := []struct {
		name     string
		property string
		value    string
	}{
		{"display none", "display", "none"},
		{"visibility hidden", "visibility", "hidden"},
		{"opacity zero", "opacity", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := visibleTarget(t)
			if err := doc.SetStyle("#target", tt.property, tt.value); err != nil {
				t.Fatal(err)
			}
			if NewOracle(doc).Visible(mustQuery(t, doc, "#target")) {
				t.Fatalf("element with %s=%s must not be visible", tt.property, tt.value)
			}
		})
	}
}

func TestOracleNearZeroOpacityStillVisible(t *testing.T) {
	// Only exactly zero opacity defeats visibility.
	doc := visibleTarget(t)
	if err := doc.SetStyle("#target", "opacity", "0.01"); err != nil {
		t.Fatal(err)
	}
	if !NewOracle(doc).Visible(mustQuery(t, doc, "#target")) {
		t.Fatal("opacity 0.01 should still count as visible")
	}
}

func TestOracleTinyBox(t *testing.T) {
	tests := []struct {
		name string
		rect dom.Rect
	}{
		{"zero size", dom.Rect{X: 100, Y: 100}},
		{"one by one", dom.Rect{X: 100, Y: 100, Width: 1, Height: 1}},
		{"wide but flat", dom.Rect{X: 100, Y: 100, Width: 300, Height: 1.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := domtest.MustNew(visibilityPage)
			if err := doc.SetRect("#target", tt.rect); err != nil {
				t.Fatal(err)
			}
			if NewOracle(doc).Visible(mustQuery(t, doc, "#target")) {
				t.Fatalf("box %+v is below the 2x2 minimum and must not be visible", tt.rect)
			}
		})
	}
}

func TestOracleCoveredByOverlay(t *testing.T) {
	doc := visibleTarget(t)
	// Full-coverage overlay stacked above the target.
	if err := doc.SetRect("#overlay", dom.Rect{X: 0, Y: 0, Width: 1280, Height: 800}); err != nil {
		t.Fatal(err)
	}
	if err := doc.SetStacking("#overlay", 10); err != nil {
		t.Fatal(err)
	}
	if NewOracle(doc).Visible(mustQuery(t, doc, "#target")) {
		t.Fatal("element fully covered by an unrelated overlay must not be visible")
	}
}

func TestOracleOwnDescendantOnTop(t *testing.T) {
	doc := visibleTarget(t)
	// The target's own child is the topmost element at the center point.
	if err := doc.SetRect("#inner", dom.Rect{X: 100, Y: 100, Width: 200, Height: 50}); err != nil {
		t.Fatal(err)
	}
	if err := doc.SetStacking("#inner", 5); err != nil {
		t.Fatal(err)
	}
	if !NewOracle(doc).Visible(mustQuery(t, doc, "#target")) {
		t.Fatal("visibility must not be defeated by the element's own descendants")
	}
}

func TestOracleOffViewportCenterClampsToEdge(t *testing.T) {
	doc := domtest.MustNew(visibilityPage)
	// Box straddles the right viewport edge; its center (1330) is off
	// screen, so the sample point clamps to x=1279 which the box covers.
	if err := doc.SetRect("#target", dom.Rect{X: 1230, Y: 100, Width: 200, Height: 50}); err != nil {
		t.Fatal(err)
	}
	if !NewOracle(doc).Visible(mustQuery(t, doc, "#target")) {
		t.Fatal("off-viewport center must sample at the clamped edge, not fail")
	}
}
