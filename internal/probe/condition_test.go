package probe

import (
	"testing"

	"github.com/pagewatch/pagewatch/internal/dom"
	"github.com/pagewatch/pagewatch/internal/dom/domtest"
)

const conditionPage = `<html><body>
<ul><li class="itemRow">one</li><li class="itemRow">two</li></ul>
<div class="modalHead">Title</div>
</body></html>`

func TestEvalPresentGoneComplement(t *testing.T) {
	doc := domtest.MustNew(conditionPage)
	eval := NewEvaluator(doc)

	// Exhaustive complement: gone is true iff present is false, for every
	// selector including empty and malformed ones.
	selectors := []string{
		"li.itemRow", ".modalHead", "#missing", "ul", "span", "", "   ", "!!!bad",
	}
	for _, sel := range selectors {
		present := eval.Eval(Condition{Selector: sel, Mode: ModePresent})
		gone := eval.Eval(Condition{Selector: sel, Mode: ModeGone})
		if present == gone {
			t.Errorf("selector %q: present=%v and gone=%v must be complements", sel, present, gone)
		}
	}
}

func TestEvalVisibleRequiresOracle(t *testing.T) {
	doc := domtest.MustNew(conditionPage)
	eval := NewEvaluator(doc)

	// Present but unrendered (no layout box): present yes, visible no.
	if !eval.Eval(Condition{Selector: ".modalHead", Mode: ModePresent}) {
		t.Fatal("modalHead should be present")
	}
	if eval.Eval(Condition{Selector: ".modalHead", Mode: ModeVisible}) {
		t.Fatal("modalHead has no rendered box and must not be visible")
	}

	if err := doc.SetRect(".modalHead", dom.Rect{X: 10, Y: 10, Width: 300, Height: 40}); err != nil {
		t.Fatal(err)
	}
	if !eval.Eval(Condition{Selector: ".modalHead", Mode: ModeVisible}) {
		t.Fatal("modalHead should be visible once it has a rendered box")
	}
}

func TestEvalHiddenCountsAbsence(t *testing.T) {
	doc := domtest.MustNew(conditionPage)
	eval := NewEvaluator(doc)

	// A nonexistent element is hidden: the evaluator is satisfied
	// immediately.
	if !eval.Eval(Condition{Selector: "#no-such-thing", Mode: ModeHidden}) {
		t.Fatal("absence must count as hidden")
	}

	// Present but invisible is also hidden.
	if !eval.Eval(Condition{Selector: ".modalHead", Mode: ModeHidden}) {
		t.Fatal("an unrendered element must count as hidden")
	}

	// Visible is not hidden.
	if err := doc.SetRect(".modalHead", dom.Rect{X: 10, Y: 10, Width: 300, Height: 40}); err != nil {
		t.Fatal(err)
	}
	if eval.Eval(Condition{Selector: ".modalHead", Mode: ModeHidden}) {
		t.Fatal("a visible element must not count as hidden")
	}
}

func TestEvalMalformedSelectorFailsSoft(t *testing.T) {
	doc := domtest.MustNew(conditionPage)
	eval := NewEvaluator(doc)

	if eval.Eval(Condition{Selector: ":::nope", Mode: ModePresent}) {
		t.Fatal("a malformed selector must resolve to no element")
	}
	if !eval.Eval(Condition{Selector: ":::nope", Mode: ModeGone}) {
		t.Fatal("gone must hold for a malformed selector")
	}
	if !eval.Eval(Condition{Selector: ":::nope", Mode: ModeHidden}) {
		t.Fatal("hidden must hold for a malformed selector")
	}
}

func TestEvalEmptySelectorDegenerates(t *testing.T) {
	doc := domtest.MustNew(conditionPage)
	eval := NewEvaluator(doc)

	// Documented degenerate behavior, preserved deliberately: an empty
	// selector never finds anything, so gone and hidden hold vacuously.
	if eval.Eval(Condition{Selector: "", Mode: ModePresent}) {
		t.Fatal("empty selector must not be present")
	}
	if !eval.Eval(Condition{Selector: "", Mode: ModeGone}) {
		t.Fatal("empty selector must be gone")
	}
	if !eval.Eval(Condition{Selector: "", Mode: ModeHidden}) {
		t.Fatal("empty selector must be hidden")
	}
	if eval.Eval(Condition{Selector: "", Mode: ModeVisible}) {
		t.Fatal("empty selector must not be visible")
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
		ok   bool
	}{
		{"visible", ModeVisible, true},
		{" Present ", ModePresent, true},
		{"HIDDEN", ModeHidden, true},
		{"gone", ModeGone, true},
		{"attached", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseMode(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseMode(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
