package probe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pagewatch/pagewatch/internal/dom/domtest"
)

func TestWaitAlreadySatisfied(t *testing.T) {
	doc := domtest.MustNew(`<html><body><div id="x">x</div></body></html>`)
	elapsed, err := Wait(context.Background(), doc, WaitSpec{
		Condition: Condition{Selector: "#x", Mode: ModePresent},
		Timeout:   time.Second,
	})
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if elapsed > 50*time.Millisecond {
		t.Fatalf("already-true condition took %v, expected immediate return", elapsed)
	}
}

func TestWaitWakesOnMutation(t *testing.T) {
	doc := domtest.MustNew(`<html><body></body></html>`)
	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = doc.Append("body", `<div id="late">x</div>`)
	}()
	elapsed, err := Wait(context.Background(), doc, WaitSpec{
		Condition: Condition{Selector: "#late", Mode: ModePresent},
		Timeout:   2 * time.Second,
		// A long poll proves the mutation wake-up, not the poll, caught it.
		Poll: time.Second,
	})
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if elapsed >= time.Second {
		t.Fatalf("mutation should have woken the wait well before the poll, took %v", elapsed)
	}
}

func TestWaitTimesOut(t *testing.T) {
	doc := domtest.MustNew(`<html><body></body></html>`)
	start := time.Now()
	_, err := Wait(context.Background(), doc, WaitSpec{
		Condition: Condition{Selector: "#never", Mode: ModePresent},
		Timeout:   40 * time.Millisecond,
		Poll:      5 * time.Millisecond,
	})
	if !errors.Is(err, ErrWaitTimeout) {
		t.Fatalf("err = %v, want ErrWaitTimeout", err)
	}
	if waited := time.Since(start); waited < 40*time.Millisecond {
		t.Fatalf("timed out after %v, before the deadline", waited)
	}
}

func TestWaitContextCancellation(t *testing.T) {
	doc := domtest.MustNew(`<html><body></body></html>`)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(15 * time.Millisecond)
		cancel()
	}()
	_, err := Wait(ctx, doc, WaitSpec{
		Condition: Condition{Selector: "#never", Mode: ModePresent},
		Timeout:   5 * time.Second,
		Poll:      5 * time.Millisecond,
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestWaitStableSettlesAfterChurnStops(t *testing.T) {
	doc := domtest.MustNew(`<html><body><ul id="list"></ul></body></html>`)
	churnUntil := time.Now().Add(60 * time.Millisecond)
	go func() {
		for time.Now().Before(churnUntil) {
			_ = doc.Append("#list", `<li>row</li>`)
			time.Sleep(5 * time.Millisecond)
		}
	}()
	elapsed, err := Wait(context.Background(), doc, WaitSpec{
		Stable:  30 * time.Millisecond,
		Poll:    5 * time.Millisecond,
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if elapsed < 60*time.Millisecond {
		t.Fatalf("wait settled at %v, while the document was still churning", elapsed)
	}
}

func TestWaitReleasesWatcher(t *testing.T) {
	doc := domtest.MustNew(`<html><body><div id="x">x</div></body></html>`)
	if _, err := Wait(context.Background(), doc, WaitSpec{
		Condition: Condition{Selector: "#x", Mode: ModePresent},
		Timeout:   time.Second,
	}); err != nil {
		t.Fatal(err)
	}
	if got := doc.ActiveWatchers(); got != 0 {
		t.Fatalf("wait leaked %d mutation watchers", got)
	}
}

func TestWaitGoneOnEmptyDocument(t *testing.T) {
	// Absence satisfies gone immediately, even for selectors that never
	// matched anything.
	doc := domtest.MustNew(`<html><body></body></html>`)
	if _, err := Wait(context.Background(), doc, WaitSpec{
		Condition: Condition{Selector: ".spinner", Mode: ModeGone},
		Timeout:   time.Second,
	}); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}
