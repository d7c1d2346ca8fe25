package chrome

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/pagewatch/pagewatch/internal/probe"
	"github.com/pagewatch/pagewatch/internal/scenario"
)

// Driver adapts a Browser to the scenario runner.
type Driver struct {
	browser *Browser
}

var _ scenario.Driver = (*Driver)(nil)

// NewDriver returns a scenario driver bound to the browser's tab.
func NewDriver(b *Browser) *Driver {
	return &Driver{browser: b}
}

func (d *Driver) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return chromedp.Run(d.browser.ctx, actions...)
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	return d.run(ctx, chromedp.Navigate(url))
}

func (d *Driver) Click(ctx context.Context, selector string) error {
	return d.run(ctx, chromedp.Click(selector, chromedp.ByQuery))
}

func (d *Driver) Fill(ctx context.Context, selector, text string) error {
	return d.run(ctx, chromedp.SetValue(selector, text, chromedp.ByQuery))
}

func (d *Driver) Press(ctx context.Context, key string) error {
	return d.run(ctx, chromedp.KeyEvent(keySequence(key)))
}

func (d *Driver) Sleep(ctx context.Context, dur time.Duration) error {
	return d.run(ctx, chromedp.Sleep(dur))
}

func (d *Driver) Wait(ctx context.Context, spec probe.WaitSpec) error {
	_, err := probe.Wait(ctx, d.browser.host, spec)
	return err
}

// keySequence maps the friendly key names used in scenario documents to the
// rune sequences the keyboard layer expects. Unrecognized names are typed
// literally.
func keySequence(key string) string {
	switch key {
	case "Enter":
		return kb.Enter
	case "Escape":
		return kb.Escape
	case "Tab":
		return kb.Tab
	case "Backspace":
		return kb.Backspace
	case "Delete":
		return kb.Delete
	case "ArrowUp":
		return kb.ArrowUp
	case "ArrowDown":
		return kb.ArrowDown
	case "ArrowLeft":
		return kb.ArrowLeft
	case "ArrowRight":
		return kb.ArrowRight
	default:
		return key
	}
}
