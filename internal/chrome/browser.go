package chrome

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// Options controls how the browser process is launched.
type Options struct {
	// ExecPath overrides browser discovery with an explicit binary.
	ExecPath string `env:"PAGEWATCH_CHROME"`
	// Headed shows the browser window instead of running headless.
	Headed bool `env:"PAGEWATCH_HEADED"`
	// NoSandbox disables the Chromium sandbox, needed in some containers.
	NoSandbox bool `env:"PAGEWATCH_NO_SANDBOX"`
}

// OptionsFromEnv reads Options from PAGEWATCH_* environment variables.
func OptionsFromEnv() (Options, error) {
	var o Options
	if err := env.Parse(&o); err != nil {
		return Options{}, fmt.Errorf("chrome: parse environment: %w", err)
	}
	return o, nil
}

func (o Options) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if o.Headed {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if o.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if o.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(o.ExecPath))
	}
	return opts
}

// Browser owns one launched browser process with a single tab.
type Browser struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	logger      *slog.Logger
	host        *Host
}

// Connect launches the browser, injects the bridge into the initial document,
// and arranges for every future document to get it before page scripts run.
func Connect(ctx context.Context, opts Options, logger *slog.Logger) (*Browser, error) {
	if logger == nil {
		logger = slog.Default()
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts.allocatorOptions()...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	b := &Browser{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		logger:      logger,
	}
	b.host = newHost(b, logger)
	b.host.listen(b)

	err := chromedp.Run(tabCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			return runtime.AddBinding(bindingName).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(bridgeScript).Do(ctx)
			return err
		}),
		chromedp.Evaluate(bridgeScript, nil),
	)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("chrome: start browser: %w", err)
	}
	logger.Debug("browser started", "headed", opts.Headed)
	return b, nil
}

// Host returns the dom.Host backed by this browser's tab.
func (b *Browser) Host() *Host {
	return b.host
}

// Navigate loads the URL and waits for the load event.
func (b *Browser) Navigate(url string) error {
	if err := chromedp.Run(b.ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("chrome: navigate %s: %w", url, err)
	}
	return nil
}

// Close tears down the tab and the browser process.
func (b *Browser) Close() {
	b.cancelTab()
	b.cancelAlloc()
}
