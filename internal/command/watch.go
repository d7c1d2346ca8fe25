package command

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/pagewatch/pagewatch/internal/chrome"
	"github.com/pagewatch/pagewatch/internal/config"
	"github.com/pagewatch/pagewatch/internal/panel"
	"github.com/pagewatch/pagewatch/internal/probe"
)

// WatchCommand opens the interactive panel against a live page.
type WatchCommand struct {
	*BaseCommand
	url        string
	configPath string
}

// NewWatchCommand creates a new watch command.
func NewWatchCommand() *WatchCommand {
	return &WatchCommand{
		BaseCommand: NewBaseCommand(
			"watch",
			"Open the interactive measurement panel against a live page",
			"watch -url <address>",
		),
	}
}

// SetupFlags configures the flags for the watch command.
func (c *WatchCommand) SetupFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.url, "url", "", "page to open and watch (required)")
	fs.StringVar(&c.configPath, "config", "", "override the settings file location")
}

// probeController defers binding the probe until after the program exists,
// since the probe's notifications need the program and the panel needs the
// controller.
type probeController struct {
	probe *probe.Probe
}

func (c *probeController) Arm() {
	if c.probe != nil {
		c.probe.Arm()
	}
}

func (c *probeController) Stop() {
	if c.probe != nil {
		c.probe.Stop()
	}
}

// Execute launches the browser, installs the click probe, and runs the panel
// until the user quits.
func (c *WatchCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 {
		_, _ = fmt.Fprintf(stderr, "unexpected arguments: %v\n", args)
		return fmt.Errorf("unexpected arguments")
	}
	if c.url == "" {
		_, _ = fmt.Fprintln(stderr, "the -url flag is required")
		return fmt.Errorf("missing -url")
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("watch needs an interactive terminal")
	}

	path := c.configPath
	if path == "" {
		var err error
		if path, err = config.Path(); err != nil {
			return fmt.Errorf("resolve config path: %w", err)
		}
	}
	live := panel.NewLiveConfig(config.LoadFromPath(path))
	logs := panel.NewRingHandler(200)
	logger := slog.New(logs)

	opts, err := chrome.OptionsFromEnv()
	if err != nil {
		return err
	}
	browser, err := chrome.Connect(context.Background(), opts, logger)
	if err != nil {
		return err
	}
	defer browser.Close()

	if err := browser.Navigate(c.url); err != nil {
		return err
	}

	ctrl := &probeController{}
	model := panel.New(live, ctrl, logs, func(cfg config.Config) error {
		return config.SaveToPath(path, cfg)
	})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())

	p, err := probe.Install(probe.Options{
		Host:          browser.Host(),
		StartSelector: live.StartSelector,
		StopSpec:      live.StopSpec,
		Notify: func(st probe.Status) {
			program.Send(panel.StatusMsg(st))
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}
	defer p.Close()
	ctrl.probe = p

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("panel: %w", err)
	}
	return nil
}
