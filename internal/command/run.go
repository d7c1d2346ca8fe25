package command

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pagewatch/pagewatch/internal/chrome"
	"github.com/pagewatch/pagewatch/internal/scenario"
)

// RunCommand replays a scenario document and reports the stats.
type RunCommand struct {
	*BaseCommand
	out    string
	runs   int
	headed bool
}

// NewRunCommand creates a new run command.
func NewRunCommand() *RunCommand {
	return &RunCommand{
		BaseCommand: NewBaseCommand(
			"run",
			"Replay a scenario file and summarize the measured latencies",
			"run [options] <scenario-file>",
		),
	}
}

// SetupFlags configures the flags for the run command.
func (c *RunCommand) SetupFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.out, "out", "", "write the results JSON to this file instead of stdout")
	fs.IntVar(&c.runs, "runs", 0, "override the scenario's run count")
	fs.BoolVar(&c.headed, "headed", false, "show the browser window")
}

// Execute loads the scenario, drives the browser through it, and writes the
// summary. A failed check makes the command fail after the results are
// written.
func (c *RunCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) != 1 {
		_, _ = fmt.Fprintln(stderr, "expected exactly one scenario file")
		return fmt.Errorf("expected exactly one scenario file")
	}

	sc, err := scenario.Load(args[0])
	if err != nil {
		return err
	}
	if c.runs > 0 {
		sc.Runs = c.runs
	}
	if c.headed {
		sc.Headed = true
	}

	logger := slog.New(slog.NewTextHandler(stderr, nil))

	opts, err := chrome.OptionsFromEnv()
	if err != nil {
		return err
	}
	opts.Headed = opts.Headed || sc.Headed

	browser, err := chrome.Connect(context.Background(), opts, logger)
	if err != nil {
		return err
	}
	defer browser.Close()

	runner := &scenario.Runner{
		Driver:   chrome.NewDriver(browser),
		Logger:   logger,
		Progress: stderr,
	}
	sum, err := runner.Run(context.Background(), *sc)
	if err != nil {
		return err
	}

	if err := c.writeSummary(sum, stdout); err != nil {
		return err
	}
	if !sum.Passed() {
		return fmt.Errorf("scenario checks failed")
	}
	return nil
}

func (c *RunCommand) writeSummary(sum *scenario.Summary, stdout io.Writer) error {
	data, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	data = append(data, '\n')
	if c.out == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(c.out, data, 0o644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}
