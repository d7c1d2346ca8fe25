package command

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/pagewatch/pagewatch/internal/config"
)

// HelpCommand displays help information for commands.
type HelpCommand struct {
	*BaseCommand
	registry *Registry
}

// NewHelpCommand creates a new help command.
func NewHelpCommand(registry *Registry) *HelpCommand {
	return &HelpCommand{
		BaseCommand: NewBaseCommand(
			"help",
			"Display help information for commands",
			"help [command]",
		),
		registry: registry,
	}
}

// Execute displays help information.
func (c *HelpCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		_, _ = fmt.Fprintln(stdout, "pagewatch - measure perceived latency between a click and a page reaction")
		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Usage: pagewatch <command> [options] [args...]")
		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Available commands:")

		w := tabwriter.NewWriter(stdout, 0, 8, 2, ' ', 0)
		for _, name := range c.registry.List() {
			if cmd, err := c.registry.Get(name); err == nil {
				_, _ = fmt.Fprintf(w, "  %s\t%s\n", name, cmd.Description())
			}
		}
		_ = w.Flush()

		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Use 'pagewatch help <command>' for more information about a specific command (includes flags).")
		return nil
	}

	cmdName := args[0]
	cmd, err := c.registry.Get(cmdName)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", cmdName)
		return err
	}

	_, _ = fmt.Fprintf(stdout, "Command: %s\n", cmd.Name())
	_, _ = fmt.Fprintf(stdout, "Description: %s\n", cmd.Description())
	_, _ = fmt.Fprintf(stdout, "Usage: %s\n", cmd.Usage())

	// Show command-specific flags (if any) by invoking SetupFlags on a
	// temporary FlagSet.
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	buf := &bytes.Buffer{}
	fs.SetOutput(buf)
	cmd.SetupFlags(fs)
	fs.PrintDefaults()
	if buf.Len() > 0 {
		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Flags:")
		_, _ = fmt.Fprint(stdout, buf.String())
	}

	return nil
}

// VersionCommand displays version information.
type VersionCommand struct {
	*BaseCommand
	version string
}

// NewVersionCommand creates a new version command.
func NewVersionCommand(version string) *VersionCommand {
	return &VersionCommand{
		BaseCommand: NewBaseCommand(
			"version",
			"Display version information",
			"version",
		),
		version: version,
	}
}

// Execute displays version information.
func (c *VersionCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 {
		_, _ = fmt.Fprintf(stderr, "unexpected arguments: %v\n", args)
		return fmt.Errorf("unexpected arguments")
	}
	_, _ = fmt.Fprintf(stdout, "pagewatch version %s\n", c.version)
	return nil
}

// ConfigCommand inspects and edits the saved panel settings.
type ConfigCommand struct {
	*BaseCommand
	configPath string
}

// NewConfigCommand creates a new config command. An empty configPath resolves
// to the default location at execution time.
func NewConfigCommand(configPath string) *ConfigCommand {
	return &ConfigCommand{
		BaseCommand: NewBaseCommand(
			"config",
			"Show or change the saved measurement settings",
			"config [key] [value]",
		),
		configPath: configPath,
	}
}

func (c *ConfigCommand) path() (string, error) {
	if c.configPath != "" {
		return c.configPath, nil
	}
	return config.Path()
}

// Execute shows or changes settings. With no arguments it prints all of
// them; with a key it prints one; with a key and value it sets and saves.
func (c *ConfigCommand) Execute(args []string, stdout, stderr io.Writer) error {
	path, err := c.path()
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	cfg := config.LoadFromPath(path)

	switch len(args) {
	case 0:
		_, _ = fmt.Fprintf(stdout, "start-selector: %s\n", cfg.StartSelector)
		_, _ = fmt.Fprintf(stdout, "stop-selector: %s\n", cfg.StopSelector)
		_, _ = fmt.Fprintf(stdout, "stop-mode: %s\n", cfg.StopMode)
		_, _ = fmt.Fprintf(stdout, "timeout-ms: %d\n", cfg.TimeoutMs)
		_, _ = fmt.Fprintf(stdout, "\nstored at: %s\n", path)
		return nil

	case 1:
		value, err := getKey(cfg, args[0])
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "%v\n", err)
			return err
		}
		_, _ = fmt.Fprintf(stdout, "%s: %s\n", args[0], value)
		return nil

	case 2:
		if err := setKey(&cfg, args[0], args[1]); err != nil {
			_, _ = fmt.Fprintf(stderr, "%v\n", err)
			return err
		}
		if err := config.SaveToPath(path, cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		_, _ = fmt.Fprintf(stdout, "Set %s = %s\n", args[0], args[1])
		return nil

	default:
		_, _ = fmt.Fprintln(stderr, "Invalid number of arguments")
		return fmt.Errorf("invalid arguments")
	}
}

func getKey(cfg config.Config, key string) (string, error) {
	switch key {
	case "start-selector":
		return cfg.StartSelector, nil
	case "stop-selector":
		return cfg.StopSelector, nil
	case "stop-mode":
		return cfg.StopMode, nil
	case "timeout-ms":
		return strconv.Itoa(cfg.TimeoutMs), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

func setKey(cfg *config.Config, key, value string) error {
	switch key {
	case "start-selector":
		cfg.StartSelector = value
	case "stop-selector":
		cfg.StopSelector = value
	case "stop-mode":
		cfg.StopMode = value
	case "timeout-ms":
		ms, err := strconv.Atoi(value)
		if err != nil || ms <= 0 {
			return fmt.Errorf("timeout-ms must be a positive integer, got %q", value)
		}
		cfg.TimeoutMs = ms
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
