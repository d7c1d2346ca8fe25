package command

import (
	"bytes"
	"flag"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchRejectsPositionalArgs(t *testing.T) {
	cmd := NewWatchCommand()
	var out, errOut bytes.Buffer
	err := cmd.Execute([]string{"extra"}, &out, &errOut)
	require.Error(t, err)
	assert.Contains(t, errOut.String(), "unexpected arguments")
}

func TestWatchRequiresURL(t *testing.T) {
	cmd := NewWatchCommand()
	var out, errOut bytes.Buffer
	err := cmd.Execute(nil, &out, &errOut)
	require.Error(t, err)
	assert.Contains(t, errOut.String(), "-url flag is required")
}

func TestWatchRequiresTerminal(t *testing.T) {
	// stdout is not a tty under go test
	cmd := NewWatchCommand()
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	cmd.SetupFlags(fs)
	require.NoError(t, fs.Parse([]string{"-url", "https://example.test/"}))

	var out, errOut bytes.Buffer
	err := cmd.Execute(fs.Args(), &out, &errOut)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interactive terminal")
}

func TestRunRequiresScenarioFile(t *testing.T) {
	cmd := NewRunCommand()
	var out, errOut bytes.Buffer
	assert.Error(t, cmd.Execute(nil, &out, &errOut))
	assert.Error(t, cmd.Execute([]string{"a.json", "b.json"}, &out, &errOut))
}

func TestRunMissingFile(t *testing.T) {
	cmd := NewRunCommand()
	var out, errOut bytes.Buffer
	err := cmd.Execute([]string{filepath.Join(t.TempDir(), "nope.json")}, &out, &errOut)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read")
}

func TestProbeControllerNilSafe(t *testing.T) {
	ctrl := &probeController{}
	ctrl.Arm()
	ctrl.Stop()
}
