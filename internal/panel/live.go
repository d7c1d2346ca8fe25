package panel

import (
	"sync"
	"time"

	"github.com/pagewatch/pagewatch/internal/config"
	"github.com/pagewatch/pagewatch/internal/probe"
)

// LiveConfig is the mutable settings record shared between the panel and the
// measurement machinery. The probe reads it at click time and at measurement
// start, so edits in the panel take effect without re-arming.
type LiveConfig struct {
	mu  sync.RWMutex
	cfg config.Config
}

// NewLiveConfig seeds the live record from a loaded config.
func NewLiveConfig(cfg config.Config) *LiveConfig {
	return &LiveConfig{cfg: cfg}
}

// Get returns a copy of the current settings.
func (l *LiveConfig) Get() config.Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg
}

// Set replaces the current settings.
func (l *LiveConfig) Set(cfg config.Config) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cfg = cfg
}

// StartSelector reads the current trigger selector. Suitable for
// probe.Options.StartSelector.
func (l *LiveConfig) StartSelector() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg.StartSelector
}

// StopSpec builds the stop condition from the current settings. Suitable for
// probe.Options.StopSpec.
func (l *LiveConfig) StopSpec() probe.StopSpec {
	l.mu.RLock()
	defer l.mu.RUnlock()
	mode, ok := probe.ParseMode(l.cfg.StopMode)
	if !ok {
		mode = probe.ModeVisible
	}
	timeout := time.Duration(l.cfg.TimeoutMs) * time.Millisecond
	return probe.StopSpec{
		Selector: l.cfg.StopSelector,
		Mode:     mode,
		Timeout:  timeout,
	}
}
