// Package scenario runs scripted, repeatable latency measurements: a document
// describing (trigger, target) pairs is replayed N times against a live page,
// and the per-measurement durations are summarized. It is the batch
// counterpart to the interactive panel, for when one ad-hoc reading is not
// enough.
package scenario

import (
	"fmt"
	"time"
)

// Defaults applied by Normalize.
const (
	DefaultRuns      = 10
	DefaultTimeoutMs = 10000
	DefaultStableMs  = 600
	DefaultPollMs    = 100
)

// Scenario is a measurement document.
type Scenario struct {
	Name         string        `json:"name"`
	URL          string        `json:"url"`
	Runs         int           `json:"runs"`
	TimeoutMs    int           `json:"timeout_ms"`
	Headed       bool          `json:"headed"`
	Measurements []Measurement `json:"measurements"`
	// Checks are boolean expressions over the stats table, evaluated after
	// all runs (e.g. "popup_visible.p95_ms < 500").
	Checks []string `json:"checks"`
}

// Measurement is one named timing: perform the trigger, then block on the
// target; the measured duration covers both.
type Measurement struct {
	Name    string `json:"name"`
	Trigger Step   `json:"trigger"`
	Target  Step   `json:"target"`
}

// Step is either a trigger action or a wait target, discriminated by Type.
//
// Trigger types: goto, click, fill, press, sleep.
// Target types: wait_visible, wait_hidden, wait_present, wait_gone,
// wait_stable, sleep.
type Step struct {
	Type     string `json:"type"`
	Selector string `json:"selector"`
	Text     string `json:"text"`
	Key      string `json:"key"`
	Ms       int    `json:"ms"`
	StableMs int    `json:"stable_ms"`
	PollMs   int    `json:"poll_ms"`
}

var triggerTypes = map[string]bool{
	"goto": true, "click": true, "fill": true, "press": true, "sleep": true,
}

var targetTypes = map[string]bool{
	"wait_visible": true, "wait_hidden": true, "wait_present": true,
	"wait_gone": true, "wait_stable": true, "sleep": true,
}

// Normalize fills defaults and validates the document.
func (s *Scenario) Normalize() error {
	if s.URL == "" {
		return fmt.Errorf("scenario: url is required")
	}
	if s.Runs <= 0 {
		s.Runs = DefaultRuns
	}
	if s.TimeoutMs <= 0 {
		s.TimeoutMs = DefaultTimeoutMs
	}
	if len(s.Measurements) == 0 {
		return fmt.Errorf("scenario: at least one measurement is required")
	}
	for i := range s.Measurements {
		m := &s.Measurements[i]
		if m.Name == "" {
			m.Name = fmt.Sprintf("measurement_%d", i+1)
		}
		if !triggerTypes[m.Trigger.Type] {
			return fmt.Errorf("scenario: measurement %q: unsupported trigger type %q", m.Name, m.Trigger.Type)
		}
		if !targetTypes[m.Target.Type] {
			return fmt.Errorf("scenario: measurement %q: unsupported target type %q", m.Name, m.Target.Type)
		}
	}
	return nil
}

// Timeout returns the per-step deadline.
func (s *Scenario) Timeout() time.Duration {
	return time.Duration(s.TimeoutMs) * time.Millisecond
}
