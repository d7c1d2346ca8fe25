// Package config persists the operator's panel configuration: one flat JSON
// record under one fixed path. The record seeds the next session's inputs and
// nothing else. Loading fails soft — corrupt data, a missing file, or an
// unavailable config dir all resolve to the built-in presets — and saving is
// atomic so a crash mid-write cannot corrupt the record.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultTimeoutMs substitutes for an unparsable or non-positive timeout.
const DefaultTimeoutMs = 20000

// Config is the persisted panel record.
type Config struct {
	StartSelector string `json:"startSelector"`
	StopSelector  string `json:"stopSelector"`
	StopMode      string `json:"stopMode"`
	TimeoutMs     int    `json:"timeoutMs"`
}

// Default returns the built-in presets, aimed at the common case of timing a
// click until a dialog renders.
func Default() Config {
	return Config{
		StartSelector: "button",
		StopSelector:  `[role="dialog"]`,
		StopMode:      "visible",
		TimeoutMs:     DefaultTimeoutMs,
	}
}

var validModes = map[string]bool{
	"visible": true,
	"present": true,
	"hidden":  true,
	"gone":    true,
}

// sanitize repairs individually bad fields without discarding the rest of
// the record.
func sanitize(c Config) Config {
	if !validModes[c.StopMode] {
		c.StopMode = Default().StopMode
	}
	if c.TimeoutMs <= 0 {
		c.TimeoutMs = DefaultTimeoutMs
	}
	return c
}

// Path returns the fixed location of the persisted record.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "pagewatch", "panel.json"), nil
}

// Load reads the persisted record from the fixed path. Any failure resolves
// to the built-in presets.
func Load() Config {
	path, err := Path()
	if err != nil {
		return Default()
	}
	return LoadFromPath(path)
}

// LoadFromPath reads a persisted record from path, failing soft to presets.
func LoadFromPath(path string) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		return Default()
	}
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return Default()
	}
	return sanitize(c)
}

// Save writes the record to the fixed path.
func Save(c Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveToPath(path, c)
}

// SaveToPath writes the record atomically: a temp file in the target
// directory, then a rename over the destination.
func SaveToPath(path string, c Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(sanitize(c), "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".panel-*.json")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp config: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}
