package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/console"
	"github.com/dop251/goja_nodejs/require"
)

// Load reads a scenario document from disk. Files ending in .js are
// evaluated as JavaScript and must assign the document to a global named
// `scenario`; anything else is parsed as JSON. The returned scenario is
// normalized.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: read %s: %w", path, err)
	}
	var sc *Scenario
	if strings.EqualFold(filepath.Ext(path), ".js") {
		sc, err = evalScript(filepath.Base(path), string(data))
	} else {
		sc, err = parseJSON(data)
	}
	if err != nil {
		return nil, err
	}
	if err := sc.Normalize(); err != nil {
		return nil, err
	}
	return sc, nil
}

func parseJSON(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("scenario: parse json: %w", err)
	}
	return &sc, nil
}

// evalScript runs the source in a fresh goja runtime. Scripts get console
// and require, so shared step helpers can live in neighboring modules.
func evalScript(name, src string) (*Scenario, error) {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))
	registry := new(require.Registry)
	registry.Enable(vm)
	console.Enable(vm)

	if _, err := vm.RunScript(name, src); err != nil {
		return nil, fmt.Errorf("scenario: evaluate %s: %w", name, err)
	}
	v := vm.Get("scenario")
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, fmt.Errorf("scenario: %s did not assign a global `scenario`", name)
	}
	var sc Scenario
	if err := vm.ExportTo(v, &sc); err != nil {
		return nil, fmt.Errorf("scenario: export %s: %w", name, err)
	}
	return &sc, nil
}
