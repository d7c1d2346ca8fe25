package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "popup.json", `{
		"name": "popup",
		"url": "https://example.test/",
		"runs": 5,
		"timeout_ms": 8000,
		"measurements": [
			{
				"name": "popup_visible",
				"trigger": {"type": "click", "selector": "#open"},
				"target": {"type": "wait_visible", "selector": ".popup"}
			}
		],
		"checks": ["popup_visible.p95_ms < 500"]
	}`)

	sc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "popup", sc.Name)
	assert.Equal(t, 5, sc.Runs)
	assert.Equal(t, 8000, sc.TimeoutMs)
	require.Len(t, sc.Measurements, 1)
	assert.Equal(t, "wait_visible", sc.Measurements[0].Target.Type)
	assert.Equal(t, []string{"popup_visible.p95_ms < 500"}, sc.Checks)
}

func TestLoadScript(t *testing.T) {
	path := writeFile(t, "popup.js", `
		const open = { type: "click", selector: "#open" };
		const visible = sel => ({ type: "wait_visible", selector: sel });

		scenario = {
			name: "scripted",
			url: "https://example.test/",
			runs: 2,
			measurements: [
				{ name: "popup_visible", trigger: open, target: visible(".popup") },
				{ name: "popup_gone", trigger: { type: "press", key: "Escape" },
				  target: { type: "wait_gone", selector: ".popup" } },
			],
		};
		console.log("scenario built:", scenario.name);
	`)

	sc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "scripted", sc.Name)
	assert.Equal(t, 2, sc.Runs)
	require.Len(t, sc.Measurements, 2)
	assert.Equal(t, "#open", sc.Measurements[0].Trigger.Selector)
	assert.Equal(t, "wait_gone", sc.Measurements[1].Target.Type)
	assert.Equal(t, DefaultTimeoutMs, sc.TimeoutMs)
}

func TestLoadScriptWithoutGlobal(t *testing.T) {
	path := writeFile(t, "empty.js", `const notIt = 1;`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenario")
}

func TestLoadScriptSyntaxError(t *testing.T) {
	path := writeFile(t, "bad.js", `scenario = {`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMalformedJSON(t *testing.T) {
	path := writeFile(t, "bad.json", `{"name": `)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadNormalizes(t *testing.T) {
	path := writeFile(t, "nourl.json", `{"measurements": [{"trigger": {"type":"click"}, "target": {"type":"sleep"}}]}`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "url")
}
