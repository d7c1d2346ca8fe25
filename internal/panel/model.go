// Package panel is the interactive terminal UI: it edits the measurement
// settings live, arms the click trigger, and displays the timer as it runs.
package panel

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/pagewatch/pagewatch/internal/config"
	"github.com/pagewatch/pagewatch/internal/probe"
)

// StatusMsg carries a probe status update into the Update loop. Deliver with
// Program.Send from the probe's Notify callback.
type StatusMsg probe.Status

// Controller is the measurement side the panel drives.
type Controller interface {
	Arm()
	Stop()
}

const (
	fieldStart = iota
	fieldStop
	fieldTimeout
	fieldCount
)

const (
	zoneArm  = "panel-arm"
	zoneStop = "panel-stop"
	zoneSave = "panel-save"
	zoneMode = "panel-mode"
)

var (
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	buttonStyle = lipgloss.NewStyle().Padding(0, 1).Background(lipgloss.Color("236")).Foreground(lipgloss.Color("252"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	logStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	stateStyles = map[probe.State]lipgloss.Style{
		probe.StateIdle:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		probe.StateArmed:    lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true),
		probe.StateRunning:  lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true),
		probe.StateTerminal: lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
	}
)

// Model implements tea.Model.
type Model struct {
	zone   *zone.Manager
	inputs [fieldCount]textinput.Model
	focus  int
	mode   probe.Mode

	live *LiveConfig
	ctrl Controller
	logs *RingHandler
	save func(config.Config) error

	status probe.Status
	notice string
	width  int
}

// New builds the panel model around the shared live settings.
func New(live *LiveConfig, ctrl Controller, logs *RingHandler, save func(config.Config) error) Model {
	cfg := live.Get()

	mk := func(placeholder, value string) textinput.Model {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.SetValue(value)
		ti.Prompt = "> "
		ti.CharLimit = 256
		return ti
	}

	m := Model{
		zone: zone.New(),
		live: live,
		ctrl: ctrl,
		logs: logs,
		save: save,
	}
	m.inputs[fieldStart] = mk("button.submit", cfg.StartSelector)
	m.inputs[fieldStop] = mk(`[role="dialog"]`, cfg.StopSelector)
	m.inputs[fieldTimeout] = mk("20000", strconv.Itoa(cfg.TimeoutMs))
	m.inputs[fieldStart].Focus()

	if mode, ok := probe.ParseMode(cfg.StopMode); ok {
		m.mode = mode
	} else {
		m.mode = probe.ModeVisible
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case StatusMsg:
		m.status = probe.Status(msg)
		return m, nil

	case tea.MouseMsg:
		return m.updateMouse(msg)

	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m Model) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	switch {
	case m.zone.Get(zoneArm).InBounds(msg):
		return m.armNow()
	case m.zone.Get(zoneStop).InBounds(msg):
		m.ctrl.Stop()
		return m, nil
	case m.zone.Get(zoneSave).InBounds(msg):
		return m.saveNow()
	case m.zone.Get(zoneMode).InBounds(msg):
		return m.cycleMode()
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.zone.Close()
		return m, tea.Quit
	case "tab":
		return m.moveFocus(1), nil
	case "shift+tab":
		return m.moveFocus(-1), nil
	case "enter":
		m.apply()
		return m, nil
	case "ctrl+t":
		return m.cycleMode()
	case "ctrl+a":
		return m.armNow()
	case "ctrl+x":
		m.ctrl.Stop()
		return m, nil
	case "ctrl+s":
		return m.saveNow()
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) moveFocus(delta int) Model {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + fieldCount) % fieldCount
	m.inputs[m.focus].Focus()
	return m
}

func (m Model) cycleMode() (Model, tea.Cmd) {
	switch m.mode {
	case probe.ModeVisible:
		m.mode = probe.ModePresent
	case probe.ModePresent:
		m.mode = probe.ModeHidden
	case probe.ModeHidden:
		m.mode = probe.ModeGone
	default:
		m.mode = probe.ModeVisible
	}
	m.apply()
	return m, nil
}

func (m Model) armNow() (Model, tea.Cmd) {
	m.apply()
	m.ctrl.Arm()
	return m, nil
}

func (m Model) saveNow() (Model, tea.Cmd) {
	m.apply()
	if err := m.save(m.live.Get()); err != nil {
		m.notice = "save failed: " + err.Error()
	} else {
		m.notice = "settings saved"
	}
	return m, nil
}

// apply copies the edited fields into the shared live settings. A bad timeout
// keeps the previous value rather than blocking the edit.
func (m *Model) apply() {
	cfg := m.live.Get()
	cfg.StartSelector = strings.TrimSpace(m.inputs[fieldStart].Value())
	cfg.StopSelector = strings.TrimSpace(m.inputs[fieldStop].Value())
	cfg.StopMode = string(m.mode)
	m.notice = ""
	if raw := strings.TrimSpace(m.inputs[fieldTimeout].Value()); raw != "" {
		if ms, err := strconv.Atoi(raw); err == nil && ms > 0 {
			cfg.TimeoutMs = ms
		} else {
			m.notice = "timeout must be a positive number of milliseconds"
		}
	}
	m.live.Set(cfg)
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("pagewatch"))
	b.WriteString("  ")
	b.WriteString(m.statusLine())
	b.WriteString("\n\n")

	labels := [fieldCount]string{"start selector", "stop selector", "timeout (ms)"}
	for i := range m.inputs {
		b.WriteString(labelStyle.Render(labels[i]))
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
	}
	b.WriteString(labelStyle.Render("stop mode"))
	b.WriteString(m.zone.Mark(zoneMode, buttonStyle.Render(string(m.mode)+" (ctrl+t)")))
	b.WriteString("\n\n")

	buttons := []string{
		m.zone.Mark(zoneArm, buttonStyle.Render("Arm (ctrl+a)")),
		m.zone.Mark(zoneStop, buttonStyle.Render("Stop (ctrl+x)")),
		m.zone.Mark(zoneSave, buttonStyle.Render("Save (ctrl+s)")),
	}
	b.WriteString(strings.Join(buttons, "  "))
	b.WriteString("\n")

	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice))
		b.WriteString("\n")
	}

	if m.logs != nil {
		if tail := m.logs.Tail(6); len(tail) > 0 {
			b.WriteString("\n")
			for _, e := range tail {
				b.WriteString(logStyle.Render(e.String()))
				b.WriteString("\n")
			}
		}
	}

	return m.zone.Scan(b.String())
}

func (m Model) statusLine() string {
	style := stateStyles[m.status.State]
	switch m.status.State {
	case probe.StateRunning:
		return style.Render(fmt.Sprintf("RUNNING %.0fms", float64(m.status.Elapsed.Microseconds())/1000))
	case probe.StateTerminal:
		return style.Render(fmt.Sprintf("%s %.0fms",
			strings.ToUpper(m.status.Outcome.String()),
			float64(m.status.Elapsed.Microseconds())/1000))
	case probe.StateArmed:
		if m.status.Starting {
			return style.Render("STARTING")
		}
		return style.Render("ARMED (waiting for click)")
	default:
		return style.Render("idle")
	}
}
