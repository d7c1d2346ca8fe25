package scenario

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pagewatch/pagewatch/internal/probe"
)

// Driver performs page actions on behalf of the runner. The chrome package
// provides the real implementation; tests substitute their own.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	Click(ctx context.Context, selector string) error
	Fill(ctx context.Context, selector, text string) error
	Press(ctx context.Context, key string) error
	Sleep(ctx context.Context, d time.Duration) error
	Wait(ctx context.Context, spec probe.WaitSpec) error
}

// MeasurementResult is one sample of one measurement within a run.
type MeasurementResult struct {
	Name       string  `json:"name"`
	OK         bool    `json:"ok"`
	DurationMs float64 `json:"duration_ms"`
	Error      string  `json:"error,omitempty"`
}

// RunResult collects the samples from a single run.
type RunResult struct {
	Run          int                 `json:"run"`
	Measurements []MeasurementResult `json:"measurements"`
}

// Summary is the full result document written after all runs.
type Summary struct {
	ID        string           `json:"id"`
	Scenario  string           `json:"scenario"`
	URL       string           `json:"url"`
	Runs      int              `json:"runs"`
	TimeoutMs int              `json:"timeout_ms"`
	Stats     map[string]Stats `json:"stats"`
	Errors    map[string]int   `json:"errors,omitempty"`
	Checks    []CheckResult    `json:"checks,omitempty"`
	Raw       []RunResult      `json:"raw"`
}

// Passed reports whether every check held; a summary with no checks passes.
func (s *Summary) Passed() bool {
	for _, c := range s.Checks {
		if !c.Pass {
			return false
		}
	}
	return true
}

// Runner replays a scenario against a Driver.
type Runner struct {
	Driver   Driver
	Logger   *slog.Logger
	Progress io.Writer // optional per-run line output
}

// Run executes the scenario and returns the summary. A measurement failure
// is recorded and the run continues; only context cancellation aborts.
func (r *Runner) Run(ctx context.Context, sc Scenario) (*Summary, error) {
	if r.Driver == nil {
		return nil, fmt.Errorf("scenario: runner has no driver")
	}
	if err := sc.Normalize(); err != nil {
		return nil, err
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sum := &Summary{
		ID:        uuid.NewString(),
		Scenario:  sc.Name,
		URL:       sc.URL,
		Runs:      sc.Runs,
		TimeoutMs: sc.TimeoutMs,
		Stats:     make(map[string]Stats),
		Errors:    make(map[string]int),
	}
	samples := make(map[string][]float64)

	for run := 1; run <= sc.Runs; run++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.Driver.Navigate(ctx, sc.URL); err != nil {
			return nil, fmt.Errorf("scenario: run %d: navigate %s: %w", run, sc.URL, err)
		}

		rr := RunResult{Run: run}
		for _, m := range sc.Measurements {
			res := r.measure(ctx, sc, m)
			rr.Measurements = append(rr.Measurements, res)
			if res.OK {
				samples[m.Name] = append(samples[m.Name], res.DurationMs)
			} else {
				sum.Errors[m.Name]++
				logger.Warn("measurement failed",
					"scenario", sc.Name, "run", run,
					"measurement", m.Name, "error", res.Error)
			}
		}
		sum.Raw = append(sum.Raw, rr)
		r.progress(run, sc.Runs, rr)
	}

	for name, vals := range samples {
		sum.Stats[name] = summarize(vals)
	}
	for _, m := range sc.Measurements {
		if _, ok := sum.Stats[m.Name]; !ok {
			sum.Stats[m.Name] = Stats{}
		}
	}

	checks, err := evalChecks(sc.Checks, sum.Stats)
	if err != nil {
		return nil, err
	}
	sum.Checks = checks
	if len(sum.Errors) == 0 {
		sum.Errors = nil
	}
	return sum, nil
}

func (r *Runner) measure(ctx context.Context, sc Scenario, m Measurement) MeasurementResult {
	res := MeasurementResult{Name: m.Name}
	start := time.Now()
	err := r.step(ctx, sc, m.Trigger, true)
	if err == nil {
		err = r.step(ctx, sc, m.Target, false)
	}
	res.DurationMs = round2(float64(time.Since(start)) / float64(time.Millisecond))
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.OK = true
	return res
}

func (r *Runner) step(ctx context.Context, sc Scenario, st Step, trigger bool) error {
	switch st.Type {
	case "goto":
		url := st.Text
		if url == "" {
			url = sc.URL
		}
		return r.Driver.Navigate(ctx, url)
	case "click":
		return r.Driver.Click(ctx, st.Selector)
	case "fill":
		return r.Driver.Fill(ctx, st.Selector, st.Text)
	case "press":
		return r.Driver.Press(ctx, st.Key)
	case "sleep":
		return r.Driver.Sleep(ctx, time.Duration(st.Ms)*time.Millisecond)
	case "wait_visible", "wait_hidden", "wait_present", "wait_gone":
		mode, _ := probe.ParseMode(strings.TrimPrefix(st.Type, "wait_"))
		return r.Driver.Wait(ctx, probe.WaitSpec{
			Condition: probe.Condition{Selector: st.Selector, Mode: mode},
			Timeout:   sc.Timeout(),
			Poll:      time.Duration(st.PollMs) * time.Millisecond,
		})
	case "wait_stable":
		stable := st.StableMs
		if stable <= 0 {
			stable = DefaultStableMs
		}
		poll := st.PollMs
		if poll <= 0 {
			poll = DefaultPollMs
		}
		return r.Driver.Wait(ctx, probe.WaitSpec{
			Stable:  time.Duration(stable) * time.Millisecond,
			Timeout: sc.Timeout(),
			Poll:    time.Duration(poll) * time.Millisecond,
		})
	default:
		return fmt.Errorf("scenario: unsupported step type %q", st.Type)
	}
}

func (r *Runner) progress(run, total int, rr RunResult) {
	if r.Progress == nil {
		return
	}
	parts := make([]string, 0, len(rr.Measurements))
	for _, m := range rr.Measurements {
		if m.OK {
			parts = append(parts, fmt.Sprintf("%s=%.1fms", m.Name, m.DurationMs))
		} else {
			parts = append(parts, fmt.Sprintf("%s=ERR", m.Name))
		}
	}
	fmt.Fprintf(r.Progress, "run %d/%d :: %s\n", run, total, strings.Join(parts, " | "))
}
