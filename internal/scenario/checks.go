package scenario

import (
	"fmt"

	"github.com/expr-lang/expr"
)

// CheckResult records the outcome of one check expression.
type CheckResult struct {
	Expr string `json:"expr"`
	Pass bool   `json:"pass"`
}

// evalChecks evaluates each expression against the stats table. Measurements
// are exposed by name, with the stat fields nested under them, so a check
// reads like "popup_visible.p95_ms < 500". A check that does not compile, or
// that yields a non-boolean, is an error rather than a failure.
func evalChecks(checks []string, stats map[string]Stats) ([]CheckResult, error) {
	if len(checks) == 0 {
		return nil, nil
	}
	env := make(map[string]any, len(stats))
	for name, st := range stats {
		env[name] = map[string]any{
			"n":      st.N,
			"avg_ms": st.AvgMs,
			"p50_ms": st.P50Ms,
			"p95_ms": st.P95Ms,
			"min_ms": st.MinMs,
			"max_ms": st.MaxMs,
		}
	}
	results := make([]CheckResult, 0, len(checks))
	for _, code := range checks {
		program, err := expr.Compile(code, expr.Env(env), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("scenario: check %q: %w", code, err)
		}
		out, err := expr.Run(program, env)
		if err != nil {
			return nil, fmt.Errorf("scenario: check %q: %w", code, err)
		}
		pass, ok := out.(bool)
		if !ok {
			return nil, fmt.Errorf("scenario: check %q: expected bool, got %T", code, out)
		}
		results = append(results, CheckResult{Expr: code, Pass: pass})
	}
	return results, nil
}
