package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"

	"github.com/roach88/hivekeep/internal/apiary"
	"github.com/roach88/hivekeep/internal/editor"
	"github.com/roach88/hivekeep/internal/store"
	"github.com/roach88/hivekeep/internal/testutil"
)

// Harness is the scenario execution engine.
// It runs operations against one store with a deterministic clock and ids.
type Harness struct {
	store    *store.Store
	clock    *testutil.DeterministicClock
	logger   *slog.Logger
	sessions map[string]*editor.Session
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Execute setup steps (each must succeed)
// 3. Execute flow steps, checking each outcome against its expect clause
// 4. Evaluate assertions and render the final stacks
func Run(scenario *Scenario) (*Result, error) {
	clock := testutil.NewDeterministicClock()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.Open(":memory:",
		store.WithClock(clock),
		store.WithIDGenerator(testutil.NewSequentialIDs("id")),
		store.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:    st,
		clock:    clock,
		logger:   logger,
		sessions: make(map[string]*editor.Session),
	}

	ctx := context.Background()
	result := NewResult()

	if err := h.executeSetup(ctx, scenario.Setup, result); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}
	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	actx := &AssertionContext{Store: st, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	stacks, err := renderStacks(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("failed to render final state: %w", err)
	}
	result.Stacks = stacks

	return result, nil
}

// executeSetup runs all setup steps. A failing setup step aborts the run.
func (h *Harness) executeSetup(ctx context.Context, setup []ActionStep, result *Result) error {
	for i, step := range setup {
		outcome, res, err := h.invoke(ctx, step.Action, step.Args)
		if err != nil {
			return fmt.Errorf("setup step %d (%s): %w", i, step.Action, err)
		}
		result.AddTrace(step.Action, step.Args, outcome, res)
		if outcome != CaseOK {
			return fmt.Errorf("setup step %d (%s): failed with %s", i, step.Action, outcome)
		}
	}
	return nil
}

// executeFlow runs all flow steps and validates expect clauses.
// Expectation mismatches are recorded on the result; only unexpected
// internal errors abort the run.
func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) error {
	for i, step := range flow {
		outcome, res, err := h.invoke(ctx, step.Invoke, step.Args)
		if err != nil {
			return fmt.Errorf("flow step %d (%s): %w", i, step.Invoke, err)
		}
		result.AddTrace(step.Invoke, step.Args, outcome, res)

		expected := ExpectClause{Case: CaseOK}
		if step.Expect != nil {
			expected = *step.Expect
		}
		if outcome != expected.Case {
			result.AddError(fmt.Sprintf("flow[%d] %s: expected case %s, got %s", i, step.Invoke, expected.Case, outcome))
			continue
		}
		if !matchArgs(res, expected.Result) {
			result.AddError(fmt.Sprintf("flow[%d] %s: expected result %v, got %v", i, step.Invoke, expected.Result, res))
		}

		h.logger.Info("flow step completed", "step", i, "operation", step.Invoke, "case", outcome)
	}
	return nil
}

// invoke runs one operation. Domain errors become the outcome case; any
// other error is returned.
func (h *Harness) invoke(ctx context.Context, name string, args map[string]interface{}) (string, map[string]interface{}, error) {
	op, ok := operations[name]
	if !ok {
		return "", nil, fmt.Errorf("unknown operation %q", name)
	}
	res, err := op(ctx, h, args)
	if err == nil {
		return CaseOK, res, nil
	}
	if code := apiary.CodeOf(err); code != "" {
		return string(code), nil, nil
	}
	return "", nil, err
}

// session returns the editor session for hiveID, opening it on first use.
func (h *Harness) session(ctx context.Context, hiveID string) (*editor.Session, error) {
	if s, ok := h.sessions[hiveID]; ok {
		return s, nil
	}
	s, err := editor.NewSession(ctx, h.store, hiveID, editor.WithLogger(h.logger))
	if err != nil {
		return nil, err
	}
	h.sessions[hiveID] = s
	return s, nil
}

func renderStacks(ctx context.Context, st *store.Store) ([]string, error) {
	hives, err := st.ListHives(ctx)
	if err != nil {
		return nil, err
	}
	stacks := make([]string, 0, len(hives))
	for _, hv := range hives {
		cfg, err := st.GetFullConfiguration(ctx, hv.ID)
		if err != nil {
			return nil, err
		}
		stacks = append(stacks, apiary.RenderStack(cfg))
	}
	return stacks, nil
}

// matchArgs checks if actual contains all expected keys with equal values
// (subset match). Extra keys in actual are ignored.
func matchArgs(actual, expected map[string]interface{}) bool {
	for key, want := range expected {
		got, ok := actual[key]
		if !ok || !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

// valuesEqual compares YAML-decoded and Go-produced values. Integral
// float64 and int compare equal.
func valuesEqual(actual, expected interface{}) bool {
	if a, ok := toInt64(actual); ok {
		if e, ok := toInt64(expected); ok {
			return a == e
		}
	}
	return reflect.DeepEqual(actual, expected)
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}

// formatArgs renders an args map as "k=v k=v" with sorted keys.
func formatArgs(args map[string]interface{}) string {
	keys := sortedKeys(args)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, args[k]))
	}
	return strings.Join(parts, " ")
}
