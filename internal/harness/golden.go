package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// FormatTrace renders a result as the golden text form: one line per
// executed operation followed by the final rendering of every hive.
//
//	scenario: frame_lifecycle
//	trace:
//	  01 createHive {"id":"h1","number":"001"} -> ok {"id":"h1"}
//	final:
//	Hive 001 (Active)
//	  (no boxes)
//
// Args and results are JSON with sorted keys.
func FormatTrace(scenarioName string, result *Result) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "scenario: %s\n", scenarioName)
	buf.WriteString("trace:\n")
	for _, event := range result.Trace {
		args, err := json.Marshal(event.Args)
		if err != nil {
			return nil, fmt.Errorf("marshal args of step %d: %w", event.Step, err)
		}
		res, err := json.Marshal(event.Result)
		if err != nil {
			return nil, fmt.Errorf("marshal result of step %d: %w", event.Step, err)
		}
		fmt.Fprintf(&buf, "  %02d %s %s -> %s %s\n", event.Step, event.Operation, args, event.Case, res)
	}
	buf.WriteString("final:\n")
	for _, stack := range result.Stacks {
		buf.WriteString(stack)
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares its trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the trace doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := FormatTrace(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
