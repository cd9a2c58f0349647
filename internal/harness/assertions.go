package harness

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/roach88/hivekeep/internal/apiary"
	"github.com/roach88/hivekeep/internal/store"
)

// validIdentifier matches valid SQL identifiers (table/column names).
// Only allows alphanumeric and underscore, must start with letter or underscore.
// This prevents SQL injection via identifier interpolation.
var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s -> %s\n", event.Step, event.Operation, formatArgs(event.Args), event.Case)
		}
	}

	return buf.String()
}

// assertTraceContains checks if the trace contains an operation matching
// the specified name and args (subset match).
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Operation == assertion.Operation && matchArgs(event.Args, assertion.Args) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("operation %s with args %v", assertion.Operation, assertion.Args),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks if operations appear in the specified order.
// Operations don't need to be consecutive (intervening operations are allowed).
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	// Match each expected operation at or after the previous match.
	next := 0
	for _, want := range assertion.Operations {
		found := -1
		for i := next; i < len(trace); i++ {
			if trace[i].Operation == want {
				found = i
				break
			}
		}
		if found < 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("operations in order: %v", assertion.Operations),
				Actual:   fmt.Sprintf("%s not found after step %d", want, next),
				Trace:    trace,
			}
		}
		next = found + 1
	}
	return nil
}

// assertTraceCount checks if the operation appears exactly the specified number of times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Operation == assertion.Operation {
			count++
		}
	}

	if count != *assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", *assertion.Count, assertion.Operation),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState checks that exactly one row of a table matches where and
// carries the expected values (subset semantics).
//
// Security: Table and column names are validated against a whitelist pattern
// to prevent SQL injection via identifier interpolation.
func assertFinalState(ctx context.Context, st *store.Store, assertion Assertion) error {
	if !validIdentifier.MatchString(assertion.Table) {
		return fmt.Errorf("invalid table name %q: must match pattern %s", assertion.Table, validIdentifier.String())
	}

	whereSQL, whereArgs, err := buildWhereClause(assertion.Where)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("SELECT * FROM %s", assertion.Table)
	if whereSQL != "" {
		query += " WHERE " + whereSQL
	}

	rows, err := st.DB().QueryContext(ctx, query, whereArgs...)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("query table %s", assertion.Table),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("get columns: %w", err)
	}

	if !rows.Next() {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("row in %s where %s", assertion.Table, formatWhereClause(assertion.Where)),
			Actual:   "row not found",
		}
	}

	values := make([]interface{}, len(columns))
	valuePtrs := make([]interface{}, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}
	if err := rows.Scan(valuePtrs...); err != nil {
		return fmt.Errorf("scan row: %w", err)
	}

	if rows.Next() {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("exactly one row in %s where %s", assertion.Table, formatWhereClause(assertion.Where)),
			Actual:   "multiple rows matched (assertion is ambiguous)",
		}
	}

	actualRow := make(map[string]interface{}, len(columns))
	for i, col := range columns {
		actualRow[col] = values[i]
	}

	for _, key := range sortedKeys(assertion.Expect) {
		expectedValue := assertion.Expect[key]
		actualValue, exists := actualRow[key]
		if !exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("field %q not present in result columns: %v", key, columns),
			}
		}
		if !stateValuesEqual(expectedValue, actualValue) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q = %v (type %T)", key, expectedValue, expectedValue),
				Actual:   fmt.Sprintf("field %q = %v (type %T)", key, actualValue, actualValue),
			}
		}
	}
	return nil
}

// buildWhereClause constructs parameterized WHERE clause from assertion.Where.
// Returns SQL fragment, arguments slice, and error. Keys are sorted for determinism.
func buildWhereClause(where map[string]interface{}) (string, []interface{}, error) {
	if len(where) == 0 {
		return "", nil, nil
	}

	keys := sortedKeys(where)
	clauses := make([]string, 0, len(keys))
	args := make([]interface{}, 0, len(keys))

	for _, key := range keys {
		if !validIdentifier.MatchString(key) {
			return "", nil, fmt.Errorf("invalid column name %q in where clause: must match pattern %s", key, validIdentifier.String())
		}
		clauses = append(clauses, fmt.Sprintf("%s = ?", key))
		args = append(args, toSQLValue(where[key]))
	}

	return strings.Join(clauses, " AND "), args, nil
}

// toSQLValue converts a YAML-decoded value to a SQL-compatible value.
func toSQLValue(v interface{}) interface{} {
	switch val := v.(type) {
	case string, int, int64, bool:
		return val
	case float64:
		if n, ok := toInt64(val); ok {
			return n
		}
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// formatWhereClause creates a human-readable description of WHERE conditions.
func formatWhereClause(where map[string]interface{}) string {
	if len(where) == 0 {
		return "(no conditions)"
	}
	parts := make([]string, 0, len(where))
	for _, k := range sortedKeys(where) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, where[k]))
	}
	return strings.Join(parts, " AND ")
}

// stateValuesEqual compares expected and actual values from state tables.
// Handles type coercion for SQLite values which may be returned as different types.
func stateValuesEqual(expected, actual interface{}) bool {
	if expected == nil || actual == nil {
		return expected == nil && actual == nil
	}

	if b, ok := actual.([]byte); ok {
		actual = string(b)
	}

	switch exp := expected.(type) {
	case string:
		actualStr, ok := actual.(string)
		return ok && exp == actualStr
	case bool:
		if actualBool, ok := actual.(bool); ok {
			return exp == actualBool
		}
		// SQLite stores booleans as integers
		if actualInt, ok := toInt64(actual); ok {
			return exp == (actualInt != 0)
		}
		return false
	case int, int64, float64:
		if e, ok := toInt64(exp); ok {
			if a, ok := toInt64(actual); ok {
				return e == a
			}
		}
	}

	return reflect.DeepEqual(expected, actual)
}

// assertBoxCount checks the number of boxes in a hive's stack.
func assertBoxCount(cfg apiary.HiveConfiguration, assertion Assertion) error {
	if len(cfg.Boxes) != *assertion.Count {
		return &AssertionError{
			Type:     AssertBoxCount,
			Expected: fmt.Sprintf("%d boxes in hive %s", *assertion.Count, assertion.Hive),
			Actual:   fmt.Sprintf("%d boxes", len(cfg.Boxes)),
		}
	}
	return nil
}

// assertFrameCount checks the number of frames across a hive, or within
// one box when box is set.
func assertFrameCount(cfg apiary.HiveConfiguration, assertion Assertion) error {
	count := cfg.FrameCount()
	scope := "hive " + assertion.Hive
	if assertion.Box != nil {
		b, err := boxAtPosition(cfg, *assertion.Box)
		if err != nil {
			return err
		}
		count = len(b.Frames)
		scope = fmt.Sprintf("box %d of hive %s", *assertion.Box, assertion.Hive)
	}

	if count != *assertion.Count {
		return &AssertionError{
			Type:     AssertFrameCount,
			Expected: fmt.Sprintf("%d frames in %s", *assertion.Count, scope),
			Actual:   fmt.Sprintf("%d frames", count),
		}
	}
	return nil
}

// assertFrameAt checks the occupant of one slot. An empty content
// asserts that the slot is unoccupied.
func assertFrameAt(cfg apiary.HiveConfiguration, assertion Assertion) error {
	b, err := boxAtPosition(cfg, *assertion.Box)
	if err != nil {
		return err
	}

	actual := "(unoccupied)"
	if f, ok := b.FrameAt(*assertion.Slot); ok {
		actual = string(f.Content)
	}
	expected := "(unoccupied)"
	if assertion.Content != "" {
		expected = assertion.Content
	}

	if actual != expected {
		return &AssertionError{
			Type:     AssertFrameAt,
			Expected: fmt.Sprintf("box %d slot %d of hive %s holds %s", *assertion.Box, *assertion.Slot, assertion.Hive, expected),
			Actual:   actual,
		}
	}
	return nil
}

// assertStackContiguous checks that box positions run 0..n-1 and every
// frame sits inside its box's capacity.
func assertStackContiguous(cfg apiary.HiveConfiguration, assertion Assertion) error {
	for i, b := range cfg.Boxes {
		if b.Position != i {
			return &AssertionError{
				Type:     AssertStackContiguous,
				Expected: fmt.Sprintf("box at index %d of hive %s has position %d", i, assertion.Hive, i),
				Actual:   fmt.Sprintf("position %d", b.Position),
			}
		}
		for _, f := range b.Frames {
			if f.Position < 0 || f.Position >= b.Capacity {
				return &AssertionError{
					Type:     AssertStackContiguous,
					Expected: fmt.Sprintf("frames of box %d within capacity %d", b.Position, b.Capacity),
					Actual:   fmt.Sprintf("frame %s at slot %d", f.ID, f.Position),
				}
			}
		}
	}
	return nil
}

func boxAtPosition(cfg apiary.HiveConfiguration, pos int) (apiary.BoxWithFrames, error) {
	for _, b := range cfg.Boxes {
		if b.Position == pos {
			return b, nil
		}
	}
	return apiary.BoxWithFrames{}, &AssertionError{
		Type:     "box_lookup",
		Expected: fmt.Sprintf("box at position %d in hive %s", pos, cfg.ID),
		Actual:   fmt.Sprintf("%d boxes", len(cfg.Boxes)),
	}
}

// assertInspectionCount checks the number of inspections of a hive,
// optionally restricted to one kind.
func assertInspectionCount(ctx context.Context, st *store.Store, assertion Assertion) error {
	var kinds []apiary.InspectionKind
	if assertion.Kind != "" {
		kinds = append(kinds, apiary.InspectionKind(assertion.Kind))
	}
	list, err := st.ListInspections(ctx, assertion.Hive, kinds...)
	if err != nil {
		return fmt.Errorf("list inspections: %w", err)
	}
	if len(list) != *assertion.Count {
		return &AssertionError{
			Type:     AssertInspectionCount,
			Expected: fmt.Sprintf("%d inspections of hive %s", *assertion.Count, assertion.Hive),
			Actual:   fmt.Sprintf("%d inspections", len(list)),
		}
	}
	return nil
}

// assertHiveMissing checks that a hive and every dependent row are gone.
func assertHiveMissing(ctx context.Context, st *store.Store, assertion Assertion) error {
	if _, err := st.GetHive(ctx, assertion.Hive); !apiary.IsNotFound(err) {
		return &AssertionError{
			Type:     AssertHiveMissing,
			Expected: fmt.Sprintf("hive %s not found", assertion.Hive),
			Actual:   fmt.Sprintf("lookup returned %v", err),
		}
	}

	for _, table := range []string{"boxes", "frames", "inspections", "harvests", "treatments"} {
		var n int
		err := st.DB().QueryRowContext(ctx,
			fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE hive_id = ?", table), assertion.Hive,
		).Scan(&n)
		if err != nil {
			return fmt.Errorf("count %s: %w", table, err)
		}
		if n != 0 {
			return &AssertionError{
				Type:     AssertHiveMissing,
				Expected: fmt.Sprintf("no %s rows for hive %s", table, assertion.Hive),
				Actual:   fmt.Sprintf("%d rows", n),
			}
		}
	}
	return nil
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides database access for state assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		default:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: %s requires database context", i, assertion.Type)
			} else {
				err = evaluateStateAssertion(actx.Ctx, actx.Store, assertion)
			}
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

func evaluateStateAssertion(ctx context.Context, st *store.Store, assertion Assertion) error {
	switch assertion.Type {
	case AssertFinalState:
		return assertFinalState(ctx, st, assertion)
	case AssertInspectionCount:
		return assertInspectionCount(ctx, st, assertion)
	case AssertHiveMissing:
		return assertHiveMissing(ctx, st, assertion)
	case AssertBoxCount, AssertFrameCount, AssertFrameAt, AssertStackContiguous:
	default:
		return fmt.Errorf("unknown assertion type %q", assertion.Type)
	}

	cfg, err := st.GetFullConfiguration(ctx, assertion.Hive)
	if err != nil {
		return fmt.Errorf("%s: %w", assertion.Type, err)
	}
	switch assertion.Type {
	case AssertBoxCount:
		return assertBoxCount(cfg, assertion)
	case AssertFrameCount:
		return assertFrameCount(cfg, assertion)
	case AssertFrameAt:
		return assertFrameAt(cfg, assertion)
	default:
		return assertStackContiguous(cfg, assertion)
	}
}
