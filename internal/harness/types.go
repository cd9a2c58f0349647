package harness

// CaseOK is the expect case of a successful operation.
const CaseOK = "ok"

// TraceEvent records one executed operation and its outcome.
type TraceEvent struct {
	Step      int                    `json:"step"`
	Operation string                 `json:"operation"`
	Args      map[string]interface{} `json:"args"`
	Case      string                 `json:"case"`
	Result    map[string]interface{} `json:"result"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace contains every setup and flow operation in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Stacks holds the final rendering of each hive, ordered by number.
	Stacks []string `json:"stacks"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Stacks: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an executed operation to the trace.
func (r *Result) AddTrace(operation string, args map[string]interface{}, outcome string, result map[string]interface{}) {
	if args == nil {
		args = map[string]interface{}{}
	}
	if result == nil {
		result = map[string]interface{}{}
	}
	r.Trace = append(r.Trace, TraceEvent{
		Step:      len(r.Trace) + 1,
		Operation: operation,
		Args:      args,
		Case:      outcome,
		Result:    result,
	})
}
