package harness

import "github.com/roach88/eternal/internal/proposal"

// TraceEvent records one executed action and where the wizard ended up.
type TraceEvent struct {
	Seq    int64  `json:"seq"`
	Action string `json:"action"`
	Step   string `json:"step"`             // wizard step after the action
	Detail string `json:"detail,omitempty"` // action-specific summary
	Error  string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step behaved as declared and every
	// expectation matched.
	Pass bool `json:"pass"`

	// Trace contains one event per executed step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Proposal is the stored record when the scenario finalized.
	Proposal *proposal.Proposal `json:"proposal,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) addTrace(ev TraceEvent) {
	ev.Seq = int64(len(r.Trace) + 1)
	r.Trace = append(r.Trace, ev)
}

// FirstError returns the text of the first failing action, or "".
func (r *Result) FirstError() string {
	for _, ev := range r.Trace {
		if ev.Error != "" {
			return ev.Error
		}
	}
	return ""
}
