package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/eternal/internal/wizard"
)

// ExpectError describes one expectation that did not hold.
type ExpectError struct {
	Field    string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *ExpectError) Error() string {
	return fmt.Sprintf("expect.%s: expected %s, got %s", e.Field, e.Expected, e.Actual)
}

// EvaluateExpect checks the final session state against expect and returns
// one message per mismatch. A nil expect always passes.
//
// Memory count, theme and protection are read from the stored proposal when
// the session finalized and from the draft otherwise.
func EvaluateExpect(result *Result, expect *Expect, w *wizard.Wizard) []string {
	if expect == nil {
		return nil
	}

	var errs []string
	fail := func(field, expected, actual string) {
		errs = append(errs, (&ExpectError{Field: field, Expected: expected, Actual: actual}).Error())
	}

	if expect.Step != "" && expect.Step != w.Step().String() {
		fail("step", expect.Step, w.Step().String())
	}
	if expect.Finalized != nil && *expect.Finalized != w.Finalized() {
		fail("finalized", fmt.Sprint(*expect.Finalized), fmt.Sprint(w.Finalized()))
	}

	p := w.Draft()
	if result.Proposal != nil {
		p = *result.Proposal
	}
	if expect.Memories != nil && *expect.Memories != len(p.Memories) {
		fail("memories", fmt.Sprint(*expect.Memories), fmt.Sprint(len(p.Memories)))
	}
	if expect.Theme != "" && expect.Theme != string(p.Theme) {
		fail("theme", expect.Theme, string(p.Theme))
	}
	if expect.Protected != nil && *expect.Protected != p.Protected() {
		fail("protected", fmt.Sprint(*expect.Protected), fmt.Sprint(p.Protected()))
	}

	if expect.Error != "" {
		first := result.FirstError()
		switch {
		case first == "":
			fail("error", fmt.Sprintf("an error containing %q", expect.Error), "no error")
		case !strings.Contains(first, expect.Error):
			fail("error", fmt.Sprintf("an error containing %q", expect.Error), fmt.Sprintf("%q", first))
		}
	}
	return errs
}
