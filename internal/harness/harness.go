package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/roach88/eternal/internal/proposal"
	"github.com/roach88/eternal/internal/store"
	"github.com/roach88/eternal/internal/testutil"
	"github.com/roach88/eternal/internal/wizard"
)

// Harness drives one wizard through a scenario.
type Harness struct {
	wizard *wizard.Wizard
	logger *slog.Logger
}

// Option configures a scenario run.
type Option func(*runConfig)

type runConfig struct {
	store    wizard.Store
	clock    wizard.Clock
	hashCost int
	theme    proposal.Theme
	logger   *slog.Logger
}

// WithStore runs the scenario against st instead of a fresh in-memory store.
func WithStore(st wizard.Store) Option {
	return func(c *runConfig) { c.store = st }
}

// WithClock replaces the deterministic clock, e.g. for scripts that create
// real proposals.
func WithClock(c wizard.Clock) Option {
	return func(cfg *runConfig) { cfg.clock = c }
}

// WithHashCost sets the bcrypt cost for shared secrets. Scenarios default to
// bcrypt.MinCost.
func WithHashCost(cost int) Option {
	return func(c *runConfig) { c.hashCost = cost }
}

// WithDefaultTheme sets the theme the draft starts with.
func WithDefaultTheme(t proposal.Theme) Option {
	return func(c *runConfig) { c.theme = t }
}

// WithLogger sets the logger handed to the wizard. Logs are discarded by
// default.
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) { c.logger = l }
}

// Run executes a scenario and returns the result.
//
// Each run gets a fresh wizard, a deterministic clock and sequence ids.
// An error is returned only when the scenario itself can't be executed;
// behavioural mismatches are reported through Result.Errors.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	if scenario == nil {
		return nil, errors.New("scenario is nil")
	}

	cfg := runConfig{
		clock:    testutil.NewDeterministicClock(),
		hashCost: bcrypt.MinCost,
		logger:   testutil.DiscardLogger(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.store == nil {
		st, _ := testutil.NewMemoryStore(store.WithIDGenerator(proposal.NewSequenceGenerator("proposal")))
		cfg.store = st
	}

	wopts := []wizard.Option{
		wizard.WithClock(cfg.clock),
		wizard.WithMemoryIDGenerator(proposal.NewSequenceGenerator("memory")),
		wizard.WithHashCost(cfg.hashCost),
		wizard.WithLogger(cfg.logger),
	}
	if cfg.theme != "" {
		wopts = append(wopts, wizard.WithDefaultTheme(cfg.theme))
	}
	h := &Harness{
		wizard: wizard.New(cfg.store, wopts...),
		logger: cfg.logger,
	}

	ctx := context.Background()
	result := NewResult()
	tolerate := scenario.Expect != nil && scenario.Expect.Error != ""

	for i, step := range scenario.Steps {
		ev, err := h.execute(ctx, step, result)
		if errors.Is(err, errUnknownAction) {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
		first := result.FirstError() == ""
		if err != nil {
			ev.Error = err.Error()
		}
		ev.Step = h.wizard.Step().String()
		result.addTrace(ev)

		switch {
		case err == nil && step.Error != "":
			result.AddError(fmt.Sprintf("steps[%d] %s: expected error containing %q, got none", i, step.Do, step.Error))
		case err != nil && step.Error != "":
			if !strings.Contains(err.Error(), step.Error) {
				result.AddError(fmt.Sprintf("steps[%d] %s: expected error containing %q, got %q", i, step.Do, step.Error, err.Error()))
			}
		case err != nil && !(tolerate && first):
			result.AddError(fmt.Sprintf("steps[%d] %s: unexpected error: %v", i, step.Do, err))
		}
	}

	for _, msg := range EvaluateExpect(result, scenario.Expect, h.wizard) {
		result.AddError(msg)
	}
	return result, nil
}

var errUnknownAction = errors.New("unknown action")

// execute performs one step and describes it for the trace.
func (h *Harness) execute(ctx context.Context, step Step, result *Result) (TraceEvent, error) {
	w := h.wizard
	ev := TraceEvent{Action: step.Do}

	switch step.Do {
	case ActionSet:
		field, err := wizard.ParseField(step.Field)
		if err != nil {
			return ev, err
		}
		ev.Detail = describeSet(field, step.Value)
		return ev, w.Set(field, step.Value)

	case ActionNext:
		if !w.Next() {
			ev.Detail = "stayed"
		}
		return ev, nil

	case ActionBack:
		if !w.Back() {
			ev.Detail = "stayed"
		}
		return ev, nil

	case ActionAddMemory:
		m, err := w.AddMemory()
		if err != nil {
			return ev, err
		}
		ev.Detail = m.ID
		return ev, nil

	case ActionEditMemory:
		id, err := memoryAt(w, step.Memory)
		if err != nil {
			return ev, err
		}
		field, err := wizard.ParseMemoryField(step.Field)
		if err != nil {
			return ev, err
		}
		ev.Detail = fmt.Sprintf("%s %s=%s", id, field, step.Value)
		_, err = w.EditMemory(id, field, step.Value)
		return ev, err

	case ActionRemoveMemory:
		id, err := memoryAt(w, step.Memory)
		if err != nil {
			return ev, err
		}
		ev.Detail = id
		_, err = w.RemoveMemory(id)
		return ev, err

	case ActionFinalize:
		res, err := w.Finalize(ctx)
		if err != nil {
			return ev, err
		}
		p := res.Proposal
		result.Proposal = &p
		ev.Detail = fmt.Sprintf("id=%s route=%s", p.ID, res.Route)
		h.logger.Debug("scenario finalized", "id", p.ID)
		return ev, nil
	}

	return ev, fmt.Errorf("%w %q", errUnknownAction, step.Do)
}

func describeSet(field wizard.Field, value string) string {
	if field == wizard.FieldPassword && value != "" {
		value = "***"
	}
	return fmt.Sprintf("%s=%s", field, value)
}

// memoryAt resolves a memory position in the current draft to its id.
func memoryAt(w *wizard.Wizard, index *int) (string, error) {
	memories := w.Draft().Memories
	if index == nil || *index < 0 || *index >= len(memories) {
		i := -1
		if index != nil {
			i = *index
		}
		return "", fmt.Errorf("memory index %d out of range (%d memories)", i, len(memories))
	}
	return memories[*index].ID, nil
}
