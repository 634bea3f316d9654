// Package wizard implements the authoring flow that builds one proposal.
//
// The flow is a fixed linear sequence of steps:
//
//	basics → memories → letter → design → privacy → review
//
// Next and Back move one step and do nothing at the ends. Fields can only be
// edited in the step that owns them. Nothing is persisted until Finalize,
// which is only available at review and only once.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/eternal/internal/proposal"
	"github.com/roach88/eternal/internal/route"
	"github.com/roach88/eternal/internal/store"
)

var (
	// ErrWrongStep is returned when editing a field outside its step.
	ErrWrongStep = errors.New("not available in this step")

	// ErrNotAtReview is returned by Finalize before the review step.
	ErrNotAtReview = errors.New("finalize is only available at review")

	// ErrFinalized is returned for any edit after Finalize succeeded.
	ErrFinalized = errors.New("proposal already finalized")

	// ErrInvalidValue is returned when a value can't be parsed for its field.
	ErrInvalidValue = errors.New("invalid value")
)

// maxSaveAttempts bounds id regeneration when Save reports a collision.
const maxSaveAttempts = 3

// Store is the part of the Record Store the flow needs.
type Store interface {
	GenerateID() string
	Save(ctx context.Context, p proposal.Proposal) error
}

// Clock supplies the finalization timestamp.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Result is the outcome of Finalize.
type Result struct {
	Proposal proposal.Proposal
	Route    route.Route // viewer route for the new record
}

// Wizard holds one in-progress proposal.
//
// A Wizard is not safe for concurrent use; it models a single author's session.
type Wizard struct {
	store     Store
	clock     Clock
	memoryIDs proposal.IDGenerator
	hashCost  int
	logger    *slog.Logger

	step      Step
	draft     proposal.Proposal
	finalized bool
}

// Option configures a Wizard.
type Option func(*Wizard)

// WithClock sets the clock used to stamp createdAt.
func WithClock(c Clock) Option {
	return func(w *Wizard) { w.clock = c }
}

// WithMemoryIDGenerator sets the generator for memory ids.
func WithMemoryIDGenerator(g proposal.IDGenerator) Option {
	return func(w *Wizard) { w.memoryIDs = g }
}

// WithHashCost sets the bcrypt cost for the shared secret.
func WithHashCost(cost int) Option {
	return func(w *Wizard) { w.hashCost = cost }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Wizard) { w.logger = l }
}

// WithDefaultTheme sets the theme the draft starts with.
func WithDefaultTheme(t proposal.Theme) Option {
	return func(w *Wizard) { w.draft.Theme = t }
}

// New starts a flow at basics with an empty draft using the classic theme.
func New(st Store, opts ...Option) *Wizard {
	w := &Wizard{
		store:     st,
		clock:     systemClock{},
		memoryIDs: proposal.RandomGenerator{},
		hashCost:  proposal.DefaultHashCost,
		logger:    slog.Default(),
		step:      Basics,
		draft: proposal.Proposal{
			Theme:     proposal.ThemeClassic,
			Memories:  []proposal.Memory{},
			IsPremium: false,
		},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Step returns the current step.
func (w *Wizard) Step() Step { return w.step }

// Index returns the zero-based position of the current step.
func (w *Wizard) Index() int { return int(w.step) }

// CanBack reports whether Back would move.
func (w *Wizard) CanBack() bool { return !w.finalized && w.step > Basics }

// CanNext reports whether Next would move.
func (w *Wizard) CanNext() bool { return !w.finalized && w.step < Review }

// Next advances one step. It returns false and stays put at review.
func (w *Wizard) Next() bool {
	if !w.CanNext() {
		return false
	}
	w.step++
	w.logger.Debug("wizard step", "step", w.step.String())
	return true
}

// Back moves one step backward. It returns false and stays put at basics.
func (w *Wizard) Back() bool {
	if !w.CanBack() {
		return false
	}
	w.step--
	w.logger.Debug("wizard step", "step", w.step.String())
	return true
}

// Finalized reports whether Finalize has succeeded.
func (w *Wizard) Finalized() bool { return w.finalized }

// Draft returns a copy of the in-progress record. The password is still
// plaintext here; it is hashed only at Finalize.
func (w *Wizard) Draft() proposal.Proposal {
	return w.draft.Clone()
}

// Set edits a proposal field. Text is normalized to Unicode NFC.
func (w *Wizard) Set(field Field, value string) error {
	if err := w.editable(); err != nil {
		return err
	}
	owner, ok := fieldSteps[field]
	if !ok {
		return fmt.Errorf("set: %w: %q", ErrUnknownField, field)
	}
	if owner != w.step {
		return fmt.Errorf("set %s: %w (field belongs to %s, current step is %s)", field, ErrWrongStep, owner, w.step)
	}

	value = norm.NFC.String(value)
	switch field {
	case FieldCreatorName:
		w.draft.CreatorName = value
	case FieldPartnerName:
		w.draft.PartnerName = value
	case FieldTitle:
		w.draft.Title = value
	case FieldMainImageURL:
		w.draft.MainImageURL = value
	case FieldMessage:
		w.draft.Message = value
	case FieldTheme:
		t, err := proposal.ParseTheme(value)
		if err != nil {
			return fmt.Errorf("set %s: %w", field, err)
		}
		w.draft.Theme = t
	case FieldMusicURL:
		w.draft.MusicURL = value
	case FieldPassword:
		w.draft.Password = value
	case FieldExpiryHours:
		hours, err := parseHours(value)
		if err != nil {
			return fmt.Errorf("set %s: %w", field, err)
		}
		w.draft.ExpiryHours = float64(hours)
	}
	return nil
}

func parseHours(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: expiry hours must be a non-negative integer, got %q", ErrInvalidValue, value)
	}
	if n > proposal.MaxExpiryHours {
		return 0, fmt.Errorf("%w: expiry hours must be at most %d, got %q", ErrInvalidValue, proposal.MaxExpiryHours, value)
	}
	return n, nil
}

// AddMemory appends an empty memory with a fresh id and returns it.
func (w *Wizard) AddMemory() (proposal.Memory, error) {
	if err := w.memoryStep("add memory"); err != nil {
		return proposal.Memory{}, err
	}
	m := proposal.Memory{ID: w.memoryIDs.Generate()}
	w.draft.Memories = append(w.draft.Memories, m)
	return m, nil
}

// RemoveMemory drops the memory with the given id, keeping the others in
// order. Unknown ids are a no-op and report false.
func (w *Wizard) RemoveMemory(id string) (bool, error) {
	if err := w.memoryStep("remove memory"); err != nil {
		return false, err
	}
	kept := w.draft.Memories[:0:0]
	removed := false
	for _, m := range w.draft.Memories {
		if m.ID == id {
			removed = true
			continue
		}
		kept = append(kept, m)
	}
	if removed {
		w.draft.Memories = kept
	}
	return removed, nil
}

// EditMemory updates one field of the memory with the given id in place.
// Unknown ids are a no-op and report false.
func (w *Wizard) EditMemory(id string, field MemoryField, value string) (bool, error) {
	if err := w.memoryStep("edit memory"); err != nil {
		return false, err
	}
	if _, err := ParseMemoryField(string(field)); err != nil {
		return false, fmt.Errorf("edit memory: %w", err)
	}

	value = norm.NFC.String(value)
	for i := range w.draft.Memories {
		m := &w.draft.Memories[i]
		if m.ID != id {
			continue
		}
		switch field {
		case MemoryDate:
			m.Date = value
		case MemoryTitle:
			m.Title = value
		case MemoryDescription:
			m.Description = value
		case MemoryImageURL:
			m.ImageURL = value
		}
		return true, nil
	}
	return false, nil
}

// Finalize freezes the draft, stamps id and createdAt, hashes the shared
// secret and saves the record. No field validation happens: omitted fields
// are stored empty.
//
// An id collision reported by the store is retried with a fresh id up to
// maxSaveAttempts times.
func (w *Wizard) Finalize(ctx context.Context) (Result, error) {
	if w.finalized {
		return Result{}, ErrFinalized
	}
	if w.step != Review {
		return Result{}, fmt.Errorf("%w (current step is %s)", ErrNotAtReview, w.step)
	}

	rec := w.draft.Clone()
	if rec.Memories == nil {
		rec.Memories = []proposal.Memory{}
	}

	hash, err := proposal.HashSecret(rec.Password, w.hashCost)
	if err != nil {
		return Result{}, fmt.Errorf("finalize: %w", err)
	}
	rec.Password = hash
	rec.CreatedAt = w.clock.Now().UnixMilli()

	for attempt := 1; ; attempt++ {
		rec.ID = w.store.GenerateID()
		err := w.store.Save(ctx, rec)
		if err == nil {
			break
		}
		if errors.Is(err, store.ErrDuplicateID) && attempt < maxSaveAttempts {
			w.logger.Warn("proposal id collision, regenerating", "id", rec.ID, "attempt", attempt)
			continue
		}
		return Result{}, fmt.Errorf("finalize: %w", err)
	}

	w.finalized = true
	w.logger.Info("proposal created", "id", rec.ID, "memories", len(rec.Memories), "theme", string(rec.Theme))

	return Result{
		Proposal: rec,
		Route:    route.Route{Kind: route.Viewer, ID: rec.ID},
	}, nil
}

func (w *Wizard) editable() error {
	if w.finalized {
		return ErrFinalized
	}
	return nil
}

func (w *Wizard) memoryStep(op string) error {
	if err := w.editable(); err != nil {
		return err
	}
	if w.step != Memories {
		return fmt.Errorf("%s: %w (current step is %s)", op, ErrWrongStep, w.step)
	}
	return nil
}
