// Package viewer replays a stored proposal.
//
// A Session starts locked when the proposal carries a shared secret. Once
// unlocked it renders the story: hero, memories timeline, letter and the
// closing question. Missing or expired proposals redirect home instead of
// producing an error.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/eternal/internal/proposal"
	"github.com/roach88/eternal/internal/route"
	"github.com/roach88/eternal/internal/store"
	"github.com/roach88/eternal/internal/theme"
)

// ErrLocked is returned when rendering a session that is still locked.
var ErrLocked = errors.New("proposal is locked")

// Store is the lookup the viewer needs from the Record Store.
type Store interface {
	GetByID(ctx context.Context, id string) (proposal.Proposal, error)
}

// Outcome is the result of Open: either a session or a redirect.
type Outcome struct {
	Session  *Session
	Redirect *route.Route
}

// Redirected reports whether the viewer sent the reader elsewhere.
func (o Outcome) Redirected() bool { return o.Redirect != nil }

// Open looks up id and starts a viewing session at now.
//
// Unknown and expired proposals yield a redirect to the home route. Only
// storage failures are returned as errors.
func Open(ctx context.Context, st Store, id string, now time.Time) (Outcome, error) {
	p, err := st.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return home(), nil
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("open proposal %s: %w", id, err)
	}
	if p.Expired(now) {
		return home(), nil
	}

	catalog, err := theme.Default()
	if err != nil {
		return Outcome{}, fmt.Errorf("open proposal %s: %w", id, err)
	}

	return Outcome{Session: &Session{
		proposal: p,
		theme:    catalog.Lookup(p.Theme),
		locked:   p.Protected(),
		openedAt: now,
	}}, nil
}

func home() Outcome {
	r := route.Route{Kind: route.Home}
	return Outcome{Redirect: &r}
}

// Session is one reader's pass through a proposal. The finale answer lives
// only in the session and is never written back.
type Session struct {
	proposal proposal.Proposal
	theme    theme.Theme
	locked   bool
	answered bool
	accepted bool
	openedAt time.Time
}

// Proposal returns a copy of the record being viewed.
func (s *Session) Proposal() proposal.Proposal { return s.proposal.Clone() }

// Theme returns the resolved presentation theme.
func (s *Session) Theme() theme.Theme { return s.theme }

// Locked reports whether the shared secret still has to be entered.
func (s *Session) Locked() bool { return s.locked }

// Unlock tries attempt against the shared secret. A mismatch keeps the
// session locked and can be retried any number of times.
func (s *Session) Unlock(attempt string) bool {
	if !s.locked {
		return true
	}
	if s.proposal.Unlock(attempt) {
		s.locked = false
	}
	return !s.locked
}

// Answer records the reader's response to the question. Only an acceptance
// changes the finale; a decline leaves the question on screen.
func (s *Session) Answer(accept bool) error {
	if s.locked {
		return ErrLocked
	}
	s.answered = true
	s.accepted = accept
	return nil
}

// Answered returns the recorded answer. ok is false until Answer is called.
func (s *Session) Answered() (accepted, ok bool) {
	return s.accepted, s.answered
}
