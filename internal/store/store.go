package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/eternal/internal/proposal"
)

// Key is the single storage key holding the proposal collection.
const Key = "eternal_proposals"

var (
	// ErrNotFound is returned by GetByID when no record has the id.
	ErrNotFound = errors.New("proposal not found")

	// ErrCorrupt means the stored collection could not be parsed.
	ErrCorrupt = errors.New("stored proposals are corrupt")

	// ErrDuplicateID means a record with the same id is already stored.
	ErrDuplicateID = errors.New("duplicate proposal id")

	// ErrMissingID means the record to save has no id.
	ErrMissingID = errors.New("proposal id is required")
)

// Store is the Record Store: append, list and look up proposals held under
// one key of a Backend.
type Store struct {
	backend Backend
	ids     proposal.IDGenerator
	logger  *slog.Logger

	mu sync.Mutex // serializes read-modify-write cycles
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator sets the generator used by GenerateID.
func WithIDGenerator(g proposal.IDGenerator) Option {
	return func(s *Store) { s.ids = g }
}

// WithLogger sets the logger for storage warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates a Store over backend. IDs default to proposal.RandomGenerator.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		ids:     proposal.RandomGenerator{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateID returns a new record identifier. Uniqueness is not checked here;
// Save rejects collisions.
func (s *Store) GenerateID() string {
	return s.ids.Generate()
}

// Load returns every stored record in insertion order.
// Returns an empty slice (not nil) when nothing is stored, and ErrCorrupt when
// the stored value can't be parsed.
func (s *Store) Load(ctx context.Context) ([]proposal.Proposal, error) {
	raw, ok, err := s.backend.Get(ctx, Key)
	if err != nil {
		return nil, fmt.Errorf("load proposals: %w", err)
	}
	if !ok || len(bytes.TrimSpace(raw)) == 0 {
		return []proposal.Proposal{}, nil
	}

	var records []proposal.Proposal
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if records == nil {
		records = []proposal.Proposal{}
	}
	return records, nil
}

// ListAll returns every stored record in insertion order.
//
// Corrupt storage is reported as an empty collection; the condition is only
// logged. Use Load to tell the two apart. Backend failures are returned.
func (s *Store) ListAll(ctx context.Context) ([]proposal.Proposal, error) {
	records, err := s.Load(ctx)
	if errors.Is(err, ErrCorrupt) {
		s.logger.Warn("ignoring unreadable proposal storage", "key", Key, "error", err)
		return []proposal.Proposal{}, nil
	}
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Save appends p to the collection and rewrites it.
//
// Returns ErrMissingID for an empty id, ErrDuplicateID when the id is already
// stored and ErrCorrupt rather than overwrite a collection it can't parse.
func (s *Store) Save(ctx context.Context, p proposal.Proposal) error {
	if p.ID == "" {
		return fmt.Errorf("save proposal: %w", ErrMissingID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.Load(ctx)
	if err != nil {
		return fmt.Errorf("save proposal: %w", err)
	}

	for _, r := range records {
		if r.ID == p.ID {
			return fmt.Errorf("save proposal %s: %w", p.ID, ErrDuplicateID)
		}
	}

	records = append(records, p.Clone())
	if err := s.write(ctx, records); err != nil {
		return fmt.Errorf("save proposal %s: %w", p.ID, err)
	}

	s.logger.Debug("proposal saved", "id", p.ID, "total", len(records))
	return nil
}

// GetByID returns the first record whose id equals id, or ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id string) (proposal.Proposal, error) {
	records, err := s.ListAll(ctx)
	if err != nil {
		return proposal.Proposal{}, err
	}
	for _, r := range records {
		if r.ID == id {
			return r, nil
		}
	}
	return proposal.Proposal{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// ImportReport summarizes an Import call.
type ImportReport struct {
	Added   int      `json:"added"`
	Skipped []string `json:"skipped,omitempty"` // ids already present, or "" for records without an id
}

// Import appends records exported from another store (for example a
// browser's local storage), skipping ids that are already present or empty.
// All accepted records are written in one rewrite.
func (s *Store) Import(ctx context.Context, incoming []proposal.Proposal) (ImportReport, error) {
	var report ImportReport

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.Load(ctx)
	if err != nil {
		return report, fmt.Errorf("import proposals: %w", err)
	}

	seen := make(map[string]bool, len(records)+len(incoming))
	for _, r := range records {
		seen[r.ID] = true
	}

	for _, p := range incoming {
		if p.ID == "" || seen[p.ID] {
			report.Skipped = append(report.Skipped, p.ID)
			continue
		}
		seen[p.ID] = true
		records = append(records, p.Clone())
		report.Added++
	}

	if report.Added == 0 {
		return report, nil
	}
	if err := s.write(ctx, records); err != nil {
		return report, fmt.Errorf("import proposals: %w", err)
	}
	return report, nil
}

func (s *Store) write(ctx context.Context, records []proposal.Proposal) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode proposals: %w", err)
	}
	return s.backend.Set(ctx, Key, data)
}
