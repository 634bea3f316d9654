package proposal

import (
	"math/rand"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces record and memory identifiers.
type IDGenerator interface {
	Generate() string
}

// RandomGenerator encodes a random UUID (122 random bits) as 32 hex characters.
//
// Safe for concurrent use.
type RandomGenerator struct{}

// Generate returns a new identifier such as "3f2b9c0e1d4a4e7b8c6d5f4e3a2b1c0d".
func (RandomGenerator) Generate() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// LegacyGenerator concatenates two pseudo-random base-36 fragments, matching
// the ids issued by the browser client. Not unique, not unpredictable.
type LegacyGenerator struct{}

// Generate returns an id of up to 24 base-36 characters.
func (LegacyGenerator) Generate() string {
	return legacyFragment() + legacyFragment()
}

// legacyFragment approximates Math.random().toString(36).substring(2, 15).
// 36^13 overflows int64, so fragments carry at most 12 digits.
func legacyFragment() string {
	const span = 4738381338321616896 // 36^12
	return strconv.FormatInt(rand.Int63n(span), 36)
}

// FixedGenerator returns predetermined ids for testing.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
//
//	gen := NewFixedGenerator("p-1", "p-2")
//	gen.Generate() // "p-1"
//	gen.Generate() // "p-2"
//	gen.Generate() // panic: all ids exhausted
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined id.
//
// Panics if all ids have been consumed so a misconfigured test fails loudly.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}

// SequenceGenerator returns prefix-1, prefix-2, ... and never runs out.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceGenerator creates a sequence generator with the given prefix.
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	return &SequenceGenerator{prefix: prefix}
}

// Generate returns the next id in the sequence.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return g.prefix + "-" + strconv.Itoa(g.n)
}
