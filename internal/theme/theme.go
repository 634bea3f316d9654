// Package theme holds the presentation catalog for proposal themes.
//
// The catalog is declared in themes.cue, validated against the closed #Theme
// schema and decoded once at load time.
package theme

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/eternal/internal/proposal"
)

//go:embed themes.cue
var catalogSource string

// Colors are CSS hex colours used by the rendered page.
type Colors struct {
	Background string `json:"background"`
	Text       string `json:"text"`
	Accent     string `json:"accent"`
}

// Theme describes how a proposal is presented.
type Theme struct {
	ID        proposal.Theme `json:"id"`
	Name      string         `json:"name"`
	Animation string         `json:"animation"`
	Serif     bool           `json:"serif"`
	Tracking  string         `json:"tracking"`
	Colors    Colors         `json:"colors"`
}

// Catalog is an ordered, immutable set of themes.
type Catalog struct {
	themes []Theme
	byID   map[proposal.Theme]int
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the embedded catalog, parsing it on first use.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Parse(catalogSource)
	})
	return defaultCatalog, defaultErr
}

// Parse compiles a CUE catalog document. The document must declare every
// proposal theme exactly once.
func Parse(src string) (*Catalog, error) {
	v := cuecontext.New().CompileString(src)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile theme catalog: %w", err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validate theme catalog: %w", err)
	}

	var themes []Theme
	if err := v.LookupPath(cue.ParsePath("themes")).Decode(&themes); err != nil {
		return nil, fmt.Errorf("decode theme catalog: %w", err)
	}

	c := &Catalog{themes: themes, byID: make(map[proposal.Theme]int, len(themes))}
	for i, t := range themes {
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("theme catalog: duplicate theme %q", t.ID)
		}
		c.byID[t.ID] = i
	}
	for _, id := range proposal.Themes {
		if _, ok := c.byID[id]; !ok {
			return nil, fmt.Errorf("theme catalog: missing theme %q", id)
		}
	}
	return c, nil
}

// All returns the themes in declaration order.
func (c *Catalog) All() []Theme {
	out := make([]Theme, len(c.themes))
	copy(out, c.themes)
	return out
}

// Get returns the theme with the given id.
func (c *Catalog) Get(id proposal.Theme) (Theme, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Theme{}, false
	}
	return c.themes[i], true
}

// Lookup returns the theme with the given id, falling back to classic for
// ids the catalog doesn't know (for example records written by a newer client).
func (c *Catalog) Lookup(id proposal.Theme) Theme {
	if t, ok := c.Get(id); ok {
		return t
	}
	t, _ := c.Get(proposal.ThemeClassic)
	return t
}
