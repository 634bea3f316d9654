// Package route models Eternal's navigation surface:
//
//	/        home and listing
//	/create  authoring flow
//	/p/{id}  viewer for one proposal
package route

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrUnknownRoute is returned by Parse for paths outside the surface.
var ErrUnknownRoute = errors.New("unknown route")

// Kind identifies a destination.
type Kind int

const (
	Home Kind = iota
	Create
	Viewer
)

func (k Kind) String() string {
	switch k {
	case Home:
		return "home"
	case Create:
		return "create"
	case Viewer:
		return "viewer"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Route is a parsed navigation target. ID is set only for Viewer.
type Route struct {
	Kind Kind
	ID   string
}

// Path renders the route back to its path form.
func (r Route) Path() string {
	switch r.Kind {
	case Create:
		return "/create"
	case Viewer:
		return ViewerPath(r.ID)
	default:
		return "/"
	}
}

func (r Route) String() string { return r.Path() }

// ViewerPath returns the viewer path for a proposal id.
func ViewerPath(id string) string {
	return "/p/" + url.PathEscape(id)
}

// Parse resolves a path (optionally a full URL or a "#/…" hash route) to a
// Route. Trailing slashes are ignored.
func Parse(raw string) (Route, error) {
	path := strings.TrimSpace(raw)
	if u, err := url.Parse(path); err == nil && u.Scheme != "" {
		path = u.Path
		if u.Fragment != "" {
			path = u.Fragment
		}
	}
	path = strings.TrimPrefix(path, "#")
	if path == "" {
		path = "/"
	}
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}

	switch {
	case path == "/":
		return Route{Kind: Home}, nil
	case path == "/create":
		return Route{Kind: Create}, nil
	case strings.HasPrefix(path, "/p/"):
		rest := strings.TrimPrefix(path, "/p/")
		if rest == "" || strings.Contains(rest, "/") {
			break
		}
		id, err := url.PathUnescape(rest)
		if err != nil || id == "" {
			break
		}
		return Route{Kind: Viewer, ID: id}, nil
	}
	return Route{}, fmt.Errorf("%w: %q", ErrUnknownRoute, raw)
}
