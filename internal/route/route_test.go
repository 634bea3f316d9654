package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Route
	}{
		{"/", Route{Kind: Home}},
		{"", Route{Kind: Home}},
		{"/create", Route{Kind: Create}},
		{"/create/", Route{Kind: Create}},
		{"/p/abc123", Route{Kind: Viewer, ID: "abc123"}},
		{"/p/abc123/", Route{Kind: Viewer, ID: "abc123"}},
		{"#/p/abc123", Route{Kind: Viewer, ID: "abc123"}},
		{"https://eternal.example/#/p/k2j3", Route{Kind: Viewer, ID: "k2j3"}},
		{"https://eternal.example/p/k2j3", Route{Kind: Viewer, ID: "k2j3"}},
		{"/p/a%20b", Route{Kind: Viewer, ID: "a b"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Unknown(t *testing.T) {
	for _, in := range []string{"/p/", "/p", "/p/a/b", "/settings", "/p/%zz"} {
		_, err := Parse(in)
		assert.ErrorIs(t, err, ErrUnknownRoute, "input %q", in)
	}
}

func TestPath_RoundTrips(t *testing.T) {
	for _, r := range []Route{{Kind: Home}, {Kind: Create}, {Kind: Viewer, ID: "x y"}} {
		got, err := Parse(r.Path())
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}
	assert.Equal(t, "/p/abc", ViewerPath("abc"))
	assert.Equal(t, "/p/abc", Route{Kind: Viewer, ID: "abc"}.String())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "home", Home.String())
	assert.Equal(t, "create", Create.String())
	assert.Equal(t, "viewer", Viewer.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
}
