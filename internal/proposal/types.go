package proposal

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrUnknownTheme is returned when a theme tag is outside the closed set.
var ErrUnknownTheme = errors.New("unknown theme")

// Theme is the presentation tag of a proposal.
type Theme string

const (
	ThemeClassic  Theme = "classic"
	ThemeEthereal Theme = "ethereal"
	ThemeModern   Theme = "modern"
	ThemeDark     Theme = "dark"
)

// Themes lists every valid theme in catalog order.
var Themes = []Theme{ThemeClassic, ThemeEthereal, ThemeModern, ThemeDark}

// ParseTheme converts a tag into a Theme.
func ParseTheme(s string) (Theme, error) {
	for _, t := range Themes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTheme, s)
}

// Valid reports whether t is one of the known themes.
func (t Theme) Valid() bool {
	_, err := ParseTheme(string(t))
	return err == nil
}

// Memory is one milestone on the story timeline.
type Memory struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// Proposal is the aggregate root for one authored story.
type Proposal struct {
	ID           string   `json:"id"`
	CreatorName  string   `json:"creatorName"`
	PartnerName  string   `json:"partnerName"`
	Title        string   `json:"title"`
	Message      string   `json:"message"`
	Memories     []Memory `json:"memories"`
	MainImageURL string   `json:"mainImageUrl"`
	MusicURL     string   `json:"musicUrl,omitempty"`
	Theme        Theme    `json:"theme"`
	Password     string   `json:"password,omitempty"`
	ExpiryHours  float64  `json:"expiryHours,omitempty"` // a JS number in browser exports
	CreatedAt    int64    `json:"createdAt"` // unix milliseconds
	IsPremium    bool     `json:"isPremium"`
}

// Created returns CreatedAt as a time.Time.
func (p Proposal) Created() time.Time {
	return time.UnixMilli(p.CreatedAt)
}

// MaxExpiryHours is the longest expiry a time.Duration can hold.
const MaxExpiryHours = math.MaxInt64 / int64(time.Hour)

// Expired reports whether the proposal carries an expiry that has passed.
// Proposals without expiryHours never expire, and neither do expiries longer
// than MaxExpiryHours.
func (p Proposal) Expired(now time.Time) bool {
	if !(p.ExpiryHours > 0) || p.ExpiryHours > float64(MaxExpiryHours) {
		return false
	}
	deadline := p.Created().Add(time.Duration(p.ExpiryHours * float64(time.Hour)))
	return now.After(deadline)
}

// Clone returns a deep copy so callers can't alias the memories slice.
func (p Proposal) Clone() Proposal {
	out := p
	if p.Memories != nil {
		out.Memories = make([]Memory, len(p.Memories))
		copy(out.Memories, p.Memories)
	}
	return out
}
