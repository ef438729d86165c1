package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// MaxPinned is the hard cap on pinned favorites.
const MaxPinned = 5

// ErrInvalidFavorite is returned when a favorite cannot be stored as given.
var ErrInvalidFavorite = errors.New("invalid favorite")

// TokenType identifies which flow issued the token a favorite represents.
type TokenType string

const (
	// AppToken is a client-credentials token. Target is the resource/audience.
	AppToken TokenType = "AppToken"
	// UserToken is an authorization-code+PKCE token. Target is the scope string.
	UserToken TokenType = "UserToken"
)

// Valid reports whether t is one of the known token types.
func (t TokenType) Valid() bool {
	return t == AppToken || t == UserToken
}

// NaturalKey is the (tokenType, target) pair that identifies what a favorite represents.
type NaturalKey struct {
	TokenType TokenType
	Target    string
}

// NewNaturalKey builds a normalized key.
// Targets are trimmed; runs of whitespace inside a scope string collapse to one space.
func NewNaturalKey(tokenType TokenType, target string) NaturalKey {
	return NaturalKey{TokenType: tokenType, Target: NormalizeTarget(target)}
}

// NormalizeTarget trims a target and collapses internal whitespace.
// Scope order is kept: "a b" and "b a" are different targets.
func NormalizeTarget(target string) string {
	return strings.Join(strings.Fields(target), " ")
}

// Favorite is a saved token-issuance configuration.
//
// The JSON layout is the persisted format of the favorites blob.
type Favorite struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// ID is an opaque unique identifier.
	ID string `json:"id"`

	// TokenType and Target form the natural key.
	TokenType TokenType `json:"tokenType"`
	Target    string    `json:"target"`

	// ─────────────────────────────
	// Description (editable)
	// ─────────────────────────────

	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Color       string   `json:"color,omitempty"`
	Tags        []string `json:"tags,omitempty"`

	// ─────────────────────────────
	// Usage
	// ─────────────────────────────

	CreatedAt  time.Time `json:"createdAt"`
	LastUsedAt time.Time `json:"lastUsedAt"`
	UseCount   int64     `json:"useCount"`

	// ─────────────────────────────
	// Pin state
	// ─────────────────────────────

	// PinnedAt is set if and only if IsPinned is true.
	IsPinned bool       `json:"isPinned"`
	PinnedAt *time.Time `json:"pinnedAt,omitempty"`

	// ─────────────────────────────
	// Provenance (display only)
	// ─────────────────────────────

	AppID    string `json:"appId,omitempty"`
	AppName  string `json:"appName,omitempty"`
	AppColor string `json:"appColor,omitempty"`

	// TokenData is the token payload captured at creation. Never refreshed.
	TokenData json.RawMessage `json:"tokenData,omitempty"`
}

// Key returns the favorite's natural key.
func (f *Favorite) Key() NaturalKey {
	return NewNaturalKey(f.TokenType, f.Target)
}

// Validate checks the fields every stored favorite must have.
func (f *Favorite) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidFavorite)
	}
	if !f.TokenType.Valid() {
		return fmt.Errorf("%w: unknown token type %q", ErrInvalidFavorite, f.TokenType)
	}
	if NormalizeTarget(f.Target) == "" {
		return fmt.Errorf("%w: target is required", ErrInvalidFavorite)
	}
	return nil
}

// Clone returns a deep copy.
func (f *Favorite) Clone() Favorite {
	c := *f
	if f.Tags != nil {
		c.Tags = append([]string(nil), f.Tags...)
	}
	if f.PinnedAt != nil {
		at := *f.PinnedAt
		c.PinnedAt = &at
	}
	if f.TokenData != nil {
		c.TokenData = append(json.RawMessage(nil), f.TokenData...)
	}
	return c
}

// SetPinned sets both pin attributes together so they can never disagree.
func (f *Favorite) SetPinned(at time.Time) {
	f.IsPinned = true
	f.PinnedAt = &at
}

// ClearPinned drops the pin.
func (f *Favorite) ClearPinned() {
	f.IsPinned = false
	f.PinnedAt = nil
}

// HasTag reports whether the favorite carries tag (case-insensitive).
func (f *Favorite) HasTag(tag string) bool {
	for _, t := range f.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// TokenContext is what the token result view knows about an issued token.
type TokenContext struct {
	TokenType TokenType       `json:"tokenType"`
	Target    string          `json:"target"`
	TokenData json.RawMessage `json:"tokenData,omitempty"`
	AppID     string          `json:"appId,omitempty"`
	AppName   string          `json:"appName,omitempty"`
	AppColor  string          `json:"appColor,omitempty"`
}

// FavoriteExtras are caller overrides merged into a favorite built from a TokenContext.
type FavoriteExtras struct {
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Color       string   `json:"color,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Pinned      bool     `json:"pinned,omitempty"`
}

// FavoritePatch edits descriptive fields. Nil fields are left untouched.
// Pin state is not patchable; use Pin/Unpin.
type FavoritePatch struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Color       *string   `json:"color,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

// Apply merges the patch into f.
func (p FavoritePatch) Apply(f *Favorite) {
	if p.Name != nil {
		f.Name = *p.Name
	}
	if p.Description != nil {
		f.Description = *p.Description
	}
	if p.Color != nil {
		f.Color = *p.Color
	}
	if p.Tags != nil {
		f.Tags = NormalizeTags(*p.Tags)
	}
}

// NormalizeTags trims, drops empties and de-duplicates (case-insensitive), keeping first spelling.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		k := strings.ToLower(tag)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
