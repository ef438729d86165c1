package domain

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestNormalizeTarget(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"already clean", "api://billing", "api://billing"},
		{"surrounding spaces", "  api://billing \t", "api://billing"},
		{"scope runs", "User.Read   Mail.Read\nopenid", "User.Read Mail.Read openid"},
		{"order kept", "b a", "b a"},
		{"blank", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTarget(tt.input); got != tt.want {
				t.Errorf("NormalizeTarget(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNaturalKey(t *testing.T) {
	a := Favorite{TokenType: UserToken, Target: "User.Read  Mail.Read"}
	b := Favorite{TokenType: UserToken, Target: "User.Read Mail.Read "}
	c := Favorite{TokenType: AppToken, Target: "User.Read Mail.Read"}

	if a.Key() != b.Key() {
		t.Errorf("keys should match after normalization: %v vs %v", a.Key(), b.Key())
	}
	if a.Key() == c.Key() {
		t.Errorf("token type must be part of the key")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		fav     Favorite
		wantErr bool
	}{
		{"valid app token", Favorite{ID: "1", TokenType: AppToken, Target: "api://x"}, false},
		{"valid user token", Favorite{ID: "1", TokenType: UserToken, Target: "openid"}, false},
		{"missing id", Favorite{TokenType: AppToken, Target: "api://x"}, true},
		{"unknown type", Favorite{ID: "1", TokenType: "Refresh", Target: "api://x"}, true},
		{"blank target", Favorite{ID: "1", TokenType: AppToken, Target: "  "}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fav.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidFavorite) {
					t.Errorf("Validate() = %v, want ErrInvalidFavorite", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	orig := Favorite{
		ID:        "1",
		Tags:      []string{"a"},
		PinnedAt:  &at,
		IsPinned:  true,
		TokenData: []byte(`{"k":1}`),
	}

	c := orig.Clone()
	c.Tags[0] = "changed"
	*c.PinnedAt = at.Add(time.Hour)
	c.TokenData[0] = '['

	if orig.Tags[0] != "a" {
		t.Errorf("Clone() shares Tags")
	}
	if !orig.PinnedAt.Equal(at) {
		t.Errorf("Clone() shares PinnedAt")
	}
	if string(orig.TokenData) != `{"k":1}` {
		t.Errorf("Clone() shares TokenData")
	}
}

func TestPinFieldsMoveTogether(t *testing.T) {
	var f Favorite
	at := time.Now()

	f.SetPinned(at)
	if !f.IsPinned || f.PinnedAt == nil || !f.PinnedAt.Equal(at) {
		t.Fatalf("SetPinned() left %+v", f)
	}

	f.ClearPinned()
	if f.IsPinned || f.PinnedAt != nil {
		t.Errorf("ClearPinned() left %+v", f)
	}
}

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"nil", nil, nil},
		{"only blanks", []string{" ", ""}, nil},
		{"dedupe case-insensitive", []string{"Prod", "prod", " PROD "}, []string{"Prod"}},
		{"keeps order", []string{"b", "a", "b"}, []string{"b", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTags(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeTags(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFavoritePatchApply(t *testing.T) {
	f := Favorite{Name: "old", Description: "keep", Color: "#fff"}
	name := "new"
	tags := []string{"x", "X"}

	FavoritePatch{Name: &name, Tags: &tags}.Apply(&f)

	if f.Name != "new" {
		t.Errorf("Name = %q, want new", f.Name)
	}
	if f.Description != "keep" || f.Color != "#fff" {
		t.Errorf("nil patch fields must not change: %+v", f)
	}
	if !reflect.DeepEqual(f.Tags, []string{"x"}) {
		t.Errorf("Tags = %v, want [x]", f.Tags)
	}
}

func TestPinResultMessage(t *testing.T) {
	if PinLimit.Message() != "Unpin another token first" {
		t.Errorf("limit message = %q", PinLimit.Message())
	}
	if PinOK.Message() != "" {
		t.Errorf("success has no message, got %q", PinOK.Message())
	}
	r := PinNotFound.WithID("abc")
	if r.ID != "abc" || PinNotFound.ID != "" {
		t.Errorf("WithID must copy: %+v / %+v", r, PinNotFound)
	}
}
