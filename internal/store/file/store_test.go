package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/tokendock/internal/store"
)

func TestNew_EmptyDir(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}

func TestStore_GetMissing(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = s.Get(context.Background(), "favorites")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_SetCreatesDirAndRoundTrips(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, s.Ping(ctx), "missing dir is created lazily")
	require.NoError(t, s.Set(ctx, "favorites", []byte(`[{"id":"a"}]`)))

	got, err := s.Get(ctx, "favorites")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"a"}]`, string(got))

	_, err = os.Stat(filepath.Join(dir, "favorites.json"))
	require.NoError(t, err)
}

func TestStore_SetOverwritesWithoutLeftovers(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, "favorites", []byte(`[1]`)))
	require.NoError(t, s.Set(ctx, "favorites", []byte(`[1,2]`)))

	got, err := s.Get(ctx, "favorites")
	require.NoError(t, err)
	assert.Equal(t, `[1,2]`, string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
	assert.Equal(t, "favorites.json", entries[0].Name())
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, "favorites", []byte(`[]`)))
	require.NoError(t, s.Delete(ctx, "favorites"))
	_, err = s.Get(ctx, "favorites")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Delete(ctx, "favorites"))
}

func TestStore_Keys(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")
	s, err := New(dir)
	require.NoError(t, err)

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, s.Set(ctx, "favorites", []byte(`[]`)))
	require.NoError(t, s.Set(ctx, "apps/state", []byte(`{}`)))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".favorites.json.123.tmp"), nil, 0o600))

	keys, err = s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"apps_state", "favorites"}, keys)
}

func TestStore_PingNotADirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	s, err := New(path)
	require.NoError(t, err)
	assert.Error(t, s.Ping(context.Background()))
}

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"favorites", "favorites"},
		{"token-favorites", "token-favorites"},
		{"../../etc/passwd", "etc_passwd"},
		{"a b:c", "a_b_c"},
		{"  ", ""},
	}
	for _, tt := range tests {
		if got := sanitizeKey(tt.in); got != tt.want {
			t.Errorf("sanitizeKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStore_InvalidKey(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	assert.Error(t, s.Set(context.Background(), "///", []byte("x")))
}
