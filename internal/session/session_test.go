// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  Tokens
	}{
		{
			name: "reads token files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeTestFile(t, dir, accessTokenFile, "  acc_123  \n")
				writeTestFile(t, dir, refreshTokenFile, "ref_456\n")
				return dir
			},
			want: Tokens{Access: "acc_123", Refresh: "ref_456"},
		},
		{
			name: "returns empty store for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: Tokens{},
		},
		{
			name: "skips empty files and dotfiles",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeTestFile(t, dir, accessTokenFile, "   \n\t ")
				writeTestFile(t, dir, ".refresh-token", "hidden")
				writeTestFile(t, dir, refreshTokenFile, "ref_only")
				return dir
			},
			want: Tokens{Refresh: "ref_only"},
		},
		{
			name: "skips subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				require.NoError(t, os.Mkdir(filepath.Join(dir, accessTokenFile), 0o755))
				return dir
			},
			want: Tokens{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(tt.setup(t))
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Tokens())
		})
	}
}

func TestSaveAndReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "session")

	s, err := Open(dir)
	require.NoError(t, err)
	assert.False(t, s.HasAccessToken())

	require.NoError(t, s.Save(Tokens{Access: "a1", Refresh: "r1"}))
	assert.True(t, s.HasAccessToken())

	info, err := os.Stat(filepath.Join(dir, accessTokenFile))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened, err := Open(dir)
	require.NoError(t, err)
	assert.Equal(t, Tokens{Access: "a1", Refresh: "r1"}, reopened.Tokens())
}

func TestSaveEmptyRefreshRemovesFile(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, s.Save(Tokens{Access: "a1", Refresh: "r1"}))
	require.NoError(t, s.Save(Tokens{Access: "a2"}))

	_, err = os.Stat(filepath.Join(dir, refreshTokenFile))
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, Tokens{Access: "a2"}, s.Tokens())
}

func TestClear(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Save(Tokens{Access: "a1", Refresh: "r1"}))

	require.NoError(t, s.Clear())
	assert.Equal(t, Tokens{}, s.Tokens())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Clearing twice is not an error.
	require.NoError(t, s.Clear())
}

func TestMemoryStore(t *testing.T) {
	s := NewMemory(Tokens{Access: "a", Refresh: "r"})
	assert.True(t, s.HasAccessToken())
	require.NoError(t, s.Save(Tokens{Access: "b", Refresh: "s"}))
	assert.Equal(t, "b", s.Tokens().Access)
	require.NoError(t, s.Clear())
	assert.False(t, s.HasAccessToken())
}

func writeTestFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
