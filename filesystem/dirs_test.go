package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExistOrCreate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	path, err := ExistOrCreate(dir)
	require.NoError(t, err)
	require.Equal(t, dir, path)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())

	_, err = ExistOrCreate(dir)
	require.NoError(t, err)
}

func TestGetCanonicalPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SM_TEST_DIR", "sessions")

	for _, tc := range []struct {
		path     string
		expected string
	}{
		{"", "."},
		{".", "."},
		{"sessionmesh", "sessionmesh"},
		{"sessionmesh/../test", "test"},
		{"a/b/../c/d/..", "a/c"},
		{"~/sessionmesh/data/../config", filepath.Join(home, "sessionmesh", "config")},
		{"/var/$SM_TEST_DIR", "/var/sessions"},
	} {
		require.Equal(t, tc.expected, GetCanonicalPath(tc.path), tc.path)
	}
}
