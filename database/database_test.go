package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestReopenDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test")
	db, err := NewLDBDatabase(path, 0, 0, zaptest.NewLogger(t))
	require.NoError(t, err)
	key := []byte("some key")
	require.NoError(t, db.Put(key, []byte("wonderful")))
	require.NoError(t, db.Close())

	db, err = NewLDBDatabase(path, 0, 0, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, db.Close()) })
	val, err := db.Get(key)
	require.NoError(t, err)
	require.Equal(t, []byte("wonderful"), val)
	require.Equal(t, path, db.Path())
}

func TestMemDatabase(t *testing.T) {
	db := NewMemDatabase()
	t.Cleanup(func() { db.Close() })

	_, err := db.Get([]byte("missing"))
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, db.Put([]byte("a/1"), []byte("one")))
	require.NoError(t, db.Put([]byte("a/2"), []byte("two")))
	require.NoError(t, db.Put([]byte("b/1"), []byte("other")))
	has, err := db.Has([]byte("a/1"))
	require.NoError(t, err)
	require.True(t, has)

	var values []string
	require.NoError(t, db.Iterate([]byte("a/"), func(_, value []byte) bool {
		values = append(values, string(value))
		return true
	}))
	require.Equal(t, []string{"one", "two"}, values)

	values = nil
	require.NoError(t, db.Iterate([]byte("a/"), func(_, value []byte) bool {
		values = append(values, string(value))
		return false
	}))
	require.Equal(t, []string{"one"}, values)

	require.NoError(t, db.Delete([]byte("a/1")))
	has, err = db.Has([]byte("a/1"))
	require.NoError(t, err)
	require.False(t, has)
}
