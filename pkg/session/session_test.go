package session_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devnotes/devnotes.go/pkg/session"
)

func TestStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	s := session.NewStore(dir)
	assert.Equal(t, filepath.Join(dir, "DevNotes", "session.token"), s.Path())

	token, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, token, "no file means signed out")

	require.NoError(t, s.Save("abc.def-123"))

	// a fresh store over the same directory stands in for a restart
	token, err = session.NewStore(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, "abc.def-123", token)

	if runtime.GOOS != "windows" {
		info, err := os.Stat(s.Path())
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}
}

func TestStore_EmptyTokenDeletesFile(t *testing.T) {
	s := session.NewStoreAt(filepath.Join(t.TempDir(), "token"))
	require.NoError(t, s.Save("abc"))
	_, err := os.Stat(s.Path())
	require.NoError(t, err)

	require.NoError(t, s.Save("   "))
	_, err = os.Stat(s.Path())
	assert.True(t, os.IsNotExist(err))

	token, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, s.Delete(), "deleting twice is fine")
}

func TestStore_OverwriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := session.NewStoreAt(filepath.Join(dir, "token"))
	require.NoError(t, s.Save("one"))
	require.NoError(t, s.Save("two"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	token, _ := s.Load()
	assert.Equal(t, "two", token)
}

func TestStore_Watch(t *testing.T) {
	dir := t.TempDir()
	s := session.NewStore(dir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes, err := s.Watch(ctx)
	require.NoError(t, err)

	next := func() session.Change {
		t.Helper()
		select {
		case c := <-changes:
			return c
		case <-time.After(5 * time.Second):
			t.Fatal("no change reported")
			return session.Change{}
		}
	}

	require.NoError(t, os.WriteFile(s.Path(), []byte("from-elsewhere\n"), 0o600))
	c := next()
	require.NoError(t, c.Err)
	assert.Equal(t, "from-elsewhere", c.Token)

	require.NoError(t, os.Remove(s.Path()))
	c = next()
	require.NoError(t, c.Err)
	assert.Empty(t, c.Token)

	cancel()
	for range changes {
	}
}
