// ABOUTME: Tests for the Badger-backed local store
// ABOUTME: Uses in-memory and temp-dir databases for isolation
package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Duckiduc/omw-crm-sub001/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGetMissingKey(t *testing.T) {
	s := newTestStore(t)

	v, ok, err := s.Get("nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestSetGetDelete(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Set("prefs/theme", []byte("dark")))
	v, ok, err := s.Get("prefs/theme")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dark", string(v))

	require.NoError(t, s.Delete("prefs/theme"))
	_, ok, err = s.Get("prefs/theme")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKeysWithPrefix(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Set("a/1", []byte("x")))
	require.NoError(t, s.Set("a/2", []byte("y")))
	require.NoError(t, s.Set("b/1", []byte("z")))

	keys, err := s.Keys("a/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a/1", "a/2"}, keys)
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestStore(t)

	token, user, err := s.LoadSession()
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Nil(t, user)

	require.NoError(t, s.SaveSession("tok-123", &models.User{ID: "u1", Name: "Ada", Role: models.RoleAdmin}))

	token, user, err = s.LoadSession()
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)
	require.NotNil(t, user)
	assert.Equal(t, "Ada", user.Name)
	assert.True(t, user.IsAdmin())

	require.NoError(t, s.ClearSession())
	token, user, err = s.LoadSession()
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Nil(t, user)
}

func TestSessionPersistsAcrossReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")

	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.SaveSession("persisted", nil))
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()

	token, user, err := s.LoadSession()
	require.NoError(t, err)
	assert.Equal(t, "persisted", token)
	assert.Nil(t, user)
}

func TestTwoStoresShareDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")

	tui, err := Open(dir)
	require.NoError(t, err)
	defer tui.Close()
	cli, err := Open(dir)
	require.NoError(t, err)
	defer cli.Close()

	require.NoError(t, cli.SaveSession("from-cli", &models.User{ID: "u1", Name: "Ada"}))
	token, user, err := tui.LoadSession()
	require.NoError(t, err)
	assert.Equal(t, "from-cli", token)
	require.NotNil(t, user)
	assert.Equal(t, "Ada", user.Name)

	require.NoError(t, tui.ClearSession())
	token, _, err = cli.LoadSession()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestClosedInMemoryStore(t *testing.T) {
	s, err := OpenInMemory()
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, _, err = s.Get("anything")
	assert.Error(t, err)
}
