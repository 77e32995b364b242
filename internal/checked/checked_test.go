package checked

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menu-planner/internal/localstore"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ls, err := localstore.New(t.TempDir())
	require.NoError(t, err)
	return NewStore(ls)
}

func TestLoadSave(t *testing.T) {
	s := newTestStore(t)

	items, err := s.Load("menu-x")
	require.NoError(t, err)
	assert.Empty(t, items, "missing record yields an empty map")

	require.NoError(t, s.Save("menu-x", Items{"produce-0": true, "optional-1": true}))

	items, err = s.Load("menu-x")
	require.NoError(t, err)
	assert.True(t, items["produce-0"])
	assert.True(t, items["optional-1"])
}

func TestScopedPerMenu(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Save("menu-x", Items{"produce-0": true}))
	require.NoError(t, s.Save("menu-y", Items{"dairy-2": true}))

	x, err := s.Load("menu-x")
	require.NoError(t, err)
	y, err := s.Load("menu-y")
	require.NoError(t, err)

	assert.True(t, x["produce-0"])
	assert.False(t, x["dairy-2"], "checkmarks never leak between menus")
	assert.True(t, y["dairy-2"])
}

func TestEmptyMenuID(t *testing.T) {
	s := newTestStore(t)

	// Accepted but never written under a shared key.
	require.NoError(t, s.Save("", Items{"produce-0": true}))

	items, err := s.Load("")
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, s.Clear(""))
}

func TestClearAndInvalidate(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Save("menu-x", Items{"produce-0": true}))
	require.NoError(t, s.Clear("menu-x"))

	items, err := s.Load("menu-x")
	require.NoError(t, err)
	assert.Empty(t, items)

	// Invalidating an absent record is a no-op.
	require.NoError(t, s.Invalidate("menu-x"))
}

func TestPrune(t *testing.T) {
	s := newTestStore(t)

	for _, id := range []string{"menu-a", "menu-b", "menu-c"} {
		require.NoError(t, s.Save(id, Items{"produce-0": true}))
	}

	s.Prune([]string{"menu-a", "menu-c"})

	a, err := s.Load("menu-a")
	require.NoError(t, err)
	assert.NotEmpty(t, a)

	b, err := s.Load("menu-b")
	require.NoError(t, err)
	assert.Empty(t, b, "record outside the keep list removed")

	c, err := s.Load("menu-c")
	require.NoError(t, err)
	assert.NotEmpty(t, c)
}
