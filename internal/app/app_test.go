package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menu-planner/internal/checked"
	"menu-planner/internal/clipper"
	"menu-planner/internal/config"
	"menu-planner/internal/database"
	"menu-planner/internal/localstore"
	"menu-planner/internal/menu"
	"menu-planner/internal/metrics"
	"menu-planner/internal/recipe"
	"menu-planner/internal/shopping"
)

// fakeCatalog serves fixed pools per category and can fail selectively.
type fakeCatalog struct {
	pools   map[string][]recipe.Recipe
	failing map[string]bool
}

func (f *fakeCatalog) RecipesByCategory(_ context.Context, category string) ([]recipe.Recipe, error) {
	if f.failing[category] {
		return nil, errors.New("catalog unavailable")
	}
	return f.pools[category], nil
}

func (f *fakeCatalog) AllRecipes(_ context.Context) ([]recipe.Recipe, error) {
	var all []recipe.Recipe
	for _, pool := range f.pools {
		all = append(all, pool...)
	}
	return all, nil
}

// notification is one recorded notifier call.
type notification struct {
	level string
	msg   string
}

type recordingNotifier struct {
	sent []notification
}

func (r *recordingNotifier) Success(msg string) { r.sent = append(r.sent, notification{"success", msg}) }
func (r *recordingNotifier) Warning(msg string) { r.sent = append(r.sent, notification{"warning", msg}) }
func (r *recordingNotifier) Error(msg string)   { r.sent = append(r.sent, notification{"error", msg}) }

func (r *recordingNotifier) reset() { r.sent = nil }

func (r *recordingNotifier) last() notification {
	if len(r.sent) == 0 {
		return notification{}
	}
	return r.sent[len(r.sent)-1]
}

type fixture struct {
	app      *App
	notifier *recordingNotifier
	catalog  *fakeCatalog
	recipes  *recipe.Repository
	local    *localstore.Store
	dir      string
}

func pool(category string, n int) []recipe.Recipe {
	out := make([]recipe.Recipe, n)
	for i := range out {
		out[i] = recipe.Recipe{
			ID:       fmt.Sprintf("%s-%d", category, i),
			Title:    fmt.Sprintf("%s recipe %d", category, i),
			Category: category,
			Ingredients: []recipe.Ingredient{
				{Name: "tomato", Quantity: 1, Unit: "unit"},
			},
		}
	}
	return out
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	db, err := database.NewDB(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	local, err := localstore.New(filepath.Join(dir, "local"))
	require.NoError(t, err)

	tables, err := shopping.LoadTables()
	require.NoError(t, err)

	cat := &fakeCatalog{
		pools: map[string][]recipe.Recipe{
			"lunch":  pool("lunch", 10),
			"dinner": pool("dinner", 10),
		},
		failing: map[string]bool{},
	}
	notifier := &recordingNotifier{}
	recipeRepo := recipe.NewRepository(db.SQL)

	cfg := &config.Config{UserID: "u1", CheckedMenuRetention: 5}
	a := NewApp(
		cfg,
		cat,
		recipeRepo,
		menu.NewRepository(db.SQL),
		recipe.NewSavedRepository(db.SQL),
		shopping.NewAggregator(tables),
		checked.NewStore(local),
		local,
		metrics.NewStore(db.SQL),
		clipper.NewClipper(recipeRepo),
		notifier,
		rand.New(rand.NewPCG(1, 2)),
	)

	return &fixture{app: a, notifier: notifier, catalog: cat, recipes: recipeRepo, local: local, dir: dir}
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	f.app.Login("u1")
	require.NoError(t, f.app.Bootstrap(context.Background()))
	f.notifier.reset()
}

func TestBootstrapEmpty(t *testing.T) {
	f := newFixture(t)
	f.app.Login("u1")
	assert.Equal(t, StateRestoring, f.app.State())

	require.NoError(t, f.app.Bootstrap(context.Background()))
	assert.Equal(t, StateReady, f.app.State())
	assert.Empty(t, f.app.Slots())
	assert.Empty(t, f.notifier.sent, "a clean bootstrap is silent")
}

func TestGenerateMenu(t *testing.T) {
	ctx := context.Background()

	t.Run("success notifies once", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)

		f.app.ToggleSlot(menu.Monday, menu.Lunch)
		f.app.ToggleSlot(menu.Monday, menu.Dinner)

		require.NoError(t, f.app.GenerateMenu(ctx))

		require.Len(t, f.notifier.sent, 1, "exactly one notification per operation")
		assert.Equal(t, "success", f.notifier.sent[0].level)

		slots := f.app.Slots()
		require.Len(t, slots, 2)
		for _, s := range slots {
			assert.True(t, s.Bound())
		}
	})

	t.Run("shortage warns once", func(t *testing.T) {
		f := newFixture(t)
		f.catalog.pools["dinner"] = pool("dinner", 1)
		f.login(t)

		f.app.ToggleSlot(menu.Monday, menu.Dinner)
		f.app.ToggleSlot(menu.Tuesday, menu.Dinner)

		require.NoError(t, f.app.GenerateMenu(ctx))

		require.Len(t, f.notifier.sent, 1)
		assert.Equal(t, "warning", f.notifier.sent[0].level)
	})

	t.Run("pool failure warns and keeps other meals", func(t *testing.T) {
		f := newFixture(t)
		f.catalog.failing["lunch"] = true
		f.login(t)

		f.app.ToggleSlot(menu.Monday, menu.Lunch)
		f.app.ToggleSlot(menu.Monday, menu.Dinner)

		require.NoError(t, f.app.GenerateMenu(ctx))

		require.Len(t, f.notifier.sent, 1)
		assert.Equal(t, "warning", f.notifier.sent[0].level)
		assert.Contains(t, f.notifier.sent[0].msg, "lunch")

		slots := f.app.Slots()
		require.Len(t, slots, 1)
		assert.Equal(t, "monday-dinner", slots[0].ID())
	})
}

func TestCommitMenu(t *testing.T) {
	ctx := context.Background()

	t.Run("empty grid is rejected with one error", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)

		err := f.app.CommitMenu(ctx, "week")
		assert.ErrorIs(t, err, menu.ErrNoBoundRecipes)
		require.Len(t, f.notifier.sent, 1)
		assert.Equal(t, "error", f.notifier.sent[0].level)
	})

	t.Run("commit persists and survives a fresh bootstrap", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)

		f.app.ToggleSlot(menu.Monday, menu.Lunch)
		require.NoError(t, f.app.GenerateMenu(ctx))

		// Seed the catalog recipes into the local repository so a later
		// bootstrap can resolve the persisted ids.
		for _, s := range f.app.Slots() {
			require.NoError(t, f.recipes.Save(ctx, *s.Recipe))
		}

		f.notifier.reset()
		require.NoError(t, f.app.CommitMenu(ctx, "week one"))
		require.Len(t, f.notifier.sent, 1)
		assert.Equal(t, "success", f.notifier.sent[0].level)

		f.app.Logout()
		f.login(t)

		slots := f.app.Slots()
		require.Len(t, slots, 1)
		assert.Equal(t, "monday-lunch", slots[0].ID())
		require.True(t, slots[0].Bound())
	})

	t.Run("committing twice under one name keeps one menu", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)

		f.app.ToggleSlot(menu.Monday, menu.Lunch)
		require.NoError(t, f.app.GenerateMenu(ctx))
		require.NoError(t, f.app.CommitMenu(ctx, "week"))

		f.app.ToggleSlot(menu.Monday, menu.Dinner)
		require.NoError(t, f.app.GenerateMenu(ctx))
		require.NoError(t, f.app.CommitMenu(ctx, "week"))

		items, err := f.app.CheckedItems()
		require.NoError(t, err)
		assert.Empty(t, items, "fresh commit starts with nothing checked")
	})

	t.Run("commit reuses the last menu name when none given", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)

		f.app.ToggleSlot(menu.Monday, menu.Lunch)
		require.NoError(t, f.app.GenerateMenu(ctx))
		require.NoError(t, f.app.CommitMenu(ctx, ""))

		require.Len(t, f.notifier.sent, 2)
		assert.Contains(t, f.notifier.last().msg, defaultMenuName)
	})
}

func TestCheckedItems(t *testing.T) {
	ctx := context.Background()

	t.Run("toggles before a commit are accepted but not stored", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)

		require.NoError(t, f.app.ToggleChecked("produce-0"))

		items, err := f.app.CheckedItems()
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("toggles after a commit persist per menu", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)

		f.app.ToggleSlot(menu.Monday, menu.Lunch)
		require.NoError(t, f.app.GenerateMenu(ctx))
		require.NoError(t, f.app.CommitMenu(ctx, "week"))

		require.NoError(t, f.app.ToggleChecked("produce-0"))

		items, err := f.app.CheckedItems()
		require.NoError(t, err)
		assert.True(t, items["produce-0"])

		// Toggling again unchecks
		require.NoError(t, f.app.ToggleChecked("produce-0"))
		items, err = f.app.CheckedItems()
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("clear resets and notifies", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)

		require.NoError(t, f.app.ClearChecked())
		require.Len(t, f.notifier.sent, 1)
		assert.Equal(t, "success", f.notifier.sent[0].level)
	})

	t.Run("a new commit invalidates the old checkmarks", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)

		f.app.ToggleSlot(menu.Monday, menu.Lunch)
		require.NoError(t, f.app.GenerateMenu(ctx))
		require.NoError(t, f.app.CommitMenu(ctx, "week"))
		require.NoError(t, f.app.ToggleChecked("produce-0"))

		f.app.ToggleSlot(menu.Monday, menu.Dinner)
		require.NoError(t, f.app.GenerateMenu(ctx))
		require.NoError(t, f.app.CommitMenu(ctx, "week"))

		items, err := f.app.CheckedItems()
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}

func TestSnapshotLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.login(t)

	f.app.ToggleSlot(menu.Friday, menu.Dinner)
	f.app.SetScrollOffset(180)
	require.NoError(t, f.app.Flush())

	f.app.Logout()
	f.app.Login("u1")
	require.NoError(t, f.app.Bootstrap(ctx))

	sel := f.app.Selection()
	assert.True(t, sel.Contains(menu.Friday, menu.Dinner), "snapshot restored once")

	// The snapshot was consumed; a second bootstrap starts clean.
	f.app.Logout()
	f.app.Login("u1")
	require.NoError(t, f.app.Bootstrap(ctx))
	assert.False(t, f.app.Selection().Contains(menu.Friday, menu.Dinner))
}

func TestShoppingListFromGrid(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.login(t)

	f.app.ToggleSlot(menu.Monday, menu.Lunch)
	f.app.ToggleSlot(menu.Monday, menu.Dinner)
	require.NoError(t, f.app.GenerateMenu(ctx))

	list, err := f.app.BuildShoppingList(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"produce"}, list.Categories)

	items := list.Items["produce"]
	require.Len(t, items, 1, "same ingredient across recipes merges")
	assert.InDelta(t, 2, items[0].Quantity, 1e-9)
}

func TestReplaceSlot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.login(t)

	rec := recipe.Recipe{ID: "manual-1", Title: "Lasagna", Category: "dinner"}
	require.NoError(t, f.recipes.Save(ctx, rec))

	require.NoError(t, f.app.ReplaceSlot(ctx, menu.Monday, menu.Dinner, "manual-1"))

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "success", f.notifier.sent[0].level)

	slots := f.app.Slots()
	require.Len(t, slots, 1)
	assert.Equal(t, "Lasagna", slots[0].Recipe.Title)
	assert.True(t, f.app.Selection().Contains(menu.Monday, menu.Dinner))

	t.Run("missing recipe notifies an error", func(t *testing.T) {
		f.notifier.reset()
		err := f.app.ReplaceSlot(ctx, menu.Monday, menu.Lunch, "no-such-id")
		require.Error(t, err)
		require.Len(t, f.notifier.sent, 1)
		assert.Equal(t, "error", f.notifier.sent[0].level)
	})
}

func TestSavedRecipes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.login(t)

	for _, id := range []string{"a", "b"} {
		require.NoError(t, f.recipes.Save(ctx, recipe.Recipe{ID: id, Title: "Recipe " + id, Category: "dinner"}))
	}

	require.NoError(t, f.app.SaveRecipe(ctx, "a"))
	require.NoError(t, f.app.SaveRecipe(ctx, "b"))
	require.NoError(t, f.app.SaveRecipe(ctx, "a"), "re-saving is idempotent")

	saved, err := f.app.SavedRecipes(ctx)
	require.NoError(t, err)
	assert.Len(t, saved, 2)

	require.NoError(t, f.app.UnsaveRecipe(ctx, "a"))
	saved, err = f.app.SavedRecipes(ctx)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "b", saved[0].ID)
}

func TestSyncCatalog(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.login(t)

	require.NoError(t, f.app.SyncCatalog(ctx))

	// Every catalog recipe lands in local storage, so search works without
	// any pool fetch having happened.
	stored, err := f.recipes.List(ctx, recipe.Filter{})
	require.NoError(t, err)
	assert.Len(t, stored, 20)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "success", f.notifier.sent[0].level)
}

func TestSearchCatalog(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.login(t)

	for _, rec := range []recipe.Recipe{
		{ID: "s-1", Title: "Lentil soup", Category: "dinner", Diet: "vegetarian", PrepMinutes: 30},
		{ID: "s-2", Title: "Chicken soup", Category: "dinner", PrepMinutes: 90},
		{ID: "s-3", Title: "Pancakes", Category: "breakfast", PrepMinutes: 20},
	} {
		require.NoError(t, f.recipes.Save(ctx, rec))
	}

	results, err := f.app.SearchCatalog(ctx, recipe.Filter{TitleLike: "soup"})
	require.NoError(t, err)
	require.Len(t, results, 2)

	results, err = f.app.SearchCatalog(ctx, recipe.Filter{Category: "dinner", MaxPrepMinutes: 45})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "s-1", results[0].ID)
}
