package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"menu-planner/internal/catalog"
	"menu-planner/internal/checked"
	"menu-planner/internal/clipper"
	"menu-planner/internal/config"
	"menu-planner/internal/localstore"
	"menu-planner/internal/menu"
	"menu-planner/internal/metrics"
	"menu-planner/internal/notify"
	"menu-planner/internal/recipe"
	"menu-planner/internal/session"
	"menu-planner/internal/shopping"
)

// State is the page lifecycle state. Content stays suppressed while
// restoring; a stored snapshot is applied exactly once on the way to ready.
type State int

const (
	StateRestoring State = iota
	StateReady
)

const defaultMenuName = "weekly menu"

// App wires the planner's use-cases together and owns the in-memory grid
// state. Every public operation ends in exactly one notification.
type App struct {
	cfg        *config.Config
	sess       *session.Session
	catalog    catalog.Client
	recipes    *recipe.Repository
	menus      *menu.Repository
	saved      *recipe.SavedRepository
	aggregator *shopping.Aggregator
	checked    *checked.Store
	local      *localstore.Store
	metricsDB  *metrics.Store
	clip       *clipper.Clipper
	notifier   notify.Notifier
	rng        *rand.Rand

	mu        sync.Mutex
	allocator *menu.Allocator
	slots     []menu.Slot
	selection menu.Selection
	menuID    string
	menuName  string
	scroll    int
	state     State
}

// NewApp creates and initializes a new App instance.
func NewApp(
	cfg *config.Config,
	cat catalog.Client,
	recipes *recipe.Repository,
	menus *menu.Repository,
	saved *recipe.SavedRepository,
	aggregator *shopping.Aggregator,
	checkedStore *checked.Store,
	local *localstore.Store,
	metricsDB *metrics.Store,
	clip *clipper.Clipper,
	notifier notify.Notifier,
	rng *rand.Rand,
) *App {
	return &App{
		cfg:        cfg,
		sess:       session.New(),
		catalog:    cat,
		recipes:    recipes,
		menus:      menus,
		saved:      saved,
		aggregator: aggregator,
		checked:    checkedStore,
		local:      local,
		metricsDB:  metricsDB,
		clip:       clip,
		notifier:   notifier,
		rng:        rng,
		selection:  menu.Selection{},
		state:      StateRestoring,
	}
}

// Login initializes the per-user session and its pool cache.
func (a *App) Login(userID string) {
	a.sess.InitOnLogin(userID, a.catalog)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.allocator = menu.NewAllocator(a.sess.Pools(), a.menus, a.checked, a.rng)
	a.slots = nil
	a.selection = menu.Selection{}
	a.menuID = ""
	a.menuName = ""
	a.state = StateRestoring
}

// Logout clears all per-user state.
func (a *App) Logout() {
	a.sess.ClearOnLogout()

	a.mu.Lock()
	defer a.mu.Unlock()
	a.allocator = nil
	a.slots = nil
	a.selection = menu.Selection{}
	a.menuID = ""
	a.menuName = ""
	a.state = StateRestoring
}

// State returns the page lifecycle state.
func (a *App) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Slots returns a copy of the current grid.
func (a *App) Slots() []menu.Slot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]menu.Slot(nil), a.slots...)
}

// Selection returns the current active selection.
func (a *App) Selection() menu.Selection {
	a.mu.Lock()
	defer a.mu.Unlock()
	sel := menu.Selection{}
	for d, meals := range a.selection {
		sel[d] = append([]menu.Meal(nil), meals...)
	}
	return sel
}

// ToggleSlot flips a (day, meal) pair in the active selection.
func (a *App) ToggleSlot(day menu.Day, meal menu.Meal) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.selection.Toggle(day, meal)
}

// SetScrollOffset records the shell's scroll position for the snapshot.
func (a *App) SetScrollOffset(offset int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scroll = offset
}

// Bootstrap loads the saved menu, applies a pending navigation snapshot at
// most once, and moves the page to ready. Fetch failure keeps previous
// state and surfaces a single error notification.
func (a *App) Bootstrap(ctx context.Context) error {
	userID := a.sess.UserID()
	if userID == "" {
		return fmt.Errorf("no active session")
	}

	savedMenu, err := a.menus.LoadSaved(ctx, userID)
	if err != nil {
		a.notifier.Error("Couldn't load your saved menu. Please try again.")
		return fmt.Errorf("bootstrap failed: %w", err)
	}

	var (
		slots    []menu.Slot
		sel      = menu.Selection{}
		menuID   string
		menuName string
	)
	if savedMenu != nil {
		byID, err := a.resolveRecipes(ctx, savedMenu.Data)
		if err != nil {
			a.notifier.Error("Couldn't load your saved menu. Please try again.")
			return fmt.Errorf("bootstrap failed: %w", err)
		}
		slots = menu.SlotsFromData(savedMenu.Data, byID)
		sel = menu.SelectionFromData(savedMenu.Data)
		menuID = savedMenu.ID
		menuName = savedMenu.Name
	}

	// Apply the navigation snapshot exactly once; restore deletes it.
	snap, found, err := menu.RestoreSnapshot(a.local, userID)
	if err != nil {
		log.Printf("Warning: discarding unreadable snapshot: %v", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.slots = slots
	a.selection = sel
	a.menuID = menuID
	a.menuName = menuName
	if found {
		a.selection = snap.Selection
		a.scroll = snap.ScrollOffset
	}
	a.state = StateReady
	return nil
}

// Flush serializes the navigation snapshot. The hosting shell calls this
// at its lifecycle points (unload, visibility hidden).
func (a *App) Flush() error {
	userID := a.sess.UserID()
	if userID == "" {
		return nil
	}
	a.mu.Lock()
	snap := menu.Snapshot{Selection: a.selection, ScrollOffset: a.scroll}
	a.mu.Unlock()
	return menu.SerializeSnapshot(a.local, userID, snap)
}

// GenerateMenu fills the active selection with recipes and merges the
// result over the current grid. Shortages and per-meal fetch failures are
// partial successes reported in one aggregated warning.
func (a *App) GenerateMenu(ctx context.Context) error {
	a.mu.Lock()
	allocator := a.allocator
	sel := a.selection
	existing := a.slots
	a.mu.Unlock()
	if allocator == nil {
		return fmt.Errorf("no active session")
	}

	start := time.Now()
	res, err := allocator.Generate(ctx, sel, existing)
	if errors.Is(err, menu.ErrBusy) {
		// Duplicate trigger while one is in flight: ignored, not queued.
		return nil
	}
	if err != nil {
		a.recordMetric(ctx, "generate", start, 0, true)
		a.notifier.Error("Menu generation failed. Please try again.")
		return err
	}

	a.mu.Lock()
	a.slots = res.Slots
	a.mu.Unlock()

	a.recordMetric(ctx, "generate", start, res.Shortage, false)

	switch {
	case len(res.FailedMeals) > 0:
		a.notifier.Warning(fmt.Sprintf("Couldn't load recipes for %s; those slots were left as they were.", mealList(res.FailedMeals)))
	case res.Shortage > 0:
		a.notifier.Warning(fmt.Sprintf("%d slot(s) left empty: not enough distinct recipes to go around.", res.Shortage))
	default:
		a.notifier.Success("Weekly menu generated.")
	}
	return nil
}

// ReplaceSlot binds a catalog recipe to one slot. The no-repeat rule does
// not apply to manual replacement.
func (a *App) ReplaceSlot(ctx context.Context, day menu.Day, meal menu.Meal, recipeID string) error {
	rec, err := a.recipes.Get(ctx, recipeID)
	if err != nil {
		a.notifier.Error("Couldn't load that recipe. Please try again.")
		return err
	}
	if rec == nil {
		a.notifier.Error("That recipe no longer exists.")
		return fmt.Errorf("recipe %s not found", recipeID)
	}

	a.mu.Lock()
	a.slots = menu.ReplaceSlot(a.slots, day, meal, rec)
	if !a.selection.Contains(day, meal) {
		a.selection.Toggle(day, meal)
	}
	a.mu.Unlock()

	a.notifier.Success(fmt.Sprintf("%s set for %s %s.", rec.Title, day, meal))
	return nil
}

// SearchCatalog runs the manual-replacement catalog search.
func (a *App) SearchCatalog(ctx context.Context, f recipe.Filter) ([]recipe.Recipe, error) {
	return a.recipes.List(ctx, f)
}

// SyncCatalog pulls the full catalog and stores it locally, so saved menus
// resolve and search finds everything even before any pool was fetched.
func (a *App) SyncCatalog(ctx context.Context) error {
	recipes, err := a.catalog.AllRecipes(ctx)
	if err != nil {
		a.notifier.Error("Couldn't refresh the catalog. Please try again.")
		return err
	}
	for _, rec := range recipes {
		if err := a.recipes.Save(ctx, rec); err != nil {
			a.notifier.Error("Couldn't store the refreshed catalog.")
			return err
		}
	}
	a.notifier.Success(fmt.Sprintf("Catalog refreshed with %d recipe(s).", len(recipes)))
	return nil
}

// CommitMenu persists the current grid under the given name (or the
// last-used name when empty). On success the in-memory grid becomes
// exactly the persisted set and stale checked-item records are pruned.
func (a *App) CommitMenu(ctx context.Context, name string) error {
	userID := a.sess.UserID()
	if userID == "" {
		return fmt.Errorf("no active session")
	}

	a.mu.Lock()
	allocator := a.allocator
	slots := a.slots
	if name == "" {
		name = a.menuName
	}
	a.mu.Unlock()
	if allocator == nil {
		return fmt.Errorf("no active session")
	}
	if name == "" {
		name = a.lastMenuName(userID)
	}

	start := time.Now()
	menuID, committed, err := allocator.Commit(ctx, userID, name, slots)
	if errors.Is(err, menu.ErrBusy) {
		return nil
	}
	if errors.Is(err, menu.ErrNoBoundRecipes) {
		a.notifier.Error("Add at least one recipe before saving the menu.")
		return err
	}
	if err != nil {
		// Grid is left exactly as edited; the user may retry this commit.
		a.recordMetric(ctx, "commit", start, 0, true)
		a.notifier.Error("Couldn't save the menu. Your edits are kept, please retry.")
		return err
	}

	a.mu.Lock()
	a.slots = committed
	a.menuID = menuID
	a.menuName = name
	a.mu.Unlock()

	a.rememberMenuName(userID, name)
	a.pruneChecked(ctx, userID)
	a.recordMetric(ctx, "commit", start, 0, false)

	a.notifier.Success(fmt.Sprintf("Menu %q saved with %d recipe(s).", name, len(committed)))
	return nil
}

// BuildShoppingList aggregates the bound recipes of the current grid.
func (a *App) BuildShoppingList(ctx context.Context) (*shopping.List, error) {
	a.mu.Lock()
	slots := append([]menu.Slot(nil), a.slots...)
	a.mu.Unlock()

	var recipes []recipe.Recipe
	for _, s := range slots {
		if s.Bound() {
			recipes = append(recipes, *s.Recipe)
		}
	}
	return a.aggregator.Build(recipes), nil
}

// BuildRecipeList aggregates a single recipe's ingredients.
func (a *App) BuildRecipeList(rec recipe.Recipe) *shopping.List {
	return a.aggregator.Build([]recipe.Recipe{rec})
}

// ExportShoppingList writes the current shopping list as a spreadsheet.
func (a *App) ExportShoppingList(ctx context.Context, w io.Writer) error {
	list, err := a.BuildShoppingList(ctx)
	if err != nil {
		a.notifier.Error("Couldn't build the shopping list.")
		return err
	}
	if err := shopping.ExportXLSX(list, w); err != nil {
		a.notifier.Error("Couldn't export the shopping list.")
		return err
	}
	a.notifier.Success("Shopping list exported.")
	return nil
}

// CheckedItems returns the checked state for the current menu.
func (a *App) CheckedItems() (checked.Items, error) {
	a.mu.Lock()
	menuID := a.menuID
	a.mu.Unlock()
	return a.checked.Load(menuID)
}

// ToggleChecked flips one shopping-list line. With no persisted menu the
// toggle is accepted but not stored (never written under a shared key).
func (a *App) ToggleChecked(key string) error {
	a.mu.Lock()
	menuID := a.menuID
	a.mu.Unlock()

	items, err := a.checked.Load(menuID)
	if err != nil {
		return err
	}
	if items[key] {
		delete(items, key)
	} else {
		items[key] = true
	}
	return a.checked.Save(menuID, items)
}

// ClearChecked resets the current menu's checked state.
func (a *App) ClearChecked() error {
	a.mu.Lock()
	menuID := a.menuID
	a.mu.Unlock()

	if err := a.checked.Clear(menuID); err != nil {
		a.notifier.Error("Couldn't reset the shopping list.")
		return err
	}
	a.notifier.Success("Shopping list reset.")
	return nil
}

// ImportRecipe clips a recipe from a web page into the catalog.
func (a *App) ImportRecipe(ctx context.Context, url, category string) error {
	start := time.Now()
	rec, err := a.clip.ClipURL(ctx, url, category)
	if err != nil {
		a.recordMetric(ctx, "import", start, 0, true)
		a.notifier.Error("Couldn't import a recipe from that page.")
		return err
	}
	a.recordMetric(ctx, "import", start, 0, false)
	a.notifier.Success(fmt.Sprintf("Imported %q with %d ingredient(s).", rec.Title, len(rec.Ingredients)))
	return nil
}

// SaveRecipe bookmarks a recipe for the current user.
func (a *App) SaveRecipe(ctx context.Context, recipeID string) error {
	return a.toggleSaved(ctx, recipeID, true)
}

// UnsaveRecipe removes a bookmark.
func (a *App) UnsaveRecipe(ctx context.Context, recipeID string) error {
	return a.toggleSaved(ctx, recipeID, false)
}

// SavedRecipes returns the user's bookmarked recipes.
func (a *App) SavedRecipes(ctx context.Context) ([]recipe.Recipe, error) {
	ids, err := a.saved.GetSavedRecipeIDs(ctx, a.sess.UserID())
	if err != nil {
		return nil, err
	}
	return a.recipes.GetByIDs(ctx, ids)
}

func (a *App) toggleSaved(ctx context.Context, recipeID string, add bool) error {
	userID := a.sess.UserID()
	ids, err := a.saved.GetSavedRecipeIDs(ctx, userID)
	if err != nil {
		return err
	}

	out := ids[:0]
	present := false
	for _, id := range ids {
		if id == recipeID {
			present = true
			if !add {
				continue
			}
		}
		out = append(out, id)
	}
	if add && !present {
		out = append(out, recipeID)
	}
	sort.Strings(out)
	return a.saved.SetSavedRecipeIDs(ctx, userID, out)
}

func (a *App) resolveRecipes(ctx context.Context, data menu.MenuData) (map[string]*recipe.Recipe, error) {
	var ids []string
	seen := make(map[string]struct{})
	for _, meals := range data {
		for _, id := range meals {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}

	recipes, err := a.recipes.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*recipe.Recipe, len(recipes))
	for i := range recipes {
		byID[recipes[i].ID] = &recipes[i]
	}
	return byID, nil
}

func (a *App) lastMenuName(userID string) string {
	var name string
	found, err := a.local.Get("last-menu-name:"+userID, &name)
	if err != nil || !found || name == "" {
		return defaultMenuName
	}
	return name
}

func (a *App) rememberMenuName(userID, name string) {
	if err := a.local.Put("last-menu-name:"+userID, name); err != nil {
		log.Printf("Warning: failed to remember menu name: %v", err)
	}
}

func (a *App) pruneChecked(ctx context.Context, userID string) {
	records, err := a.menus.ListRecent(ctx, userID, a.cfg.CheckedMenuRetention)
	if err != nil {
		log.Printf("Warning: checked-item pruning skipped: %v", err)
		return
	}
	keep := make([]string, 0, len(records))
	for _, r := range records {
		keep = append(keep, r.ID)
	}
	a.checked.Prune(keep)
}

func (a *App) recordMetric(ctx context.Context, op string, start time.Time, shortage int, failed bool) {
	err := a.metricsDB.Record(ctx, metrics.OperationMetric{
		Operation:  op,
		DurationMS: time.Since(start).Milliseconds(),
		Shortage:   shortage,
		Failed:     failed,
	})
	if err != nil {
		log.Printf("Warning: failed to record %s metric: %v", op, err)
	}
}

func mealList(meals []menu.Meal) string {
	names := make([]string, 0, len(meals))
	for _, m := range meals {
		names = append(names, m.String())
	}
	return strings.Join(names, ", ")
}
