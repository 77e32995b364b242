package menu

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"sync/atomic"
	"time"
)

// ErrBusy is returned when a Generate or Commit is already in flight.
// Duplicate triggers are ignored, not queued.
var ErrBusy = errors.New("menu operation already in progress")

// ErrNoBoundRecipes rejects a commit on a grid with no bound recipe. It is
// raised before any store call is made.
var ErrNoBoundRecipes = errors.New("menu has no recipes to save")

// MenuStore persists menus; implemented by Repository.
type MenuStore interface {
	SaveOrUpdate(ctx context.Context, userID, name string, data MenuData) (string, error)
}

// CheckedInvalidator drops locally cached checked-item state for a menu.
// A fresh commit supersedes the shopping list the checkmarks referred to.
type CheckedInvalidator interface {
	Invalidate(menuID string) error
}

// GenerateResult is the outcome of one generation pass.
type GenerateResult struct {
	// Slots is the merged grid: carried-forward slots plus this pass's
	// freshly generated ones, deduplicated by identity, newest wins.
	Slots []Slot
	// Shortage counts slots left unbound because their pool ran out of
	// unclaimed recipes. A shortage is a partial success, not an error.
	Shortage int
	// FailedMeals lists meal types whose pool fetch failed; their slots
	// were skipped and any existing ones carried forward unchanged.
	FailedMeals []Meal
}

// Allocator fills the weekly grid. One recipe per active (day, meal) pair,
// drawn uniformly from the meal type's pool, no recipe repeated within a
// generation pass.
type Allocator struct {
	pools   *PoolCache
	store   MenuStore
	checked CheckedInvalidator
	rng     *rand.Rand

	busy atomic.Bool
}

// NewAllocator creates an Allocator. A nil rng gets a time-seeded source;
// tests inject a fixed seed instead.
func NewAllocator(pools *PoolCache, store MenuStore, checked CheckedInvalidator, rng *rand.Rand) *Allocator {
	if rng == nil {
		now := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(now, now>>32))
	}
	return &Allocator{pools: pools, store: store, checked: checked, rng: rng}
}

// Generate fills every active (day, meal) pair of the selection with a
// distinct recipe where possible and merges the result over the existing
// grid. Pairs are visited in stable grid order, so a fixed seed produces a
// fixed allocation. A pool-fetch failure aborts only that meal type's
// slots; the rest of the pass proceeds.
func (a *Allocator) Generate(ctx context.Context, sel Selection, existing []Slot) (*GenerateResult, error) {
	if !a.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer a.busy.Store(false)

	claimed := make(map[string]struct{})
	failed := make(map[Meal]bool)
	generated := make(map[string]Slot)

	result := &GenerateResult{}

	for _, pair := range sel.ActivePairs() {
		if failed[pair.Meal] {
			continue
		}

		pool, err := a.pools.Get(ctx, pair.Meal)
		if err != nil {
			log.Printf("Warning: pool fetch for %s failed, skipping its slots: %v", pair.Meal, err)
			failed[pair.Meal] = true
			result.FailedMeals = append(result.FailedMeals, pair.Meal)
			continue
		}

		var candidates []int
		for i := range pool {
			if _, taken := claimed[pool[i].ID]; !taken {
				candidates = append(candidates, i)
			}
		}

		slot := Slot{Day: pair.Day, Meal: pair.Meal}
		if len(candidates) == 0 {
			result.Shortage++
		} else {
			picked := pool[candidates[a.rng.IntN(len(candidates))]]
			claimed[picked.ID] = struct{}{}
			slot.Recipe = &picked
		}
		generated[slot.ID()] = slot
	}

	// Merge: existing slots are carried forward unless this pass
	// regenerated their identity, in which case the fresh slot wins.
	merged := make(map[string]Slot, len(existing)+len(generated))
	for _, s := range existing {
		merged[s.ID()] = s
	}
	for id, s := range generated {
		merged[id] = s
	}

	result.Slots = make([]Slot, 0, len(merged))
	for _, s := range merged {
		result.Slots = append(result.Slots, s)
	}
	SortSlots(result.Slots)

	return result, nil
}

// Commit persists the current grid. Only bound slots are saved; unbound
// ones are dropped. On success the returned slice is the new in-memory
// grid, matching exactly what was persisted, and the menu's cached
// checked-item state is invalidated. On store failure the caller's grid is
// left untouched for retry.
func (a *Allocator) Commit(ctx context.Context, userID, name string, slots []Slot) (string, []Slot, error) {
	if !a.busy.CompareAndSwap(false, true) {
		return "", nil, ErrBusy
	}
	defer a.busy.Store(false)

	var bound []Slot
	for _, s := range slots {
		if s.Bound() {
			bound = append(bound, s)
		}
	}
	if len(bound) == 0 {
		return "", nil, ErrNoBoundRecipes
	}

	menuID, err := a.store.SaveOrUpdate(ctx, userID, name, DataFromSlots(bound))
	if err != nil {
		return "", nil, fmt.Errorf("failed to save menu: %w", err)
	}

	if a.checked != nil {
		if err := a.checked.Invalidate(menuID); err != nil {
			log.Printf("Warning: failed to invalidate checked items for menu %s: %v", menuID, err)
		}
	}

	return menuID, bound, nil
}
