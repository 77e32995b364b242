package menu

import (
	"fmt"
	"sort"
	"strings"

	"menu-planner/internal/recipe"
)

// Slot is one (day, meal) cell of the weekly grid. A slot without a bound
// recipe is a valid, renderable placeholder, never an error state.
type Slot struct {
	Day    Day
	Meal   Meal
	Recipe *recipe.Recipe
}

// ID is the slot's identity within a menu: "<day>-<meal>".
func (s Slot) ID() string {
	return fmt.Sprintf("%s-%s", s.Day, s.Meal)
}

// Bound reports whether the slot has a recipe.
func (s Slot) Bound() bool {
	return s.Recipe != nil
}

// Pair is an active (day, meal) coordinate.
type Pair struct {
	Day  Day
	Meal Meal
}

// Selection maps each day to its selected meal types. It defines which
// slots are active; it is mutated only by explicit toggles.
type Selection map[Day][]Meal

// Toggle flips one (day, meal) pair in the selection.
func (sel Selection) Toggle(day Day, meal Meal) {
	meals := sel[day]
	for i, m := range meals {
		if m == meal {
			sel[day] = append(meals[:i], meals[i+1:]...)
			if len(sel[day]) == 0 {
				delete(sel, day)
			}
			return
		}
	}
	sel[day] = append(meals, meal)
}

// Contains reports whether the pair is part of the selection.
func (sel Selection) Contains(day Day, meal Meal) bool {
	for _, m := range sel[day] {
		if m == meal {
			return true
		}
	}
	return false
}

// ActivePairs returns the selected pairs in stable grid order: days first,
// meals within each day. Generation iterates this order so a fixed random
// seed yields a fixed allocation.
func (sel Selection) ActivePairs() []Pair {
	var pairs []Pair
	for _, day := range Days {
		meals := append([]Meal(nil), sel[day]...)
		sort.Slice(meals, func(i, j int) bool { return meals[i] < meals[j] })
		for _, meal := range meals {
			pairs = append(pairs, Pair{Day: day, Meal: meal})
		}
	}
	return pairs
}

// ParseSelection parses a compact selection string such as
// "monday:lunch,dinner;tuesday:dinner".
func ParseSelection(s string) (Selection, error) {
	sel := Selection{}
	for _, part := range strings.Split(s, ";") {
		dayPart, mealsPart, found := strings.Cut(part, ":")
		if !found {
			return nil, fmt.Errorf("missing meals in %q", part)
		}
		day, err := ParseDay(strings.TrimSpace(dayPart))
		if err != nil {
			return nil, err
		}
		for _, m := range strings.Split(mealsPart, ",") {
			meal, err := ParseMeal(strings.TrimSpace(m))
			if err != nil {
				return nil, err
			}
			if !sel.Contains(day, meal) {
				sel[day] = append(sel[day], meal)
			}
		}
	}
	return sel, nil
}

// MenuData is the persisted form of a menu: Day -> Meal -> recipe id. This
// shape is the interchange contract with the menu store and must not change.
type MenuData map[Day]map[Meal]string

// DataFromSlots builds MenuData from the bound slots only; unbound slots are
// silently dropped, per the commit contract.
func DataFromSlots(slots []Slot) MenuData {
	data := MenuData{}
	for _, s := range slots {
		if !s.Bound() {
			continue
		}
		if data[s.Day] == nil {
			data[s.Day] = map[Meal]string{}
		}
		data[s.Day][s.Meal] = s.Recipe.ID
	}
	return data
}

// SelectionFromData reconstructs the active selection from a saved menu.
// The selection is not persisted as its own entity; which slots exist in
// the menu is the source of truth on load.
func SelectionFromData(data MenuData) Selection {
	sel := Selection{}
	for day, meals := range data {
		for meal := range meals {
			sel[day] = append(sel[day], meal)
		}
	}
	for day := range sel {
		meals := sel[day]
		sort.Slice(meals, func(i, j int) bool { return meals[i] < meals[j] })
		sel[day] = meals
	}
	return sel
}

// SlotsFromData resolves MenuData back into slots using the given recipe
// lookup. Ids missing from the lookup produce unbound slots rather than
// errors, so a stale menu still renders.
func SlotsFromData(data MenuData, byID map[string]*recipe.Recipe) []Slot {
	var slots []Slot
	for _, day := range Days {
		for _, meal := range Meals {
			id, ok := data[day][meal]
			if !ok {
				continue
			}
			slots = append(slots, Slot{Day: day, Meal: meal, Recipe: byID[id]})
		}
	}
	return slots
}

// SortSlots orders slots in stable grid order, in place.
func SortSlots(slots []Slot) {
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Day != slots[j].Day {
			return slots[i].Day < slots[j].Day
		}
		return slots[i].Meal < slots[j].Meal
	})
}

// ReplaceSlot binds a user-chosen recipe to the slot with the given
// identity, appending a new slot when none exists. Unlike automatic
// generation there is no uniqueness rule here: a user may knowingly repeat
// a recipe across slots.
func ReplaceSlot(slots []Slot, day Day, meal Meal, rec *recipe.Recipe) []Slot {
	for i, s := range slots {
		if s.Day == day && s.Meal == meal {
			slots[i].Recipe = rec
			return slots
		}
	}
	slots = append(slots, Slot{Day: day, Meal: meal, Recipe: rec})
	SortSlots(slots)
	return slots
}
