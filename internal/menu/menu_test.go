package menu

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menu-planner/internal/recipe"
)

func TestSlotID(t *testing.T) {
	s := Slot{Day: Wednesday, Meal: Supper}
	assert.Equal(t, "wednesday-supper", s.ID())
	assert.False(t, s.Bound())
}

func TestSelection(t *testing.T) {
	t.Run("toggle adds and removes pairs", func(t *testing.T) {
		sel := Selection{}
		sel.Toggle(Monday, Lunch)
		assert.True(t, sel.Contains(Monday, Lunch))

		sel.Toggle(Monday, Lunch)
		assert.False(t, sel.Contains(Monday, Lunch))
		_, present := sel[Monday]
		assert.False(t, present, "empty day removed entirely")
	})

	t.Run("active pairs come out in grid order", func(t *testing.T) {
		sel := Selection{}
		sel.Toggle(Friday, Breakfast)
		sel.Toggle(Monday, Dinner)
		sel.Toggle(Monday, Lunch)

		want := []Pair{
			{Day: Monday, Meal: Lunch},
			{Day: Monday, Meal: Dinner},
			{Day: Friday, Meal: Breakfast},
		}
		assert.Equal(t, want, sel.ActivePairs())
	})
}

func TestParseSelection(t *testing.T) {
	t.Run("parses days and meals", func(t *testing.T) {
		sel, err := ParseSelection("monday:lunch,dinner;tuesday:dinner")
		require.NoError(t, err)
		assert.True(t, sel.Contains(Monday, Lunch))
		assert.True(t, sel.Contains(Monday, Dinner))
		assert.True(t, sel.Contains(Tuesday, Dinner))
		assert.Len(t, sel.ActivePairs(), 3)
	})

	t.Run("deduplicates repeated pairs", func(t *testing.T) {
		sel, err := ParseSelection("monday:lunch,lunch")
		require.NoError(t, err)
		assert.Len(t, sel.ActivePairs(), 1)
	})

	t.Run("rejects unknown names", func(t *testing.T) {
		_, err := ParseSelection("monday:brunch")
		assert.Error(t, err)

		_, err = ParseSelection("moonday:lunch")
		assert.Error(t, err)

		_, err = ParseSelection("monday")
		assert.Error(t, err)
	})
}

func TestMenuDataJSON(t *testing.T) {
	data := MenuData{
		Monday: {Lunch: "r1", Dinner: "r2"},
		Sunday: {Breakfast: "r3"},
	}

	raw, err := json.Marshal(data)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"monday"`)
	assert.Contains(t, string(raw), `"lunch":"r1"`)

	var back MenuData
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, data, back)
}

func TestDataFromSlots(t *testing.T) {
	slots := []Slot{
		{Day: Monday, Meal: Lunch, Recipe: &recipe.Recipe{ID: "r1"}},
		{Day: Monday, Meal: Dinner},
		{Day: Tuesday, Meal: Supper, Recipe: &recipe.Recipe{ID: "r2"}},
	}

	data := DataFromSlots(slots)
	assert.Equal(t, "r1", data[Monday][Lunch])
	assert.Equal(t, "r2", data[Tuesday][Supper])
	_, present := data[Monday][Dinner]
	assert.False(t, present)
}

func TestSlotsFromData(t *testing.T) {
	data := MenuData{
		Monday: {Dinner: "r1", Lunch: "gone"},
	}
	byID := map[string]*recipe.Recipe{
		"r1": {ID: "r1", Title: "Stew"},
	}

	slots := SlotsFromData(data, byID)
	require.Len(t, slots, 2)
	assert.Equal(t, "monday-lunch", slots[0].ID())
	assert.False(t, slots[0].Bound(), "stale id renders as an unbound slot")
	assert.Equal(t, "Stew", slots[1].Recipe.Title)
}

func TestSelectionFromData(t *testing.T) {
	data := MenuData{
		Monday: {Dinner: "r1", Lunch: "r2"},
	}
	sel := SelectionFromData(data)
	assert.Equal(t, []Meal{Lunch, Dinner}, sel[Monday])
}

func TestReplaceSlot(t *testing.T) {
	rec := &recipe.Recipe{ID: "new"}

	t.Run("replaces in place", func(t *testing.T) {
		slots := []Slot{{Day: Monday, Meal: Lunch, Recipe: &recipe.Recipe{ID: "old"}}}
		out := ReplaceSlot(slots, Monday, Lunch, rec)
		require.Len(t, out, 1)
		assert.Equal(t, "new", out[0].Recipe.ID)
	})

	t.Run("appends a new slot in grid order", func(t *testing.T) {
		slots := []Slot{{Day: Tuesday, Meal: Lunch}}
		out := ReplaceSlot(slots, Monday, Dinner, rec)
		require.Len(t, out, 2)
		assert.Equal(t, "monday-dinner", out[0].ID())
	})

	t.Run("repeat across slots is allowed", func(t *testing.T) {
		slots := []Slot{{Day: Monday, Meal: Lunch, Recipe: rec}}
		out := ReplaceSlot(slots, Monday, Dinner, rec)
		require.Len(t, out, 2)
		assert.Equal(t, out[0].Recipe.ID, out[1].Recipe.ID)
	})
}

func TestDayMealParsing(t *testing.T) {
	for _, day := range Days {
		parsed, err := ParseDay(day.String())
		require.NoError(t, err)
		assert.Equal(t, day, parsed)
	}
	for _, meal := range Meals {
		parsed, err := ParseMeal(meal.String())
		require.NoError(t, err)
		assert.Equal(t, meal, parsed)
	}

	_, err := ParseDay("Monday")
	assert.Error(t, err, "names are lowercase")
}
