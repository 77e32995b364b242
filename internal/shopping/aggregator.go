// Package shopping turns the recipes of a committed menu into a
// categorized, quantity-summed purchase list.
package shopping

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"menu-planner/internal/recipe"
)

// Item is one line of the shopping list.
type Item struct {
	// Name keeps the first-seen casing and phrasing of the ingredient.
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	// Unit is the group's canonical unit (g, ml, unit, tbsp, tsp, or a
	// pass-through for units outside the conversion table).
	Unit string `json:"unit"`
}

// Summary holds the list's aggregate counts.
type Summary struct {
	TotalItems      int `json:"total_items"`
	TotalCategories int `json:"total_categories"`
}

// List is the derived shopping list. It is recomputed from the menu and
// never stored; only the checked-item state persists, keyed by the stable
// ordering guaranteed here.
type List struct {
	// Categories is sorted by name and lists only categories with at
	// least one item.
	Categories []string `json:"categories"`
	// Items holds each category's lines in first-seen order.
	Items map[string][]Item `json:"items"`
	// OptionalItems are seasonings and explicitly optional ingredients.
	// They never merge with category items, even on a name match.
	OptionalItems []Item  `json:"optional_items"`
	Summary       Summary `json:"summary"`
}

// Aggregator builds shopping lists using the loaded lookup tables.
type Aggregator struct {
	tables *Tables
}

// NewAggregator creates an Aggregator.
func NewAggregator(tables *Tables) *Aggregator {
	return &Aggregator{tables: tables}
}

var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeName produces the grouping key for an ingredient name:
// lower-cased, diacritics stripped, whitespace collapsed.
func normalizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.Join(strings.Fields(s), " ")
	if stripped, _, err := transform.String(diacriticStripper, s); err == nil {
		s = stripped
	}
	return s
}

type group struct {
	displayName string
	quantity    float64
	unit        string
	normName    string
	optional    bool
}

// Build aggregates the ingredients of the given recipes. Two entries merge
// iff their normalized names match, their units are compatible, and they
// sit on the same side of the optional partition. Output ordering is
// deterministic: categories sorted by name, items in first-seen order.
// The checked-item key scheme depends on that.
func (a *Aggregator) Build(recipes []recipe.Recipe) *List {
	var order []*group
	index := make(map[string]*group)

	for _, rec := range recipes {
		for _, ing := range rec.Ingredients {
			normName := normalizeName(ing.Name)
			if normName == "" {
				continue
			}
			qty, unit := a.tables.Convert(ing.Quantity, ing.Unit)
			optional := a.isOptional(ing, normName)

			key := groupKey(normName, unit, optional)
			if g, ok := index[key]; ok {
				g.quantity += qty
				continue
			}
			g := &group{
				displayName: strings.TrimSpace(ing.Name),
				quantity:    qty,
				unit:        unit,
				normName:    normName,
				optional:    optional,
			}
			index[key] = g
			order = append(order, g)
		}
	}

	list := &List{Items: make(map[string][]Item)}
	for _, g := range order {
		item := Item{Name: g.displayName, Quantity: g.quantity, Unit: g.unit}
		if g.optional {
			list.OptionalItems = append(list.OptionalItems, item)
			continue
		}
		category := a.tables.Category(g.normName)
		list.Items[category] = append(list.Items[category], item)
	}

	for category := range list.Items {
		list.Categories = append(list.Categories, category)
	}
	sort.Strings(list.Categories)

	for _, items := range list.Items {
		list.Summary.TotalItems += len(items)
	}
	list.Summary.TotalItems += len(list.OptionalItems)
	list.Summary.TotalCategories = len(list.Categories)

	return list
}

// isOptional applies the hard partition: an explicit "optional" note or a
// known seasoning name sends the entry to the optional bucket.
func (a *Aggregator) isOptional(ing recipe.Ingredient, normName string) bool {
	if strings.Contains(strings.ToLower(ing.Note), "optional") {
		return true
	}
	return a.tables.IsSeasoning(normName)
}

func groupKey(normName, unit string, optional bool) string {
	partition := "item"
	if optional {
		partition = "opt"
	}
	return partition + "|" + normName + "|" + unit
}
