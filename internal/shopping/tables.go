package shopping

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed tables/*.yaml
var tablesFS embed.FS

// DefaultCategory receives every ingredient the category table misses.
const DefaultCategory = "other"

// unitEntry is one row of the unit-conversion table.
type unitEntry struct {
	Unit      string  `yaml:"unit"`
	Canonical string  `yaml:"canonical"`
	Factor    float64 `yaml:"factor"`
}

type unitsFile struct {
	Units []unitEntry `yaml:"units"`
}

type categoriesFile struct {
	Categories map[string][]string `yaml:"categories"`
}

type seasoningsFile struct {
	Seasonings []string `yaml:"seasonings"`
}

// Tables bundles the lookup tables the aggregator needs: unit conversions,
// purchase categories, and the seasoning list.
type Tables struct {
	units      map[string]unitEntry
	categories map[string]string // normalized name -> category
	seasonings map[string]struct{}
}

// LoadTables parses the embedded YAML tables.
func LoadTables() (*Tables, error) {
	t := &Tables{
		units:      make(map[string]unitEntry),
		categories: make(map[string]string),
		seasonings: make(map[string]struct{}),
	}

	var uf unitsFile
	if err := readYAML("tables/units.yaml", &uf); err != nil {
		return nil, err
	}
	for _, u := range uf.Units {
		t.units[u.Unit] = u
	}

	var cf categoriesFile
	if err := readYAML("tables/categories.yaml", &cf); err != nil {
		return nil, err
	}
	for category, names := range cf.Categories {
		for _, name := range names {
			t.categories[normalizeName(name)] = category
		}
	}

	var sf seasoningsFile
	if err := readYAML("tables/seasonings.yaml", &sf); err != nil {
		return nil, err
	}
	for _, name := range sf.Seasonings {
		t.seasonings[normalizeName(name)] = struct{}{}
	}

	return t, nil
}

func readYAML(path string, v interface{}) error {
	data, err := tablesFS.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// Convert maps a quantity to its canonical unit. Units outside the table
// convert to themselves, so two identical unknown units still group.
func (t *Tables) Convert(quantity float64, unit string) (float64, string) {
	if entry, ok := t.units[unit]; ok {
		return quantity * entry.Factor, entry.Canonical
	}
	return quantity, unit
}

// Category returns the purchase category for a normalized ingredient name.
func (t *Tables) Category(normName string) string {
	if c, ok := t.categories[normName]; ok {
		return c
	}
	return DefaultCategory
}

// IsSeasoning reports whether the normalized name is a known seasoning.
func (t *Tables) IsSeasoning(normName string) bool {
	_, ok := t.seasonings[normName]
	return ok
}
