package recipe

import (
	"regexp"
	"strconv"
	"strings"
)

// Difficulty is the preparation difficulty of a recipe.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// ParseDifficulty maps free-form input to a Difficulty, defaulting to Medium.
func ParseDifficulty(s string) Difficulty {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return DifficultyEasy
	case "hard":
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}

// Ingredient is one structured entry of a recipe's ingredient list.
type Ingredient struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Note     string  `json:"note,omitempty"`
}

// Recipe is a single recipe from the catalog. Optional fields are pointers;
// defaulting happens once in Normalize, at the ingestion boundary.
type Recipe struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Category     string       `json:"category"`
	Diet         string       `json:"diet,omitempty"`
	PrepMinutes  int          `json:"prep_minutes"`
	Difficulty   Difficulty   `json:"difficulty"`
	Calories     *int         `json:"calories,omitempty"`
	Servings     *int         `json:"servings,omitempty"`
	Rating       *float64     `json:"rating,omitempty"`
	Ingredients  []Ingredient `json:"ingredients"`
	Instructions []string     `json:"instructions"`
	Tips         []string     `json:"tips,omitempty"`
	UpdatedAt    string       `json:"updated_at,omitempty"`
}

// Normalize applies the defaulting rules for data arriving from the catalog:
// trimmed names, a valid difficulty, non-negative numbers. It is the single
// place where loosely-shaped external data becomes a well-formed Recipe.
func (r *Recipe) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Category = strings.ToLower(strings.TrimSpace(r.Category))
	r.Diet = strings.TrimSpace(r.Diet)
	if r.Difficulty != DifficultyEasy && r.Difficulty != DifficultyMedium && r.Difficulty != DifficultyHard {
		r.Difficulty = ParseDifficulty(string(r.Difficulty))
	}
	if r.PrepMinutes < 0 {
		r.PrepMinutes = 0
	}
	if r.Calories != nil && *r.Calories < 0 {
		r.Calories = nil
	}
	if r.Servings != nil && *r.Servings <= 0 {
		r.Servings = nil
	}
	if r.Rating != nil && (*r.Rating < 0 || *r.Rating > 5) {
		r.Rating = nil
	}
	for i := range r.Ingredients {
		r.Ingredients[i].Name = strings.TrimSpace(r.Ingredients[i].Name)
		r.Ingredients[i].Unit = strings.ToLower(strings.TrimSpace(r.Ingredients[i].Unit))
		if r.Ingredients[i].Quantity < 0 {
			r.Ingredients[i].Quantity = 0
		}
	}
}

// LineKind classifies a single instruction line.
type LineKind int

const (
	LineStep LineKind = iota
	LineHeader
	LineTip
)

// InstructionLine is an instruction string with its sentinel stripped.
type InstructionLine struct {
	Kind LineKind
	Text string
}

// ClassifyInstruction interprets the leading sentinel of a raw instruction
// line: "#" marks a section header, "!" marks an inline tip, anything else
// is a plain step.
func ClassifyInstruction(raw string) InstructionLine {
	trimmed := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(trimmed, "#"):
		return InstructionLine{Kind: LineHeader, Text: strings.TrimSpace(strings.TrimLeft(trimmed, "#"))}
	case strings.HasPrefix(trimmed, "!"):
		return InstructionLine{Kind: LineTip, Text: strings.TrimSpace(strings.TrimPrefix(trimmed, "!"))}
	default:
		return InstructionLine{Kind: LineStep, Text: trimmed}
	}
}

// InstructionLines returns the recipe's instructions with sentinels resolved.
func (r *Recipe) InstructionLines() []InstructionLine {
	lines := make([]InstructionLine, 0, len(r.Instructions))
	for _, raw := range r.Instructions {
		lines = append(lines, ClassifyInstruction(raw))
	}
	return lines
}

// Tip is a tip entry, optionally split into a "label: body" pair.
type Tip struct {
	Label string
	Body  string
}

// TipEntries splits the recipe's tips on the first colon. A tip without a
// colon keeps its whole text in Body with an empty Label.
func (r *Recipe) TipEntries() []Tip {
	tips := make([]Tip, 0, len(r.Tips))
	for _, raw := range r.Tips {
		label, body, found := strings.Cut(raw, ":")
		if found && strings.TrimSpace(label) != "" && !strings.Contains(strings.TrimSpace(label), " ") {
			tips = append(tips, Tip{Label: strings.TrimSpace(label), Body: strings.TrimSpace(body)})
		} else {
			tips = append(tips, Tip{Body: strings.TrimSpace(raw)})
		}
	}
	return tips
}

var ingredientLineRe = regexp.MustCompile(`^\s*(\d+(?:[.,]\d+)?)\s*([a-zA-Z]*)\s+(.+?)\s*(?:\(([^)]*)\))?\s*$`)

// ParseIngredientLine parses a free-form ingredient string such as
// "200 g tomato (optional)" into a structured Ingredient. Lines without a
// leading quantity become a 1-"unit" entry so nothing is dropped on import.
func ParseIngredientLine(line string) Ingredient {
	m := ingredientLineRe.FindStringSubmatch(line)
	if m == nil {
		name, note := splitTrailingNote(strings.TrimSpace(line))
		return Ingredient{Name: name, Quantity: 1, Unit: "unit", Note: note}
	}
	qty, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		qty = 1
	}
	unit := strings.ToLower(m[2])
	if unit == "" {
		unit = "unit"
	}
	return Ingredient{
		Name:     strings.TrimSpace(m[3]),
		Quantity: qty,
		Unit:     unit,
		Note:     strings.TrimSpace(m[4]),
	}
}

func splitTrailingNote(s string) (name, note string) {
	open := strings.LastIndex(s, "(")
	if open == -1 || !strings.HasSuffix(s, ")") {
		return s, ""
	}
	return strings.TrimSpace(s[:open]), strings.TrimSpace(s[open+1 : len(s)-1])
}
