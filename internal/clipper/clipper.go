// Package clipper imports recipes from arbitrary web pages into the local
// catalog. Extraction is structural: schema.org recipe markup when present,
// heading-anchored list scanning otherwise.
package clipper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"menu-planner/internal/recipe"
)

// RecipeSaver persists imported recipes; recipe.Repository for local-only
// setups, catalog.WriteThroughSaver when a remote catalog is configured.
type RecipeSaver interface {
	Save(ctx context.Context, rec recipe.Recipe) error
}

// Clipper fetches a page and extracts its recipe.
type Clipper struct {
	httpClient *http.Client
	saver      RecipeSaver
}

// NewClipper creates a Clipper instance.
func NewClipper(saver RecipeSaver) *Clipper {
	return &Clipper{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		saver:      saver,
	}
}

// ClipURL fetches the URL, extracts the recipe, and saves it to the
// catalog under the given meal category.
func (c *Clipper) ClipURL(ctx context.Context, url, category string) (*recipe.Recipe, error) {
	doc, err := c.fetchDocument(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content: %w", err)
	}

	rec := extractRecipe(doc)
	if rec.Title == "" {
		return nil, fmt.Errorf("no recipe title found at %s", url)
	}
	if len(rec.Ingredients) == 0 {
		return nil, fmt.Errorf("no ingredients found at %s", url)
	}

	rec.ID = uuid.NewString()
	rec.Category = category
	rec.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	rec.Normalize()

	if err := c.saver.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to save imported recipe: %w", err)
	}
	return &rec, nil
}

func (c *Clipper) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	// Remove noise before scanning
	doc.Find("script, style, nav, footer, iframe, .ads, #ads").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})
	return doc, nil
}

func extractRecipe(doc *goquery.Document) recipe.Recipe {
	var rec recipe.Recipe

	rec.Title = strings.TrimSpace(doc.Find("h1").First().Text())
	if rec.Title == "" {
		rec.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	// Prefer schema.org microdata markup
	doc.Find("[itemprop=recipeIngredient], [itemprop=ingredients]").Each(func(i int, s *goquery.Selection) {
		if line := strings.TrimSpace(s.Text()); line != "" {
			rec.Ingredients = append(rec.Ingredients, recipe.ParseIngredientLine(line))
		}
	})
	doc.Find("[itemprop=recipeInstructions] li, [itemprop=recipeInstructions] p").Each(func(i int, s *goquery.Selection) {
		if line := strings.TrimSpace(s.Text()); line != "" {
			rec.Instructions = append(rec.Instructions, line)
		}
	})

	// Fall back to heading-anchored lists
	if len(rec.Ingredients) == 0 {
		rec.Ingredients = parseListAfterHeading(doc, "ingredient", func(line string) recipe.Ingredient {
			return recipe.ParseIngredientLine(line)
		})
	}
	if len(rec.Instructions) == 0 {
		for _, line := range linesAfterHeading(doc, "instruction", "direction", "step", "method") {
			rec.Instructions = append(rec.Instructions, line)
		}
	}

	return rec
}

func parseListAfterHeading(doc *goquery.Document, word string, parse func(string) recipe.Ingredient) []recipe.Ingredient {
	var out []recipe.Ingredient
	for _, line := range linesAfterHeading(doc, word) {
		out = append(out, parse(line))
	}
	return out
}

// linesAfterHeading finds the first h2/h3 whose text contains any of the
// given words and returns the items of the next list.
func linesAfterHeading(doc *goquery.Document, words ...string) []string {
	var lines []string
	doc.Find("h2, h3").EachWithBreak(func(i int, heading *goquery.Selection) bool {
		text := strings.ToLower(heading.Text())
		matched := false
		for _, w := range words {
			if strings.Contains(text, w) {
				matched = true
				break
			}
		}
		if !matched {
			return true
		}
		heading.NextAllFiltered("ul, ol").First().Find("li").Each(func(j int, li *goquery.Selection) {
			if line := strings.TrimSpace(li.Text()); line != "" {
				lines = append(lines, line)
			}
		})
		return len(lines) == 0
	})
	return lines
}
