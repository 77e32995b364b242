package clipper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"menu-planner/internal/recipe"
)

// --- Mocks ---
type MockSaver struct {
	Saved       *recipe.Recipe
	ShouldError bool
}

func (m *MockSaver) Save(_ context.Context, rec recipe.Recipe) error {
	if m.ShouldError {
		return fmt.Errorf("mock error")
	}
	m.Saved = &rec
	return nil
}

func serve(t *testing.T, html string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(html))
	}))
	t.Cleanup(ts.Close)
	return ts
}

// --- Tests ---

func TestClipURLMicrodata(t *testing.T) {
	ts := serve(t, `
	<html>
		<head><script>alert('bad');</script><title>Fallback</title></head>
		<body>
			<h1>Tomato Soup</h1>
			<div class="ads">Buy stuff!</div>
			<ul>
				<li itemprop="recipeIngredient">400 g canned tomatoes</li>
				<li itemprop="recipeIngredient">1 onion</li>
				<li itemprop="recipeIngredient">salt to taste</li>
			</ul>
			<div itemprop="recipeInstructions">
				<li>Soften the onion.</li>
				<li>Add tomatoes and simmer.</li>
			</div>
			<footer>Copyright 2024</footer>
		</body>
	</html>`)

	saver := &MockSaver{}
	c := NewClipper(saver)

	rec, err := c.ClipURL(context.Background(), ts.URL, "dinner")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Title != "Tomato Soup" {
		t.Errorf("Expected title 'Tomato Soup', got '%s'", rec.Title)
	}
	if rec.Category != "dinner" {
		t.Errorf("Expected category 'dinner', got '%s'", rec.Category)
	}
	if rec.ID == "" {
		t.Error("Expected a generated id")
	}
	if len(rec.Ingredients) != 3 {
		t.Fatalf("Expected 3 ingredients, got %d", len(rec.Ingredients))
	}
	first := rec.Ingredients[0]
	if first.Name != "canned tomatoes" || first.Quantity != 400 || first.Unit != "g" {
		t.Errorf("Unexpected first ingredient: %+v", first)
	}
	if len(rec.Instructions) != 2 {
		t.Errorf("Expected 2 instructions, got %v", rec.Instructions)
	}
	if saver.Saved == nil {
		t.Fatal("Expected the recipe to be saved")
	}
	if saver.Saved.ID != rec.ID {
		t.Error("Saved recipe differs from returned one")
	}
}

func TestClipURLHeadingFallback(t *testing.T) {
	ts := serve(t, `
	<html><body>
		<h1>Pancakes</h1>
		<h2>Ingredients</h2>
		<ul>
			<li>200 g flour</li>
			<li>2 eggs</li>
		</ul>
		<h2>Directions</h2>
		<ol>
			<li>Whisk everything.</li>
			<li>Fry in butter.</li>
		</ol>
	</body></html>`)

	c := NewClipper(&MockSaver{})
	rec, err := c.ClipURL(context.Background(), ts.URL, "breakfast")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(rec.Ingredients) != 2 {
		t.Fatalf("Expected 2 ingredients, got %+v", rec.Ingredients)
	}
	if rec.Ingredients[1].Name != "eggs" || rec.Ingredients[1].Unit != "unit" {
		t.Errorf("Unexpected ingredient parse: %+v", rec.Ingredients[1])
	}
	if len(rec.Instructions) != 2 || rec.Instructions[0] != "Whisk everything." {
		t.Errorf("Unexpected instructions: %v", rec.Instructions)
	}
}

func TestClipURLNoRecipe(t *testing.T) {
	ts := serve(t, `<html><body><h1>About us</h1><p>Just a blog.</p></body></html>`)

	c := NewClipper(&MockSaver{})
	_, err := c.ClipURL(context.Background(), ts.URL, "dinner")
	if err == nil {
		t.Fatal("Expected an error for a page without ingredients, got nil")
	}
	if !strings.Contains(err.Error(), "no ingredients") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestClipURLHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	c := NewClipper(&MockSaver{})
	_, err := c.ClipURL(context.Background(), ts.URL, "dinner")
	if err == nil {
		t.Fatal("Expected an error for a 404 response, got nil")
	}
}

func TestClipURLSaveFailure(t *testing.T) {
	ts := serve(t, `
	<html><body>
		<h1>Toast</h1>
		<h2>Ingredients</h2>
		<ul><li>2 slices bread</li></ul>
	</body></html>`)

	c := NewClipper(&MockSaver{ShouldError: true})
	_, err := c.ClipURL(context.Background(), ts.URL, "breakfast")
	if err == nil {
		t.Fatal("Expected save error to propagate, got nil")
	}
}
