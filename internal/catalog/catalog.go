// Package catalog defines the recipe catalog service the planner consumes.
// The catalog itself is an external collaborator; only its shape is owned
// here, together with two implementations: a remote HTTP client and a
// local repository-backed one.
package catalog

import (
	"context"

	"menu-planner/internal/recipe"
)

// Client is the read surface of the recipe catalog.
type Client interface {
	// RecipesByCategory returns every recipe of one meal category. It is
	// used to populate an allocation pool.
	RecipesByCategory(ctx context.Context, category string) ([]recipe.Recipe, error)
	// AllRecipes returns the whole catalog, for manual-replacement search.
	AllRecipes(ctx context.Context) ([]recipe.Recipe, error)
}

// Writer is the optional write surface, available on catalogs that accept
// imported recipes.
type Writer interface {
	CreateRecipe(ctx context.Context, rec recipe.Recipe) (*recipe.Recipe, error)
}

// storeClient serves catalog reads straight from the local repository.
type storeClient struct {
	repo *recipe.Repository
}

// NewStoreClient wraps a recipe repository as a catalog Client.
func NewStoreClient(repo *recipe.Repository) Client {
	return &storeClient{repo: repo}
}

func (c *storeClient) RecipesByCategory(ctx context.Context, category string) ([]recipe.Recipe, error) {
	return c.repo.ListByCategory(ctx, category)
}

func (c *storeClient) AllRecipes(ctx context.Context) ([]recipe.Recipe, error) {
	return c.repo.List(ctx, recipe.Filter{})
}
