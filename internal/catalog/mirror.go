package catalog

import (
	"context"
	"fmt"
	"log"

	"menu-planner/internal/recipe"
)

// mirrorClient wraps a remote catalog and persists everything it fetches
// into the local repository. Menu resolution and catalog search read from
// sqlite, so remote recipes must land there to stay resolvable across
// sessions.
type mirrorClient struct {
	remote Client
	repo   *recipe.Repository
}

// NewMirroringClient wraps a remote catalog so that every fetched recipe
// is also stored locally. Mirror failures are logged, never propagated;
// the fetched recipes are good regardless of whether the copy stuck.
func NewMirroringClient(remote Client, repo *recipe.Repository) Client {
	return &mirrorClient{remote: remote, repo: repo}
}

func (c *mirrorClient) RecipesByCategory(ctx context.Context, category string) ([]recipe.Recipe, error) {
	recipes, err := c.remote.RecipesByCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	c.mirror(ctx, recipes)
	return recipes, nil
}

func (c *mirrorClient) AllRecipes(ctx context.Context) ([]recipe.Recipe, error) {
	recipes, err := c.remote.AllRecipes(ctx)
	if err != nil {
		return nil, err
	}
	c.mirror(ctx, recipes)
	return recipes, nil
}

func (c *mirrorClient) mirror(ctx context.Context, recipes []recipe.Recipe) {
	for _, rec := range recipes {
		if err := c.repo.Save(ctx, rec); err != nil {
			log.Printf("Warning: failed to mirror recipe %s locally: %v", rec.ID, err)
		}
	}
}

// WriteThroughSaver persists imported recipes to the remote catalog and
// mirrors the created record into the local repository. It serves as the
// clipper's saver when a remote catalog is configured.
type WriteThroughSaver struct {
	writer Writer
	repo   *recipe.Repository
}

// NewWriteThroughSaver creates a saver over the remote write surface.
func NewWriteThroughSaver(w Writer, repo *recipe.Repository) *WriteThroughSaver {
	return &WriteThroughSaver{writer: w, repo: repo}
}

// Save pushes the recipe remotely, then stores the record the catalog
// returns (it owns the persisted identity) locally.
func (s *WriteThroughSaver) Save(ctx context.Context, rec recipe.Recipe) error {
	created, err := s.writer.CreateRecipe(ctx, rec)
	if err != nil {
		return fmt.Errorf("failed to push recipe to catalog: %w", err)
	}
	if err := s.repo.Save(ctx, *created); err != nil {
		return fmt.Errorf("failed to mirror created recipe: %w", err)
	}
	return nil
}
