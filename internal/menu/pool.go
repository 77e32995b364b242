package menu

import (
	"context"
	"fmt"
	"sync"

	"menu-planner/internal/catalog"
	"menu-planner/internal/recipe"
)

// PoolCache lazily fetches and caches the recipe pool for each meal type.
// Pools live for the session: populated on first need, never invalidated,
// discarded with the cache itself. A failed fetch caches nothing, so the
// next call retries.
type PoolCache struct {
	client catalog.Client

	mu    sync.Mutex
	pools map[Meal][]recipe.Recipe
}

// NewPoolCache creates an empty PoolCache over the given catalog.
func NewPoolCache(client catalog.Client) *PoolCache {
	return &PoolCache{
		client: client,
		pools:  make(map[Meal][]recipe.Recipe),
	}
}

// Get returns the pool for a meal type, fetching it on first use.
func (c *PoolCache) Get(ctx context.Context, meal Meal) ([]recipe.Recipe, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if pool, ok := c.pools[meal]; ok {
		return pool, nil
	}

	pool, err := c.client.RecipesByCategory(ctx, meal.String())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s pool: %w", meal, err)
	}
	c.pools[meal] = pool
	return pool, nil
}

// Cached reports whether a meal type's pool is already populated.
func (c *PoolCache) Cached(meal Meal) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pools[meal]
	return ok
}

// Clear drops every cached pool. Called on logout.
func (c *PoolCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pools = make(map[Meal][]recipe.Recipe)
}
