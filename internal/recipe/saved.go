package recipe

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"
)

// SavedRepository persists a user's bookmarked recipe ids. The list is
// replaced wholesale on every write, mirroring how the menu store works.
type SavedRepository struct {
	db *sql.DB
}

// NewSavedRepository creates a new SavedRepository.
func NewSavedRepository(db *sql.DB) *SavedRepository {
	return &SavedRepository{db: db}
}

// GetSavedRecipeIDs returns the user's bookmarked recipe ids, empty if none.
func (r *SavedRepository) GetSavedRecipeIDs(ctx context.Context, userID string) ([]string, error) {
	query, args, err := sq.Select("recipe_ids").From("saved_recipes").Where(sq.Eq{"user_id": userID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var raw string
	if err := sqlscan.Get(ctx, r.db, &raw, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get saved recipes: %w", err)
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("failed to unmarshal saved recipe ids: %w", err)
	}
	return ids, nil
}

// SetSavedRecipeIDs replaces the user's bookmarked recipe ids.
func (r *SavedRepository) SetSavedRecipeIDs(ctx context.Context, userID string, ids []string) error {
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to marshal saved recipe ids: %w", err)
	}

	query, args, err := sq.Insert("saved_recipes").
		Columns("user_id", "recipe_ids", "updated_at").
		Values(userID, string(raw), time.Now().UTC()).
		Suffix(`ON CONFLICT(user_id) DO UPDATE SET
			recipe_ids = excluded.recipe_ids,
			updated_at = excluded.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save recipe ids: %w", err)
	}
	return nil
}
