package recipe

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"
)

// Repository is a database-backed repository for recipes. The full recipe
// document lives in the data column; category, diet, prep_minutes and title
// are mirrored into their own columns so catalog filters stay in SQL.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type recipeRow struct {
	ID   string `db:"id"`
	Data string `db:"data"`
}

// Filter narrows catalog queries. Zero values mean "no constraint".
type Filter struct {
	Category       string
	Diet           string
	TitleLike      string
	MaxPrepMinutes int
}

// Save inserts or updates a recipe.
func (r *Repository) Save(ctx context.Context, rec Recipe) error {
	rec.Normalize()
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal recipe: %w", err)
	}

	query, args, err := sq.Insert("recipes").
		Columns("id", "title", "category", "diet", "prep_minutes", "data", "updated_at").
		Values(rec.ID, rec.Title, rec.Category, rec.Diet, rec.PrepMinutes, string(doc), time.Now().UTC()).
		Suffix(`ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			category = excluded.category,
			diet = excluded.diet,
			prep_minutes = excluded.prep_minutes,
			data = excluded.data,
			updated_at = excluded.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert recipe: %w", err)
	}
	return nil
}

// Get retrieves a recipe by its ID. A missing recipe returns (nil, nil).
func (r *Repository) Get(ctx context.Context, id string) (*Recipe, error) {
	query, args, err := sq.Select("id", "data").From("recipes").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var row recipeRow
	if err := sqlscan.Get(ctx, r.db, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get recipe %s: %w", id, err)
	}
	return decodeRecipe(row)
}

// GetByIDs retrieves multiple recipes. Missing or corrupt rows are skipped.
func (r *Repository) GetByIDs(ctx context.Context, ids []string) ([]Recipe, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sq.Select("id", "data").From("recipes").Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return r.selectRecipes(ctx, query, args)
}

// List retrieves recipes matching the filter, ordered by title.
func (r *Repository) List(ctx context.Context, f Filter) ([]Recipe, error) {
	builder := sq.Select("id", "data").From("recipes").OrderBy("title")
	if f.Category != "" {
		builder = builder.Where(sq.Eq{"category": f.Category})
	}
	if f.Diet != "" {
		builder = builder.Where(sq.Eq{"diet": f.Diet})
	}
	if f.TitleLike != "" {
		builder = builder.Where(sq.Like{"title": "%" + f.TitleLike + "%"})
	}
	if f.MaxPrepMinutes > 0 {
		builder = builder.Where(sq.LtOrEq{"prep_minutes": f.MaxPrepMinutes})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return r.selectRecipes(ctx, query, args)
}

// ListByCategory retrieves every recipe of one meal category.
func (r *Repository) ListByCategory(ctx context.Context, category string) ([]Recipe, error) {
	return r.List(ctx, Filter{Category: category})
}

// Count returns the number of recipes in the catalog.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int
	if err := sqlscan.Get(ctx, r.db, &count, "SELECT COUNT(*) FROM recipes"); err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	return count, nil
}

func (r *Repository) selectRecipes(ctx context.Context, query string, args []interface{}) ([]Recipe, error) {
	var rows []recipeRow
	if err := sqlscan.Select(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select recipes: %w", err)
	}

	recipes := make([]Recipe, 0, len(rows))
	for _, row := range rows {
		rec, err := decodeRecipe(row)
		if err != nil {
			log.Printf("Warning: skipping corrupt recipe row %s: %v", row.ID, err)
			continue
		}
		recipes = append(recipes, *rec)
	}
	return recipes, nil
}

func decodeRecipe(row recipeRow) (*Recipe, error) {
	var rec Recipe
	if err := json.Unmarshal([]byte(row.Data), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipe %s: %w", row.ID, err)
	}
	rec.Normalize()
	return &rec, nil
}
