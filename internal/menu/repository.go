package menu

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/google/uuid"
)

// SavedMenu is a persisted menu as returned by LoadSaved.
type SavedMenu struct {
	ID        string
	Name      string
	Data      MenuData
	UpdatedAt time.Time
}

// MenuRecord is a lightweight listing entry.
type MenuRecord struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Repository persists menus. Every save replaces the menu's full MenuData;
// the store never patches a menu partially.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new menu Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type menuRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Data      string    `db:"data"`
	UpdatedAt time.Time `db:"updated_at"`
}

// LoadSaved returns the user's most recently updated menu, the canonical
// one for session bootstrap. No saved menu returns (nil, nil).
func (r *Repository) LoadSaved(ctx context.Context, userID string) (*SavedMenu, error) {
	query, args, err := sq.Select("id", "name", "data", "updated_at").
		From("menus").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("updated_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var row menuRow
	if err := sqlscan.Get(ctx, r.db, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load saved menu: %w", err)
	}

	var data MenuData
	if err := json.Unmarshal([]byte(row.Data), &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal menu data: %w", err)
	}

	return &SavedMenu{ID: row.ID, Name: row.Name, Data: data, UpdatedAt: row.UpdatedAt}, nil
}

// SaveOrUpdate writes a menu wholesale under (userID, name) and returns the
// menu id. An existing menu with the same name is overwritten; a new one
// gets a fresh uuid.
func (r *Repository) SaveOrUpdate(ctx context.Context, userID, name string, data MenuData) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal menu data: %w", err)
	}

	now := time.Now().UTC()
	id := uuid.NewString()

	query, args, err := sq.Insert("menus").
		Columns("id", "user_id", "name", "data", "created_at", "updated_at").
		Values(id, userID, name, string(raw), now, now).
		Suffix(`ON CONFLICT(user_id, name) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at`).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("failed to build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("failed to save menu: %w", err)
	}

	// The upsert keeps the original id on conflict; read it back so the
	// caller always holds the persisted identity.
	idQuery, idArgs, err := sq.Select("id").From("menus").
		Where(sq.Eq{"user_id": userID, "name": name}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("failed to build id query: %w", err)
	}
	var persistedID string
	if err := sqlscan.Get(ctx, r.db, &persistedID, idQuery, idArgs...); err != nil {
		return "", fmt.Errorf("failed to read back menu id: %w", err)
	}
	return persistedID, nil
}

// ListRecent returns the user's n most recently updated menus.
func (r *Repository) ListRecent(ctx context.Context, userID string, n int) ([]MenuRecord, error) {
	query, args, err := sq.Select("id", "name", "updated_at").
		From("menus").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("updated_at DESC").
		Limit(uint64(n)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var records []MenuRecord
	if err := sqlscan.Select(ctx, r.db, &records, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list menus: %w", err)
	}
	return records, nil
}
