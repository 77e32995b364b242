// Package checked remembers which shopping-list lines a user has ticked,
// scoped to one persisted menu so checkmarks never leak between menus.
package checked

import (
	"fmt"
	"log"

	"menu-planner/internal/localstore"
)

// Items maps a line key ("<category>-<index>" or "optional-<index>") to its
// checked state. Keys stay stable because the aggregator's ordering is
// deterministic.
type Items map[string]bool

// Store persists checked-item state in the local key-value store.
type Store struct {
	ls *localstore.Store
}

// NewStore creates a Store over the given local store.
func NewStore(ls *localstore.Store) *Store {
	return &Store{ls: ls}
}

func key(menuID string) string {
	return fmt.Sprintf("checked-items:%s", menuID)
}

// Load returns the checked state for a menu. A missing record or an empty
// menu id yields an empty map.
func (s *Store) Load(menuID string) (Items, error) {
	if menuID == "" {
		return Items{}, nil
	}
	var items Items
	found, err := s.ls.Get(key(menuID), &items)
	if err != nil {
		return nil, fmt.Errorf("failed to load checked items: %w", err)
	}
	if !found || items == nil {
		return Items{}, nil
	}
	return items, nil
}

// Save writes the checked state for a menu. An empty menu id is a no-op:
// nothing is ever written under a shared key.
func (s *Store) Save(menuID string, items Items) error {
	if menuID == "" {
		return nil
	}
	if err := s.ls.Put(key(menuID), items); err != nil {
		return fmt.Errorf("failed to save checked items: %w", err)
	}
	return nil
}

// Clear resets the checked state for a menu.
func (s *Store) Clear(menuID string) error {
	if menuID == "" {
		return nil
	}
	return s.Invalidate(menuID)
}

// Invalidate drops the stored record for a menu. The allocator calls this
// after a commit, since the new menu supersedes the shopping list the
// checkmarks referred to.
func (s *Store) Invalidate(menuID string) error {
	if err := s.ls.Delete(key(menuID)); err != nil {
		return fmt.Errorf("failed to invalidate checked items: %w", err)
	}
	return nil
}

// Prune removes records for menus outside the keep list, bounding local
// growth. Pruning is best-effort: failures are logged, never propagated.
func (s *Store) Prune(keepMenuIDs []string) {
	keep := make(map[string]struct{}, len(keepMenuIDs))
	for _, id := range keepMenuIDs {
		keep[sanitized(id)] = struct{}{}
	}

	keys, err := s.ls.Keys("checked-items:")
	if err != nil {
		log.Printf("Warning: checked-item pruning skipped: %v", err)
		return
	}

	for _, k := range keys {
		// Keys come back in sanitized filename form: "checked-items-<id>".
		id := k[len("checked-items-"):]
		if _, ok := keep[id]; ok {
			continue
		}
		if err := s.ls.Delete(fmt.Sprintf("checked-items:%s", id)); err != nil {
			log.Printf("Warning: failed to prune checked items for menu %s: %v", id, err)
		}
	}
}

func sanitized(menuID string) string {
	// Menu ids are uuids, which pass through filename sanitization
	// untouched; this exists for safety with non-uuid ids.
	out := make([]rune, 0, len(menuID))
	for _, r := range menuID {
		switch r {
		case ':', '/', '\\', ' ':
			out = append(out, '-')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
