package menu

import (
	"fmt"
	"time"

	"menu-planner/internal/localstore"
)

// Snapshot captures the navigation state the hosting shell flushes at
// lifecycle points (unload, visibility change): the active selection and
// the scroll position.
type Snapshot struct {
	Selection    Selection `json:"selection"`
	ScrollOffset int       `json:"scroll_offset"`
	SavedAt      time.Time `json:"saved_at"`
}

func snapshotKey(userID string) string {
	return fmt.Sprintf("menu-snapshot:%s", userID)
}

// SerializeSnapshot writes the snapshot for a user. The shell calls this on
// its flush points; the core never writes one on its own.
func SerializeSnapshot(ls *localstore.Store, userID string, snap Snapshot) error {
	snap.SavedAt = time.Now().UTC()
	return ls.Put(snapshotKey(userID), snap)
}

// RestoreSnapshot returns the stored snapshot, or ok=false when none
// exists. The record is deleted before it is returned, so a snapshot is
// applied at most once even if the caller crashes while applying it.
func RestoreSnapshot(ls *localstore.Store, userID string) (*Snapshot, bool, error) {
	var snap Snapshot
	found, err := ls.Get(snapshotKey(userID), &snap)
	if err != nil {
		// An unreadable record will never become readable. Consume it so
		// the next restore starts clean instead of failing again.
		ls.Delete(snapshotKey(userID))
		return nil, false, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if !found {
		return nil, false, nil
	}
	if err := ls.Delete(snapshotKey(userID)); err != nil {
		return nil, false, fmt.Errorf("failed to consume snapshot: %w", err)
	}
	return &snap, true, nil
}
