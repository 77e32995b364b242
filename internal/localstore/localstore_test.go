package localstore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStore(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	type record struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	t.Run("Get-Missing", func(t *testing.T) {
		var out record
		found, err := store.Get("nothing", &out)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if found {
			t.Error("Expected no record, but one was found")
		}
	})

	t.Run("Put-Get", func(t *testing.T) {
		in := record{Name: "weekly", Count: 3}
		if err := store.Put("menu-meta", in); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		var out record
		found, err := store.Get("menu-meta", &out)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !found {
			t.Fatal("Expected record to be found")
		}
		if out != in {
			t.Errorf("Expected %+v, got %+v", in, out)
		}
	})

	t.Run("Put-Overwrites", func(t *testing.T) {
		if err := store.Put("menu-meta", record{Name: "updated", Count: 4}); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		var out record
		if _, err := store.Get("menu-meta", &out); err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if out.Name != "updated" {
			t.Errorf("Expected overwritten value, got %+v", out)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := store.Delete("menu-meta"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}

		var out record
		found, err := store.Get("menu-meta", &out)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if found {
			t.Error("Expected record to be gone after delete")
		}

		// Deleting a missing key is a no-op
		if err := store.Delete("menu-meta"); err != nil {
			t.Errorf("Delete of missing key failed: %v", err)
		}
	})
}

func TestKeySanitization(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	if err := store.Put("checked-items:menu/1", map[string]bool{"a": true}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// The colon and slash must not escape into the path
	expected := filepath.Join(dir, "checked-items-menu-1.json")
	if _, err := os.Stat(expected); err != nil {
		t.Errorf("Expected sanitized file %s: %v", expected, err)
	}

	var out map[string]bool
	found, err := store.Get("checked-items:menu/1", &out)
	if err != nil || !found {
		t.Fatalf("Get with original key failed: found=%v err=%v", found, err)
	}
	if !out["a"] {
		t.Errorf("Expected value to round-trip, got %v", out)
	}
}

func TestKeys(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	for _, key := range []string{"checked-items:a", "checked-items:b", "snapshot:u1"} {
		if err := store.Put(key, 1); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	keys, err := store.Keys("checked-items:")
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("Expected 2 keys, got %v", keys)
	}
	// Keys come back in sanitized form
	if keys[0] != "checked-items-a" || keys[1] != "checked-items-b" {
		t.Errorf("Unexpected keys: %v", keys)
	}
}
