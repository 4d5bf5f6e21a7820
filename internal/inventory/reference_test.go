package inventory

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadReference(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw_food_db.csv")
	content := "name,shelf_life,storage\n" +
		"Banana,4,counter\n" +
		"Spinach,3,fridge\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	table, err := LoadReference(path)
	if err != nil {
		t.Fatalf("LoadReference: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", table.Len())
	}

	item, ok := table.Lookup("Banana")
	if !ok {
		t.Fatal("Banana not found")
	}
	if item.ShelfLife != 4 || item.Storage != StorageCounter {
		t.Errorf("unexpected entry: %+v", item)
	}

	if _, ok := table.Lookup("banana"); ok {
		t.Error("lookup should be case-sensitive")
	}
}

func TestLoadReferenceMissingFile(t *testing.T) {
	table, err := LoadReference(filepath.Join(t.TempDir(), "absent.csv"))
	if err != nil {
		t.Fatalf("LoadReference: %v", err)
	}
	if table.Len() != 0 {
		t.Errorf("expected empty table, got %d entries", table.Len())
	}
}

func TestLoadReferenceBadShelfLife(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw_food_db.csv")
	content := "name,shelf_life,storage\nBanana,soon,counter\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadReference(path); err == nil {
		t.Fatal("expected error for non-numeric shelf_life")
	}
}
