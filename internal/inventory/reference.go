package inventory

import (
	"encoding/csv"
	"os"
	"strconv"

	"pantrypal/internal/core"
)

// ReferenceItem is one entry in the shelf-life lookup table for unpackaged
// groceries.
type ReferenceItem struct {
	Name      string
	ShelfLife int // days from today
	Storage   Storage
}

// ReferenceTable maps grocery names to their default shelf life. It is
// loaded fresh per intake call; the file is read-only.
type ReferenceTable struct {
	items map[string]ReferenceItem
}

// LoadReference reads the reference CSV (columns name,shelf_life,storage).
// A missing file yields an empty table, so intake falls back to defaults.
func LoadReference(path string) (*ReferenceTable, error) {
	table := &ReferenceTable{items: make(map[string]ReferenceItem)}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return table, nil
		}
		return nil, core.E(core.KindIO, "reference.read", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, core.E(core.KindIO, "reference.read", err)
	}
	if len(records) == 0 {
		return table, nil
	}

	for i, rec := range records[1:] {
		if len(rec) != 3 {
			return nil, core.Errorf(core.KindIO, "reference.read",
				"row %d: expected 3 columns, got %d", i+1, len(rec))
		}
		days, err := strconv.Atoi(rec[1])
		if err != nil {
			return nil, core.Errorf(core.KindIO, "reference.read",
				"row %d: invalid shelf_life %q", i+1, rec[1])
		}
		storage, err := parseStorage(rec[2])
		if err != nil {
			return nil, core.Errorf(core.KindIO, "reference.read", "row %d: %v", i+1, err)
		}
		table.items[rec[0]] = ReferenceItem{Name: rec[0], ShelfLife: days, Storage: storage}
	}
	return table, nil
}

// Lookup returns the reference entry for name. Names are exact keys; case
// and plural variations are distinct.
func (t *ReferenceTable) Lookup(name string) (ReferenceItem, bool) {
	item, ok := t.items[name]
	return item, ok
}

// Len returns the number of reference entries.
func (t *ReferenceTable) Len() int { return len(t.items) }
