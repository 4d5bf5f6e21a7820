package intake

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantrypal/internal/core"
	"pantrypal/internal/inventory"
)

var today = time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

var defaults = Defaults{ShelfLifeDays: 2, Storage: inventory.StorageCounter}

func refTable(t *testing.T, content string) *inventory.ReferenceTable {
	t.Helper()
	path := filepath.Join(t.TempDir(), "raw_food_db.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	table, err := inventory.LoadReference(path)
	require.NoError(t, err)
	return table
}

func TestFormatRowsGroceryKnown(t *testing.T) {
	ref := refTable(t, "name,shelf_life,storage\nSpinach,3,fridge\n")
	c := Classification{Success: true, Items: []Item{{Type: TypeGrocery, Name: "Spinach"}}}

	rows, err := FormatRows(c, ref, today, defaults)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "Spinach", rows[0].Name)
	assert.Equal(t, today.AddDate(0, 0, 3), rows[0].Expiry)
	assert.Equal(t, inventory.StorageFridge, rows[0].Storage)
	assert.Equal(t, inventory.StatusOpen, rows[0].Status)
}

func TestFormatRowsGroceryUnknownFallsBack(t *testing.T) {
	ref := refTable(t, "name,shelf_life,storage\n")
	c := Classification{Success: true, Items: []Item{{Type: TypeGrocery, Name: "Dragonfruit"}}}

	rows, err := FormatRows(c, ref, today, defaults)
	require.NoError(t, err)

	assert.Equal(t, today.AddDate(0, 0, 2), rows[0].Expiry)
	assert.Equal(t, inventory.StorageCounter, rows[0].Storage)
}

func TestFormatRowsPackagedPrintedExpiry(t *testing.T) {
	ref := refTable(t, "name,shelf_life,storage\n")
	c := Classification{Success: true, Items: []Item{
		{Type: TypePackaged, Name: "Yogurt", ExpiryDate: "21-09-2026"},
	}}

	rows, err := FormatRows(c, ref, today, defaults)
	require.NoError(t, err)

	want, _ := inventory.ParseDate("21-09-2026")
	assert.Equal(t, want, rows[0].Expiry)
	assert.Equal(t, inventory.StorageFridge, rows[0].Storage)
}

func TestFormatRowsPackagedMfgPlusDays(t *testing.T) {
	ref := refTable(t, "name,shelf_life,storage\n")
	c := Classification{Success: true, Items: []Item{
		{Type: TypePackaged, Name: "Bread", MfgDate: "14-09-2026", TimeRemaining: 7, TimeDenom: "d"},
	}}

	rows, err := FormatRows(c, ref, today, defaults)
	require.NoError(t, err)

	want, _ := inventory.ParseDate("21-09-2026")
	assert.Equal(t, want, rows[0].Expiry)
}

func TestFormatRowsPackagedMfgPlusMonths(t *testing.T) {
	ref := refTable(t, "name,shelf_life,storage\n")
	c := Classification{Success: true, Items: []Item{
		{Type: TypePackaged, Name: "Pickle", MfgDate: "14-09-2026", TimeRemaining: 3, TimeDenom: "m"},
	}}

	rows, err := FormatRows(c, ref, today, defaults)
	require.NoError(t, err)

	want, _ := inventory.ParseDate("14-12-2026")
	assert.Equal(t, want, rows[0].Expiry)
}

func TestFormatRowsPackagedNoDatesRejected(t *testing.T) {
	ref := refTable(t, "name,shelf_life,storage\n")
	c := Classification{Success: true, Items: []Item{
		{Type: TypePackaged, Name: "Mystery Tin"},
	}}

	_, err := FormatRows(c, ref, today, defaults)
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindMalformed))
}

func TestFormatRowsUnknownTypeRejected(t *testing.T) {
	ref := refTable(t, "name,shelf_life,storage\n")
	c := Classification{Success: true, Items: []Item{{Type: "beverage", Name: "Cola"}}}

	_, err := FormatRows(c, ref, today, defaults)
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindMalformed))
}

func TestMergePrunesBeforeAppend(t *testing.T) {
	dir := t.TempDir()
	store := inventory.NewStore(filepath.Join(dir, "inventory.csv"), nil)

	now := inventory.Today()
	require.NoError(t, store.Replace([]inventory.Row{
		{Name: "Stale", Expiry: now.AddDate(0, 0, -2), Status: inventory.StatusFlagged, Storage: inventory.StorageCounter},
		{Name: "Fresh", Expiry: now.AddDate(0, 0, 10), Status: inventory.StatusOpen, Storage: inventory.StorageFridge},
	}))

	svc := NewService(store, filepath.Join(dir, "absent-ref.csv"), defaults, nil)
	added, err := svc.Merge(context.Background(), Classification{
		Success: true,
		Items:   []Item{{Type: TypeGrocery, Name: "Banana"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	rows, err := store.Rows()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Fresh", rows[0].Name)
	assert.Equal(t, "Banana", rows[1].Name)
}

func TestMergeRejectsUnsuccessfulClassification(t *testing.T) {
	dir := t.TempDir()
	store := inventory.NewStore(filepath.Join(dir, "inventory.csv"), nil)
	svc := NewService(store, filepath.Join(dir, "absent-ref.csv"), defaults, nil)

	_, err := svc.Merge(context.Background(), Classification{Success: false, Error: "no food detected"})
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindMalformed))

	rows, err := store.Rows()
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestMergeMalformedItemWritesNothing(t *testing.T) {
	dir := t.TempDir()
	store := inventory.NewStore(filepath.Join(dir, "inventory.csv"), nil)

	now := inventory.Today()
	require.NoError(t, store.Replace([]inventory.Row{
		{Name: "Keep", Expiry: now.AddDate(0, 0, 5), Status: inventory.StatusOpen, Storage: inventory.StorageFridge},
	}))

	svc := NewService(store, filepath.Join(dir, "absent-ref.csv"), defaults, nil)
	_, err := svc.Merge(context.Background(), Classification{
		Success: true,
		Items: []Item{
			{Type: TypeGrocery, Name: "Banana"},
			{Type: TypePackaged, Name: "Mystery Tin"},
		},
	})
	require.Error(t, err)

	rows, err := store.Rows()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Keep", rows[0].Name)
}
