package inventory

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"pantrypal/internal/core"
)

var header = []string{"name", "expiry_dt", "status", "storage"}

// Store serializes all access to the ledger file. Every mutation reads the
// full table, applies a transform, and rewrites the file wholesale; the
// mutex keeps a scheduled spoilage pass from racing an image upload.
type Store struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

// NewStore returns a store backed by the CSV file at path.
func NewStore(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{path: path, logger: logger}
}

// Path returns the ledger file path.
func (s *Store) Path() string { return s.path }

// Rows loads the full table. A missing file is an empty table; any row that
// fails to parse fails the whole read.
func (s *Store) Rows() ([]Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Mutate atomically applies transform to the full table and persists the
// result. If transform returns an error nothing is written.
func (s *Store) Mutate(transform func([]Row) ([]Row, error)) ([]Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.load()
	if err != nil {
		return nil, err
	}

	updated, err := transform(rows)
	if err != nil {
		return nil, err
	}

	if err := s.write(updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Append atomically appends rows to the end of the table, preserving the
// existing row order.
func (s *Store) Append(rows []Row) ([]Row, error) {
	return s.Mutate(func(existing []Row) ([]Row, error) {
		return append(existing, rows...), nil
	})
}

// Replace atomically overwrites the table with rows.
func (s *Store) Replace(rows []Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(rows)
}

func (s *Store) load() ([]Row, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, core.E(core.KindIO, "inventory.read", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, core.E(core.KindIO, "inventory.read", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	// Dates are parsed for every record before any caller sees the table,
	// so a corrupt row aborts the operation with no rows changed.
	rows := make([]Row, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) != len(header) {
			return nil, core.Errorf(core.KindIO, "inventory.read",
				"row %d: expected %d columns, got %d", i+1, len(header), len(rec))
		}
		expiry, err := ParseDate(rec[1])
		if err != nil {
			return nil, core.Errorf(core.KindIO, "inventory.read", "row %d: %v", i+1, err)
		}
		status, err := parseStatus(rec[2])
		if err != nil {
			return nil, core.Errorf(core.KindIO, "inventory.read", "row %d: %v", i+1, err)
		}
		storage, err := parseStorage(rec[3])
		if err != nil {
			return nil, core.Errorf(core.KindIO, "inventory.read", "row %d: %v", i+1, err)
		}
		rows = append(rows, Row{Name: rec[0], Expiry: expiry, Status: status, Storage: storage})
	}
	return rows, nil
}

// write rewrites the ledger via a temp file and rename so a crash mid-write
// never leaves a truncated table.
func (s *Store) write(rows []Row) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return core.E(core.KindIO, "inventory.write", err)
	}

	tmp, err := os.CreateTemp(dir, ".inventory-*.csv")
	if err != nil {
		return core.E(core.KindIO, "inventory.write", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	writer := csv.NewWriter(tmp)
	if err := writer.Write(header); err != nil {
		tmp.Close()
		return core.E(core.KindIO, "inventory.write", err)
	}
	for _, r := range rows {
		rec := []string{r.Name, r.ExpiryString(), string(r.Status), string(r.Storage)}
		if err := writer.Write(rec); err != nil {
			tmp.Close()
			return core.E(core.KindIO, "inventory.write", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		return core.E(core.KindIO, "inventory.write", err)
	}
	if err := tmp.Close(); err != nil {
		return core.E(core.KindIO, "inventory.write", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return core.E(core.KindIO, "inventory.write", err)
	}

	s.logger.Debug("ledger rewritten",
		zap.String("path", s.path),
		zap.Int("rows", len(rows)))
	return nil
}

// FlaggedNames returns the names of all currently flagged rows in table
// order, duplicates included.
func (s *Store) FlaggedNames() ([]string, error) {
	rows, err := s.Rows()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, r := range rows {
		if r.Status == StatusFlagged {
			names = append(names, r.Name)
		}
	}
	return names, nil
}
