// Package intake turns classified food items into ledger rows and merges
// them onto the surviving rows of the existing table.
package intake

import (
	"context"
	"time"

	"go.uber.org/zap"

	"pantrypal/internal/core"
	"pantrypal/internal/inventory"
	"pantrypal/internal/policy"
)

// Item is one recognized food item from the image classifier.
type Item struct {
	Type string `json:"type"` // grocery or packaged
	Name string `json:"name"`
	// Packaged-item fields; dates use the DD-MM-YYYY wire format.
	ExpiryDate    string `json:"expiry_date,omitempty"`
	MfgDate       string `json:"mfg_date,omitempty"`
	TimeRemaining int    `json:"time_remaining,omitempty"`
	TimeDenom     string `json:"time_denom,omitempty"` // "d" for days, "m" for months
}

// Classification is the payload of the image-classification collaborator.
type Classification struct {
	Success         bool    `json:"success"`
	Items           []Item  `json:"items"`
	ConfidenceScore float64 `json:"confidence_score"`
	Error           string  `json:"error,omitempty"`
}

const (
	TypeGrocery  = "grocery"
	TypePackaged = "packaged"
)

// Defaults are the fallbacks for groceries absent from the reference table.
type Defaults struct {
	ShelfLifeDays int
	Storage       inventory.Storage
}

// FormatRows converts a classification into ledger rows.
//
// Groceries take their shelf life and storage from the reference table,
// falling back to the defaults when unknown. Packaged items use the printed
// expiry date when present, otherwise manufacture date plus remaining time
// (days or months per the denomination); packaged items carrying neither
// date are rejected as malformed rather than silently dropped. All new rows
// start open.
func FormatRows(c Classification, ref *inventory.ReferenceTable, today time.Time, defaults Defaults) ([]inventory.Row, error) {
	rows := make([]inventory.Row, 0, len(c.Items))
	for i, item := range c.Items {
		if item.Name == "" {
			return nil, core.Errorf(core.KindMalformed, "intake.format", "item %d has no name", i)
		}
		switch item.Type {
		case TypeGrocery:
			row := inventory.Row{
				Name:    item.Name,
				Expiry:  today.AddDate(0, 0, defaults.ShelfLifeDays),
				Status:  inventory.StatusOpen,
				Storage: defaults.Storage,
			}
			if entry, ok := ref.Lookup(item.Name); ok {
				row.Expiry = today.AddDate(0, 0, entry.ShelfLife)
				row.Storage = entry.Storage
			}
			rows = append(rows, row)

		case TypePackaged:
			expiry, err := packagedExpiry(item)
			if err != nil {
				return nil, err
			}
			rows = append(rows, inventory.Row{
				Name:    item.Name,
				Expiry:  expiry,
				Status:  inventory.StatusOpen,
				Storage: inventory.StorageFridge,
			})

		default:
			return nil, core.Errorf(core.KindMalformed, "intake.format",
				"item %q has unknown type %q", item.Name, item.Type)
		}
	}
	return rows, nil
}

func packagedExpiry(item Item) (time.Time, error) {
	if item.ExpiryDate != "" {
		expiry, err := inventory.ParseDate(item.ExpiryDate)
		if err != nil {
			return time.Time{}, core.Errorf(core.KindMalformed, "intake.format",
				"item %q: %v", item.Name, err)
		}
		return expiry, nil
	}
	if item.MfgDate != "" {
		mfg, err := inventory.ParseDate(item.MfgDate)
		if err != nil {
			return time.Time{}, core.Errorf(core.KindMalformed, "intake.format",
				"item %q: %v", item.Name, err)
		}
		switch item.TimeDenom {
		case "d":
			return mfg.AddDate(0, 0, item.TimeRemaining), nil
		case "m":
			return mfg.AddDate(0, item.TimeRemaining, 0), nil
		}
		return time.Time{}, core.Errorf(core.KindMalformed, "intake.format",
			"item %q has mfg date but invalid time denomination %q", item.Name, item.TimeDenom)
	}
	return time.Time{}, core.Errorf(core.KindMalformed, "intake.format",
		"item %q carries neither expiry nor manufacture date", item.Name)
}

// Service merges classified items into the ledger.
type Service struct {
	store    *inventory.Store
	refPath  string
	defaults Defaults
	logger   *zap.Logger
}

// NewService returns an intake service. The reference table is re-read from
// refPath on every merge so edits to the file take effect immediately.
func NewService(store *inventory.Store, refPath string, defaults Defaults, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, refPath: refPath, defaults: defaults, logger: logger}
}

// Merge prunes stale rows from the existing table, appends the freshly
// formatted rows in input order, and persists the concatenation as the full
// replacement table. Returns the number of rows added.
func (s *Service) Merge(ctx context.Context, c Classification) (int, error) {
	if !c.Success {
		return 0, core.Errorf(core.KindMalformed, "intake.merge",
			"classification unsuccessful: %s", c.Error)
	}

	ref, err := inventory.LoadReference(s.refPath)
	if err != nil {
		return 0, err
	}

	today := inventory.Today()
	newRows, err := FormatRows(c, ref, today, s.defaults)
	if err != nil {
		return 0, err
	}

	_, err = s.store.Mutate(func(existing []inventory.Row) ([]inventory.Row, error) {
		// Stale rows are cleared before every intake write so they never
		// linger into the next inventory read.
		kept := policy.PruneStale(existing, today)
		return append(kept, newRows...), nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("inventory merged",
		zap.Int("added", len(newRows)),
		zap.Float64("confidence", c.ConfidenceScore))
	return len(newRows), nil
}
