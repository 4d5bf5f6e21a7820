// Package policy implements the expiry policy engine: heat-driven expiry
// shifting, near-expiry flagging, and stale-row pruning over the loaded
// ledger, plus the weather-gated spoilage orchestration.
package policy

import (
	"math"
	"time"

	"pantrypal/internal/inventory"
)

// DaysUntil returns the number of whole days from today until expiry.
// Both dates are expected midnight-normalized; rounding absorbs the odd
// 23- or 25-hour day around DST transitions.
func DaysUntil(expiry, today time.Time) int {
	return int(math.Round(expiry.Sub(today).Hours() / 24))
}

// ShiftExpiryForHeat subtracts days from the expiry of every counter-stored
// row. Fridge rows are untouched. Returns a new slice; input order is
// preserved.
func ShiftExpiryForHeat(rows []inventory.Row, days int) []inventory.Row {
	shifted := make([]inventory.Row, len(rows))
	for i, r := range rows {
		if r.Storage == inventory.StorageCounter {
			r.Expiry = r.Expiry.AddDate(0, 0, -days)
		}
		shifted[i] = r
	}
	return shifted
}

// FlagExpiring marks every row expiring strictly sooner than horizonDays as
// flagged. A row exactly at the horizon is not flagged. Returns the updated
// rows and the names of affected rows in table order, duplicates included;
// an empty name list means no update was needed.
func FlagExpiring(rows []inventory.Row, today time.Time, horizonDays int) ([]inventory.Row, []string) {
	updated := make([]inventory.Row, len(rows))
	var flagged []string
	for i, r := range rows {
		if DaysUntil(r.Expiry, today) < horizonDays {
			if r.Status != inventory.StatusFlagged {
				r.Status = inventory.StatusFlagged
			}
			flagged = append(flagged, r.Name)
		}
		updated[i] = r
	}
	return updated, flagged
}

// PruneStale removes rows that are both flagged and strictly past expiry.
// A freshly flagged but not-yet-expired row survives, so the alert and the
// eventual removal stay decoupled. Relative order of survivors is preserved.
func PruneStale(rows []inventory.Row, today time.Time) []inventory.Row {
	kept := make([]inventory.Row, 0, len(rows))
	for _, r := range rows {
		if r.Status == inventory.StatusFlagged && r.Expiry.Before(today) {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}
