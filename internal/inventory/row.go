// Package inventory implements the pantry ledger: a flat CSV table of food
// items with expiry dates, read and rewritten wholesale behind a
// single-writer accessor.
package inventory

import (
	"fmt"
	"time"
)

// DateLayout is the fixed DD-MM-YYYY wire format for expiry dates.
const DateLayout = "02-01-2006"

// Status marks whether a row has been flagged as nearing expiry.
type Status string

const (
	StatusOpen    Status = "open"
	StatusFlagged Status = "flagged"
)

// Storage determines susceptibility to heat-driven expiry shortening.
// Only counter-stored items are affected; refrigeration is assumed to
// neutralize ambient heat.
type Storage string

const (
	StorageCounter Storage = "counter"
	StorageFridge  Storage = "fridge"
)

// Row is one physical batch of a food item. Duplicate names are legal and
// represent distinct batches.
type Row struct {
	Name    string
	Expiry  time.Time
	Status  Status
	Storage Storage
}

// ExpiryString renders the expiry date in the fixed wire format.
func (r Row) ExpiryString() string {
	return r.Expiry.Format(DateLayout)
}

// ParseDate parses a DD-MM-YYYY date string as local midnight, matching
// Today so day arithmetic between stored and current dates stays whole.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// Today returns the current date truncated to midnight in local time.
// All day arithmetic in the policy engine works on midnight-normalized
// dates so that the horizon boundary is exact.
func Today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func parseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusOpen, StatusFlagged:
		return Status(s), nil
	}
	return "", fmt.Errorf("invalid status %q", s)
}

func parseStorage(s string) (Storage, error) {
	switch Storage(s) {
	case StorageCounter, StorageFridge:
		return Storage(s), nil
	}
	return "", fmt.Errorf("invalid storage %q", s)
}
