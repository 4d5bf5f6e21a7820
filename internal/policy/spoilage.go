package policy

import (
	"context"

	"go.uber.org/zap"

	"pantrypal/internal/inventory"
)

// WeatherSource reduces a forecast to the average max temperature in
// Celsius over the advisory window.
type WeatherSource interface {
	AverageMaxTemp(ctx context.Context) (float64, error)
}

// Config carries the engine thresholds.
type Config struct {
	// HorizonDays: rows expiring strictly sooner than this are flagged.
	HorizonDays int
	// HeatShiftDays: days subtracted from counter expiries under heat.
	HeatShiftDays int
	// HeatThresholdC: average max temperature gating the heat shift.
	HeatThresholdC float64
}

// Report is the outcome of a spoilage pass.
type Report struct {
	// Updated reports whether the ledger was mutated.
	Updated bool
	// AvgMaxTempC is the weather signal the decision was based on.
	AvgMaxTempC float64
	// FlaggedNames lists items now within the expiry horizon, in table
	// order, duplicates included.
	FlaggedNames []string
}

// Engine runs the weather-gated spoilage pass against the ledger store.
type Engine struct {
	store   *inventory.Store
	weather WeatherSource
	cfg     Config
	logger  *zap.Logger
}

// NewEngine returns a spoilage engine.
func NewEngine(store *inventory.Store, weather WeatherSource, cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: store, weather: weather, cfg: cfg, logger: logger}
}

// CheckSpoilage fetches the weather signal and, when the average max
// temperature exceeds the threshold, shifts counter expiries earlier and
// flags rows inside the horizon. Below the threshold nothing is mutated.
// The shift and flag run inside one store mutation so a concurrent intake
// cannot interleave between them.
func (e *Engine) CheckSpoilage(ctx context.Context) (*Report, error) {
	avg, err := e.weather.AverageMaxTemp(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{AvgMaxTempC: avg}
	if avg <= e.cfg.HeatThresholdC {
		e.logger.Info("no inventory update needed",
			zap.Float64("avg_max_temp_c", avg),
			zap.Float64("threshold_c", e.cfg.HeatThresholdC))
		return report, nil
	}

	today := inventory.Today()
	_, err = e.store.Mutate(func(rows []inventory.Row) ([]inventory.Row, error) {
		shifted := ShiftExpiryForHeat(rows, e.cfg.HeatShiftDays)
		flagged, names := FlagExpiring(shifted, today, e.cfg.HorizonDays)
		report.FlaggedNames = names
		return flagged, nil
	})
	if err != nil {
		return nil, err
	}
	report.Updated = true

	e.logger.Info("spoilage pass updated inventory",
		zap.Float64("avg_max_temp_c", avg),
		zap.Int("heat_shift_days", e.cfg.HeatShiftDays),
		zap.Strings("flagged", report.FlaggedNames))
	return report, nil
}

// FlagExpiringNow runs a flagging pass without the weather gate, used by
// the manual update trigger. Returns the affected names; an empty list with
// a nil error means no update was needed.
func (e *Engine) FlagExpiringNow(ctx context.Context) ([]string, error) {
	today := inventory.Today()
	var names []string
	_, err := e.store.Mutate(func(rows []inventory.Row) ([]inventory.Row, error) {
		updated, flagged := FlagExpiring(rows, today, e.cfg.HorizonDays)
		names = flagged
		return updated, nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}
