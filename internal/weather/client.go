// Package weather fetches a multi-day forecast and reduces it to a single
// average-max-temperature signal for the spoilage pass.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"pantrypal/internal/core"
)

const kelvinOffset = 273.15

// Entry is one 3-hour forecast interval.
type Entry struct {
	Main struct {
		// TempMax is in Kelvin, as delivered by the provider.
		TempMax float64 `json:"temp_max"`
	} `json:"main"`
}

// Forecast is the raw forecast payload.
type Forecast struct {
	List []Entry `json:"list"`
}

// Config configures the forecast client.
type Config struct {
	BaseURL string
	APIKey  string
	Lat     float64
	Lon     float64
	Timeout time.Duration
	// WindowEntries is how many leading entries the average covers.
	// 16 three-hour entries ≈ 48 hours; kept configurable because the
	// provider's interval is not under our control.
	WindowEntries int
}

// Client fetches forecasts over HTTP.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient returns a forecast client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Forecast performs a single GET against the forecast endpoint. A non-200
// response or transport error is a structured external failure.
func (c *Client) Forecast(ctx context.Context) (*Forecast, error) {
	url := fmt.Sprintf("%s?lat=%g&lon=%g&appid=%s", c.cfg.BaseURL, c.cfg.Lat, c.cfg.Lon, c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, core.E(core.KindExternal, "weather.fetch", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, core.E(core.KindExternal, "weather.fetch", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, core.Errorf(core.KindExternal, "weather.fetch",
			"forecast request failed with status %d: %s", resp.StatusCode, body)
	}

	var forecast Forecast
	if err := json.NewDecoder(resp.Body).Decode(&forecast); err != nil {
		return nil, core.E(core.KindExternal, "weather.fetch", err)
	}

	c.logger.Debug("forecast fetched", zap.Int("entries", len(forecast.List)))
	return &forecast, nil
}

// AverageMaxTemp converts the first window entries from Kelvin to Celsius
// and returns the arithmetic mean. Errors on an empty window.
func AverageMaxTemp(f *Forecast, window int) (float64, error) {
	entries := f.List
	if window > 0 && len(entries) > window {
		entries = entries[:window]
	}
	if len(entries) == 0 {
		return 0, core.Errorf(core.KindExternal, "weather.average", "forecast contains no entries")
	}

	var sum float64
	for _, e := range entries {
		sum += e.Main.TempMax - kelvinOffset
	}
	return sum / float64(len(entries)), nil
}

// AverageMaxTemp fetches a forecast and reduces it to the average max
// temperature over the configured window.
func (c *Client) AverageMaxTemp(ctx context.Context) (float64, error) {
	forecast, err := c.Forecast(ctx)
	if err != nil {
		return 0, err
	}
	return AverageMaxTemp(forecast, c.cfg.WindowEntries)
}
