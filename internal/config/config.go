// Package config holds all PantryPal configuration. Thresholds, file paths,
// and API credentials live here and are passed into each component at
// construction; nothing reads them from ambient globals.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all PantryPal configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Inventory ledger and reference table files
	Inventory InventoryConfig `yaml:"inventory"`

	// Expiry policy thresholds
	Policy PolicyConfig `yaml:"policy"`

	// Weather forecast provider
	Weather WeatherConfig `yaml:"weather"`

	// Gemini API (image classification and donation lookup)
	Gemini GeminiConfig `yaml:"gemini"`

	// Donation lookup behaviour
	Donation DonationConfig `yaml:"donation"`

	// Twilio WhatsApp messaging
	Twilio TwilioConfig `yaml:"twilio"`

	// Webhook/upload HTTP server
	Server ServerConfig `yaml:"server"`

	// Daily spoilage pass schedule
	Schedule ScheduleConfig `yaml:"schedule"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// InventoryConfig locates the tabular ledger and the shelf-life reference table.
type InventoryConfig struct {
	LedgerPath    string `yaml:"ledger_path"`
	ReferencePath string `yaml:"reference_path"`
}

// PolicyConfig configures the expiry policy engine.
type PolicyConfig struct {
	// Rows expiring strictly sooner than this many days are flagged.
	HorizonDays int `yaml:"horizon_days"`
	// Days subtracted from counter-stored expiries under heat stress.
	HeatShiftDays int `yaml:"heat_shift_days"`
	// Average max temperature (Celsius) above which the heat shift runs.
	HeatThresholdC float64 `yaml:"heat_threshold_c"`
	// Fallback shelf life for groceries missing from the reference table.
	DefaultShelfLifeDays int `yaml:"default_shelf_life_days"`
}

// WeatherConfig configures the forecast provider.
type WeatherConfig struct {
	APIKey  string  `yaml:"api_key"`
	BaseURL string  `yaml:"base_url"`
	Lat     float64 `yaml:"lat"`
	Lon     float64 `yaml:"lon"`
	Timeout string  `yaml:"timeout"`
	// Number of 3-hour forecast entries averaged (16 ≈ 48 hours).
	WindowEntries int `yaml:"window_entries"`
}

// GeminiConfig configures the Gemini API clients.
type GeminiConfig struct {
	APIKey      string `yaml:"api_key"`
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	VisionModel string `yaml:"vision_model"`
	Timeout     string `yaml:"timeout"`
}

// DonationConfig configures donation-center lookup.
type DonationConfig struct {
	Location    string `yaml:"location"`
	MaxAttempts int    `yaml:"max_attempts"`
	Timeout     string `yaml:"timeout"`
}

// TwilioConfig configures WhatsApp message dispatch.
type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	BaseURL    string `yaml:"base_url"`
	FromNumber string `yaml:"from_number"`
	ToNumber   string `yaml:"to_number"`
	Timeout    string `yaml:"timeout"`
}

// ServerConfig configures the webhook HTTP server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// ScheduleConfig configures the daily spoilage pass.
type ScheduleConfig struct {
	// Local time of day, "HH:MM".
	At string `yaml:"at"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "pantrypal",
		Version: "1.0.0",

		Inventory: InventoryConfig{
			LedgerPath:    "data/inventory.csv",
			ReferencePath: "data/raw_food_db.csv",
		},

		Policy: PolicyConfig{
			HorizonDays:          3,
			HeatShiftDays:        1,
			HeatThresholdC:       20,
			DefaultShelfLifeDays: 2,
		},

		Weather: WeatherConfig{
			BaseURL:       "https://api.openweathermap.org/data/2.5/forecast",
			Lat:           22.5744,
			Lon:           88.3629,
			Timeout:       "30s",
			WindowEntries: 16,
		},

		Gemini: GeminiConfig{
			BaseURL:     "https://generativelanguage.googleapis.com/v1beta",
			Model:       "gemini-2.5-flash",
			VisionModel: "gemini-2.5-flash",
			Timeout:     "45s",
		},

		Donation: DonationConfig{
			Location:    "Dhakuria area of Kolkata in India",
			MaxAttempts: 3,
			Timeout:     "45s",
		},

		Twilio: TwilioConfig{
			BaseURL: "https://api.twilio.com",
			Timeout: "30s",
		},

		Server: ServerConfig{
			Addr: ":8080",
		},

		Schedule: ScheduleConfig{
			At: "11:00",
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides. Credentials in
// the environment always win over the file.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Gemini.APIKey = key
	}
	if key := os.Getenv("WEATHER_API_KEY"); key != "" {
		c.Weather.APIKey = key
	}
	if sid := os.Getenv("TWILIO_SID"); sid != "" {
		c.Twilio.AccountSID = sid
	}
	if token := os.Getenv("TWILIO_TOKEN"); token != "" {
		c.Twilio.AuthToken = token
	}
	if num := os.Getenv("TWILIO_NUMBER"); num != "" {
		c.Twilio.FromNumber = num
	}
	if num := os.Getenv("TO_NUMBER"); num != "" {
		c.Twilio.ToNumber = num
	}
	if path := os.Getenv("PANTRY_LEDGER"); path != "" {
		c.Inventory.LedgerPath = path
	}
}

// Validate checks required settings for the serve command.
func (c *Config) Validate() error {
	if c.Inventory.LedgerPath == "" {
		return fmt.Errorf("inventory.ledger_path is required")
	}
	if c.Policy.HorizonDays <= 0 {
		return fmt.Errorf("policy.horizon_days must be positive")
	}
	if c.Weather.WindowEntries <= 0 {
		return fmt.Errorf("weather.window_entries must be positive")
	}
	if c.Schedule.At != "" {
		if _, err := time.Parse("15:04", c.Schedule.At); err != nil {
			return fmt.Errorf("schedule.at must be HH:MM: %w", err)
		}
	}
	return nil
}

// GetWeatherTimeout returns the weather request timeout as a duration.
func (c *Config) GetWeatherTimeout() time.Duration {
	d, err := time.ParseDuration(c.Weather.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetGeminiTimeout returns the Gemini request timeout as a duration.
func (c *Config) GetGeminiTimeout() time.Duration {
	d, err := time.ParseDuration(c.Gemini.Timeout)
	if err != nil {
		return 45 * time.Second
	}
	return d
}

// GetDonationTimeout returns the donation lookup request timeout as a duration.
func (c *Config) GetDonationTimeout() time.Duration {
	d, err := time.ParseDuration(c.Donation.Timeout)
	if err != nil {
		return 45 * time.Second
	}
	return d
}

// GetTwilioTimeout returns the messaging request timeout as a duration.
func (c *Config) GetTwilioTimeout() time.Duration {
	d, err := time.ParseDuration(c.Twilio.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}
