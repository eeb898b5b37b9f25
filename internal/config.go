package internal

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Errors reported during config validation. Any of these is fatal at startup.
var (
	ErrMissingDistanceKey = errors.New("precise distance lookups enabled but no distance API key configured")
	ErrMissingLocationURL = errors.New("precise distance lookups enabled but no location service URL configured")
	ErrBadAlertHours      = errors.New("alert hour window is invalid")
	ErrBadRefreshInterval = errors.New("refresh interval must be positive")
)

// Config holds all sightwatch configuration. It is built once at startup and
// passed by reference; nothing mutates it afterwards.
type Config struct {
	RefreshInterval   time.Duration `yaml:"refresh_interval"`
	NearbyRadiusMiles float64       `yaml:"nearby_radius_miles"`
	DBPath            string        `yaml:"db_path"`
	ListenAddr        string        `yaml:"listen_addr"`
	StaticMapPath     string        `yaml:"static_map_path"`
	LocationURL       string        `yaml:"location_url"`
	DistanceURL       string        `yaml:"distance_url"`
	StaticMapURL      string        `yaml:"static_map_url"`
	EnablePrecise     bool          `yaml:"enable_precise"`
	EnableAlerts      bool          `yaml:"enable_alerts"`

	Alerts AlertConfig `yaml:"alerts"`
	Lists  ListConfig  `yaml:"lists"`

	// Secrets, loaded from the environment rather than the config file.
	DistanceAPIKey  string `yaml:"-"`
	StaticMapAPIKey string `yaml:"-"`
	LocationToken   string `yaml:"-"`
}

// AlertConfig controls when an admitted sighting triggers an outbound alert.
type AlertConfig struct {
	CriticalMaxDistance float64 `yaml:"critical_max_distance"`
	NotableMaxDistance  float64 `yaml:"notable_max_distance"`
	AlwaysMaxDistance   float64 `yaml:"always_max_distance"`
	EarlyHour           int     `yaml:"early_hour"` // military time, inclusive
	LateHour            int     `yaml:"late_hour"`  // military time, inclusive
}

// ListConfig holds the subject watch lists. Names are case-insensitive; the
// loader lowercases everything so sloppy capitalization doesn't matter.
type ListConfig struct {
	AlwaysAlert     []string `yaml:"always_alert"`      // alert at any hour, within range
	AlwaysIfNotable []string `yaml:"always_if_notable"` // alert at any hour, but only if notable
	NotableOnly     []string `yaml:"notable_only"`      // alert during normal hours, only if notable
	Critical        []string `yaml:"critical"`          // alert during normal hours, highlighted
	NoAlert         []string `yaml:"no_alert"`          // track but never alert
}

func (c *Config) defaults() {
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = 30 * time.Second
	}
	if c.NearbyRadiusMiles <= 0 {
		c.NearbyRadiusMiles = 1.0
	}
	if c.DBPath == "" {
		c.DBPath = "sightwatch.db"
	}
	if c.ListenAddr == "" {
		c.ListenAddr = ":9432"
	}
	if c.StaticMapPath == "" {
		c.StaticMapPath = "current.png"
	}
	if c.DistanceURL == "" {
		c.DistanceURL = "https://maps.googleapis.com/maps/api/distancematrix/json"
	}
	if c.StaticMapURL == "" {
		c.StaticMapURL = "https://maps.googleapis.com/maps/api/staticmap"
	}
	if c.Alerts.CriticalMaxDistance <= 0 {
		c.Alerts.CriticalMaxDistance = 2 // miles as the crow flies
	}
	if c.Alerts.NotableMaxDistance <= 0 {
		c.Alerts.NotableMaxDistance = 3
	}
	if c.Alerts.AlwaysMaxDistance <= 0 {
		c.Alerts.AlwaysMaxDistance = 4
	}
	if c.Alerts.EarlyHour == 0 && c.Alerts.LateHour == 0 {
		c.Alerts.EarlyHour = 9
		c.Alerts.LateHour = 23
	}
	if len(c.Lists.AlwaysAlert) == 0 &&
		len(c.Lists.AlwaysIfNotable) == 0 &&
		len(c.Lists.NotableOnly) == 0 &&
		len(c.Lists.Critical) == 0 &&
		len(c.Lists.NoAlert) == 0 {
		c.Lists = defaultLists()
	}
}

func defaultLists() ListConfig {
	return ListConfig{
		AlwaysAlert:     []string{"gyrados", "muk"},
		AlwaysIfNotable: []string{"dragonite", "lapras", "venasaur", "dratini", "dragonair"},
		NotableOnly:     []string{"oddish", "gloom", "slowpoke"},
		Critical:        []string{"snorlax", "dragonite", "lapras", "venasaur", "slowbro", "grimer"},
		NoAlert: []string{
			"charmander", "slowpoke", "squirtle", "bulbasaur", "poliwag",
			"magikarp", "victreebel", "machamp", "vileplume",
		},
	}
}

// Validate reports configuration problems that must stop startup.
func (c *Config) Validate() error {
	if c.RefreshInterval <= 0 {
		return ErrBadRefreshInterval
	}
	if c.Alerts.EarlyHour < 0 || c.Alerts.LateHour > 23 || c.Alerts.EarlyHour > c.Alerts.LateHour {
		return fmt.Errorf("%w: [%d, %d]", ErrBadAlertHours, c.Alerts.EarlyHour, c.Alerts.LateHour)
	}
	if c.EnablePrecise {
		if c.DistanceAPIKey == "" {
			return ErrMissingDistanceKey
		}
		if c.LocationURL == "" {
			return ErrMissingLocationURL
		}
	}
	return nil
}

// LoadConfig reads the YAML config file at path and overlays secrets from the
// environment. A missing file is not an error; defaults apply.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("loadConfig: failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Run entirely on defaults and environment.
	default:
		return nil, fmt.Errorf("loadConfig: failed to read %s: %w", path, err)
	}

	cfg.defaults()

	// A .env file is optional; real environments set the variables directly.
	_ = godotenv.Load()
	cfg.DistanceAPIKey = os.Getenv("SIGHTWATCH_DISTANCE_API_KEY")
	cfg.StaticMapAPIKey = os.Getenv("SIGHTWATCH_STATICMAP_API_KEY")
	cfg.LocationToken = os.Getenv("SIGHTWATCH_LOCATION_TOKEN")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
