package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the single run-configuration object. It is built once in
// main and passed by pointer into every component; nothing reads the
// environment after Load returns.
type Config struct {
	// Data locations
	DataDir string `yaml:"data_dir" validate:"required"`

	// Scope
	CityFilter string `yaml:"city_filter" validate:"required"`
	WardFilter string `yaml:"ward_filter"`

	// Reconciliation behavior
	StrictAddressCheck bool `yaml:"strict_address_check"`
	OnlyBadRows        bool `yaml:"only_bad_rows"`
	MaxUpdates         int  `yaml:"max_updates" validate:"gte=1"`

	// Per-field overwrite toggles. Off means fill-blank-only, which is
	// what keeps re-runs safe against hand-edited registry values.
	OverwritePhone       bool `yaml:"overwrite_phone"`
	OverwriteWebsite     bool `yaml:"overwrite_website"`
	OverwriteMapURL      bool `yaml:"overwrite_map_url"`
	OverwriteStation     bool `yaml:"overwrite_station"`
	OverwriteWalkMinutes bool `yaml:"overwrite_walk_minutes"`

	// Station search
	FillNearestStation   bool `yaml:"fill_nearest_station"`
	NearbyRadiusM        int  `yaml:"nearby_radius_m" validate:"gte=100,lte=10000"`
	StationSeedLimit     int  `yaml:"station_seed_limit" validate:"gte=1"`
	ForceRebuildStations bool `yaml:"force_rebuild_stations"`

	// Walk estimation fallback
	WalkSpeedMPerMin float64 `yaml:"walk_speed_m_per_min" validate:"gt=0"`

	// External services
	GoogleAPIKey     string        `yaml:"google_api_key"`
	NominatimEmail   string        `yaml:"nominatim_email"`
	NominatimBaseURL string        `yaml:"nominatim_base_url"`
	PlacesBaseURL    string        `yaml:"places_base_url"`
	APISleep         time.Duration `yaml:"api_sleep"`
	RetryAttempts    int           `yaml:"retry_attempts" validate:"gte=1,lte=10"`

	// Backfill
	MonthsBack    int  `yaml:"months_back" validate:"gte=1,lte=120"`
	ForceBackfill bool `yaml:"force_backfill"`
	ApplyMaster   bool `yaml:"apply_master"`

	// Kana
	KanaOverwrite bool `yaml:"kana_overwrite"`

	// Seeding
	SeedMonth string `yaml:"seed_month"`
}

// Load builds the configuration from environment variables, optionally
// overlaid by a YAML file (the file wins where it sets a value).
// Pass "" to skip the file.
func Load(path string) (*Config, error) {
	cfg := &Config{
		DataDir:              getEnv("DATA_DIR", "data"),
		CityFilter:           getEnv("CITY_FILTER", "横浜市"),
		WardFilter:           getEnv("WARD_FILTER", ""),
		StrictAddressCheck:   getEnvBool("STRICT_ADDRESS_CHECK", true),
		OnlyBadRows:          getEnvBool("ONLY_BAD_ROWS", false),
		MaxUpdates:           getEnvInt("MAX_UPDATES", 200),
		OverwritePhone:       getEnvBool("OVERWRITE_PHONE", false),
		OverwriteWebsite:     getEnvBool("OVERWRITE_WEBSITE", false),
		OverwriteMapURL:      getEnvBool("OVERWRITE_MAP_URL", false),
		OverwriteStation:     getEnvBool("OVERWRITE_NEAREST_STATION", false),
		OverwriteWalkMinutes: getEnvBool("OVERWRITE_WALK_MINUTES", false),
		FillNearestStation:   getEnvBool("FILL_NEAREST_STATION", true),
		NearbyRadiusM:        getEnvInt("NEARBY_RADIUS_M", 2500),
		StationSeedLimit:     getEnvInt("STATION_SEED_LIMIT", 180),
		ForceRebuildStations: getEnvBool("FORCE_REBUILD_STATIONS", false),
		WalkSpeedMPerMin:     getEnvFloat("WALK_SPEED_M_PER_MIN", 80),
		GoogleAPIKey:         getEnv("GOOGLE_MAPS_API_KEY", ""),
		NominatimEmail:       getEnv("NOMINATIM_EMAIL", ""),
		NominatimBaseURL:     getEnv("NOMINATIM_BASE_URL", ""),
		PlacesBaseURL:        getEnv("PLACES_BASE_URL", ""),
		APISleep:             getEnvDuration("API_SLEEP", 150*time.Millisecond),
		RetryAttempts:        getEnvInt("RETRY_ATTEMPTS", 5),
		MonthsBack:           getEnvInt("MONTHS_BACK", 24),
		ForceBackfill:        getEnvBool("FORCE_BACKFILL", false),
		ApplyMaster:          getEnvBool("APPLY_MASTER", true),
		KanaOverwrite:        getEnvBool("KANA_OVERWRITE", false),
		SeedMonth:            getEnv("SEED_MONTH", ""),
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		log.Printf("[Config] loaded %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Data file locations, all under DataDir.

func (c *Config) RegistryPath() string     { return filepath.Join(c.DataDir, "master_facilities.csv") }
func (c *Config) StationCachePath() string { return filepath.Join(c.DataDir, "stations_cache.json") }
func (c *Config) GeocodeCachePath() string { return filepath.Join(c.DataDir, "geocode_cache.json") }
func (c *Config) LedgerPath() string       { return filepath.Join(c.DataDir, "lookup_history.db") }

// MissPath returns the audit CSV for a provider's run.
func (c *Config) MissPath(provider string) string {
	if provider == "nominatim" {
		return filepath.Join(c.DataDir, "geocode_misses.csv")
	}
	return filepath.Join(c.DataDir, "station_misses.csv")
}

// Validate checks the structural constraints once at startup.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("[Config] invalid int for %s, using %d", key, fallback)
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("[Config] invalid float for %s, using %v", key, fallback)
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "1" || v == "true"
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("[Config] invalid duration for %s, using %v", key, fallback)
	}
	return fallback
}
