// Package config centralises configuration parsing for the nearme client.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config captures runtime configuration values for the nearme client.
type Config struct {
	Foursquare FoursquareConfig `toml:"foursquare"`
	Store      StoreConfig      `toml:"store"`
	Kafka      KafkaConfig      `toml:"kafka"`
	Icons      IconConfig       `toml:"icons"`
	Location   LocationConfig   `toml:"location"`

	HTTPAddress   string        `toml:"http_address"`
	ProbeAddress  string        `toml:"probe_address"`
	ProbeInterval time.Duration `toml:"probe_interval"`
	FetchTimeout  time.Duration `toml:"fetch_timeout"`
}

// FoursquareConfig holds the places API credentials and fixed query values.
type FoursquareConfig struct {
	BaseURL      string `toml:"base_url"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	Version      string `toml:"version"` // YYYYMMDD
	Radius       int    `toml:"radius"`
	Limit        int    `toml:"limit"`
}

// StoreConfig selects and configures the venue store driver.
type StoreConfig struct {
	Driver      string `toml:"driver"` // "sqlite" or "postgres"
	SQLitePath  string `toml:"sqlite_path"`
	PostgresURL string `toml:"postgres_url"`
}

// KafkaConfig is optional; an empty broker list disables both the location
// feed consumer and the venue events producer.
type KafkaConfig struct {
	Brokers         []string `toml:"brokers"`
	LocationTopic   string   `toml:"location_topic"`
	LocationGroupID string   `toml:"location_group_id"`
	VenueTopic      string   `toml:"venue_topic"`
}

// IconConfig configures the optional object-store mirror behind the image cache.
type IconConfig struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	UseSSL    bool   `toml:"use_ssl"`
	Bucket    string `toml:"bucket"`
}

// LocationConfig configures the location provider.
type LocationConfig struct {
	Permission     string        `toml:"permission"` // undetermined, denied, restricted, authorized
	DistanceFilter float64       `toml:"distance_filter_meters"`
	Timeout        time.Duration `toml:"timeout"`
	FixedLatitude  *float64      `toml:"fixed_latitude"`
	FixedLongitude *float64      `toml:"fixed_longitude"`
}

// Defaults returns the values used when neither the config file nor the
// environment set a key.
func Defaults() Config {
	return Config{
		Foursquare: FoursquareConfig{
			BaseURL: "https://api.foursquare.com/v2/venues/search",
			Version: "20211119",
			Radius:  100,
			Limit:   5,
		},
		Store: StoreConfig{
			Driver:     "sqlite",
			SQLitePath: "nearme.db",
		},
		Kafka: KafkaConfig{
			LocationTopic:   "device-locations",
			LocationGroupID: "nearme",
			VenueTopic:      "venues-replaced",
		},
		Icons: IconConfig{
			Bucket: "venue-icons",
		},
		Location: LocationConfig{
			Permission:     "undetermined",
			DistanceFilter: 100,
			Timeout:        30 * time.Second,
		},
		HTTPAddress:   "127.0.0.1:8080",
		ProbeAddress:  "api.foursquare.com:443",
		ProbeInterval: 5 * time.Second,
		FetchTimeout:  15 * time.Second,
	}
}

// Load reads the optional TOML file named by NEARME_CONFIG, then applies
// environment overrides on top of it.
func Load() (Config, error) {
	cfg := Defaults()
	if path := getEnv("NEARME_CONFIG", ""); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) {
	fs := &cfg.Foursquare
	fs.BaseURL = getEnv("FOURSQUARE_BASE_URL", fs.BaseURL)
	fs.ClientID = getEnv("FOURSQUARE_CLIENT_ID", fs.ClientID)
	fs.ClientSecret = getEnv("FOURSQUARE_CLIENT_SECRET", fs.ClientSecret)
	fs.Version = getEnv("FOURSQUARE_API_VERSION", fs.Version)
	fs.Radius = getIntEnv("FOURSQUARE_RADIUS", fs.Radius)
	fs.Limit = getIntEnv("FOURSQUARE_LIMIT", fs.Limit)

	cfg.Store.Driver = getEnv("STORE_DRIVER", cfg.Store.Driver)
	cfg.Store.SQLitePath = getEnv("SQLITE_PATH", cfg.Store.SQLitePath)
	cfg.Store.PostgresURL = getEnv("POSTGRES_URL", cfg.Store.PostgresURL)

	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		cfg.Kafka.Brokers = splitAndTrim(brokers)
	}
	cfg.Kafka.LocationTopic = getEnv("LOCATION_TOPIC", cfg.Kafka.LocationTopic)
	cfg.Kafka.LocationGroupID = getEnv("LOCATION_GROUP_ID", cfg.Kafka.LocationGroupID)
	cfg.Kafka.VenueTopic = getEnv("VENUE_EVENTS_TOPIC", cfg.Kafka.VenueTopic)

	cfg.Icons.Endpoint = getEnv("MINIO_ENDPOINT", cfg.Icons.Endpoint)
	cfg.Icons.AccessKey = getEnv("MINIO_ACCESS_KEY", cfg.Icons.AccessKey)
	cfg.Icons.SecretKey = getEnv("MINIO_SECRET_KEY", cfg.Icons.SecretKey)
	cfg.Icons.UseSSL = getBoolEnv("MINIO_USE_SSL", cfg.Icons.UseSSL)
	cfg.Icons.Bucket = getEnv("MINIO_ICON_BUCKET", cfg.Icons.Bucket)

	loc := &cfg.Location
	loc.Permission = getEnv("LOCATION_PERMISSION", loc.Permission)
	loc.DistanceFilter = getFloatEnv("DISTANCE_FILTER_METERS", loc.DistanceFilter)
	loc.Timeout = getDurationEnv("LOCATION_TIMEOUT", loc.Timeout)
	if v, ok := lookupFloat("FIXED_LATITUDE"); ok {
		loc.FixedLatitude = &v
	}
	if v, ok := lookupFloat("FIXED_LONGITUDE"); ok {
		loc.FixedLongitude = &v
	}

	cfg.HTTPAddress = getEnv("HTTP_ADDRESS", cfg.HTTPAddress)
	cfg.ProbeAddress = getEnv("PROBE_ADDRESS", cfg.ProbeAddress)
	cfg.ProbeInterval = getDurationEnv("PROBE_INTERVAL", cfg.ProbeInterval)
	cfg.FetchTimeout = getDurationEnv("FETCH_TIMEOUT", cfg.FetchTimeout)
}

// Validate rejects configurations the client cannot run with.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("store driver sqlite requires SQLITE_PATH")
		}
	case "postgres":
		if c.Store.PostgresURL == "" {
			return fmt.Errorf("store driver postgres requires POSTGRES_URL")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Foursquare.Limit <= 0 {
		return fmt.Errorf("foursquare limit must be positive, got %d", c.Foursquare.Limit)
	}
	if (c.Location.FixedLatitude == nil) != (c.Location.FixedLongitude == nil) {
		return fmt.Errorf("FIXED_LATITUDE and FIXED_LONGITUDE must be set together")
	}
	return nil
}

// KafkaEnabled reports whether brokers are configured.
func (c Config) KafkaEnabled() bool { return len(c.Kafka.Brokers) > 0 }

// IconMirrorEnabled reports whether the object-store icon mirror is configured.
func (c Config) IconMirrorEnabled() bool {
	return c.Icons.Endpoint != "" && c.Icons.AccessKey != "" && c.Icons.SecretKey != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	if v, ok := lookupFloat(key); ok {
		return v
	}
	return fallback
}

func lookupFloat(key string) (float64, bool) {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed, true
		}
	}
	return 0, false
}

func getBoolEnv(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
