package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for HASS Bridge Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	HomeAssistant HomeAssistantConfig `yaml:"home_assistant"`
	Cache         CacheConfig         `yaml:"cache"`
	Suggest       SuggestConfig       `yaml:"suggest"`
	Sessions      SessionConfig       `yaml:"sessions"`
	Icons         IconsConfig         `yaml:"icons"`
	Database      DatabaseConfig      `yaml:"database"`
	API           APIConfig           `yaml:"api"`
	MQTT          MQTTConfig          `yaml:"mqtt"`
	InfluxDB      InfluxDBConfig      `yaml:"influxdb"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// HomeAssistantConfig contains connection settings for the Home Assistant instance.
type HomeAssistantConfig struct {
	// URL is the base URL of the Home Assistant instance (e.g. "http://homeassistant.local:8123").
	URL string `yaml:"url"`

	// Token is a long-lived access token with permission to read registries
	// and call services.
	Token string `yaml:"token"`

	// RequestTimeout bounds individual REST and WebSocket round trips.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// CacheConfig contains snapshot cache settings for Home Assistant collections.
type CacheConfig struct {
	// TTL is how long a fetched collection snapshot stays valid.
	TTL time.Duration `yaml:"ttl"`

	// Capacity bounds the number of cached collections.
	Capacity int `yaml:"capacity"`
}

// SuggestConfig contains ranked suggestion settings.
type SuggestConfig struct {
	// MaxChoices caps the number of returned suggestions per query.
	MaxChoices int `yaml:"max_choices"`

	// Tolerance keeps only suggestions scoring within this fraction of the
	// top score (0.2 keeps scores >= top * 0.8).
	Tolerance float64 `yaml:"tolerance"`
}

// SessionConfig contains multi-value selection session settings.
type SessionConfig struct {
	// Capacity bounds the number of live sessions.
	Capacity int `yaml:"capacity"`

	// TTL is how long an abandoned session stays resolvable.
	TTL time.Duration `yaml:"ttl"`
}

// IconsConfig points at a local Material Design icon metadata dump. An empty
// path disables icon suggestions.
type IconsConfig struct {
	Path string `yaml:"path"`
}

// DatabaseConfig contains SQLite settings for the command usage audit log.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// APIConfig contains the operational HTTP API settings.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`

	// JWTSecret signs and verifies bearer tokens for the API.
	JWTSecret string `yaml:"jwt_secret"`

	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// MQTTConfig contains optional status announcer settings.
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	TLS         bool   `yaml:"tls"`
	ClientID    string `yaml:"client_id"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         int    `yaml:"qos"`
}

// InfluxDBConfig contains optional usage-metrics recorder settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: HASSBRIDGE_SECTION_KEY
// For example: HASSBRIDGE_HOMEASSISTANT_TOKEN, HASSBRIDGE_API_PORT
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		HomeAssistant: HomeAssistantConfig{
			URL:            "http://homeassistant.local:8123",
			RequestTimeout: 10 * time.Second,
		},
		Cache: CacheConfig{
			TTL:      15 * time.Minute,
			Capacity: 100,
		},
		Suggest: SuggestConfig{
			MaxChoices: 25,
			Tolerance:  0.2,
		},
		Sessions: SessionConfig{
			Capacity: 256,
			TTL:      15 * time.Minute,
		},
		Database: DatabaseConfig{
			Path:        "data/hassbridge.db",
			WALMode:     true,
			BusyTimeout: 5000,
		},
		API: APIConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    8090,
			Timeouts: APITimeoutConfig{
				Read:  15,
				Write: 15,
				Idle:  60,
			},
		},
		MQTT: MQTTConfig{
			Port:        1883,
			ClientID:    "hassbridge-core",
			TopicPrefix: "hassbridge",
			QoS:         1,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// Validate checks the configuration for missing or inconsistent values.
//
// Returns:
//   - error: Description of the first invalid field found, or nil
func (c *Config) Validate() error {
	if c.HomeAssistant.URL == "" {
		return fmt.Errorf("home_assistant.url is required")
	}
	if c.HomeAssistant.Token == "" {
		return fmt.Errorf("home_assistant.token is required")
	}
	if c.HomeAssistant.RequestTimeout <= 0 {
		return fmt.Errorf("home_assistant.request_timeout must be positive")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	if c.Cache.Capacity <= 0 {
		return fmt.Errorf("cache.capacity must be positive")
	}
	if c.Suggest.MaxChoices <= 0 {
		return fmt.Errorf("suggest.max_choices must be positive")
	}
	if c.Suggest.Tolerance < 0 || c.Suggest.Tolerance > 1 {
		return fmt.Errorf("suggest.tolerance must be within [0, 1]")
	}
	if c.Sessions.Capacity <= 0 {
		return fmt.Errorf("sessions.capacity must be positive")
	}
	if c.Sessions.TTL <= 0 {
		return fmt.Errorf("sessions.ttl must be positive")
	}
	if c.API.Enabled {
		if c.API.Port <= 0 || c.API.Port > 65535 {
			return fmt.Errorf("api.port must be within (0, 65535]")
		}
		if c.API.JWTSecret == "" {
			return fmt.Errorf("api.jwt_secret is required when the API is enabled")
		}
	}
	if c.MQTT.Enabled {
		if c.MQTT.Host == "" {
			return fmt.Errorf("mqtt.host is required when MQTT is enabled")
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			return fmt.Errorf("mqtt.qos must be 0, 1 or 2")
		}
	}
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			return fmt.Errorf("influxdb.url is required when InfluxDB is enabled")
		}
		if c.InfluxDB.Token == "" {
			return fmt.Errorf("influxdb.token is required when InfluxDB is enabled")
		}
	}
	return nil
}

// applyEnvOverrides overrides configuration values from environment variables.
// Only the values operators commonly need to inject (secrets, endpoints) are
// overridable; structural settings stay in the file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HASSBRIDGE_HOMEASSISTANT_URL"); v != "" {
		cfg.HomeAssistant.URL = v
	}
	if v := os.Getenv("HASSBRIDGE_HOMEASSISTANT_TOKEN"); v != "" {
		cfg.HomeAssistant.Token = v
	}
	if v := os.Getenv("HASSBRIDGE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("HASSBRIDGE_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("HASSBRIDGE_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}
	if v := os.Getenv("HASSBRIDGE_API_JWT_SECRET"); v != "" {
		cfg.API.JWTSecret = v
	}
	if v := os.Getenv("HASSBRIDGE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Password = v
	}
	if v := os.Getenv("HASSBRIDGE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
	if v := os.Getenv("HASSBRIDGE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
