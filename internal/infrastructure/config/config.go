package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default connection values for the ecoNET module.
// The 192.168.1.38 fallback matches the address the RS485-to-Ethernet
// converters ship with after the vendor's pairing procedure.
const (
	DefaultHost     = "192.168.1.38"
	DefaultPort     = 8899
	DefaultUsername = "admin"
	DefaultPassword = "0000"
	DefaultMapFile  = "configs/device_map.json"
)

// Config is the root configuration structure for the ecoMAX bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Bridge   BridgeConfig   `yaml:"bridge"`
	Entries  []EntryConfig  `yaml:"entries"`
	Polling  PollingConfig  `yaml:"polling"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Database DatabaseConfig `yaml:"database"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// BridgeConfig contains bridge identity and operational settings.
type BridgeConfig struct {
	// ID uniquely identifies this bridge instance.
	// Used in MQTT client ID and health reporting.
	ID string `yaml:"id"`

	// HealthInterval is how often to publish health status (seconds).
	HealthInterval int `yaml:"health_interval"`
}

// EntryConfig describes one configured boiler controller.
// Each entry gets its own device handle and polling coordinator.
type EntryConfig struct {
	// ID identifies the entry. Generated if empty.
	ID string `yaml:"id"`

	// Name is the human-readable device name surfaced to Home Assistant.
	Name string `yaml:"name"`

	// Host is the IP address of the RS485-to-Ethernet converter.
	// Defaults to DefaultHost if empty.
	Host string `yaml:"host"`

	// Port is the TCP port of the converter. Default: 8899.
	Port int `yaml:"port"`

	// Username and Password authenticate panel-style writes.
	// Defaults: "admin" / "0000" (controller factory settings).
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// MapFile is the path to the JSON register map for this controller.
	MapFile string `yaml:"map_file"`

	// Circuits lists the heating circuit numbers (1-7) that are
	// physically connected. Climate entities are created only for these.
	Circuits []int `yaml:"circuits"`
}

// PollingConfig contains coordinator polling settings.
type PollingConfig struct {
	// Interval is the poll cadence in seconds. Default: 30.
	Interval int `yaml:"interval"`

	// CacheTTL is how long a polled value stays fresh in seconds.
	// Fresh values are served from cache instead of hitting the bus.
	// Default: 25.
	CacheTTL int `yaml:"cache_ttl"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`

	// DiscoveryPrefix is the Home Assistant MQTT discovery prefix.
	// Default: "homeassistant".
	DiscoveryPrefix string `yaml:"discovery_prefix"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// DatabaseConfig contains SQLite database settings for parameter history.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
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
// Environment variables follow the pattern: ECOMAX_SECTION_KEY
// For example: ECOMAX_DATABASE_PATH, ECOMAX_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyEntryDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Bridge: BridgeConfig{
			ID:             "ecomax-bridge",
			HealthInterval: 30,
		},
		Polling: PollingConfig{
			Interval: 30,
			CacheTTL: 25,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "ecomax-bridge",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
			DiscoveryPrefix: "homeassistant",
		},
		Database: DatabaseConfig{
			Path:        "./data/ecomax.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEntryDefaults fills in per-entry connection defaults.
// Entries with no host fall back to the converter's factory address.
func applyEntryDefaults(cfg *Config) {
	for i := range cfg.Entries {
		e := &cfg.Entries[i]
		if e.Host == "" {
			e.Host = DefaultHost
		}
		if e.Port == 0 {
			e.Port = DefaultPort
		}
		if e.Username == "" {
			e.Username = DefaultUsername
		}
		if e.Password == "" {
			e.Password = DefaultPassword
		}
		if e.MapFile == "" {
			e.MapFile = DefaultMapFile
		}
		if e.Name == "" {
			e.Name = "ecoMAX boiler"
		}
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: ECOMAX_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("ECOMAX_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("ECOMAX_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("ECOMAX_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("ECOMAX_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("ECOMAX_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Bridge.ID == "" {
		errs = append(errs, "bridge.id is required")
	}
	if c.Bridge.HealthInterval <= 0 {
		errs = append(errs, "bridge.health_interval must be positive")
	}

	if len(c.Entries) == 0 {
		errs = append(errs, "at least one entry is required")
	}
	seen := make(map[string]bool, len(c.Entries))
	for i, e := range c.Entries {
		if e.ID != "" {
			if seen[e.ID] {
				errs = append(errs, fmt.Sprintf("entries[%d].id %q is not unique", i, e.ID))
			}
			seen[e.ID] = true
		}
		if e.Port < 1 || e.Port > 65535 {
			errs = append(errs, fmt.Sprintf("entries[%d].port must be 1-65535", i))
		}
		for _, circuit := range e.Circuits {
			if circuit < 1 || circuit > 7 {
				errs = append(errs, fmt.Sprintf("entries[%d]: circuit %d out of range 1-7", i, circuit))
			}
		}
	}

	if c.Polling.Interval <= 0 {
		errs = append(errs, "polling.interval must be positive")
	}
	if c.Polling.CacheTTL < 0 {
		errs = append(errs, "polling.cache_ttl must not be negative")
	}

	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be 1-65535")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required when influxdb is enabled")
		}
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("logging.level %q is not one of debug/info/warn/error", c.Logging.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
