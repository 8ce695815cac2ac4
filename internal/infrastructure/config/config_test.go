package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
bridge:
  id: "test-bridge"
  health_interval: 15

entries:
  - id: "boiler-main"
    name: "Main boiler"
    host: "10.0.0.5"
    port: 8899
    password: "1234"
    map_file: "maps/ecomax360i.json"
    circuits: [1, 2]

mqtt:
  broker:
    host: "mqtt.local"
    port: 1883
    client_id: "test-bridge-mqtt"
  qos: 1

database:
  path: "/tmp/ecomax-test.db"

logging:
  level: "debug"
  format: "text"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Bridge.ID != "test-bridge" {
		t.Errorf("Bridge.ID = %q, want %q", cfg.Bridge.ID, "test-bridge")
	}
	if cfg.Bridge.HealthInterval != 15 {
		t.Errorf("Bridge.HealthInterval = %d, want 15", cfg.Bridge.HealthInterval)
	}

	if len(cfg.Entries) != 1 {
		t.Fatalf("len(Entries) = %d, want 1", len(cfg.Entries))
	}
	entry := cfg.Entries[0]
	if entry.Host != "10.0.0.5" {
		t.Errorf("entry.Host = %q, want 10.0.0.5", entry.Host)
	}
	if entry.Username != DefaultUsername {
		t.Errorf("entry.Username = %q, want default %q", entry.Username, DefaultUsername)
	}
	if entry.Password != "1234" {
		t.Errorf("entry.Password = %q, want 1234", entry.Password)
	}
	if len(entry.Circuits) != 2 {
		t.Errorf("len(entry.Circuits) = %d, want 2", len(entry.Circuits))
	}

	if cfg.MQTT.Broker.Host != "mqtt.local" {
		t.Errorf("MQTT.Broker.Host = %q, want mqtt.local", cfg.MQTT.Broker.Host)
	}
	if cfg.MQTT.DiscoveryPrefix != "homeassistant" {
		t.Errorf("MQTT.DiscoveryPrefix = %q, want default homeassistant", cfg.MQTT.DiscoveryPrefix)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
entries:
  - id: "boiler"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	entry := cfg.Entries[0]
	if entry.Host != DefaultHost {
		t.Errorf("default Host = %q, want %q", entry.Host, DefaultHost)
	}
	if entry.Port != DefaultPort {
		t.Errorf("default Port = %d, want %d", entry.Port, DefaultPort)
	}
	if entry.Password != DefaultPassword {
		t.Errorf("default Password = %q, want %q", entry.Password, DefaultPassword)
	}
	if entry.MapFile != DefaultMapFile {
		t.Errorf("default MapFile = %q, want %q", entry.MapFile, DefaultMapFile)
	}

	if cfg.Polling.Interval != 30 {
		t.Errorf("default Polling.Interval = %d, want 30", cfg.Polling.Interval)
	}
	if cfg.Polling.CacheTTL != 25 {
		t.Errorf("default Polling.CacheTTL = %d, want 25", cfg.Polling.CacheTTL)
	}
	if cfg.Database.WALMode != true {
		t.Error("default Database.WALMode = false, want true")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load of missing file succeeded, want error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ECOMAX_MQTT_HOST", "broker.example")
	t.Setenv("ECOMAX_DATABASE_PATH", "/var/lib/ecomax/override.db")

	path := writeConfig(t, `
entries:
  - id: "boiler"
mqtt:
  broker:
    host: "from-file"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.MQTT.Broker.Host != "broker.example" {
		t.Errorf("MQTT.Broker.Host = %q, want env override broker.example", cfg.MQTT.Broker.Host)
	}
	if cfg.Database.Path != "/var/lib/ecomax/override.db" {
		t.Errorf("Database.Path = %q, want env override", cfg.Database.Path)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "no entries",
			mutate:  func(c *Config) { c.Entries = nil },
			wantErr: "at least one entry",
		},
		{
			name: "duplicate entry ids",
			mutate: func(c *Config) {
				c.Entries = append(c.Entries, c.Entries[0])
			},
			wantErr: "not unique",
		},
		{
			name: "circuit out of range",
			mutate: func(c *Config) {
				c.Entries[0].Circuits = []int{8}
			},
			wantErr: "circuit 8 out of range",
		},
		{
			name:    "bad qos",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "logging.level",
		},
		{
			name: "influx enabled without token",
			mutate: func(c *Config) {
				c.InfluxDB.Enabled = true
				c.InfluxDB.URL = "http://localhost:8086"
			},
			wantErr: "influxdb.token",
		},
		{
			name:    "zero poll interval",
			mutate:  func(c *Config) { c.Polling.Interval = 0 },
			wantErr: "polling.interval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Entries = []EntryConfig{{ID: "boiler", Host: DefaultHost, Port: DefaultPort}}
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateOK(t *testing.T) {
	cfg := defaultConfig()
	cfg.Entries = []EntryConfig{{ID: "boiler", Host: DefaultHost, Port: DefaultPort, Circuits: []int{2}}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed on valid config: %v", err)
	}
}
