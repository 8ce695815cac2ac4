// ecomaxd - Plum ecoMAX boiler bridge for Home Assistant
//
// ecomaxd speaks the ecoNET serial protocol to one or more ecoMAX boiler
// controllers through RS485-to-Ethernet converters, and publishes the
// boiler's sensors and controls to Home Assistant via MQTT discovery.
// It runs standalone: no Home Assistant add-on or custom component is
// required on the other side, only a shared MQTT broker.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/emberlink/ecomax-bridge/migrations"

	"github.com/emberlink/ecomax-bridge/internal/bridge"
	"github.com/emberlink/ecomax-bridge/internal/history"
	"github.com/emberlink/ecomax-bridge/internal/infrastructure/config"
	"github.com/emberlink/ecomax-bridge/internal/infrastructure/database"
	"github.com/emberlink/ecomax-bridge/internal/infrastructure/influxdb"
	"github.com/emberlink/ecomax-bridge/internal/infrastructure/logging"
	"github.com/emberlink/ecomax-bridge/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting ecomaxd",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath, "entries", len(cfg.Entries))

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	historyRepo := history.NewRepository(db)

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// nil interface values would dodge the manager's nil checks, so only
	// assign through concrete pointers that exist.
	var recorder bridge.Recorder = historyRepo
	var metrics bridge.MetricsSink
	if influxClient != nil {
		metrics = influxClient
	}

	// #nosec G115 -- QoS validated to 0..2 by config
	manager := bridge.NewManager(*cfg, bridge.Config{
		DiscoveryPrefix: cfg.MQTT.DiscoveryPrefix,
		QoS:             byte(cfg.MQTT.QoS),
		PollInterval:    time.Duration(cfg.Polling.Interval) * time.Second,
		CacheTTL:        time.Duration(cfg.Polling.CacheTTL) * time.Second,
		Version:         version,
	}, mqttClient, recorder, metrics, log)
	defer func() {
		log.Info("unloading entries")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if closeErr := manager.Close(shutdownCtx); closeErr != nil {
			log.Error("error unloading entries", "error", closeErr)
		}
	}()

	// A dead controller should not take the whole daemon down: other
	// entries keep running, and the failed one can be fixed and restarted.
	// Failing with zero entries up is a startup error, though.
	ready := 0
	for _, entry := range cfg.Entries {
		id, setupErr := manager.Setup(ctx, entry)
		if setupErr != nil {
			log.Error("entry setup failed", "name", entry.Name, "error", setupErr)
			continue
		}
		log.Info("entry online", "id", id, "name", entry.Name)
		ready++
	}
	if ready == 0 {
		return fmt.Errorf("no entries came online (%d configured)", len(cfg.Entries))
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	// Periodic health reporting on the bridge status topic.
	healthInterval := time.Duration(cfg.Bridge.HealthInterval) * time.Second
	if healthInterval > 0 {
		go healthLoop(ctx, healthInterval, db, mqttClient, influxClient, log)
	}

	log.Info("initialisation complete, waiting for shutdown signal",
		"entries", ready,
	)

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order:
	// 1. Entry unload (retains availability "offline")
	// 2. InfluxDB (if enabled)
	// 3. MQTT (publishes graceful bridge offline status)
	// 4. Database

	log.Info("ecomaxd stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses ECOMAX_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("ECOMAX_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}

// healthLoop re-runs the health checks on an interval and logs failures.
// The MQTT client's own reconnect logic handles recovery; this exists so
// a silently broken dependency shows up in the logs before users notice
// stale entities.
func healthLoop(ctx context.Context, interval time.Duration, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client, log *logging.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
				log.Warn("periodic health check failed", "error", err)
			}
		}
	}
}
