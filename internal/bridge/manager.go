package bridge

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/emberlink/ecomax-bridge/internal/coordinator"
	"github.com/emberlink/ecomax-bridge/internal/econet"
	"github.com/emberlink/ecomax-bridge/internal/hass"
	"github.com/emberlink/ecomax-bridge/internal/infrastructure/config"
	"github.com/emberlink/ecomax-bridge/internal/infrastructure/logging"
	"github.com/emberlink/ecomax-bridge/internal/infrastructure/mqtt"
)

// availabilityOnline and availabilityOffline are the retained payloads on
// the per-entry availability topic.
const (
	availabilityOnline  = "online"
	availabilityOffline = "offline"
)

// Device is the controller access the manager needs. It extends the
// coordinator's view with map loading. Implemented by *econet.Device;
// faked in tests.
type Device interface {
	coordinator.Device
	LoadMap() error
	ParamCount() int
}

// Recorder persists poll snapshots. Implemented by *history.Repository.
type Recorder interface {
	RecordSnapshot(ctx context.Context, entryID string, data map[string]float64, at time.Time) error
}

// MetricsSink exports poll snapshots to a time-series store.
// Implemented by *influxdb.Client.
type MetricsSink interface {
	WriteSnapshot(entryID string, data map[string]float64)
}

// Config holds manager-wide settings shared by every entry.
type Config struct {
	// DiscoveryPrefix is Home Assistant's MQTT discovery prefix.
	DiscoveryPrefix string

	// QoS for discovery, state and command traffic.
	QoS byte

	// PollInterval and CacheTTL are passed to each entry's coordinator.
	// Zero values fall back to the coordinator defaults.
	PollInterval time.Duration
	CacheTTL     time.Duration

	// Version is reported as the device software version in discovery.
	Version string
}

// entry bundles everything that lives and dies with one controller.
type entry struct {
	id        string
	name      string
	device    Device
	coord     *coordinator.Coordinator
	platforms []hass.Platform

	cancel context.CancelFunc
	done   chan struct{}
}

// Manager sets up and unloads controller entries.
//
// Thread Safety: all methods are safe for concurrent use.
type Manager struct {
	cfg     config.Config
	mcfg    Config
	mqtt    hass.Publisher
	history Recorder    // optional, may be nil
	metrics MetricsSink // optional, may be nil
	log     *logging.Logger

	mu      sync.Mutex
	entries map[string]*entry

	// newDevice builds the device handle for an entry.
	// Swapped for a fake in tests.
	newDevice func(ec config.EntryConfig) Device
}

// NewManager creates a manager.
//
// Parameters:
//   - cfg: Full application configuration (entry list, MQTT settings)
//   - mcfg: Manager-wide settings
//   - publisher: Connected MQTT client
//   - hist: Snapshot recorder, nil to disable local history
//   - metrics: Time-series sink, nil to disable export
//   - log: Logger, nil for the default
func NewManager(cfg config.Config, mcfg Config, publisher hass.Publisher, hist Recorder, metrics MetricsSink, log *logging.Logger) *Manager {
	if log == nil {
		log = logging.Default()
	}
	return &Manager{
		cfg:     cfg,
		mcfg:    mcfg,
		mqtt:    publisher,
		history: hist,
		metrics: metrics,
		log:     log,
		entries: make(map[string]*entry),
		newDevice: func(ec config.EntryConfig) Device {
			return econet.NewDevice(econet.DeviceConfig{
				Host:     ec.Host,
				Port:     ec.Port,
				Username: ec.Username,
				Password: ec.Password,
				MapFile:  ec.MapFile,
			})
		},
	}
}

// Setup brings one controller entry online.
//
// The register map is loaded on a worker goroutine so a slow filesystem
// (network mounts, first-access page-ins) cannot stall the caller beyond
// its context deadline. One full poll runs synchronously before any
// entity is announced: Home Assistant never sees an entity without a
// value behind it, and a dead converter fails setup instead of creating
// ghost entities.
//
// Parameters:
//   - ctx: Bounds map loading and the first poll
//   - ec: The entry's configuration; an empty ID gets a generated one
//
// Returns:
//   - string: The entry ID (generated if ec.ID was empty)
//   - error: ErrAlreadySetup, or ErrSetupFailed wrapping the cause
func (m *Manager) Setup(ctx context.Context, ec config.EntryConfig) (string, error) {
	if ec.ID == "" {
		ec.ID = uuid.NewString()
	}

	m.mu.Lock()
	if _, exists := m.entries[ec.ID]; exists {
		m.mu.Unlock()
		return "", fmt.Errorf("%w: %q", ErrAlreadySetup, ec.ID)
	}
	m.mu.Unlock()

	log := m.log.With("entry", ec.ID)
	dev := m.newDevice(ec)

	if err := m.loadMap(ctx, dev); err != nil {
		return "", fmt.Errorf("%w: loading register map: %w", ErrSetupFailed, err)
	}
	log.Info("register map loaded", "params", dev.ParamCount())

	coord := coordinator.New(coordinator.Config{
		PollInterval: m.mcfg.PollInterval,
		CacheTTL:     m.mcfg.CacheTTL,
		Targets:      hass.TargetSlugs(ec.Circuits),
	}, dev, log)

	// First refresh runs availability detection and populates the cache.
	if err := coord.Refresh(ctx); err != nil {
		return "", fmt.Errorf("%w: first refresh: %w", ErrSetupFailed, err)
	}
	if len(coord.Available()) == 0 {
		return "", fmt.Errorf("%w: controller answered no polled parameters", ErrSetupFailed)
	}

	e := &entry{
		id:     ec.ID,
		name:   ec.Name,
		device: dev,
		coord:  coord,
	}
	e.platforms = m.buildPlatforms(ec, coord, log)

	var active []hass.Platform
	for _, p := range e.platforms {
		if err := p.Setup(ctx); err != nil {
			m.teardownPlatforms(ctx, active, log)
			return "", fmt.Errorf("%w: %s platform: %w", ErrSetupFailed, p.Name(), err)
		}
		active = append(active, p)
		log.Debug("platform ready", "platform", p.Name())
	}

	coord.AddListener(m.snapshotListener(e.id, log))

	// Publish the first snapshot by hand: the listener was attached after
	// the synchronous refresh already completed.
	m.publishSnapshot(e.id, coord.Data(), log)

	runCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.done = make(chan struct{})
	go func() {
		defer close(e.done)
		coord.Run(runCtx)
	}()

	m.mu.Lock()
	if _, exists := m.entries[e.id]; exists {
		m.mu.Unlock()
		cancel()
		<-e.done
		m.teardownPlatforms(ctx, active, log)
		return "", fmt.Errorf("%w: %q", ErrAlreadySetup, e.id)
	}
	m.entries[e.id] = e
	m.mu.Unlock()

	log.Info("entry set up", "name", ec.Name, "available", len(coord.Available()))
	return e.id, nil
}

// loadMap runs the blocking map-file read on a worker goroutine and waits
// for whichever finishes first: the load or the context.
func (m *Manager) loadMap(ctx context.Context, dev Device) error {
	result := make(chan error, 1)
	go func() {
		result <- dev.LoadMap()
	}()

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// buildPlatforms constructs the six entity platforms for one entry.
func (m *Manager) buildPlatforms(ec config.EntryConfig, coord *coordinator.Coordinator, log *logging.Logger) []hass.Platform {
	params := hass.Params{
		EntryID:         ec.ID,
		EntryName:       ec.Name,
		Circuits:        ec.Circuits,
		DiscoveryPrefix: m.mcfg.DiscoveryPrefix,
		QoS:             m.mcfg.QoS,
		Device: hass.Device{
			Identifiers:  []string{"ecomax_" + ec.ID},
			Name:         ec.Name,
			Manufacturer: "Plum",
			Model:        "ecoMAX",
			SWVersion:    m.mcfg.Version,
		},
		Coordinator: coord,
		MQTT:        m.mqtt,
		Log:         log,
	}

	return []hass.Platform{
		hass.NewSensorPlatform(params),
		hass.NewClimatePlatform(params),
		hass.NewWaterHeaterPlatform(params),
		hass.NewNumberPlatform(params),
		hass.NewSwitchPlatform(params),
		hass.NewSelectPlatform(params),
	}
}

// snapshotListener returns the coordinator listener fanning each completed
// poll out to state topics, history, and the metrics sink.
func (m *Manager) snapshotListener(entryID string, log *logging.Logger) coordinator.Listener {
	return func(data map[string]float64) {
		m.publishSnapshot(entryID, data, log)
	}
}

// publishSnapshot pushes one snapshot to every output. Individual
// failures are logged and skipped: one flaky sink must not starve the
// others.
func (m *Manager) publishSnapshot(entryID string, data map[string]float64, log *logging.Logger) {
	topics := mqtt.Topics{}

	for slug, value := range data {
		payload := []byte(hass.FormatValue(value))
		if err := m.mqtt.Publish(topics.State(entryID, slug), payload, m.mcfg.QoS, true); err != nil {
			log.Warn("state publish failed", "slug", slug, "error", err)
		}
	}
	if err := m.mqtt.Publish(topics.Availability(entryID), []byte(availabilityOnline), m.mcfg.QoS, true); err != nil {
		log.Warn("availability publish failed", "error", err)
	}

	if m.history != nil && len(data) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := m.history.RecordSnapshot(ctx, entryID, data, time.Now().UTC()); err != nil {
			log.Warn("history record failed", "error", err)
		}
		cancel()
	}
	if m.metrics != nil {
		m.metrics.WriteSnapshot(entryID, data)
	}
}

// Unload tears one entry down: polling stops, command subscriptions are
// dropped, and the retained discovery documents are retracted so Home
// Assistant removes the entities.
//
// The entry stays registered if a platform teardown fails, so the caller
// can retry.
//
// Parameters:
//   - ctx: Bounds teardown work
//   - id: Entry ID returned by Setup
//
// Returns:
//   - error: ErrUnknownEntry, or the first teardown failure
func (m *Manager) Unload(ctx context.Context, id string) error {
	m.mu.Lock()
	e, ok := m.entries[id]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEntry, id)
	}

	log := m.log.With("entry", id)

	e.cancel()
	<-e.done

	var errs []error
	for _, p := range e.platforms {
		if err := p.Teardown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s teardown: %w", p.Name(), err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	if err := m.mqtt.Publish(mqtt.Topics{}.Availability(id), []byte(availabilityOffline), m.mcfg.QoS, true); err != nil {
		log.Warn("offline publish failed", "error", err)
	}

	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()

	log.Info("entry unloaded")
	return nil
}

// teardownPlatforms rolls back partially set up platforms. Failures are
// logged only: setup is already failing for another reason.
func (m *Manager) teardownPlatforms(ctx context.Context, platforms []hass.Platform, log *logging.Logger) {
	for _, p := range platforms {
		if err := p.Teardown(ctx); err != nil {
			log.Warn("rollback teardown failed", "platform", p.Name(), "error", err)
		}
	}
}

// Coordinator returns the polling coordinator for an entry, for callers
// that need direct data access (health reporting, diagnostics).
func (m *Manager) Coordinator(id string) (*coordinator.Coordinator, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, false
	}
	return e.coord, true
}

// Entries returns the IDs of all registered entries, sorted.
func (m *Manager) Entries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.entries))
	for id := range m.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close unloads every registered entry. Individual failures are joined;
// remaining entries are still attempted.
func (m *Manager) Close(ctx context.Context) error {
	var errs []error
	for _, id := range m.Entries() {
		if err := m.Unload(ctx, id); err != nil && !errors.Is(err, ErrUnknownEntry) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
