package coordinator

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/emberlink/ecomax-bridge/internal/econet"
	"github.com/emberlink/ecomax-bridge/internal/infrastructure/logging"
)

// Polling and write defaults.
const (
	// DefaultPollInterval is how often parameters are refreshed.
	DefaultPollInterval = 30 * time.Second

	// DefaultCacheTTL is how long a polled value stays fresh. Slightly
	// under the poll interval so each cycle re-reads stale slugs but a
	// mid-cycle snapshot request never hits the bus.
	DefaultCacheTTL = 25 * time.Second

	// defaultReadRetries is how many read attempts each poll makes.
	defaultReadRetries = 5

	// detectRetries is the attempt count during the availability scan.
	// Kept low so a controller with many absent circuits starts quickly.
	detectRetries = 2

	// writeVerifyAttempts is how many write-then-verify rounds SetValue
	// makes before giving up.
	writeVerifyAttempts = 5

	// writeSettleDelay is the pause between a write and its verification
	// read, giving the controller time to commit the change.
	writeSettleDelay = 500 * time.Millisecond

	// writeRetryStep is the per-attempt delay increment between rounds.
	writeRetryStep = 1 * time.Second

	// verifyEpsilon absorbs exponent rounding when comparing a read-back
	// value against the written target.
	verifyEpsilon = 0.01
)

// Device is the controller access the coordinator needs.
// Implemented by *econet.Device; faked in tests.
type Device interface {
	Get(ctx context.Context, slug string, retries int) (float64, error)
	Set(ctx context.Context, slug string, value float64) error
	Param(slug string) (econet.Param, bool)
	HasParam(slug string) bool
}

// Config holds coordinator settings.
type Config struct {
	// PollInterval is the period between refresh cycles. Default: 30s.
	PollInterval time.Duration

	// CacheTTL is how long polled values stay fresh. Default: 25s.
	CacheTTL time.Duration

	// ReadRetries is the per-slug attempt count during polls. Default: 5.
	ReadRetries int

	// Targets are the slugs this coordinator polls. Slugs absent from the
	// register map or unresponsive during the availability scan are
	// dropped.
	Targets []string
}

// Listener receives a data snapshot after every completed refresh.
type Listener func(data map[string]float64)

// cacheEntry is one validated value with its read time.
type cacheEntry struct {
	value float64
	at    time.Time
}

// Coordinator polls one controller and fans validated data out to
// subscribed platforms.
//
// Thread Safety: all methods are safe for concurrent use.
type Coordinator struct {
	cfg    Config
	device Device
	log    *logging.Logger

	mu        sync.RWMutex
	available []string
	cache     map[string]cacheEntry
	ready     bool

	listenerMu sync.Mutex
	listeners  []Listener

	// now is stubbed in tests to control cache freshness.
	now func() time.Time

	// settleDelay and retryStep are shortened in tests.
	settleDelay time.Duration
	retryStep   time.Duration
}

// New creates a coordinator for the given device.
func New(cfg Config, device Device, log *logging.Logger) *Coordinator {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.ReadRetries <= 0 {
		cfg.ReadRetries = defaultReadRetries
	}
	if log == nil {
		log = logging.Default()
	}
	return &Coordinator{
		cfg:    cfg,
		device: device,
		log:    log,
		cache:  make(map[string]cacheEntry),
		now:    time.Now,

		settleDelay: writeSettleDelay,
		retryStep:   writeRetryStep,
	}
}

// AddListener registers a snapshot callback. Listeners run synchronously
// after each refresh, in registration order.
func (c *Coordinator) AddListener(l Listener) {
	c.listenerMu.Lock()
	defer c.listenerMu.Unlock()
	c.listeners = append(c.listeners, l)
}

// Ready reports whether at least one refresh has completed.
func (c *Coordinator) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// Available returns the slugs that answered the availability scan.
func (c *Coordinator) Available() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.available))
	copy(out, c.available)
	return out
}

// Data returns a copy of the current validated snapshot.
func (c *Coordinator) Data() map[string]float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]float64, len(c.cache))
	for slug, e := range c.cache {
		out[slug] = e.value
	}
	return out
}

// Value returns the current validated value for one slug.
func (c *Coordinator) Value(slug string) (float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.ready {
		return 0, ErrNotReady
	}
	e, ok := c.cache[slug]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrNoValue, slug)
	}
	return e.value, nil
}

// Refresh runs one full poll cycle.
//
// The first call scans the target list for parameters the controller
// actually answers, so absent circuits are never polled again. Each
// subsequent cycle re-reads slugs whose cached value is older than the TTL,
// validates the result, and holds the last good value when a read fails or
// the value is implausible.
//
// Callers run the first Refresh synchronously before exposing entities, so
// subscribers start from real data rather than zeros.
func (c *Coordinator) Refresh(ctx context.Context) error {
	c.mu.RLock()
	scanned := len(c.available) > 0 || c.ready
	c.mu.RUnlock()

	if !scanned {
		if err := c.detectAvailable(ctx); err != nil {
			return err
		}
	}

	now := c.now()
	for _, slug := range c.Available() {
		if err := ctx.Err(); err != nil {
			return err
		}

		c.mu.RLock()
		entry, cached := c.cache[slug]
		c.mu.RUnlock()

		if cached && now.Sub(entry.at) < c.cfg.CacheTTL {
			continue
		}

		value, err := c.device.Get(ctx, slug, c.cfg.ReadRetries)
		if err != nil {
			// Hold last good value; the stale timestamp forces a
			// retry next cycle.
			c.log.Warn("parameter read failed", "slug", slug, "error", err)
			continue
		}

		param, _ := c.device.Param(slug)
		if !validate(slug, param, value, entry.value, cached) {
			c.log.Warn("rejected implausible value",
				"slug", slug, "value", value)
			continue
		}

		c.mu.Lock()
		c.cache[slug] = cacheEntry{value: value, at: c.now()}
		c.mu.Unlock()
	}

	c.mu.Lock()
	c.ready = true
	c.mu.Unlock()

	c.notify()
	return nil
}

// Run polls at the configured interval until ctx is cancelled.
// It performs one refresh immediately on entry.
func (c *Coordinator) Run(ctx context.Context) {
	if err := c.Refresh(ctx); err != nil {
		c.log.Warn("refresh failed", "error", err)
	}

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				c.log.Warn("refresh failed", "error", err)
			}
		}
	}
}

// SetValue writes a parameter and verifies the controller accepted it.
//
// Each round writes the value, waits briefly for the controller to commit,
// then reads the parameter back. A read-back matching the target (within
// rounding tolerance) updates the snapshot immediately so subscribers see
// the new value without waiting for the next poll. Rounds back off
// linearly; after all attempts the write is reported failed.
//
// Parameters:
//   - ctx: Context for cancellation
//   - slug: Parameter slug from the register map
//   - value: Scaled value to write
//
// Returns:
//   - error: Device write errors, or ErrWriteVerify after all attempts
func (c *Coordinator) SetValue(ctx context.Context, slug string, value float64) error {
	for attempt := 1; attempt <= writeVerifyAttempts; attempt++ {
		err := c.device.Set(ctx, slug, value)
		if err == nil {
			if err := sleepCtx(ctx, c.settleDelay); err != nil {
				return err
			}

			readBack, err := c.device.Get(ctx, slug, 1)
			if err == nil && math.Abs(readBack-value) <= verifyEpsilon {
				c.mu.Lock()
				c.cache[slug] = cacheEntry{value: value, at: c.now()}
				c.mu.Unlock()
				c.log.Info("parameter written",
					"slug", slug, "value", value, "attempt", attempt)
				c.notify()
				return nil
			}
			c.log.Warn("write verification mismatch",
				"slug", slug, "wrote", value, "read", readBack, "attempt", attempt)
		} else {
			c.log.Warn("write failed",
				"slug", slug, "error", err, "attempt", attempt)
		}

		if attempt < writeVerifyAttempts {
			if err := sleepCtx(ctx, time.Duration(attempt)*c.retryStep); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("%w: %s=%v after %d attempts", ErrWriteVerify, slug, value, writeVerifyAttempts)
}

// detectAvailable probes every target once so absent circuits and unmapped
// slugs are excluded from regular polling.
func (c *Coordinator) detectAvailable(ctx context.Context) error {
	var available []string
	for _, slug := range c.cfg.Targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !c.device.HasParam(slug) {
			continue
		}

		value, err := c.device.Get(ctx, slug, detectRetries)
		if err != nil || value == errorSentinel {
			continue
		}
		available = append(available, slug)
	}

	c.mu.Lock()
	c.available = available
	c.mu.Unlock()

	c.log.Info("availability scan complete",
		"targets", len(c.cfg.Targets), "available", len(available))
	return nil
}

// notify delivers the current snapshot to all listeners.
func (c *Coordinator) notify() {
	data := c.Data()
	c.listenerMu.Lock()
	listeners := make([]Listener, len(c.listeners))
	copy(listeners, c.listeners)
	c.listenerMu.Unlock()

	for _, l := range listeners {
		l(data)
	}
}

// sleepCtx sleeps for the given duration or until ctx is cancelled.
func sleepCtx(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
