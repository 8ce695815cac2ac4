package econet

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"
)

// Read/write transaction constants.
const (
	// readValueOffset is where value bytes start in a read-value response
	// payload: session id (2), status (1), count (1), param id (2), type (1).
	readValueOffset = 7

	// sessionModulus wraps the session id counter. The controller treats
	// ids above 65000 as reserved.
	sessionModulus = 65000

	// readBackoffStep is the per-attempt delay increment between read retries.
	readBackoffStep = 200 * time.Millisecond

	// writeBackoffStep is the per-attempt delay increment between write retries.
	writeBackoffStep = 1 * time.Second

	// writeAttempts is how many times a write is sent before giving up.
	writeAttempts = 3
)

// Exchanger performs a single request/response transaction.
// Implemented by *Transport; faked in tests.
type Exchanger interface {
	Exchange(ctx context.Context, req Frame) (Frame, error)
}

// DeviceConfig holds device handle settings.
type DeviceConfig struct {
	// Host and Port locate the RS485-to-Ethernet converter.
	Host string
	Port int

	// Username and Password authenticate panel-style writes.
	Username string
	Password string

	// MapFile is the path to the JSON register map.
	MapFile string
}

// Device is the handle for one boiler controller.
//
// It owns the register map, the transaction transport, and a cache of the
// last value successfully read per slug. All bus transactions are
// serialised: the RS485 bus behind the converter cannot interleave
// request/response pairs.
//
// Thread Safety: all methods are safe for concurrent use.
type Device struct {
	cfg       DeviceConfig
	exchanger Exchanger

	// busMu serialises transactions on the shared bus.
	busMu sync.Mutex

	// params is the loaded register map. Nil until LoadMap succeeds.
	params   ParamMap
	paramsMu sync.RWMutex

	// session is the rolling transaction id.
	session   uint16
	sessionMu sync.Mutex

	// lastKnown caches the most recent good read per slug.
	lastKnown   map[string]float64
	lastKnownMu sync.RWMutex
}

// NewDevice creates a device handle for the given controller.
// Call LoadMap before issuing reads or writes.
func NewDevice(cfg DeviceConfig) *Device {
	return &Device{
		cfg: cfg,
		exchanger: NewTransport(TransportConfig{
			Host: cfg.Host,
			Port: cfg.Port,
		}),
		session:   10,
		lastKnown: make(map[string]float64),
	}
}

// NewDeviceWithExchanger creates a device handle with a custom transaction
// layer. Used by tests to substitute a fake controller.
func NewDeviceWithExchanger(cfg DeviceConfig, ex Exchanger) *Device {
	d := NewDevice(cfg)
	d.exchanger = ex
	return d
}

// LoadMap reads the register map from the configured map file.
//
// The file read blocks, so callers on a latency-sensitive path should run
// this on a worker goroutine (bridge.Manager does).
func (d *Device) LoadMap() error {
	m, err := LoadParamMap(d.cfg.MapFile)
	if err != nil {
		return err
	}

	d.paramsMu.Lock()
	d.params = m
	d.paramsMu.Unlock()
	return nil
}

// Param returns the register definition for a slug.
func (d *Device) Param(slug string) (Param, bool) {
	d.paramsMu.RLock()
	defer d.paramsMu.RUnlock()
	p, ok := d.params[slug]
	return p, ok
}

// HasParam reports whether the slug exists in the register map.
func (d *Device) HasParam(slug string) bool {
	_, ok := d.Param(slug)
	return ok
}

// ParamCount returns the number of registers in the loaded map.
func (d *Device) ParamCount() int {
	d.paramsMu.RLock()
	defer d.paramsMu.RUnlock()
	return len(d.params)
}

// LastKnown returns the most recent value successfully read for a slug.
func (d *Device) LastKnown(slug string) (float64, bool) {
	d.lastKnownMu.RLock()
	defer d.lastKnownMu.RUnlock()
	v, ok := d.lastKnown[slug]
	return v, ok
}

// nextSession returns the next rolling transaction id.
func (d *Device) nextSession() uint16 {
	d.sessionMu.Lock()
	defer d.sessionMu.Unlock()
	d.session = (d.session + 1) % sessionModulus
	return d.session
}

// Get reads a parameter's current value.
//
// The read is retried up to retries times with linearly increasing backoff
// (200ms, 400ms, ...). On success the value is remembered and retrievable
// via LastKnown even after later failures.
//
// Parameters:
//   - ctx: Context for cancellation
//   - slug: Parameter slug from the register map
//   - retries: Total attempts (minimum 1)
//
// Returns:
//   - float64: Decoded, exponent-scaled value
//   - error: ErrUnknownParam, or wrapped ErrExchangeFailed after all attempts
func (d *Device) Get(ctx context.Context, slug string, retries int) (float64, error) {
	param, ok := d.Param(slug)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownParam, slug)
	}
	if retries < 1 {
		retries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		value, err := d.readValue(ctx, param)
		if err == nil {
			d.lastKnownMu.Lock()
			d.lastKnown[slug] = value
			d.lastKnownMu.Unlock()
			return value, nil
		}
		lastErr = err

		if attempt < retries {
			if err := sleepCtx(ctx, time.Duration(attempt)*readBackoffStep); err != nil {
				return 0, err
			}
		}
	}
	return 0, fmt.Errorf("reading %q after %d attempts: %w", slug, retries, lastErr)
}

// readValue performs one read-value transaction.
func (d *Device) readValue(ctx context.Context, param Param) (float64, error) {
	// Request payload: session(2 LE), block count, param count, param id(2 LE).
	payload := make([]byte, 0, 6)
	payload = binary.LittleEndian.AppendUint16(payload, d.nextSession())
	payload = append(payload, 0x01, 0x01)
	payload = binary.LittleEndian.AppendUint16(payload, param.ID)

	resp, err := d.exchange(ctx, Frame{
		Dest:    AddrController,
		Src:     AddrPanel,
		Func:    FuncReadValue,
		Payload: payload,
	})
	if err != nil {
		return 0, err
	}

	if len(resp.Payload) <= readValueOffset {
		return 0, fmt.Errorf("%w: response payload %d bytes", ErrShortValue, len(resp.Payload))
	}
	return param.Decode(resp.Payload[readValueOffset:])
}

// Set writes a value to a writable parameter.
//
// Uses the panel-style forced write (0x29) carrying the configured
// credentials. Each attempt that reaches the controller is acknowledged
// with a response frame; absence of a response after all attempts yields
// ErrWriteRejected.
//
// Parameters:
//   - ctx: Context for cancellation
//   - slug: Parameter slug from the register map
//   - value: Scaled value to write (exponent is divided out on encode)
//
// Returns:
//   - error: ErrUnknownParam, encode errors, or ErrWriteRejected
func (d *Device) Set(ctx context.Context, slug string, value float64) error {
	param, ok := d.Param(slug)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParam, slug)
	}

	encoded, err := param.Encode(value)
	if err != nil {
		return fmt.Errorf("encoding %q: %w", slug, err)
	}

	// Payload: user NUL, password NUL, param count, param id(2 LE), value.
	payload := make([]byte, 0, len(d.cfg.Username)+len(d.cfg.Password)+5+len(encoded))
	payload = append(payload, d.cfg.Username...)
	payload = append(payload, 0x00)
	payload = append(payload, d.cfg.Password...)
	payload = append(payload, 0x00)
	payload = append(payload, 0x01)
	payload = binary.LittleEndian.AppendUint16(payload, param.ID)
	payload = append(payload, encoded...)

	var lastErr error
	for attempt := 1; attempt <= writeAttempts; attempt++ {
		_, err := d.exchange(ctx, Frame{
			Dest:    AddrController,
			Src:     AddrPanel,
			Func:    FuncWriteForce,
			Payload: payload,
		})
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt < writeAttempts {
			if err := sleepCtx(ctx, time.Duration(attempt)*writeBackoffStep); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("%w: %q after %d attempts: %w", ErrWriteRejected, slug, writeAttempts, lastErr)
}

// exchange runs one serialised bus transaction.
func (d *Device) exchange(ctx context.Context, req Frame) (Frame, error) {
	d.busMu.Lock()
	defer d.busMu.Unlock()
	return d.exchanger.Exchange(ctx, req)
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
