package econet

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// fakeExchanger scripts controller responses for device tests.
type fakeExchanger struct {
	mu       sync.Mutex
	requests []Frame
	respond  func(req Frame) (Frame, error)
}

func (f *fakeExchanger) Exchange(_ context.Context, req Frame) (Frame, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return f.respond(req)
}

func (f *fakeExchanger) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// readResponse builds a read-value response payload for the given value bytes.
// Layout: session(2) + status(1) + count(1) + param id(2) + type(1) + value.
func readResponse(paramID uint16, value []byte) Frame {
	payload := make([]byte, 0, readValueOffset+len(value))
	payload = binary.LittleEndian.AppendUint16(payload, 11)
	payload = append(payload, 0x01, 0x01)
	payload = binary.LittleEndian.AppendUint16(payload, paramID)
	payload = append(payload, 0x02)
	payload = append(payload, value...)
	return Frame{Dest: AddrPanel, Src: AddrController, Func: FuncReadValue, Payload: payload}
}

func testDevice(t *testing.T, ex Exchanger) *Device {
	t.Helper()

	mapPath := filepath.Join(t.TempDir(), "map.json")
	content := `{
  "tempcwu":      {"id": 170, "type": "INT", "exponent": -1},
  "hdwtsetpoint": {"id": 171, "type": "BYTE", "exponent": 0}
}`
	if err := os.WriteFile(mapPath, []byte(content), 0600); err != nil {
		t.Fatalf("writing map file: %v", err)
	}

	d := NewDeviceWithExchanger(DeviceConfig{
		Host:     "127.0.0.1",
		Port:     8899,
		Username: "admin",
		Password: "0000",
		MapFile:  mapPath,
	}, ex)
	if err := d.LoadMap(); err != nil {
		t.Fatalf("LoadMap failed: %v", err)
	}
	return d
}

func TestDeviceGet(t *testing.T) {
	ex := &fakeExchanger{
		respond: func(req Frame) (Frame, error) {
			if req.Func != FuncReadValue {
				return Frame{}, fmt.Errorf("unexpected func 0x%02X", req.Func)
			}
			// raw 455 with exponent -1 -> 45.5
			return readResponse(170, []byte{0xC7, 0x01}), nil
		},
	}
	d := testDevice(t, ex)

	got, err := d.Get(context.Background(), "tempcwu", 3)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != 45.5 {
		t.Errorf("Get = %v, want 45.5", got)
	}
	if ex.requestCount() != 1 {
		t.Errorf("request count = %d, want 1 (no retries on success)", ex.requestCount())
	}

	if v, ok := d.LastKnown("tempcwu"); !ok || v != 45.5 {
		t.Errorf("LastKnown = %v,%v; want 45.5,true", v, ok)
	}
}

func TestDeviceGetRequestPayload(t *testing.T) {
	ex := &fakeExchanger{
		respond: func(Frame) (Frame, error) {
			return readResponse(171, []byte{60}), nil
		},
	}
	d := testDevice(t, ex)

	if _, err := d.Get(context.Background(), "hdwtsetpoint", 1); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	req := ex.requests[0]
	if req.Dest != AddrController || req.Src != AddrPanel {
		t.Errorf("addresses = %d->%d, want %d->%d", req.Src, req.Dest, AddrPanel, AddrController)
	}
	if len(req.Payload) != 6 {
		t.Fatalf("payload length = %d, want 6", len(req.Payload))
	}
	// session(2) | 0x01 | 0x01 | param id(2 LE)
	if req.Payload[2] != 0x01 || req.Payload[3] != 0x01 {
		t.Errorf("count bytes = 0x%02X 0x%02X, want 0x01 0x01", req.Payload[2], req.Payload[3])
	}
	if pid := binary.LittleEndian.Uint16(req.Payload[4:6]); pid != 171 {
		t.Errorf("param id = %d, want 171", pid)
	}
}

func TestDeviceGetRetriesThenFails(t *testing.T) {
	ex := &fakeExchanger{
		respond: func(Frame) (Frame, error) {
			return Frame{}, ErrExchangeFailed
		},
	}
	d := testDevice(t, ex)

	_, err := d.Get(context.Background(), "tempcwu", 3)
	if !errors.Is(err, ErrExchangeFailed) {
		t.Fatalf("Get = %v, want wrapped ErrExchangeFailed", err)
	}
	if ex.requestCount() != 3 {
		t.Errorf("request count = %d, want 3", ex.requestCount())
	}
	if _, ok := d.LastKnown("tempcwu"); ok {
		t.Error("LastKnown populated despite all reads failing")
	}
}

func TestDeviceGetUnknownParam(t *testing.T) {
	ex := &fakeExchanger{respond: func(Frame) (Frame, error) { return Frame{}, nil }}
	d := testDevice(t, ex)

	if _, err := d.Get(context.Background(), "nonexistent", 1); !errors.Is(err, ErrUnknownParam) {
		t.Errorf("Get unknown slug = %v, want ErrUnknownParam", err)
	}
	if ex.requestCount() != 0 {
		t.Error("unknown slug should not touch the bus")
	}
}

func TestDeviceSessionAdvances(t *testing.T) {
	ex := &fakeExchanger{
		respond: func(Frame) (Frame, error) {
			return readResponse(171, []byte{60}), nil
		},
	}
	d := testDevice(t, ex)

	ctx := context.Background()
	if _, err := d.Get(ctx, "hdwtsetpoint", 1); err != nil {
		t.Fatalf("first Get failed: %v", err)
	}
	if _, err := d.Get(ctx, "hdwtsetpoint", 1); err != nil {
		t.Fatalf("second Get failed: %v", err)
	}

	s1 := binary.LittleEndian.Uint16(ex.requests[0].Payload[0:2])
	s2 := binary.LittleEndian.Uint16(ex.requests[1].Payload[0:2])
	if s2 == s1 {
		t.Errorf("session id did not advance (%d)", s1)
	}
}

func TestDeviceSet(t *testing.T) {
	ex := &fakeExchanger{
		respond: func(req Frame) (Frame, error) {
			return Frame{Dest: AddrPanel, Src: AddrController, Func: req.Func, Payload: []byte{0x01}}, nil
		},
	}
	d := testDevice(t, ex)

	if err := d.Set(context.Background(), "hdwtsetpoint", 55); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	req := ex.requests[0]
	if req.Func != FuncWriteForce {
		t.Errorf("func = 0x%02X, want 0x29", req.Func)
	}

	// Payload: "admin" NUL "0000" NUL 0x01 pid(2 LE) value(1)
	want := append([]byte("admin"), 0x00)
	want = append(want, []byte("0000")...)
	want = append(want, 0x00, 0x01)
	want = binary.LittleEndian.AppendUint16(want, 171)
	want = append(want, 55)
	if !bytes.Equal(req.Payload, want) {
		t.Errorf("write payload = %v, want %v", req.Payload, want)
	}
}

func TestDeviceSetRejected(t *testing.T) {
	ex := &fakeExchanger{
		respond: func(Frame) (Frame, error) {
			return Frame{}, ErrExchangeFailed
		},
	}
	d := testDevice(t, ex)

	err := d.Set(context.Background(), "hdwtsetpoint", 55)
	if !errors.Is(err, ErrWriteRejected) {
		t.Fatalf("Set = %v, want ErrWriteRejected", err)
	}
	if ex.requestCount() != writeAttempts {
		t.Errorf("request count = %d, want %d", ex.requestCount(), writeAttempts)
	}
}

func TestDeviceSetUnsupportedType(t *testing.T) {
	mapPath := filepath.Join(t.TempDir(), "map.json")
	content := `{"uid": {"id": 1, "type": "STRING", "exponent": 0}}`
	if err := os.WriteFile(mapPath, []byte(content), 0600); err != nil {
		t.Fatalf("writing map file: %v", err)
	}

	ex := &fakeExchanger{respond: func(Frame) (Frame, error) { return Frame{}, nil }}
	d := NewDeviceWithExchanger(DeviceConfig{MapFile: mapPath}, ex)
	if err := d.LoadMap(); err != nil {
		t.Fatalf("LoadMap failed: %v", err)
	}

	if err := d.Set(context.Background(), "uid", 1); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("Set STRING = %v, want ErrUnsupportedType", err)
	}
}

func TestDeviceGetCancelledContext(t *testing.T) {
	ex := &fakeExchanger{
		respond: func(Frame) (Frame, error) {
			return Frame{}, ErrExchangeFailed
		},
	}
	d := testDevice(t, ex)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Retry backoff must observe cancellation instead of sleeping.
	_, err := d.Get(ctx, "tempcwu", 5)
	if err == nil {
		t.Fatal("Get with cancelled context succeeded, want error")
	}
}
