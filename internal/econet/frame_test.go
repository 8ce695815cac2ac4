package econet

import (
	"bytes"
	"errors"
	"testing"
)

func TestFrameEncodeLayout(t *testing.T) {
	f := Frame{
		Dest:    AddrController,
		Src:     AddrPanel,
		Func:    FuncReadValue,
		Payload: []byte{0x0B, 0x00, 0x01, 0x01, 0x2A, 0x00},
	}

	wire := f.Encode()

	if wire[0] != StartByte {
		t.Errorf("first byte = 0x%02X, want 0x68", wire[0])
	}
	if wire[len(wire)-1] != StopByte {
		t.Errorf("last byte = 0x%02X, want 0x16", wire[len(wire)-1])
	}

	// Length counts dest(2) + src(2) + func(1) + payload.
	wantLen := 5 + len(f.Payload)
	gotLen := int(wire[1]) | int(wire[2])<<8
	if gotLen != wantLen {
		t.Errorf("length field = %d, want %d", gotLen, wantLen)
	}

	wantTotal := wantLen + 6
	if len(wire) != wantTotal {
		t.Errorf("total frame length = %d, want %d", len(wire), wantTotal)
	}
}

func TestScannerRoundTrip(t *testing.T) {
	f := Frame{
		Dest:    AddrPanel,
		Src:     AddrController,
		Func:    FuncReadValue,
		Payload: []byte{0x01, 0x02, 0x03},
	}

	var s Scanner
	s.Feed(f.Encode())

	got, err := s.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if got.Dest != f.Dest || got.Src != f.Src || got.Func != f.Func {
		t.Errorf("header = {%d %d 0x%02X}, want {%d %d 0x%02X}",
			got.Dest, got.Src, got.Func, f.Dest, f.Src, f.Func)
	}
	if !bytes.Equal(got.Payload, f.Payload) {
		t.Errorf("payload = %v, want %v", got.Payload, f.Payload)
	}
}

func TestScannerResyncsAfterGarbage(t *testing.T) {
	f := Frame{Dest: AddrPanel, Src: AddrController, Func: FuncReadValue, Payload: []byte{0x7F}}

	var s Scanner
	s.Feed([]byte{0xDE, 0xAD, 0x68, 0x01}) // noise including a fake start byte
	s.Feed(f.Encode())

	got, err := s.Next()
	if err != nil {
		t.Fatalf("Next failed after garbage prefix: %v", err)
	}
	if !bytes.Equal(got.Payload, f.Payload) {
		t.Errorf("payload = %v, want %v", got.Payload, f.Payload)
	}
}

func TestScannerRejectsBadCRC(t *testing.T) {
	f := Frame{Dest: AddrPanel, Src: AddrController, Func: FuncReadValue, Payload: []byte{0x01}}
	wire := f.Encode()
	wire[len(wire)-2] ^= 0xFF // corrupt CRC

	var s Scanner
	s.Feed(wire)

	if _, err := s.Next(); !errors.Is(err, ErrNoFrame) {
		t.Errorf("Next on corrupted frame = %v, want ErrNoFrame", err)
	}
}

func TestScannerIncompleteFrame(t *testing.T) {
	f := Frame{Dest: AddrPanel, Src: AddrController, Func: FuncReadValue, Payload: []byte{0x01, 0x02}}
	wire := f.Encode()

	var s Scanner
	s.Feed(wire[:len(wire)-3])

	if _, err := s.Next(); !errors.Is(err, ErrNoFrame) {
		t.Fatalf("Next on partial frame = %v, want ErrNoFrame", err)
	}

	// Completing the frame makes it parseable.
	s.Feed(wire[len(wire)-3:])
	got, err := s.Next()
	if err != nil {
		t.Fatalf("Next after completing frame failed: %v", err)
	}
	if !bytes.Equal(got.Payload, f.Payload) {
		t.Errorf("payload = %v, want %v", got.Payload, f.Payload)
	}
}

func TestScannerMultipleFrames(t *testing.T) {
	f1 := Frame{Dest: 1, Src: 100, Func: FuncReadValue, Payload: []byte{0x01}}
	f2 := Frame{Dest: 1, Src: 100, Func: FuncWriteForce, Payload: []byte{0x02}}

	var s Scanner
	s.Feed(append(f1.Encode(), f2.Encode()...))

	got1, err := s.Next()
	if err != nil {
		t.Fatalf("first Next failed: %v", err)
	}
	got2, err := s.Next()
	if err != nil {
		t.Fatalf("second Next failed: %v", err)
	}
	if got1.Func != FuncReadValue || got2.Func != FuncWriteForce {
		t.Errorf("funcs = 0x%02X, 0x%02X; want 0x43, 0x29", got1.Func, got2.Func)
	}
	if _, err := s.Next(); !errors.Is(err, ErrNoFrame) {
		t.Errorf("third Next = %v, want ErrNoFrame", err)
	}
}

func TestCRC16KnownVector(t *testing.T) {
	// CRC-16/XMODEM (poly 0x1021, init 0) of "123456789" is 0x31C3.
	if got := crc16([]byte("123456789")); got != 0x31C3 {
		t.Errorf("crc16 = 0x%04X, want 0x31C3", got)
	}
}
