package econet

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strconv"
	"testing"
	"time"
)

// fakeConverter is an in-process TCP server standing in for the
// RS485-to-Ethernet converter. handle receives the raw request bytes and
// returns the raw response bytes.
func fakeConverter(t *testing.T, handle func(req []byte) []byte) *Transport {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				buf := make([]byte, 4096)
				n, err := c.Read(buf)
				if err != nil {
					return
				}
				if resp := handle(buf[:n]); resp != nil {
					c.Write(resp) //nolint:errcheck
				}
			}(conn)
		}
	}()

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatalf("splitting listener address: %v", err)
	}
	port, _ := strconv.Atoi(portStr)

	return NewTransport(TransportConfig{
		Host:            host,
		Port:            port,
		DialTimeout:     time.Second,
		ExchangeTimeout: time.Second,
	})
}

func TestTransportExchange(t *testing.T) {
	req := Frame{Dest: AddrController, Src: AddrPanel, Func: FuncReadValue, Payload: []byte{0x01, 0x02}}
	resp := Frame{Dest: AddrPanel, Src: AddrController, Func: FuncReadValue, Payload: []byte{0xAA, 0xBB}}

	tr := fakeConverter(t, func(got []byte) []byte {
		if !bytes.Equal(got, req.Encode()) {
			t.Errorf("converter received %v, want %v", got, req.Encode())
		}
		return resp.Encode()
	})

	got, err := tr.Exchange(context.Background(), req)
	if err != nil {
		t.Fatalf("Exchange failed: %v", err)
	}
	if got.Func != resp.Func || !bytes.Equal(got.Payload, resp.Payload) {
		t.Errorf("response = %+v, want %+v", got, resp)
	}
}

func TestTransportExchangeSkipsGarbagePrefix(t *testing.T) {
	resp := Frame{Dest: AddrPanel, Src: AddrController, Func: FuncReadValue, Payload: []byte{0x2A}}

	tr := fakeConverter(t, func([]byte) []byte {
		// Converters sometimes flush leftover bus noise before the reply.
		return append([]byte{0xFF, 0x00, 0x68, 0x03}, resp.Encode()...)
	})

	got, err := tr.Exchange(context.Background(), Frame{Dest: AddrController, Src: AddrPanel, Func: FuncReadValue})
	if err != nil {
		t.Fatalf("Exchange failed: %v", err)
	}
	if !bytes.Equal(got.Payload, resp.Payload) {
		t.Errorf("payload = %v, want %v", got.Payload, resp.Payload)
	}
}

func TestTransportExchangeConnectionClosed(t *testing.T) {
	tr := fakeConverter(t, func([]byte) []byte {
		return nil // close without answering
	})

	_, err := tr.Exchange(context.Background(), Frame{Dest: AddrController, Src: AddrPanel, Func: FuncReadValue})
	if !errors.Is(err, ErrExchangeFailed) {
		t.Errorf("Exchange = %v, want ErrExchangeFailed", err)
	}
}

func TestTransportExchangeDialFailure(t *testing.T) {
	// Grab a port, then close it so nothing is listening.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	host, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portStr)
	ln.Close()

	tr := NewTransport(TransportConfig{Host: host, Port: port, DialTimeout: time.Second})
	_, err = tr.Exchange(context.Background(), Frame{Dest: AddrController, Src: AddrPanel, Func: FuncReadValue})
	if !errors.Is(err, ErrExchangeFailed) {
		t.Errorf("Exchange = %v, want ErrExchangeFailed", err)
	}
}

func TestTransportExchangeTimeout(t *testing.T) {
	tr := fakeConverter(t, func([]byte) []byte {
		time.Sleep(2 * time.Second)
		return nil
	})
	tr.cfg.ExchangeTimeout = 100 * time.Millisecond

	start := time.Now()
	_, err := tr.Exchange(context.Background(), Frame{Dest: AddrController, Src: AddrPanel, Func: FuncReadValue})
	if !errors.Is(err, ErrExchangeFailed) {
		t.Fatalf("Exchange = %v, want ErrExchangeFailed", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Exchange took %v, want bounded by the 100ms exchange timeout", elapsed)
	}
}

func TestTransportAddr(t *testing.T) {
	tr := NewTransport(TransportConfig{Host: "192.168.1.38", Port: 8899})
	if got := tr.Addr(); got != "192.168.1.38:8899" {
		t.Errorf("Addr = %q, want 192.168.1.38:8899", got)
	}
}
