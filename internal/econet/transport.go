package econet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

// Default timeouts for converter communication.
const (
	// defaultDialTimeout is the maximum time to wait for a TCP connection.
	defaultDialTimeout = 5 * time.Second

	// defaultExchangeTimeout bounds a full request/response transaction.
	// The controller answers within a few hundred milliseconds when healthy.
	defaultExchangeTimeout = 2 * time.Second

	// readChunkSize is the per-read buffer size while waiting for a response.
	readChunkSize = 1024
)

// TransportConfig holds converter connection settings.
type TransportConfig struct {
	// Host is the converter's IP address.
	Host string

	// Port is the converter's TCP port. Default: 8899.
	Port int

	// DialTimeout is the maximum time to wait for a TCP connection.
	// Default: 5 seconds.
	DialTimeout time.Duration

	// ExchangeTimeout bounds a full request/response transaction.
	// Default: 2 seconds.
	ExchangeTimeout time.Duration
}

// Transport performs request/response transactions with the converter.
//
// Each Exchange opens a fresh TCP connection. The RS485 converters in the
// field drop idle connections unpredictably and serve at most one client,
// so a connect-per-transaction model is more reliable than keeping a
// session open between 30-second polls.
//
// Thread Safety: Exchange is safe for concurrent use, but concurrent
// transactions against one converter will collide on the serial bus —
// Device serialises them.
type Transport struct {
	cfg TransportConfig
}

// NewTransport creates a transport for the given converter.
func NewTransport(cfg TransportConfig) *Transport {
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	if cfg.ExchangeTimeout == 0 {
		cfg.ExchangeTimeout = defaultExchangeTimeout
	}
	return &Transport{cfg: cfg}
}

// Addr returns the converter address in host:port form.
func (t *Transport) Addr() string {
	return net.JoinHostPort(t.cfg.Host, fmt.Sprintf("%d", t.cfg.Port))
}

// Exchange sends a frame and waits for the first valid response frame.
//
// The transaction is bounded by ExchangeTimeout and by ctx, whichever is
// shorter. Garbage and partial frames on the stream are skipped by the
// frame scanner; the call returns the first frame that passes CRC
// validation.
//
// Parameters:
//   - ctx: Context for cancellation
//   - req: Frame to send
//
// Returns:
//   - Frame: First valid response frame
//   - error: Wrapped ErrExchangeFailed on dial, write, or read failure
func (t *Transport) Exchange(ctx context.Context, req Frame) (Frame, error) {
	dialer := net.Dialer{Timeout: t.cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", t.Addr())
	if err != nil {
		return Frame{}, fmt.Errorf("%w: dial %s: %w", ErrExchangeFailed, t.Addr(), err)
	}
	defer conn.Close() //nolint:errcheck // Best effort close on a per-transaction socket

	deadline := time.Now().Add(t.cfg.ExchangeTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return Frame{}, fmt.Errorf("%w: setting deadline: %w", ErrExchangeFailed, err)
	}

	if _, err := conn.Write(req.Encode()); err != nil {
		return Frame{}, fmt.Errorf("%w: write: %w", ErrExchangeFailed, err)
	}

	var scanner Scanner
	chunk := make([]byte, readChunkSize)
	for {
		n, err := conn.Read(chunk)
		if n > 0 {
			scanner.Feed(chunk[:n])
			frame, scanErr := scanner.Next()
			if scanErr == nil {
				return frame, nil
			}
			if !errors.Is(scanErr, ErrNoFrame) {
				return Frame{}, fmt.Errorf("%w: %w", ErrExchangeFailed, scanErr)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return Frame{}, fmt.Errorf("%w: connection closed before response", ErrExchangeFailed)
			}
			return Frame{}, fmt.Errorf("%w: read: %w", ErrExchangeFailed, err)
		}
	}
}
