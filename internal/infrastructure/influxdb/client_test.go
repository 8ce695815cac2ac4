package influxdb

import (
	"context"
	"errors"
	"testing"

	"github.com/emberlink/ecomax-bridge/internal/infrastructure/config"
)

func TestConnectDisabled(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect = %v, want ErrDisabled", err)
	}
}

func TestConnectUnreachable(t *testing.T) {
	// Port 1 on localhost is never an InfluxDB server.
	_, err := Connect(config.InfluxDBConfig{
		Enabled: true,
		URL:     "http://127.0.0.1:1",
		Token:   "test-token",
		Org:     "test",
		Bucket:  "test",
	})
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect = %v, want ErrConnectionFailed", err)
	}
}

func TestDisconnectedClient(t *testing.T) {
	c := &Client{}

	if c.IsConnected() {
		t.Error("zero client reports connected")
	}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck = %v, want ErrNotConnected", err)
	}

	// Writes and flushes on a disconnected client must be silent no-ops.
	c.WriteParameter("boiler", "tempcwu", 45.5)
	c.WriteSnapshot("boiler", map[string]float64{"tempcwu": 45.5})
	c.Flush()

	if err := c.Close(); err != nil {
		t.Errorf("Close on zero client = %v, want nil", err)
	}
}
