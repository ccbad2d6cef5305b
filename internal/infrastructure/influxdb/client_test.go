package influxdb

import (
	"context"
	"errors"
	"testing"

	"github.com/mweston/remotegate/internal/infrastructure/config"
)

func TestConnect_Disabled(t *testing.T) {
	cfg := config.InfluxDBConfig{
		Enabled: false,
		URL:     "http://localhost:8086",
	}

	_, err := Connect(cfg)
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestDisconnectedClientIsSafe(t *testing.T) {
	// A zero-value client is never connected; every write must be a no-op
	// rather than a panic.
	c := &Client{}

	if c.IsConnected() {
		t.Fatal("zero-value client reports connected")
	}

	c.WriteSensorValue("hub-1", "sensor-temp", "temperature", 21.5, "°C")
	c.WriteDeviceStatus("hub-1", "ERROR")
	c.WritePoint("custom", nil, map[string]interface{}{"v": 1.0})
	c.Flush()

	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}

	if err := c.Close(); err != nil {
		t.Errorf("Close() on zero-value client error = %v", err)
	}
}
