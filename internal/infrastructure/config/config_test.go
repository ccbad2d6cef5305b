package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "integration:\n  name: test-gate\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 4000 {
		t.Errorf("Server.Port = %d, want 4000", cfg.Server.Port)
	}
	if cfg.WebSocket.Path != "/intg" {
		t.Errorf("WebSocket.Path = %q, want /intg", cfg.WebSocket.Path)
	}
	if cfg.WebSocket.PingInterval != 60 {
		t.Errorf("WebSocket.PingInterval = %d, want 60", cfg.WebSocket.PingInterval)
	}
	if cfg.Integration.Language != "en" {
		t.Errorf("Integration.Language = %q, want en", cfg.Integration.Language)
	}
	if cfg.Auth.RequiresAuth() {
		t.Error("RequiresAuth() = true with no tokens and JWT off")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9001
integration:
  name: hall-gateway
  language: de
websocket:
  ping_interval: 5
  pong_timeout: 2
auth:
  tokens:
    - secret-token
devices:
  - id: hub-1
    entities:
      - id: lamp
        type: switch
        name: Hall Lamp
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9001 {
		t.Errorf("Server.Port = %d, want 9001", cfg.Server.Port)
	}
	if cfg.Integration.Language != "de" {
		t.Errorf("Integration.Language = %q, want de", cfg.Integration.Language)
	}
	if !cfg.Auth.RequiresAuth() {
		t.Error("RequiresAuth() = false with a configured token")
	}
	if len(cfg.Devices) != 1 || len(cfg.Devices[0].Entities) != 1 {
		t.Fatalf("Devices = %+v, want one device with one entity", cfg.Devices)
	}
	if cfg.Devices[0].Entities[0].Type != "switch" {
		t.Errorf("entity type = %q, want switch", cfg.Devices[0].Entities[0].Type)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() with missing file should return error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("REMOTEGATE_SERVER_HOST", "127.0.0.1")
	t.Setenv("REMOTEGATE_AUTH_TOKEN", "env-token")
	t.Setenv("REMOTEGATE_MQTT_HOST", "broker.local")

	path := writeConfig(t, "integration:\n  name: test-gate\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want 127.0.0.1", cfg.Server.Host)
	}
	if len(cfg.Auth.Tokens) != 1 || cfg.Auth.Tokens[0] != "env-token" {
		t.Errorf("Auth.Tokens = %v, want [env-token]", cfg.Auth.Tokens)
	}
	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT.Broker.Host = %q, want broker.local", cfg.MQTT.Broker.Host)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port",
		},
		{
			name:    "missing name",
			mutate:  func(c *Config) { c.Integration.Name = "" },
			wantErr: "integration.name",
		},
		{
			name:    "relative ws path",
			mutate:  func(c *Config) { c.WebSocket.Path = "ws" },
			wantErr: "websocket.path",
		},
		{
			name: "short jwt secret",
			mutate: func(c *Config) {
				c.Auth.JWT.Enabled = true
				c.Auth.JWT.Secret = "short"
			},
			wantErr: "auth.jwt.secret",
		},
		{
			name: "influx without url",
			mutate: func(c *Config) {
				c.InfluxDB.Enabled = true
			},
			wantErr: "influxdb.url",
		},
		{
			name: "duplicate device id",
			mutate: func(c *Config) {
				c.Devices = []DeviceConfig{{ID: "a"}, {ID: "a"}}
			},
			wantErr: "duplicate id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
