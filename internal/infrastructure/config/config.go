package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for remotegate.
// All configuration is loaded from YAML and can be overridden by
// environment variables.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Integration IntegrationConfig `yaml:"integration"`
	Auth        AuthConfig        `yaml:"auth"`
	WebSocket   WebSocketConfig   `yaml:"websocket"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
	InfluxDB    InfluxDBConfig    `yaml:"influxdb"`
	Logging     LoggingConfig     `yaml:"logging"`
	Devices     []DeviceConfig    `yaml:"devices"`
}

// ServerConfig contains HTTP listener settings.
type ServerConfig struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
}

// TimeoutConfig contains HTTP timeout settings in seconds.
type TimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// IntegrationConfig identifies the integration towards the remote hub.
type IntegrationConfig struct {
	Name     string        `yaml:"name"`
	Language string        `yaml:"language"`
	Version  VersionConfig `yaml:"version"`
}

// VersionConfig carries the protocol and driver versions reported in
// driver_version responses and auth_required events.
type VersionConfig struct {
	API    string `yaml:"api"`
	Driver string `yaml:"driver"`
}

// AuthConfig contains session authentication settings.
//
// With an empty token list and JWT disabled, authentication is off and
// every session starts authenticated.
type AuthConfig struct {
	Tokens []string  `yaml:"tokens"`
	JWT    JWTConfig `yaml:"jwt"`
}

// JWTConfig enables HS256-signed bearer tokens as an alternative
// credential to the static token list.
type JWTConfig struct {
	Enabled bool   `yaml:"enabled"`
	Secret  string `yaml:"secret"`
}

// WebSocketConfig contains the integration endpoint settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
	MaxMessageSize int    `yaml:"max_message_size"`
}

// MQTTConfig contains the optional state-mirror broker settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains the optional telemetry sink settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// DeviceConfig declares a device provisioned at startup.
type DeviceConfig struct {
	ID       string         `yaml:"id"`
	Entities []EntityConfig `yaml:"entities"`
}

// EntityConfig declares an entity provisioned at startup.
type EntityConfig struct {
	ID          string            `yaml:"id"`
	Type        string            `yaml:"type"`
	Name        string            `yaml:"name"`
	Area        string            `yaml:"area"`
	DeviceClass string            `yaml:"device_class"`
	Unit        string            `yaml:"unit"`
	AltNames    map[string]string `yaml:"alt_names"`
}

// Load reads configuration from a YAML file and applies environment
// variable overrides.
//
// Environment variables follow the pattern REMOTEGATE_SECTION_KEY,
// for example REMOTEGATE_SERVER_PORT or REMOTEGATE_JWT_SECRET.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 4000,
			Timeouts: TimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Integration: IntegrationConfig{
			Name:     "remotegate",
			Language: "en",
			Version: VersionConfig{
				API:    "0.5.0",
				Driver: "1.0.0",
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/intg",
			PingInterval:   60,
			PongTimeout:    10,
			MaxMessageSize: 8192,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "remotegate",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the
// configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REMOTEGATE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("REMOTEGATE_AUTH_TOKEN"); v != "" {
		cfg.Auth.Tokens = append(cfg.Auth.Tokens, v)
	}
	if v := os.Getenv("REMOTEGATE_JWT_SECRET"); v != "" {
		cfg.Auth.JWT.Secret = v
	}
	if v := os.Getenv("REMOTEGATE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("REMOTEGATE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("REMOTEGATE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := os.Getenv("REMOTEGATE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// minJWTSecretLength guards against trivially forgeable session
// credentials when JWT mode is on.
const minJWTSecretLength = 32

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}
	if c.Integration.Name == "" {
		errs = append(errs, "integration.name is required")
	}
	if c.Integration.Language == "" {
		errs = append(errs, "integration.language is required")
	}
	if c.WebSocket.Path == "" || !strings.HasPrefix(c.WebSocket.Path, "/") {
		errs = append(errs, "websocket.path must start with /")
	}
	if c.WebSocket.PingInterval < 1 {
		errs = append(errs, "websocket.ping_interval must be at least 1 second")
	}
	if c.WebSocket.PongTimeout < 1 {
		errs = append(errs, "websocket.pong_timeout must be at least 1 second")
	}
	if c.Auth.JWT.Enabled {
		if len(c.Auth.JWT.Secret) < minJWTSecretLength {
			errs = append(errs, "auth.jwt.secret must be at least 32 characters (set REMOTEGATE_JWT_SECRET)")
		}
	}
	if c.MQTT.Enabled && (c.MQTT.QoS < 0 || c.MQTT.QoS > 2) {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	seen := make(map[string]struct{}, len(c.Devices))
	for _, d := range c.Devices {
		if d.ID == "" {
			errs = append(errs, "devices[].id is required")
			continue
		}
		if _, dup := seen[d.ID]; dup {
			errs = append(errs, fmt.Sprintf("devices: duplicate id %q", d.ID))
		}
		seen[d.ID] = struct{}{}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// RequiresAuth reports whether sessions must present a credential.
func (c *AuthConfig) RequiresAuth() bool {
	return len(c.Tokens) > 0 || c.JWT.Enabled
}

// GetReadTimeout returns the HTTP read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the HTTP write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the HTTP idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Idle) * time.Second
}

// GetPingInterval returns the heartbeat interval as a Duration.
func (c *WebSocketConfig) GetPingInterval() time.Duration {
	return time.Duration(c.PingInterval) * time.Second
}

// GetPongTimeout returns the pong wait as a Duration.
func (c *WebSocketConfig) GetPongTimeout() time.Duration {
	return time.Duration(c.PongTimeout) * time.Second
}
