// remotegate - Smart Home Integration Gateway
//
// This is the main entry point for the remotegate application. It
// exposes locally attached devices and their entities to a remote hub
// over an authenticated WebSocket protocol, with optional state
// mirroring to MQTT and sensor telemetry to InfluxDB.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mweston/remotegate/internal/api"
	"github.com/mweston/remotegate/internal/device"
	"github.com/mweston/remotegate/internal/entity"
	"github.com/mweston/remotegate/internal/infrastructure/config"
	"github.com/mweston/remotegate/internal/infrastructure/influxdb"
	"github.com/mweston/remotegate/internal/infrastructure/logging"
	"github.com/mweston/remotegate/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for
// testability. Returning an error allows main to handle exit codes
// consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting remotegate",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Connect to MQTT broker (optional state mirror)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("MQTT mirror disabled")
	}

	// Connect to InfluxDB (optional telemetry sink)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Build the integration server
	registry := device.NewRegistry()
	srv, err := api.New(api.Deps{
		Config:   cfg,
		Logger:   log,
		Registry: registry,
		Mirror:   mqttClient,
		Sink:     influxClient,
	})
	if err != nil {
		return fmt.Errorf("creating integration server: %w", err)
	}

	// Provision configured devices and entities
	if err := provisionDevices(cfg, srv, log); err != nil {
		return fmt.Errorf("provisioning devices: %w", err)
	}

	// Start serving
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("starting integration server: %w", err)
	}
	defer func() {
		if stopErr := srv.Stop(); stopErr != nil {
			log.Error("error stopping integration server", "error", stopErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred cleanup runs in reverse order:
	// 1. Integration server (closes sessions, releases listener)
	// 2. InfluxDB (if enabled)
	// 3. MQTT (if enabled)

	log.Info("remotegate stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses REMOTEGATE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("REMOTEGATE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// provisionDevices builds the devices and entities declared in the
// configuration file and registers each with the server.
func provisionDevices(cfg *config.Config, srv *api.Server, log *logging.Logger) error {
	for _, dc := range cfg.Devices {
		d, err := device.New(dc.ID)
		if err != nil {
			return fmt.Errorf("device %q: %w", dc.ID, err)
		}

		for _, ec := range dc.Entities {
			e, err := buildEntity(ec)
			if err != nil {
				return fmt.Errorf("device %q entity %q: %w", dc.ID, ec.ID, err)
			}
			if err := d.AddEntity(e); err != nil {
				return fmt.Errorf("device %q entity %q: %w", dc.ID, ec.ID, err)
			}
		}

		if err := srv.AddDevice(d); err != nil {
			return fmt.Errorf("device %q: %w", dc.ID, err)
		}
		log.Info("device provisioned", "device_id", dc.ID, "entities", d.EntityCount())
	}
	return nil
}

// buildEntity constructs one configured entity. Switches, buttons, and
// sensors get their specialised wrappers; every other declared type is
// built as a generic entity.
func buildEntity(ec config.EntityConfig) (*entity.Entity, error) {
	base := entity.Config{
		ID:          ec.ID,
		Name:        ec.Name,
		Area:        ec.Area,
		DeviceClass: entity.DeviceClass(ec.DeviceClass),
		AltNames:    ec.AltNames,
	}

	switch entity.Type(ec.Type) {
	case entity.TypeSwitch:
		sw, err := entity.NewSwitch(base)
		if err != nil {
			return nil, err
		}
		return sw.Entity, nil

	case entity.TypeButton:
		btn, err := entity.NewButton(base)
		if err != nil {
			return nil, err
		}
		return btn.Entity, nil

	case entity.TypeSensor:
		sensor, err := entity.NewSensor(entity.SensorConfig{
			Config: base,
			Unit:   ec.Unit,
		})
		if err != nil {
			return nil, err
		}
		return sensor.Entity, nil

	default:
		return entity.New(entity.Type(ec.Type), base)
	}
}
