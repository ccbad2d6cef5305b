package device

import (
	"sync"

	"github.com/mweston/remotegate/internal/entity"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry is the server-owned catalogue of registered devices.
//
// It is purely in-memory: device and entity state does not survive a
// restart. All public methods are thread-safe; mutation happens only
// through the owning server's callbacks, and the mutex is never held
// across a network call.
type Registry struct {
	mu      sync.RWMutex
	devices map[string]*Device
	logger  Logger
}

// NewRegistry creates an empty device registry.
func NewRegistry() *Registry {
	return &Registry{
		devices: make(map[string]*Device),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Add registers a device. A duplicate id fails with ErrDeviceExists
// and leaves the registry unchanged.
func (r *Registry) Add(d *Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.devices[d.ID()]; ok {
		return ErrDeviceExists
	}
	r.devices[d.ID()] = d
	r.logger.Info("device registered", "id", d.ID(), "entities", d.EntityCount())
	return nil
}

// Remove deregisters a device. An unknown id fails with
// ErrDeviceNotFound and leaves the registry unchanged.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.devices[id]; !ok {
		return ErrDeviceNotFound
	}
	delete(r.devices, id)
	r.logger.Info("device removed", "id", id)
	return nil
}

// Get returns a registered device by id.
func (r *Registry) Get(id string) (*Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.devices[id]
	if !ok {
		return nil, ErrDeviceNotFound
	}
	return d, nil
}

// List returns a snapshot of all registered devices.
func (r *Registry) List() []*Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Device, 0, len(r.devices))
	for _, d := range r.devices {
		out = append(out, d)
	}
	return out
}

// Count returns the number of registered devices.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// Entities returns entities across all registered devices, optionally
// restricted to one device id and/or one entity type. Empty filter
// values match everything.
func (r *Registry) Entities(deviceID string, typeFilter entity.Type) []*entity.Entity {
	r.mu.RLock()
	devices := make([]*Device, 0, len(r.devices))
	for _, d := range r.devices {
		if deviceID == "" || d.ID() == deviceID {
			devices = append(devices, d)
		}
	}
	r.mu.RUnlock()

	var out []*entity.Entity
	for _, d := range devices {
		out = append(out, d.GetEntities(typeFilter)...)
	}
	return out
}
