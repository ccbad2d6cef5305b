package entity

import (
	"testing"

	"github.com/mweston/remotegate/internal/bus"
)

func TestButton_Press(t *testing.T) {
	b, err := NewButton(Config{ID: "btn-1", Name: "Doorbell"})
	if err != nil {
		t.Fatalf("NewButton() error = %v", err)
	}
	seen := recordEvents(b.Entity)

	b.Press()

	if len(*seen) != 1 {
		t.Fatalf("events = %d, want 1", len(*seen))
	}
	if (*seen)[0].Event != EventPressed {
		t.Errorf("event = %q, want pressed", (*seen)[0].Event)
	}
}

func TestSwitch(t *testing.T) {
	t.Run("turn on then off", func(t *testing.T) {
		sw, _ := NewSwitch(Config{ID: "sw-1"})
		seen := recordEvents(sw.Entity)

		if err := sw.TurnOn(); err != nil {
			t.Fatalf("TurnOn() error = %v", err)
		}
		if sw.State() != StateOn {
			t.Errorf("State() = %q, want ON", sw.State())
		}
		if err := sw.TurnOff(); err != nil {
			t.Fatalf("TurnOff() error = %v", err)
		}

		// Each operation publishes a state event plus its own event.
		var events []string
		for _, env := range *seen {
			events = append(events, env.Event)
		}
		want := []string{EventState, EventTurnOn, EventState, EventTurnOff}
		if len(events) != len(want) {
			t.Fatalf("events = %v, want %v", events, want)
		}
		for i := range want {
			if events[i] != want[i] {
				t.Errorf("event[%d] = %q, want %q", i, events[i], want[i])
			}
		}
	})

	t.Run("toggle from unknown turns on", func(t *testing.T) {
		sw, _ := NewSwitch(Config{ID: "sw-2"})

		if err := sw.Toggle(); err != nil {
			t.Fatalf("Toggle() error = %v", err)
		}
		if sw.State() != StateOn {
			t.Errorf("State() = %q, want ON", sw.State())
		}

		if err := sw.Toggle(); err != nil {
			t.Fatalf("Toggle() error = %v", err)
		}
		if sw.State() != StateOff {
			t.Errorf("State() = %q, want OFF", sw.State())
		}
	})
}

func TestSensor(t *testing.T) {
	t.Run("default unit follows the device class", func(t *testing.T) {
		s, err := NewSensor(SensorConfig{
			Config: Config{ID: "sn-1", DeviceClass: ClassTemperature},
		})
		if err != nil {
			t.Fatalf("NewSensor() error = %v", err)
		}
		if s.Unit() != "°C" {
			t.Errorf("Unit() = %q, want °C", s.Unit())
		}
		if s.DeviceClass() != ClassTemperature {
			t.Errorf("DeviceClass() = %q", s.DeviceClass())
		}
	})

	t.Run("unknown device class falls back to custom", func(t *testing.T) {
		s, _ := NewSensor(SensorConfig{
			Config: Config{ID: "sn-2", DeviceClass: DeviceClass("sound")},
		})
		if s.DeviceClass() != ClassCustom {
			t.Errorf("DeviceClass() = %q, want custom", s.DeviceClass())
		}
		if s.Unit() != "" {
			t.Errorf("Unit() = %q, want empty", s.Unit())
		}
	})

	t.Run("explicit unit wins over the default", func(t *testing.T) {
		s, _ := NewSensor(SensorConfig{
			Config: Config{ID: "sn-3", DeviceClass: ClassTemperature},
			Unit:   "°F",
		})
		if s.Unit() != "°F" {
			t.Errorf("Unit() = %q, want °F", s.Unit())
		}
	})

	t.Run("SetValue publishes a value event", func(t *testing.T) {
		s, _ := NewSensor(SensorConfig{
			Config: Config{ID: "sn-4", DeviceClass: ClassPower},
		})
		var seen []bus.Envelope
		s.Events().Subscribe(bus.Wildcard, func(v any) {
			seen = append(seen, v.(bus.Envelope))
		})

		s.SetValue(23.5, "")

		if s.Value() != 23.5 {
			t.Errorf("Value() = %v, want 23.5", s.Value())
		}
		if len(seen) != 1 || seen[0].Event != EventValue {
			t.Errorf("events = %+v, want one value event", seen)
		}
	})

	t.Run("SetValue can replace the unit", func(t *testing.T) {
		s, _ := NewSensor(SensorConfig{
			Config: Config{ID: "sn-5", DeviceClass: ClassEnergy},
		})
		s.SetValue(1.2, "Wh")
		if s.Unit() != "Wh" {
			t.Errorf("Unit() = %q, want Wh", s.Unit())
		}
	})
}
