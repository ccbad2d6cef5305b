package device

import (
	"errors"
	"testing"

	"github.com/mweston/remotegate/internal/bus"
	"github.com/mweston/remotegate/internal/entity"
)

func testSwitch(t *testing.T, id string) *entity.Entity {
	t.Helper()
	e, err := entity.New(entity.TypeSwitch, entity.Config{ID: id, Name: id})
	if err != nil {
		t.Fatalf("entity.New(%s) error = %v", id, err)
	}
	return e
}

func TestNew(t *testing.T) {
	t.Run("requires an id", func(t *testing.T) {
		_, err := New("")
		if !errors.Is(err, ErrIDRequired) {
			t.Errorf("New() error = %v, want ErrIDRequired", err)
		}
	})

	t.Run("defaults to CONNECTED", func(t *testing.T) {
		d, err := New("d1")
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if d.State() != StateConnected {
			t.Errorf("State() = %q, want CONNECTED", d.State())
		}
	})
}

func TestDevice_SetState(t *testing.T) {
	t.Run("accepts the four connectivity states", func(t *testing.T) {
		d, _ := New("d1")
		for _, s := range AllStates() {
			if err := d.SetState(s); err != nil {
				t.Errorf("SetState(%s) error = %v", s, err)
			}
			if d.State() != s {
				t.Errorf("State() = %q, want %q", d.State(), s)
			}
		}
	})

	t.Run("rejects values outside the enumeration", func(t *testing.T) {
		d, _ := New("d1")
		err := d.SetState(State("OFFLINE"))
		if !errors.Is(err, ErrInvalidState) {
			t.Errorf("SetState() error = %v, want ErrInvalidState", err)
		}
		if d.State() != StateConnected {
			t.Errorf("State() = %q, want CONNECTED (unchanged)", d.State())
		}
	})

	t.Run("publishes exactly one state_change event", func(t *testing.T) {
		d, _ := New("d1")
		var seen []StateEvent
		d.Events().Subscribe(EventStateChange, func(v any) {
			seen = append(seen, v.(StateEvent))
		})

		if err := d.SetState(StateDisconnected); err != nil {
			t.Fatalf("SetState() error = %v", err)
		}

		if len(seen) != 1 {
			t.Fatalf("state_change events = %d, want 1", len(seen))
		}
		if seen[0].State != StateDisconnected || seen[0].Device != d {
			t.Errorf("event = %+v", seen[0])
		}
	})
}

func TestDevice_Entities(t *testing.T) {
	t.Run("add sets the back-reference", func(t *testing.T) {
		d, _ := New("d1")
		e := testSwitch(t, "e1")

		if err := d.AddEntity(e); err != nil {
			t.Fatalf("AddEntity() error = %v", err)
		}
		if e.DeviceID() != "d1" {
			t.Errorf("DeviceID() = %q, want d1", e.DeviceID())
		}
		if d.EntityCount() != 1 {
			t.Errorf("EntityCount() = %d, want 1", d.EntityCount())
		}
	})

	t.Run("colliding entity id is refused", func(t *testing.T) {
		d, _ := New("d1")
		held := testSwitch(t, "e1")
		if err := d.AddEntity(held); err != nil {
			t.Fatalf("AddEntity() error = %v", err)
		}

		// A distinct entity with the same id must be rejected without
		// its back-reference being set.
		imposter := testSwitch(t, "e1")
		err := d.AddEntity(imposter)
		if !errors.Is(err, ErrEntityExists) {
			t.Errorf("AddEntity() error = %v, want ErrEntityExists", err)
		}
		if imposter.DeviceID() != "" {
			t.Errorf("rejected entity DeviceID() = %q, want empty", imposter.DeviceID())
		}
		if got, _ := d.Entity("e1"); got != held {
			t.Error("device no longer holds the original entity")
		}
	})

	t.Run("re-adding the held entity is a no-op", func(t *testing.T) {
		d, _ := New("d1")
		e := testSwitch(t, "e1")
		if err := d.AddEntity(e); err != nil {
			t.Fatalf("AddEntity() error = %v", err)
		}
		if err := d.AddEntity(e); err != nil {
			t.Errorf("re-AddEntity() error = %v, want nil", err)
		}
		if d.EntityCount() != 1 {
			t.Errorf("EntityCount() = %d, want 1", d.EntityCount())
		}
	})

	t.Run("entity attached elsewhere is refused", func(t *testing.T) {
		d1, _ := New("d1")
		d2, _ := New("d2")
		e := testSwitch(t, "e1")

		if err := d1.AddEntity(e); err != nil {
			t.Fatalf("AddEntity() error = %v", err)
		}
		err := d2.AddEntity(e)
		if !errors.Is(err, ErrEntityAttached) {
			t.Errorf("AddEntity() error = %v, want ErrEntityAttached", err)
		}
		if d2.EntityCount() != 0 {
			t.Errorf("d2 EntityCount() = %d, want 0", d2.EntityCount())
		}
	})

	t.Run("remove clears the back-reference", func(t *testing.T) {
		d, _ := New("d1")
		e := testSwitch(t, "e1")
		if err := d.AddEntity(e); err != nil {
			t.Fatalf("AddEntity() error = %v", err)
		}

		if err := d.RemoveEntity(e); err != nil {
			t.Fatalf("RemoveEntity() error = %v", err)
		}
		if e.DeviceID() != "" {
			t.Errorf("DeviceID() = %q, want empty", e.DeviceID())
		}

		err := d.RemoveEntity(e)
		if !errors.Is(err, ErrEntityNotFound) {
			t.Errorf("second RemoveEntity() error = %v, want ErrEntityNotFound", err)
		}
	})

	t.Run("GetEntities filters by type", func(t *testing.T) {
		d, _ := New("d1")
		sw := testSwitch(t, "e1")
		btn, _ := entity.New(entity.TypeButton, entity.Config{ID: "e2"})
		if err := d.AddEntity(sw); err != nil {
			t.Fatal(err)
		}
		if err := d.AddEntity(btn); err != nil {
			t.Fatal(err)
		}

		if got := d.GetEntities(""); len(got) != 2 {
			t.Errorf("GetEntities(\"\") = %d entities, want 2", len(got))
		}
		got := d.GetEntities(entity.TypeButton)
		if len(got) != 1 || got[0].ID() != "e2" {
			t.Errorf("GetEntities(button) = %v", got)
		}
	})
}

func TestDevice_EntityEventBubbling(t *testing.T) {
	d, _ := New("d1")
	e := testSwitch(t, "e1")
	if err := d.AddEntity(e); err != nil {
		t.Fatalf("AddEntity() error = %v", err)
	}

	var bubbled []EntityEvent
	d.Events().Subscribe(EventEntityEvent, func(v any) {
		bubbled = append(bubbled, v.(EntityEvent))
	})

	if err := e.SetState(entity.StateOn); err != nil {
		t.Fatalf("SetState() error = %v", err)
	}

	if len(bubbled) != 1 {
		t.Fatalf("bubbled events = %d, want 1", len(bubbled))
	}
	ev := bubbled[0]
	if ev.DeviceID != "d1" || ev.Entity != e || ev.Event != entity.EventState {
		t.Errorf("bubbled event = %+v", ev)
	}
	if ev.Value != entity.StateOn {
		t.Errorf("bubbled value = %v, want ON", ev.Value)
	}

	t.Run("stops after detach", func(t *testing.T) {
		if err := d.RemoveEntity(e); err != nil {
			t.Fatalf("RemoveEntity() error = %v", err)
		}
		bubbled = nil
		if err := e.SetState(entity.StateOff); err != nil {
			t.Fatalf("SetState() error = %v", err)
		}
		if len(bubbled) != 0 {
			t.Errorf("bubbled events after detach = %d, want 0", len(bubbled))
		}
	})

	t.Run("wildcard envelope carries the tagged union", func(t *testing.T) {
		d2, _ := New("d2")
		e2 := testSwitch(t, "e9")
		if err := d2.AddEntity(e2); err != nil {
			t.Fatal(err)
		}

		var values []any
		d2.Events().Subscribe(bus.Wildcard, func(v any) {
			values = append(values, v.(bus.Envelope).Value)
		})

		if err := d2.SetState(StateError); err != nil {
			t.Fatal(err)
		}
		if err := e2.SetState(entity.StateOn); err != nil {
			t.Fatal(err)
		}

		if len(values) != 2 {
			t.Fatalf("wildcard events = %d, want 2", len(values))
		}
		if _, ok := values[0].(StateEvent); !ok {
			t.Errorf("values[0] = %T, want StateEvent", values[0])
		}
		if _, ok := values[1].(EntityEvent); !ok {
			t.Errorf("values[1] = %T, want EntityEvent", values[1])
		}
	})
}
