package bus

import "testing"

func TestChannel_Publish(t *testing.T) {
	t.Run("delivers to listeners in subscription order", func(t *testing.T) {
		c := NewChannel("src")
		var order []int

		c.Subscribe("state", func(any) { order = append(order, 1) })
		c.Subscribe("state", func(any) { order = append(order, 2) })
		c.Subscribe("state", func(any) { order = append(order, 3) })

		c.Publish("state", "ON")

		if len(order) != 3 {
			t.Fatalf("listeners invoked = %d, want 3", len(order))
		}
		for i, got := range order {
			if got != i+1 {
				t.Errorf("invocation %d = listener %d, want %d", i, got, i+1)
			}
		}
	})

	t.Run("does not deliver to other event names", func(t *testing.T) {
		c := NewChannel("src")
		called := false
		c.Subscribe("name_change", func(any) { called = true })

		c.Publish("state", "ON")

		if called {
			t.Error("listener for name_change invoked by state publish")
		}
	})

	t.Run("republishes on wildcard with envelope", func(t *testing.T) {
		c := NewChannel("the-source")
		var got Envelope
		c.Subscribe(Wildcard, func(v any) {
			env, ok := v.(Envelope)
			if !ok {
				t.Fatalf("wildcard value = %T, want Envelope", v)
			}
			got = env
		})

		c.Publish("state", "ON")

		if got.Source != "the-source" {
			t.Errorf("Source = %v, want the-source", got.Source)
		}
		if got.Event != "state" {
			t.Errorf("Event = %q, want state", got.Event)
		}
		if got.Value != "ON" {
			t.Errorf("Value = %v, want ON", got.Value)
		}
	})

	t.Run("wildcard publish is not double-wrapped", func(t *testing.T) {
		c := NewChannel("src")
		count := 0
		c.Subscribe(Wildcard, func(any) { count++ })

		c.Publish(Wildcard, "direct")

		if count != 1 {
			t.Errorf("wildcard listener invoked %d times, want 1", count)
		}
	})

	t.Run("panicking listener does not stop delivery", func(t *testing.T) {
		c := NewChannel("src")
		reached := false

		c.Subscribe("state", func(any) { panic("boom") })
		c.Subscribe("state", func(any) { reached = true })

		c.Publish("state", "ON")

		if !reached {
			t.Error("listener after panicking listener was not invoked")
		}
	})
}

func TestChannel_Subscription(t *testing.T) {
	t.Run("cancel removes listener", func(t *testing.T) {
		c := NewChannel("src")
		called := false
		sub := c.Subscribe("state", func(any) { called = true })

		sub.Cancel()
		c.Publish("state", "ON")

		if called {
			t.Error("cancelled listener was invoked")
		}
		if n := c.ListenerCount("state"); n != 0 {
			t.Errorf("ListenerCount = %d, want 0", n)
		}
	})

	t.Run("cancel is idempotent", func(t *testing.T) {
		c := NewChannel("src")
		sub := c.Subscribe("state", func(any) {})
		sub.Cancel()
		sub.Cancel() // must not panic
	})

	t.Run("cancel leaves other listeners in place", func(t *testing.T) {
		c := NewChannel("src")
		var order []int
		first := c.Subscribe("state", func(any) { order = append(order, 1) })
		c.Subscribe("state", func(any) { order = append(order, 2) })

		first.Cancel()
		c.Publish("state", "ON")

		if len(order) != 1 || order[0] != 2 {
			t.Errorf("order = %v, want [2]", order)
		}
	})
}
