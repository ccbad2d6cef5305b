package api

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		raw := []byte(`{"kind":"req","msg":"auth","ts":1700000000000,"req_id":7,"msg_data":{"token":"abc"}}`)

		msg, err := Parse(raw)
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if msg.Kind != KindRequest {
			t.Errorf("Kind = %q, want req", msg.Kind)
		}
		if msg.Msg != MsgAuth {
			t.Errorf("Msg = %q, want auth", msg.Msg)
		}
		if msg.RequestID() != 7 {
			t.Errorf("RequestID() = %d, want 7", msg.RequestID())
		}
		if msg.Token() != "abc" {
			t.Errorf("Token() = %q, want abc", msg.Token())
		}
	})

	t.Run("not json", func(t *testing.T) {
		if _, err := Parse([]byte("{nope")); !errors.Is(err, ErrMalformedFrame) {
			t.Errorf("Parse() error = %v, want ErrMalformedFrame", err)
		}
	})

	t.Run("unknown kind", func(t *testing.T) {
		if _, err := Parse([]byte(`{"kind":"gossip","msg":"auth"}`)); !errors.Is(err, ErrMalformedFrame) {
			t.Errorf("Parse() error = %v, want ErrMalformedFrame", err)
		}
	})

	t.Run("missing msg name", func(t *testing.T) {
		if _, err := Parse([]byte(`{"kind":"req"}`)); !errors.Is(err, ErrMalformedFrame) {
			t.Errorf("Parse() error = %v, want ErrMalformedFrame", err)
		}
	})

	t.Run("missing req_id falls back to sentinel", func(t *testing.T) {
		msg, err := Parse([]byte(`{"kind":"req","msg":"driver_version"}`))
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if msg.RequestID() != UnsolicitedReqID {
			t.Errorf("RequestID() = %d, want %d", msg.RequestID(), UnsolicitedReqID)
		}
	})
}

func TestMessageAccessors(t *testing.T) {
	t.Run("device id as string", func(t *testing.T) {
		msg, _ := Parse([]byte(`{"kind":"req","msg":"device_state","msg_data":{"device_id":"d1"}}`))
		if got := msg.DeviceID(); got != "d1" {
			t.Errorf("DeviceID() = %q, want d1", got)
		}
	})

	t.Run("device id as number", func(t *testing.T) {
		msg, _ := Parse([]byte(`{"kind":"req","msg":"device_state","msg_data":{"device_id":0}}`))
		if got := msg.DeviceID(); got != "0" {
			t.Errorf("DeviceID() = %q, want 0", got)
		}
	})

	t.Run("device id absent", func(t *testing.T) {
		msg, _ := Parse([]byte(`{"kind":"req","msg":"device_state"}`))
		if got := msg.DeviceID(); got != "" {
			t.Errorf("DeviceID() = %q, want empty", got)
		}
	})

	t.Run("filter present", func(t *testing.T) {
		msg, _ := Parse([]byte(`{"kind":"req","msg":"available_entities","msg_data":{"filter":{"device_id":"d1","entity_type":"switch"}}}`))
		f := msg.Filter()
		if f == nil {
			t.Fatal("Filter() = nil, want value")
		}
		if f.DeviceID != "d1" || f.EntityType != "switch" {
			t.Errorf("Filter() = %+v", f)
		}
	})

	t.Run("filter absent", func(t *testing.T) {
		msg, _ := Parse([]byte(`{"kind":"req","msg":"available_entities"}`))
		if f := msg.Filter(); f != nil {
			t.Errorf("Filter() = %+v, want nil", f)
		}
	})
}

func TestNewEvent(t *testing.T) {
	ev := NewEvent(MsgDeviceState, DeviceStateData{DeviceID: "d1", State: "CONNECTED"}, CategoryDevice)

	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)

	for _, want := range []string{`"kind":"event"`, `"msg":"device_state"`, `"cat":"DEVICE"`, `"device_id":"d1"`} {
		if !strings.Contains(s, want) {
			t.Errorf("event JSON missing %s: %s", want, s)
		}
	}
	if strings.Contains(s, "req_id") || strings.Contains(s, "code") {
		t.Errorf("event JSON carries correlation fields: %s", s)
	}
	if ev.Ts == 0 {
		t.Error("event timestamp not set")
	}
}

func TestNewResponse(t *testing.T) {
	t.Run("echoes correlation id", func(t *testing.T) {
		resp := NewResponse(MsgAuthentication, 42, nil, CodeOK)

		data, err := json.Marshal(resp)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		s := string(data)
		if !strings.Contains(s, `"req_id":42`) || !strings.Contains(s, `"code":200`) {
			t.Errorf("response JSON = %s", s)
		}
	})

	t.Run("unsolicited sentinel id survives marshalling", func(t *testing.T) {
		resp := NewResponse(MsgAuthentication, UnsolicitedReqID, nil, CodeOK)

		data, _ := json.Marshal(resp)
		if !strings.Contains(string(data), `"req_id":0`) {
			t.Errorf("response JSON dropped sentinel req_id: %s", data)
		}
	})
}
