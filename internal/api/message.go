package api

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/mweston/remotegate/internal/entity"
)

// Kind discriminates the three frame kinds on the wire.
type Kind string

// Frame kinds.
const (
	KindEvent    Kind = "event"
	KindRequest  Kind = "req"
	KindResponse Kind = "resp"
)

// Category tags events with the layer of the registry tree they
// originate from.
type Category string

// Event categories.
const (
	CategoryDevice Category = "DEVICE"
	CategoryEntity Category = "ENTITY"
)

// Request message names accepted from clients.
const (
	MsgAuth              = "auth"
	MsgDriverVersion     = "driver_version"
	MsgDeviceState       = "device_state"
	MsgAvailableEntities = "available_entities"
)

// Event and response message names sent by the server.
const (
	MsgAuthRequired   = "auth_required"
	MsgAuthentication = "authentication"
	MsgEntityChange   = "entity_change"
)

// UnsolicitedReqID is the correlation id used for responses the server
// initiates on its own (the handshake authentication confirmation).
const UnsolicitedReqID int64 = 0

// Message is one wire frame.
//
// Events carry no correlation id. Requests and responses share a
// correlation id; responses additionally carry an HTTP-style code.
type Message struct {
	Kind    Kind     `json:"kind"`
	Msg     string   `json:"msg"`
	Ts      int64    `json:"ts"`
	MsgData any      `json:"msg_data,omitempty"`
	ReqID   *int64   `json:"req_id,omitempty"`
	Code    int      `json:"code,omitempty"`
	Cat     Category `json:"cat,omitempty"`
}

// AuthRequiredData is the auth_required event payload.
type AuthRequiredData struct {
	Name    string      `json:"name"`
	Version VersionInfo `json:"version"`
}

// VersionInfo reports the protocol and driver versions.
type VersionInfo struct {
	API    string `json:"api"`
	Driver string `json:"driver"`
}

// DriverVersionData is the driver_version response payload.
type DriverVersionData struct {
	Name    string      `json:"name"`
	Version VersionInfo `json:"version"`
}

// DeviceStateData is the device_state event payload.
type DeviceStateData struct {
	DeviceID string `json:"device_id"`
	State    string `json:"state"`
}

// EntityChangeData is the entity_change event payload, carrying a
// bubbled entity event tagged with the owning device.
type EntityChangeData struct {
	DeviceID    string `json:"device_id"`
	EntityID    string `json:"entity_id"`
	EntityEvent string `json:"entity_event"`
	Value       any    `json:"value"`
}

// EntityFilter narrows an available_entities query. Empty fields match
// everything.
type EntityFilter struct {
	DeviceID   string `json:"device_id,omitempty"`
	EntityType string `json:"entity_type,omitempty"`
}

// AvailableEntitiesData is the available_entities response payload.
// The filter is echoed back when the request supplied one.
type AvailableEntitiesData struct {
	AvailableEntities []entity.Projection `json:"available_entities"`
	Filter            *EntityFilter       `json:"filter,omitempty"`
}

// Parse decodes a raw frame into a Message.
//
// A frame that is not well-formed JSON, or whose kind is not one of
// event/req/resp, fails with ErrMalformedFrame. The caller is expected
// to close the connection with a protocol-error code on failure.
func Parse(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
	}

	switch msg.Kind {
	case KindEvent, KindRequest, KindResponse:
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrMalformedFrame, msg.Kind)
	}

	if msg.Msg == "" {
		return nil, fmt.Errorf("%w: missing msg name", ErrMalformedFrame)
	}

	return &msg, nil
}

// NewEvent builds an event frame. The category is optional; pass the
// empty string to omit it.
func NewEvent(msg string, data any, cat Category) Message {
	return Message{
		Kind:    KindEvent,
		Msg:     msg,
		Ts:      time.Now().UnixMilli(),
		MsgData: data,
		Cat:     cat,
	}
}

// NewResponse builds a response frame echoing the given correlation id.
func NewResponse(msg string, reqID int64, data any, code int) Message {
	return Message{
		Kind:    KindResponse,
		Msg:     msg,
		Ts:      time.Now().UnixMilli(),
		MsgData: data,
		ReqID:   &reqID,
		Code:    code,
	}
}

// RequestID returns the frame's correlation id, or the unsolicited
// sentinel when the frame carries none.
func (m *Message) RequestID() int64 {
	if m.ReqID == nil {
		return UnsolicitedReqID
	}
	return *m.ReqID
}

// payload returns the msg_data object, or nil when absent or not an
// object.
func (m *Message) payload() map[string]any {
	md, _ := m.MsgData.(map[string]any) //nolint:errcheck // nil map on mismatch is the desired fallback
	return md
}

// Token extracts the auth request's token payload field.
func (m *Message) Token() string {
	tok, _ := m.payload()["token"].(string) //nolint:errcheck // empty token fails validation downstream
	return tok
}

// DeviceID extracts the device_state request's device id, accepting
// both string ids and bare numbers for compatibility with older hubs.
func (m *Message) DeviceID() string {
	switch v := m.payload()["device_id"].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	default:
		return ""
	}
}

// Filter extracts the available_entities request's optional filter.
// Returns nil when the request did not supply one.
func (m *Message) Filter() *EntityFilter {
	raw, ok := m.payload()["filter"].(map[string]any)
	if !ok {
		return nil
	}

	var f EntityFilter
	f.DeviceID, _ = raw["device_id"].(string)     //nolint:errcheck // absent field matches everything
	f.EntityType, _ = raw["entity_type"].(string) //nolint:errcheck // absent field matches everything
	return &f
}
