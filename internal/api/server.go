package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mweston/remotegate/internal/bus"
	"github.com/mweston/remotegate/internal/device"
	"github.com/mweston/remotegate/internal/entity"
	"github.com/mweston/remotegate/internal/infrastructure/config"
	"github.com/mweston/remotegate/internal/infrastructure/influxdb"
	"github.com/mweston/remotegate/internal/infrastructure/logging"
	"github.com/mweston/remotegate/internal/infrastructure/mqtt"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// lifecycle states for the integration server.
type lifecycleState int

const (
	stateStopped lifecycleState = iota
	stateStarting
	stateListening
)

// Deps holds the dependencies required by the integration server.
type Deps struct {
	Config   *config.Config
	Logger   *logging.Logger
	Registry *device.Registry
	Mirror   *mqtt.Client     // optional state mirror
	Sink     *influxdb.Client // optional telemetry sink
	OnError  func(err error)  // optional transport error callback
}

// Server is the integration gateway server.
//
// It owns the device registry subscriptions and the session registry,
// runs the heartbeat scheduler, and fans device and entity events out
// to every live, authenticated session.
type Server struct {
	cfg      *config.Config
	wsCfg    config.WebSocketConfig
	logger   *logging.Logger
	gate     *Gate
	registry *device.Registry
	mirror   *mqtt.Client
	sink     *influxdb.Client
	onError  func(err error)

	// pingInterval and pongTimeout are resolved from config at
	// construction so tests can shorten them before Start. A session's
	// read deadline is pingInterval + pongTimeout: one full heartbeat
	// cycle plus the pong grace period.
	pingInterval time.Duration
	pongTimeout  time.Duration

	mu       sync.Mutex
	state    lifecycleState
	listener net.Listener
	server   *http.Server
	cancel   context.CancelFunc

	sessionMu sync.RWMutex
	sessions  map[string]*Session

	subMu sync.Mutex
	subs  map[string]*bus.Subscription
}

// New creates a new integration server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("device registry is required")
	}

	s := &Server{
		cfg:          deps.Config,
		wsCfg:        deps.Config.WebSocket,
		logger:       deps.Logger,
		gate:         NewGate(deps.Config.Auth),
		registry:     deps.Registry,
		mirror:       deps.Mirror,
		sink:         deps.Sink,
		onError:      deps.OnError,
		pingInterval: deps.Config.WebSocket.GetPingInterval(),
		pongTimeout:  deps.Config.WebSocket.GetPongTimeout(),
		sessions:     make(map[string]*Session),
		subs:         make(map[string]*bus.Subscription),
	}

	if s.onError == nil {
		s.onError = func(err error) {
			s.logger.Warn("transport error", "error", err)
		}
	}

	s.registry.SetLogger(deps.Logger)

	return s, nil
}

// Start binds the listener and begins the heartbeat scheduler.
//
// Binding happens synchronously: if the port is taken, Start returns
// the error and the server stays stopped. Calling Start on a listening
// server is a no-op.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateStopped {
		return nil
	}
	s.state = stateStarting

	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		s.state = stateStopped
		return fmt.Errorf("%w: %w", ErrBindFailed, err)
	}
	s.listener = listener

	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	// HTTP timeouts only govern the REST mirror; the WebSocket upgrade
	// hijacks the connection and clears its deadlines.
	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("integration server error", "error", err)
		}
	}()

	go s.heartbeatLoop(srvCtx)

	s.state = stateListening
	s.logger.Info("integration server listening",
		"address", listener.Addr().String(),
		"path", s.wsCfg.Path,
		"auth_required", s.gate.Required(),
	)
	return nil
}

// Stop halts the heartbeat scheduler, closes every session, and
// releases the listener. Idempotent when already stopped.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateStopped {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	s.closeAllSessions()

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("integration server shutting down")
	err := s.server.Shutdown(ctx)
	s.state = stateStopped
	if err != nil {
		return fmt.Errorf("shutting down integration server: %w", err)
	}
	return nil
}

// Addr returns the bound listener address, or "" when stopped. Useful
// when the configured port is 0.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Listening reports whether the server is accepting connections.
func (s *Server) Listening() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateListening
}

// AddDevice registers a device and subscribes to its wildcard channel
// so state changes anywhere in its entity tree reach the sessions.
//
// Fails with device.ErrDeviceExists when the id is already registered.
func (s *Server) AddDevice(d *device.Device) error {
	if err := s.registry.Add(d); err != nil {
		return err
	}

	sub := d.Events().Subscribe(bus.Wildcard, func(value any) {
		env, ok := value.(bus.Envelope)
		if !ok {
			return
		}
		s.onDeviceEvent(env)
	})

	s.subMu.Lock()
	s.subs[d.ID()] = sub
	s.subMu.Unlock()

	return nil
}

// RemoveDevice unsubscribes from the device and deletes it from the
// registry. Fails with device.ErrDeviceNotFound when absent.
func (s *Server) RemoveDevice(d *device.Device) error {
	if err := s.registry.Remove(d.ID()); err != nil {
		return err
	}

	s.subMu.Lock()
	if sub, ok := s.subs[d.ID()]; ok {
		sub.Cancel()
		delete(s.subs, d.ID())
	}
	s.subMu.Unlock()

	return nil
}

// onDeviceEvent converts a device wildcard envelope into protocol
// events and mirrors it to the optional sinks.
func (s *Server) onDeviceEvent(env bus.Envelope) {
	switch ev := env.Value.(type) {
	case device.StateEvent:
		s.broadcast(NewEvent(MsgDeviceState, DeviceStateData{
			DeviceID: ev.Device.ID(),
			State:    string(ev.State),
		}, CategoryDevice))
		s.mirrorDeviceState(ev)

	case device.EntityEvent:
		s.broadcast(NewEvent(MsgEntityChange, EntityChangeData{
			DeviceID:    ev.DeviceID,
			EntityID:    ev.Entity.ID(),
			EntityEvent: ev.Event,
			Value:       ev.Value,
		}, CategoryEntity))
		s.mirrorEntityEvent(ev)
	}
}

// broadcast fans an event out to every live, authenticated session.
// Eligibility is checked per send at fan-out time.
func (s *Server) broadcast(msg Message) {
	s.sessionMu.RLock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.sessionMu.RUnlock()

	sent := 0
	for _, sess := range sessions {
		if sess.isAlive() && sess.Authenticated() {
			sess.Send(msg)
			sent++
		}
	}
	if sent > 0 {
		s.logger.Debug("event fan-out", "msg", msg.Msg, "recipients", sent)
	}
}

// mirrorDeviceState publishes a device transition to the optional
// MQTT mirror and telemetry sink.
func (s *Server) mirrorDeviceState(ev device.StateEvent) {
	if s.mirror != nil {
		payload, err := json.Marshal(map[string]string{"state": string(ev.State)})
		if err == nil {
			topic := mqtt.Topics{}.DeviceState(ev.Device.ID())
			if err := s.mirror.PublishRetained(topic, payload); err != nil {
				s.logger.Warn("state mirror publish failed", "topic", topic, "error", err)
			}
		}
	}
	if s.sink != nil {
		s.sink.WriteDeviceStatus(ev.Device.ID(), string(ev.State))
	}
}

// mirrorEntityEvent publishes a bubbled entity event to the optional
// MQTT mirror, and numeric sensor values to the telemetry sink.
func (s *Server) mirrorEntityEvent(ev device.EntityEvent) {
	if s.mirror != nil {
		payload, err := json.Marshal(map[string]any{
			"event": ev.Event,
			"value": ev.Value,
		})
		if err == nil {
			topic := mqtt.Topics{}.EntityState(ev.DeviceID, ev.Entity.ID())
			if err := s.mirror.PublishRetained(topic, payload); err != nil {
				s.logger.Warn("state mirror publish failed", "topic", topic, "error", err)
			}
		}
	}

	if s.sink != nil && ev.Event == entity.EventValue {
		if v, ok := numericValue(ev.Value); ok {
			class := ev.Entity.DeviceClass()
			s.sink.WriteSensorValue(ev.DeviceID, ev.Entity.ID(), string(class), v, entity.DefaultUnit(class))
		}
	}
}

// numericValue coerces a sensor reading to float64 for the telemetry
// sink. Non-numeric readings are skipped.
func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// heartbeatLoop runs the global liveness check: on each tick, sessions
// that missed the previous interval are evicted, everyone else has the
// flag cleared and receives a ping.
func (s *Server) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pingSessions()
		}
	}
}

// pingSessions performs one heartbeat tick.
func (s *Server) pingSessions() {
	s.sessionMu.RLock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.sessionMu.RUnlock()

	for _, sess := range sessions {
		if !sess.checkAndClearAlive() {
			s.logger.Info("session missed heartbeat, evicting", "session_id", sess.ID(), "addr", sess.Addr())
			s.terminateSession(sess, websocket.CloseGoingAway)
			continue
		}
		if err := sess.Ping(); err != nil {
			s.onError(fmt.Errorf("session %s: ping: %w", sess.ID(), err))
		}
	}
}

// registerSession adds a session to the registry. It fails when a
// session for the same client identity already exists, so one client
// holds at most one live session.
func (s *Server) registerSession(sess *Session) bool {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()
	if _, exists := s.sessions[sess.ClientID()]; exists {
		return false
	}
	s.sessions[sess.ClientID()] = sess
	return true
}

// terminateSession removes a session from the registry and closes its
// send channel, which makes the write pump drain any queued frames and
// then send a close frame with the given code. Only the goroutine that
// wins the map delete closes the channel and sets the code, so repeat
// terminations cannot double-close or overwrite an earlier code.
func (s *Server) terminateSession(sess *Session, code int) {
	s.sessionMu.Lock()
	existed := s.sessions[sess.ClientID()] == sess
	if existed {
		delete(s.sessions, sess.ClientID())
	}
	s.sessionMu.Unlock()

	if existed {
		sess.setCloseCode(code)
		close(sess.send)
	}
}

// closeAllSessions tears down every registered session during shutdown.
func (s *Server) closeAllSessions() {
	s.sessionMu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.sessionMu.Unlock()

	for _, sess := range sessions {
		sess.setCloseCode(websocket.CloseGoingAway)
		close(sess.send)
	}
}

// SessionCount returns the number of registered sessions.
func (s *Server) SessionCount() int {
	s.sessionMu.RLock()
	defer s.sessionMu.RUnlock()
	return len(s.sessions)
}
