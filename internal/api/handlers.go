package api

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mweston/remotegate/internal/entity"
)

// upgrader configures the WebSocket upgrader.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// The hub is not a browser; origin checks do not apply.
		return true
	},
}

// handleIntegration upgrades the connection and runs the session loop.
//
// Authentication is decided at accept time from the handshake headers;
// an unauthenticated session gets an auth_required event and must send
// a valid auth request before anything else is processed.
func (s *Server) handleIntegration(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err, "addr", r.RemoteAddr)
		return
	}

	sess := newSession(conn, r.RemoteAddr, clientIdentity(r), s.gate.FromRequest(r), s.onError)

	if !s.registerSession(sess) {
		s.logger.Warn("duplicate session refused", "client_id", sess.ClientID(), "addr", sess.Addr())
		sess.Close(CloseProtocolError)
		return
	}

	s.logger.Info("session opened",
		"session_id", sess.ID(),
		"client_id", sess.ClientID(),
		"addr", sess.Addr(),
		"authenticated", sess.Authenticated(),
	)

	go sess.writePump()

	if sess.Authenticated() {
		sess.Send(NewResponse(MsgAuthentication, UnsolicitedReqID, nil, CodeOK))
	} else {
		sess.Send(NewEvent(MsgAuthRequired, AuthRequiredData{
			Name: s.cfg.Integration.Name,
			Version: VersionInfo{
				API:    s.cfg.Integration.Version.API,
				Driver: s.cfg.Integration.Version.Driver,
			},
		}, ""))
	}

	s.readLoop(sess)
}

// clientIdentity resolves the peer's logical identity for duplicate
// detection: the first X-Forwarded-For hop when the hub connects
// through a proxy, otherwise the remote IP. Port numbers are excluded
// so reconnects from the same client map to the same identity.
func clientIdentity(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, found := strings.Cut(fwd, ","); found {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(fwd)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// readLoop consumes frames from the session until the connection
// closes or a protocol violation ends it.
func (s *Server) readLoop(sess *Session) {
	defer func() {
		s.terminateSession(sess, websocket.CloseNormalClosure)
		s.logger.Info("session closed", "session_id", sess.ID(), "addr", sess.Addr())
	}()

	sess.conn.SetReadLimit(int64(s.wsCfg.MaxMessageSize))

	// A peer must pong within one heartbeat cycle plus the pong grace
	// period, or the blocked read unblocks with a deadline error.
	readWait := s.pingInterval + s.pongTimeout
	//nolint:errcheck // Best-effort deadline; a dead conn fails the read below
	sess.conn.SetReadDeadline(time.Now().Add(readWait))
	sess.conn.SetPongHandler(func(string) error {
		sess.markAlive()
		//nolint:errcheck // Same as above
		sess.conn.SetReadDeadline(time.Now().Add(readWait))
		return nil
	})

	for {
		_, raw, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket read error", "session_id", sess.ID(), "error", err)
			}
			return
		}

		msg, err := Parse(raw)
		if err != nil {
			s.logger.Warn("malformed frame, closing session", "session_id", sess.ID(), "error", err)
			s.terminateSession(sess, CloseProtocolError)
			return
		}

		if !s.dispatch(sess, msg) {
			return
		}
	}
}

// dispatch routes one parsed frame. It returns false when the session
// has been terminated and the read loop should exit.
func (s *Server) dispatch(sess *Session, msg *Message) bool {
	if !sess.Authenticated() {
		return s.handlePreAuth(sess, msg)
	}

	if msg.Kind != KindRequest {
		// Events and responses from the hub carry nothing the core acts
		// on; they are ignored rather than treated as violations.
		s.logger.Debug("ignoring non-request frame", "session_id", sess.ID(), "kind", msg.Kind, "msg", msg.Msg)
		return true
	}

	switch msg.Msg {
	case MsgAuth:
		s.handleAuth(sess, msg)
	case MsgDriverVersion:
		s.handleDriverVersion(sess, msg)
	case MsgDeviceState:
		s.handleDeviceState(sess, msg)
	case MsgAvailableEntities:
		s.handleAvailableEntities(sess, msg)
	default:
		sess.Send(NewResponse(msg.Msg, msg.RequestID(), nil, CodeNotFound))
	}
	return true
}

// handlePreAuth processes frames on a not-yet-authenticated session.
// Only an auth request is acceptable; anything else ends the session
// with an auth-error close code.
func (s *Server) handlePreAuth(sess *Session, msg *Message) bool {
	if msg.Kind != KindRequest || msg.Msg != MsgAuth {
		s.logger.Warn("frame before authentication, closing session",
			"session_id", sess.ID(), "kind", msg.Kind, "msg", msg.Msg)
		s.terminateSession(sess, CloseAuthError)
		return false
	}

	if !sess.beginAuth() {
		sess.Send(NewResponse(MsgAuthentication, msg.RequestID(), nil, CodeConflict))
		return true
	}
	defer sess.endAuth()

	if !s.gate.Validate(msg.Token()) {
		sess.Send(NewResponse(MsgAuthentication, msg.RequestID(), nil, CodeUnauthorized))
		s.terminateSession(sess, CloseAuthError)
		return false
	}

	sess.setAuthenticated()
	sess.Send(NewResponse(MsgAuthentication, msg.RequestID(), nil, CodeOK))
	s.logger.Info("session authenticated", "session_id", sess.ID(), "addr", sess.Addr())
	return true
}

// handleAuth processes an auth request on an already-authenticated
// session. A valid token confirms with 200 again; an invalid one gets
// 401 but never downgrades the session.
func (s *Server) handleAuth(sess *Session, msg *Message) {
	if !sess.beginAuth() {
		sess.Send(NewResponse(MsgAuthentication, msg.RequestID(), nil, CodeConflict))
		return
	}
	defer sess.endAuth()

	code := CodeOK
	if !s.gate.Validate(msg.Token()) {
		code = CodeUnauthorized
	}
	sess.Send(NewResponse(MsgAuthentication, msg.RequestID(), nil, code))
}

// handleDriverVersion answers with the integration name and versions.
func (s *Server) handleDriverVersion(sess *Session, msg *Message) {
	sess.Send(NewResponse(MsgDriverVersion, msg.RequestID(), DriverVersionData{
		Name: s.cfg.Integration.Name,
		Version: VersionInfo{
			API:    s.cfg.Integration.Version.API,
			Driver: s.cfg.Integration.Version.Driver,
		},
	}, CodeOK))
}

// defaultDeviceID is assumed when a device_state request names no
// device.
const defaultDeviceID = "0"

// handleDeviceState answers a device_state query. A known device is
// reported with a device_state event frame; an unknown one gets a
// not-found response.
func (s *Server) handleDeviceState(sess *Session, msg *Message) {
	deviceID := msg.DeviceID()
	if deviceID == "" {
		deviceID = defaultDeviceID
	}

	d, err := s.registry.Get(deviceID)
	if err != nil {
		sess.Send(NewResponse(MsgDeviceState, msg.RequestID(), nil, CodeNotFound))
		return
	}

	sess.Send(NewEvent(MsgDeviceState, DeviceStateData{
		DeviceID: d.ID(),
		State:    string(d.State()),
	}, CategoryDevice))
}

// handleAvailableEntities answers an available_entities query, echoing
// the filter when the request supplied one.
func (s *Server) handleAvailableEntities(sess *Session, msg *Message) {
	filter := msg.Filter()

	var deviceID string
	var entityType entity.Type
	if filter != nil {
		deviceID = filter.DeviceID
		entityType = entity.Type(filter.EntityType)
	}

	entities := s.registry.Entities(deviceID, entityType)
	projections := make([]entity.Projection, 0, len(entities))
	for _, e := range entities {
		projections = append(projections, e.Format(s.cfg.Integration.Language))
	}

	sess.Send(NewResponse(MsgAvailableEntities, msg.RequestID(), AvailableEntitiesData{
		AvailableEntities: projections,
		Filter:            filter,
	}, CodeOK))
}
