package api

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// sendBufferSize is the per-session outbound message buffer size.
// A full buffer means a slow client; frames are dropped rather than
// blocking fan-out to other sessions.
const sendBufferSize = 256

// writeWait is the deadline applied to every outbound write.
const writeWait = 10 * time.Second

// Session is one logical remote connection.
//
// Liveness and authentication are the only protocol state a session
// carries. Send and Close never propagate transport errors to the
// caller; failures go to the server's error callback.
type Session struct {
	id       string
	addr     string
	clientID string
	conn     *websocket.Conn
	send     chan []byte

	mu            sync.Mutex
	alive         bool
	authenticated bool
	authPending   bool
	closed        bool
	closeCode     int

	onError func(err error)
}

// newSession wraps an accepted connection. The client id is the peer's
// logical identity (forwarded-for or remote IP), one session per
// client; the initial authenticated state comes from the handshake
// credential check.
func newSession(conn *websocket.Conn, addr, clientID string, authenticated bool, onError func(error)) *Session {
	return &Session{
		id:            uuid.NewString(),
		addr:          addr,
		clientID:      clientID,
		conn:          conn,
		send:          make(chan []byte, sendBufferSize),
		alive:         true,
		authenticated: authenticated,
		closeCode:     websocket.CloseNormalClosure,
		onError:       onError,
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Addr returns the peer address the session was accepted from.
func (s *Session) Addr() string { return s.addr }

// ClientID returns the peer's logical identity used for duplicate
// detection.
func (s *Session) ClientID() string { return s.clientID }

// Authenticated reports whether the session may issue general requests.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// setAuthenticated marks the session authenticated. A session is never
// downgraded; a failed re-auth leaves prior state intact.
func (s *Session) setAuthenticated() {
	s.mu.Lock()
	s.authenticated = true
	s.mu.Unlock()
}

// beginAuth claims the session's single auth-in-flight slot. It returns
// false when another auth request is already being processed.
func (s *Session) beginAuth() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.authPending {
		return false
	}
	s.authPending = true
	return true
}

// endAuth releases the auth-in-flight slot.
func (s *Session) endAuth() {
	s.mu.Lock()
	s.authPending = false
	s.mu.Unlock()
}

// markAlive records a pong from the peer.
func (s *Session) markAlive() {
	s.mu.Lock()
	s.alive = true
	s.mu.Unlock()
}

// checkAndClearAlive returns the liveness flag and clears it, so the
// next heartbeat tick sees false unless a pong arrives in between.
func (s *Session) checkAndClearAlive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	alive := s.alive
	s.alive = false
	return alive
}

// isAlive returns the liveness flag without clearing it.
func (s *Session) isAlive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alive
}

// Send serializes a message and queues it for the write pump.
//
// Failures (marshal errors, a full buffer, a closed session) are
// reported through the error callback and never returned to the caller.
func (s *Session) Send(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.reportError(fmt.Errorf("session %s: marshal %s: %w", s.id, msg.Msg, err))
		return
	}
	s.trySend(data)
}

// trySend queues raw bytes without blocking. It absorbs the
// send-on-closed-channel panic that can race a concurrent unregister.
func (s *Session) trySend(data []byte) {
	defer func() {
		recover() //nolint:errcheck // Absorb send-on-closed-channel panic
	}()

	select {
	case s.send <- data:
	default:
		s.reportError(fmt.Errorf("session %s: send buffer full, frame dropped", s.id))
	}
}

// Ping sends a control-frame ping. WriteControl is safe to call
// concurrently with the write pump.
func (s *Session) Ping() error {
	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// setCloseCode records the close code the write pump will send once the
// send channel drains. Set before unregistering so queued responses
// reach the peer ahead of the close frame.
func (s *Session) setCloseCode(code int) {
	s.mu.Lock()
	s.closeCode = code
	s.mu.Unlock()
}

func (s *Session) getCloseCode() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCode
}

// Close sends a close frame with the given code and tears down the
// connection immediately, bypassing the write pump. Only for sessions
// refused before their pump starts; repeat calls are no-ops.
func (s *Session) Close(code int) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	deadline := time.Now().Add(writeWait)
	payload := websocket.FormatCloseMessage(code, "")
	if err := s.conn.WriteControl(websocket.CloseMessage, payload, deadline); err != nil {
		s.reportError(fmt.Errorf("session %s: close frame: %w", s.id, err))
	}
	if err := s.conn.Close(); err != nil {
		s.reportError(fmt.Errorf("session %s: close: %w", s.id, err))
	}
}

// writePump drains the send channel onto the connection. When the
// channel is closed by unregister it writes the close frame carrying
// the session's close code, so queued frames always land first.
func (s *Session) writePump() {
	defer s.conn.Close() //nolint:errcheck // Connection is going away regardless

	for data := range s.send {
		//nolint:errcheck // Best-effort deadline; write error caught below
		s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.reportError(fmt.Errorf("session %s: write: %w", s.id, err))
			return
		}
	}

	payload := websocket.FormatCloseMessage(s.getCloseCode(), "")
	//nolint:errcheck // Best-effort; the peer may already be gone
	s.conn.WriteControl(websocket.CloseMessage, payload, time.Now().Add(writeWait))
}

// reportError forwards a transport failure to the server callback.
func (s *Session) reportError(err error) {
	if s.onError != nil {
		s.onError(err)
	}
}
