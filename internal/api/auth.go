package api

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mweston/remotegate/internal/infrastructure/config"
)

// Gate validates session credentials.
//
// With no configured tokens and JWT disabled, authentication is off and
// every session starts authenticated. Otherwise a credential must match
// one of the static tokens, or (when JWT mode is on) be a valid
// HS256-signed token for the configured secret.
type Gate struct {
	tokens     map[string]struct{}
	jwtEnabled bool
	jwtSecret  []byte
}

// NewGate builds a Gate from the auth configuration.
func NewGate(cfg config.AuthConfig) *Gate {
	tokens := make(map[string]struct{}, len(cfg.Tokens))
	for _, t := range cfg.Tokens {
		if t != "" {
			tokens[t] = struct{}{}
		}
	}

	return &Gate{
		tokens:     tokens,
		jwtEnabled: cfg.JWT.Enabled,
		jwtSecret:  []byte(cfg.JWT.Secret),
	}
}

// Required reports whether sessions must present a credential.
func (g *Gate) Required() bool {
	return len(g.tokens) > 0 || g.jwtEnabled
}

// Validate checks a credential against the static token set and, when
// enabled, the JWT secret.
func (g *Gate) Validate(token string) bool {
	if !g.Required() {
		return true
	}
	if token == "" {
		return false
	}

	if _, ok := g.tokens[token]; ok {
		return true
	}

	if g.jwtEnabled {
		return g.validateJWT(token)
	}

	return false
}

// validateJWT verifies an HS256 signature against the configured secret.
// Claims beyond the registered expiry/not-before set are not inspected.
func (g *Gate) validateJWT(token string) bool {
	parsed, err := jwt.Parse(token, func(_ *jwt.Token) (any, error) {
		return g.jwtSecret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return false
	}
	return parsed.Valid
}

// FromRequest checks the upgrade request for a handshake credential.
//
// Two header forms are recognised: the hub's API-KEY header and a
// standard Authorization bearer token.
func (g *Gate) FromRequest(r *http.Request) bool {
	if !g.Required() {
		return true
	}

	if key := r.Header.Get("API-KEY"); key != "" {
		return g.Validate(key)
	}

	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return g.Validate(strings.TrimPrefix(auth, "Bearer "))
	}

	return false
}
