package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mweston/remotegate/internal/entity"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)

	// Integration WebSocket endpoint (auth via header or auth request)
	r.Get(s.wsCfg.Path, s.handleIntegration)

	// Read-only REST mirror
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/entities", s.handleEntities)
	})

	return r
}

// handleHealth reports the server health, actively pinging the
// optional MQTT mirror and InfluxDB sink. An unhealthy sink degrades
// the overall status but does not fail the endpoint; the gateway keeps
// serving sessions without them.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"

	mirror := "disabled"
	if s.mirror != nil {
		mirror = "ok"
		if err := s.mirror.HealthCheck(r.Context()); err != nil {
			mirror = err.Error()
			status = "degraded"
		}
	}

	sink := "disabled"
	if s.sink != nil {
		sink = "ok"
		if err := s.sink.HealthCheck(r.Context()); err != nil {
			sink = err.Error()
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   status,
		"version":  s.cfg.Integration.Version.Driver,
		"devices":  s.registry.Count(),
		"sessions": s.SessionCount(),
		"mqtt":     mirror,
		"influxdb": sink,
	})
}

// handleEntities mirrors the available_entities query for local
// tooling. Filters come from device_id and entity_type query params.
func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	deviceID := r.URL.Query().Get("device_id")
	entityType := r.URL.Query().Get("entity_type")

	if entityType != "" && !entity.ValidType(entity.Type(entityType)) {
		writeError(w, http.StatusBadRequest, "bad_request", "unknown entity type")
		return
	}

	entities := s.registry.Entities(deviceID, entity.Type(entityType))
	projections := make([]entity.Projection, 0, len(entities))
	for _, e := range entities {
		projections = append(projections, e.Format(s.cfg.Integration.Language))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entities": projections,
	})
}
