package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/pihub/internal/panel"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/sensors", s.handleListSensors)
		r.Get("/sensors/{family}", s.handleGetFamily)
		r.Patch("/sensors/{family}/{key}", s.handleUpdateSensorMeta)

		r.Get("/relays", s.handleListRelays)
		r.Post("/relay/state", s.handleSetRelayState)
	})

	// Dashboard at the root, embedded unless panel_dir points at a
	// filesystem copy.
	r.Handle("/*", panel.Handler(s.cfg.PanelDir))

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
