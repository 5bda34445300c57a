package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Client API (JSON)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/actions", func(r chi.Router) {
			r.Post("/toggle", s.handleActionToggle)
			r.Post("/toggleAll", s.handleActionToggleAll)
			r.Post("/switch", s.handleActionSwitch)
		})

		r.Post("/input", s.handleInput)
		r.Post("/input/disabled", s.handleInputDisabled)
		r.Post("/server/disabled", s.handleServerDisabled)

		r.Put("/rooms/{roomID}/rules", s.handleUpdateRules)

		r.Route("/home", func(r chi.Router) {
			r.Get("/status", s.handleHomeStatus)
			r.Get("/actions", s.handleHomeActions)
		})

		r.Get("/history/actions", s.handleHistoryActions)
	})

	// Real-time push stream
	r.Get("/ws", s.handleWebSocket)

	// Device protocol (module firmware, plain GET)
	r.Get("/moduleStateUpdate/{roomID}/{actionID}/{toState}", s.handleModuleStateUpdate)
	r.Get("/moduleInput/{roomID}/{actionID}/{value}", s.handleModuleInput)
	r.Get("/moduleUpdate/{ipAddress}", s.handleModuleUpdate)

	return r
}
