package server

import (
	"github.com/go-chi/chi/v5"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	r := s.router

	r.Route("/api", func(r chi.Router) {
		// Session lifecycle
		r.Route("/session", func(r chi.Router) {
			r.Get("/", s.listSessions)
			r.Post("/", s.startSession)

			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", s.getSession)
				r.Delete("/", s.deleteSession)

				r.Get("/status", s.getStatus)
				r.Get("/turns", s.getTurns)

				// Tutoring operations
				r.Get("/explain/{concept}", s.explainConcept)
				r.Post("/hint", s.requestHint)
				r.Post("/feedback", s.codeFeedback)
				r.Post("/stage/next", s.advanceStage)
				r.Post("/challenge", s.createChallenge)
				r.Post("/complete", s.completeSession)
			})
		})
	})

	// Event streaming (SSE); ?sessionID= filters to one session
	r.Get("/event", s.events)

	// Live chat (WebSocket)
	r.Get("/ws/chat/{sessionID}", s.chatSocket)
}
