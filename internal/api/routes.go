package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Get("/openings", s.handleOpenings)
	r.Get("/openings/recommended", s.handleRecommended)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleStartSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleEndSession)
			r.Post("/moves", s.handleSubmitMove)
			r.Post("/interaction", s.handleInteraction)
			r.Post("/actions", s.handleRequestAction)
			r.Post("/rating", s.handleSubmitRating)
			r.Post("/rating/skip", s.handleSkipRating)
			r.Post("/reset", s.handleResetSession)
		})
	})

	r.Get("/history", s.handleHistory)
	r.Get("/progress/{openingID}", s.handleGetProgress)
	r.Delete("/progress/{openingID}", s.handleResetProgress)
	return r
}
