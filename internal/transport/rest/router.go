package rest

import (
	"github.com/go-chi/chi"

	"github.com/frahmantamala/recurrent-payments/internal/transport/middleware"
)

func RegisterAllRoutes(router *chi.Mux, healthHandler *HealthHandler, jobHandler *JobHandler, attemptHandler *AttemptHandler) {
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.RecoveryMiddleware)

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.Health)
		r.Get("/ping", healthHandler.Ping)

		if jobHandler != nil {
			r.Post("/jobs/{name}", jobHandler.RunJob)
		}

		if attemptHandler != nil {
			r.Get("/recurrent-payments/{id}", attemptHandler.GetAttempt)
			r.Get("/multi-payments/{id}/payments", attemptHandler.ListMultiPayment)
		}
	})
}
