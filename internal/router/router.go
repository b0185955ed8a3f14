package router

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/deanDev5200/web-aspirasi/internal/handler"
	"github.com/deanDev5200/web-aspirasi/internal/metrics"
	mw "github.com/deanDev5200/web-aspirasi/internal/middleware"
)

const maxBodyBytes = 1 << 20

type Options struct {
	Origins        []string
	RequestTimeout time.Duration
}

func New(
	opts Options,
	aspH *handler.AspirasiHandler,
	authH *handler.AuthHandler,
	healthH *handler.HealthHandler,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)
	r.Use(metrics.Instrument)
	r.Use(mw.CORS(opts.Origins))

	r.Get("/healthz", healthH.Health)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(chimw.RequestSize(maxBodyBytes))
		if opts.RequestTimeout > 0 {
			r.Use(chimw.Timeout(opts.RequestTimeout))
		}

		// Submissions
		r.Get("/aspirasi", aspH.List)
		r.Post("/aspirasi", aspH.Create)
		r.Get("/aspirasi/stats/overview", aspH.Stats)
		r.Get("/aspirasi/{id}", aspH.Get)
		r.Put("/aspirasi/{id}", aspH.UpdateStatus)
		r.Delete("/aspirasi/{id}", aspH.Delete)

		// Auth
		r.Post("/auth/login", authH.Login)
		r.Post("/auth/change-password", authH.ChangePassword)
		r.Get("/auth/profile", authH.Profile)
	})

	return r
}
