package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"coinforge/internal/http/handlers"
	"coinforge/internal/middleware"
)

// NewRouter wires the public HTTP surface.
func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()
	r.Use(
		chimw.RealIP,
		chimw.Recoverer,
		middleware.RequestID,
		middleware.Logger(app.Logger),
		middleware.CORS(app.Config.AllowedOrigins),
		middleware.RateLimit(app.Config.RateLimitPerMin, time.Minute),
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/auth", func(r chi.Router) {
		r.Post("/register", app.Register)
		r.Post("/login", app.Login)
	})

	r.Route("/v1/generate", func(r chi.Router) {
		r.Post("/start", app.StartGeneration)
		r.Get("/progress", app.Progress)
		r.Get("/result", app.Result)
		r.Get("/export", app.Export)
	})

	r.Post("/v1/deposits/scan", app.ScanDeposits)
	r.Get("/v1/credits", app.GetCredits)
	r.Get("/v1/files", app.History)

	return r
}
