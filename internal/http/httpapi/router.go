package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"wallclient/internal/http/handlers"
	"wallclient/internal/infra"
	"wallclient/internal/middleware"
)

func NewRouter(app *handlers.App, cfg *infra.Config, logger infra.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		middleware.RequestID,
		chimw.Recoverer,
		middleware.Logger(logger),
		middleware.I18N(cfg.DefaultLocale),
	)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", "X-Locale"},
			ExposedHeaders:   []string{"X-Request-ID", "Content-Language"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", app.Health)
	r.Get("/", app.Index)
	r.Handle("/static/*", handlers.Static())

	r.Route("/ui", func(r chi.Router) {
		r.With(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute)).Post("/jobs", app.SubmitJob)
		r.Get("/state", app.JobState)
		r.Get("/gallery", app.GalleryFragment)
		r.Get("/events", app.Events)
	})

	return r
}
