package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig holds the HTTP middleware settings.
type RouterConfig struct {
	AllowedOrigins     []string
	RateLimitPerSecond int
	RequestTimeout     time.Duration
}

// Routes builds the chi router for the API.
func (h *Handler) Routes(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Admin-Token", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/", h.Health)
	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if cfg.RateLimitPerSecond > 0 {
			r.Use(httprate.LimitByIP(cfg.RateLimitPerSecond, time.Second))
		}

		r.Get("/players", h.ListPlayers)
		r.Get("/years", h.ListYears)
		r.Get("/player/{name}", h.GetPlayer)
		r.Get("/player/{name}/shots", h.GetPlayerShots)
		r.Post("/player/shots/page", h.GetShotPage)
		r.Post("/player/shots/bins", h.GetShotBins)
		r.Post("/compare", h.Compare)
		r.Post("/predict_shot", h.PredictShot)
		r.Post("/predict_grid", h.PredictGrid)

		r.With(h.AdminAuthMiddleware).Post("/system/install", h.InstallDatabase)
	})

	return r
}
