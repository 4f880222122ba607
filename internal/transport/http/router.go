package http

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"
)

type RouterConfig struct {
	RPS     float64
	Burst   int
	Metrics http.Handler
}

// NewRouter mounts the API under /api. /health and /metrics stay at the root
// and are not rate limited. CORS wraps the router so preflight requests are
// answered before route matching.
func NewRouter(h *Handler, cfg RouterConfig, logger *slog.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.Use(NewRateLimiter(rate.Limit(cfg.RPS), cfg.Burst, logger).Middleware)

	api.HandleFunc("/", h.Root).Methods(http.MethodGet)
	api.HandleFunc("/videos", h.GetVideos).Methods(http.MethodGet)
	api.HandleFunc("/videos/history", h.GetHistory).Methods(http.MethodGet)
	api.HandleFunc("/subscribe", h.Subscribe).Methods(http.MethodPost)
	api.HandleFunc("/subscriptions", h.ListSubscriptions).Methods(http.MethodGet)
	api.HandleFunc("/deliver-daily", h.DeliverDaily).Methods(http.MethodPost)
	api.HandleFunc("/deliveries/{id}", h.GetDelivery).Methods(http.MethodGet)
	api.HandleFunc("/sources", h.GetSources).Methods(http.MethodGet)

	return Logging(logger)(CORS(r))
}
