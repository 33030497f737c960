package http

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"propscope/backend-go/internal/config"
	"propscope/backend-go/internal/dashboard"
	"propscope/backend-go/internal/handlers"
	"propscope/backend-go/internal/services"
)

func NewRouter(cfg config.Config, cache services.Cache, analytics handlers.Analytics, sessions *dashboard.SessionStore, log logrus.FieldLogger) http.Handler {
	api := handlers.New(cfg, cache, analytics, sessions, log)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/health", api.Health)
	mux.HandleFunc("GET /api/v1/props", api.Props)
	mux.HandleFunc("POST /api/v1/search", api.Search)
	mux.HandleFunc("GET /api/v1/filters", api.Filters)
	mux.HandleFunc("POST /api/v1/filters/apply", api.ApplyFilters)
	mux.HandleFunc("POST /api/v1/filters/reset", api.ResetFilters)
	mux.HandleFunc("POST /api/v1/filters/draft", api.EditFilters)
	mux.HandleFunc("DELETE /api/v1/filters/draft", api.DiscardFilterDraft)
	mux.HandleFunc("POST /api/v1/filters/draft/toggle", api.ToggleFilter)
	mux.HandleFunc("POST /api/v1/filters/draft/check-all", api.CheckAllFilters)
	mux.HandleFunc("POST /api/v1/filters/draft/apply", api.ApplyFilterDraft)
	mux.HandleFunc("GET /api/v1/panels/{id}", api.Panel)
	mux.HandleFunc("POST /api/v1/panels/{id}/toggle", api.TogglePanel)
	mux.HandleFunc("POST /api/v1/panels/{id}/timeframe", api.SelectTimeframe)
	mux.HandleFunc("POST /api/v1/panels/{id}/close", api.ClosePanel)
	mux.HandleFunc("GET /api/v1/stream", api.StreamPanels)
	mux.HandleFunc("POST /api/v1/upload", api.Upload)

	h := http.Handler(mux)
	h = withRecovery(log)(h)
	h = withLogging(log)(h)
	h = withRateLimit(cfg.RateLimitPerMin)(h)
	h = withCORS(h)
	return h
}
