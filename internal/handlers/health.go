package handlers

import (
	"context"
	"net/http"
	"os"
	"time"

	"propscope/backend-go/internal/models"
)

func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	deps := []string{}
	missing := []string{}
	depsStatus := map[string]models.DepStatus{}
	if err := a.analytics.Health(ctx); err != nil {
		missing = append(missing, "analytics_unreachable")
		depsStatus["analytics"] = models.DepStatus{Ok: false, Error: err.Error()}
	} else {
		deps = append(deps, "analytics")
		depsStatus["analytics"] = models.DepStatus{Ok: true}
	}
	if a.cache != nil {
		if err := a.cache.Ping(ctx); err != nil {
			missing = append(missing, "cache_unreachable")
			depsStatus["cache"] = models.DepStatus{Ok: false, Error: err.Error()}
		} else {
			deps = append(deps, "cache")
			depsStatus["cache"] = models.DepStatus{Ok: true}
		}
	}

	resp := models.HealthResponse{
		Ok:          len(missing) == 0,
		TsISO:       nowISO(),
		Service:     "propscope-backend-go",
		Version:     os.Getenv("SERVICE_VERSION"),
		Deps:        deps,
		DepsStatus:  depsStatus,
		DataMissing: missing,
		Sessions:    a.sessions.Len(),
	}
	writeJSON(w, http.StatusOK, resp)
}
