package handlers

import (
	"context"
	"net/http"
	"time"

	pkghttp "github.com/rosterline/rosterauth/pkg/http"
)

// HealthChecker pings a backing store.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type HealthHandler struct {
	database HealthChecker
	cache    HealthChecker // nil when revocations live in Postgres
}

func NewHealthHandler(database, cache HealthChecker) *HealthHandler {
	return &HealthHandler{database: database, cache: cache}
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache,omitempty"`
}

// Health handles GET /health. Redis being down degrades but does not fail the check.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "healthy", Database: "up"}
	status := http.StatusOK

	if err := h.database.HealthCheck(ctx); err != nil {
		resp.Status = "unhealthy"
		resp.Database = "down"
		status = http.StatusServiceUnavailable
	}

	if h.cache != nil {
		resp.Cache = "up"
		if err := h.cache.HealthCheck(ctx); err != nil {
			resp.Cache = "down"
			if status == http.StatusOK {
				resp.Status = "degraded"
			}
		}
	}

	pkghttp.WriteJSON(w, status, resp)
}
