package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rosterline/rosterauth/internal/handlers"
	"github.com/stretchr/testify/assert"
)

type pinger func(ctx context.Context) error

func (p pinger) HealthCheck(ctx context.Context) error { return p(ctx) }

func up(ctx context.Context) error   { return nil }
func down(ctx context.Context) error { return errors.New("unreachable") }

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		db         handlers.HealthChecker
		cache      handlers.HealthChecker
		wantStatus int
		want       handlers.HealthResponse
	}{
		{"database only", pinger(up), nil, http.StatusOK, handlers.HealthResponse{Status: "healthy", Database: "up"}},
		{"database down", pinger(down), nil, http.StatusServiceUnavailable, handlers.HealthResponse{Status: "unhealthy", Database: "down"}},
		{"cache down", pinger(up), pinger(down), http.StatusOK, handlers.HealthResponse{Status: "degraded", Database: "up", Cache: "down"}},
		{"all up", pinger(up), pinger(up), http.StatusOK, handlers.HealthResponse{Status: "healthy", Database: "up", Cache: "up"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewHealthHandler(tt.db, tt.cache)
			w := httptest.NewRecorder()
			h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			var resp handlers.HealthResponse
			handlers.AssertJSONResponse(t, w, tt.wantStatus, &resp)
			assert.Equal(t, tt.want, resp)
		})
	}
}
