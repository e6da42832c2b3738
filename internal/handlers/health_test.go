// internal/handlers/health_test.go
package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/gestor-be/internal/handlers"
	"github.com/ammerola/gestor-be/test/helpers"
	"github.com/ammerola/gestor-be/test/mocks"
)

func TestHealthHandler_Health(t *testing.T) {
	tests := []struct {
		name           string
		dbErr          error
		cacheErr       error
		expectedStatus int
		expectedHealth string
	}{
		{name: "all_healthy", expectedStatus: http.StatusOK, expectedHealth: "healthy"},
		{name: "cache_down_is_degraded", cacheErr: errors.New("connection refused"), expectedStatus: http.StatusOK, expectedHealth: "degraded"},
		{name: "database_down", dbErr: errors.New("connection refused"), expectedStatus: http.StatusServiceUnavailable, expectedHealth: "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			db := mocks.NewMockDatabase(ctrl)
			cache := mocks.NewMockCacheRepository(ctrl)

			db.EXPECT().Ping(gomock.Any()).Return(tt.dbErr)
			if tt.dbErr == nil {
				db.EXPECT().Health(gomock.Any()).Return(map[string]any{"total_conns": 4})
			}
			cache.EXPECT().Ping(gomock.Any()).Return(tt.cacheErr)

			h := handlers.NewHealthHandler(db, cache, nil, "1.0.0", "test", helpers.TestLogger())
			w := httptest.NewRecorder()
			h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)

			var status handlers.HealthStatus
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
			assert.Equal(t, tt.expectedHealth, status.Status)
			assert.Equal(t, "1.0.0", status.Version)
			assert.Contains(t, status.Services, "database")
			assert.Contains(t, status.Services, "cache")
		})
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := mocks.NewMockDatabase(ctrl)
	db.EXPECT().Ping(gomock.Any()).Return(errors.New("starting up"))

	h := handlers.NewHealthHandler(db, nil, nil, "dev", "test", helpers.TestLogger())
	w := httptest.NewRecorder()
	h.Readiness(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"ready":false`)
}
