package api_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/wiki-index-sync/internal/api"
	"github.com/stacklok/wiki-index-sync/internal/api/mocks"
	"github.com/stacklok/wiki-index-sync/internal/status"
)

func serve(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	rr := serve(t, api.NewServer(nil), "/health")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp api.HealthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
}

func TestReadinessEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		storeErr       error
		indexErr       error
		expectedStatus int
		expectedState  string
		expectedChecks map[string]string
	}{
		{
			name:           "all backends reachable",
			expectedStatus: http.StatusOK,
			expectedState:  "ready",
			expectedChecks: map[string]string{"store": "ok", "index": "ok"},
		},
		{
			name:           "store down",
			storeErr:       errors.New("connection refused"),
			expectedStatus: http.StatusServiceUnavailable,
			expectedState:  "not ready",
			expectedChecks: map[string]string{"store": "connection refused", "index": "ok"},
		},
		{
			name:           "index down",
			indexErr:       errors.New("database is locked"),
			expectedStatus: http.StatusServiceUnavailable,
			expectedState:  "not ready",
			expectedChecks: map[string]string{"store": "ok", "index": "database is locked"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)

			store := mocks.NewMockPinger(ctrl)
			store.EXPECT().Ping(gomock.Any()).Return(tt.storeErr)
			index := mocks.NewMockPinger(ctrl)
			index.EXPECT().Ping(gomock.Any()).Return(tt.indexErr)

			server := api.NewServer(nil,
				api.WithReadinessCheck("store", store),
				api.WithReadinessCheck("index", index),
			)
			rr := serve(t, server, "/readiness")
			assert.Equal(t, tt.expectedStatus, rr.Code)

			var resp api.ReadinessResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.expectedState, resp.Status)
			assert.Equal(t, tt.expectedChecks, resp.Checks)
		})
	}
}

func TestVersionEndpoint(t *testing.T) {
	t.Parallel()

	rr := serve(t, api.NewServer(nil), "/version")
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	for _, field := range []string{"version", "commit", "build_date", "go_version", "platform"} {
		assert.NotEmpty(t, resp[field], field)
	}
}

func TestStatusEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("no scheduler", func(t *testing.T) {
		t.Parallel()
		rr := serve(t, api.NewServer(nil), "/v1/status")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("lists jobs", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		provider := mocks.NewMockStatusProvider(ctrl)
		provider.EXPECT().Statuses(gomock.Any()).Return(map[string]*status.SyncStatus{
			"main": {
				Phase:    status.SyncPhaseSyncing,
				RunID:    "run-1",
				Progress: &status.Progress{Done: 5, Total: 10, Percent: 50},
			},
		})

		rr := serve(t, api.NewServer(provider), "/v1/status")
		require.Equal(t, http.StatusOK, rr.Code)

		var resp api.StatusResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Contains(t, resp.Jobs, "main")
		assert.Equal(t, status.SyncPhaseSyncing, resp.Jobs["main"].Phase)
		assert.InDelta(t, 50, resp.Jobs["main"].Progress.Percent, 0.001)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	rr := serve(t, api.NewServer(nil), "/metrics")
	assert.Equal(t, http.StatusNotFound, rr.Code, "not mounted without a handler")

	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("index_sync_actions_total 1\n"))
	})
	rr = serve(t, api.NewServer(nil, api.WithMetricsHandler(metrics)), "/metrics")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "index_sync_actions_total")
}

func TestMiddlewaresApplied(t *testing.T) {
	t.Parallel()

	var seen bool
	mark := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = true
			next.ServeHTTP(w, r)
		})
	}
	server := api.NewServer(nil, api.WithMiddlewares(middleware.RequestID, mark, api.LoggingMiddleware))

	rr := serve(t, server, "/health")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, seen)
}
