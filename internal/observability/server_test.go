package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_Health(t *testing.T) {
	tests := []struct {
		name     string
		health   HealthFunc
		wantCode int
		wantBody string
	}{
		{"no check", nil, http.StatusOK, `"status":"up"`},
		{"healthy", func(context.Context) error { return nil }, http.StatusOK, `"status":"up"`},
		{"unhealthy", func(context.Context) error { return errors.New("database locked") }, http.StatusServiceUnavailable, `"error":"database locked"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewServer(":0", tt.health).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestServer_Metrics(t *testing.T) {
	FilesTotal.WithLabelValues(OutcomeReflected).Inc()

	rec := httptest.NewRecorder()
	NewServer(":0", nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `phpdoc_files_total{outcome="reflected"}`)
}

func TestServer_StopWithoutStart(t *testing.T) {
	assert.NoError(t, NewServer(":0", nil).Stop(context.Background()))
}
