package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gateway/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestSystemHandler_Health(t *testing.T) {
	tests := []struct {
		name     string
		ping     error
		status   int
		expected string
	}{
		{"healthy", nil, http.StatusOK, "healthy"},
		{"database down", errors.New("connection refused"), http.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSystemHandler("API Gateway", "1.0.0", pingerFunc(func(context.Context) error { return tt.ping }))
			router := gin.New()
			router.GET("/health", h.Health)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.status, w.Code)
			var resp HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.expected, resp.Status)
		})
	}
}

func TestSystemHandler_Info(t *testing.T) {
	h := NewSystemHandler("API Gateway", "1.2.3", pingerFunc(func(context.Context) error { return nil }))
	router := gin.New()
	router.GET("/system/info", h.GetSystemInfo)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/system/info", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	info, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "API Gateway", info["name"])
	assert.Equal(t, "1.2.3", info["version"])
}

func TestSystemHandler_HealthOverDatabase(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
