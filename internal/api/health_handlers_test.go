package api

import (
	"log/slog"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	body := decodeBody[HealthResponse](t, resp)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "healthy", body.Components["database"].Status)
	assert.Equal(t, "healthy", body.Components["search"].Status)
	assert.Equal(t, "0 documents", body.Components["search"].Message)
}

func TestHealthCheck_DegradedWithoutDependencies(t *testing.T) {
	s := NewServer(nil, nil, &Services{}, Options{}, slog.New(slog.DiscardHandler))
	api := humatest.Wrap(t, s.api)

	resp := api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	body := decodeBody[HealthResponse](t, resp)
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "database not configured", body.Components["database"].Message)
	assert.Equal(t, "search disabled", body.Components["search"].Message)
}

func TestCORS_Preflight(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Do(http.MethodOptions, "/api/v1/books",
		"Origin: http://localhost:5173",
		"Access-Control-Request-Method: GET",
	)
	assert.Equal(t, "http://localhost:5173", resp.Header().Get("Access-Control-Allow-Origin"))
}
