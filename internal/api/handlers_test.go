package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indoor-position-engine/internal/config"
	"indoor-position-engine/internal/services"
)

func testServer() *Server {
	logger := zerolog.Nop()
	presenceService := services.NewPresenceService(nil, nil, logger)
	return New(config.HTTPConfig{Host: "127.0.0.1", Port: 0}, nil, presenceService, nil, logger)
}

func TestHealthz(t *testing.T) {
	server := testServer()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	server.Engine().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	server := testServer()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	server.Engine().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestGetPresence_UnknownDevice(t *testing.T) {
	server := testServer()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/devices/dev-1/presence", nil)
	server.Engine().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	// No buildings loaded: the device has an empty presence list.
	assert.JSONEq(t, `{"device_id":"dev-1","buildings":[]}`, rec.Body.String())
}

func TestUpsertAnchor_InvalidPayload(t *testing.T) {
	server := testServer()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/anchors", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	server.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
