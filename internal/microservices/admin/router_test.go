package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rcmd/internal/metrics"
)

type fakeStatus struct {
	connections int
	commands    []string
}

func (f fakeStatus) ConnectionCount() int { return f.connections }
func (f fakeStatus) Commands() []string   { return f.commands }

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHealthz(t *testing.T) {
	router := NewRouter(fakeStatus{connections: 3, commands: []string{"echo"}}, prometheus.NewRegistry())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, 3.0, body["connections"])
	assert.Equal(t, []any{"echo"}, body["commands"])
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	m.ConnectionOpened()

	router := NewRouter(fakeStatus{}, reg)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "rcmd_connections_total 1")
	assert.Contains(t, w.Body.String(), "rcmd_active_connections 1")
}
