package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/accessproxy/internal/infrastructure/config"
	"github.com/GriffinCanCode/accessproxy/internal/providers/browser/browsertest"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Logging.Development = true
	cfg.Stream.CaptureInterval = 20 * time.Millisecond
	cfg.Stream.NavigationTimeout = time.Second
	cfg.Stream.SettleDelay = 10 * time.Millisecond
	cfg.Stream.InteractionDelay = time.Millisecond
	cfg.Audit.DBPath = filepath.Join(t.TempDir(), "audit.db")
	return cfg
}

func startTestServer(t *testing.T) (*Server, *httptest.Server, *browsertest.Launcher) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	launcher := &browsertest.Launcher{}
	s, err := newServer(testConfig(t), zap.NewNop(), launcher, prometheus.NewRegistry())
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, s.Shutdown(ctx))
	})
	return s, ts, launcher
}

func getJSON(t *testing.T, url string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func readUntil(t *testing.T, conn *websocket.Conn, want string) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var f frame
		require.NoError(t, conn.ReadJSON(&f), "waiting for %s", want)
		if f.Type == want {
			return f
		}
	}
}

func TestHealthEndpoint(t *testing.T) {
	_, ts, _ := startTestServer(t)

	status, body := getJSON(t, ts.URL+"/api/health")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Server is running!", body["message"])
	assert.Equal(t, float64(0), body["activeBrowserSessions"])
}

func TestUnknownRoute(t *testing.T) {
	_, ts, _ := startTestServer(t)

	status, body := getJSON(t, ts.URL+"/nope")

	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Route /nope not found", body["message"])
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts, _ := startTestServer(t)

	getJSON(t, ts.URL+"/api/health")

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `accessproxy_http_requests_total{method="GET",path="/api/health",status="200"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestStreamingSessionEndToEnd(t *testing.T) {
	_, ts, launcher := startTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type": "start-session",
		"data": map[string]any{
			"userId":    "alice",
			"platform":  map[string]any{"id": "crm", "name": "CRM", "url": "crm.example.com"},
			"identity":  map[string]any{"id": "emp-1", "displayName": "Alice Smith"},
			"autoLogin": false,
		},
	}))

	started := readUntil(t, conn, "stream-started")
	assert.JSONEq(t, `{"success":true,"message":"Platform streaming started successfully"}`, string(started.Data))

	shot := readUntil(t, conn, "screenshot")
	assert.Contains(t, string(shot.Data), "data:image/jpeg;base64,")

	require.NotNil(t, launcher.Last())
	assert.Contains(t, launcher.Last().Actions(), "navigate:https://crm.example.com")

	status, body := getJSON(t, ts.URL+"/api/sessions/alice")
	require.Equal(t, http.StatusOK, status)
	sess := body["session"].(map[string]any)
	assert.Equal(t, "CRM", sess["platformName"])
	assert.Equal(t, "Alice Smith", sess["employeeName"])

	_, body = getJSON(t, ts.URL+"/api/health")
	assert.Equal(t, float64(1), body["activeBrowserSessions"])

	status, body = getJSON(t, ts.URL+"/api/access-logs?actorId=emp-1")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, float64(1), body["count"])
	entry := body["logs"].([]any)[0].(map[string]any)
	assert.Equal(t, "crm", entry["platformId"])
	assert.Equal(t, "success", entry["status"])

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/sessions/alice", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, launcher.Last().Closed())

	status, _ = getJSON(t, ts.URL+"/api/sessions/alice")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestNewServerRejectsBadSelectorsFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Login.SelectorsFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := newServer(cfg, zap.NewNop(), &browsertest.Launcher{}, prometheus.NewRegistry())
	assert.ErrorContains(t, err, "load login selectors")
}
