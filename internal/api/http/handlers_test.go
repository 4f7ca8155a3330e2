package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/GriffinCanCode/accessproxy/internal/domain/audit"
	"github.com/GriffinCanCode/accessproxy/internal/domain/session"
	"github.com/GriffinCanCode/accessproxy/internal/domain/stream"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSessions struct {
	mock.Mock
}

func (m *mockSessions) List() []session.Info {
	args := m.Called()
	return args.Get(0).([]session.Info)
}

func (m *mockSessions) Info(userID string) (session.Info, bool) {
	args := m.Called(userID)
	return args.Get(0).(session.Info), args.Bool(1)
}

func (m *mockSessions) Count() int {
	return m.Called().Int(0)
}

func (m *mockSessions) StopSession(userID string) stream.Reply {
	return m.Called(userID).Get(0).(stream.Reply)
}

type mockAccessLog struct {
	mock.Mock
}

func (m *mockAccessLog) Recent(ctx context.Context, actorID string, limit int) ([]audit.Event, error) {
	args := m.Called(ctx, actorID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]audit.Event), args.Error(1)
}

func setupRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h.Register(router.Group("/api"))
	return router
}

func serve(router *gin.Engine, method, path string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestHealth(t *testing.T) {
	sessions := new(mockSessions)
	sessions.On("Count").Return(3)

	h := NewHandlers(sessions, nil, nil)
	h.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

	w, body := serve(setupRouter(h), "GET", "/api/health")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Server is running!", body["message"])
	assert.Equal(t, "2025-03-01T12:00:00.000Z", body["timestamp"])
	assert.Equal(t, float64(3), body["activeBrowserSessions"])
	sessions.AssertExpectations(t)
}

func TestListSessions(t *testing.T) {
	sessions := new(mockSessions)
	sessions.On("List").Return([]session.Info{
		{SessionID: "ses_1", UserID: "alice", PlatformName: "CRM", IdentityName: "Alice"},
		{SessionID: "ses_2", UserID: "bob", PlatformName: "ERP", IdentityName: "Bob"},
	})

	w, body := serve(setupRouter(NewHandlers(sessions, nil, nil)), "GET", "/api/sessions")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), body["count"])
	assert.NotContains(t, w.Body.String(), "password")
	list := body["sessions"].([]any)
	assert.Equal(t, "alice", list[0].(map[string]any)["userId"])
}

func TestGetSession(t *testing.T) {
	sessions := new(mockSessions)
	sessions.On("Info", "alice").Return(session.Info{
		SessionID:    "ses_1",
		UserID:       "alice",
		PlatformName: "CRM",
		IdentityName: "Alice Smith",
		LoggedIn:     true,
	}, true)
	sessions.On("Info", "nobody").Return(session.Info{}, false)

	router := setupRouter(NewHandlers(sessions, nil, nil))

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"existing session", "/api/sessions/alice", http.StatusOK},
		{"unknown user", "/api/sessions/nobody", http.StatusNotFound},
		{"invalid user id", "/api/sessions/bad%20id", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := serve(router, "GET", tt.path)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				sess := body["session"].(map[string]any)
				assert.Equal(t, "CRM", sess["platformName"])
				assert.Equal(t, "Alice Smith", sess["employeeName"])
				assert.Equal(t, true, sess["isLoggedIn"])
			}
		})
	}
}

func TestDeleteSessionIsIdempotent(t *testing.T) {
	stopped := stream.Reply{
		Event:   stream.EventStreamStopped,
		Payload: stream.Ack{Success: true, Message: "Platform streaming stopped"},
	}
	sessions := new(mockSessions)
	sessions.On("StopSession", "alice").Return(stopped).Twice()

	router := setupRouter(NewHandlers(sessions, nil, nil))

	for i := 0; i < 2; i++ {
		w, body := serve(router, "DELETE", "/api/sessions/alice")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "Platform streaming stopped", body["message"])
	}
	sessions.AssertExpectations(t)
}

func TestGetAccessLogs(t *testing.T) {
	events := []audit.Event{{
		ID:         "evt_1",
		ActorID:    "alice",
		PlatformID: "crm",
		Action:     audit.ActionPlatformAccess,
		Outcome:    audit.OutcomeSuccess,
	}}
	logs := new(mockAccessLog)
	logs.On("Recent", mock.Anything, "alice", 10).Return(events, nil)
	logs.On("Recent", mock.Anything, "", defaultAccessLogLimit).Return(events, nil)
	logs.On("Recent", mock.Anything, "", maxAccessLogLimit).Return([]audit.Event{}, nil)
	logs.On("Recent", mock.Anything, "nobody", defaultAccessLogLimit).Return(nil, nil)
	logs.On("Recent", mock.Anything, "broken", defaultAccessLogLimit).Return(nil, errors.New("disk I/O error"))

	router := setupRouter(NewHandlers(new(mockSessions), logs, nil))

	w, body := serve(router, "GET", "/api/access-logs?actorId=alice&limit=10")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["count"])
	entry := body["logs"].([]any)[0].(map[string]any)
	assert.Equal(t, "success", entry["status"])
	assert.Equal(t, "platform_access", entry["action"])

	w, _ = serve(router, "GET", "/api/access-logs")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = serve(router, "GET", "/api/access-logs?limit=100000")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = serve(router, "GET", "/api/access-logs?limit=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = serve(router, "GET", "/api/access-logs?actorId=nobody")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, body["logs"])
	assert.Equal(t, float64(0), body["count"])

	w, _ = serve(router, "GET", "/api/access-logs?actorId=bad%20id")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = serve(router, "GET", "/api/access-logs?actorId=broken")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	logs.AssertExpectations(t)
}

func TestGetAccessLogsWithoutStore(t *testing.T) {
	w, body := serve(setupRouter(NewHandlers(new(mockSessions), nil, nil)), "GET", "/api/access-logs")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, false, body["success"])
}
