package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecorders(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.SetSessionsActive(3)
	m.RecordSessionStart("streaming")
	m.RecordSessionStart("streaming")
	m.RecordLoginAttempt("direct", "succeeded")
	m.RecordFrame(20000)
	m.RecordInteraction("click", "ok")
	m.RecordAudit("sqlite", "ok")

	assert.Equal(t, 3.0, testutil.ToFloat64(m.SessionsActive))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SessionStarts.WithLabelValues("streaming")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoginAttempts.WithLabelValues("direct", "succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FramesCaptured))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Interactions.WithLabelValues("click", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuditRecords.WithLabelValues("sqlite", "ok")))
}

func TestMiddlewareLabelsRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics(prometheus.NewRegistry())

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/api/sessions/:userId", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, user := range []string{"u1", "u2"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+user, nil)
		router.ServeHTTP(w, req)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/api/sessions/:userId", "204")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}
