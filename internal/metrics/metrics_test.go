package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_DomainCounters(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.ObserveSubmission("accepted")
	c.ObserveSubmission("accepted")
	c.ObserveSubmission("failed")
	c.ObserveModeration("approve")
	c.WSConnected("map")
	c.WSConnected("map")
	c.WSDisconnected("map")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.submissions.WithLabelValues("accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.submissions.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.moderation.WithLabelValues("approve")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.wsOpen.WithLabelValues("map")))
}

func TestMiddleware_LabelsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	r := gin.New()
	r.Use(c.Middleware())
	r.GET("/venues/:id", func(ctx *gin.Context) { ctx.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(Handler(reg)))

	for _, path := range []string{"/venues/a", "/venues/b", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("GET", "/venues/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("GET", "unmatched", "404")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body, _ := io.ReadAll(w.Body)
	assert.Contains(t, string(body), "workspots_http_requests_total")
	assert.Contains(t, string(body), "workspots_http_request_duration_seconds")
}
