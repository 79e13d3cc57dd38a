package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blog-comments-api/internal/metrics"
)

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("generates an id", func(t *testing.T) {
		router := gin.New()
		router.Use(RequestID())

		var captured string
		router.GET("/test", func(c *gin.Context) {
			captured = GetRequestID(c)
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		id := w.Header().Get(RequestIDHeader)
		assert.Len(t, id, 36)
		assert.Equal(t, id, captured)
	})

	t.Run("keeps the client id", func(t *testing.T) {
		router := gin.New()
		router.Use(RequestID())
		router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, "client-id-1")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "client-id-1", w.Header().Get(RequestIDHeader))
	})

	t.Run("empty when unset or wrong type", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		assert.Empty(t, GetRequestID(c))

		c.Set(RequestIDKey, 42)
		assert.Empty(t, GetRequestID(c))
	})
}

func TestModerator(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Moderator())

	var captured string
	router.GET("/admin", func(c *gin.Context) {
		captured = GetModerator(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(ModeratorHeader, "  Gabi@Example.com ")
	router.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "gabi@example.com", captured)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Empty(t, captured)
}

func TestModerator_IgnoresOverlongHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Moderator())

	captured := "unset"
	var present bool
	router.GET("/admin", func(c *gin.Context) {
		captured = GetModerator(c)
		_, present = c.Get(ModeratorKey)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(ModeratorHeader, strings.Repeat("a", 330)+"@example.com")
	router.ServeHTTP(httptest.NewRecorder(), req)

	assert.Empty(t, captured)
	assert.False(t, present)
}

func TestMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("records requests", func(t *testing.T) {
		router := gin.New()
		router.Use(Metrics())
		router.POST("/v1/posts/:post_id/comments", func(c *gin.Context) {
			c.Status(http.StatusCreated)
		})

		counter := metrics.HTTPRequestsTotal.WithLabelValues("POST", "/v1/posts/:post_id/comments", "201")
		before := testutil.ToFloat64(counter)
		inFlight := testutil.ToFloat64(metrics.HTTPRequestsInFlight)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/posts/p1/comments", nil))
		require.Equal(t, http.StatusCreated, w.Code)

		assert.Equal(t, before+1, testutil.ToFloat64(counter))
		assert.Equal(t, inFlight, testutil.ToFloat64(metrics.HTTPRequestsInFlight))
	})

	t.Run("labels unmatched routes", func(t *testing.T) {
		router := gin.New()
		router.Use(Metrics())

		counter := metrics.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")
		before := testutil.ToFloat64(counter)

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))
		assert.Equal(t, before+1, testutil.ToFloat64(counter))
	})

	t.Run("skips the metrics endpoint", func(t *testing.T) {
		router := gin.New()
		router.Use(Metrics())
		router.GET("/metrics", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

		counter := metrics.HTTPRequestsTotal.WithLabelValues("GET", "/metrics", "200")
		before := testutil.ToFloat64(counter)

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, before, testutil.ToFloat64(counter))
	})
}
