package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/rentledger/backend/internal/infrastructure/metrics"
)

func TestHTTPMetrics_NilIsNoop(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(HTTPMetrics(nil))
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestHTTPMetrics_RecordsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := metrics.NewMetrics()

	router := gin.New()
	router.Use(HTTPMetrics(m))
	router.GET("/api/v1/bills/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/bills/abc", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	count := testutil.ToFloat64(
		m.RequestsTotal().WithLabelValues(http.MethodGet, "/api/v1/bills/:id", "200"),
	)
	assert.Equal(t, 3.0, count)
}

func TestHTTPMetrics_UnmatchedRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := metrics.NewMetrics()

	router := gin.New()
	router.Use(HTTPMetrics(m))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/no/such/route", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	count := testutil.ToFloat64(
		m.RequestsTotal().WithLabelValues(http.MethodGet, "unknown", "404"),
	)
	assert.Equal(t, 1.0, count)
}

func TestHTTPMetrics_ErrorStatusLabel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := metrics.NewMetrics()

	router := gin.New()
	router.Use(HTTPMetrics(m))
	router.POST("/api/v1/bills", func(c *gin.Context) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bills", nil)
	router.ServeHTTP(w, req)

	count := testutil.ToFloat64(
		m.RequestsTotal().WithLabelValues(http.MethodPost, "/api/v1/bills", "422"),
	)
	assert.Equal(t, 1.0, count)
}

func TestRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/whatever", nil)

	// A context without a matched route reports the fallback pattern.
	assert.Equal(t, "unknown", routePattern(c))
}
