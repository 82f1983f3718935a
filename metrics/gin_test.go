package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureCounter struct {
	mu      sync.Mutex
	records [][]Label
}

func (c *captureCounter) Inc(_ context.Context, labels ...Label) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, append([]Label(nil), labels...))
}

func (c *captureCounter) Add(ctx context.Context, _ float64, labels ...Label) {
	c.Inc(ctx, labels...)
}

type captureHistogram struct {
	values []float64
}

func (h *captureHistogram) Record(_ context.Context, val float64, _ ...Label) {
	h.values = append(h.values, val)
}

func labelValue(labels []Label, key string) string {
	for _, label := range labels {
		if label.Key == key {
			return label.Value
		}
	}
	return ""
}

func newCaptureRouter() (*gin.Engine, *captureCounter, *captureHistogram) {
	gin.SetMode(gin.TestMode)
	counter := &captureCounter{}
	histogram := &captureHistogram{}
	httpMetrics := &HTTPServerMetrics{service: "leaseflake", requestTotal: counter, duration: histogram}

	router := gin.New()
	router.Use(GinHTTPMiddleware(httpMetrics))
	router.GET("/idGen/getIdByAppKey/:appKey", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": 1})
	})
	return router, counter, histogram
}

func TestGinHTTPMiddleware(t *testing.T) {
	t.Run("route template label", func(t *testing.T) {
		router, counter, histogram := newCaptureRouter()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/idGen/getIdByAppKey/order", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		require.Len(t, counter.records, 1)
		assert.Equal(t, "/idGen/getIdByAppKey/:appKey", labelValue(counter.records[0], LabelRoute))
		assert.Equal(t, "2xx", labelValue(counter.records[0], LabelStatusClass))
		assert.Equal(t, OutcomeSuccess, labelValue(counter.records[0], LabelOutcome))
		assert.Len(t, histogram.values, 1)
	})

	t.Run("unmatched path collapses to unknown", func(t *testing.T) {
		router, counter, _ := newCaptureRouter()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/random/scan/value", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
		require.Len(t, counter.records, 1)
		assert.Equal(t, UnknownRoute, labelValue(counter.records[0], LabelRoute))
		assert.Equal(t, OutcomeError, labelValue(counter.records[0], LabelOutcome))
	})

	t.Run("nil metrics passes through", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		router := gin.New()
		router.Use(GinHTTPMiddleware(nil))
		router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestHTTPStatusClassAndOutcome(t *testing.T) {
	tests := []struct {
		status  int
		class   string
		outcome string
	}{
		{status: 200, class: "2xx", outcome: OutcomeSuccess},
		{status: 302, class: "3xx", outcome: OutcomeSuccess},
		{status: 429, class: "4xx", outcome: OutcomeError},
		{status: 500, class: "5xx", outcome: OutcomeError},
		{status: 42, class: "unknown", outcome: OutcomeError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.class, HTTPStatusClass(tt.status))
		assert.Equal(t, tt.outcome, HTTPOutcome(tt.status))
	}
}
