package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T, c *Collector) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := c.Registry().Gather()
	require.NoError(t, err)

	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		byName[f.GetName()] = f
	}
	return byName
}

func TestCollector_RecordsIntoOwnRegistry(t *testing.T) {
	c := NewCollector("test")
	other := NewCollector("test")

	c.ObserveStore("save", time.Now(), nil)
	c.ObserveStore("save", time.Now(), errors.New("boom"))
	c.CacheHit()
	c.CacheMiss()
	c.CacheMiss()
	c.AddConnections("keyword", 3)
	c.AddConnections("keyword", 0)

	families := gather(t, c)
	require.Contains(t, families, "test_store_operations_total")
	assert.Len(t, families["test_store_operations_total"].GetMetric(), 2)
	assert.Equal(t, 1.0, families["test_cache_hits_total"].GetMetric()[0].GetCounter().GetValue())
	assert.Equal(t, 2.0, families["test_cache_misses_total"].GetMetric()[0].GetCounter().GetValue())
	assert.Equal(t, 3.0, families["test_connections_derived_total"].GetMetric()[0].GetCounter().GetValue())

	assert.Equal(t, 0.0, gather(t, other)["test_cache_hits_total"].GetMetric()[0].GetCounter().GetValue())
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("test")
	c.EventPublished("document.created", nil)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `test_events_published_total{status="ok",type="document.created"} 1`)

	// a second handler on the same registry must not panic on re-registration
	assert.NotPanics(t, func() { c.Handler() })
}

func TestCollector_Nil(t *testing.T) {
	var c *Collector
	assert.Nil(t, c.Registry())
	assert.NotPanics(t, func() {
		c.ObserveHTTP("GET", "/", "200", time.Millisecond)
		c.ObserveStore("save", time.Now(), nil)
		c.CacheHit()
		c.EventPublished("x", nil)
	})

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
