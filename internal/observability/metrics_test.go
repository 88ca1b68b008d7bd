package observability

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/api/tickets/:id", http.MethodGet, http.StatusOK, 2*time.Millisecond)
	m.RecordRequest("/api/tickets/:id", http.MethodGet, http.StatusOK, 4*time.Millisecond)
	m.RecordError("/api/tickets/:id", http.MethodDelete, "FORBIDDEN")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/api/tickets/:id|GET|200"])
	assert.Equal(t, int64(1), snap.Errors["/api/tickets/:id|DELETE|FORBIDDEN"])
	assert.Equal(t, int64(2), snap.TotalRequests)
	assert.InDelta(t, 3.0, snap.AvgLatencyMsec, 0.001)

	// The snapshot is a copy.
	snap.Requests["/api/tickets/:id|GET|200"] = 99
	assert.Equal(t, int64(2), m.Snapshot().Requests["/api/tickets/:id|GET|200"])
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", http.MethodGet, http.StatusOK, time.Millisecond)
	m.RecordError("/", http.MethodGet, "X")
	assert.Empty(t, m.Snapshot().Requests)
}

func TestMetricsConcurrent(t *testing.T) {
	m := NewMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordRequest("/health/live", http.MethodGet, http.StatusOK, time.Millisecond)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(50), m.Snapshot().TotalRequests)
}
