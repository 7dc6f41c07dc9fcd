package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/leeforge/logfactory/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestCollector_Counters(t *testing.T) {
	c := NewCollector()
	labels := map[string]string{"channel": "Root", "level": "info"}

	c.IncCounter("hits", labels)
	c.AddCounter("hits", 2, map[string]string{"level": "info", "channel": "Root"})

	m, ok := c.GetMetric("hits", labels)
	require.True(t, ok)
	assert.Equal(t, "counter", m.Type)
	assert.Equal(t, float64(3), m.Value)

	c.SetGauge("loggers", 4, nil)
	g, ok := c.GetMetric("loggers", nil)
	require.True(t, ok)
	assert.Equal(t, float64(4), g.Value)

	c.Reset()
	assert.Empty(t, c.GetMetrics())
}

func TestCollector_RecordHook(t *testing.T) {
	c := NewCollector()
	hook := c.RecordHook()

	require.NoError(t, hook(zapcore.Entry{LoggerName: "Root", Level: zapcore.InfoLevel}))
	require.NoError(t, hook(zapcore.Entry{LoggerName: "Root", Level: zapcore.InfoLevel}))
	require.NoError(t, hook(zapcore.Entry{LoggerName: "Billing", Level: zapcore.ErrorLevel}))

	m, ok := c.GetMetric(RecordsTotal, map[string]string{"channel": "Root", "level": "info"})
	require.True(t, ok)
	assert.Equal(t, float64(2), m.Value)

	m, ok = c.GetMetric(RecordsTotal, map[string]string{"channel": "Billing", "level": "error"})
	require.True(t, ok)
	assert.Equal(t, float64(1), m.Value)
}

func TestMetricsHandler(t *testing.T) {
	c := NewCollector()
	c.IncCounter(RecordsTotal, map[string]string{"channel": "Root", "level": "debug"})

	rec := httptest.NewRecorder()
	NewMetricsHandler(c).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]Metric
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	m, ok := body["log_records_total:channel=Root:level=debug"]
	require.True(t, ok)
	assert.Equal(t, float64(1), m.Value)
}
