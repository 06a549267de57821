package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordBuildExposesCountersAndGauges(t *testing.T) {
	p := NewPrometheus()
	p.RecordBuild(250*time.Millisecond, 12, 3, 1, false)
	p.RecordBuild(100*time.Millisecond, 12, 0, 0, true)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "doctool_builds_total 2")
	assert.Contains(t, body, "doctool_builds_failed_total 1")
	assert.Contains(t, body, "doctool_pages 12")
	assert.Contains(t, body, "doctool_stale_pages 0")
	assert.Contains(t, body, "doctool_build_duration_seconds_count 2")
}

func TestNoopIsSafe(t *testing.T) {
	var r Recorder = Noop{}
	r.RecordBuild(time.Second, 1, 1, 0, false)
}
