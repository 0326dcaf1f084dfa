package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/metrics"
)

func TestPrometheus_Invocations(t *testing.T) {
	m := metrics.New()

	m.InvocationStarted("explicit")
	m.InvocationFinished("explicit", "completed", 2, 1500*time.Millisecond)
	m.InvocationStarted("auto")
	m.InvocationFinished("auto", "failed", 1, 10*time.Millisecond)

	expected := `
# HELP kiln_invocations_total Count of build invocations by trigger and final phase
# TYPE kiln_invocations_total counter
kiln_invocations_total{phase="completed",trigger="explicit"} 1
kiln_invocations_total{phase="failed",trigger="auto"} 1
kiln_invocations_total{phase="started",trigger="auto"} 1
kiln_invocations_total{phase="started",trigger="explicit"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "kiln_invocations_total"))

	count, err := testutil.GatherAndCount(m.Registry(), "kiln_invocation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPrometheus_Units(t *testing.T) {
	m := metrics.New()

	m.UnitFinished("app/exec", "built", time.Second)
	m.UnitFinished("app/exec", "built", time.Second)
	m.UnitFinished("lib/exec", "failed", time.Second)
	m.SetRunning(3)

	expected := `
# HELP kiln_unit_results_total Count of build unit outcomes
# TYPE kiln_unit_results_total counter
kiln_unit_results_total{builder="app/exec",outcome="built"} 2
kiln_unit_results_total{builder="lib/exec",outcome="failed"} 1
# HELP kiln_unit_running Units currently holding a scheduling rule
# TYPE kiln_unit_running gauge
kiln_unit_running 3
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"kiln_unit_results_total", "kiln_unit_running"))
}

func TestPrometheus_Handler(t *testing.T) {
	m := metrics.New()
	m.SetRunning(1)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "kiln_unit_running 1")
}
