package api

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	m.observe("artsy", "GET", "2xx", 10*time.Millisecond)
	m.observe("artsy", "GET", "2xx", 20*time.Millisecond)
	m.observe("imagga", "POST", OutcomeTransport, time.Second)
	m.observe("artsy", "GET", OutcomeCacheHit, 0)

	if got := testutil.ToFloat64(m.requests.WithLabelValues("artsy", "GET", "2xx")); got != 2 {
		t.Errorf("Expected 2 artsy 2xx, got %v", got)
	}
	if got := testutil.CollectAndCount(m.requests); got != 3 {
		t.Errorf("Expected 3 request series, got %d", got)
	}
	// cache hits never reach the network and are not timed
	if got := testutil.CollectAndCount(m.duration); got != 2 {
		t.Errorf("Expected 2 duration series, got %d", got)
	}

	path := filepath.Join(t.TempDir(), "artlens.prom")
	if err := m.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `artlens_requests_total{method="GET",outcome="2xx",service="artsy"} 2`) {
		t.Errorf("Unexpected metrics file:\n%s", data)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.observe("artsy", "GET", "2xx", time.Millisecond)
}

func TestStatusOutcome(t *testing.T) {
	for code, want := range map[int]string{200: "2xx", 204: "2xx", 404: "4xx", 503: "5xx"} {
		if got := statusOutcome(code); got != want {
			t.Errorf("statusOutcome(%d) = %q, want %q", code, got, want)
		}
	}
}
