package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestInstrumentHandlerRecordsMetrics(t *testing.T) {
	m, err := New()
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	handlerInvoked := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerInvoked = true
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("ok"))
	})

	instrumented := m.InstrumentHandler(handler)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rr := httptest.NewRecorder()

	instrumented.ServeHTTP(rr, req)

	if !handlerInvoked {
		t.Fatal("expected handler to be invoked")
	}
	if rr.Code != http.StatusAccepted {
		t.Fatalf("unexpected status code: %d", rr.Code)
	}

	body := scrape(t, m)
	if !strings.Contains(body, `citypulse_http_requests_total{method="GET",path="/test",status="202"} 1`) {
		t.Fatalf("requests_total metric not recorded, body=%q", body)
	}
	if !strings.Contains(body, `citypulse_http_request_duration_seconds_count{method="GET",path="/test",status="202"} 1`) {
		t.Fatalf("request_duration_seconds_count metric not recorded, body=%q", body)
	}
}

func TestPipelineMetrics(t *testing.T) {
	m, err := New()
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	m.DiscoveryRun(15, 12*time.Second)
	m.DiscoveryFailure("rate_limit")
	m.DiscoveryFailure("")
	m.NewsletterSent()

	body := scrape(t, m)
	for _, want := range []string{
		`citypulse_discovery_runs_total 1`,
		`citypulse_discovery_failures_total{kind="rate_limit"} 1`,
		`citypulse_discovery_failures_total{kind="other"} 1`,
		`citypulse_discovery_events_selected_count 1`,
		`citypulse_newsletter_sent_total 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %q in metrics output", want)
		}
	}
}

func TestNilMetricsIsNoOp(t *testing.T) {
	var m *Metrics
	m.DiscoveryRun(5, time.Second)
	m.DiscoveryFailure("auth")
	m.NewsletterSent()
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected metrics handler to return 200, got %d", rr.Code)
	}
	return rr.Body.String()
}
