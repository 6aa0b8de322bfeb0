package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes Prometheus metrics for inbound HTTP requests and
// discovery pipeline activity. A nil *Metrics is a no-op.
type Metrics struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	discoveryRuns     prometheus.Counter
	discoveryFailures *prometheus.CounterVec
	discoveryDuration prometheus.Histogram
	eventsSelected    prometheus.Histogram
	newslettersSent   prometheus.Counter
}

// New constructs a collector with default histograms/counters.
func New() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "citypulse",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution for inbound HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "citypulse",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of inbound HTTP requests.",
	}, []string{"method", "path", "status"})

	discoveryRuns := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "citypulse",
		Subsystem: "discovery",
		Name:      "runs_total",
		Help:      "Total number of completed discovery runs.",
	})

	discoveryFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "citypulse",
		Subsystem: "discovery",
		Name:      "failures_total",
		Help:      "Discovery run failures by classified kind.",
	}, []string{"kind"})

	discoveryDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "citypulse",
		Subsystem: "discovery",
		Name:      "run_duration_seconds",
		Help:      "Latency distribution for discovery runs.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
	})

	eventsSelected := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "citypulse",
		Subsystem: "discovery",
		Name:      "events_selected",
		Help:      "Number of events selected per discovery run.",
		Buckets:   []float64{0, 4, 8, 12, 16, 20},
	})

	newslettersSent := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "citypulse",
		Subsystem: "newsletter",
		Name:      "sent_total",
		Help:      "Total number of newsletters delivered.",
	})

	for _, c := range []prometheus.Collector{
		requestDuration, requestTotal,
		discoveryRuns, discoveryFailures, discoveryDuration,
		eventsSelected, newslettersSent,
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return &Metrics{
		registry:          registry,
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		discoveryRuns:     discoveryRuns,
		discoveryFailures: discoveryFailures,
		discoveryDuration: discoveryDuration,
		eventsSelected:    eventsSelected,
		newslettersSent:   newslettersSent,
	}, nil
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler to record HTTP metrics.
func (m *Metrics) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.status)
		path := r.URL.Path

		m.requestTotal.WithLabelValues(r.Method, path, status).Inc()
		m.requestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

// DiscoveryRun records one completed run.
func (m *Metrics) DiscoveryRun(selected int, duration time.Duration) {
	if m == nil {
		return
	}
	m.discoveryRuns.Inc()
	m.discoveryDuration.Observe(duration.Seconds())
	m.eventsSelected.Observe(float64(selected))
}

// DiscoveryFailure records a failed run by classified kind.
func (m *Metrics) DiscoveryFailure(kind string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "other"
	}
	m.discoveryFailures.WithLabelValues(kind).Inc()
}

// NewsletterSent records one delivered newsletter.
func (m *Metrics) NewsletterSent() {
	if m == nil {
		return
	}
	m.newslettersSent.Inc()
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
