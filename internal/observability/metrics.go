package observability

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Metrics is the process-wide registry. It satisfies resolve.Recorder and
// llm.Observer and feeds the HTTP middleware.
type Metrics struct {
	resolutions    *CounterVec
	resolveLatency *HistogramVec
	rejects        *CounterVec
	warnings       *CounterVec
	issues         *CounterVec
	apiRequests    *CounterVec
	apiLatency     *HistogramVec
	apiInflight    *Gauge
	llmRequests    *CounterVec
	llmLatency     *HistogramVec
	cacheLookups   *CounterVec
	batchItems     *CounterVec
	writeMu        sync.Mutex
}

var (
	metricsOnce sync.Once
	metrics     *Metrics
)

// Init returns the shared registry. enabled=false yields nil, and every method
// on a nil *Metrics is a no-op.
func Init(enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	metricsOnce.Do(func() {
		metrics = New()
	})
	return metrics
}

func Current() *Metrics { return metrics }

// New builds an unshared registry. Tests use it directly.
func New() *Metrics {
	return &Metrics{
		resolutions: NewCounterVec(
			"clipfinder_resolutions_total",
			"Resolution runs by outcome and winning tier",
			[]string{"outcome", "tier"},
		),
		resolveLatency: NewHistogramVec(
			"clipfinder_resolution_duration_seconds",
			"Resolution latency by outcome",
			[]string{"outcome"},
			[]float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		),
		rejects: NewCounterVec(
			"clipfinder_candidate_rejects_total",
			"Rejected candidate records by tier and reason",
			[]string{"tier", "reason"},
		),
		warnings: NewCounterVec(
			"clipfinder_segment_warnings_total",
			"Non-fatal segment warnings by code",
			[]string{"code"},
		),
		issues: NewCounterVec(
			"clipfinder_parse_issues_total",
			"Fallback parse issues by tier",
			[]string{"tier"},
		),
		apiRequests: NewCounterVec(
			"clipfinder_api_requests_total",
			"API requests by route, method, and status",
			[]string{"route", "method", "status"},
		),
		apiLatency: NewHistogramVec(
			"clipfinder_api_request_duration_seconds",
			"API request latency",
			[]string{"route", "method"},
			[]float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		),
		apiInflight: NewGauge(
			"clipfinder_api_inflight",
			"In-flight API requests",
		),
		llmRequests: NewCounterVec(
			"clipfinder_llm_requests_total",
			"Chat completion attempts by model and status",
			[]string{"model", "status"},
		),
		llmLatency: NewHistogramVec(
			"clipfinder_llm_request_duration_seconds",
			"Chat completion attempt latency",
			[]string{"model"},
			[]float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		),
		cacheLookups: NewCounterVec(
			"clipfinder_envelope_cache_lookups_total",
			"Envelope cache lookups by result",
			[]string{"result"},
		),
		batchItems: NewCounterVec(
			"clipfinder_batch_items_total",
			"Batch items by outcome",
			[]string{"outcome"},
		),
	}
}

func (m *Metrics) ObserveResolution(outcome, tier string, dur time.Duration) {
	if m == nil {
		return
	}
	m.resolutions.Inc(outcome, tier)
	m.resolveLatency.Observe(dur.Seconds(), outcome)
}

func (m *Metrics) IncReject(tier, reason string) {
	if m == nil {
		return
	}
	m.rejects.Inc(tier, reason)
}

func (m *Metrics) IncWarning(code string) {
	if m == nil {
		return
	}
	m.warnings.Inc(code)
}

func (m *Metrics) IncIssue(tier string) {
	if m == nil {
		return
	}
	m.issues.Inc(tier)
}

func (m *Metrics) ObserveLLMRequest(model, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.llmRequests.Inc(model, status)
	m.llmLatency.Observe(dur.Seconds(), model)
}

func (m *Metrics) IncCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheLookups.Inc("hit")
		return
	}
	m.cacheLookups.Inc("miss")
}

func (m *Metrics) IncBatchItem(outcome string) {
	if m == nil {
		return
	}
	m.batchItems.Inc(outcome)
}

func (m *Metrics) ObserveAPI(route, method string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	m.apiRequests.Inc(route, method, strconv.Itoa(status))
	m.apiLatency.Observe(dur.Seconds(), route, method)
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.resolutions,
		m.resolveLatency,
		m.rejects,
		m.warnings,
		m.issues,
		m.apiRequests,
		m.apiLatency,
		m.apiInflight,
		m.llmRequests,
		m.llmLatency,
		m.cacheLookups,
		m.batchItems,
	}
	for _, mw := range writers {
		if err := mw.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	if m == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(buf.Bytes())
}
