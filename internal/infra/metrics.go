package infra

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "aplos_sidecar"

// NewRegistry はGoランタイム・プロセスのコレクタを登録したレジストリを生成する。
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// MetricsHandler はPrometheusメトリクスを返すハンドラ。
func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Metrics はサイドカーのメトリクスを保持する。
// nil の場合は全ての記録操作が何もしない。
type Metrics struct {
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	PerimeterRejected prometheus.Counter
	RateLimited       prometheus.Counter
	DecryptTotal      *prometheus.CounterVec
	UpstreamTotal     *prometheus.CounterVec
	UpstreamDuration  prometheus.Histogram
}

// NewMetrics はメトリクスを生成してレジストリに登録する。
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status_code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status_code"}),
		PerimeterRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "perimeter_rejections_total",
			Help:      "Requests rejected by the network perimeter check.",
		}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-caller rate limiter.",
		}),
		DecryptTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "decrypt_total",
			Help:      "Decrypt attempts by outcome and padding scheme.",
		}, []string{"result", "scheme"}),
		UpstreamTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Aplos auth requests by status.",
		}, []string{"status"}),
		UpstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Duration of Aplos auth requests in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.PerimeterRejected,
		m.RateLimited,
		m.DecryptTotal,
		m.UpstreamTotal,
		m.UpstreamDuration,
	)
	return m
}

// ObserveRequest はHTTPリクエストを記録する。
func (m *Metrics) ObserveRequest(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, route, status).Inc()
	m.RequestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}

// IncPerimeterRejected は境界制御による拒否を記録する。
func (m *Metrics) IncPerimeterRejected() {
	if m == nil {
		return
	}
	m.PerimeterRejected.Inc()
}

// IncRateLimited はレート制限による拒否を記録する。
func (m *Metrics) IncRateLimited() {
	if m == nil {
		return
	}
	m.RateLimited.Inc()
}

// ObserveDecrypt は復号結果を記録する。
func (m *Metrics) ObserveDecrypt(result, scheme string) {
	if m == nil {
		return
	}
	m.DecryptTotal.WithLabelValues(result, scheme).Inc()
}

func (m *Metrics) observeUpstream(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamTotal.WithLabelValues(status).Inc()
	m.UpstreamDuration.Observe(d.Seconds())
}
