package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	jobmetrics "github.com/odyssey-erp/prospector/internal/jobs"
)

// Metrics collects the Prometheus metrics exported by the dashboard and worker.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	datasetsLoaded  *prometheus.CounterVec
	companiesLoaded prometheus.Counter
	narratives      *prometheus.CounterVec
	reports         *prometheus.CounterVec
	reportCompanies prometheus.Histogram
	jobs            *jobmetrics.Metrics
}

// NewMetrics initialises the registry and every collector.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "prospector_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "prospector_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	datasets := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "prospector_datasets_loaded_total",
		Help: "Workbook uploads by outcome.",
	}, []string{"outcome"})
	companies := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "prospector_companies_loaded_total",
		Help: "Company rows accepted from uploaded workbooks.",
	})
	narratives := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "prospector_narratives_total",
		Help: "Narrative requests by outcome (ok or fallback).",
	}, []string{"outcome"})
	reports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "prospector_reports_rendered_total",
		Help: "Rendered PDF reports, split by whether narratives were requested.",
	}, []string{"narratives"})
	reportCompanies := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "prospector_report_companies",
		Help:    "Companies included per rendered report.",
		Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
	})
	registry.MustRegister(
		requests, duration, datasets, companies, narratives, reports, reportCompanies,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		datasetsLoaded:  datasets,
		companiesLoaded: companies,
		narratives:      narratives,
		reports:         reports,
		reportCompanies: reportCompanies,
		jobs:            jobmetrics.NewMetrics(registry),
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Registerer exposes the registry for custom collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

// Jobs returns the background job collectors bound to this registry.
func (m *Metrics) Jobs() *jobmetrics.Metrics {
	if m == nil {
		return nil
	}
	return m.jobs
}

// ObserveDataset counts one upload attempt.
func (m *Metrics) ObserveDataset(ok bool, companies int) {
	if m == nil {
		return
	}
	if !ok {
		m.datasetsLoaded.WithLabelValues("rejected").Inc()
		return
	}
	m.datasetsLoaded.WithLabelValues("loaded").Inc()
	m.companiesLoaded.Add(float64(companies))
}

// ObserveNarrative counts a narrative by outcome.
func (m *Metrics) ObserveNarrative(ok bool) {
	if m == nil {
		return
	}
	outcome := "fallback"
	if ok {
		outcome = "ok"
	}
	m.narratives.WithLabelValues(outcome).Inc()
}

// ObserveReport counts a rendered report.
func (m *Metrics) ObserveReport(companies int, narratives bool) {
	if m == nil {
		return
	}
	m.reports.WithLabelValues(strconv.FormatBool(narratives)).Inc()
	m.reportCompanies.Observe(float64(companies))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
