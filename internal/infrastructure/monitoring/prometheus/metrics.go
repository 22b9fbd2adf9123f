package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds every instrument the service records.
type AppMetrics struct {
	// HTTP
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Scoring
	EvaluationsScoredTotal CounterVec
	EvaluationPercentage   HistogramVec
	EvaluationsStoredTotal CounterVec
	ReportsRenderedTotal   CounterVec

	// Quiz catalog
	QuizReloadsTotal CounterVec
	QuizQuestions    GaugeVec

	// Messaging
	EventsPublishedTotal CounterVec
	EventsConsumedTotal  CounterVec
	EventProcessDuration HistogramVec

	// Infrastructure
	CacheHitsTotal   CounterVec
	CacheMissesTotal CounterVec
	DBQueryDuration  HistogramVec
	ErrorsTotal      CounterVec
}

var (
	DefaultHTTPDurationBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}
	DefaultDBDurationBuckets   = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1}
	PercentageBuckets          = []float64{20, 40, 60, 80, 100}
)

// NewAppMetrics registers all application metrics on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	return &AppMetrics{
		HTTPRequestsTotal:   collector.RegisterCounter("http_requests_total", "HTTP requests served.", "method", "route", "status_code"),
		HTTPRequestDuration: collector.RegisterHistogram("http_request_duration_seconds", "HTTP request latency.", DefaultHTTPDurationBuckets, "method", "route"),
		HTTPActiveRequests:  collector.RegisterGauge("http_active_requests", "In-flight HTTP requests."),

		EvaluationsScoredTotal: collector.RegisterCounter("evaluations_scored_total", "Evaluations scored, by type and maturity level.", "type", "level"),
		EvaluationPercentage:   collector.RegisterHistogram("evaluation_percentage", "Overall evaluation percentage.", PercentageBuckets, "type"),
		EvaluationsStoredTotal: collector.RegisterCounter("evaluations_stored_total", "Evaluation writes, by operation and outcome.", "operation", "status"),
		ReportsRenderedTotal:   collector.RegisterCounter("reports_rendered_total", "Evaluation reports rendered, by format.", "format"),

		QuizReloadsTotal: collector.RegisterCounter("quiz_reloads_total", "Quiz catalog reloads, by outcome.", "status"),
		QuizQuestions:    collector.RegisterGauge("quiz_questions", "Questions in the active quiz, by type.", "type"),

		EventsPublishedTotal: collector.RegisterCounter("events_published_total", "Events published, by topic and outcome.", "topic", "status"),
		EventsConsumedTotal:  collector.RegisterCounter("events_consumed_total", "Events consumed, by topic and outcome.", "topic", "status"),
		EventProcessDuration: collector.RegisterHistogram("event_process_duration_seconds", "Event handler latency.", DefaultHTTPDurationBuckets, "topic"),

		CacheHitsTotal:   collector.RegisterCounter("cache_hits_total", "Cache hits.", "cache"),
		CacheMissesTotal: collector.RegisterCounter("cache_misses_total", "Cache misses.", "cache"),
		DBQueryDuration:  collector.RegisterHistogram("db_query_duration_seconds", "Database query latency.", DefaultDBDurationBuckets, "operation"),
		ErrorsTotal:      collector.RegisterCounter("errors_total", "Errors, by component and code.", "component", "code"),
	}
}

// The Record* helpers accept a nil *AppMetrics so components can run without
// metrics in tests and in the CLI.

func status(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

func RecordHTTPRequest(m *AppMetrics, method, route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func RecordEvaluationScored(m *AppMetrics, evalType string, level int, percentage int) {
	if m == nil {
		return
	}
	m.EvaluationsScoredTotal.WithLabelValues(evalType, strconv.Itoa(level)).Inc()
	m.EvaluationPercentage.WithLabelValues(evalType).Observe(float64(percentage))
}

func RecordEvaluationStored(m *AppMetrics, operation string, err error) {
	if m == nil {
		return
	}
	m.EvaluationsStoredTotal.WithLabelValues(operation, status(err == nil)).Inc()
}

func RecordReportRendered(m *AppMetrics, format string) {
	if m == nil {
		return
	}
	m.ReportsRenderedTotal.WithLabelValues(format).Inc()
}

func RecordQuizReload(m *AppMetrics, ok bool) {
	if m == nil {
		return
	}
	m.QuizReloadsTotal.WithLabelValues(status(ok)).Inc()
}

func SetQuizQuestions(m *AppMetrics, evalType string, n int) {
	if m == nil {
		return
	}
	m.QuizQuestions.WithLabelValues(evalType).Set(float64(n))
}

func RecordEventPublished(m *AppMetrics, topic string, err error) {
	if m == nil {
		return
	}
	m.EventsPublishedTotal.WithLabelValues(topic, status(err == nil)).Inc()
}

func RecordEventConsumed(m *AppMetrics, topic string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.EventsConsumedTotal.WithLabelValues(topic, status(err == nil)).Inc()
	m.EventProcessDuration.WithLabelValues(topic).Observe(d.Seconds())
}

func RecordCacheAccess(m *AppMetrics, cache string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.WithLabelValues(cache).Inc()
		return
	}
	m.CacheMissesTotal.WithLabelValues(cache).Inc()
}

func RecordDBQuery(m *AppMetrics, operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(operation).Observe(d.Seconds())
	if err != nil {
		m.ErrorsTotal.WithLabelValues("postgres", operation).Inc()
	}
}

func RecordError(m *AppMetrics, component, code string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(component, code).Inc()
}
