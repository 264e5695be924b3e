package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/lms-recur/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the worker.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cyclesTotal     prometheus.Counter
	cycleDuration   prometheus.Histogram
	cloneResults    *prometheus.CounterVec
	onboardedUsers  prometheus.Counter
	reminderEvents  prometheus.Counter
}

// NewMetricsService registers the worker's Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cyclesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recurrence_cycles_total",
		Help: "Total number of completed batch cycles",
	})

	cycleDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "recurrence_cycle_duration_seconds",
		Help:    "Duration of batch cycles",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	cloneResults := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recurrence_clones_total",
		Help: "Clone outcomes per cycle",
	}, []string{"result"})

	onboardedUsers := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recurrence_onboarded_users_total",
		Help: "Users onboarded with their first reminders",
	})

	reminderEvents := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recurrence_reminder_events_total",
		Help: "Reminder events emitted to the notification sink",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cyclesTotal, cycleDuration, cloneResults, onboardedUsers, reminderEvents, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cyclesTotal:     cyclesTotal,
		cycleDuration:   cycleDuration,
		cloneResults:    cloneResults,
		onboardedUsers:  onboardedUsers,
		reminderEvents:  reminderEvents,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records ops API request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveCycle records a finished batch cycle.
func (m *MetricsService) ObserveCycle(summary models.CycleSummary) {
	if m == nil {
		return
	}
	m.cyclesTotal.Inc()
	m.cycleDuration.Observe(summary.FinishedAt.Sub(summary.StartedAt).Seconds())
	m.cloneResults.WithLabelValues("succeeded").Add(float64(summary.ClonesSucceeded))
	m.cloneResults.WithLabelValues("collided").Add(float64(summary.ClonesCollided))
	m.cloneResults.WithLabelValues("failed").Add(float64(summary.ClonesFailed))
	m.onboardedUsers.Add(float64(summary.OnboardedUsers))
	m.reminderEvents.Add(float64(summary.EventsEmitted))
}
