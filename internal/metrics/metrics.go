package metrics

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"health-chatbot/internal/platform/httpx"
)

const namespace = "health_chatbot"

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Business
	AuthAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_attempts_total",
			Help:      "Signup and login attempts by outcome",
		},
		[]string{"action", "outcome"},
	)

	ConsultationsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consultations_created_total",
			Help:      "Consultations stored, by kind and seriousness",
		},
		[]string{"kind", "seriousness"},
	)

	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Domain events handed to the message broker",
		},
		[]string{"topic", "status"},
	)

	DoctorAlerts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "doctor_alerts_total",
			Help:      "Doctor alerts sent for high seriousness consultations",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		AuthAttempts,
		ConsultationsCreated,
		EventsPublished,
		DoctorAlerts,
	)
}

// RegisterDB exposes connection pool stats for db. Registering the same
// name twice is ignored.
func RegisterDB(db *sql.DB, name string) error {
	err := prometheus.Register(collectors.NewDBStatsCollector(db, name))
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		return nil
	}
	return err
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count and latency per chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RecordRequest(r.Method, httpx.RoutePattern(r), strconv.Itoa(status), time.Since(start))
	})
}

func RecordRequest(method, route, status string, duration time.Duration) {
	RequestsTotal.WithLabelValues(method, route, status).Inc()
	RequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordAuth(action, outcome string) {
	AuthAttempts.WithLabelValues(action, outcome).Inc()
}

// RecordConsultation counts a stored consultation; seriousness is empty for
// symptom consultations.
func RecordConsultation(kind, seriousness string) {
	if seriousness == "" {
		seriousness = "none"
	}
	ConsultationsCreated.WithLabelValues(kind, seriousness).Inc()
}

func RecordEvent(topic string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	EventsPublished.WithLabelValues(topic, status).Inc()
}

func RecordDoctorAlert(err error) {
	status := "sent"
	if err != nil {
		status = "failed"
	}
	DoctorAlerts.WithLabelValues(status).Inc()
}
