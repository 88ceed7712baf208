package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the driver bot
type Metrics struct {
	BackendRequests      *prometheus.CounterVec
	OTPVerifications     *prometheus.CounterVec
	DocumentUploads      *prometheus.CounterVec
	StatusSubmissions    prometheus.Counter
	StatusSubmitsSkipped prometheus.Counter
	RidesCompleted       prometheus.Counter
	ActiveRides          prometheus.Gauge
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		BackendRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "driverbot_backend_requests_total",
			Help: "Backend API calls by operation and outcome",
		}, []string{"operation", "outcome"}),
		OTPVerifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "driverbot_ride_otp_verifications_total",
			Help: "Ride OTP attempts by result",
		}, []string{"result"}),
		DocumentUploads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "driverbot_document_uploads_total",
			Help: "Document uploads by category and outcome",
		}, []string{"category", "outcome"}),
		StatusSubmissions: f.NewCounter(prometheus.CounterOpts{
			Name: "driverbot_document_status_submissions_total",
			Help: "Checklists submitted for verification",
		}),
		StatusSubmitsSkipped: f.NewCounter(prometheus.CounterOpts{
			Name: "driverbot_document_status_submissions_skipped_total",
			Help: "Verification submissions skipped because the driver was already submitted",
		}),
		RidesCompleted: f.NewCounter(prometheus.CounterOpts{
			Name: "driverbot_rides_completed_total",
			Help: "Rides that reached payment completion",
		}),
		ActiveRides: f.NewGauge(prometheus.GaugeOpts{
			Name: "driverbot_active_rides",
			Help: "Rides currently held in memory",
		}),
	}
}

// Observe helpers are no-ops on a nil *Metrics.
func (m *Metrics) ObserveBackend(operation string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.BackendRequests.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) ObserveOTP(matched bool) {
	if m == nil {
		return
	}
	result := "mismatch"
	if matched {
		result = "match"
	}
	m.OTPVerifications.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveUpload(category string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.DocumentUploads.WithLabelValues(category, outcome).Inc()
}

func (m *Metrics) ObserveStatusSubmission(skipped bool) {
	if m == nil {
		return
	}
	if skipped {
		m.StatusSubmitsSkipped.Inc()
		return
	}
	m.StatusSubmissions.Inc()
}

func (m *Metrics) SetActiveRides(n int) {
	if m == nil {
		return
	}
	m.ActiveRides.Set(float64(n))
}

func (m *Metrics) IncRidesCompleted() {
	if m == nil {
		return
	}
	m.RidesCompleted.Inc()
}
