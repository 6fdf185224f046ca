package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeDiscarded = "discarded"
	OutcomeAccepted  = "accepted"
	OutcomeRejected  = "rejected"
)

var (
	// RequestCounter counts HTTP requests served by the uploader
	RequestCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ocr_uploader_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// ResponseTime measures HTTP handler latency
	ResponseTime = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ocr_uploader_http_response_time_seconds",
		Help:    "HTTP response time in seconds",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"method", "path", "status"})

	// SubmissionCounter counts OCR submissions by outcome
	SubmissionCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ocr_uploader_submissions_total",
		Help: "OCR submissions by outcome",
	}, []string{"outcome"})

	// SubmissionDuration measures the OCR service round trip
	SubmissionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ocr_uploader_submission_duration_seconds",
		Help:    "OCR service round trip in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 3, 4, 5, 7.5, 10, 15, 20, 30, 60},
	})

	// SelectionCounter counts file selections by outcome
	SelectionCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ocr_uploader_selections_total",
		Help: "File selections by outcome",
	}, []string{"outcome"})

	// ClipboardCounter counts clipboard writes by outcome
	ClipboardCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ocr_uploader_clipboard_writes_total",
		Help: "Clipboard writes by outcome",
	}, []string{"outcome"})
)

// Register adds every collector to reg. Call once per registry.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		RequestCounter,
		ResponseTime,
		SubmissionCounter,
		SubmissionDuration,
		SelectionCounter,
		ClipboardCounter,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// RecordSubmission records the outcome and duration of one OCR submission
func RecordSubmission(outcome string, duration time.Duration) {
	SubmissionCounter.WithLabelValues(outcome).Inc()
	SubmissionDuration.Observe(duration.Seconds())
}

// RecordSelection records an accepted or rejected file selection
func RecordSelection(accepted bool) {
	outcome := OutcomeRejected
	if accepted {
		outcome = OutcomeAccepted
	}
	SelectionCounter.WithLabelValues(outcome).Inc()
}

// RecordClipboard records a clipboard write
func RecordClipboard(ok bool) {
	outcome := OutcomeFailure
	if ok {
		outcome = OutcomeSuccess
	}
	ClipboardCounter.WithLabelValues(outcome).Inc()
}

// Middleware records request count and latency per route template
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				path = tmpl
			}
		}
		status := strconv.Itoa(rec.status)
		RequestCounter.WithLabelValues(r.Method, path, status).Inc()
		ResponseTime.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
