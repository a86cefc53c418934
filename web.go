package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type webServer struct {
	cfg       Config
	analytics *Analytics
}

// NewRouter wires the tracking and admin endpoints. Tracking endpoints
// are public; admin endpoints sit behind the shared-secret gate.
func NewRouter(cfg Config, analytics *Analytics) http.Handler {
	s := &webServer{cfg: cfg, analytics: analytics}

	r := chi.NewRouter()
	r.Use(requestLogger)
	r.Use(metricsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/visits", s.handleTrackVisit)
		r.Post("/briefings", s.handleCreateBriefing)
		r.Post("/ratings", s.handleCreateRating)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.adminGate)
			r.Get("/snapshot", s.handleSnapshot)
			r.Patch("/submissions/{id}", s.handleUpdateStatus)
			r.Get("/report", s.handleReport)
			r.Get("/report/email", s.handleEmailReport)
			r.Post("/prune", s.handlePrune)
		})
	})

	return r
}

// adminGate compares the X-Admin-Secret header against the configured
// shared secret. A plain string compare: the gate keeps casual visitors
// out of the dashboard API and nothing more.
func (s *webServer) adminGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Admin-Secret") != s.cfg.AdminSecret {
			errorJSON(w, http.StatusUnauthorized, "invalid admin secret")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *webServer) handleTrackVisit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Page       string `json:"page"`
		ScreenSize string `json:"screenSize"`
	}
	// An empty or malformed body still counts the visit: page and
	// screen size just stay blank.
	_ = json.NewDecoder(r.Body).Decode(&req)

	s.analytics.TrackVisit(req.Page, VisitClient{
		UserAgent:  r.UserAgent(),
		Referrer:   r.Referer(),
		ScreenSize: req.ScreenSize,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *webServer) handleCreateBriefing(w http.ResponseWriter, r *http.Request) {
	var form BriefingForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created := s.analytics.TrackFormSubmission(form)
	writeJSON(w, http.StatusCreated, created)
}

func (s *webServer) handleCreateRating(w http.ResponseWriter, r *http.Request) {
	var form RatingForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// The store trusts its caller, so the rating range is enforced
	// here at the edge.
	if form.Rating < 1 || form.Rating > 5 {
		errorJSON(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}

	created := s.analytics.TrackSatisfaction(form)
	writeJSON(w, http.StatusCreated, created)
}

func (s *webServer) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.analytics.Snapshot())
}

func (s *webServer) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}
	switch req.Status {
	case StatusPending, StatusContacted, StatusConverted:
	default:
		errorJSON(w, http.StatusBadRequest, "status must be pending, contacted or converted")
		return
	}

	// An unknown ID is a no-op by design, so this always succeeds.
	s.analytics.UpdateSubmissionStatus(chi.URLParam(r, "id"), req.Status)
	w.WriteHeader(http.StatusNoContent)
}

func (s *webServer) handleReport(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(s.analytics.BuildOperationalReport()))
}

func (s *webServer) handleEmailReport(w http.ResponseWriter, _ *http.Request) {
	subject, body := s.analytics.BuildEmailReport()
	writeJSON(w, http.StatusOK, map[string]string{
		"subject": subject,
		"body":    body,
	})
}

func (s *webServer) handlePrune(w http.ResponseWriter, _ *http.Request) {
	s.analytics.PruneOldVisits()
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func errorJSON(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bexsites_http_requests_total",
			Help: "Total HTTP requests handled",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bexsites_http_request_duration_seconds",
			Help:    "HTTP request handling duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// metricsMiddleware records request counts and durations, labelled by
// the chi route pattern so path parameters don't blow up cardinality.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		path := chi.RouteContext(r.Context()).RoutePattern()
		if path == "" {
			path = r.URL.Path
		}
		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		log.Printf("%s %s %d %s", r.Method, r.URL.Path, wrapped.status, time.Since(start).Round(time.Millisecond))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
