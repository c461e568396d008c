// Package server exposes the analytics engine over HTTP: file ingestion,
// filtered record views, trends, correlation, and anomaly reports.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360studio/demoscope/ingest"
	"github.com/c360studio/demoscope/store"
	"github.com/c360studio/demoscope/trend"
)

// maxUploadSize limits multipart upload bodies.
const maxUploadSize = 64 << 20 // 64 MB

// Options carries the tunables the handlers need beyond their collaborators.
type Options struct {
	// TrendMaxRecords caps how many records feed trend aggregation.
	TrendMaxRecords int
	// MovingAverageWindow is the smoothing window for trend series.
	MovingAverageWindow int
}

// Server wires the store and ingestion pool into HTTP handlers.
type Server struct {
	store  *store.Store
	pool   *ingest.Pool
	opts   Options
	logger *slog.Logger
}

// New creates a Server. Zero-valued Options fields fall back to the
// package defaults.
func New(st *store.Store, pool *ingest.Pool, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TrendMaxRecords <= 0 {
		opts.TrendMaxRecords = trend.DefaultSampleLimit
	}
	if opts.MovingAverageWindow < 2 {
		opts.MovingAverageWindow = trend.DefaultMovingAverageWindow
	}
	return &Server{store: st, pool: pool, opts: opts, logger: logger}
}

// Handler builds the full route table:
//
//	POST   /api/files
//	GET    /api/files
//	DELETE /api/files
//	DELETE /api/files/{id}
//	GET    /api/records
//	GET    /api/stats
//	PUT    /api/filters
//	POST   /api/filters/reset
//	POST   /api/drill
//	POST   /api/drill/up
//	GET    /api/trends
//	GET    /api/analytics/correlation
//	GET    /api/anomalies
//	GET    /metrics
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(s.logRequests)

	router.HandleFunc("/api/files", s.handleUpload).Methods(http.MethodPost)
	router.HandleFunc("/api/files", s.handleListFiles).Methods(http.MethodGet)
	router.HandleFunc("/api/files", s.handleClear).Methods(http.MethodDelete)
	router.HandleFunc("/api/files/{id}", s.handleRemoveFile).Methods(http.MethodDelete)

	router.HandleFunc("/api/records", s.handleRecords).Methods(http.MethodGet)
	router.HandleFunc("/api/stats", s.handleStats).Methods(http.MethodGet)

	router.HandleFunc("/api/filters", s.handleSetFilters).Methods(http.MethodPut)
	router.HandleFunc("/api/filters/reset", s.handleResetFilters).Methods(http.MethodPost)
	router.HandleFunc("/api/drill", s.handleDrillDown).Methods(http.MethodPost)
	router.HandleFunc("/api/drill/up", s.handleDrillUp).Methods(http.MethodPost)

	router.HandleFunc("/api/trends", s.handleTrends).Methods(http.MethodGet)
	router.HandleFunc("/api/analytics/correlation", s.handleCorrelation).Methods(http.MethodGet)
	router.HandleFunc("/api/anomalies", s.handleAnomalies).Methods(http.MethodGet)

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return router
}

// writeJSON marshals v as JSON and writes it to w with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Response is already partially written; nothing left to do.
		_ = err
	}
}
