package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/c360studio/demoscope/analytics"
	"github.com/c360studio/demoscope/anomaly"
	"github.com/c360studio/demoscope/ingest"
	"github.com/c360studio/demoscope/record"
	"github.com/c360studio/demoscope/store"
	"github.com/c360studio/demoscope/trend"
)

// ----------------------------------------------------------------------------
// POST /api/files
// ----------------------------------------------------------------------------

// UploadResponse reports one upload submission across all its files.
type UploadResponse struct {
	Message   string                  `json:"message"`
	Succeeded int                     `json:"succeeded"`
	Total     int                     `json:"total"`
	Failures  []string                `json:"failures,omitempty"`
	Files     []record.FileDescriptor `json:"files"`
}

// handleUpload accepts one or more CSV files as multipart form data under the
// "files" field. Each file is normalized independently; a rejected file never
// blocks its peers.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "invalid multipart request", http.StatusBadRequest)
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		http.Error(w, "no files submitted", http.StatusBadRequest)
		return
	}

	jobs := make([]ingest.Job, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			http.Error(w, "failed to read uploaded file", http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			http.Error(w, "failed to read uploaded file", http.StatusBadRequest)
			return
		}
		jobs = append(jobs, ingest.NewJob(fh.Filename, data))
	}

	results, summary := s.pool.Run(r.Context(), jobs)

	resp := UploadResponse{
		Message:   summary.String(),
		Succeeded: summary.Succeeded,
		Total:     summary.Total,
		Failures:  summary.Failures,
		Files:     []record.FileDescriptor{},
	}
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		s.store.AddBatch(r.Context(), res.Result.Descriptor, res.Result.Records)
		resp.Files = append(resp.Files, res.Result.Descriptor)
	}

	writeJSON(w, http.StatusOK, resp)
}

// ----------------------------------------------------------------------------
// GET/DELETE /api/files
// ----------------------------------------------------------------------------

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	files := s.store.Files()
	if files == nil {
		files = []record.FileDescriptor{}
	}
	writeJSON(w, http.StatusOK, files)
}

func (s *Server) handleRemoveFile(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.store.RemoveFile(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.store.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// ----------------------------------------------------------------------------
// GET /api/records, GET /api/stats
// ----------------------------------------------------------------------------

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	records := s.store.Filtered()
	if records == nil {
		records = []record.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Summary())
}

// ----------------------------------------------------------------------------
// Filters and drill navigation
// ----------------------------------------------------------------------------

// FilterRequest is the request body for PUT /api/filters. Empty date strings
// clear the corresponding bound.
type FilterRequest struct {
	DateStart string `json:"date_start"`
	DateEnd   string `json:"date_end"`
	AgeGroup  string `json:"age_group"`
}

// FilterView is the filter state returned after every navigation change.
type FilterView struct {
	Filter store.FilterState `json:"filter"`
	Level  store.Level       `json:"level"`
}

func (s *Server) filterView() FilterView {
	return FilterView{Filter: s.store.Filter(), Level: s.store.CurrentLevel()}
}

func (s *Server) handleSetFilters(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var start, end record.Date
	var err error
	if req.DateStart != "" {
		if start, err = record.ParseDate(req.DateStart); err != nil {
			http.Error(w, "invalid date_start: expected DD-MM-YYYY", http.StatusBadRequest)
			return
		}
	}
	if req.DateEnd != "" {
		if end, err = record.ParseDate(req.DateEnd); err != nil {
			http.Error(w, "invalid date_end: expected DD-MM-YYYY", http.StatusBadRequest)
			return
		}
	}
	s.store.SetDateRange(start, end)

	if req.AgeGroup != "" {
		switch g := record.AgeGroup(req.AgeGroup); g {
		case record.AgeGroupTotal, record.AgeGroup5to17, record.AgeGroup17Plus:
			s.store.SetAgeGroup(g)
		default:
			http.Error(w, "age_group must be one of: Total, 5-17, 17+", http.StatusBadRequest)
			return
		}
	}

	writeJSON(w, http.StatusOK, s.filterView())
}

func (s *Server) handleResetFilters(w http.ResponseWriter, r *http.Request) {
	s.store.ResetFilters()
	writeJSON(w, http.StatusOK, s.filterView())
}

// DrillRequest is the request body for POST /api/drill.
type DrillRequest struct {
	Level string `json:"level"`
	Name  string `json:"name"`
}

func (s *Server) handleDrillDown(w http.ResponseWriter, r *http.Request) {
	var req DrillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	var level store.Level
	switch strings.ToLower(req.Level) {
	case "state":
		level = store.LevelState
	case "district":
		level = store.LevelDistrict
	case "pincode":
		level = store.LevelPincode
	default:
		http.Error(w, "level must be one of: state, district, pincode", http.StatusBadRequest)
		return
	}

	s.store.DrillDown(level, req.Name)
	writeJSON(w, http.StatusOK, s.filterView())
}

func (s *Server) handleDrillUp(w http.ResponseWriter, r *http.Request) {
	s.store.DrillUp()
	writeJSON(w, http.StatusOK, s.filterView())
}

// ----------------------------------------------------------------------------
// GET /api/trends
// ----------------------------------------------------------------------------

// TrendsResponse bundles the time series with its derived indicators.
type TrendsResponse struct {
	Granularity trend.Granularity     `json:"granularity"`
	Points      []trend.ActivityPoint `json:"points"`
	Growth      trend.Indicator       `json:"growth"`
	DayOfWeek   []trend.DayActivity   `json:"day_of_week"`
	Sampled     bool                  `json:"sampled"`
}

// handleTrends aggregates the filtered view into time buckets. Growth is
// always computed from the raw buckets; smoothing applies to the returned
// points only.
func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	granularity := trend.Daily
	switch g := r.URL.Query().Get("granularity"); g {
	case "", string(trend.Daily):
	case string(trend.Weekly):
		granularity = trend.Weekly
	case string(trend.Monthly):
		granularity = trend.Monthly
	default:
		http.Error(w, "granularity must be one of: daily, weekly, monthly", http.StatusBadRequest)
		return
	}

	records := s.store.Filtered()
	sampled := trend.SampleStratified(records, s.opts.TrendMaxRecords)

	points := trend.AggregateActivityByTime(sampled, granularity)
	growth := trend.Growth(points)
	if r.URL.Query().Get("moving_average") == "true" {
		points = trend.MovingAverage(points, s.opts.MovingAverageWindow)
	}
	if points == nil {
		points = []trend.ActivityPoint{}
	}

	dayOfWeek := trend.DayOfWeekPattern(sampled)
	if dayOfWeek == nil {
		dayOfWeek = []trend.DayActivity{}
	}

	writeJSON(w, http.StatusOK, TrendsResponse{
		Granularity: granularity,
		Points:      points,
		Growth:      growth,
		DayOfWeek:   dayOfWeek,
		Sampled:     len(sampled) < len(records),
	})
}

// ----------------------------------------------------------------------------
// GET /api/analytics/correlation
// ----------------------------------------------------------------------------

// CorrelationResponse carries the full pairwise matrix plus the canonical
// metric order clients should render rows and columns in.
type CorrelationResponse struct {
	Metrics   []analytics.Metric `json:"metrics"`
	Districts int                `json:"districts"`
	Matrix    analytics.Matrix   `json:"matrix"`
}

func (s *Server) handleCorrelation(w http.ResponseWriter, r *http.Request) {
	rows := analytics.JoinByDistrict(s.store.Filtered())
	writeJSON(w, http.StatusOK, CorrelationResponse{
		Metrics:   analytics.Metrics,
		Districts: len(rows),
		Matrix:    analytics.CorrelationMatrix(rows),
	})
}

// ----------------------------------------------------------------------------
// GET /api/anomalies
// ----------------------------------------------------------------------------

func (s *Server) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	anomalies := anomaly.Detect(s.store.Filtered())
	if anomalies == nil {
		anomalies = []anomaly.Anomaly{}
	}
	writeJSON(w, http.StatusOK, anomalies)
}
