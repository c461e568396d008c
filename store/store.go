// Package store holds the full unified record set and the filtered view
// derived from it. Every mutation recomputes the view wholesale; nothing is
// incrementally patched.
package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/c360studio/demoscope/record"
)

// Backend is the persistence boundary: a key-value batch store. The in-memory
// state is the session source of truth; backend calls are best-effort.
type Backend interface {
	Save(ctx context.Context, desc record.FileDescriptor, records []record.Record) error
	List(ctx context.Context) ([]record.Dataset, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

// Stats summarizes the current filtered view for dashboards.
type Stats struct {
	Records         int                 `json:"records"`
	TotalPopulation int64               `json:"total_population"`
	States          int                 `json:"states"`
	Districts       int                 `json:"districts"`
	ByKind          map[record.Kind]int `json:"by_kind"`
}

// Store owns all ingested records, the uploaded-file descriptors, and the
// filter state. Reads return snapshots; callers never see internal slices.
type Store struct {
	mu       sync.RWMutex
	records  []record.Record
	files    []record.FileDescriptor
	filter   FilterState
	level    Level
	filtered []record.Record

	backend Backend
	logger  *slog.Logger
}

// New creates a Store. backend may be nil for memory-only operation.
func New(backend Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		filter:  DefaultFilterState(),
		level:   LevelNational,
		backend: backend,
		logger:  logger,
	}
}

// Init rehydrates records and descriptors from the backend. Called once at
// startup; a nil backend makes it a no-op.
func (s *Store) Init(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}
	datasets, err := s.backend.List(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ds := range datasets {
		s.files = append(s.files, ds.Descriptor)
		s.records = append(s.records, ds.Records...)
	}
	s.refilter()
	return nil
}

// AddBatch appends one ingested file's records and descriptor, preserving
// the active selections, and persists the batch as a side effect. A
// persistence failure is logged and never rolls back the in-memory change.
func (s *Store) AddBatch(ctx context.Context, desc record.FileDescriptor, records []record.Record) {
	s.mu.Lock()
	s.records = append(s.records, records...)
	s.files = append(s.files, desc)
	s.refilter()
	s.mu.Unlock()

	if s.backend == nil {
		return
	}
	go func() {
		if err := s.backend.Save(context.WithoutCancel(ctx), desc, records); err != nil {
			s.logger.Warn("failed to persist batch",
				slog.String("batch_id", desc.ID),
				slog.String("file", desc.Name),
				slog.String("error", err.Error()))
		}
	}()
}

// RemoveFile deletes a file's descriptor and every record it contributed.
func (s *Store) RemoveFile(ctx context.Context, id string) {
	s.mu.Lock()
	files := s.files[:0]
	for _, f := range s.files {
		if f.ID != id {
			files = append(files, f)
		}
	}
	s.files = files

	records := s.records[:0]
	for _, r := range s.records {
		if r.FileID != id {
			records = append(records, r)
		}
	}
	s.records = records
	s.refilter()
	s.mu.Unlock()

	if s.backend == nil {
		return
	}
	go func() {
		if err := s.backend.Delete(context.WithoutCancel(ctx), id); err != nil {
			s.logger.Warn("failed to delete batch",
				slog.String("batch_id", id),
				slog.String("error", err.Error()))
		}
	}()
}

// Clear removes every record, descriptor, and selection.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.records = nil
	s.files = nil
	s.filter = DefaultFilterState()
	s.level = LevelNational
	s.refilter()
	s.mu.Unlock()

	if s.backend == nil {
		return
	}
	go func() {
		if err := s.backend.Clear(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to clear persisted batches",
				slog.String("error", err.Error()))
		}
	}()
}

// SetDateRange sets both bounds of the inclusive date filter. Zero dates
// clear the corresponding bound.
func (s *Store) SetDateRange(start, end record.Date) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter.DateStart = start
	s.filter.DateEnd = end
	s.refilter()
}

// SetAgeGroup selects the age slice read by chart and map consumers.
func (s *Store) SetAgeGroup(g record.AgeGroup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter.AgeGroup = g
	s.refilter()
}

// DrillDown narrows the geography selection. Setting a state clears district
// and pincode; setting a district clears pincode; setting a pincode clears
// nothing further.
func (s *Store) DrillDown(level Level, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch level {
	case LevelState:
		s.level = LevelState
		s.filter.State = name
		s.filter.District = ""
		s.filter.Pincode = ""
	case LevelDistrict:
		s.level = LevelDistrict
		s.filter.District = name
		s.filter.Pincode = ""
	case LevelPincode:
		s.level = LevelPincode
		s.filter.Pincode = name
	default:
		return
	}
	s.refilter()
}

// DrillUp widens the selection one level: pincode, then district, then state.
func (s *Store) DrillUp() {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.filter.Pincode != "":
		s.filter.Pincode = ""
		s.level = LevelDistrict
	case s.filter.District != "":
		s.filter.District = ""
		s.level = LevelState
	case s.filter.State != "":
		s.filter.State = ""
		s.level = LevelNational
	}
	s.refilter()
}

// ResetFilters returns selection, date range, and age group to defaults.
func (s *Store) ResetFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = DefaultFilterState()
	s.level = LevelNational
	s.refilter()
}

// Filtered returns a snapshot of the current filtered view.
func (s *Store) Filtered() []record.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]record.Record, len(s.filtered))
	copy(out, s.filtered)
	return out
}

// Records returns a snapshot of the full record set.
func (s *Store) Records() []record.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]record.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Files returns a snapshot of the uploaded-file descriptors.
func (s *Store) Files() []record.FileDescriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]record.FileDescriptor, len(s.files))
	copy(out, s.files)
	return out
}

// Filter returns the active filter state.
func (s *Store) Filter() FilterState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// CurrentLevel returns the active geography depth.
func (s *Store) CurrentLevel() Level {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.level
}

// Summary computes dashboard statistics over the filtered view.
func (s *Store) Summary() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		Records: len(s.filtered),
		ByKind:  make(map[record.Kind]int),
	}
	states := make(map[string]struct{})
	districts := make(map[string]struct{})
	for _, r := range s.filtered {
		stats.TotalPopulation += int64(r.TotalPopulation)
		stats.ByKind[r.Kind]++
		states[r.State] = struct{}{}
		districts[r.State+"\x00"+r.District] = struct{}{}
	}
	stats.States = len(states)
	stats.Districts = len(districts)
	return stats
}

// refilter recomputes the filtered view. Callers hold the write lock.
func (s *Store) refilter() {
	s.filtered = ApplyFilters(s.records, s.filter)
}
