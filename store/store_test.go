package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/demoscope/record"
)

// fakeBackend is an in-memory Backend for exercising persistence wiring.
type fakeBackend struct {
	mu       sync.Mutex
	datasets map[string]record.Dataset
	saveErr  error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{datasets: make(map[string]record.Dataset)}
}

func (b *fakeBackend) Save(_ context.Context, desc record.FileDescriptor, records []record.Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.saveErr != nil {
		return b.saveErr
	}
	b.datasets[desc.ID] = record.Dataset{Descriptor: desc, Records: records}
	return nil
}

func (b *fakeBackend) List(_ context.Context) ([]record.Dataset, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]record.Dataset, 0, len(b.datasets))
	for _, ds := range b.datasets {
		out = append(out, ds)
	}
	return out, nil
}

func (b *fakeBackend) Delete(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.datasets, id)
	return nil
}

func (b *fakeBackend) Clear(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.datasets = make(map[string]record.Dataset)
	return nil
}

func (b *fakeBackend) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.datasets)
}

func batch(t *testing.T, id, state, district string, n int) (record.FileDescriptor, []record.Record) {
	t.Helper()
	records := make([]record.Record, n)
	for i := range records {
		records[i] = rec(t, "01-01-2024", state, district, "")
		records[i].FileID = id
	}
	desc := record.FileDescriptor{ID: id, Name: id + ".csv", RecordCount: n, Type: record.KindDemographic}
	return desc, records
}

func TestStore_AddBatchPreservesSelections(t *testing.T) {
	s := New(nil, nil)
	s.DrillDown(LevelState, "UP")

	desc, records := batch(t, "b1", "UP", "Lucknow", 3)
	s.AddBatch(context.Background(), desc, records)

	assert.Equal(t, "UP", s.Filter().State)
	assert.Len(t, s.Filtered(), 3)

	// A second batch from another state is additive and stays filtered out.
	desc2, records2 := batch(t, "b2", "MP", "Bhopal", 2)
	s.AddBatch(context.Background(), desc2, records2)

	assert.Equal(t, "UP", s.Filter().State)
	assert.Len(t, s.Records(), 5)
	assert.Len(t, s.Filtered(), 3)
	assert.Len(t, s.Files(), 2)
}

func TestStore_RemoveFileCascades(t *testing.T) {
	s := New(nil, nil)
	desc1, records1 := batch(t, "b1", "UP", "Lucknow", 3)
	desc2, records2 := batch(t, "b2", "MP", "Bhopal", 2)
	s.AddBatch(context.Background(), desc1, records1)
	s.AddBatch(context.Background(), desc2, records2)

	s.RemoveFile(context.Background(), "b1")

	assert.Len(t, s.Records(), 2)
	require.Len(t, s.Files(), 1)
	assert.Equal(t, "b2", s.Files()[0].ID)
}

func TestStore_DrillHierarchy(t *testing.T) {
	s := New(nil, nil)

	s.DrillDown(LevelState, "UP")
	s.DrillDown(LevelDistrict, "Lucknow")
	s.DrillDown(LevelPincode, "226001")
	assert.Equal(t, LevelPincode, s.CurrentLevel())

	// Re-selecting a state collapses the deeper levels.
	s.DrillDown(LevelState, "MP")
	f := s.Filter()
	assert.Equal(t, "MP", f.State)
	assert.Empty(t, f.District)
	assert.Empty(t, f.Pincode)
	assert.Equal(t, LevelState, s.CurrentLevel())

	// District selection preserves state but clears pincode.
	s.DrillDown(LevelDistrict, "Bhopal")
	s.DrillDown(LevelPincode, "462001")
	s.DrillDown(LevelDistrict, "Indore")
	f = s.Filter()
	assert.Equal(t, "MP", f.State)
	assert.Equal(t, "Indore", f.District)
	assert.Empty(t, f.Pincode)
}

func TestStore_DrillUpOneLevelPerCall(t *testing.T) {
	s := New(nil, nil)
	s.DrillDown(LevelState, "UP")
	s.DrillDown(LevelDistrict, "Lucknow")
	s.DrillDown(LevelPincode, "226001")

	s.DrillUp()
	f := s.Filter()
	assert.Empty(t, f.Pincode)
	assert.Equal(t, "Lucknow", f.District)
	assert.Equal(t, LevelDistrict, s.CurrentLevel())

	s.DrillUp()
	f = s.Filter()
	assert.Empty(t, f.District)
	assert.Equal(t, "UP", f.State)

	s.DrillUp()
	f = s.Filter()
	assert.Empty(t, f.State)
	assert.Equal(t, LevelNational, s.CurrentLevel())

	// Already national: no-op.
	s.DrillUp()
	assert.Equal(t, LevelNational, s.CurrentLevel())
}

func TestStore_ResetFilters(t *testing.T) {
	s := New(nil, nil)
	desc, records := batch(t, "b1", "UP", "Lucknow", 2)
	s.AddBatch(context.Background(), desc, records)

	start, _ := record.ParseDate("01-01-2024")
	end, _ := record.ParseDate("31-01-2024")
	s.SetDateRange(start, end)
	s.SetAgeGroup(record.AgeGroup17Plus)
	s.DrillDown(LevelState, "MP")
	require.Empty(t, s.Filtered())

	s.ResetFilters()
	f := s.Filter()
	assert.True(t, f.DateStart.IsZero())
	assert.True(t, f.DateEnd.IsZero())
	assert.Equal(t, record.AgeGroupTotal, f.AgeGroup)
	assert.Empty(t, f.State)
	assert.Len(t, s.Filtered(), 2)
}

func TestStore_InitRehydratesFromBackend(t *testing.T) {
	backend := newFakeBackend()
	desc, records := batch(t, "b1", "UP", "Lucknow", 3)
	require.NoError(t, backend.Save(context.Background(), desc, records))

	s := New(backend, nil)
	require.NoError(t, s.Init(context.Background()))

	assert.Len(t, s.Records(), 3)
	assert.Len(t, s.Files(), 1)
	assert.Len(t, s.Filtered(), 3)
}

func TestStore_PersistenceIsFireAndForget(t *testing.T) {
	backend := newFakeBackend()
	s := New(backend, nil)

	desc, records := batch(t, "b1", "UP", "Lucknow", 1)
	s.AddBatch(context.Background(), desc, records)
	assert.Eventually(t, func() bool { return backend.len() == 1 },
		time.Second, 10*time.Millisecond)

	s.RemoveFile(context.Background(), "b1")
	assert.Eventually(t, func() bool { return backend.len() == 0 },
		time.Second, 10*time.Millisecond)
}

func TestStore_PersistenceFailureDoesNotRollBack(t *testing.T) {
	backend := newFakeBackend()
	backend.saveErr = errors.New("bucket unavailable")
	s := New(backend, nil)

	desc, records := batch(t, "b1", "UP", "Lucknow", 2)
	s.AddBatch(context.Background(), desc, records)

	// In-memory state is the source of truth for the session.
	assert.Len(t, s.Records(), 2)
	assert.Len(t, s.Files(), 1)
}

func TestStore_ClearWipesEverything(t *testing.T) {
	backend := newFakeBackend()
	s := New(backend, nil)
	desc, records := batch(t, "b1", "UP", "Lucknow", 2)
	s.AddBatch(context.Background(), desc, records)
	s.DrillDown(LevelState, "UP")

	s.Clear(context.Background())

	assert.Empty(t, s.Records())
	assert.Empty(t, s.Files())
	assert.Equal(t, LevelNational, s.CurrentLevel())
	assert.Eventually(t, func() bool { return backend.len() == 0 },
		time.Second, 10*time.Millisecond)
}

func TestStore_SummaryOverFilteredView(t *testing.T) {
	s := New(nil, nil)
	desc1, records1 := batch(t, "b1", "UP", "Lucknow", 3)
	desc2, records2 := batch(t, "b2", "MP", "Bhopal", 2)
	s.AddBatch(context.Background(), desc1, records1)
	s.AddBatch(context.Background(), desc2, records2)

	s.DrillDown(LevelState, "UP")
	stats := s.Summary()

	assert.Equal(t, 3, stats.Records)
	assert.Equal(t, int64(6), stats.TotalPopulation)
	assert.Equal(t, 1, stats.States)
	assert.Equal(t, 1, stats.Districts)
	assert.Equal(t, 3, stats.ByKind[record.KindDemographic])
}
