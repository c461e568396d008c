package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/demoscope/record"
)

func TestBatchCodec_RoundTrip(t *testing.T) {
	date, err := record.ParseDate("15-03-2024")
	require.NoError(t, err)

	stored := storedBatch{
		Descriptor: record.FileDescriptor{
			ID:          "batch-1",
			Name:        "demo.csv",
			Size:        2048,
			RecordCount: 1,
			Type:        record.KindDemographic,
			DateRange:   &record.DateRange{Earliest: date, Latest: date},
		},
		Records: []record.Record{{
			FileID:          "batch-1",
			Date:            date,
			State:           "UP",
			District:        "Lucknow",
			Pincode:         "226001",
			Kind:            record.KindDemographic,
			Demo:            &record.DemoCounts{Age5to17: 100, Age17Plus: 300},
			TotalPopulation: 400,
		}},
		SavedAt: time.Now().UTC().Truncate(time.Second),
	}

	data, err := encodeBatch(stored)
	require.NoError(t, err)

	decoded, err := decodeBatch(data)
	require.NoError(t, err)

	assert.Equal(t, stored.Descriptor, decoded.Descriptor)
	require.Len(t, decoded.Records, 1)
	rec := decoded.Records[0]
	assert.Equal(t, "15-03-2024", rec.Date.String())
	require.NotNil(t, rec.Demo)
	assert.Equal(t, 100, rec.Demo.Age5to17)
	assert.Nil(t, rec.Bio)
	assert.Nil(t, rec.Enrol)
	assert.True(t, stored.SavedAt.Equal(decoded.SavedAt))
}

func TestDecodeBatch_RejectsGarbage(t *testing.T) {
	_, err := decodeBatch([]byte("not snappy data"))
	assert.Error(t, err)
}

func TestEncodeBatch_CompressesLargePayloads(t *testing.T) {
	date, err := record.ParseDate("15-03-2024")
	require.NoError(t, err)

	records := make([]record.Record, 5000)
	for i := range records {
		records[i] = record.Record{
			FileID:          "batch-1",
			Date:            date,
			State:           "UP",
			District:        "Lucknow",
			Kind:            record.KindDemographic,
			Demo:            &record.DemoCounts{Age5to17: 100, Age17Plus: 300},
			TotalPopulation: 400,
		}
	}

	data, err := encodeBatch(storedBatch{Records: records})
	require.NoError(t, err)

	decoded, err := decodeBatch(data)
	require.NoError(t, err)
	require.Len(t, decoded.Records, 5000)

	// Repetitive tabular JSON should compress well below its raw size.
	assert.Less(t, len(data), 50*len(records))
}
