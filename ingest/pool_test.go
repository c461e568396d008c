package ingest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func demoCSV(district string) []byte {
	return []byte(fmt.Sprintf("date,state,district,pincode,demo_age_5_17,demo_age_17_\n"+
		"01-01-2024,UP,%s,226001,10,20\n", district))
}

func TestPool_Run_AllSucceed(t *testing.T) {
	pool := NewPool(2, nil)

	jobs := []Job{
		NewJob("a.csv", demoCSV("Lucknow")),
		NewJob("b.csv", demoCSV("Agra")),
		NewJob("c.csv", demoCSV("Kanpur")),
	}

	results, summary := pool.Run(context.Background(), jobs)
	require.Len(t, results, 3)

	assert.Equal(t, 3, summary.Succeeded)
	assert.Equal(t, 3, summary.Total)
	assert.Empty(t, summary.Failures)
	assert.Equal(t, "processed 3/3 files", summary.String())

	// Results stay keyed to their jobs regardless of completion order.
	for i, res := range results {
		assert.Equal(t, jobs[i].BatchID, res.Job.BatchID)
		require.NoError(t, res.Err)
		assert.Equal(t, jobs[i].BatchID, res.Result.Records[0].FileID)
	}
}

func TestPool_Run_FailedFileDoesNotAffectPeers(t *testing.T) {
	pool := NewPool(4, nil)

	bad := []byte("date,state,district,pincode,demo_age_5_17,demo_age_17_\n" +
		"15/03/2024,UP,Agra,282001,1,2\n")

	results, summary := pool.Run(context.Background(), []Job{
		NewJob("good.csv", demoCSV("Lucknow")),
		NewJob("bad.csv", bad),
	})

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 2, summary.Total)
	require.Len(t, summary.Failures, 1)
	assert.Contains(t, summary.Failures[0], "bad.csv")

	require.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
}

func TestPool_Run_CanceledContext(t *testing.T) {
	pool := NewPool(1, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, summary := pool.Run(ctx, []Job{NewJob("a.csv", demoCSV("Lucknow"))})
	assert.Equal(t, 0, summary.Succeeded)
	assert.Len(t, summary.Failures, 1)
}

func TestNewJob_AssignsBatchID(t *testing.T) {
	a := NewJob("a.csv", demoCSV("Lucknow"))
	b := NewJob("a.csv", demoCSV("Lucknow"))
	assert.NotEmpty(t, a.BatchID)
	assert.NotEqual(t, a.BatchID, b.BatchID)
	assert.Equal(t, int64(len(a.Data)), a.Size)
}
