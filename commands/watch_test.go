package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/demoscope/store"
)

const watchCSV = `date,state,district,pincode,demo_age_5_17,demo_age_17_
15-03-2024,Uttar Pradesh,Lucknow,226001,120,340
16-03-2024,Uttar Pradesh,Kanpur,208001,80,210
`

func startWatchLoop(t *testing.T, ctx context.Context, app *App, st *store.Store, dir string) chan struct{} {
	t.Helper()
	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	t.Cleanup(func() { watcher.Close() })
	require.NoError(t, watcher.Add(dir))

	done := make(chan struct{})
	go func() {
		runWatchLoop(ctx, app, st, watcher)
		close(done)
	}()
	return done
}

func TestRunWatchLoop_IngestsDroppedCSV(t *testing.T) {
	app := testApp(t)
	st := store.New(nil, app.Logger)
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startWatchLoop(t, ctx, app, st, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "drop.csv"), []byte(watchCSV), 0644))

	assert.Eventually(t, func() bool {
		return len(st.Records()) == 2
	}, 5*time.Second, 50*time.Millisecond)
	require.Len(t, st.Files(), 1)
	assert.Equal(t, "drop.csv", st.Files()[0].Name)
}

func TestRunWatchLoop_IgnoresNonCSV(t *testing.T) {
	app := testApp(t)
	st := store.New(nil, app.Logger)
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startWatchLoop(t, ctx, app, st, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not a csv"), 0644))

	time.Sleep(2 * settleDelay)
	assert.Empty(t, st.Records())
}

func TestRunWatchLoop_ExitsOnContextCancel(t *testing.T) {
	app := testApp(t)
	st := store.New(nil, app.Logger)
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	done := startWatchLoop(t, ctx, app, st, dir)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watch loop did not exit after context cancel")
	}
}
