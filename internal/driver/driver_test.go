package driver

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noxical/noxical/internal/build"
	"github.com/noxical/noxical/internal/config"
	"github.com/noxical/noxical/internal/history"
	"github.com/noxical/noxical/internal/watch"
)

// fakeCompiler signals every compile on its channels.
type fakeCompiler struct {
	delay    time.Duration
	err      error
	started  chan struct{}
	finished chan struct{}
}

func newFakeCompiler() *fakeCompiler {
	return &fakeCompiler{
		started:  make(chan struct{}, 64),
		finished: make(chan struct{}, 64),
	}
}

func (c *fakeCompiler) Compile(inputDir string) ([]string, error) {
	c.started <- struct{}{}
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	c.finished <- struct{}{}
	if c.err != nil {
		return nil, c.err
	}
	return []string{"ok"}, nil
}

func waitSignal(t *testing.T, ch <-chan struct{}, timeout time.Duration, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.QuietWindowMs = 50
	cfg.MaxDelayMs = 2000
	cfg.RescanIntervalSeconds = 0
	return cfg
}

func TestRunOnceSuccess(t *testing.T) {
	var out bytes.Buffer
	comp := newFakeCompiler()
	d := New(testConfig(), t.TempDir(), comp, nil, &out)

	outcome := d.RunOnce()

	assert.True(t, outcome.Success)
	assert.Equal(t, build.ReasonInitial, outcome.Reason)
	assert.Contains(t, out.String(), "✓ Finished")
}

func TestRunOnceFailure(t *testing.T) {
	var out bytes.Buffer
	comp := newFakeCompiler()
	comp.err = errors.New(`duplicate method name "read" found in group "files"`)
	d := New(testConfig(), t.TempDir(), comp, nil, &out)

	outcome := d.RunOnce()

	assert.False(t, outcome.Success)
	assert.Contains(t, out.String(), "✗ Build failed")
	assert.Contains(t, out.String(), "duplicate method name")
}

func TestRunOnceRecordsHistory(t *testing.T) {
	store, err := history.NewStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	var out bytes.Buffer
	d := New(testConfig(), t.TempDir(), newFakeCompiler(), store, &out)
	d.RunOnce()

	builds, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, builds, 1)
	assert.Equal(t, "initial", builds[0].Reason)
	assert.True(t, builds[0].Success)
}

func TestWatchMissingDirectorySetupError(t *testing.T) {
	var out bytes.Buffer
	d := New(testConfig(), filepath.Join(t.TempDir(), "missing"), newFakeCompiler(), nil, &out)

	err := d.Watch(context.Background())
	require.Error(t, err)

	var setupErr *watch.SetupError
	assert.True(t, errors.As(err, &setupErr))
}

func TestWatchPerformsInitialBuild(t *testing.T) {
	var out bytes.Buffer
	comp := newFakeCompiler()
	d := New(testConfig(), t.TempDir(), comp, nil, &out)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Watch(ctx) }()

	waitSignal(t, comp.finished, 2*time.Second, "initial build")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancellation")
	}
}

func TestWatchRebuildsOnFileChange(t *testing.T) {
	root := t.TempDir()
	var out bytes.Buffer
	comp := newFakeCompiler()
	d := New(testConfig(), root, comp, nil, &out)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- d.Watch(ctx) }()

	waitSignal(t, comp.finished, 2*time.Second, "initial build")

	require.NoError(t, os.WriteFile(filepath.Join(root, "api.nox"), []byte("class A {}"), 0o644))

	waitSignal(t, comp.finished, 3*time.Second, "rebuild after change")

	cancel()
	<-done
}

func TestWatchCoalescesBurstIntoOneRebuild(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig()
	cfg.QuietWindowMs = 150

	var out bytes.Buffer
	comp := newFakeCompiler()
	d := New(cfg, root, comp, nil, &out)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- d.Watch(ctx) }()

	waitSignal(t, comp.finished, 2*time.Second, "initial build")

	for _, name := range []string{"a.nox", "b.nox", "c.nox"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("class X {}"), 0o644))
	}

	waitSignal(t, comp.finished, 3*time.Second, "rebuild after burst")

	// Clear the start markers of the two builds that already ran.
	for len(comp.started) > 0 {
		<-comp.started
	}

	// The burst landed inside one quiet window; no further build may start.
	select {
	case <-comp.started:
		t.Fatal("burst triggered more than one rebuild")
	case <-time.After(500 * time.Millisecond):
	}

	cancel()
	<-done
}

func TestWatchDrainsInFlightBuildOnCancel(t *testing.T) {
	var out bytes.Buffer
	comp := newFakeCompiler()
	comp.delay = 300 * time.Millisecond
	d := New(testConfig(), t.TempDir(), comp, nil, &out)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Watch(ctx) }()

	waitSignal(t, comp.started, 2*time.Second, "build start")
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return")
	}

	// The slow build must have been allowed to finish before Watch returned.
	select {
	case <-comp.finished:
	default:
		t.Fatal("Watch returned while a build was still in flight")
	}
	assert.Contains(t, out.String(), "✓ Finished")
}

func TestWatchContinuesAfterFailedBuild(t *testing.T) {
	root := t.TempDir()
	var out bytes.Buffer
	comp := newFakeCompiler()
	comp.err = errors.New("syntax error")
	d := New(testConfig(), root, comp, nil, &out)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- d.Watch(ctx) }()

	waitSignal(t, comp.finished, 2*time.Second, "initial (failing) build")

	// The session keeps watching: a change still triggers another build.
	require.NoError(t, os.WriteFile(filepath.Join(root, "api.nox"), []byte("class A {}"), 0o644))
	waitSignal(t, comp.finished, 3*time.Second, "rebuild after failed build")

	cancel()
	assert.NoError(t, <-done)
}
