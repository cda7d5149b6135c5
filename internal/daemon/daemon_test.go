package daemon

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	foundationerrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Site.Root = t.TempDir()
	cfg.Watch.Debounce = 20 * time.Millisecond
	return cfg
}

func TestNew_RequiresRebuild(t *testing.T) {
	_, err := New(testConfig(t), nil)
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryValidation))
}

func TestNew_InvalidDailyAt(t *testing.T) {
	cfg := testConfig(t)
	cfg.Watch.DailyAt = "25:99"
	_, err := New(cfg, func(context.Context, string) error { return nil })
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryConfig))
}

func TestWatchPaths(t *testing.T) {
	cfg := testConfig(t)
	paths := WatchPaths(cfg)

	assert.Contains(t, paths, filepath.Join(cfg.Site.Root, "posts", "md"))
	assert.Contains(t, paths, cfg.Path(cfg.Posts.TimelinePage))
	assert.Contains(t, paths, cfg.Path(cfg.Posts.HomePage))
	assert.Contains(t, paths, cfg.Path(cfg.Posts.Skeleton))
}

func TestWorker_QueuesExactlyOneFollowUp(t *testing.T) {
	started := make(chan struct{}, 4)
	release := make(chan struct{})
	var calls atomic.Int32

	d, err := New(testConfig(t), func(ctx context.Context, _ string) error {
		calls.Add(1)
		started <- struct{}{}
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		d.work(ctx)
	}()
	defer func() {
		cancel()
		wg.Wait()
	}()

	d.enqueue(Request{Trigger: build.TriggerWatch})
	<-started

	d.enqueue(Request{Trigger: build.TriggerWatch})
	d.enqueue(Request{Trigger: build.TriggerWatch})
	d.enqueue(Request{Trigger: build.TriggerSchedule})

	release <- struct{}{}
	<-started
	release <- struct{}{}

	assert.Never(t, func() bool { return calls.Load() > 2 }, 150*time.Millisecond, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return !d.Status().Running }, time.Second, 10*time.Millisecond)
	st := d.Status()
	assert.Equal(t, 2, st.Builds)
	assert.Equal(t, build.TriggerWatch, st.LastTrigger)
}

func TestWorker_RecordsFailures(t *testing.T) {
	d, err := New(testConfig(t), func(context.Context, string) error {
		return foundationerrors.BuildError("render failed").Build()
	})
	require.NoError(t, err)

	d.runOne(context.Background(), Request{Trigger: build.TriggerSchedule})

	st := d.Status()
	assert.Equal(t, 1, st.Builds)
	assert.Equal(t, 1, st.Failures)
	assert.Equal(t, build.TriggerSchedule, st.LastTrigger)
	assert.Contains(t, st.LastError, "render failed")
	assert.False(t, st.Running)
}

func TestRun_InitialBuildAndShutdown(t *testing.T) {
	triggers := make(chan string, 4)
	d, err := New(testConfig(t), func(_ context.Context, trigger string) error {
		triggers <- trigger
		return nil
	})
	require.NoError(t, err)
	d.WithLocation(time.UTC)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	select {
	case trigger := <-triggers:
		assert.Equal(t, build.TriggerWatch, trigger)
	case <-time.After(2 * time.Second):
		t.Fatal("initial rebuild did not run")
	}

	assert.Eventually(t, func() bool { return !d.Status().NextDaily.IsZero() }, time.Second, 10*time.Millisecond)

	d.Submit(build.TriggerSchedule, "")
	select {
	case trigger := <-triggers:
		assert.Equal(t, build.TriggerSchedule, trigger)
	case <-time.After(2 * time.Second):
		t.Fatal("submitted rebuild did not run")
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop")
	}
}
