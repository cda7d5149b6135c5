// Package daemon keeps the posts pages current while the site is being
// edited: it watches the post sources and page templates, debounces bursts of
// changes, and rebuilds on a single worker. A daily job rebuilds as well so
// future-dated posts appear on their date.
package daemon

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	foundationerrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/post"
)

// RebuildFunc runs one rebuild for the given trigger.
type RebuildFunc func(ctx context.Context, trigger string) error

// Status is a snapshot of the daemon for health endpoints.
type Status struct {
	StartedAt   time.Time `json:"started_at"`
	Running     bool      `json:"running"`
	Builds      int       `json:"builds"`
	Failures    int       `json:"failures"`
	LastTrigger string    `json:"last_trigger,omitempty"`
	LastBuild   time.Time `json:"last_build,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
	NextDaily   time.Time `json:"next_daily,omitempty"`
	Watching    []string  `json:"watching"`
}

// Daemon ties the watcher, debouncer, scheduler and rebuild worker together.
type Daemon struct {
	paths     []string
	dailyAt   string
	location  *time.Location
	rebuild   RebuildFunc
	debouncer *Debouncer
	queue     chan Request
	initial   bool

	mu     sync.RWMutex
	status Status
	sched  *Scheduler
}

// New creates a daemon for cfg. rebuild is called from a single goroutine.
func New(cfg *config.Config, rebuild RebuildFunc) (*Daemon, error) {
	if rebuild == nil {
		return nil, foundationerrors.ValidationError("rebuild function is required").Build()
	}
	if _, _, err := ParseDailyAt(cfg.Watch.DailyAt); err != nil {
		return nil, foundationerrors.ConfigError("invalid watch.daily_at").WithCause(err).Build()
	}
	paths := WatchPaths(cfg)
	return &Daemon{
		paths:     paths,
		dailyAt:   cfg.Watch.DailyAt,
		location:  time.Local,
		rebuild:   rebuild,
		debouncer: NewDebouncer(cfg.Watch.Debounce, 0),
		queue:     make(chan Request, 1),
		initial:   true,
		status:    Status{Watching: paths},
	}, nil
}

// WithoutInitialBuild skips the rebuild normally queued at startup.
func (d *Daemon) WithoutInitialBuild() *Daemon {
	d.initial = false
	return d
}

// WithLocation sets the time zone of the daily rebuild.
func (d *Daemon) WithLocation(loc *time.Location) *Daemon {
	if loc != nil {
		d.location = loc
	}
	return d
}

// WatchPaths lists what a posts rebuild depends on: the posts source
// directory, the timeline and home pages, and the page skeleton.
func WatchPaths(cfg *config.Config) []string {
	src := post.ResolveSourceDir(cfg.Site.Root, cfg.Path(cfg.Posts.SourceDir))
	paths := []string{
		src,
		cfg.Path(cfg.Posts.TimelinePage),
		cfg.Path(cfg.Posts.HomePage),
		cfg.Path(cfg.Posts.Skeleton),
	}
	if md := cfg.Path(cfg.Posts.MarkdownDir); filepath.Clean(md) != filepath.Clean(src) {
		paths = append(paths, md)
	}
	return paths
}

// Submit queues a rebuild request. It never blocks.
func (d *Daemon) Submit(trigger, path string) {
	d.debouncer.Request(Request{Trigger: trigger, Path: path})
}

// Status returns a snapshot of the daemon state.
func (d *Daemon) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s := d.status
	s.Watching = append([]string(nil), d.status.Watching...)
	if d.sched != nil {
		if next, err := d.sched.NextRun(); err == nil {
			s.NextDaily = next
		}
	}
	return s
}

// Run blocks until ctx is done or a component fails.
func (d *Daemon) Run(ctx context.Context) error {
	watcher, err := NewWatcher(d.paths)
	if err != nil {
		return foundationerrors.DaemonError("failed to start file watcher").WithCause(err).Build()
	}
	sched, err := NewDailyScheduler(d.dailyAt, d.location, func() {
		d.Submit(build.TriggerSchedule, "")
	})
	if err != nil {
		return foundationerrors.DaemonError("failed to start scheduler").WithCause(err).Build()
	}

	d.mu.Lock()
	d.status.StartedAt = time.Now()
	d.sched = sched
	d.mu.Unlock()

	sched.Start()
	defer sched.Stop()

	slog.Info("Watching for changes", logfields.Count(len(d.paths)), slog.String("daily_at", d.dailyAt))
	if d.initial {
		d.enqueue(Request{Trigger: build.TriggerWatch, Count: 1})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return watcher.Run(gctx, func(path string) { d.Submit(build.TriggerWatch, path) })
	})
	g.Go(func() error {
		return d.debouncer.Run(gctx, d.enqueue)
	})
	g.Go(func() error {
		d.work(gctx)
		return nil
	})

	err = g.Wait()
	slog.Info("Watch daemon stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// enqueue hands a request to the worker. At most one request waits while a
// rebuild runs; later ones fold into it.
func (d *Daemon) enqueue(r Request) {
	select {
	case d.queue <- r:
	default:
		slog.Debug("Rebuild already queued", slog.String("trigger", r.Trigger))
	}
}

func (d *Daemon) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case r := <-d.queue:
			d.runOne(ctx, r)
		}
	}
}

func (d *Daemon) runOne(ctx context.Context, r Request) {
	d.mu.Lock()
	d.status.Running = true
	d.mu.Unlock()

	slog.Info("Rebuilding posts",
		slog.String("trigger", r.Trigger),
		logfields.Path(r.Path),
		slog.Int("changes", r.Count))
	err := d.rebuild(ctx, r.Trigger)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.status.Running = false
	d.status.Builds++
	d.status.LastTrigger = r.Trigger
	d.status.LastBuild = time.Now()
	d.status.LastError = ""
	if err != nil {
		d.status.Failures++
		d.status.LastError = err.Error()
		slog.Warn("Rebuild failed", logfields.Error(err))
	}
}
