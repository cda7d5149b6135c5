package commands

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/eventstore"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/notify"
	"git.home.luguber.info/inful/sitebuilder/internal/observability"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path, relative to --root" default:"sitebuilder.yaml"`
	Root    string           `help:"Site root directory" default:"." type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build     BuildCmd     `cmd:"" help:"Run css, posts, bookmarks, static and icons in order"`
	Posts     PostsCmd     `cmd:"" help:"Render post pages, posts.json, the timeline and latest posts"`
	Bookmarks BookmarksCmd `cmd:"" help:"Render the bookmarks timeline"`
	CSS       CSSCmd       `cmd:"" name:"css" help:"Build and publish the versioned stylesheet"`
	Icons     IconsCmd     `cmd:"" help:"Cache the remote images of the uses page"`
	Static    StaticCmd    `cmd:"" help:"Copy static files into the output directory"`
	Deploy    DeployCmd    `cmd:"" help:"Push the deployable files to the build branch"`
	Watch     WatchCmd     `cmd:"" help:"Rebuild posts on change and once a day"`
	History   HistoryCmd   `cmd:"" help:"Show recent pipeline runs from the build journal"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	slog.SetDefault(newLogger(parseLogLevel(c.Verbose), config.LogFormatText))
	return nil
}

// parseLogLevel honours --verbose first, then SITEBUILDER_LOG_LEVEL.
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	if v := os.Getenv(config.EnvLogLevel); v != "" {
		lvl, err := config.ParseLogLevel(v)
		if err != nil {
			slog.Warn("Ignoring "+config.EnvLogLevel, logfields.Error(err))
		}
		return lvl.SlogLevel()
	}
	return slog.LevelInfo
}

func newLogger(level slog.Level, format config.LogFormat) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if format == config.LogFormatJSON {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(observability.NewHandler(h))
}

// LoadConfig loads the configuration below --root and applies the root.
func LoadConfig(root *CLI) (*config.Config, error) {
	path := root.Config
	if !filepath.IsAbs(path) {
		path = filepath.Join(root.Root, path)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	cfg.Site.Root = root.Root

	if !root.Verbose && (cfg.Logging.Level != "" || cfg.Logging.Format != "") {
		level := parseLogLevel(false)
		if os.Getenv(config.EnvLogLevel) == "" && cfg.Logging.Level != "" {
			level = config.NormalizeLogLevel(string(cfg.Logging.Level)).SlogLevel()
		}
		slog.SetDefault(newLogger(level, config.NormalizeLogFormat(string(cfg.Logging.Format))))
	}
	return cfg, nil
}

// Env bundles what every pipeline run reports through.
type Env struct {
	Config   *config.Config
	Runner   *build.Runner
	Recorder *metrics.PrometheusRecorder

	journal  *eventstore.Journal
	notifier notify.Publisher
}

// NewEnv loads the configuration and opens the journal, metrics registry and
// notifier.
func NewEnv(root *CLI) (*Env, error) {
	cfg, err := LoadConfig(root)
	if err != nil {
		return nil, err
	}
	journal, err := eventstore.OpenJournal(cfg.Path(cfg.Journal.Path))
	if err != nil {
		return nil, err
	}
	notifier, err := notify.New(cfg.Notify)
	if err != nil {
		slog.Warn("Build notifications disabled", logfields.Error(err))
		notifier = notify.Noop{}
	}
	recorder := metrics.NewPrometheusRecorder(nil)
	return &Env{
		Config:   cfg,
		Runner:   build.NewRunner(journal, recorder, notifier),
		Recorder: recorder,
		journal:  journal,
		notifier: notifier,
	}, nil
}

// Run executes one pipeline run.
func (e *Env) Run(ctx context.Context, pipeline string, fn build.PipelineFunc) error {
	_, err := e.Runner.Run(ctx, pipeline, build.TriggerCLI, fn)
	return err
}

// Close flushes the metrics textfile and releases the journal and notifier.
func (e *Env) Close() {
	if path := e.Config.Metrics.Textfile; path != "" {
		if err := e.Recorder.WriteTextfile(e.Config.Path(path)); err != nil {
			slog.Warn("Failed to write metrics textfile", logfields.Path(path), logfields.Error(err))
		}
	}
	if err := e.notifier.Close(); err != nil {
		slog.Warn("Failed to close notifier", logfields.Error(err))
	}
	if err := e.journal.Close(); err != nil {
		slog.Warn("Failed to close build journal", logfields.Error(err))
	}
}

// outRoot resolves an --out flag against the site root. fallback is used when
// the flag is empty.
func outRoot(cfg *config.Config, flag, fallback string) string {
	if flag == "" {
		return fallback
	}
	return cfg.Path(flag)
}
