package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	foundationerrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// DefaultFile is the configuration file looked up when --config is not given.
const DefaultFile = "sitebuilder.yaml"

// Config is the root of sitebuilder.yaml. Every path is relative to Site.Root
// unless absolute.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Posts     PostsConfig     `yaml:"posts"`
	Bookmarks BookmarksConfig `yaml:"bookmarks"`
	CSS       CSSConfig       `yaml:"css"`
	Icons     IconsConfig     `yaml:"icons"`
	Static    StaticConfig    `yaml:"static"`
	Deploy    DeployConfig    `yaml:"deploy"`
	Watch     WatchConfig     `yaml:"watch"`
	Journal   JournalConfig   `yaml:"journal"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Notify    NotifyConfig    `yaml:"notify"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SiteConfig locates the site checkout and the distribution tree.
type SiteConfig struct {
	Root   string `yaml:"root" validate:"required"`
	OutDir string `yaml:"out_dir" validate:"required"`
}

// PostsConfig drives the posts pipeline.
type PostsConfig struct {
	SourceDir    string `yaml:"source_dir"`
	MarkdownDir  string `yaml:"markdown_dir" validate:"required"`
	OutputDir    string `yaml:"output_dir" validate:"required"`
	Skeleton     string `yaml:"skeleton" validate:"required"`
	TimelinePage string `yaml:"timeline_page" validate:"required"`
	HomePage     string `yaml:"home_page" validate:"required"`
	Manifest     string `yaml:"manifest" validate:"required"`
	LatestCount  int    `yaml:"latest_count" validate:"gte=0"`
}

// BookmarksConfig locates the bookmark catalogue and page.
type BookmarksConfig struct {
	Catalogue string `yaml:"catalogue" validate:"required"`
	Page      string `yaml:"page" validate:"required"`
}

// CSSConfig drives the versioned stylesheet publisher.
type CSSConfig struct {
	Input       string   `yaml:"input" validate:"required"`
	OutputDir   string   `yaml:"output_dir" validate:"required"`
	Command     []string `yaml:"command" validate:"min=1"`
	MinifyFlag  string   `yaml:"minify_flag"`
	VersionFile string   `yaml:"version_file" validate:"required"`
	SkipDirs    []string `yaml:"skip_dirs"`
}

// IconsConfig drives the uses-page icon cache.
type IconsConfig struct {
	Page        string        `yaml:"page" validate:"required"`
	Dir         string        `yaml:"dir" validate:"required"`
	Concurrency int           `yaml:"concurrency" validate:"min=1,max=64"`
	Timeout     time.Duration `yaml:"timeout" validate:"gt=0"`
	FallbackURL string        `yaml:"fallback_url" validate:"required,url"`
	UserAgent   string        `yaml:"user_agent"`
}

// StaticConfig lists the assets copied verbatim into the distribution tree.
type StaticConfig struct {
	RootFiles []string `yaml:"root_files"`
	Files     []string `yaml:"files"`
	Dirs      []string `yaml:"dirs"`
	ScriptDir string   `yaml:"script_dir"`
}

// DeployConfig drives the build-branch publisher.
type DeployConfig struct {
	Branch      string      `yaml:"branch" validate:"required"`
	Remote      string      `yaml:"remote" validate:"required"`
	Skip        bool        `yaml:"skip"`
	AuthorName  string      `yaml:"author_name" validate:"required"`
	AuthorEmail string      `yaml:"author_email" validate:"required"`
	Username    string      `yaml:"username"`
	Token       string      `yaml:"token"`
	Workspace   string      `yaml:"workspace"`
	Retry       RetryConfig `yaml:"retry"`
}

// RetryConfig configures push retries.
type RetryConfig struct {
	Mode       string        `yaml:"mode" validate:"omitempty,oneof=fixed linear exponential"`
	Initial    time.Duration `yaml:"initial"`
	Max        time.Duration `yaml:"max"`
	MaxRetries int           `yaml:"max_retries" validate:"gte=0"`
}

// WatchConfig drives the watch daemon.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce" validate:"gt=0"`
	DailyAt  string        `yaml:"daily_at" validate:"required,datetime=15:04"`
	Addr     string        `yaml:"addr" validate:"required,hostname_port"`
}

// JournalConfig enables the SQLite build journal when Path is set.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// MetricsConfig enables the textfile metrics export when Textfile is set.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// NotifyConfig enables NATS build notifications when NATSURL is set.
type NotifyConfig struct {
	NATSURL       string `yaml:"nats_url" validate:"omitempty,url"`
	SubjectPrefix string `yaml:"subject_prefix" validate:"required"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Load reads configPath, applies .env files, environment overrides and
// defaults, then validates. A missing file is not an error; the defaults
// describe the standard site layout.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		slog.Warn("Could not load .env file", logfields.Error(err))
	}

	var cfg Config
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "failed to parse configuration").
				WithContext("path", configPath).
				Fatal().
				Build()
		}
		slog.Debug("Loaded configuration", logfields.Path(configPath))
	case errors.Is(err, os.ErrNotExist):
		slog.Debug("No configuration file, using defaults", logfields.Path(configPath))
	default:
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "failed to read configuration").
			WithContext("path", configPath).
			Fatal().
			Build()
	}

	applyEnvOverrides(&cfg)

	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied and no file or
// environment input. Used by tests and by Load.
func Default() *Config {
	var cfg Config
	if err := applyDefaults(&cfg); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &cfg
}

// Path resolves rel against the site root.
func (c *Config) Path(rel string) string {
	if rel == "" || filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(c.Site.Root, rel)
}

// OutPath resolves rel against the distribution tree.
func (c *Config) OutPath(rel string) string {
	out := c.Path(c.Site.OutDir)
	if rel == "" {
		return out
	}
	return filepath.Join(out, rel)
}
