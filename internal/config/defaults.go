package config

import (
	"path/filepath"
	"time"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

func applyDefaults(cfg *Config) error {
	appliers := []DefaultApplier{
		&SiteDefaultApplier{},
		&PostsDefaultApplier{},
		&AssetsDefaultApplier{},
		&DeployDefaultApplier{},
		&RuntimeDefaultApplier{},
	}
	for _, a := range appliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}

// SiteDefaultApplier handles the site root and distribution tree.
type SiteDefaultApplier struct{}

func (s *SiteDefaultApplier) Domain() string { return "site" }

func (s *SiteDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Site.Root == "" {
		cfg.Site.Root = "."
	}
	cfg.Site.Root = filepath.Clean(cfg.Site.Root)
	if cfg.Site.OutDir == "" {
		cfg.Site.OutDir = "dist"
	}
	return nil
}

// PostsDefaultApplier handles the posts and bookmarks pipelines.
type PostsDefaultApplier struct{}

func (p *PostsDefaultApplier) Domain() string { return "posts" }

func (p *PostsDefaultApplier) ApplyDefaults(cfg *Config) error {
	setDefault(&cfg.Posts.MarkdownDir, filepath.Join("posts", "md"))
	setDefault(&cfg.Posts.OutputDir, "posts")
	setDefault(&cfg.Posts.Skeleton, filepath.Join("scripts", "page-skeleton.html"))
	setDefault(&cfg.Posts.TimelinePage, filepath.Join("posts", "index.html"))
	setDefault(&cfg.Posts.HomePage, "index.html")
	setDefault(&cfg.Posts.Manifest, filepath.Join("posts", "posts.json"))
	if cfg.Posts.LatestCount == 0 {
		cfg.Posts.LatestCount = 3
	}

	setDefault(&cfg.Bookmarks.Catalogue, filepath.Join("bookmarks", "bookmarks.json"))
	setDefault(&cfg.Bookmarks.Page, filepath.Join("bookmarks", "index.html"))
	return nil
}

// AssetsDefaultApplier handles CSS, icon and static asset settings.
type AssetsDefaultApplier struct{}

func (a *AssetsDefaultApplier) Domain() string { return "assets" }

func (a *AssetsDefaultApplier) ApplyDefaults(cfg *Config) error {
	setDefault(&cfg.CSS.Input, "./src/styles.css")
	setDefault(&cfg.CSS.OutputDir, "src")
	if len(cfg.CSS.Command) == 0 {
		cfg.CSS.Command = []string{"npx", "tailwindcss", "-i", "{input}", "-o", "{output}"}
	}
	setDefault(&cfg.CSS.MinifyFlag, "--minify")
	setDefault(&cfg.CSS.VersionFile, ".css-version")
	if cfg.CSS.SkipDirs == nil {
		cfg.CSS.SkipDirs = []string{"node_modules", cfg.Site.OutDir}
	}

	setDefault(&cfg.Icons.Page, filepath.Join("uses", "index.html"))
	setDefault(&cfg.Icons.Dir, filepath.Join("uses", "icons"))
	if cfg.Icons.Concurrency == 0 {
		cfg.Icons.Concurrency = 8
	}
	if cfg.Icons.Timeout == 0 {
		cfg.Icons.Timeout = 30 * time.Second
	}
	setDefault(&cfg.Icons.FallbackURL, "https://icons.duckduckgo.com/ip3/{host}.ico")

	if cfg.Static.RootFiles == nil {
		cfg.Static.RootFiles = []string{
			".htaccess",
			"favicon.ico",
			"favicon.svg",
			"favicon-96x96.png",
			"apple-touch-icon.png",
			"web-app-manifest-192x192.png",
			"web-app-manifest-512x512.png",
			"site.webmanifest",
			"robots.txt",
			"sitemap.xml",
		}
	}
	if cfg.Static.Files == nil {
		cfg.Static.Files = []string{filepath.Join("bookmarks", "bookmarks.json"), filepath.Join("posts", "posts.json")}
	}
	if cfg.Static.Dirs == nil {
		cfg.Static.Dirs = []string{"images", "fonts", filepath.Join("posts", "assets")}
	}
	setDefault(&cfg.Static.ScriptDir, "src")
	return nil
}

// DeployDefaultApplier handles the build-branch publisher.
type DeployDefaultApplier struct{}

func (d *DeployDefaultApplier) Domain() string { return "deploy" }

func (d *DeployDefaultApplier) ApplyDefaults(cfg *Config) error {
	setDefault(&cfg.Deploy.Branch, "build")
	setDefault(&cfg.Deploy.Remote, "origin")
	setDefault(&cfg.Deploy.AuthorName, "sitebuilder")
	setDefault(&cfg.Deploy.AuthorEmail, "sitebuilder@localhost")
	setDefault(&cfg.Deploy.Retry.Mode, "exponential")
	if cfg.Deploy.Retry.Initial == 0 {
		cfg.Deploy.Retry.Initial = 2 * time.Second
	}
	if cfg.Deploy.Retry.Max == 0 {
		cfg.Deploy.Retry.Max = 30 * time.Second
	}
	if cfg.Deploy.Retry.MaxRetries == 0 {
		cfg.Deploy.Retry.MaxRetries = 2
	}
	return nil
}

// RuntimeDefaultApplier handles the watch daemon, notifications and logging.
type RuntimeDefaultApplier struct{}

func (r *RuntimeDefaultApplier) Domain() string { return "runtime" }

func (r *RuntimeDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	setDefault(&cfg.Watch.DailyAt, "00:05")
	setDefault(&cfg.Watch.Addr, ":8080")
	setDefault(&cfg.Notify.SubjectPrefix, "site.build")

	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	return nil
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
