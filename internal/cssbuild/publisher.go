package cssbuild

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
)

// Options select the publish mode.
type Options struct {
	Dev bool
}

// Result describes what a publish did.
type Result struct {
	Dev       bool
	Version   int
	File      string // root-relative bundle path, e.g. src/output-v004.css
	Unchanged bool
	Removed   []string
	Relinked  []string
}

// Href is the site-absolute link to the bundle.
func (r Result) Href() string {
	return "/" + r.File
}

// Publisher owns the CSS version counter and the bundle files in OutputDir.
type Publisher struct {
	root        string
	outputDir   string
	versionFile string
	skipDirs    []string
	builder     Builder
	recorder    metrics.Recorder
}

// NewPublisher creates a Publisher from the css section of cfg using the
// configured external command.
func NewPublisher(cfg *config.Config) *Publisher {
	return &Publisher{
		root:        cfg.Site.Root,
		outputDir:   cfg.CSS.OutputDir,
		versionFile: cfg.Path(cfg.CSS.VersionFile),
		skipDirs:    cfg.CSS.SkipDirs,
		builder: &CommandBuilder{
			Argv:       cfg.CSS.Command,
			Input:      cfg.CSS.Input,
			MinifyFlag: cfg.CSS.MinifyFlag,
			Dir:        cfg.Site.Root,
		},
		recorder: metrics.NoopRecorder{},
	}
}

// WithBuilder replaces the CSS tool.
func (p *Publisher) WithBuilder(b Builder) *Publisher {
	if b != nil {
		p.builder = b
	}
	return p
}

// WithRecorder sets the metrics recorder.
func (p *Publisher) WithRecorder(r metrics.Recorder) *Publisher {
	if r != nil {
		p.recorder = r
	}
	return p
}

func (p *Publisher) dir() string {
	return filepath.Join(p.root, p.outputDir)
}

func (p *Publisher) rel(name string) string {
	return filepath.ToSlash(filepath.Join(p.outputDir, name))
}

// Publish builds the stylesheet and, when it changed, publishes it.
func (p *Publisher) Publish(ctx context.Context, opts Options) (Result, error) {
	if err := os.MkdirAll(p.dir(), 0o750); err != nil {
		return Result{}, errors.WrapError(err, errors.CategoryFileSystem, "failed to create css output directory").
			WithContext("path", p.dir()).
			Build()
	}
	if opts.Dev {
		return p.publishDev(ctx)
	}
	return p.publishVersioned(ctx)
}

func (p *Publisher) publishDev(ctx context.Context) (Result, error) {
	res := Result{Dev: true, File: p.rel(devFile)}
	slog.Info("◆ Building CSS → " + res.File)
	if err := p.builder.Build(ctx, filepath.Join(p.dir(), devFile), false); err != nil {
		return res, buildError(err)
	}
	relinked, err := p.relink(res.Href())
	res.Relinked = relinked
	if err != nil {
		return res, err
	}
	slog.Info("✔ CSS dev build complete: " + res.Href())
	return res, nil
}

func (p *Publisher) publishVersioned(ctx context.Context) (Result, error) {
	current, err := ReadVersion(p.versionFile)
	if err != nil {
		return Result{}, errors.WrapError(err, errors.CategoryFileSystem, "failed to read css version").
			WithContext("path", p.versionFile).
			Build()
	}

	tmp := filepath.Join(p.dir(), tempFile)
	slog.Info("◆ Building CSS → " + p.rel(tempFile))
	if err := p.builder.Build(ctx, tmp, true); err != nil {
		_ = os.Remove(tmp)
		return Result{}, buildError(err)
	}
	fresh, err := os.ReadFile(tmp) //nolint:gosec // path inside the css output dir
	if err != nil {
		return Result{}, errors.WrapError(err, errors.CategoryBuild, "css tool produced no output").
			WithContext("path", tmp).
			Build()
	}

	if current > 0 {
		linked, err := os.ReadFile(filepath.Join(p.dir(), VersionedName(current))) //nolint:gosec // path inside the css output dir
		if err == nil && bytes.Equal(linked, fresh) {
			if err := os.Remove(tmp); err != nil {
				return Result{}, errors.WrapError(err, errors.CategoryFileSystem, "failed to remove temporary css").Build()
			}
			p.recorder.SetCSSVersion(current)
			res := Result{Version: current, File: p.rel(VersionedName(current)), Unchanged: true}
			slog.Info("✔ CSS unchanged, keeping "+res.Href(), logfields.Version(fmt.Sprintf("%03d", current)))
			return res, nil
		}
	}

	next := current + 1
	res := Result{Version: next, File: p.rel(VersionedName(next))}
	if err := os.Rename(tmp, filepath.Join(p.dir(), VersionedName(next))); err != nil {
		return res, errors.WrapError(err, errors.CategoryFileSystem, "failed to move css bundle into place").Build()
	}
	if err := WriteVersion(p.versionFile, next); err != nil {
		return res, errors.WrapError(err, errors.CategoryFileSystem, "failed to persist css version").
			WithContext("path", p.versionFile).
			Build()
	}
	p.recorder.SetCSSVersion(next)

	removed, err := p.removeStale(VersionedName(next))
	res.Removed = removed
	if err != nil {
		return res, err
	}

	relinked, err := p.relink(res.Href())
	res.Relinked = relinked
	if err != nil {
		return res, err
	}
	slog.Info("✔ CSS cache build complete: "+res.Href(), logfields.Version(fmt.Sprintf("%03d", next)))
	return res, nil
}

// removeStale deletes every versioned bundle except keep, and the dev bundle.
func (p *Publisher) removeStale(keep string) ([]string, error) {
	entries, err := os.ReadDir(p.dir())
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to list css output directory").Build()
	}
	var removed []string
	for _, e := range entries {
		name := e.Name()
		stale := name == devFile || (strings.HasPrefix(name, "output-v") && strings.HasSuffix(name, ".css"))
		if e.IsDir() || name == keep || !stale {
			continue
		}
		if err := os.Remove(filepath.Join(p.dir(), name)); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
			return removed, errors.WrapError(err, errors.CategoryFileSystem, "failed to remove stale css").
				WithContext("file", name).
				Build()
		}
		removed = append(removed, p.rel(name))
		slog.Info("✖ removed " + p.rel(name))
	}
	return removed, nil
}

func (p *Publisher) relink(href string) ([]string, error) {
	relinked, err := RelinkHTML(p.root, href, p.skipDirs)
	if err != nil {
		return relinked, errors.WrapError(err, errors.CategoryFileSystem, "failed to relink html").Build()
	}
	return relinked, nil
}

func buildError(err error) error {
	if stderrors.Is(err, context.Canceled) {
		return err
	}
	return errors.WrapError(err, errors.CategoryBuild, "css build failed").Build()
}
