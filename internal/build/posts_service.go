package build

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/autogen"
	dberrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/markdown"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/observability"
	"git.home.luguber.info/inful/sitebuilder/internal/post"
	"git.home.luguber.info/inful/sitebuilder/internal/timeline"
)

// Stage names reported in logs, metrics and BuildFailed events.
const (
	StageSync     = "sync"
	StageLoad     = "load"
	StageRender   = "render"
	StageCleanup  = "cleanup"
	StageManifest = "manifest"
	StageInject   = "inject"
)

// Block tags injected by the posts pipeline.
const (
	TagTimeline = "TIMELINE"
	TagLatest   = "LATEST"
)

// PostsService is the standard implementation of BuildService.
type PostsService struct {
	renderer *markdown.Renderer
	recorder metrics.Recorder
	now      func() time.Time
}

// NewPostsService creates a PostsService with the article renderer.
func NewPostsService() *PostsService {
	return &PostsService{
		renderer: markdown.NewRenderer(),
		recorder: metrics.NoopRecorder{},
		now:      time.Now,
	}
}

// WithRecorder sets the metrics recorder.
func (s *PostsService) WithRecorder(r metrics.Recorder) *PostsService {
	if r != nil {
		s.recorder = r
	}
	return s
}

// WithRenderer replaces the Markdown renderer.
func (s *PostsService) WithRenderer(r *markdown.Renderer) *PostsService {
	if r != nil {
		s.renderer = r
	}
	return s
}

// WithClock overrides the clock used when BuildRequest.Now is zero.
func (s *PostsService) WithClock(now func() time.Time) *PostsService {
	if now != nil {
		s.now = now
	}
	return s
}

// Run executes the posts pipeline.
func (s *PostsService) Run(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	startTime := time.Now()
	result := &BuildResult{StartTime: startTime}

	if req.Config == nil {
		return s.finish(result, dberrors.ConfigError("config required").Build())
	}
	cfg := req.Config

	now := req.Now
	if now.IsZero() {
		now = s.now()
	}
	outRoot := req.OutRoot
	if outRoot == "" {
		outRoot = cfg.Site.Root
	}
	bc := post.NewBuildContext(now, cfg.Site.Root, outRoot)
	mdDir := cfg.Path(cfg.Posts.MarkdownDir)

	// Stage 1: mirror the external posts source into the repository copy
	err := s.stage(ctx, StageSync, func(ctx context.Context) error {
		src := post.ResolveSourceDir(cfg.Site.Root, cfg.Path(cfg.Posts.SourceDir))
		if _, err := post.SyncMarkdown(src, mdDir); err != nil {
			return dberrors.WrapError(err, dberrors.CategoryFileSystem, "failed to sync markdown").
				WithContext("source", src).
				Build()
		}
		return nil
	})
	if err != nil {
		return s.finish(result, err)
	}

	// Stage 2: load, validate and order posts
	var posts []post.Post
	err = s.stage(ctx, StageLoad, func(ctx context.Context) error {
		loaded, err := post.Load(ctx, bc, mdDir)
		if err != nil {
			return classifyLoadError(err, mdDir)
		}
		for _, p := range post.SortNewestFirst(loaded) {
			posts = append(posts, p.WithLink())
		}
		bc = bc.WithPosts(posts)
		slog.InfoContext(ctx, "Loaded posts", logfields.Count(len(posts)))
		return nil
	})
	if err != nil {
		return s.finish(result, err)
	}

	visible := bc.Visible(posts)
	result.Published = len(visible)
	result.Scheduled = len(posts) - len(visible)
	s.recorder.SetPostsBuilt(result.Published, result.Scheduled)

	// Stage 3: one standalone page per post, scheduled ones included
	err = s.stage(ctx, StageRender, func(ctx context.Context) error {
		index := loadPageIndex(filepath.Join(outRoot, filepath.FromSlash(PageIndexPath)))
		pages, err := s.renderPages(ctx, cfg.Path(cfg.Posts.Skeleton), filepath.Join(outRoot, cfg.Posts.OutputDir), posts, index)
		result.Pages = pages
		if err != nil {
			return err
		}
		result.MissingAssets = CheckAssets(ctx, posts, cfg.Site.Root, outRoot)
		return nil
	})
	if err != nil {
		return s.finish(result, err)
	}

	// Stage 4: drop pages of deleted or renamed posts
	err = s.stage(ctx, StageCleanup, func(ctx context.Context) error {
		removed, err := CleanupStaleHTML(filepath.Join(outRoot, cfg.Posts.OutputDir), posts)
		result.Removed = removed
		if len(removed) > 0 {
			slog.InfoContext(ctx, fmt.Sprintf("✔ removed %d stale post HTML files", len(removed)))
		}
		return err
	})
	if err != nil {
		return s.finish(result, err)
	}

	// Stage 5: posts.json for client-side consumers
	err = s.stage(ctx, StageManifest, func(ctx context.Context) error {
		path := filepath.Join(outRoot, cfg.Posts.Manifest)
		if err := WriteManifest(path, posts); err != nil {
			return err
		}
		slog.InfoContext(ctx, "✔ posts.json generated from markdown", logfields.Path(path))
		return nil
	})
	if err != nil {
		return s.finish(result, err)
	}

	// Stage 6: timeline and latest-posts blocks
	err = s.stage(ctx, StageInject, func(ctx context.Context) error {
		timelineHTML, err := timeline.RenderTimeline(posts, now)
		if err != nil {
			return fmt.Errorf("%w: timeline: %w", ErrInject, err)
		}
		if err := s.inject(ctx, result, cfg.Path(cfg.Posts.TimelinePage), filepath.Join(outRoot, cfg.Posts.TimelinePage), TagTimeline, timelineHTML); err != nil {
			return err
		}

		latestHTML, err := timeline.RenderLatest(posts, now, cfg.Posts.LatestCount)
		if err != nil {
			return fmt.Errorf("%w: latest: %w", ErrInject, err)
		}
		return s.inject(ctx, result, cfg.Path(cfg.Posts.HomePage), filepath.Join(outRoot, cfg.Posts.HomePage), TagLatest, latestHTML)
	})
	if err != nil {
		return s.finish(result, err)
	}

	result.Status = BuildStatusSuccess
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)
	slog.InfoContext(ctx, "Posts build complete",
		slog.Int("published", result.Published),
		slog.Int("scheduled", result.Scheduled),
		slog.Int("pages", result.Pages))
	return result, nil
}

// stage runs fn under the stage name, recording its duration and result.
func (s *PostsService) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		s.recorder.IncStageResult(name, metrics.ResultCanceled)
		return err
	}
	ctx = observability.WithStage(ctx, name)
	stageStart := time.Now()
	err := fn(ctx)
	s.recorder.ObserveStageDuration(name, time.Since(stageStart))
	switch {
	case err == nil:
		s.recorder.IncStageResult(name, metrics.ResultSuccess)
		return nil
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		s.recorder.IncStageResult(name, metrics.ResultCanceled)
		return err
	default:
		s.recorder.IncStageResult(name, metrics.ResultFatal)
		if classified, ok := dberrors.AsClassified(err); ok {
			return classified.WithContext("stage", name)
		}
		return dberrors.BuildError("posts stage failed").
			WithCause(err).
			WithContext("stage", name).
			Build()
	}
}

func (s *PostsService) finish(result *BuildResult, err error) (*BuildResult, error) {
	result.Status = BuildStatusFailed
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		result.Status = BuildStatusCancelled
	}
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	return result, err
}

func classifyLoadError(err error, dir string) error {
	var verr *post.ValidationError
	if stderrors.As(err, &verr) {
		return dberrors.WrapError(err, dberrors.CategoryValidation, "invalid post metadata").
			Fatal().
			WithContext("dir", dir).
			Build()
	}
	if stderrors.Is(err, context.Canceled) {
		return err
	}
	return dberrors.WrapError(fmt.Errorf("%w: %w", ErrLoad, err), dberrors.CategoryFileSystem, "failed to load posts").
		WithContext("dir", dir).
		Build()
}

// renderPages writes one page per post and returns how many changed. Posts
// whose page key matches the index are not rendered again.
func (s *PostsService) renderPages(ctx context.Context, skeletonPath, outDir string, posts []post.Post, index *pageIndex) (int, error) {
	skeleton, err := os.ReadFile(skeletonPath) //nolint:gosec // skeleton path from configuration
	if err != nil {
		return 0, dberrors.WrapError(err, dberrors.CategoryFileSystem, "failed to read page skeleton").
			WithContext("path", skeletonPath).
			Build()
	}
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return 0, dberrors.WrapError(err, dberrors.CategoryFileSystem, "failed to create posts directory").
			WithContext("path", outDir).
			Build()
	}

	written := 0
	for _, p := range posts {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		target := filepath.Join(outDir, p.Slug+".html")
		key := pageKey(p, skeleton)
		if index.Fresh(p.Slug, key, target) {
			slog.DebugContext(ctx, "Post page unchanged",
				logfields.Slug(p.Slug),
				slog.String("fingerprint", p.Fingerprint))
			continue
		}

		content, err := s.renderer.Render(p.Body, p.Slug)
		if err != nil {
			return written, fmt.Errorf("%w: %s: %w", ErrRender, p.SourcePath, err)
		}
		page := timeline.RenderPostPage(string(skeleton), p, content)

		changed, err := writeIfChanged(target, []byte(page))
		if err != nil {
			return written, err
		}
		index.Set(p.Slug, key)
		if !changed {
			continue
		}
		written++
		rel := filepath.ToSlash(filepath.Join(filepath.Base(outDir), p.Slug+".html"))
		slog.InfoContext(ctx, "✔ built "+rel, logfields.Slug(p.Slug))
	}
	index.Retain(posts)
	return written, index.Save()
}

func (s *PostsService) inject(ctx context.Context, result *BuildResult, in, out, tag, content string) error {
	changed, err := autogen.InjectFile(in, out, tag, content)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			slog.WarnContext(ctx, "Page not found, skipping block", logfields.Path(in), slog.String("tag", tag))
			return nil
		}
		return err
	}
	if changed {
		result.Blocks++
		slog.InfoContext(ctx, fmt.Sprintf("✔ %s updated in %s", tag, filepath.Base(out)), logfields.Path(out))
	}
	return nil
}

// writeIfChanged writes data to path unless the file already holds it.
func writeIfChanged(path string, data []byte) (bool, error) {
	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, data) { //nolint:gosec // output path derived from configuration
		return false, nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // public HTML output
		return false, dberrors.WrapError(err, dberrors.CategoryFileSystem, "failed to write file").
			WithContext("path", path).
			Build()
	}
	return true, nil
}
