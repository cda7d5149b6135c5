package commands

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
)

// BuildCmd implements the 'build' command: the full production build.
type BuildCmd struct {
	Out string `short:"o" help:"Distribution directory for static files and cached icons (default: the configured out dir)"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	env, err := NewEnv(root)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := context.Background()
	dist := outRoot(env.Config, b.Out, env.Config.OutPath(""))
	steps := []struct {
		pipeline string
		fn       build.PipelineFunc
	}{
		{build.PipelineCSS, cssPipeline(env, false)},
		{build.PipelinePosts, postsPipeline(env, "")},
		{build.PipelineBookmarks, build.BookmarksPipeline(env.Config, "", time.Now)},
		{build.PipelineStatic, build.StaticPipeline(env.Config, dist)},
		{build.PipelineIcons, iconsPipeline(env, dist)},
	}

	start := time.Now()
	for _, s := range steps {
		if err := env.Run(ctx, s.pipeline, s.fn); err != nil {
			return err
		}
	}
	slog.Info("✔ site built", slog.String("out", dist), slog.Duration("duration", time.Since(start)))
	return nil
}
