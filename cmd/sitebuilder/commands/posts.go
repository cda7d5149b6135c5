package commands

import (
	"context"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
)

// PostsCmd implements the 'posts' command.
type PostsCmd struct {
	Out string `short:"o" help:"Write pages and injected HTML below this directory instead of the site root"`
}

func (p *PostsCmd) Run(_ *Global, root *CLI) error {
	env, err := NewEnv(root)
	if err != nil {
		return err
	}
	defer env.Close()
	return env.Run(context.Background(), build.PipelinePosts, postsPipeline(env, outRoot(env.Config, p.Out, "")))
}

func postsPipeline(env *Env, out string) build.PipelineFunc {
	svc := build.NewPostsService().WithRecorder(env.Recorder)
	return build.PostsPipeline(svc, build.BuildRequest{Config: env.Config, OutRoot: out})
}
