package commands

import (
	"context"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/cssbuild"
)

// CSSCmd implements the 'css' command.
type CSSCmd struct {
	Dev bool `help:"Build an unminified output-dev.css and link it instead of a versioned bundle"`
}

func (c *CSSCmd) Run(_ *Global, root *CLI) error {
	env, err := NewEnv(root)
	if err != nil {
		return err
	}
	defer env.Close()
	return env.Run(context.Background(), build.PipelineCSS, cssPipeline(env, c.Dev))
}

func cssPipeline(env *Env, dev bool) build.PipelineFunc {
	pub := cssbuild.NewPublisher(env.Config).WithRecorder(env.Recorder)
	return build.CSSPipeline(pub, cssbuild.Options{Dev: dev})
}
