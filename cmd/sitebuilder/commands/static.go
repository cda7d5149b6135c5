package commands

import (
	"context"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
)

// StaticCmd implements the 'static' command.
type StaticCmd struct {
	Out string `short:"o" help:"Destination directory (default: the configured out dir)"`
}

func (s *StaticCmd) Run(_ *Global, root *CLI) error {
	env, err := NewEnv(root)
	if err != nil {
		return err
	}
	defer env.Close()
	out := outRoot(env.Config, s.Out, env.Config.OutPath(""))
	return env.Run(context.Background(), build.PipelineStatic, build.StaticPipeline(env.Config, out))
}
