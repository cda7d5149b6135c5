package commands

import (
	"context"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/iconcache"
)

// IconsCmd implements the 'icons' command.
type IconsCmd struct {
	Out string `short:"o" help:"Output root holding uses/index.html (default: the configured out dir)"`
}

func (i *IconsCmd) Run(_ *Global, root *CLI) error {
	env, err := NewEnv(root)
	if err != nil {
		return err
	}
	defer env.Close()
	return env.Run(context.Background(), build.PipelineIcons, iconsPipeline(env, outRoot(env.Config, i.Out, env.Config.OutPath(""))))
}

func iconsPipeline(env *Env, out string) build.PipelineFunc {
	return build.IconsPipeline(iconcache.New(env.Config, out).WithRecorder(env.Recorder))
}
