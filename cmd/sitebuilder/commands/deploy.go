package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/deploy"
)

// DeployCmd implements the 'deploy' command.
type DeployCmd struct {
	Branch string `help:"Build branch (default: deploy.branch or BUILD_BRANCH)"`
	Remote string `help:"Git remote (default: deploy.remote or BUILD_REMOTE)"`
}

func (d *DeployCmd) Run(_ *Global, root *CLI) error {
	env, err := NewEnv(root)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pub := deploy.NewPublisher(env.Config).WithBranch(d.Branch).WithRemote(d.Remote)
	return env.Run(ctx, build.PipelineDeploy, build.DeployPipeline(pub))
}
