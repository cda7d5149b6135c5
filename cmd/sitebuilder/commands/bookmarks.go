package commands

import (
	"context"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
)

// BookmarksCmd implements the 'bookmarks' command.
type BookmarksCmd struct {
	Out string `short:"o" help:"Write the bookmarks page below this directory instead of the site root"`
}

func (b *BookmarksCmd) Run(_ *Global, root *CLI) error {
	env, err := NewEnv(root)
	if err != nil {
		return err
	}
	defer env.Close()
	out := outRoot(env.Config, b.Out, "")
	return env.Run(context.Background(), build.PipelineBookmarks, build.BookmarksPipeline(env.Config, out, time.Now))
}
