package commands

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/daemon"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/preview"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Serve bool   `help:"Serve the site with live reload, /metrics and /healthz"`
	Addr  string `help:"Listen address for --serve (default: watch.addr)"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	env, err := NewEnv(root)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var srv *preview.Server
	rebuild := func(ctx context.Context, trigger string) error {
		out, err := env.Runner.Run(ctx, build.PipelinePosts, trigger, postsPipeline(env, ""))
		if err == nil && srv != nil && out.Status != metrics.BuildOutcomeUnchanged {
			srv.Reload(strconv.FormatInt(time.Now().UnixNano(), 36))
		}
		return err
	}

	d, err := daemon.New(env.Config, rebuild)
	if err != nil {
		return err
	}
	if !w.Serve {
		return d.Run(ctx)
	}

	srv = preview.New(env.Config.Site.Root, preview.Options{
		Status:  func() any { return d.Status() },
		Metrics: env.Recorder.Handler(),
	})
	addr := w.Addr
	if addr == "" {
		addr = env.Config.Watch.Addr
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return d.Run(gctx) })
	g.Go(func() error { return srv.ListenAndServe(gctx, addr) })
	return g.Wait()
}
