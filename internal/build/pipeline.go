package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/bookmarks"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/cssbuild"
	"git.home.luguber.info/inful/sitebuilder/internal/deploy"
	"git.home.luguber.info/inful/sitebuilder/internal/eventstore"
	"git.home.luguber.info/inful/sitebuilder/internal/iconcache"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/staticcopy"
)

// PostsPipeline adapts a BuildService to a Runner pipeline body.
func PostsPipeline(svc BuildService, req BuildRequest) PipelineFunc {
	return func(ctx context.Context, buildID string) (Outcome, error) {
		result, err := svc.Run(ctx, req)
		if err != nil {
			return Outcome{}, err
		}

		event, err := eventstore.NewPostsBuilt(buildID, result.Published, result.Scheduled, result.Pages, len(result.Removed))
		if err != nil {
			return Outcome{}, err
		}

		status := metrics.BuildOutcomeSuccess
		if result.Pages == 0 && result.Blocks == 0 && len(result.Removed) == 0 {
			status = metrics.BuildOutcomeUnchanged
		}
		return Outcome{
			Status: status,
			Events: []eventstore.Event{event},
			Details: map[string]any{
				"published": result.Published,
				"scheduled": result.Scheduled,
				"pages":     result.Pages,
				"removed":   len(result.Removed),
			},
		}, nil
	}
}

// CSSPipeline publishes the stylesheet. A rebuild that produced identical
// bytes reports unchanged.
func CSSPipeline(p *cssbuild.Publisher, opts cssbuild.Options) PipelineFunc {
	return func(ctx context.Context, buildID string) (Outcome, error) {
		result, err := p.Publish(ctx, opts)
		if err != nil {
			return Outcome{}, err
		}

		details := map[string]any{
			"dev":      result.Dev,
			"version":  result.Version,
			"file":     result.File,
			"relinked": len(result.Relinked),
		}
		if result.Dev {
			return Outcome{Status: metrics.BuildOutcomeSuccess, Details: details}, nil
		}

		var event eventstore.Event
		status := metrics.BuildOutcomeSuccess
		if result.Unchanged {
			status = metrics.BuildOutcomeUnchanged
			event, err = eventstore.NewCSSUnchanged(buildID, result.Version)
		} else {
			event, err = eventstore.NewCSSPublished(buildID, result.Version, result.File)
		}
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Status: status, Events: []eventstore.Event{event}, Details: details}, nil
	}
}

// BookmarksPipeline renders the bookmarks page below outRoot.
func BookmarksPipeline(cfg *config.Config, outRoot string, now func() time.Time) PipelineFunc {
	return func(ctx context.Context, buildID string) (Outcome, error) {
		result, err := bookmarks.Build(ctx, cfg, outRoot, now())
		if err != nil {
			return Outcome{}, err
		}
		event, err := eventstore.NewBookmarksBuilt(buildID, result.Published)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{
			Status: changedStatus(result.Changed),
			Events: []eventstore.Event{event},
			Details: map[string]any{
				"total":     result.Total,
				"published": result.Published,
			},
		}, nil
	}
}

// IconsPipeline caches the remote images of the uses page.
func IconsPipeline(c *iconcache.Cache) PipelineFunc {
	return func(ctx context.Context, buildID string) (Outcome, error) {
		result, err := c.Run(ctx)
		if err != nil {
			return Outcome{}, err
		}
		details := map[string]any{
			"total":  result.Total,
			"cached": result.Cached,
			"failed": result.Failed,
		}
		if result.Skipped {
			return Outcome{Status: metrics.BuildOutcomeUnchanged, Details: details}, nil
		}
		event, err := eventstore.NewIconsCached(buildID, result.Cached, result.Total, result.Failed)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{
			Status:  changedStatus(result.Changed),
			Events:  []eventstore.Event{event},
			Details: details,
		}, nil
	}
}

// StaticPipeline copies the static files into outRoot.
func StaticPipeline(cfg *config.Config, outRoot string) PipelineFunc {
	return func(ctx context.Context, _ string) (Outcome, error) {
		result, err := staticcopy.Copy(ctx, cfg, outRoot)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{
			Status: metrics.BuildOutcomeSuccess,
			Details: map[string]any{
				"files":   result.Files,
				"dirs":    result.Dirs,
				"missing": len(result.Missing),
			},
		}, nil
	}
}

// DeployPipeline pushes the deployable files to the build branch.
func DeployPipeline(p *deploy.Publisher) PipelineFunc {
	return func(ctx context.Context, buildID string) (Outcome, error) {
		result, err := p.Publish(ctx)
		if err != nil {
			return Outcome{}, err
		}
		details := map[string]any{
			"branch":  result.Branch,
			"files":   result.Files,
			"removed": result.Removed,
		}
		if result.Skipped {
			details["reason"] = result.Reason
			return Outcome{Status: metrics.BuildOutcomeUnchanged, Details: details}, nil
		}
		details["commit"] = result.Commit
		event, err := eventstore.NewDeployed(buildID, result.Branch, result.Commit, result.Pushed)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{
			Status:  changedStatus(result.Pushed),
			Events:  []eventstore.Event{event},
			Details: details,
		}, nil
	}
}

func changedStatus(changed bool) metrics.BuildOutcomeLabel {
	if changed {
		return metrics.BuildOutcomeSuccess
	}
	return metrics.BuildOutcomeUnchanged
}
