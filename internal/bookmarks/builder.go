package bookmarks

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/autogen"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// Tag is the AUTO-GEN block the timeline is injected into.
const Tag = "BOOKMARKS"

// Result summarizes a bookmarks build.
type Result struct {
	Total     int
	Published int
	Changed   bool
}

// Build renders the published bookmarks into the bookmarks page. The page is
// read from the site root and written below outRoot (the site root when
// empty).
func Build(ctx context.Context, cfg *config.Config, outRoot string, now time.Time) (Result, error) {
	if outRoot == "" {
		outRoot = cfg.Site.Root
	}
	catalogue := cfg.Path(cfg.Bookmarks.Catalogue)
	items, err := Load(catalogue)
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	published := Published(items, now)
	html, err := Render(published)
	if err != nil {
		return Result{}, err
	}

	out := filepath.Join(outRoot, cfg.Bookmarks.Page)
	changed, err := autogen.InjectFile(cfg.Path(cfg.Bookmarks.Page), out, Tag, html)
	if err != nil {
		return Result{}, err
	}

	res := Result{Total: len(items), Published: len(published), Changed: changed}
	if changed {
		slog.Info("✔ bookmarks timeline updated", logfields.Path(out), logfields.Count(res.Published))
	} else {
		slog.Info("Bookmarks timeline already up to date", logfields.Path(out))
	}
	return res, nil
}
