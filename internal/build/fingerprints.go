package build

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/inful/mdfp"

	dberrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/post"
	"git.home.luguber.info/inful/sitebuilder/internal/version"
)

// PageIndexPath is where the page fingerprint index lives below the output root.
const PageIndexPath = ".sitebuilder/pages.json"

// pageIndex maps a post slug to the key of the page last rendered for it.
type pageIndex struct {
	path  string
	pages map[string]string
	dirty bool
}

// loadPageIndex reads the index at path. A missing or unreadable index is
// treated as empty, so every page renders.
func loadPageIndex(path string) *pageIndex {
	ix := &pageIndex{path: path, pages: map[string]string{}}
	data, err := os.ReadFile(path) //nolint:gosec // path derived from the output root
	if err != nil {
		return ix
	}
	if err := json.Unmarshal(data, &ix.pages); err != nil {
		slog.Debug("Discarding unreadable page index", logfields.Path(path), logfields.Error(err))
		ix.pages = map[string]string{}
	}
	return ix
}

// pageKey combines the post fingerprint with everything else that shapes
// its page: the slug, the skeleton and the renderer build.
func pageKey(p post.Post, skeleton []byte) string {
	header := "slug: " + p.Slug + "\nsource: " + p.Fingerprint + "\nrenderer: " + version.String()
	return mdfp.CalculateFingerprintFromParts(header, string(skeleton))
}

// Fresh reports whether target was rendered from key and still exists.
func (ix *pageIndex) Fresh(slug, key, target string) bool {
	if ix.pages[slug] != key {
		return false
	}
	_, err := os.Stat(target)
	return err == nil
}

func (ix *pageIndex) Set(slug, key string) {
	if ix.pages[slug] != key {
		ix.pages[slug] = key
		ix.dirty = true
	}
}

// Retain drops entries for slugs not in posts.
func (ix *pageIndex) Retain(posts []post.Post) {
	keep := make(map[string]bool, len(posts))
	for _, p := range posts {
		keep[p.Slug] = true
	}
	for slug := range ix.pages {
		if !keep[slug] {
			delete(ix.pages, slug)
			ix.dirty = true
		}
	}
}

func (ix *pageIndex) Save() error {
	if !ix.dirty {
		return nil
	}
	data, err := json.MarshalIndent(ix.pages, "", "  ")
	if err != nil {
		return dberrors.WrapError(err, dberrors.CategoryInternal, "failed to encode page index").Build()
	}
	if err := os.MkdirAll(filepath.Dir(ix.path), 0o750); err != nil {
		return dberrors.WrapError(err, dberrors.CategoryFileSystem, "failed to create page index directory").
			WithContext("path", ix.path).
			Build()
	}
	if _, err := writeIfChanged(ix.path, data); err != nil {
		return err
	}
	ix.dirty = false
	return nil
}
