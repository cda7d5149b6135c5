package build

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	dberrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/post"
)

// CleanupStaleHTML deletes *.html files in dir that belong to no post.
// index.html and subdirectories are kept. A missing dir is not an error.
func CleanupStaleHTML(dir string, posts []post.Post) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, dberrors.WrapError(err, dberrors.CategoryFileSystem, "failed to read posts directory").
			WithContext("path", dir).
			Build()
	}

	keep := make(map[string]bool, len(posts)+1)
	keep["index.html"] = true
	for _, p := range posts {
		keep[p.Slug+".html"] = true
	}

	var removed []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || !strings.HasSuffix(strings.ToLower(name), ".html") || keep[name] {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
			return removed, dberrors.WrapError(err, dberrors.CategoryFileSystem, "failed to remove stale page").
				WithContext("path", filepath.Join(dir, name)).
				Build()
		}
		removed = append(removed, name)
	}
	sort.Strings(removed)
	return removed, nil
}
