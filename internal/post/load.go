package post

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// ValidationError aggregates every metadata problem found across all posts.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("Post metadata issues:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// Load reads every *.md file in dir (sorted by name) and returns the
// normalized posts. Any metadata problem in any file yields a single
// *ValidationError listing all of them and no posts.
func Load(ctx context.Context, bc BuildContext, dir string) ([]Post, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read posts dir %s: %w", dir, err)
	}

	var (
		posts  []Post
		issues []string
		owners = map[string]string{}
	)

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !isMarkdown(entry.Name()) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				slog.Warn("Post disappeared before it could be read", logfields.Path(path))
				continue
			}
			return nil, fmt.Errorf("read post %s: %w", path, err)
		}

		src := Source{Path: path, RelPath: relPath(bc.SiteRoot, path)}
		doc := frontmatter.Parse(norm.NFC.Bytes(raw))
		p, problems := Normalize(doc, src)
		issues = append(issues, problems...)

		// Invalid posts still claim their slug.
		if p.Slug != "" {
			if first, dup := owners[p.Slug]; dup {
				issues = append(issues, fmt.Sprintf("%s: duplicate slug %q (also used by %s)", src.RelPath, p.Slug, first))
				continue
			}
			owners[p.Slug] = src.RelPath
		}
		if len(problems) == 0 {
			posts = append(posts, p)
		}
	}

	if len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}
	return posts, nil
}

// SortNewestFirst returns a copy of posts ordered by date descending. Posts
// sharing a date keep their input order.
func SortNewestFirst(posts []Post) []Post {
	out := append([]Post(nil), posts...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// ResolveSourceDir returns preferred when it exists, otherwise
// <siteRoot>/posts/md.
func ResolveSourceDir(siteRoot, preferred string) string {
	repoDir := filepath.Join(siteRoot, "posts", "md")
	if preferred == "" {
		return repoDir
	}
	if info, err := os.Stat(preferred); err == nil && info.IsDir() {
		return preferred
	}
	if filepath.Clean(preferred) != filepath.Clean(repoDir) {
		slog.Warn("Posts source not found, using repository copy",
			logfields.Path(preferred),
			slog.String("fallback", repoDir))
	}
	return repoDir
}

// SyncResult reports what SyncMarkdown changed.
type SyncResult struct {
	Copied  int
	Total   int
	Removed []string
	Skipped bool
}

// SyncMarkdown mirrors the *.md files of src into dst and removes *.md files
// from dst that no longer exist in src. Nothing happens when both resolve to
// the same directory.
func SyncMarkdown(src, dst string) (SyncResult, error) {
	absSrc, err := filepath.Abs(src)
	if err != nil {
		return SyncResult{}, err
	}
	absDst, err := filepath.Abs(dst)
	if err != nil {
		return SyncResult{}, err
	}
	if absSrc == absDst {
		slog.Info("Posts source already in place, skipping copy", logfields.Path(dst))
		return SyncResult{Skipped: true}, nil
	}

	if err := os.MkdirAll(dst, 0o755); err != nil {
		return SyncResult{}, fmt.Errorf("create %s: %w", dst, err)
	}

	srcNames, err := markdownFiles(src)
	if err != nil {
		return SyncResult{}, err
	}
	if len(srcNames) == 0 {
		slog.Warn("No markdown files found in posts source", logfields.Path(src))
	}

	result := SyncResult{Total: len(srcNames)}
	keep := make(map[string]bool, len(srcNames))
	for _, name := range srcNames {
		keep[name] = true
		if err := copyFile(filepath.Join(src, name), filepath.Join(dst, name)); err != nil {
			return result, err
		}
		result.Copied++
	}

	dstNames, err := markdownFiles(dst)
	if err != nil {
		return result, err
	}
	for _, name := range dstNames {
		if keep[name] {
			continue
		}
		if err := os.Remove(filepath.Join(dst, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return result, fmt.Errorf("remove stale %s: %w", name, err)
		}
		result.Removed = append(result.Removed, name)
	}

	slog.Info(fmt.Sprintf("✔ synced %d/%d markdown files", result.Copied, result.Total), logfields.Path(dst))
	if len(result.Removed) > 0 {
		slog.Info(fmt.Sprintf("✔ removed %d stale markdown files", len(result.Removed)), logfields.Path(dst))
	}
	return result, nil
}

func markdownFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && isMarkdown(e.Name()) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("copy %s: %w", dst, err)
	}
	return nil
}

func isMarkdown(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".md")
}

func relPath(root, path string) string {
	if root == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
