package build

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/markdown"
	"git.home.luguber.info/inful/sitebuilder/internal/post"
)

// CheckAssets warns about site-absolute links and images ("/posts/assets/x.png")
// whose file exists under none of roots. Page routes such as "/posts/" or
// "/uses" that resolve to a directory count as present.
func CheckAssets(ctx context.Context, posts []post.Post, roots ...string) []string {
	var missing []string
	for _, p := range posts {
		seen := map[string]bool{}
		for _, ref := range markdown.References([]byte(p.Body)) {
			rel, ok := ref.LocalPath()
			if !ok || seen[rel] {
				continue
			}
			seen[rel] = true
			if existsUnder(roots, rel) {
				continue
			}
			missing = append(missing, rel)
			slog.WarnContext(ctx, "Linked file not found",
				logfields.Slug(p.Slug),
				logfields.Path(rel),
				slog.String("kind", ref.Kind()))
		}
	}
	return missing
}

func existsUnder(roots []string, rel string) bool {
	for _, root := range roots {
		if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel))); err == nil {
			return true
		}
	}
	return false
}
