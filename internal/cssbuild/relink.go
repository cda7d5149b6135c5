package cssbuild

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// cssLinkPattern matches href="/src/output.css", 'src/output-v012.css?x' and
// "output-dev.css".
var cssLinkPattern = regexp.MustCompile(`(?i)href=("|')[^"']*output(?:-v\d{3,}|-dev)?\.css[^"']*("|')`)

// RelinkHTML rewrites the stylesheet href of every .html/.htm file below root
// to href. node_modules, dot entries and skipDirs (names or root-relative
// paths) are not visited. Files are only written when they change; the
// root-relative paths of changed files are returned.
func RelinkHTML(root, href string, skipDirs []string) ([]string, error) {
	skip := make(map[string]bool, len(skipDirs)+1)
	skip["node_modules"] = true
	for _, d := range skipDirs {
		if d != "" {
			skip[filepath.Clean(d)] = true
		}
	}
	replacement := `href="` + href + `"`

	var changed []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		name := d.Name()
		rel, _ := filepath.Rel(root, path)
		if strings.HasPrefix(name, ".") || skip[name] || skip[rel] {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !isHTML(name) {
			return nil
		}

		raw, err := os.ReadFile(path) //nolint:gosec // walking the site tree
		if err != nil {
			return err
		}
		updated := cssLinkPattern.ReplaceAllLiteralString(string(raw), replacement)
		if updated == string(raw) {
			return nil
		}
		if err := os.WriteFile(path, []byte(updated), 0o644); err != nil { //nolint:gosec // public HTML
			return err
		}
		changed = append(changed, filepath.ToSlash(rel))
		slog.Info("✔ linked "+filepath.ToSlash(rel), logfields.Path(path))
		return nil
	})
	return changed, err
}

func isHTML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".html" || ext == ".htm"
}
