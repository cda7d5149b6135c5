package deploy

import (
	"path"
	"strings"
)

var deployExtensions = map[string]bool{
	".html":        true,
	".htm":         true,
	".css":         true,
	".js":          true,
	".mjs":         true,
	".json":        true,
	".svg":         true,
	".png":         true,
	".jpg":         true,
	".jpeg":        true,
	".gif":         true,
	".webp":        true,
	".avif":        true,
	".ico":         true,
	".xml":         true,
	".txt":         true,
	".webmanifest": true,
	".csv":         true,
	".pdf":         true,
	".mp4":         true,
	".webm":        true,
	".woff":        true,
	".woff2":       true,
	".ttf":         true,
	".otf":         true,
	".eot":         true,
	".php":         true,
}

// Source files and build intermediates that never ship.
var exactExcludes = map[string]bool{
	"src/styles.css":           true,
	"src/output-dev.css":       true,
	"src/.output-temp.css":     true,
	"bookmarks/bookmarks.json": true,
}

var baseExcludes = map[string]bool{
	"AGENTS.md":          true,
	"README.md":          true,
	"LICENSE":            true,
	".gitignore":         true,
	"package.json":       true,
	"package-lock.json":  true,
	"tailwind.config.js": true,
	"sitebuilder.yaml":   true,
}

var prefixExcludes = []string{
	".git/",
	".github/",
	".vscode/",
	".sitebuilder/",
	"node_modules/",
	"scripts/",
	"_cache/",
	".build-worktree/",
}

var noExtAllow = map[string]bool{
	".htaccess": true,
}

// IsDeployable reports whether a repository-relative path belongs on the
// build branch.
func IsDeployable(rel string) bool {
	normalized := strings.ReplaceAll(rel, "\\", "/")
	for _, prefix := range prefixExcludes {
		if strings.HasPrefix(normalized, prefix) {
			return false
		}
	}
	if exactExcludes[normalized] {
		return false
	}

	base := path.Base(normalized)
	if baseExcludes[base] {
		return false
	}
	if ext := strings.ToLower(path.Ext(base)); ext != "" && ext != base {
		return deployExtensions[ext]
	}
	return noExtAllow[base]
}
