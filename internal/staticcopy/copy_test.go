package staticcopy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	foundationerrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

func TestCopy(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.Site.Root = root
	cfg.Static.RootFiles = []string{"robots.txt", "favicon.ico"}
	cfg.Static.Files = []string{filepath.Join("posts", "posts.json")}
	cfg.Static.Dirs = []string{filepath.Join("posts", "assets"), "fonts"}

	writeFile(t, root, "robots.txt", "User-agent: *")
	writeFile(t, root, "posts/posts.json", "[]")
	writeFile(t, root, "posts/assets/a.png", "png")
	writeFile(t, root, "posts/assets/nested/b.png", "png2")
	writeFile(t, root, "src/main.js", "console.log(1)")
	writeFile(t, root, "src/styles.css", "body{}")
	writeFile(t, root, "src/lib/dep.js", "x")

	out := filepath.Join(root, "dist")
	res, err := Copy(context.Background(), cfg, out)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Files)
	assert.Equal(t, 1, res.Dirs)
	assert.ElementsMatch(t, []string{"favicon.ico", "fonts"}, res.Missing)

	for rel, want := range map[string]string{
		"robots.txt":                "User-agent: *",
		"posts/posts.json":          "[]",
		"posts/assets/a.png":        "png",
		"posts/assets/nested/b.png": "png2",
		"src/main.js":               "console.log(1)",
	} {
		got, err := os.ReadFile(filepath.Join(out, rel))
		require.NoError(t, err, rel)
		assert.Equal(t, want, string(got), rel)
	}
	assert.NoFileExists(t, filepath.Join(out, "src", "styles.css"))
	assert.NoFileExists(t, filepath.Join(out, "src", "lib", "dep.js"))
}

func TestCopy_Overwrites(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.Site.Root = root
	cfg.Static.RootFiles = []string{"robots.txt"}
	cfg.Static.Files = nil
	cfg.Static.Dirs = nil
	cfg.Static.ScriptDir = ""

	writeFile(t, root, "robots.txt", "new")
	writeFile(t, root, "dist/robots.txt", "old")

	_, err := Copy(context.Background(), cfg, "")
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(root, "dist", "robots.txt"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}

func TestCopy_DirectoryWhereFileExpected(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.Site.Root = root
	cfg.Static.RootFiles = []string{"robots.txt"}
	cfg.Static.Files = nil
	cfg.Static.Dirs = nil
	cfg.Static.ScriptDir = ""
	require.NoError(t, os.MkdirAll(filepath.Join(root, "robots.txt"), 0o750))

	_, err := Copy(context.Background(), cfg, "")
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryFileSystem))
}

func TestCopy_Cancelled(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.Site.Root = root
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Copy(ctx, cfg, "")
	assert.ErrorIs(t, err, context.Canceled)
}
