package daemon

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldIgnoreEvent(t *testing.T) {
	tests := map[string]bool{
		"/site/posts/md/hello.md":   false,
		"/site/index.html":          false,
		"/site/posts/md/.hello.md":  true,
		"/site/posts/md/hello.md~":  true,
		"/site/posts/md/hello.swp":  true,
		"/site/posts/md/.x.swx":     true,
		"/site/posts/md/#hello.md#": true,
		"/site/Thumbs.db":           true,
	}
	for path, want := range tests {
		assert.Equal(t, want, shouldIgnoreEvent(path), path)
	}
}

type seenPaths struct {
	mu    sync.Mutex
	paths []string
}

func (s *seenPaths) add(p string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths = append(s.paths, p)
}

func (s *seenPaths) contains(p string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, got := range s.paths {
		if got == p {
			return true
		}
	}
	return false
}

func runWatcher(t *testing.T, paths []string) *seenPaths {
	t.Helper()
	w, err := NewWatcher(paths)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	seen := &seenPaths{}
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, seen.add) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
	return seen
}

func TestWatcher_ReportsChanges(t *testing.T) {
	root := t.TempDir()
	postsDir := filepath.Join(root, "posts", "md")
	require.NoError(t, os.MkdirAll(postsDir, 0o750))
	timeline := filepath.Join(root, "timeline.html")
	require.NoError(t, os.WriteFile(timeline, []byte("<html></html>"), 0o600))
	unrelated := filepath.Join(root, "about.html")

	seen := runWatcher(t, []string{postsDir, timeline, filepath.Join(root, "missing.html")})

	post := filepath.Join(postsDir, "hello.md")
	require.NoError(t, os.WriteFile(post, []byte("# hi"), 0o600))
	assert.Eventually(t, func() bool { return seen.contains(post) }, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(timeline, []byte("<html>v2</html>"), 0o600))
	assert.Eventually(t, func() bool { return seen.contains(timeline) }, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(unrelated, []byte("x"), 0o600))
	assert.Never(t, func() bool { return seen.contains(unrelated) }, 200*time.Millisecond, 20*time.Millisecond)
}

func TestWatcher_FollowsNewDirectories(t *testing.T) {
	root := t.TempDir()
	seen := runWatcher(t, []string{root})

	sub := filepath.Join(root, "2024")
	require.NoError(t, os.Mkdir(sub, 0o750))
	require.Eventually(t, func() bool { return seen.contains(sub) }, 2*time.Second, 20*time.Millisecond)

	// The new directory is only watched once its create event is handled.
	nested := filepath.Join(sub, "note.md")
	assert.Eventually(t, func() bool {
		_ = os.WriteFile(nested, []byte(time.Now().String()), 0o600)
		return seen.contains(nested)
	}, 2*time.Second, 50*time.Millisecond)
}
