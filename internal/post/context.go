package post

import "time"

// BuildContext is the per-invocation state shared by the posts pipeline.
// It is constructed once per build and passed by value.
type BuildContext struct {
	Now      time.Time
	SiteRoot string
	OutRoot  string

	bySlug map[string]Post
}

// NewBuildContext creates a context for a build rooted at siteRoot that
// writes into outRoot (siteRoot when empty).
func NewBuildContext(now time.Time, siteRoot, outRoot string) BuildContext {
	if outRoot == "" {
		outRoot = siteRoot
	}
	return BuildContext{Now: now, SiteRoot: siteRoot, OutRoot: outRoot}
}

// WithPosts returns a copy of bc indexing posts by slug.
func (bc BuildContext) WithPosts(posts []Post) BuildContext {
	idx := make(map[string]Post, len(posts))
	for _, p := range posts {
		idx[p.Slug] = p
	}
	bc.bySlug = idx
	return bc
}

// Post looks up a loaded post by slug.
func (bc BuildContext) Post(slug string) (Post, bool) {
	p, ok := bc.bySlug[slug]
	return p, ok
}

// Visible filters posts published at bc.Now, preserving order.
func (bc BuildContext) Visible(posts []Post) []Post {
	out := make([]Post, 0, len(posts))
	for _, p := range posts {
		if p.IsVisible(bc.Now) {
			out = append(out, p)
		}
	}
	return out
}
