package post

import (
	"fmt"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/normalization"
)

// Category is the closed set of post kinds.
type Category int

const (
	CategoryArticle Category = iota + 1
	CategoryNote
	CategoryExperiment
)

var categoryTags = normalization.NewTable("post category", map[string]Category{
	"article":     CategoryArticle,
	"articles":    CategoryArticle,
	"note":        CategoryNote,
	"notes":       CategoryNote,
	"experiment":  CategoryExperiment,
	"experiments": CategoryExperiment,
}, 0)

// ResolveCategory returns the category named by the first recognized tag.
func ResolveCategory(tags []string) (Category, bool) {
	for _, tag := range tags {
		if c, ok := categoryTags.Lookup(tag); ok {
			return c, true
		}
	}
	return 0, false
}

// Label is the singular display name.
func (c Category) Label() string {
	switch c {
	case CategoryArticle:
		return "Article"
	case CategoryNote:
		return "Note"
	case CategoryExperiment:
		return "Experiment"
	}
	panic(fmt.Sprintf("post: unknown category %d", int(c)))
}

func (c Category) String() string { return c.Label() }

// TimelineTag is the data-tag value the site's client-side filter matches on.
func (c Category) TimelineTag() string {
	switch c {
	case CategoryArticle:
		return "Articles"
	case CategoryNote:
		return "Notes"
	case CategoryExperiment:
		return "Experiments"
	}
	panic(fmt.Sprintf("post: unknown category %d", int(c)))
}

// Icon returns the inline SVG shown next to the post title.
func (c Category) Icon() string {
	switch c {
	case CategoryArticle:
		return iconArticle
	case CategoryNote:
		return iconNote
	case CategoryExperiment:
		return iconExperiment
	}
	panic(fmt.Sprintf("post: unknown category %d", int(c)))
}

const (
	iconNote = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round">` +
		`<path d="M16 3H5a2 2 0 0 0-2 2v14a2 2 0 0 0 2 2h14a2 2 0 0 0 2-2V8Z"/>` +
		`<path d="M15 3v4a2 2 0 0 0 2 2h4"/>` +
		`</svg>`

	iconArticle = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round">` +
		`<path d="M15 2H6a2 2 0 0 0-2 2v16a2 2 0 0 0 2 2h12a2 2 0 0 0 2-2V7Z"/>` +
		`<path d="M14 2v4a2 2 0 0 0 2 2h4"/>` +
		`<path d="M10 9H8"/><path d="M16 13H8"/><path d="M16 17H8"/>` +
		`</svg>`

	iconExperiment = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round">` +
		`<path d="M14 2v6a2 2 0 0 0 .245.96l5.51 10.08A2 2 0 0 1 18 22H6a2 2 0 0 1-1.755-2.96l5.51-10.08A2 2 0 0 0 10 8V2"/>` +
		`<path d="M6.453 15h11.094"/>` +
		`<path d="M8.5 2h7"/>` +
		`</svg>`
)
