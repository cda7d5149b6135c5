package timeline

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/post"
)

func mkPost(slug string, year int, month time.Month, day int, c post.Category) post.Post {
	date := time.Date(year, month, day, 0, 0, 0, 0, time.Local)
	return post.Post{
		Title:    strings.ToUpper(slug[:1]) + slug[1:],
		Slug:     slug,
		Category: c,
		Date:     date,
		Year:     year,
		Month:    month.String()[:3],
		Day:      day,
	}.WithLink()
}

func slugs(m Month) []string {
	out := make([]string, 0, len(m.Items))
	for _, p := range m.Items {
		out = append(out, p.Slug)
	}
	return out
}

func TestGroup_Ordering(t *testing.T) {
	posts := []post.Post{
		mkPost("a", 2023, time.March, 5, post.CategoryArticle),
		mkPost("b", 2024, time.January, 2, post.CategoryNote),
		mkPost("c", 2023, time.December, 1, post.CategoryExperiment),
		mkPost("d", 2023, time.March, 20, post.CategoryNote),
		mkPost("e", 2023, time.March, 5, post.CategoryNote),
	}

	years := Group(posts)

	type shape struct {
		Year  int
		Month string
		Slugs []string
	}
	var got []shape
	for _, y := range years {
		for _, m := range y.Months {
			got = append(got, shape{Year: y.Year, Month: m.Month, Slugs: slugs(m)})
		}
	}
	want := []shape{
		{2024, "Jan", []string{"b"}},
		{2023, "Dec", []string{"c"}},
		{2023, "Mar", []string{"d", "a", "e"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Group mismatch (-want +got):\n%s", diff)
	}
}

func TestGroup_Empty(t *testing.T) {
	assert.Empty(t, Group(nil))
}

func TestRenderTimeline(t *testing.T) {
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.Local)
	p := mkPost("hello", 2024, time.March, 5, post.CategoryArticle)
	p.Description = "A first post"
	p.Image = "/posts/assets/hello.png"
	future := mkPost("later", 2024, time.March, 11, post.CategoryNote)

	out, err := RenderTimeline([]post.Post{future, p}, now)
	require.NoError(t, err)

	assert.Contains(t, out, `<div class="content-timeline-year"><h2>2024</h2></div>`)
	assert.Contains(t, out, `<h3>Mar<span class="full-year"> 2024</span></h3>`)
	assert.Contains(t, out, `<div class="timeline-item animate-on-scroll" data-tag="Articles"><a href="/posts/hello.html" rel="noopener noreferrer">`)
	assert.Contains(t, out, `<span class="link-text">Hello</span>`)
	assert.Contains(t, out, `<div class="timeline-item-description">A first post</div>`)
	assert.Contains(t, out, `<img src="/posts/assets/hello.png" loading="lazy" alt="Hello preview">`)
	assert.Contains(t, out, "lucide-arrow-up-right")
	assert.NotContains(t, out, "/posts/later.html")
}

func TestRenderTimeline_OptionalParts(t *testing.T) {
	now := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.Local)
	out, err := RenderTimeline([]post.Post{mkPost("bare", 2024, time.March, 1, post.CategoryNote)}, now)
	require.NoError(t, err)

	assert.Contains(t, out, `data-tag="Notes"`)
	assert.NotContains(t, out, "timeline-item-description")
	assert.NotContains(t, out, "timeline-item-preview")
}

func TestRenderTimeline_EscapesTitles(t *testing.T) {
	now := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.Local)
	p := mkPost("tags", 2024, time.March, 1, post.CategoryNote)
	p.Title = "<b> & co"
	out, err := RenderTimeline([]post.Post{p}, now)
	require.NoError(t, err)
	assert.Contains(t, out, "&lt;b&gt; &amp; co")
}

func TestRenderLatest(t *testing.T) {
	now := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.Local)
	posts := []post.Post{
		mkPost("future", 2024, time.April, 1, post.CategoryNote),
		mkPost("one", 2024, time.March, 9, post.CategoryArticle),
		mkPost("two", 2024, time.February, 1, post.CategoryNote),
		mkPost("three", 2023, time.December, 1, post.CategoryNote),
		mkPost("four", 2009, time.January, 1, post.CategoryExperiment),
	}

	out, err := RenderLatest(posts, now, 3)
	require.NoError(t, err)

	assert.Equal(t, 3, strings.Count(out, `<div class="post-card">`))
	assert.NotContains(t, out, "/posts/future.html")
	assert.NotContains(t, out, "/posts/four.html")
	assert.Less(t, strings.Index(out, "/posts/one.html"), strings.Index(out, "/posts/two.html"))
	assert.Contains(t, out, `<span class="post-date-month">Mar</span><span class="post-date-year-full"> 2024</span><span class="post-date-year-short"> 24</span>`)

	all, err := RenderLatest(posts, now, 10)
	require.NoError(t, err)
	assert.Contains(t, all, `<span class="post-date-year-short"> 09</span>`)
}

func TestFormatDate(t *testing.T) {
	p := mkPost("x", 2024, time.March, 5, post.CategoryNote)
	assert.Equal(t, "March 5, 2024", FormatDate(p))
}

func TestRenderPostPage(t *testing.T) {
	skeleton := "<title>{{TITLE}}</title>\n{{POST_HEADER}}\n<main data-group=\"{{LIGHTBOX_GROUP}}\">{{CONTENT}}</main>\n<meta content=\"{{TITLE}}\"><i>{{LIGHTBOX_GROUP}}</i>"
	p := mkPost("hello-world", 2024, time.March, 5, post.CategoryArticle)
	p.Title = "Hello World"

	got := RenderPostPage(skeleton, p, "<p>Body {{TITLE}}</p>")

	want := "<title>Hello World</title>\n" +
		"<div class=\"article-meta-data\"><h1>Hello World</h1>\n<span class=\"article-publish-date\">March 5, 2024</span></div>\n" +
		"<main data-group=\"post-hello-world\"><p>Body {{TITLE}}</p></main>\n" +
		"<meta content=\"Hello World\"><i>post-hello-world</i>"
	assert.Equal(t, want, got)
}

func TestRenderPostPage_SinglePlaceholders(t *testing.T) {
	p := mkPost("repeat", 2024, time.March, 5, post.CategoryNote)
	p.Title = "Repeat"

	got := RenderPostPage("{{CONTENT}}|{{CONTENT}}|{{POST_HEADER}}|{{POST_HEADER}}", p, "<p>x {{LIGHTBOX_GROUP}}</p>")

	want := "<p>x post-repeat</p>|{{CONTENT}}|" +
		"<div class=\"article-meta-data\"><h1>Repeat</h1>\n<span class=\"article-publish-date\">March 5, 2024</span></div>|{{POST_HEADER}}"
	assert.Equal(t, want, got)
}
