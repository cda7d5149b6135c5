package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, body string) string {
	t.Helper()
	out, err := NewRenderer().Render(body, "my-post")
	require.NoError(t, err)
	return out
}

func TestRender_Heading(t *testing.T) {
	assert.Equal(t, "<h1>Hi</h1>\n", render(t, "# Hi"))
}

func TestRender_HeadingLevelMarkerStripped(t *testing.T) {
	assert.Equal(t, "<h2>Setup</h2>\n", render(t, "## Setup (H2)"))
}

func TestRender_HardWraps(t *testing.T) {
	assert.Equal(t, "<p>a<br>\nb</p>\n", render(t, "a\nb"))
}

func TestRender_Highlight(t *testing.T) {
	assert.Equal(t, "<p>Some <mark>marked</mark> text</p>\n", render(t, "Some ==marked== text"))
	assert.NotContains(t, render(t, "a = b"), "<mark>")
}

func TestRender_RawHTMLPassesThrough(t *testing.T) {
	out := render(t, "<div class=\"wide\">hi</div>\n")
	assert.Contains(t, out, `<div class="wide">hi</div>`)
}

func TestRender_InfoCallout(t *testing.T) {
	out := render(t, "> [!info]\n> Heads up\n\nAfter")

	assert.Contains(t, out, `<div class="article-callout" role="note"><div class="article-callout-inner"><div class="icon" aria-hidden="true"><svg`)
	assert.Contains(t, out, "<div class=\"content\">\n<p>Heads up</p>\n</div></div></div>\n")
	assert.Contains(t, out, "<p>After</p>")
	assert.NotContains(t, out, "<blockquote>")

	crlf := render(t, "> [!info]\r\n> Heads up\r\n\r\nAfter")
	assert.Equal(t, out, crlf)
}

func TestRender_Footnotes(t *testing.T) {
	out := render(t, "Text[^1] and again[^1].\n\n[^1]: A note.\n")

	assert.Contains(t, out, `<sup class="article-footnote-ref"><a href="#fn1" id="fnref1">1</a></sup>`)
	assert.Contains(t, out, `<sup class="article-footnote-ref"><a href="#fn1" id="fnref1:1">1</a></sup>`)
	assert.Contains(t, out, "<hr class=\"footnotes-sep\">\n<section class=\"article-footnotes\">\n<ol class=\"article-footnotes-list\">\n")
	assert.Contains(t, out, `<li id="fn1" class="article-footnote-item">`)
	assert.Contains(t, out, ` <a href="#fnref1" class="article-footnote-backref"><svg`)
	assert.Contains(t, out, ` <a href="#fnref1:1" class="article-footnote-backref"><svg`)
	assert.Contains(t, out, "</ol>\n</section>\n")
}

func TestRender_TaskList(t *testing.T) {
	out := render(t, "- [ ] todo\n- [x] done\n")

	assert.Contains(t, out, `<ul class="article-contains-task-list" style="list-style:none;margin:0;padding:0;">`)
	assert.Contains(t, out, `<li class="article-task-list-item"><input class="article-task-list-checkbox" disabled="" type="checkbox"> todo</li>`)
	assert.Contains(t, out, `<input class="article-task-list-checkbox" checked="" disabled="" type="checkbox"> done`)
}

func TestRender_DefinitionList(t *testing.T) {
	out := render(t, "Term\n= Meaning\n")
	assert.Contains(t, out, "<dt>Term</dt>")
	assert.Contains(t, out, "<dd>Meaning</dd>")
}

func TestRender_Links(t *testing.T) {
	out := render(t, "[away](https://example.com) and [here](#section)")
	assert.Contains(t, out, `<a href="https://example.com" target="_blank" rel="noopener noreferrer">away</a>`)
	assert.Contains(t, out, `<a href="#section">here</a>`)
}

func TestRender_Linkify(t *testing.T) {
	out := render(t, "Visit https://example.com today")
	assert.Contains(t, out, `<a href="https://example.com" target="_blank" rel="noopener noreferrer">https://example.com</a>`)
}

func TestRender_Image(t *testing.T) {
	out := render(t, "![alt](/posts/assets/p.png)")
	assert.Contains(t, out, `<img src="/posts/assets/p.png" alt="alt" loading="lazy" decoding="async" data-lightbox-item="" data-lightbox-group="post-my-post">`)
}

func TestRender_Video(t *testing.T) {
	out := render(t, "![clip](/posts/assets/Clip.MP4)")
	assert.Contains(t, out, "<video controls>\n<source src=\"/posts/assets/Clip.MP4\" type=\"video/mp4\">\nYour browser does not support the video tag.\n</video>")
	assert.NotContains(t, out, "<img")

	webm := render(t, "![clip](/posts/assets/loop.webm)")
	assert.Contains(t, webm, `type="video/webm"`)
}

func TestRender_WithoutSlugOmitsGroup(t *testing.T) {
	out, err := NewRenderer().Render("![alt](a.png)", "")
	require.NoError(t, err)
	assert.NotContains(t, out, "data-lightbox-group")
	assert.Contains(t, out, `data-lightbox-item=""`)
}

func TestRender_WithoutHardWraps(t *testing.T) {
	out, err := NewRenderer(WithHardWraps(false)).Render("a\nb", "x")
	require.NoError(t, err)
	assert.Equal(t, "<p>a\nb</p>\n", out)
}

func TestApplyArticleClasses(t *testing.T) {
	in := `<ul class="task-list"><li class="task-list-item"><span class="footnotes-sep"></span>`
	want := `<ul class="article-task-list" style="list-style:none;margin:0;padding:0;"><li class="article-task-list-item"><span class="footnotes-sep"></span>`
	assert.Equal(t, want, ApplyArticleClasses(in))
}
