package timeline

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/markdown"
	"git.home.luguber.info/inful/sitebuilder/internal/post"
)

const externalLinkIcon = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round" class="lucide lucide-arrow-up-right"><path d="M7 7h10v10"></path><path d="M7 17 17 7"></path></svg>`

var funcs = template.FuncMap{
	"icon":         func(c post.Category) template.HTML { return template.HTML(c.Icon()) },
	"externalIcon": func() template.HTML { return template.HTML(externalLinkIcon) },
	"shortYear":    func(y int) string { return fmt.Sprintf("%02d", y%100) },
}

const itemTemplate = `{{define "item"}}<div class="timeline-item animate-on-scroll" data-tag="{{.Category.TimelineTag}}">` +
	`<a href="{{.Link}}" rel="noopener noreferrer">` +
	`<div class="timeline-item-title">{{icon .Category}}<span class="link-text">{{.Title}}</span>` +
	`<span class="external-link-icon" aria-hidden="true">{{externalIcon}}</span></div>` +
	`{{with .Description}}<div class="timeline-item-description">{{.}}</div>{{end}}` +
	`{{with .Image}}<div class="timeline-item-preview"><figure><img src="{{.}}" loading="lazy" alt="{{$.Title}} preview"></figure></div>{{end}}` +
	`</a></div>{{end}}`

const yearsTemplate = `{{range .}}<div class="content-timeline-header">
<div class="content-timeline-year"><h2>{{.Year}}</h2></div>
<div class="content-timeline-content">{{range .Months}}
<div class="content-timeline-month">
<div class="content-timeline-month-header"><h3>{{.Month}}<span class="full-year"> {{.Year}}</span></h3></div>
<div class="content-timeline-month-items">{{range .Items}}{{template "item" .}}{{end}}</div>
</div>{{end}}
</div>
</div>
{{end}}`

const latestTemplate = `{{range .}}<div class="post-card">` +
	`<a class="link-with-icon post-card-link" href="{{.Link}}" rel="noopener noreferrer">` +
	`<div class="post-card-title">{{icon .Category}}<span class="link-text">{{.Title}}</span></div>` +
	`<div class="post-card-separator"></div>` +
	`<div class="post-card-date"><span class="post-date-month">{{.Month}}</span>` +
	`<span class="post-date-year-full"> {{.Year}}</span><span class="post-date-year-short"> {{shortYear .Year}}</span></div>` +
	`</a></div>
{{end}}`

var (
	timelineTpl = template.Must(template.Must(template.New("timeline").Funcs(funcs).Parse(itemTemplate)).Parse(yearsTemplate))
	latestTpl   = template.Must(template.New("latest").Funcs(funcs).Parse(latestTemplate))
)

// RenderTimeline renders the year/month timeline of every post published
// at now. Posts dated after now are left out.
func RenderTimeline(posts []post.Post, now time.Time) (string, error) {
	var buf bytes.Buffer
	if err := timelineTpl.Execute(&buf, Group(visible(posts, now))); err != nil {
		return "", fmt.Errorf("render timeline: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// RenderLatest renders home page cards for the first n published posts.
// posts must already be ordered newest first.
func RenderLatest(posts []post.Post, now time.Time, n int) (string, error) {
	latest := visible(posts, now)
	if n >= 0 && len(latest) > n {
		latest = latest[:n]
	}
	var buf bytes.Buffer
	if err := latestTpl.Execute(&buf, latest); err != nil {
		return "", fmt.Errorf("render latest posts: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// FormatDate formats the publish date shown on article pages, e.g.
// "March 5, 2024".
func FormatDate(p post.Post) string {
	return p.Date.Format("January 2, 2006")
}

// RenderPostPage fills the page skeleton placeholders for one article.
// {{TITLE}} and {{LIGHTBOX_GROUP}} are replaced everywhere, {{POST_HEADER}}
// and {{CONTENT}} only at their first occurrence.
func RenderPostPage(skeleton string, p post.Post, content string) string {
	title := html.EscapeString(p.Title)
	header := `<div class="article-meta-data"><h1>` + title + "</h1>\n" +
		`<span class="article-publish-date">` + FormatDate(p) + `</span></div>`

	page := strings.ReplaceAll(skeleton, "{{TITLE}}", title)
	page = strings.Replace(page, "{{POST_HEADER}}", header, 1)
	page = strings.Replace(page, "{{CONTENT}}", content, 1)
	return strings.ReplaceAll(page, "{{LIGHTBOX_GROUP}}", markdown.LightboxGroup(p.Slug))
}
