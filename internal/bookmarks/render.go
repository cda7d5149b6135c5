package bookmarks

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
)

// Month is one month block of the bookmarks timeline. Bookmarks have no day.
type Month struct {
	Month string
	Year  int
	Items []Bookmark
}

// YearBlock is one year block, newest month first.
type YearBlock struct {
	Year   int
	Months []Month
}

// Group arranges sorted bookmarks into year and month blocks. Months are
// keyed by their spelling in the catalogue.
func Group(items []Bookmark) []YearBlock {
	var years []YearBlock
	index := map[int]int{}
	for _, b := range items {
		y := int(b.Year)
		yi, ok := index[y]
		if !ok {
			yi = len(years)
			index[y] = yi
			years = append(years, YearBlock{Year: y})
		}
		block := &years[yi]
		mi := -1
		for i := range block.Months {
			if block.Months[i].Month == b.Month {
				mi = i
				break
			}
		}
		if mi < 0 {
			block.Months = append(block.Months, Month{Month: b.Month, Year: y})
			mi = len(block.Months) - 1
		}
		block.Months[mi].Items = append(block.Months[mi].Items, b)
	}
	sort.SliceStable(years, func(i, j int) bool { return years[i].Year > years[j].Year })
	return years
}

var funcs = template.FuncMap{
	"isVideo": IsVideo,
}

const itemTemplate = `{{define "item"}}
<div class="timeline-item animate-on-scroll" data-tag="{{.Tag}}">
<a href="{{.Link}}" target="_blank" rel="noopener noreferrer">
<div class="timeline-item-title"><span class="link-text">{{.Title}}</span><span class="external-link-icon" aria-hidden="true">↗</span></div>
{{- with .Meta}}
<div class="timeline-item-meta"><img src="{{.Icon}}" width="16" height="16" alt=""><span>{{.Text}}</span></div>
{{- end}}
{{- with .Description}}
<div class="timeline-item-description">{{.}}</div>
{{- end}}
{{- with .Preview}}
<div class="timeline-item-preview"><figure>
{{- if isVideo .}}<video src="{{.}}" preload="metadata" playsinline controls aria-label="{{$.Title}} preview"></video>
{{- else}}<img src="{{.}}" loading="lazy" alt="{{$.Title}} preview">{{end -}}
</figure></div>
{{- end}}
</a>
</div>{{end}}`

const timelineTemplate = `{{range .}}
<div class="content-timeline-header">
<div class="content-timeline-year"><h2>{{.Year}}</h2></div>
<div class="content-timeline-content">{{range .Months}}
<div class="content-timeline-month">
<div class="content-timeline-month-header"><h3>{{.Month}}<span class="full-year"> {{.Year}}</span></h3></div>
<div class="content-timeline-month-items">{{range .Items}}{{template "item" .}}{{end}}
</div>
</div>{{end}}
</div>
</div>{{end}}`

var timelineTpl = template.Must(template.Must(template.New("bookmarks").Funcs(funcs).Parse(itemTemplate)).Parse(timelineTemplate))

// Render renders the year/month timeline for already filtered and sorted
// bookmarks.
func Render(items []Bookmark) (string, error) {
	var buf bytes.Buffer
	if err := timelineTpl.Execute(&buf, Group(items)); err != nil {
		return "", fmt.Errorf("render bookmarks: %w", err)
	}
	return buf.String(), nil
}
