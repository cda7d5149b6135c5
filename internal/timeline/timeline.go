// Package timeline groups posts by year and month and renders the HTML
// fragments injected into the timeline, home and article pages.
package timeline

import (
	"sort"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/post"
)

// Year is one year block of the timeline, newest month first.
type Year struct {
	Year   int
	Months []Month
}

// Month holds the posts of one calendar month, latest day first.
type Month struct {
	Month string
	Year  int
	Items []post.Post
}

// Group arranges posts into years (descending) and months (descending by
// calendar index). Within a month posts are ordered by day descending; ties
// keep their input order.
func Group(posts []post.Post) []Year {
	byYear := make(map[int]map[string][]post.Post)
	for _, p := range posts {
		months, ok := byYear[p.Year]
		if !ok {
			months = make(map[string][]post.Post)
			byYear[p.Year] = months
		}
		months[p.Month] = append(months[p.Month], p)
	}

	years := make([]Year, 0, len(byYear))
	for y, months := range byYear {
		block := Year{Year: y, Months: make([]Month, 0, len(months))}
		for m, items := range months {
			sort.SliceStable(items, func(i, j int) bool { return items[i].Day > items[j].Day })
			block.Months = append(block.Months, Month{Month: m, Year: y, Items: items})
		}
		sort.Slice(block.Months, func(i, j int) bool {
			return monthIndex(block.Months[i].Month) > monthIndex(block.Months[j].Month)
		})
		years = append(years, block)
	}
	sort.Slice(years, func(i, j int) bool { return years[i].Year > years[j].Year })
	return years
}

func monthIndex(m string) int {
	idx, ok := post.MonthIndex(m)
	if !ok {
		return 0
	}
	return idx
}

// visible returns the posts published at now, preserving order.
func visible(posts []post.Post, now time.Time) []post.Post {
	out := make([]post.Post, 0, len(posts))
	for _, p := range posts {
		if p.IsVisible(now) {
			out = append(out, p)
		}
	}
	return out
}
