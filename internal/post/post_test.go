package post

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
)

func normalizeString(t *testing.T, src string) (Post, []string) {
	t.Helper()
	return Normalize(frontmatter.Parse([]byte(src)), Source{Path: "posts/md/hello.md", RelPath: "posts/md/hello.md"})
}

func TestNormalize_HelloNote(t *testing.T) {
	p, issues := normalizeString(t, "---\ntitle: Hello\ndescription: world\ntags: note\ndate: 2024-03-05\n---\n# Hi\n")
	require.Empty(t, issues)

	assert.Equal(t, CategoryNote, p.Category)
	assert.Equal(t, 2024, p.Year)
	assert.Equal(t, "Mar", p.Month)
	assert.Equal(t, 5, p.Day)
	assert.Equal(t, "hello", p.Slug)
	assert.Equal(t, "# Hi\n", p.Body)
	assert.Equal(t, []string{"note"}, p.Tags)
	assert.NotEmpty(t, p.Fingerprint)
	assert.Equal(t, time.Date(2024, time.March, 5, 0, 0, 0, 0, time.Local), p.Date)
}

func TestNormalize_ReportsEveryProblem(t *testing.T) {
	_, issues := normalizeString(t, "---\ndate: someday\n---\nbody")
	assert.Equal(t, []string{
		"posts/md/hello.md: missing title",
		"posts/md/hello.md: missing description",
		"posts/md/hello.md: tags must include article, note, or experiment",
		"posts/md/hello.md: missing or invalid date",
	}, issues)
}

func TestNormalize_MissingFrontmatter(t *testing.T) {
	_, issues := normalizeString(t, "# Just a heading\n")
	require.NotEmpty(t, issues)
	assert.Equal(t, "posts/md/hello.md: missing frontmatter block (---)", issues[0])
}

func TestNormalize_TagsFromAllFieldsDeduplicated(t *testing.T) {
	p, issues := normalizeString(t, `---
title: T
description: D
tags: [Go, web]
tag: go, Experiments
type:
  - note
date: 2024/1/9
---
`)
	require.Empty(t, issues)
	assert.Equal(t, []string{"go", "web", "experiments", "note"}, p.Tags)
	assert.Equal(t, CategoryExperiment, p.Category, "first matching tag wins")
	assert.Equal(t, 9, p.Day)
}

func TestNormalize_SlugFieldOverridesTitle(t *testing.T) {
	p, issues := normalizeString(t, "---\ntitle: A Long Title\nslug: Short One!\ndescription: d\ntags: article\ndate: 2024-01-01\n---\n")
	require.Empty(t, issues)
	assert.Equal(t, "short-one", p.Slug)
	assert.Equal(t, CategoryArticle, p.Category)
}

func TestNormalize_EmptySlug(t *testing.T) {
	_, issues := normalizeString(t, "---\ntitle: ???\ndescription: d\ntags: article\ndate: 2024-01-01\n---\n")
	assert.Equal(t, []string{"posts/md/hello.md: empty slug"}, issues)
}

func TestNormalize_DateFromParts(t *testing.T) {
	p, issues := normalizeString(t, "---\ntitle: T\ndescription: D\ntags: note\nyear: 2023\nmonth: september\nday: 14\n---\n")
	require.Empty(t, issues)
	assert.Equal(t, "Sep", p.Month)
	assert.Equal(t, 14, p.Day)

	p, issues = normalizeString(t, "---\ntitle: T\ndescription: D\ntags: note\nyear: 2023\nmonth: 2\nday: 1\n---\n")
	require.Empty(t, issues)
	assert.Equal(t, "Feb", p.Month)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in    string
		ok    bool
		year  int
		month time.Month
		day   int
	}{
		{"2024-03-05", true, 2024, time.March, 5},
		{"2024/3/5", true, 2024, time.March, 5},
		{"2024-03-05T18:30:00Z", true, 2024, time.March, 5},
		{"2024-03-05 18:30", true, 2024, time.March, 5},
		{"March 5, 2024", true, 2024, time.March, 5},
		{"5 Mar 2024", true, 2024, time.March, 5},
		{"2023-02-30", false, 0, 0, 0},
		{"2024-13-01", false, 0, 0, 0},
		{"yesterday", false, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, ok := ParseDate(tt.in)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.year, d.Year())
			assert.Equal(t, tt.month, d.Month())
			assert.Equal(t, tt.day, d.Day())
			assert.Zero(t, d.Hour())
		})
	}
}

func TestMonthIndex(t *testing.T) {
	for in, want := range map[string]int{"1": 1, "12": 12, "Jan": 1, "DECEMBER": 12, "sept": 9} {
		got, ok := MonthIndex(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "0", "13", "ja", "foo"} {
		_, ok := MonthIndex(in)
		assert.False(t, ok, in)
	}
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Hello":                  "hello",
		"Hello World":            "hello-world",
		"  Spaces   everywhere ": "spaces-everywhere",
		"Café & Crème":           "caf-crme",
		"snake_case-and-dash":    "snake_case-and-dash",
		"Go 1.24: What's new?":   "go-124-whats-new",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestCategory_Mappings(t *testing.T) {
	assert.Equal(t, "Note", CategoryNote.Label())
	assert.Equal(t, "Articles", CategoryArticle.TimelineTag())
	assert.Equal(t, "Experiments", CategoryExperiment.TimelineTag())
	for _, c := range []Category{CategoryArticle, CategoryNote, CategoryExperiment} {
		assert.Contains(t, c.Icon(), "<svg")
	}

	c, ok := ResolveCategory([]string{"go", "Notes"})
	require.True(t, ok)
	assert.Equal(t, CategoryNote, c)

	_, ok = ResolveCategory([]string{"go"})
	assert.False(t, ok)
}

func TestPost_WithLinkAndVisibility(t *testing.T) {
	p, issues := normalizeString(t, "---\ntitle: Hello\ndescription: world\ntags: note\ndate: 2024-03-05\n---\n")
	require.Empty(t, issues)

	linked := p.WithLink()
	assert.Equal(t, "/posts/hello.html", linked.Link)
	assert.Empty(t, p.Link, "original is not mutated")

	assert.True(t, p.IsVisible(time.Date(2024, time.March, 5, 9, 0, 0, 0, time.Local)))
	assert.False(t, p.IsVisible(time.Date(2024, time.March, 4, 23, 59, 0, 0, time.Local)))
}
