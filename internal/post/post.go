package post

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
)

// Post is a validated, normalized post. Posts are values; use the With*
// methods to derive modified copies.
type Post struct {
	Title       string
	Description string
	Category    Category
	Tags        []string
	Date        time.Time
	Year        int
	Month       string // three-letter abbreviation, e.g. "Mar"
	Day         int
	Image       string
	Slug        string
	Body        string
	SourcePath  string
	Link        string
	Fingerprint string
}

// Source identifies the file a post was read from.
type Source struct {
	Path    string // absolute or working-directory relative path
	RelPath string // path relative to the site root, used in messages
}

// WithLink returns a copy of p linked at /posts/<slug>.html.
func (p Post) WithLink() Post {
	p.Link = "/posts/" + p.Slug + ".html"
	p.Tags = append([]string(nil), p.Tags...)
	return p
}

// IsVisible reports whether the post is published at now. A post dated
// today is visible.
func (p Post) IsVisible(now time.Time) bool {
	return !p.Date.After(now)
}

// Normalize validates doc and builds a Post, or returns every problem found
// as "<relpath>: <reason>" messages. When there are problems the returned
// Post carries only Slug and SourcePath, so duplicate checks still see it.
func Normalize(doc frontmatter.Document, src Source) (Post, []string) {
	var issues []string
	report := func(reason string) {
		issues = append(issues, src.RelPath+": "+reason)
	}

	if !doc.HasFrontmatter {
		report("missing frontmatter block (---)")
	}

	title, _ := doc.Fields.Scalar("title")
	if title == "" {
		report("missing title")
		title = strings.TrimSuffix(filepath.Base(src.Path), filepath.Ext(src.Path))
	}

	description, _ := doc.Fields.Scalar("description")
	if description == "" {
		report("missing description")
	}

	tags := collectTags(doc.Fields)
	category, ok := ResolveCategory(tags)
	if !ok {
		report("tags must include article, note, or experiment")
	}

	date, ok := resolveDate(doc.Fields)
	if !ok {
		report("missing or invalid date")
	}

	rawSlug, hasSlug := doc.Fields.Scalar("slug")
	if !hasSlug || rawSlug == "" {
		rawSlug = title
	}
	slug := Slugify(rawSlug)
	if slug == "" {
		report("empty slug")
	}

	if len(issues) > 0 {
		return Post{Slug: slug, SourcePath: src.Path}, issues
	}

	image, _ := doc.Fields.Scalar("image")
	return Post{
		Title:       title,
		Description: description,
		Category:    category,
		Tags:        tags,
		Date:        date,
		Year:        date.Year(),
		Month:       date.Month().String()[:3],
		Day:         date.Day(),
		Image:       image,
		Slug:        slug,
		Body:        string(doc.Body),
		SourcePath:  src.Path,
		Fingerprint: mdfp.CalculateFingerprintFromParts(string(doc.Header), string(doc.Body)),
	}, nil
}

var (
	slugStrip      = regexp.MustCompile(`[^a-z0-9 _-]`)
	slugWhitespace = regexp.MustCompile(`\s+`)
)

// Slugify lower-cases text, drops characters outside [a-z0-9 _-], trims and
// joins whitespace runs with "-".
func Slugify(text string) string {
	s := slugStrip.ReplaceAllString(strings.ToLower(text), "")
	return slugWhitespace.ReplaceAllString(strings.TrimSpace(s), "-")
}

// collectTags gathers tags, tag, type and category in that order, splitting
// on commas, lower-casing and dropping empties and repeats.
func collectTags(fields frontmatter.Fields) []string {
	seen := map[string]bool{}
	tags := []string{}
	for _, key := range []string{"tags", "tag", "type", "category"} {
		for _, entry := range fields.List(key) {
			for _, part := range strings.Split(entry, ",") {
				tag := strings.ToLower(strings.TrimSpace(part))
				if tag == "" || seen[tag] {
					continue
				}
				seen[tag] = true
				tags = append(tags, tag)
			}
		}
	}
	return tags
}

var isoDate = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})[-/](\d{1,2})$`)

// fallbackLayouts are tried in order after the numeric form; the time of day
// is discarded.
var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
}

func resolveDate(fields frontmatter.Fields) (time.Time, bool) {
	if raw, ok := fields.Scalar("date"); ok && raw != "" {
		if d, ok := ParseDate(raw); ok {
			return d, true
		}
	}
	return dateFromParts(fields)
}

// ParseDate parses a calendar date at local midnight.
func ParseDate(raw string) (time.Time, bool) {
	text := strings.TrimSpace(raw)
	if m := isoDate.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return calendarDate(year, month, day)
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return calendarDate(t.Year(), int(t.Month()), t.Day())
		}
	}
	return time.Time{}, false
}

func dateFromParts(fields frontmatter.Fields) (time.Time, bool) {
	rawYear, _ := fields.Scalar("year")
	rawMonth, _ := fields.Scalar("month")
	rawDay, _ := fields.Scalar("day")

	year, err := strconv.Atoi(strings.TrimSpace(rawYear))
	if err != nil {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(strings.TrimSpace(rawDay))
	if err != nil {
		return time.Time{}, false
	}
	month, ok := MonthIndex(rawMonth)
	if !ok {
		return time.Time{}, false
	}
	return calendarDate(year, month, day)
}

// MonthIndex parses a 1-12 month number or a case-insensitive English month
// name (only the first three letters are compared).
func MonthIndex(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n, n >= 1 && n <= 12
	}
	if len(raw) < 3 {
		return 0, false
	}
	prefix := strings.ToLower(raw[:3])
	for m := time.January; m <= time.December; m++ {
		if strings.ToLower(m.String()[:3]) == prefix {
			return int(m), true
		}
	}
	return 0, false
}

// calendarDate rejects dates that do not exist, such as February 30.
func calendarDate(year, month, day int) (time.Time, bool) {
	if year <= 0 || month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)
	if d.Year() != year || int(d.Month()) != month || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}
