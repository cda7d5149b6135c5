// Package bookmarks renders the bookmarks timeline from the JSON catalogue.
package bookmarks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	dberrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/post"
)

// Bookmark is one entry of bookmarks.json.
type Bookmark struct {
	Year        Year   `json:"year"`
	Month       string `json:"month"`
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Tag         string `json:"tag"`
	Meta        *Meta  `json:"meta,omitempty"`
}

// Meta is the optional source line shown under the title.
type Meta struct {
	Icon string `json:"icon"`
	Text string `json:"text"`
}

// Year accepts both 2024 and "2024" in the catalogue.
type Year int

func (y *Year) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid bookmark year %s", data)
	}
	*y = Year(n)
	return nil
}

// Load reads the catalogue at path.
func Load(path string) ([]Bookmark, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // catalogue path from configuration
	if err != nil {
		return nil, dberrors.WrapError(err, dberrors.CategoryFileSystem, "failed to read bookmarks").
			WithContext("path", path).
			Build()
	}
	var items []Bookmark
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, dberrors.WrapError(err, dberrors.CategoryValidation, "invalid bookmarks catalogue").
			WithContext("path", path).
			Fatal().
			Build()
	}
	return items, nil
}

// Published drops bookmarks dated in a month after now's month and sorts the
// rest by year then month, newest first. Ties keep catalogue order. Entries
// whose month cannot be parsed are dropped with a warning.
func Published(items []Bookmark, now time.Time) []Bookmark {
	curYear, curMonth := now.Year(), int(now.Month())

	out := make([]Bookmark, 0, len(items))
	for _, b := range items {
		m, ok := post.MonthIndex(b.Month)
		if !ok {
			slog.Warn("Skipping bookmark with unknown month",
				slog.String("title", b.Title),
				slog.String("month", b.Month))
			continue
		}
		y := int(b.Year)
		if y > curYear || (y == curYear && m > curMonth) {
			continue
		}
		out = append(out, b)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		mi, _ := post.MonthIndex(out[i].Month)
		mj, _ := post.MonthIndex(out[j].Month)
		return mi > mj
	})
	return out
}

var videoExtensions = map[string]bool{
	".mp4":  true,
	".webm": true,
	".ogg":  true,
	".ogv":  true,
	".mov":  true,
	".m4v":  true,
}

// IsVideo reports whether a preview source points at a video file. Query
// strings and fragments are ignored.
func IsVideo(src string) bool {
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		src = src[:i]
	}
	return videoExtensions[strings.ToLower(path.Ext(src))]
}

// Preview returns the trimmed preview source.
func (b Bookmark) Preview() string {
	return strings.TrimSpace(b.Image)
}

