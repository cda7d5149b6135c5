package build

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	dberrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/post"
)

// ManifestEntry is one element of posts.json.
type ManifestEntry struct {
	Year        int      `json:"year"`
	Month       string   `json:"month"`
	Day         int      `json:"day"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Image       string   `json:"image"`
	Tag         string   `json:"tag"`
	Tags        []string `json:"tags"`
}

// Manifest lists every post, scheduled ones included, in the given order.
func Manifest(posts []post.Post) []ManifestEntry {
	entries := make([]ManifestEntry, 0, len(posts))
	for _, p := range posts {
		tags := p.Tags
		if tags == nil {
			tags = []string{}
		}
		entries = append(entries, ManifestEntry{
			Year:        p.Year,
			Month:       p.Month,
			Day:         p.Day,
			Title:       p.Title,
			Description: p.Description,
			Image:       p.Image,
			Tag:         p.Category.TimelineTag(),
			Tags:        tags,
		})
	}
	return entries
}

// WriteManifest writes posts.json (two-space indent, no trailing newline).
func WriteManifest(path string, posts []post.Post) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Manifest(posts)); err != nil {
		return dberrors.WrapError(err, dberrors.CategoryInternal, "failed to encode posts.json").Build()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return dberrors.WrapError(err, dberrors.CategoryFileSystem, "failed to create manifest directory").
			WithContext("path", path).
			Build()
	}
	_, err := writeIfChanged(path, bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	return err
}
