// Package autogen replaces generated regions of hand-written HTML pages.
//
// A region is delimited by a marker pair:
//
//	<!-- AUTO-GEN:<TAG> START -->
//	...
//	<!-- AUTO-GEN:<TAG> END -->
//
// Everything outside the markers is left byte-for-byte untouched, so running
// a build twice produces the same file.
package autogen

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// StartMarker returns the opening comment for tag.
func StartMarker(tag string) string { return "<!-- AUTO-GEN:" + tag + " START -->" }

// EndMarker returns the closing comment for tag.
func EndMarker(tag string) string { return "<!-- AUTO-GEN:" + tag + " END -->" }

// HasBlock reports whether doc contains the start marker for tag.
func HasBlock(doc, tag string) bool {
	return strings.Contains(doc, StartMarker(tag))
}

// ReplaceBlock replaces the first tag region of doc with content. When the
// end marker is missing the block is inserted right after the start marker.
// Without a start marker doc is returned unchanged.
func ReplaceBlock(doc, tag, content string) string {
	start, end := StartMarker(tag), EndMarker(tag)
	i := strings.Index(doc, start)
	if i < 0 {
		return doc
	}
	block := start + "\n" + content + "\n" + end
	rest := doc[i+len(start):]
	j := strings.Index(rest, end)
	if j < 0 {
		return doc[:i] + block + rest
	}
	return doc[:i] + block + rest[j+len(end):]
}

// InjectFile reads in, replaces the tag region with content and writes the
// result to out (which may equal in). The file is only written when its
// bytes change. A page without the start marker is reported with a warning
// and left alone.
func InjectFile(in, out, tag, content string) (bool, error) {
	raw, err := os.ReadFile(in) //nolint:gosec // site page path from configuration
	if err != nil {
		return false, errors.WrapError(err, errors.CategoryFileSystem, "read page").
			WithContext("path", in).
			Build()
	}
	doc := string(raw)
	if !HasBlock(doc, tag) {
		slog.Warn("AUTO-GEN marker not found", logfields.Path(in), slog.String("tag", tag))
		return false, nil
	}

	updated := []byte(ReplaceBlock(doc, tag, content))
	if existing, err := os.ReadFile(out); err == nil && bytes.Equal(existing, updated) { //nolint:gosec // output path from configuration
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o750); err != nil {
		return false, errors.WrapError(err, errors.CategoryFileSystem, "create output directory").
			WithContext("path", out).
			Build()
	}
	if err := os.WriteFile(out, updated, 0o644); err != nil { //nolint:gosec // public HTML output, non-sensitive
		return false, errors.WrapError(err, errors.CategoryFileSystem, "write page").
			WithContext("path", out).
			Build()
	}
	return true, nil
}
