// Package frontmatter reads the "---" delimited header of post sources.
package frontmatter

import (
	"bytes"
	"errors"
)

// ErrUnterminated is returned for a document whose first line opens a header
// that is never closed.
var ErrUnterminated = errors.New("frontmatter: opening --- without closing ---")

// Split separates the header from the Markdown body. Delimiter lines may
// carry trailing blanks and CRLF endings. ok is false and body is the whole
// input when the document has no header.
func Split(content []byte) (header, body []byte, ok bool, err error) {
	lines := bytes.SplitAfter(content, []byte("\n"))
	if len(lines) == 0 || !isDelimiter(lines[0]) {
		return nil, content, false, nil
	}
	start := len(lines[0])
	offset := start
	for _, line := range lines[1:] {
		if isDelimiter(line) {
			return content[start:offset], content[offset+len(line):], true, nil
		}
		offset += len(line)
	}
	return nil, content, false, ErrUnterminated
}

func isDelimiter(line []byte) bool {
	return string(bytes.TrimRight(line, " \t\r\n")) == "---"
}
