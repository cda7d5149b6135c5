package markdown

import (
	"regexp"
	"strings"
)

var (
	infoCalloutRe     = regexp.MustCompile(`(?im)^>[ \t]*\[!info\][ \t]*\n((?:>.*\n?)+)`)
	quotePrefixRe     = regexp.MustCompile(`(?m)^>[ \t]?`)
	definitionLineRe  = regexp.MustCompile(`(?m)^[ \t]*=[ \t]+`)
	headingLevelTagRe = regexp.MustCompile(`(?m)^(#{1,6}.*?)[ \t]*\(H[1-6]\)[ \t]*$`)
	taskItemRe        = regexp.MustCompile(`(?m)^-([ \t]+\[[ xX]\])`)
)

// Preprocess rewrites the Obsidian-flavoured constructs used in post notes
// into syntax the goldmark pipeline understands.
//
//   - "> [!info]" blockquotes become ":::info" containers.
//   - "= definition" lines become ": definition".
//   - A trailing "(H2)" style marker is dropped from ATX headings.
//   - Task items written with "-" are switched to "+" so they open their own list.
//
// CRLF line endings are converted to LF first.
func Preprocess(src string) string {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	out := infoCalloutRe.ReplaceAllStringFunc(src, func(match string) string {
		sub := infoCalloutRe.FindStringSubmatch(match)
		inner := strings.TrimRight(quotePrefixRe.ReplaceAllString(sub[1], ""), " \t\r\n")
		return ":::info\n" + inner + "\n:::\n"
	})
	out = definitionLineRe.ReplaceAllString(out, ": ")
	out = headingLevelTagRe.ReplaceAllString(out, "${1}")
	return taskItemRe.ReplaceAllString(out, "+${1}")
}
