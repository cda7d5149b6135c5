package frontmatter

import (
	"bytes"
	"log/slog"
	"sort"
	"strings"
)

// Value is a single header field: either a scalar or a list.
type Value struct {
	Scalar string
	List   []string
	IsList bool
}

// Fields holds parsed header fields keyed by lower-cased name.
type Fields map[string]Value

// Scalar returns the scalar value for key. List values report false.
func (f Fields) Scalar(key string) (string, bool) {
	v, ok := f[key]
	if !ok || v.IsList {
		return "", false
	}
	return v.Scalar, true
}

// List returns the values for key, promoting a scalar to a one-element list.
func (f Fields) List(key string) []string {
	v, ok := f[key]
	if !ok {
		return nil
	}
	if v.IsList {
		out := make([]string, len(v.List))
		copy(out, v.List)
		return out
	}
	return []string{v.Scalar}
}

// Has reports whether key was present in the header.
func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// Document is a parsed Markdown source.
type Document struct {
	Fields         Fields
	Header         []byte
	Body           []byte
	HasFrontmatter bool
}

type parseState int

const (
	stateAwaitingKey parseState = iota
	stateCollectingList
)

// Parse splits content and parses its header with the lenient key/value
// grammar used by the post sources. It is not a YAML parser.
//
// A missing or unterminated header yields HasFrontmatter false and the whole
// input as body.
func Parse(content []byte) Document {
	header, body, had, err := Split(content)
	if err != nil || !had {
		return Document{Fields: Fields{}, Body: content}
	}
	return Document{
		Fields:         ParseHeader(header),
		Header:         header,
		Body:           body,
		HasFrontmatter: true,
	}
}

// ParseHeader parses the raw lines between the delimiters.
func ParseHeader(header []byte) Fields {
	fields := Fields{}
	state := stateAwaitingKey
	listKey := ""

	for _, raw := range strings.Split(string(header), "\n") {
		line := strings.TrimSuffix(raw, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		if state == stateCollectingList {
			if item, ok := listItem(line); ok {
				v := fields[listKey]
				v.List = append(v.List, stripQuotes(item))
				fields[listKey] = v
				continue
			}
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			slog.Debug("Ignoring malformed frontmatter line", slog.String("line", trimmed))
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch {
		case value == "":
			fields[key] = Value{List: []string{}, IsList: true}
			state, listKey = stateCollectingList, key
		case strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]"):
			fields[key] = Value{List: inlineList(value), IsList: true}
			state, listKey = stateAwaitingKey, ""
		default:
			fields[key] = Value{Scalar: stripQuotes(value)}
			state, listKey = stateAwaitingKey, ""
		}
	}

	return fields
}

// Format serializes fields back into header lines with sorted keys.
// Parse(Format(f)) reproduces f for simple scalar and list values.
func Format(fields Fields) []byte {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for _, k := range keys {
		v := fields[k]
		if !v.IsList {
			buf.WriteString(k + ": " + quoteScalar(v.Scalar) + "\n")
			continue
		}
		if len(v.List) == 0 {
			buf.WriteString(k + ": []\n")
			continue
		}
		buf.WriteString(k + ":\n")
		for _, item := range v.List {
			buf.WriteString("  - " + quoteScalar(item) + "\n")
		}
	}
	return buf.Bytes()
}

func listItem(line string) (string, bool) {
	trimmed := strings.TrimLeft(line, " \t")
	if !strings.HasPrefix(trimmed, "-") {
		return "", false
	}
	rest := trimmed[1:]
	item := strings.TrimLeft(rest, " \t")
	if len(item) == len(rest) || item == "" {
		return "", false
	}
	return item, true
}

func inlineList(value string) []string {
	inner := strings.TrimSpace(value[1 : len(value)-1])
	if inner == "" {
		return []string{}
	}
	parts := strings.Split(inner, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, stripQuotes(p))
	}
	return out
}

func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func quoteScalar(s string) string {
	needsQuotes := s == "" ||
		s != strings.TrimSpace(s) ||
		strings.HasPrefix(s, "#") ||
		strings.HasPrefix(s, "[") ||
		strings.HasPrefix(s, "- ") ||
		strings.ContainsAny(s, "\r\n")
	switch {
	case strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) && len(s) >= 2:
		return "'" + s + "'"
	case strings.HasPrefix(s, "'") && strings.HasSuffix(s, "'") && len(s) >= 2:
		return `"` + s + `"`
	case needsQuotes:
		return `"` + s + `"`
	}
	return s
}
