package markdown

import (
	"net/url"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Reference is a URL a post body points at.
type Reference struct {
	Dest string
	// Image is set for ![alt](dest).
	Image bool
	// Definition is set for "[label]: dest" lines; they are listed even when
	// nothing uses them.
	Definition bool
}

// Kind names the reference for log output.
func (r Reference) Kind() string {
	switch {
	case r.Image:
		return "image"
	case r.Definition:
		return "definition"
	default:
		return "link"
	}
}

var referenceParser = goldmark.New(goldmark.WithExtensions(
	extension.Table,
	extension.Footnote,
	extension.DefinitionList,
	InfoCallout,
)).Parser()

// References lists the links, images and autolinks of a post body in
// document order, then its link reference definitions sorted by label.
// Code spans and fenced code are not searched.
func References(body []byte) []Reference {
	src := []byte(Preprocess(string(body)))
	pc := parser.NewContext()
	doc := referenceParser.Parse(text.NewReader(src), parser.WithContext(pc))

	var refs []Reference
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			switch n := n.(type) {
			case *ast.Link:
				refs = append(refs, Reference{Dest: string(n.Destination)})
			case *ast.Image:
				refs = append(refs, Reference{Dest: string(n.Destination), Image: true})
			case *ast.AutoLink:
				refs = append(refs, Reference{Dest: string(n.URL(src))})
			}
		}
		return ast.WalkContinue, nil
	})
	defs := pc.References()
	sort.Slice(defs, func(i, j int) bool { return string(defs[i].Label()) < string(defs[j].Label()) })
	for _, def := range defs {
		refs = append(refs, Reference{Dest: string(def.Destination()), Definition: true})
	}
	return refs
}

// LocalPath returns the decoded path of a reference to a file on this site
// ("/posts/assets/x.png"), without query or fragment.
func (r Reference) LocalPath() (string, bool) {
	if !strings.HasPrefix(r.Dest, "/") || strings.HasPrefix(r.Dest, "//") {
		return "", false
	}
	u, err := url.Parse(r.Dest)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "", false
	}
	return u.Path, true
}
