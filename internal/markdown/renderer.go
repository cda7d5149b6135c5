package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Renderer turns post bodies into article HTML.
// A Renderer is safe for concurrent use.
type Renderer struct {
	md         goldmark.Markdown
	extensions []goldmark.Extender
	hardWraps  bool
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithExtensions appends extra goldmark extensions to the pipeline.
func WithExtensions(ext ...goldmark.Extender) Option {
	return func(r *Renderer) { r.extensions = append(r.extensions, ext...) }
}

// WithHardWraps toggles rendering single newlines as <br>. Enabled by default.
func WithHardWraps(enabled bool) Option {
	return func(r *Renderer) { r.hardWraps = enabled }
}

// NewRenderer builds the goldmark pipeline used for posts.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{hardWraps: true}
	for _, opt := range opts {
		opt(r)
	}

	htmlOpts := []renderer.Option{html.WithUnsafe()}
	if r.hardWraps {
		htmlOpts = append(htmlOpts, html.WithHardWraps())
	}

	exts := []goldmark.Extender{
		extension.GFM,
		extension.Footnote,
		extension.DefinitionList,
		Highlight,
		InfoCallout,
	}
	exts = append(exts, r.extensions...)

	r.md = goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(util.Prioritized(&articleTransformer{}, 1000)),
		),
		goldmark.WithRendererOptions(htmlOpts...),
		goldmark.WithRendererOptions(renderer.WithNodeRenderers(
			util.Prioritized(&footnoteHTMLRenderer{}, 100),
			util.Prioritized(&taskCheckBoxHTMLRenderer{}, 100),
		)),
	)
	return r
}

// Render converts a Markdown body to HTML. Images are grouped into the
// lightbox gallery "post-<slug>".
func (r *Renderer) Render(body, slug string) (string, error) {
	src := []byte(Preprocess(body))

	pc := parser.NewContext()
	if slug != "" {
		pc.Set(lightboxGroupKey, LightboxGroup(slug))
	}
	doc := r.md.Parser().Parse(text.NewReader(src), parser.WithContext(pc))

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, src, doc); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return ApplyArticleClasses(buf.String()), nil
}

// LightboxGroup returns the gallery name shared by a post's images.
func LightboxGroup(slug string) string {
	return "post-" + slug
}
