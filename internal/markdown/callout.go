package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

const infoIcon = `<svg xmlns="http://www.w3.org/2000/svg" width="16" height="16" viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round"><circle cx="12" cy="12" r="10"/><path d="M12 16v-4"/><path d="M12 8h.01"/></svg>`

// KindCallout is the node kind of ":::info" containers.
var KindCallout = gmast.NewNodeKind("Callout")

// Callout is a block container rendered as an article note box.
type Callout struct {
	gmast.BaseBlock
}

func (n *Callout) Kind() gmast.NodeKind { return KindCallout }

func (n *Callout) Dump(source []byte, level int) {
	gmast.DumpHelper(n, source, level, nil, nil)
}

var (
	calloutOpen  = []byte(":::info")
	calloutClose = []byte(":::")
)

type calloutParser struct{}

func (b *calloutParser) Trigger() []byte { return []byte{':'} }

func (b *calloutParser) Open(_ gmast.Node, reader text.Reader, _ parser.Context) (gmast.Node, parser.State) {
	line, _ := reader.PeekLine()
	w, pos := util.IndentWidth(line, reader.LineOffset())
	if w > 3 || !bytes.Equal(util.TrimRightSpace(line[pos:]), calloutOpen) {
		return nil, parser.NoChildren
	}
	reader.AdvanceToEOL()
	return &Callout{}, parser.HasChildren
}

func (b *calloutParser) Continue(_ gmast.Node, reader text.Reader, _ parser.Context) parser.State {
	line, _ := reader.PeekLine()
	w, pos := util.IndentWidth(line, reader.LineOffset())
	if w <= 3 && bytes.Equal(util.TrimRightSpace(line[pos:]), calloutClose) {
		reader.AdvanceToEOL()
		return parser.Close
	}
	return parser.Continue | parser.HasChildren
}

func (b *calloutParser) Close(_ gmast.Node, _ text.Reader, _ parser.Context) {}

func (b *calloutParser) CanInterruptParagraph() bool { return true }

func (b *calloutParser) CanAcceptIndentedLine() bool { return false }

type calloutHTMLRenderer struct{}

func (r *calloutHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindCallout, r.renderCallout)
}

func (r *calloutHTMLRenderer) renderCallout(w util.BufWriter, _ []byte, _ gmast.Node, entering bool) (gmast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString(`<div class="article-callout" role="note"><div class="article-callout-inner"><div class="icon" aria-hidden="true">`)
		_, _ = w.WriteString(infoIcon)
		_, _ = w.WriteString("</div><div class=\"content\">\n")
	} else {
		_, _ = w.WriteString("</div></div></div>\n")
	}
	return gmast.WalkContinue, nil
}

type calloutExtension struct{}

// InfoCallout enables ":::info" ... ":::" note boxes.
var InfoCallout goldmark.Extender = &calloutExtension{}

func (e *calloutExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithBlockParsers(
		util.Prioritized(&calloutParser{}, 99),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&calloutHTMLRenderer{}, 500),
	))
}
