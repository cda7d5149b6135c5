package markdown

import (
	"strconv"

	gmast "github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

const footnoteReturnIcon = `<svg xmlns="http://www.w3.org/2000/svg" width="16" height="16" viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round"><path d="M9 14 4 9l5-5"/><path d="M4 9h10.5a5.5 5.5 0 0 1 5.5 5.5a5.5 5.5 0 0 1-5.5 5.5H11"/></svg>`

// footnoteHTMLRenderer replaces goldmark's footnote markup with the
// fn<n>/fnref<n> anchors and section wrapper the article stylesheet targets.
type footnoteHTMLRenderer struct{}

func (r *footnoteHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(extast.KindFootnoteLink, r.renderFootnoteLink)
	reg.Register(extast.KindFootnoteBacklink, r.renderFootnoteBacklink)
	reg.Register(extast.KindFootnote, r.renderFootnote)
	reg.Register(extast.KindFootnoteList, r.renderFootnoteList)
}

func refID(index, refIndex int) string {
	id := "fnref" + strconv.Itoa(index)
	if refIndex > 0 {
		id += ":" + strconv.Itoa(refIndex)
	}
	return id
}

func (r *footnoteHTMLRenderer) renderFootnoteLink(w util.BufWriter, _ []byte, node gmast.Node, entering bool) (gmast.WalkStatus, error) {
	if !entering {
		return gmast.WalkContinue, nil
	}
	n := node.(*extast.FootnoteLink)
	is := strconv.Itoa(n.Index)
	_, _ = w.WriteString(`<sup class="footnote-ref"><a href="#fn`)
	_, _ = w.WriteString(is)
	_, _ = w.WriteString(`" id="`)
	_, _ = w.WriteString(refID(n.Index, n.RefIndex))
	_, _ = w.WriteString(`">`)
	_, _ = w.WriteString(is)
	_, _ = w.WriteString(`</a></sup>`)
	return gmast.WalkContinue, nil
}

func (r *footnoteHTMLRenderer) renderFootnoteBacklink(w util.BufWriter, _ []byte, node gmast.Node, entering bool) (gmast.WalkStatus, error) {
	if !entering {
		return gmast.WalkContinue, nil
	}
	n := node.(*extast.FootnoteBacklink)
	_, _ = w.WriteString(` <a href="#`)
	_, _ = w.WriteString(refID(n.Index, n.RefIndex))
	_, _ = w.WriteString(`" class="footnote-backref">`)
	_, _ = w.WriteString(footnoteReturnIcon)
	_, _ = w.WriteString(`</a>`)
	return gmast.WalkContinue, nil
}

func (r *footnoteHTMLRenderer) renderFootnote(w util.BufWriter, _ []byte, node gmast.Node, entering bool) (gmast.WalkStatus, error) {
	n := node.(*extast.Footnote)
	if entering {
		_, _ = w.WriteString(`<li id="fn`)
		_, _ = w.WriteString(strconv.Itoa(n.Index))
		_, _ = w.WriteString(`" class="footnote-item"`)
		if node.Attributes() != nil {
			html.RenderAttributes(w, node, html.ListItemAttributeFilter)
		}
		_, _ = w.WriteString(">")
	} else {
		_, _ = w.WriteString("</li>\n")
	}
	return gmast.WalkContinue, nil
}

func (r *footnoteHTMLRenderer) renderFootnoteList(w util.BufWriter, _ []byte, _ gmast.Node, entering bool) (gmast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString("<hr class=\"footnotes-sep\">\n<section class=\"footnotes\">\n<ol class=\"footnotes-list\">\n")
	} else {
		_, _ = w.WriteString("</ol>\n</section>\n")
	}
	return gmast.WalkContinue, nil
}
