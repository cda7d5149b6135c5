package markdown

import (
	"path"
	"strings"

	gmast "github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// lightboxGroupKey carries the per-post lightbox group through a parse.
var lightboxGroupKey = parser.NewContextKey()

var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".webm": "video/webm",
}

// articleTransformer decorates images, links and task lists the way the
// article pages expect them.
type articleTransformer struct{}

func (t *articleTransformer) Transform(doc *gmast.Document, reader text.Reader, pc parser.Context) {
	group, _ := pc.Get(lightboxGroupKey).(string)
	source := reader.Source()

	var videos []*gmast.Image
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Image:
			if _, ok := videoType(string(node.Destination)); ok {
				videos = append(videos, node)
				return gmast.WalkSkipChildren, nil
			}
			decorateImage(node, group)
		case *gmast.Link:
			decorateLink(node, string(node.Destination))
		case *gmast.AutoLink:
			decorateLink(node, string(node.URL(source)))
		case *extast.TaskCheckBox:
			markTaskItem(node)
		}
		return gmast.WalkContinue, nil
	})

	for _, img := range videos {
		parent := img.Parent()
		if parent == nil {
			continue
		}
		raw := gmast.NewString([]byte(videoHTML(string(img.Destination))))
		raw.SetCode(true)
		parent.ReplaceChild(parent, img, raw)
	}
}

func videoType(dest string) (string, bool) {
	ext := strings.ToLower(path.Ext(dest))
	mime, ok := videoTypes[ext]
	return mime, ok
}

func videoHTML(src string) string {
	mime, _ := videoType(src)
	escaped := string(util.EscapeHTML(util.URLEscape([]byte(src), true)))
	return "<video controls>\n<source src=\"" + escaped + "\" type=\"" + mime + "\">\nYour browser does not support the video tag.\n</video>"
}

func setDefaultAttr(n gmast.Node, name, value string) {
	if _, ok := n.AttributeString(name); !ok {
		n.SetAttributeString(name, []byte(value))
	}
}

func decorateImage(img *gmast.Image, group string) {
	setDefaultAttr(img, "loading", "lazy")
	setDefaultAttr(img, "decoding", "async")
	setDefaultAttr(img, "data-lightbox-item", "")
	if group != "" {
		setDefaultAttr(img, "data-lightbox-group", group)
	}
}

func decorateLink(n gmast.Node, href string) {
	if strings.HasPrefix(href, "#") {
		return
	}
	n.SetAttributeString("target", []byte("_blank"))
	n.SetAttributeString("rel", []byte("noopener noreferrer"))
}

// markTaskItem tags the list item and list around a checkbox
// (List > ListItem > TextBlock > TaskCheckBox).
func markTaskItem(box *extast.TaskCheckBox) {
	block := box.Parent()
	if block == nil {
		return
	}
	item, ok := block.Parent().(*gmast.ListItem)
	if !ok {
		return
	}
	item.SetAttributeString("class", []byte("task-list-item"))
	if list, ok := item.Parent().(*gmast.List); ok {
		list.SetAttributeString("class", []byte("contains-task-list"))
	}
}

type taskCheckBoxHTMLRenderer struct{}

func (r *taskCheckBoxHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(extast.KindTaskCheckBox, r.renderTaskCheckBox)
}

func (r *taskCheckBoxHTMLRenderer) renderTaskCheckBox(w util.BufWriter, _ []byte, node gmast.Node, entering bool) (gmast.WalkStatus, error) {
	if !entering {
		return gmast.WalkContinue, nil
	}
	if node.(*extast.TaskCheckBox).IsChecked {
		_, _ = w.WriteString(`<input class="task-list-item-checkbox" checked="" disabled="" type="checkbox"> `)
	} else {
		_, _ = w.WriteString(`<input class="task-list-item-checkbox" disabled="" type="checkbox"> `)
	}
	return gmast.WalkContinue, nil
}
