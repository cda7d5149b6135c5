package markdown

import (
	"regexp"
	"strings"
)

// articleClasses maps the generic footnote/task-list class names onto the
// article-scoped names used by the site stylesheet.
var articleClasses = strings.NewReplacer(
	`class="footnotes"`, `class="article-footnotes"`,
	`class="footnotes-list"`, `class="article-footnotes-list"`,
	`class="footnote-item"`, `class="article-footnote-item"`,
	`class="footnote-ref"`, `class="article-footnote-ref"`,
	`class="footnote-backref"`, `class="article-footnote-backref"`,
	`class="task-list-item-checkbox"`, `class="article-task-list-checkbox"`,
	`class="task-list-item"`, `class="article-task-list-item"`,
	`class="contains-task-list"`, `class="article-contains-task-list"`,
	`class="task-list"`, `class="article-task-list"`,
)

var taskListULRe = regexp.MustCompile(`<ul class="(article-task-list|article-contains-task-list)"`)

const taskListStyle = `style="list-style:none;margin:0;padding:0;"`

// ApplyArticleClasses rewrites rendered HTML to the article class names and
// strips bullets from task lists.
func ApplyArticleClasses(html string) string {
	out := articleClasses.Replace(html)
	return taskListULRe.ReplaceAllString(out, `<ul class="${1}" `+taskListStyle)
}
