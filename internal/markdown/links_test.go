package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferences(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []Reference
	}{
		{"inline link", "See [the post](/posts/hello.html) for details.", []Reference{{Dest: "/posts/hello.html"}}},
		{"image", "![Diagram](/posts/assets/diagram.png)", []Reference{{Dest: "/posts/assets/diagram.png", Image: true}}},
		{"autolink", "<https://example.com/path>", []Reference{{Dest: "https://example.com/path"}}},
		{
			"reference usage and definition",
			"See [notes][ref].\n\n[ref]: notes.html\n",
			[]Reference{{Dest: "notes.html"}, {Dest: "notes.html", Definition: true}},
		},
		{
			"inside callout",
			"> [!info]\n> ![shot](/posts/assets/shot.png)\n",
			[]Reference{{Dest: "/posts/assets/shot.png", Image: true}},
		},
		{
			"skips code",
			"Inline code: `[Link](./ignored-inline.md)`\n\n```\n![img](./ignored-fence.png)\n```\n\nReal: [OK](./real.md)\n",
			[]Reference{{Dest: "./real.md"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, References([]byte(tt.body)))
		})
	}
}

func TestReference_Kind(t *testing.T) {
	assert.Equal(t, "link", Reference{}.Kind())
	assert.Equal(t, "image", Reference{Image: true}.Kind())
	assert.Equal(t, "definition", Reference{Definition: true}.Kind())
}

func TestReference_LocalPath(t *testing.T) {
	tests := []struct {
		dest string
		want string
		ok   bool
	}{
		{"/posts/assets/a%20b.png", "/posts/assets/a b.png", true},
		{"/posts/assets/x.png?v=2#top", "/posts/assets/x.png", true},
		{"//cdn.example.com/x.png", "", false},
		{"https://example.com/x.png", "", false},
		{"assets/x.png", "", false},
		{"/", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.dest, func(t *testing.T) {
			got, ok := Reference{Dest: tt.dest}.LocalPath()
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
