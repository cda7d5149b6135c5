package autogen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceBlock(t *testing.T) {
	tests := []struct {
		name    string
		tag     string
		doc     string
		content string
		want    string
	}{
		{
			name:    "replaces existing region",
			doc:     "<a>\n<!-- AUTO-GEN:TIMELINE START -->\nold\n<!-- AUTO-GEN:TIMELINE END -->\n</a>",
			content: "new",
			want:    "<a>\n<!-- AUTO-GEN:TIMELINE START -->\nnew\n<!-- AUTO-GEN:TIMELINE END -->\n</a>",
		},
		{
			name:    "missing end marker inserts block",
			doc:     "<a><!-- AUTO-GEN:TIMELINE START --></a>",
			content: "x",
			want:    "<a><!-- AUTO-GEN:TIMELINE START -->\nx\n<!-- AUTO-GEN:TIMELINE END --></a>",
		},
		{
			name:    "missing start marker leaves doc alone",
			doc:     "<a>nothing</a>",
			content: "x",
			want:    "<a>nothing</a>",
		},
		{
			name:    "other tags untouched",
			doc:     "<!-- AUTO-GEN:LATEST START -->keep<!-- AUTO-GEN:LATEST END -->",
			content: "x",
			want:    "<!-- AUTO-GEN:LATEST START -->keep<!-- AUTO-GEN:LATEST END -->",
		},
		{
			name:    "only first region replaced",
			tag:     "T",
			doc:     "<!-- AUTO-GEN:T START -->a<!-- AUTO-GEN:T END -->|<!-- AUTO-GEN:T START -->b<!-- AUTO-GEN:T END -->",
			content: "z",
			want:    "<!-- AUTO-GEN:T START -->\nz\n<!-- AUTO-GEN:T END -->|<!-- AUTO-GEN:T START -->b<!-- AUTO-GEN:T END -->",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag := tt.tag
			if tag == "" {
				tag = "TIMELINE"
			}
			assert.Equal(t, tt.want, ReplaceBlock(tt.doc, tag, tt.content))
		})
	}
}

func TestReplaceBlock_Idempotent(t *testing.T) {
	doc := "head\n<!-- AUTO-GEN:LATEST START -->\n<!-- AUTO-GEN:LATEST END -->\ntail"
	once := ReplaceBlock(doc, "LATEST", "cards")
	assert.Equal(t, once, ReplaceBlock(once, "LATEST", "cards"))
}

func TestHasBlock(t *testing.T) {
	assert.True(t, HasBlock("x <!-- AUTO-GEN:BOOKMARKS START --> y", "BOOKMARKS"))
	assert.False(t, HasBlock("x <!-- AUTO-GEN:BOOKMARKS END --> y", "BOOKMARKS"))
}

func TestInjectFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "index.html")
	require.NoError(t, os.WriteFile(in, []byte("<!-- AUTO-GEN:LATEST START -->\n<!-- AUTO-GEN:LATEST END -->"), 0o600))

	changed, err := InjectFile(in, in, "LATEST", "cards")
	require.NoError(t, err)
	assert.True(t, changed)

	got, err := os.ReadFile(in)
	require.NoError(t, err)
	assert.Equal(t, "<!-- AUTO-GEN:LATEST START -->\ncards\n<!-- AUTO-GEN:LATEST END -->", string(got))

	changed, err = InjectFile(in, in, "LATEST", "cards")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestInjectFile_SeparateOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "posts", "index.html")
	out := filepath.Join(dir, "dist", "posts", "index.html")
	require.NoError(t, os.MkdirAll(filepath.Dir(in), 0o750))
	require.NoError(t, os.WriteFile(in, []byte("<!-- AUTO-GEN:TIMELINE START -->"), 0o600))

	changed, err := InjectFile(in, out, "TIMELINE", "t")
	require.NoError(t, err)
	assert.True(t, changed)

	src, err := os.ReadFile(in)
	require.NoError(t, err)
	assert.Equal(t, "<!-- AUTO-GEN:TIMELINE START -->", string(src))

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "<!-- AUTO-GEN:TIMELINE START -->\nt\n<!-- AUTO-GEN:TIMELINE END -->", string(got))
}

func TestInjectFile_NoMarker(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "index.html")
	require.NoError(t, os.WriteFile(in, []byte("<html></html>"), 0o600))

	changed, err := InjectFile(in, in, "LATEST", "x")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestInjectFile_MissingInput(t *testing.T) {
	_, err := InjectFile(filepath.Join(t.TempDir(), "nope.html"), "x", "LATEST", "x")
	require.Error(t, err)
}
