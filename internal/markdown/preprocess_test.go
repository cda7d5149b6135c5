package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreprocess(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "info callout",
			in:   "Intro\n\n> [!INFO]\n> First line\n> Second line\n\nAfter\n",
			want: "Intro\n\n:::info\nFirst line\nSecond line\n:::\n\nAfter\n",
		},
		{
			name: "plain blockquote untouched",
			in:   "> quoted\n",
			want: "> quoted\n",
		},
		{
			name: "definition marker",
			in:   "Term\n= Meaning\n",
			want: "Term\n: Meaning\n",
		},
		{
			name: "heading level marker",
			in:   "## Setup (H2)\nbody (H2)\n",
			want: "## Setup\nbody (H2)\n",
		},
		{
			name: "crlf callout and heading marker",
			in:   "## Setup (H2)\r\n\r\n> [!info]\r\n> crlf\r\n",
			want: "## Setup\n\n:::info\ncrlf\n:::\n",
		},
		{
			name: "task items get their own marker",
			in:   "- plain\n- [ ] open\n- [x] done\n",
			want: "- plain\n+ [ ] open\n+ [x] done\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Preprocess(tt.in))
		})
	}
}
