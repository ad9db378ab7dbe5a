package viewmodel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLToText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "just text", "just text"},
		{"paragraphs", "<p>one</p><p>two</p>", "one\n\ntwo"},
		{"break", "a<br>b<br/>c", "a\nb\nc"},
		{"list", "<ul><li>x</li><li>y</li></ul>", "- x\n- y"},
		{"entities", "<p>R&amp;D &lt;team&gt;</p>", "R&D <team>"},
		{"script dropped", "<p>hi</p><script>alert(1)</script>", "hi"},
		{"image alt", `<p><img src="/a.png" alt="chart"></p>`, "[chart]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTMLToText(tt.in))
		})
	}
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "Title body text", StripHTML("<h1>Title</h1>\n<p>body   text</p>"))
}

func TestRenderMarkdown(t *testing.T) {
	out, err := RenderMarkdown("# Notice\n\n- item\n\n| a | b |\n|---|---|\n| 1 | 2 |")
	require.NoError(t, err)
	assert.Contains(t, out, "<h1>Notice</h1>")
	assert.Contains(t, out, "<li>item</li>")
	assert.Contains(t, out, "<table>")
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, ts.Local().Format(time.DateTime), FormatTime("2026-01-02T03:04:05Z"))
	assert.Equal(t, ts.Local().Format(time.DateOnly), FormatDate("2026-01-02T03:04:05.123456Z"))
	assert.Equal(t, "", FormatTime("not a time"))
	assert.Equal(t, "", FormatTime(""))
}
