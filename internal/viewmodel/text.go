package viewmodel

import (
	"bytes"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	xhtml "golang.org/x/net/html"
)

// StripHTML returns the visible text of an HTML fragment on one line.
func StripHTML(fragment string) string {
	return strings.Join(strings.Fields(HTMLToText(fragment)), " ")
}

// HTMLToText renders an HTML fragment as plain text. Block elements and <br>
// become line breaks; entities are decoded.
func HTMLToText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}

	var b strings.Builder
	z := xhtml.NewTokenizer(strings.NewReader(fragment))
	skip := 0
	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			return tidyLines(b.String())
		case xhtml.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style":
				skip++
			case "br":
				b.WriteByte('\n')
			case "li":
				b.WriteString("\n- ")
			case "img":
				if alt := attr(z, "alt"); alt != "" {
					b.WriteString("[" + alt + "]")
				}
			}
		case xhtml.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style":
				if skip > 0 {
					skip--
				}
			case "p", "div", "h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol", "blockquote", "pre", "tr":
				b.WriteString("\n\n")
			}
		}
	}
}

func attr(z *xhtml.Tokenizer, key string) string {
	for {
		k, v, more := z.TagAttr()
		if string(k) == key {
			return string(v)
		}
		if !more {
			return ""
		}
	}
}

// tidyLines trims each line and collapses runs of blank lines.
func tidyLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// RenderMarkdown converts announcement source written in markdown to the HTML
// the backend stores.
func RenderMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// FormatTime renders a backend timestamp as "2006-01-02 15:04:05" in local
// time, or "" when it cannot be parsed.
func FormatTime(value string) string {
	t, ok := parseTime(value)
	if !ok {
		return ""
	}
	return t.Local().Format(time.DateTime)
}

// FormatDate is FormatTime without the clock.
func FormatDate(value string) string {
	t, ok := parseTime(value)
	if !ok {
		return ""
	}
	return t.Local().Format(time.DateOnly)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	time.DateTime,
	time.DateOnly,
}

func parseTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
