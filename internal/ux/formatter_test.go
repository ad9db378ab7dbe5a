package ux

import (
	"bytes"
	"strings"
	"testing"
)

type stringer string

func (s stringer) String() string { return string(s) }

type testData struct {
	Name  string `json:"name" yaml:"name"`
	Value int    `json:"value" yaml:"value"`
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		wantErr bool
	}{
		{"json format", "json", false},
		{"yaml format", "yaml", false},
		{"text format", "text", false},
		{"empty format defaults to text", "", false},
		{"unknown format", "xml", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFormatter(tt.format, nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewFormatter() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	formatter, err := NewFormatter("json", &FormatterOptions{Writer: &buf})
	if err != nil {
		t.Fatalf("NewFormatter() error = %v", err)
	}

	data := testData{Name: "test", Value: 42}
	if err := formatter.Format(data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, `"name": "test"`) {
		t.Errorf("JSON output missing expected field: %s", output)
	}
	if !strings.Contains(output, `"value": 42`) {
		t.Errorf("JSON output missing expected field: %s", output)
	}
}

func TestJSONFormatterCompact(t *testing.T) {
	var buf bytes.Buffer
	formatter, err := NewFormatter("json", &FormatterOptions{
		Writer:  &buf,
		Compact: true,
	})
	if err != nil {
		t.Fatalf("NewFormatter() error = %v", err)
	}

	data := testData{Name: "test", Value: 42}
	if err := formatter.Format(data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	output := buf.String()
	// Compact JSON should be single line (no indentation)
	if strings.Count(output, "\n") > 1 {
		t.Errorf("Compact JSON should be single line, got: %s", output)
	}
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	formatter, err := NewFormatter("yaml", &FormatterOptions{Writer: &buf})
	if err != nil {
		t.Fatalf("NewFormatter() error = %v", err)
	}

	data := testData{Name: "test", Value: 42}
	if err := formatter.Format(data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "name: test") {
		t.Errorf("YAML output missing expected field: %s", output)
	}
	if !strings.Contains(output, "value: 42") {
		t.Errorf("YAML output missing expected field: %s", output)
	}
}

func TestTextFormatter(t *testing.T) {
	tests := []struct {
		name    string
		data    any
		want    string
		wantErr bool
	}{
		{
			name: "string data",
			data: "hello world",
			want: "hello world",
		},
		{
			name: "struct falls back to yaml",
			data: testData{Name: "test", Value: 42},
			want: "name: test\nvalue: 42",
		},
		{
			name: "stringer",
			data: stringer("rendered"),
			want: "rendered",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			formatter, err := NewFormatter("text", &FormatterOptions{Writer: &buf})
			if err != nil {
				t.Fatalf("NewFormatter() error = %v", err)
			}

			err = formatter.Format(tt.data)
			if (err != nil) != tt.wantErr {
				t.Errorf("Format() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr {
				output := strings.TrimSpace(buf.String())
				if output != tt.want {
					t.Errorf("Format() output = %q, want %q", output, tt.want)
				}
			}
		})
	}
}

func TestTextFormatterTable(t *testing.T) {
	var buf bytes.Buffer
	formatter, err := NewFormatter("text", &FormatterOptions{Writer: &buf, NoColor: true})
	if err != nil {
		t.Fatalf("NewFormatter() error = %v", err)
	}

	tbl := Table{
		Columns: []string{"ID", "Title"},
		Data:    [][]string{{"1", "Holiday"}, {"2", "Offsite"}},
	}
	if err := formatter.Format(tbl); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{"ID", "Title", "Holiday", "Offsite", "╭"} {
		if !strings.Contains(output, want) {
			t.Errorf("table output missing %q:\n%s", want, output)
		}
	}
}

func TestTableJSON(t *testing.T) {
	var buf bytes.Buffer
	formatter, _ := NewFormatter("json", &FormatterOptions{Writer: &buf, Compact: true})
	if err := formatter.Format(Table{Columns: []string{"a"}, Data: [][]string{{"<b>"}}}); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != `{"columns":["a"],"rows":[["<b>"]]}` {
		t.Errorf("JSON = %s", got)
	}
}

func TestRenderTableEmpty(t *testing.T) {
	if got := RenderTable(&bytes.Buffer{}, []string{"ID"}, nil, true); got != "(no records)" {
		t.Errorf("RenderTable() = %q", got)
	}
}
