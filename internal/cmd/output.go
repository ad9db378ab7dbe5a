package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/oactl/internal/config"
	"github.com/felixgeelhaar/oactl/internal/errors"
	"github.com/felixgeelhaar/oactl/internal/ux"
)

func (a *App) format() string {
	if a.Flags != nil && a.Flags.Format != "" {
		return a.Flags.Format
	}
	if a.Config != nil {
		return a.Config.Output.Format
	}
	return config.FormatText
}

func (a *App) structured() bool {
	f := a.format()
	return f == config.FormatJSON || f == config.FormatYAML
}

// render writes data in the selected format.
func (a *App) render(data any) error {
	noColor := a.Flags != nil && a.Flags.NoColor
	formatter, err := ux.NewFormatter(a.format(), &ux.FormatterOptions{Writer: a.out(), NoColor: noColor})
	if err != nil {
		return err
	}
	return formatter.Format(data)
}

// renderTable writes a table in text mode and data otherwise.
func (a *App) renderTable(data any, headers []string, rows [][]string) error {
	if a.structured() {
		return a.render(data)
	}
	return a.render(ux.Table{Columns: headers, Data: rows})
}

// println writes a line of text output. Structured formats skip it.
func (a *App) println(format string, args ...any) {
	if a.structured() {
		return
	}
	fmt.Fprintf(a.out(), format+"\n", args...)
}

func pager(page, pageSize, total int) string {
	pages := 1
	if pageSize > 0 && total > 0 {
		pages = (total + pageSize - 1) / pageSize
	}
	return fmt.Sprintf("page %d of %d, %d records", page, pages, total)
}

func itoa(n int) string { return strconv.Itoa(n) }

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// inputLayouts are accepted for --start and --end.
var inputLayouts = []string{
	time.DateTime,
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	time.DateOnly,
}

func parseLocalTime(s string) (time.Time, error) {
	for _, layout := range inputLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q, use YYYY-MM-DD HH:MM", s)
}

// readLine reads one line, without its terminator, for --password-stdin.
func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.Wrap(errors.ErrCodeValidation, "failed to read from stdin", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// previewTable turns workbook rows into a table. The first row is the header.
func previewTable(rows [][]string) ux.Table {
	if len(rows) == 0 {
		return ux.Table{}
	}
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	pad := func(r []string) []string {
		out := make([]string, width)
		copy(out, r)
		return out
	}
	t := ux.Table{Columns: pad(rows[0])}
	for _, r := range rows[1:] {
		t.Data = append(t.Data, pad(r))
	}
	return t
}
