package ux

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Table is a ready-made Tabular value.
type Table struct {
	Columns []string   `json:"columns" yaml:"columns"`
	Data    [][]string `json:"rows" yaml:"rows"`
}

func (t Table) Headers() []string { return t.Columns }
func (t Table) Rows() [][]string  { return t.Data }

// RenderTable draws headers and rows with a rounded border. An empty row set
// renders as "(no records)".
func RenderTable(w io.Writer, headers []string, rows [][]string, noColor bool) string {
	if len(rows) == 0 {
		return "(no records)"
	}

	r := lipgloss.NewRenderer(w)
	header := r.NewStyle().Bold(true).Padding(0, 1)
	cell := r.NewStyle().Padding(0, 1)
	border := r.NewStyle()
	if !noColor {
		header = header.Foreground(lipgloss.Color("99"))
		border = border.Foreground(lipgloss.Color("241"))
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	return t.String()
}
