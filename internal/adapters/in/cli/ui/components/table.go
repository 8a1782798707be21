// Package components provides reusable terminal rendering blocks.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"

	"github.com/stackkeeper/stackkeeper/internal/adapters/in/cli/ui/styles"
)

// TableColumn defines a table column. A zero Width leaves the column unbounded.
type TableColumn struct {
	Title string
	Width int
}

// Table renders rows under styled headers.
type Table struct {
	columns     []TableColumn
	rows        [][]string
	headerStyle lipgloss.Style
	cellStyle   lipgloss.Style
}

// NewTable creates a table with the default theme.
func NewTable(columns []TableColumn, rows [][]string) *Table {
	return &Table{
		columns: columns,
		rows:    rows,
		headerStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.ColorPrimary).
			Padding(0, 1),
		cellStyle: lipgloss.NewStyle().
			Foreground(styles.ColorText).
			Padding(0, 1),
	}
}

// Plain drops colors and padding, for piping output.
func (t *Table) Plain() *Table {
	t.headerStyle = lipgloss.NewStyle()
	t.cellStyle = lipgloss.NewStyle()
	return t
}

// Render renders the table as a string.
func (t *Table) Render() string {
	if len(t.columns) == 0 {
		return ""
	}

	headers := make([]string, len(t.columns))
	for i, col := range t.columns {
		headers[i] = truncateCell(col.Title, col.Width)
	}

	rows := make([][]string, len(t.rows))
	for r, row := range t.rows {
		rows[r] = make([]string, len(row))
		for c, cell := range row {
			width := 0
			if c < len(t.columns) {
				width = t.columns[c].Width
			}
			rows[r][c] = truncateCell(cell, width)
		}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(styles.ColorBorder)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := t.cellStyle
			if row == table.HeaderRow {
				style = t.headerStyle
			}
			if col >= 0 && col < len(t.columns) && t.columns[col].Width > 0 {
				w := t.columns[col].Width
				style = style.Width(w).MaxWidth(w)
			}
			return style
		}).
		String()
}

// truncateCell shortens value to maxWidth display cells with a "..." tail.
// Values carrying ANSI sequences are left alone.
func truncateCell(value string, maxWidth int) string {
	if strings.Contains(value, "\x1b[") {
		return value
	}
	if maxWidth <= 0 || runewidth.StringWidth(value) <= maxWidth {
		return value
	}
	if maxWidth <= 3 {
		return strings.Repeat(".", maxWidth)
	}

	target := maxWidth - 3
	var b strings.Builder
	width := 0
	g := uniseg.NewGraphemes(value)
	for g.Next() {
		grapheme := g.Str()
		w := runewidth.StringWidth(grapheme)
		if width+w > target {
			break
		}
		b.WriteString(grapheme)
		width += w
	}
	return b.String() + "..."
}
