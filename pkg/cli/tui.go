package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for terminal output.
type Theme struct {
	Primary lipgloss.Color // Accent color for headers and borders
	Dim     lipgloss.Color // Secondary text
	Alert   lipgloss.Color // Rows that need attention
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
	Alert:   lipgloss.Color("#ff5f87"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title  lipgloss.Style
	Header lipgloss.Style
	Cell   lipgloss.Style
	Alert  lipgloss.Style
	Border lipgloss.Style
	Help   lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Header: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Cell:   lipgloss.NewStyle(),
		Alert:  lipgloss.NewStyle().Foreground(t.Alert),
		Border: lipgloss.NewStyle().Foreground(t.Primary),
		Help:   lipgloss.NewStyle().Foreground(t.Dim),
	}
}

// Table is a bordered table with a title and an optional footer.
type Table struct {
	Styles  Styles
	Title   string
	Headers []string
	Rows    [][]string
	Footer  string

	// Alert marks rows rendered with the alert style.
	Alert func(row int) bool
}

// NewTable creates a table with the default styles.
func NewTable(title string, headers ...string) *Table {
	return &Table{
		Styles:  NewStyles(DefaultTheme),
		Title:   title,
		Headers: headers,
	}
}

// AddRow appends a row. Missing cells render empty.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// Render renders the table to a string.
func (t *Table) Render() string {
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i := range min(len(row), len(widths)) {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}

	bc := t.Styles.Border
	rule := func(left, mid, right string) string {
		segs := make([]string, len(widths))
		for i, w := range widths {
			segs[i] = strings.Repeat("─", w+2)
		}
		return bc.Render(left + strings.Join(segs, mid) + right)
	}
	line := func(cells []string, style lipgloss.Style) string {
		var b strings.Builder
		b.WriteString(bc.Render("│"))
		for i, w := range widths {
			text := ""
			if i < len(cells) {
				text = cells[i]
			}
			pad := strings.Repeat(" ", max(0, w-lipgloss.Width(text)))
			b.WriteString(" " + style.Render(text) + pad + " " + bc.Render("│"))
		}
		return b.String()
	}

	var lines []string
	if t.Title != "" {
		lines = append(lines, t.Styles.Title.Render(t.Title))
	}
	lines = append(lines, rule("╭", "┬", "╮"))
	lines = append(lines, line(t.Headers, t.Styles.Header))
	lines = append(lines, rule("├", "┼", "┤"))
	for i, row := range t.Rows {
		style := t.Styles.Cell
		if t.Alert != nil && t.Alert(i) {
			style = t.Styles.Alert
		}
		lines = append(lines, line(row, style))
	}
	lines = append(lines, rule("╰", "┴", "╯"))
	if t.Footer != "" {
		lines = append(lines, t.Styles.Help.Render(t.Footer))
	}
	return strings.Join(lines, "\n")
}
