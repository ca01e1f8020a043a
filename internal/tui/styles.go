package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/cardtrack/cardtrack/internal/theme"
)

const (
	maxColumnWidth = 24
	minColumnWidth = 4
	columnGap      = "  "
	ellipsis       = "…"
)

type themeStyles struct {
	title      lipgloss.Style
	header     lipgloss.Style
	label      lipgloss.Style
	focused    lipgloss.Style
	cursorRow  lipgloss.Style
	muted      lipgloss.Style
	status     lipgloss.Style
	statusErr  lipgloss.Style
	annotation lipgloss.Style
	saving     lipgloss.Style
	panel      lipgloss.Style
	selected   lipgloss.Style
	link       lipgloss.Style
}

func buildThemeStyles(p theme.Palette) themeStyles {
	return themeStyles{
		title:      lipgloss.NewStyle().Bold(true).Foreground(p.Adaptive(theme.ColorPrimary)),
		header:     lipgloss.NewStyle().Bold(true).Foreground(p.Adaptive(theme.ColorTextPrimary)),
		label:      p.ForegroundStyle(theme.ColorTextMuted),
		focused:    lipgloss.NewStyle().Bold(true).Foreground(p.Adaptive(theme.ColorAccent)),
		cursorRow:  lipgloss.NewStyle().Background(p.Adaptive(theme.ColorHighlight)),
		muted:      p.ForegroundStyle(theme.ColorTextMuted),
		status:     p.ForegroundStyle(theme.ColorSuccess),
		statusErr:  p.ForegroundStyle(theme.ColorDanger),
		annotation: p.BadgeStyle(theme.ColorDanger).Padding(0, 1),
		saving:     p.ForegroundStyle(theme.ColorWarning),
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Adaptive(theme.ColorBorder)).
			Padding(0, 1),
		selected: p.BadgeStyle(theme.ColorPrimary),
		link:     lipgloss.NewStyle().Underline(true).Foreground(p.Adaptive(theme.ColorPrimary)),
	}
}

var titleCaser = cases.Title(language.English)

// columnTitle turns a field name like purchase_price into "Purchase Price".
func columnTitle(field string) string {
	return titleCaser.String(strings.ReplaceAll(field, "_", " "))
}

// fit pads or truncates s to exactly width terminal cells.
func fit(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		s = truncate.StringWithTail(s, uint(width), ellipsis)
	}
	return runewidth.FillRight(s, width)
}

// columnWidths sizes each column to its widest cell within bounds.
func columnWidths(titles []string, rows [][]string) []int {
	widths := make([]int, len(titles))
	for i, t := range titles {
		widths[i] = max(runewidth.StringWidth(t), minColumnWidth)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], runewidth.StringWidth(cell))
			}
		}
	}
	for i := range widths {
		widths[i] = min(widths[i], maxColumnWidth)
	}
	return widths
}

// columnOffsets returns the starting x of each column.
func columnOffsets(widths []int, indent int) []int {
	offsets := make([]int, len(widths))
	x := indent
	for i, w := range widths {
		offsets[i] = x
		x += w + len(columnGap)
	}
	return offsets
}
