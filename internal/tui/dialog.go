package tui

import (
	"net/url"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cardtrack/cardtrack/internal/lookup"
	"github.com/cardtrack/cardtrack/internal/markup"
)

const (
	dialogMaxWidth   = 72
	dialogMaxEntries = 12
)

type dialogArea int

const (
	areaEntries dialogArea = iota
	areaLinks
	areaSearch
)

type dialogActionKind int

const (
	dialogNone dialogActionKind = iota
	dialogClose
	dialogNavigate
	dialogSelect
)

type dialogAction struct {
	kind dialogActionKind
	req  lookup.Request
	id   string
	cmd  tea.Cmd
}

// searchField is one editable input of the browser's search form.
type searchField struct {
	field  markup.FormField
	input  textinput.Model
	choice int
}

func (f *searchField) value() string {
	if len(f.field.Options) > 0 {
		if f.choice < 0 || f.choice >= len(f.field.Options) {
			return ""
		}
		return f.field.Options[f.choice]
	}
	return f.input.Value()
}

type dialogModel struct {
	d      lookup.Dialog
	styles themeStyles
	keys   dialogKeys
	help   help.Model
	filter textinput.Model

	area     dialogArea
	entryIdx int
	linkIdx  int
	fieldIdx int
	fields   []*searchField
}

func newDialogModel(styles themeStyles) *dialogModel {
	filter := newInput("type to filter")
	return &dialogModel{
		styles: styles,
		keys:   newDialogKeys(),
		help:   help.New(),
		filter: filter,
	}
}

func (m *dialogModel) open(query url.Values) lookup.Request {
	req := m.d.Open(query)
	m.reset()
	m.fields = nil
	if m.d.SearchExpanded() {
		m.area = areaSearch
	}
	return req
}

func (m *dialogModel) close() {
	m.d.Close()
	m.reset()
	m.fields = nil
}

func (m *dialogModel) reset() {
	m.area = areaEntries
	m.entryIdx, m.linkIdx, m.fieldIdx = 0, 0, 0
	m.filter.SetValue("")
	m.filter.Focus()
}

// replace applies a fetched page and rebuilds the search form from it.
func (m *dialogModel) replace(req lookup.Request, page *markup.LookupPage) bool {
	if !m.d.Replace(req, page) {
		return false
	}
	area := m.area
	m.reset()
	m.fields = m.fields[:0]
	for _, f := range page.Fields {
		sf := &searchField{field: f, input: newInput(f.Label), choice: -1}
		sf.input.SetValue(f.Value)
		for i, o := range f.Options {
			if o == f.Value {
				sf.choice = i
			}
		}
		m.fields = append(m.fields, sf)
	}
	if area == areaSearch && m.d.SearchExpanded() && len(m.fields) > 0 {
		m.area = areaSearch
	}
	m.focusArea()
	return true
}

func (m *dialogModel) areas() []dialogArea {
	out := []dialogArea{areaEntries}
	if page := m.d.Page(); page != nil && len(page.Links) > 0 {
		out = append(out, areaLinks)
	}
	if m.d.SearchExpanded() && len(m.fields) > 0 {
		out = append(out, areaSearch)
	}
	return out
}

func (m *dialogModel) focusArea() {
	if m.area == areaEntries {
		m.filter.Focus()
	} else {
		m.filter.Blur()
	}
	for i, f := range m.fields {
		if m.area == areaSearch && i == m.fieldIdx {
			f.input.Focus()
		} else {
			f.input.Blur()
		}
	}
}

func (m *dialogModel) update(msg tea.KeyMsg) dialogAction {
	switch {
	case key.Matches(msg, m.keys.Close):
		return dialogAction{kind: dialogClose}
	case key.Matches(msg, m.keys.Search):
		m.d.ToggleSearch()
		if m.d.SearchExpanded() && len(m.fields) > 0 {
			m.area = areaSearch
		} else if m.area == areaSearch {
			m.area = areaEntries
		}
		m.focusArea()
		return dialogAction{}
	case key.Matches(msg, m.keys.Area):
		areas := m.areas()
		i := 0
		for j, a := range areas {
			if a == m.area {
				i = j
			}
		}
		step := 1
		if msg.String() == "shift+tab" {
			step = len(areas) - 1
		}
		m.area = areas[(i+step)%len(areas)]
		m.focusArea()
		return dialogAction{}
	}

	switch m.area {
	case areaLinks:
		return m.updateLinks(msg)
	case areaSearch:
		return m.updateSearch(msg)
	}
	return m.updateEntries(msg)
}

func (m *dialogModel) updateEntries(msg tea.KeyMsg) dialogAction {
	entries := m.d.Entries()
	switch {
	case key.Matches(msg, m.keys.Up):
		m.entryIdx = max(m.entryIdx-1, 0)
		return dialogAction{}
	case key.Matches(msg, m.keys.Down):
		m.entryIdx = max(min(m.entryIdx+1, len(entries)-1), 0)
		return dialogAction{}
	case key.Matches(msg, m.keys.Select):
		if m.entryIdx < len(entries) {
			return dialogAction{kind: dialogSelect, id: entries[m.entryIdx].ID}
		}
		return dialogAction{}
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	if m.filter.Value() != m.d.Filter() {
		m.d.SetFilter(m.filter.Value())
		m.entryIdx = 0
	}
	return dialogAction{cmd: cmd}
}

func (m *dialogModel) updateLinks(msg tea.KeyMsg) dialogAction {
	page := m.d.Page()
	if page == nil || len(page.Links) == 0 {
		m.area = areaEntries
		m.focusArea()
		return dialogAction{}
	}
	switch {
	case key.Matches(msg, m.keys.Left), key.Matches(msg, m.keys.Up):
		m.linkIdx = max(m.linkIdx-1, 0)
	case key.Matches(msg, m.keys.Right), key.Matches(msg, m.keys.Down):
		m.linkIdx = min(m.linkIdx+1, len(page.Links)-1)
	case key.Matches(msg, m.keys.Select):
		return dialogAction{kind: dialogNavigate, req: m.d.Follow(page.Links[m.linkIdx])}
	}
	return dialogAction{}
}

func (m *dialogModel) updateSearch(msg tea.KeyMsg) dialogAction {
	if len(m.fields) == 0 {
		m.area = areaEntries
		m.focusArea()
		return dialogAction{}
	}
	field := m.fields[m.fieldIdx]
	switch {
	case key.Matches(msg, m.keys.Up):
		m.fieldIdx = max(m.fieldIdx-1, 0)
		m.focusArea()
		return dialogAction{}
	case key.Matches(msg, m.keys.Down):
		m.fieldIdx = min(m.fieldIdx+1, len(m.fields)-1)
		m.focusArea()
		return dialogAction{}
	case key.Matches(msg, m.keys.Select):
		values := url.Values{}
		for _, f := range m.fields {
			values.Set(f.field.Name, f.value())
		}
		return dialogAction{kind: dialogNavigate, req: m.d.Submit(values)}
	}

	if n := len(field.field.Options); n > 0 {
		switch {
		case key.Matches(msg, m.keys.Left):
			field.choice = (max(field.choice, 0) + n - 1) % n
		case key.Matches(msg, m.keys.Right):
			field.choice = (field.choice + 1) % n
		}
		return dialogAction{}
	}

	var cmd tea.Cmd
	field.input, cmd = field.input.Update(msg)
	return dialogAction{cmd: cmd}
}

func (m *dialogModel) panel(spin string) string {
	var b strings.Builder
	title := "Select item"
	if m.d.Loading() {
		title += " " + spin
	}
	b.WriteString(m.styles.title.Render(title))
	b.WriteString("\n\n")

	if m.d.SearchExpanded() && len(m.fields) > 0 {
		for i, f := range m.fields {
			label := m.styles.label
			if m.area == areaSearch && i == m.fieldIdx {
				label = m.styles.focused
			}
			value := f.input.View()
			if len(f.field.Options) > 0 {
				value = "‹ " + f.value() + " ›"
			}
			b.WriteString(label.Render(f.field.Label+":") + " " + value + "\n")
		}
		b.WriteString("\n")
	}

	filterLabel := m.styles.label
	if m.area == areaEntries {
		filterLabel = m.styles.focused
	}
	b.WriteString(filterLabel.Render("Filter:") + " " + m.filter.View() + "\n\n")

	entries := m.d.Entries()
	switch {
	case m.d.Page() == nil:
		b.WriteString(m.styles.muted.Render("loading…") + "\n")
	case len(entries) == 0:
		b.WriteString(m.styles.muted.Render("no items") + "\n")
	}
	start := max(0, m.entryIdx-dialogMaxEntries+1)
	for i := start; i < len(entries) && i < start+dialogMaxEntries; i++ {
		line := fit(entries[i].ID+"  "+entries[i].Text, dialogMaxWidth-4)
		if i == m.entryIdx && m.area == areaEntries {
			line = m.styles.selected.Render(line)
		}
		b.WriteString(line + "\n")
	}

	if page := m.d.Page(); page != nil && len(page.Links) > 0 {
		b.WriteString("\n")
		links := make([]string, len(page.Links))
		for i, l := range page.Links {
			if m.area == areaLinks && i == m.linkIdx {
				links[i] = m.styles.selected.Render(l.Label)
			} else {
				links[i] = m.styles.link.Render(l.Label)
			}
		}
		b.WriteString(strings.Join(links, " ") + "\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	return m.styles.panel.Width(dialogMaxWidth).Render(b.String())
}

// panelOrigin is the top left cell of a panel of size pw x ph centered in
// a w x h screen.
func panelOrigin(w, h, pw, ph int) (int, int) {
	return max((w-pw)/2, 0), max((h-ph)/2, 0)
}

func (m *dialogModel) view(width, height int, spin string) string {
	panel := m.panel(spin)
	x, y := panelOrigin(width, height, lipgloss.Width(panel), lipgloss.Height(panel))
	return lipgloss.NewStyle().MarginLeft(x).MarginTop(y).Render(panel)
}

// contains reports whether the screen cell x,y lies on the panel.
func (m *dialogModel) contains(x, y, width, height int) bool {
	panel := m.panel("")
	pw, ph := lipgloss.Width(panel), lipgloss.Height(panel)
	left, top := panelOrigin(width, height, pw, ph)
	return x >= left && x < left+pw && y >= top && y < top+ph
}
