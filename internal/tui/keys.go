package tui

import "github.com/charmbracelet/bubbles/key"

type submissionKeys struct {
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	Commit    key.Binding
	Focus     key.Binding
	AddRow    key.Binding
	InsertRow key.Binding
	DeleteRow key.Binding
	Lookup    key.Binding
	Submit    key.Binding
	Quit      key.Binding
}

func newSubmissionKeys() submissionKeys {
	return submissionKeys{
		Up:        key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "prev")),
		Down:      key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "next")),
		Left:      key.NewBinding(key.WithKeys("left")),
		Right:     key.NewBinding(key.WithKeys("right")),
		Commit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "look up")),
		Focus:     key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "header/table")),
		AddRow:    key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "add row")),
		InsertRow: key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "insert above")),
		DeleteRow: key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "delete row")),
		Lookup:    key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "browse items")),
		Submit:    key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "submit")),
		Quit:      key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
	}
}

func (k submissionKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Commit, k.AddRow, k.InsertRow, k.DeleteRow, k.Lookup, k.Submit, k.Focus, k.Quit}
}

func (k submissionKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

type dialogKeys struct {
	Up     key.Binding
	Down   key.Binding
	Left   key.Binding
	Right  key.Binding
	Select key.Binding
	Area   key.Binding
	Search key.Binding
	Close  key.Binding
}

func newDialogKeys() dialogKeys {
	return dialogKeys{
		Up:     key.NewBinding(key.WithKeys("up"), key.WithHelp("↑/↓", "move")),
		Down:   key.NewBinding(key.WithKeys("down")),
		Left:   key.NewBinding(key.WithKeys("left")),
		Right:  key.NewBinding(key.WithKeys("right")),
		Select: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "choose")),
		Area:   key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "items/pages/search")),
		Search: key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "toggle search")),
		Close:  key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "close")),
	}
}

func (k dialogKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Select, k.Area, k.Search, k.Close}
}

func (k dialogKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

type summaryKeys struct {
	Up     key.Binding
	Down   key.Binding
	Left   key.Binding
	Right  key.Binding
	Edit   key.Binding
	Next   key.Binding
	Reload key.Binding
	Cancel key.Binding
	Quit   key.Binding
}

func newSummaryKeys() summaryKeys {
	return summaryKeys{
		Up:     key.NewBinding(key.WithKeys("up"), key.WithHelp("↑/↓/←/→", "move")),
		Down:   key.NewBinding(key.WithKeys("down")),
		Left:   key.NewBinding(key.WithKeys("left")),
		Right:  key.NewBinding(key.WithKeys("right")),
		Edit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "edit/save")),
		Next:   key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "save & move")),
		Reload: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reload")),
		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel/quit")),
		Quit:   key.NewBinding(key.WithKeys("ctrl+c")),
	}
}

func (k summaryKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Edit, k.Next, k.Reload, k.Cancel}
}

func (k summaryKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
