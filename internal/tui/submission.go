package tui

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cardtrack/cardtrack/internal/editor"
	"github.com/cardtrack/cardtrack/internal/iostreams"
	"github.com/cardtrack/cardtrack/internal/log"
	"github.com/cardtrack/cardtrack/internal/lookup"
	"github.com/cardtrack/cardtrack/internal/markup"
	"github.com/cardtrack/cardtrack/internal/theme"
	"github.com/cardtrack/cardtrack/internal/tracker"
)

// SubmissionOptions configure the submission editor.
type SubmissionOptions struct {
	Table   *editor.Table
	Backend SubmissionBackend
	Drafts  SubmittedClearer
	// LookupQuery is the query the item browser opens with.
	LookupQuery url.Values
	Theme       theme.Palette
}

type focusArea int

const (
	focusTable focusArea = iota
	focusHeader
)

type lookupResultMsg struct {
	req   editor.LookupRequest
	attrs map[string]string
}

type dialogPageMsg struct {
	req  lookup.Request
	page *markup.LookupPage
	err  error
}

type submitResultMsg struct {
	result tracker.SubmitResult
	err    error
}

type submissionModel struct {
	ctx     context.Context
	logger  *slog.Logger
	table   *editor.Table
	backend SubmissionBackend
	drafts  SubmittedClearer
	query   url.Values

	styles  themeStyles
	keys    submissionKeys
	help    help.Model
	spinner spinner.Model

	focus     focusArea
	cursor    int
	headerIdx int
	input     textinput.Model
	header    map[string]*textinput.Model

	dialog *dialogModel

	restored   []editor.LookupRequest
	inflight   int
	submitting bool
	status     string
	statusErr  bool

	width  int
	height int
}

// RunSubmission starts the interactive submission editor.
func RunSubmission(ctx context.Context, streams *iostreams.IOStreams, opts SubmissionOptions) error {
	m, err := newSubmissionModel(ctx, opts)
	if err != nil {
		return err
	}
	m.logger.LogAttrs(ctx, slog.LevelInfo, "submission editor start",
		slog.Int("rows", m.table.Len()), slog.Bool("restored", len(m.restored) > 0))

	program := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(streams.In),
		tea.WithOutput(streams.Out),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithoutSignalHandler(),
	)
	_, err = program.Run()
	m.logger.LogAttrs(ctx, slog.LevelInfo, "submission editor end", slog.Bool("had_error", err != nil))
	return err
}

func newSubmissionModel(ctx context.Context, opts SubmissionOptions) (*submissionModel, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	pal := opts.Theme
	if strings.TrimSpace(pal.Name) == "" {
		pal = theme.Current()
	}
	styles := buildThemeStyles(pal)

	m := &submissionModel{
		ctx:     ctx,
		logger:  log.FromContext(ctx),
		table:   opts.Table,
		backend: opts.Backend,
		drafts:  opts.Drafts,
		query:   opts.LookupQuery,
		styles:  styles,
		keys:    newSubmissionKeys(),
		help:    help.New(),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.saving)),
		input:   newInput("item id"),
		header:  map[string]*textinput.Model{},
	}
	m.dialog = newDialogModel(styles)

	for _, f := range m.table.HeaderFields() {
		if f == tracker.SubmissionCompanyField {
			continue
		}
		in := newInput(columnTitle(f))
		in.SetValue(m.table.Header(f))
		m.header[f] = &in
	}

	lookups, restored, err := m.table.RestoreDraft()
	if err != nil {
		m.logger.Warn("could not restore draft", slog.Any("error", err))
		m.setError(fmt.Sprintf("could not restore draft: %v", err))
	}
	if restored {
		m.restored = lookups
		m.syncHeaderInputs()
		m.setStatus(fmt.Sprintf("restored draft with %d rows", m.table.Len()))
	}
	m.loadRow()
	return m, nil
}

func newInput(placeholder string) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.Prompt = ""
	in.CharLimit = 64
	in.Cursor.SetMode(cursor.CursorStatic)
	return in
}

func (m *submissionModel) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(m.restored))
	for _, req := range m.restored {
		cmds = append(cmds, m.lookupCmd(req))
	}
	m.restored = nil
	return tea.Batch(cmds...)
}

func (m *submissionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil
	case spinner.TickMsg:
		if m.inflight == 0 && !m.submitting && !m.dialog.d.Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case lookupResultMsg:
		m.inflight = max(m.inflight-1, 0)
		m.table.ApplyLookup(msg.req, msg.attrs)
		return m, nil
	case dialogPageMsg:
		if msg.err != nil {
			if m.dialog.d.Fail(msg.req) {
				m.setError(fmt.Sprintf("item browser: %v", msg.err))
			}
			return m, nil
		}
		m.dialog.replace(msg.req, msg.page)
		return m, nil
	case submitResultMsg:
		return m, m.handleSubmitResult(msg)
	case tea.MouseMsg:
		if m.dialog.d.IsOpen() && msg.Action == tea.MouseActionPress && !m.dialog.contains(msg.X, msg.Y, m.width, m.height) {
			m.closeDialog()
		}
		return m, nil
	case tea.KeyMsg:
		if m.dialog.d.IsOpen() {
			return m, m.updateDialog(msg)
		}
		if m.focus == focusHeader {
			return m, m.updateHeader(msg)
		}
		return m, m.updateTable(msg)
	}
	return m, nil
}

func (m *submissionModel) updateTable(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	case key.Matches(msg, m.keys.Focus):
		cmd := m.commitRow()
		m.focus = focusHeader
		m.loadRow()
		m.loadHeader()
		return cmd
	case key.Matches(msg, m.keys.Up):
		return m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		return m.moveCursor(1)
	case key.Matches(msg, m.keys.Commit):
		return m.commitRow()
	case key.Matches(msg, m.keys.AddRow):
		cmd := m.commitRow()
		row, err := m.table.AddRow()
		m.reportSave(err)
		m.cursor = m.table.Index(row)
		m.loadRow()
		return cmd
	case key.Matches(msg, m.keys.InsertRow):
		cur := m.currentRow()
		if cur == nil {
			return nil
		}
		cmd := m.commitRow()
		row, err := m.table.InsertBefore(cur)
		m.reportSave(err)
		m.cursor = m.table.Index(row)
		m.loadRow()
		return cmd
	case key.Matches(msg, m.keys.DeleteRow):
		cur := m.currentRow()
		if cur == nil {
			return nil
		}
		m.reportSave(m.table.Delete(cur))
		m.cursor = min(m.cursor, m.table.Len()-1)
		m.loadRow()
		return nil
	case key.Matches(msg, m.keys.Lookup):
		cur := m.currentRow()
		if cur == nil || !m.table.OpenFor(cur) {
			return nil
		}
		return m.dialogCmd(m.dialog.open(m.query))
	}

	row := m.currentRow()
	if row == nil {
		return nil
	}
	var cmd tea.Cmd
	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if v := m.input.Value(); v != before {
		m.reportSave(m.table.EditIdentifier(row, v))
	}
	return cmd
}

func (m *submissionModel) updateHeader(msg tea.KeyMsg) tea.Cmd {
	fields := m.table.HeaderFields()
	if len(fields) == 0 {
		m.focus = focusTable
		return nil
	}
	field := fields[m.headerIdx]
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	case key.Matches(msg, m.keys.Focus):
		m.focus = focusTable
		m.loadHeader()
		m.loadRow()
		return nil
	case key.Matches(msg, m.keys.Up):
		m.headerIdx = (m.headerIdx + len(fields) - 1) % len(fields)
		m.loadHeader()
		return nil
	case key.Matches(msg, m.keys.Down), key.Matches(msg, m.keys.Commit):
		m.headerIdx = (m.headerIdx + 1) % len(fields)
		m.loadHeader()
		return nil
	}

	if field == tracker.SubmissionCompanyField {
		delta := 0
		switch {
		case key.Matches(msg, m.keys.Left):
			delta = -1
		case key.Matches(msg, m.keys.Right), msg.String() == " ":
			delta = 1
		}
		if delta != 0 {
			m.reportSave(m.table.SetHeader(field, cycle(tracker.GradingCompanies, m.table.Header(field), delta)))
		}
		return nil
	}

	in := m.header[field]
	before := in.Value()
	updated, cmd := in.Update(msg)
	*in = updated
	if v := in.Value(); v != before {
		m.reportSave(m.table.SetHeader(field, v))
	}
	return cmd
}

// cycle returns the option delta steps away from current; an unknown
// current value starts at the first option.
func cycle(options []string, current string, delta int) string {
	if len(options) == 0 {
		return current
	}
	i := slices.Index(options, current)
	if i < 0 {
		return options[0]
	}
	n := len(options)
	return options[((i+delta)%n+n)%n]
}

func (m *submissionModel) currentRow() *editor.Row {
	rows := m.table.Rows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return nil
	}
	return rows[m.cursor]
}

func (m *submissionModel) moveCursor(delta int) tea.Cmd {
	n := m.table.Len()
	if n == 0 {
		return nil
	}
	next := min(max(m.cursor+delta, 0), n-1)
	if next == m.cursor {
		return nil
	}
	cmd := m.commitRow()
	m.cursor = next
	m.loadRow()
	return cmd
}

// commitRow fires the identifier change of the current row.
func (m *submissionModel) commitRow() tea.Cmd {
	row := m.currentRow()
	if row == nil {
		return nil
	}
	req, ok := m.table.CommitIdentifier(row)
	if !ok {
		return nil
	}
	return m.lookupCmd(req)
}

func (m *submissionModel) lookupCmd(req editor.LookupRequest) tea.Cmd {
	m.inflight++
	ctx, backend := m.ctx, m.backend
	fetch := func() tea.Msg {
		item, err := backend.ItemInfo(ctx, req.Identifier)
		if err != nil {
			return lookupResultMsg{req: req}
		}
		return lookupResultMsg{req: req, attrs: item.Attributes()}
	}
	return tea.Batch(fetch, m.spinner.Tick)
}

// loadRow binds the identifier input to the cursor row.
func (m *submissionModel) loadRow() {
	if m.table.Len() == 0 {
		m.cursor = -1
	} else if m.cursor < 0 {
		m.cursor = 0
	}
	row := m.currentRow()
	if row == nil {
		m.input.SetValue("")
		m.input.Blur()
		return
	}
	m.input.SetValue(row.Identifier())
	m.input.CursorEnd()
	if m.focus == focusTable {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

func (m *submissionModel) loadHeader() {
	fields := m.table.HeaderFields()
	for i, f := range fields {
		in, ok := m.header[f]
		if !ok {
			continue
		}
		if m.focus == focusHeader && i == m.headerIdx {
			in.Focus()
		} else {
			in.Blur()
		}
	}
}

func (m *submissionModel) syncHeaderInputs() {
	for f, in := range m.header {
		in.SetValue(m.table.Header(f))
	}
}

func (m *submissionModel) submit() tea.Cmd {
	if m.submitting {
		return nil
	}
	cmds := []tea.Cmd{m.commitRow()}
	ids := m.table.Identifiers()
	if len(ids) == 0 {
		m.setError("add at least one item before submitting")
		return tea.Batch(cmds...)
	}
	m.submitting = true
	m.setStatus("submitting…")
	ctx, backend := m.ctx, m.backend
	sub := tracker.SubmissionFromHeader(m.table.Snapshot().Header)
	cmds = append(cmds, func() tea.Msg {
		result, err := backend.SubmitBatch(ctx, sub, ids)
		return submitResultMsg{result: result, err: err}
	}, m.spinner.Tick)
	return tea.Batch(cmds...)
}

func (m *submissionModel) handleSubmitResult(msg submitResultMsg) tea.Cmd {
	m.submitting = false
	switch {
	case msg.err != nil:
		m.logger.Error("submission failed", slog.Any("error", msg.err))
		m.setError(fmt.Sprintf("submission failed: %v", msg.err))
	case !msg.result.Accepted():
		m.setError(msg.result.ErrorMessage)
	default:
		if m.drafts != nil {
			if _, err := m.drafts.ClearIfSubmitted(msg.result.Landing); err != nil {
				m.logger.Error("failed to clear draft", slog.Any("error", err))
			}
		}
		m.table.Reset()
		m.cursor = 0
		m.focus = focusTable
		m.syncHeaderInputs()
		m.loadHeader()
		m.loadRow()
		m.setStatus("submission saved: " + msg.result.Landing.RequestURI())
	}
	return nil
}

func (m *submissionModel) dialogCmd(req lookup.Request) tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return tea.Batch(func() tea.Msg {
		page, err := backend.LookupItems(ctx, req.Query)
		return dialogPageMsg{req: req, page: page, err: err}
	}, m.spinner.Tick)
}

func (m *submissionModel) updateDialog(msg tea.KeyMsg) tea.Cmd {
	action := m.dialog.update(msg)
	switch action.kind {
	case dialogClose:
		m.closeDialog()
	case dialogNavigate:
		return m.dialogCmd(action.req)
	case dialogSelect:
		m.dialog.close()
		req, ok, err := m.table.Select(action.id)
		m.reportSave(err)
		m.loadRow()
		if ok {
			return m.lookupCmd(req)
		}
	}
	return action.cmd
}

func (m *submissionModel) closeDialog() {
	m.dialog.close()
	m.table.CloseDialog()
}

func (m *submissionModel) reportSave(err error) {
	if err != nil {
		m.setError(err.Error())
	}
}

func (m *submissionModel) setStatus(s string) {
	m.status, m.statusErr = s, false
}

func (m *submissionModel) setError(s string) {
	m.status, m.statusErr = s, true
}

func (m *submissionModel) View() string {
	if m.dialog.d.IsOpen() {
		return m.dialog.view(m.width, m.height, m.spinner.View())
	}

	var b strings.Builder
	b.WriteString(m.styles.title.Render("New submission"))
	b.WriteString("\n\n")
	b.WriteString(m.viewHeader())
	b.WriteString("\n\n")
	b.WriteString(m.viewTable())
	b.WriteString("\n")

	status := m.status
	if m.inflight > 0 || m.submitting {
		status = strings.TrimSpace(m.spinner.View() + " " + status)
	}
	if status != "" {
		style := m.styles.status
		if m.statusErr {
			style = m.styles.statusErr
		}
		b.WriteString(style.Render(status))
		b.WriteString("\n")
	}
	b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	return b.String()
}

func (m *submissionModel) viewHeader() string {
	parts := make([]string, 0, len(m.table.HeaderFields()))
	for i, f := range m.table.HeaderFields() {
		label := m.styles.label
		if m.focus == focusHeader && i == m.headerIdx {
			label = m.styles.focused
		}
		var value string
		if in, ok := m.header[f]; ok {
			value = in.View()
		} else {
			value = "‹ " + fit(m.table.Header(f), 4) + " ›"
		}
		parts = append(parts, label.Render(columnTitle(f)+":")+" "+value)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, strings.Join(parts, "   "))
}

func (m *submissionModel) viewTable() string {
	columns := m.table.Columns()
	titles := append([]string{"#", "Item"}, make([]string, len(columns))...)
	for i, c := range columns {
		titles[i+2] = columnTitle(c)
	}

	rows := m.table.Rows()
	cells := make([][]string, len(rows))
	for i, r := range rows {
		line := make([]string, 0, len(titles))
		line = append(line, fmt.Sprint(i+1), r.Identifier())
		for _, c := range columns {
			line = append(line, r.Attribute(c))
		}
		cells[i] = line
	}
	widths := columnWidths(titles, cells)
	widths[1] = max(widths[1], 10)

	var b strings.Builder
	head := make([]string, len(titles))
	for i, t := range titles {
		head[i] = fit(t, widths[i])
	}
	b.WriteString(m.styles.header.Render(strings.Join(head, columnGap)))
	b.WriteString("\n")

	for i, line := range cells {
		out := make([]string, len(line))
		for j, c := range line {
			out[j] = fit(c, widths[j])
		}
		if i == m.cursor && m.focus == focusTable {
			out[1] = fit(m.input.View(), widths[1])
			b.WriteString(m.styles.cursorRow.Render(strings.Join(out, columnGap)))
		} else {
			b.WriteString(strings.Join(out, columnGap))
		}
		b.WriteString("\n")
	}
	if len(rows) == 0 {
		b.WriteString(m.styles.muted.Render("no rows, press ctrl+n to add one"))
		b.WriteString("\n")
	}
	return b.String()
}
