package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/cardtrack/cardtrack/internal/editor"
	"github.com/cardtrack/cardtrack/internal/iostreams"
	"github.com/cardtrack/cardtrack/internal/log"
	"github.com/cardtrack/cardtrack/internal/markup"
	"github.com/cardtrack/cardtrack/internal/theme"
	"github.com/cardtrack/cardtrack/internal/tracker"
)

// SummaryOptions configure the summary editor.
type SummaryOptions struct {
	Backend SummaryBackend
	Theme   theme.Palette
}

type summaryLoadedMsg struct {
	table *markup.SummaryTable
	err   error
}

type saveResultMsg struct {
	cell *editor.Cell
	ack  editor.Ack
}

type annotationExpiredMsg struct {
	cell *editor.Cell
	seq  uint64
}

type summaryModel struct {
	ctx     context.Context
	logger  *slog.Logger
	backend SummaryBackend

	styles  themeStyles
	keys    summaryKeys
	help    help.Model
	spinner spinner.Model
	input   textinput.Model

	table   *markup.SummaryTable
	cells   [][]*editor.Cell
	row     int
	col     int
	loading bool
	saving  int

	status    string
	statusErr bool

	// after schedules fn once d elapsed.
	after func(d time.Duration, fn func(time.Time) tea.Msg) tea.Cmd
}

// RunSummary starts the interactive submissions summary editor.
func RunSummary(ctx context.Context, streams *iostreams.IOStreams, opts SummaryOptions) error {
	m := newSummaryModel(ctx, opts)
	m.logger.LogAttrs(ctx, slog.LevelInfo, "summary editor start")
	program := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(streams.In),
		tea.WithOutput(streams.Out),
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)
	_, err := program.Run()
	m.logger.LogAttrs(ctx, slog.LevelInfo, "summary editor end", slog.Bool("had_error", err != nil))
	return err
}

func newSummaryModel(ctx context.Context, opts SummaryOptions) *summaryModel {
	if ctx == nil {
		ctx = context.Background()
	}
	pal := opts.Theme
	if strings.TrimSpace(pal.Name) == "" {
		pal = theme.Current()
	}
	styles := buildThemeStyles(pal)
	// Summary values are free text owned by the server; never cut them.
	input := newInput("")
	input.CharLimit = 0
	return &summaryModel{
		ctx:     ctx,
		logger:  log.FromContext(ctx),
		backend: opts.Backend,
		styles:  styles,
		keys:    newSummaryKeys(),
		help:    help.New(),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.saving)),
		input:   input,
		after:   tea.Tick,
	}
}

func (m *summaryModel) Init() tea.Cmd {
	return m.load()
}

func (m *summaryModel) load() tea.Cmd {
	m.loading = true
	ctx, backend := m.ctx, m.backend
	return tea.Batch(func() tea.Msg {
		table, err := backend.SummaryTable(ctx)
		return summaryLoadedMsg{table: table, err: err}
	}, m.spinner.Tick)
}

func (m *summaryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
	case spinner.TickMsg:
		if !m.loading && m.saving == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case summaryLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.logger.Error("failed to load summary", slog.Any("error", msg.err))
			m.setError(fmt.Sprintf("could not load summary: %v", msg.err))
			return m, nil
		}
		m.setTable(msg.table)
		m.status = ""
	case saveResultMsg:
		m.saving = max(m.saving-1, 0)
		ann, ok := msg.cell.Resolve(msg.ack)
		if !ok {
			return m, nil
		}
		cell, seq := msg.cell, ann.Seq
		return m, m.after(editor.AnnotationTTL, func(time.Time) tea.Msg {
			return annotationExpiredMsg{cell: cell, seq: seq}
		})
	case annotationExpiredMsg:
		msg.cell.ExpireAnnotation(msg.seq)
	case tea.KeyMsg:
		return m, m.updateKeys(msg)
	}
	return m, nil
}

func (m *summaryModel) setTable(t *markup.SummaryTable) {
	m.table = t
	m.cells = make([][]*editor.Cell, len(t.Rows))
	for i, row := range t.Rows {
		m.cells[i] = make([]*editor.Cell, len(row))
		for j, c := range row {
			if c.Editable {
				m.cells[i][j] = editor.NewCell(c.Field, c.RecordID, editor.ParseValueType(c.Type), c.Options, c.Text)
			}
		}
	}
	m.row = min(m.row, max(len(m.cells)-1, 0))
	m.col = min(m.col, max(m.width()-1, 0))
}

func (m *summaryModel) width() int {
	if m.table == nil {
		return 0
	}
	w := len(m.table.Columns)
	for _, r := range m.cells {
		w = max(w, len(r))
	}
	return w
}

// current is the editable cell under the cursor, nil otherwise.
func (m *summaryModel) current() *editor.Cell {
	if m.row < 0 || m.row >= len(m.cells) || m.col < 0 || m.col >= len(m.cells[m.row]) {
		return nil
	}
	return m.cells[m.row][m.col]
}

func (m *summaryModel) editing() *editor.Cell {
	if c := m.current(); c != nil && c.State() == editor.Editing {
		return c
	}
	return nil
}

func (m *summaryModel) updateKeys(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Quit) {
		return tea.Quit
	}
	if cell := m.editing(); cell != nil {
		return m.updateEditing(cell, msg)
	}
	switch {
	case key.Matches(msg, m.keys.Cancel):
		return tea.Quit
	case key.Matches(msg, m.keys.Reload):
		return m.load()
	case key.Matches(msg, m.keys.Edit):
		m.activate()
	case key.Matches(msg, m.keys.Up):
		m.move(-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.move(1, 0)
	case key.Matches(msg, m.keys.Left):
		m.move(0, -1)
	case key.Matches(msg, m.keys.Right):
		m.move(0, 1)
	case key.Matches(msg, m.keys.Next):
		m.next(msg.String() == "shift+tab")
	}
	return nil
}

func (m *summaryModel) updateEditing(cell *editor.Cell, msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		cell.Cancel()
		m.input.Blur()
		return nil
	case key.Matches(msg, m.keys.Edit):
		return m.commit(cell)
	case key.Matches(msg, m.keys.Next):
		cmd := m.commit(cell)
		m.next(msg.String() == "shift+tab")
		return cmd
	}

	switch cell.Type {
	case editor.TypeEnum:
		switch {
		case key.Matches(msg, m.keys.Left):
			m.step(cell, -1)
		case key.Matches(msg, m.keys.Right), msg.String() == " ":
			m.step(cell, 1)
		case key.Matches(msg, m.keys.Up):
			cmd := m.commit(cell)
			m.move(-1, 0)
			return cmd
		case key.Matches(msg, m.keys.Down):
			cmd := m.commit(cell)
			m.move(1, 0)
			return cmd
		}
		return nil
	case editor.TypeDate, editor.TypeInteger:
		switch {
		case key.Matches(msg, m.keys.Up):
			m.step(cell, 1)
			return nil
		case key.Matches(msg, m.keys.Down):
			m.step(cell, -1)
			return nil
		}
	default:
		switch {
		case key.Matches(msg, m.keys.Up):
			cmd := m.commit(cell)
			m.move(-1, 0)
			return cmd
		case key.Matches(msg, m.keys.Down):
			cmd := m.commit(cell)
			m.move(1, 0)
			return cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if err := cell.SetInput(m.input.Value()); err != nil {
		m.setError(err.Error())
	}
	return cmd
}

func (m *summaryModel) step(cell *editor.Cell, delta int) {
	if err := cell.Step(delta); err != nil {
		m.setError(fmt.Sprintf("%s: %v", columnTitle(cell.Field), err))
		return
	}
	m.input.SetValue(cell.Text())
	m.input.CursorEnd()
}

func (m *summaryModel) activate() {
	cell := m.current()
	if cell == nil || !cell.Activate() {
		return
	}
	m.status = ""
	m.input.SetValue(cell.Text())
	m.input.CursorEnd()
	if cell.Type != editor.TypeEnum {
		m.input.Focus()
	}
}

// commit ends the edit of cell and sends the change, if any.
func (m *summaryModel) commit(cell *editor.Cell) tea.Cmd {
	m.input.Blur()
	req, ok, err := cell.Commit()
	if errors.Is(err, editor.ErrInvalidInput) {
		m.setError(fmt.Sprintf("%s: invalid %s value", columnTitle(cell.Field), cell.Type))
		return nil
	}
	if !ok {
		return nil
	}
	m.saving++
	ctx, backend, logger := m.ctx, m.backend, m.logger
	save := func() tea.Msg {
		result, err := backend.EditSummaryField(ctx, tracker.EditRequest{
			RecordID: req.RecordID,
			Field:    req.Field,
			Value:    req.Value,
		})
		if err != nil {
			logger.Error("failed to save field",
				slog.String("record_id", req.RecordID),
				slog.String("field", req.Field),
				slog.Any("error", err))
			return saveResultMsg{cell: cell, ack: editor.Ack{Message: err.Error()}}
		}
		return saveResultMsg{cell: cell, ack: editor.Ack{Success: result.Success, Message: result.ErrorMessage}}
	}
	return tea.Batch(save, m.spinner.Tick)
}

func (m *summaryModel) move(dr, dc int) {
	if len(m.cells) == 0 {
		return
	}
	m.row = min(max(m.row+dr, 0), len(m.cells)-1)
	m.col = min(max(m.col+dc, 0), max(m.width()-1, 0))
}

// next moves to the following editable cell in reading order.
func (m *summaryModel) next(backward bool) {
	w := m.width()
	total := len(m.cells) * w
	if total == 0 {
		return
	}
	step := 1
	if backward {
		step = total - 1
	}
	pos := m.row*w + m.col
	for range total {
		pos = (pos + step) % total
		r, c := pos/w, pos%w
		if c < len(m.cells[r]) && m.cells[r][c] != nil {
			m.row, m.col = r, c
			return
		}
	}
}

func (m *summaryModel) setError(s string) {
	m.status, m.statusErr = s, true
}

func (m *summaryModel) View() string {
	var b strings.Builder
	b.WriteString(m.styles.title.Render("Submissions"))
	if m.loading {
		b.WriteString(" " + m.spinner.View())
	}
	b.WriteString("\n\n")

	if m.table != nil {
		b.WriteString(m.viewTable())
	}
	if m.status != "" {
		style := m.styles.status
		if m.statusErr {
			style = m.styles.statusErr
		}
		b.WriteString(style.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	return b.String()
}

func (m *summaryModel) cellText(r, c int) string {
	if cell := m.cells[r][c]; cell != nil {
		return cell.Text()
	}
	return m.table.Rows[r][c].Text
}

func (m *summaryModel) viewTable() string {
	w := m.width()
	titles := make([]string, w)
	copy(titles, m.table.Columns)
	texts := make([][]string, len(m.cells))
	for i := range m.cells {
		texts[i] = make([]string, len(m.cells[i]))
		for j := range m.cells[i] {
			texts[i][j] = m.cellText(i, j)
		}
	}
	widths := columnWidths(titles, texts)
	offsets := columnOffsets(widths, 0)

	var b strings.Builder
	head := make([]string, w)
	for i, t := range titles {
		head[i] = fit(t, widths[i])
	}
	b.WriteString(m.styles.header.Render(strings.Join(head, columnGap)))
	b.WriteString("\n")

	for i, row := range texts {
		out := make([]string, len(row))
		var notes []string
		for j, text := range row {
			cell := m.cells[i][j]
			rendered := fit(text, widths[j])
			selected := i == m.row && j == m.col
			switch {
			case cell != nil && cell.State() == editor.Editing && selected:
				if cell.Type == editor.TypeEnum {
					rendered = m.styles.focused.Render(fit("‹"+text+"›", widths[j]))
				} else {
					rendered = fit(m.input.View(), widths[j])
				}
			case cell != nil && cell.State() == editor.Saving:
				rendered = m.styles.saving.Render(rendered)
			case selected:
				rendered = m.styles.cursorRow.Render(rendered)
			case cell == nil:
				rendered = m.styles.muted.Render(rendered)
			}
			out[j] = rendered
			if cell != nil {
				if ann, ok := cell.Annotation(); ok {
					notes = append(notes, strings.Repeat(" ", offsets[j])+m.styles.annotation.Render(ann.Message))
				}
			}
		}
		b.WriteString(strings.Join(out, columnGap))
		b.WriteString("\n")
		for _, n := range notes {
			b.WriteString(n)
			b.WriteString("\n")
		}
	}
	if len(texts) == 0 {
		b.WriteString(m.styles.muted.Render("no submissions yet"))
		b.WriteString("\n")
	}
	return b.String()
}
