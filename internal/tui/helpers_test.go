package tui

import (
	"context"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/cardtrack/cardtrack/internal/draft"
	"github.com/cardtrack/cardtrack/internal/editor"
	"github.com/cardtrack/cardtrack/internal/markup"
	"github.com/cardtrack/cardtrack/internal/theme"
	"github.com/cardtrack/cardtrack/internal/tracker"
	"github.com/cardtrack/cardtrack/internal/util"
)

var testColumns = []string{tracker.FieldName, tracker.FieldPurchasePrice}

type fakeBackend struct {
	items    map[string]*tracker.Item
	lookups  []url.Values
	pages    []*markup.LookupPage
	infoIDs  []string
	submits  [][]string
	sub      tracker.Submission
	result   tracker.SubmitResult
	err      error
	summary  *markup.SummaryTable
	edits    []tracker.EditRequest
	editResp tracker.EditResult
	editErr  error
}

func (f *fakeBackend) ItemInfo(_ context.Context, id string) (*tracker.Item, error) {
	f.infoIDs = append(f.infoIDs, id)
	item, ok := f.items[id]
	if !ok {
		return nil, tracker.ErrNoData
	}
	return item, nil
}

func (f *fakeBackend) LookupItems(_ context.Context, q url.Values) (*markup.LookupPage, error) {
	f.lookups = append(f.lookups, q)
	if len(f.pages) == 0 {
		return &markup.LookupPage{}, nil
	}
	page := f.pages[0]
	if len(f.pages) > 1 {
		f.pages = f.pages[1:]
	}
	return page, nil
}

func (f *fakeBackend) SubmitBatch(_ context.Context, sub tracker.Submission, ids []string) (tracker.SubmitResult, error) {
	f.sub = sub
	f.submits = append(f.submits, ids)
	return f.result, f.err
}

func (f *fakeBackend) SummaryTable(context.Context) (*markup.SummaryTable, error) {
	return f.summary, f.err
}

func (f *fakeBackend) EditSummaryField(_ context.Context, edit tracker.EditRequest) (tracker.EditResult, error) {
	f.edits = append(f.edits, edit)
	return f.editResp, f.editErr
}

func item(id int64, name string, price int64) *tracker.Item {
	return &tracker.Item{ID: util.Ptr(id), Name: name, PurchasePrice: util.Ptr(price)}
}

func newTestStore(t *testing.T) *draft.Store {
	t.Helper()
	return draft.NewStore(filepath.Join(t.TempDir(), "draft.json"), nil)
}

func newTestSubmission(t *testing.T, backend *fakeBackend, store *draft.Store) *submissionModel {
	t.Helper()
	table := editor.NewTable(editor.Options{
		Columns:      testColumns,
		HeaderFields: tracker.SubmissionFields,
		Store:        store,
	})
	m, err := newSubmissionModel(context.Background(), SubmissionOptions{
		Table:   table,
		Backend: backend,
		Drafts:  store,
		Theme:   theme.Current(),
	})
	require.NoError(t, err)
	return m
}

// drain runs cmd and feeds every resulting message back into m. Spinner
// ticks and quit requests are dropped; it reports whether quit was asked.
func drain(m tea.Model, cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	quit := false
	switch msg := cmd().(type) {
	case nil, spinner.TickMsg:
	case tea.QuitMsg:
		quit = true
	case tea.BatchMsg:
		for _, c := range msg {
			quit = drain(m, c) || quit
		}
	default:
		_, next := m.Update(msg)
		quit = drain(m, next) || quit
	}
	return quit
}

func press(m tea.Model, msgs ...tea.KeyMsg) bool {
	quit := false
	for _, msg := range msgs {
		_, cmd := m.Update(msg)
		quit = drain(m, cmd) || quit
	}
	return quit
}

func typed(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func keyOf(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}
