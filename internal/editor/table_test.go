package editor

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/cardtrack/cardtrack/internal/draft"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testColumns = []string{"name", "purchase_price"}

type memStore struct {
	state  draft.State
	ok     bool
	saves  int
	err    error
	loadEr error
}

func (m *memStore) Save(s draft.State) error {
	if m.err != nil {
		return m.err
	}
	m.saves++
	m.state = s.Clone()
	m.ok = true
	return nil
}

func (m *memStore) Load() (draft.State, bool, error) {
	return m.state.Clone(), m.ok, m.loadEr
}

func newTestTable(store DraftStore) *Table {
	return NewTable(Options{
		Columns:      testColumns,
		HeaderFields: []string{"submission_number", "submission_company", "submission_date"},
		Store:        store,
	})
}

func TestNewTableStartsWithOneBlankRow(t *testing.T) {
	table := newTestTable(nil)
	require.Equal(t, 1, table.Len())
	row := table.Rows()[0]
	assert.True(t, row.Attached())
	assert.Equal(t, "", row.Identifier())
	assert.Equal(t, map[string]string{"name": "", "purchase_price": ""}, row.Attributes())
}

func TestCommitIdentifierIssuesLookup(t *testing.T) {
	store := &memStore{}
	table := newTestTable(store)
	row := table.Rows()[0]

	require.NoError(t, table.EditIdentifier(row, "17"))
	assert.Equal(t, 1, store.saves)

	req, ok := table.CommitIdentifier(row)
	require.True(t, ok)
	assert.Equal(t, "17", req.Identifier)
	assert.Equal(t, row.Token(), req.Token)

	_, again := table.CommitIdentifier(row)
	assert.False(t, again, "unchanged identifier must not refetch")

	require.True(t, table.ApplyLookup(req, map[string]string{"name": "Pikachu", "purchase_price": "¥500", "extra": "x"}))
	assert.Equal(t, map[string]string{"name": "Pikachu", "purchase_price": "¥500"}, row.Attributes())
}

func TestCommitEmptyIdentifierBlanksWithoutLookup(t *testing.T) {
	table := newTestTable(nil)
	row := table.Rows()[0]

	require.NoError(t, table.EditIdentifier(row, "17"))
	req, ok := table.CommitIdentifier(row)
	require.True(t, ok)
	require.True(t, table.ApplyLookup(req, map[string]string{"name": "Pikachu"}))

	require.NoError(t, table.EditIdentifier(row, ""))
	_, ok = table.CommitIdentifier(row)
	assert.False(t, ok)
	assert.Equal(t, "", row.Attribute("name"))
}

func TestFailedLookupBlanksRow(t *testing.T) {
	table := newTestTable(nil)
	row := table.Rows()[0]
	require.NoError(t, table.EditIdentifier(row, "1"))
	req, _ := table.CommitIdentifier(row)
	require.True(t, table.ApplyLookup(req, map[string]string{"name": "A"}))

	require.NoError(t, table.EditIdentifier(row, "2"))
	req, _ = table.CommitIdentifier(row)
	require.True(t, table.ApplyLookup(req, nil))
	assert.Equal(t, map[string]string{"name": "", "purchase_price": ""}, row.Attributes())
}

func TestStaleLookupIsDropped(t *testing.T) {
	table := newTestTable(nil)
	row := table.Rows()[0]

	require.NoError(t, table.EditIdentifier(row, "1"))
	first, _ := table.CommitIdentifier(row)
	require.NoError(t, table.EditIdentifier(row, "2"))
	second, _ := table.CommitIdentifier(row)

	require.True(t, table.ApplyLookup(second, map[string]string{"name": "Second"}))
	assert.False(t, table.ApplyLookup(first, map[string]string{"name": "First"}))
	assert.Equal(t, "Second", row.Attribute("name"))
}

func TestLookupForDeletedRowIsNoop(t *testing.T) {
	table := newTestTable(nil)
	row := table.Rows()[0]
	require.NoError(t, table.EditIdentifier(row, "1"))
	req, _ := table.CommitIdentifier(row)

	require.NoError(t, table.Delete(row))
	assert.False(t, row.Attached())
	assert.False(t, table.ApplyLookup(req, map[string]string{"name": "Ghost"}))
	assert.Equal(t, "", row.Attribute("name"))
	assert.Equal(t, 0, table.Len())
}

func TestInsertBeforeAndDelete(t *testing.T) {
	store := &memStore{}
	table := newTestTable(store)
	first := table.Rows()[0]
	require.NoError(t, table.EditIdentifier(first, "A"))

	second, err := table.AddRow()
	require.NoError(t, err)
	require.NoError(t, table.EditIdentifier(second, "B"))

	inserted, err := table.InsertBefore(second)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Index(inserted))
	assert.Equal(t, []string{"A", "", "B"}, store.state.RowIdentifiers)

	require.NoError(t, table.Delete(first))
	assert.Equal(t, []string{"", "B"}, store.state.RowIdentifiers)

	_, err = table.InsertBefore(first)
	require.Error(t, err)
}

func TestDeleteClearsActivePointer(t *testing.T) {
	table := newTestTable(nil)
	row := table.Rows()[0]
	other, _ := table.AddRow()

	require.True(t, table.OpenFor(row))
	require.NoError(t, table.Delete(other))
	assert.Same(t, row, table.Active())

	require.NoError(t, table.Delete(row))
	assert.Nil(t, table.Active())
}

func TestSelectFillsActiveRow(t *testing.T) {
	store := &memStore{}
	table := newTestTable(store)
	_, _ = table.AddRow()
	target := table.Rows()[1]

	require.True(t, table.OpenFor(target))
	req, ok, err := table.Select(" 42 ")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, target, req.Row)
	assert.Equal(t, "42", target.Identifier())
	assert.Nil(t, table.Active())
	assert.Equal(t, []string{"", "42"}, store.state.RowIdentifiers)
}

func TestSelectSameIdentifierRefetches(t *testing.T) {
	table := newTestTable(nil)
	row := table.Rows()[0]
	require.NoError(t, table.EditIdentifier(row, "42"))
	first, ok := table.CommitIdentifier(row)
	require.True(t, ok)
	require.True(t, table.ApplyLookup(first, map[string]string{"name": "Pikachu"}))

	require.True(t, table.OpenFor(row))
	req, ok, err := table.Select("42")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "42", req.Identifier)
	assert.Greater(t, req.Token, first.Token)
	assert.False(t, table.ApplyLookup(first, map[string]string{"name": "stale"}))
}

func TestSelectWithoutActiveRow(t *testing.T) {
	table := newTestTable(nil)
	_, ok, err := table.Select("42")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "", table.Rows()[0].Identifier())
}

func TestCloseDialogLeavesRowsAlone(t *testing.T) {
	table := newTestTable(nil)
	row := table.Rows()[0]
	require.True(t, table.OpenFor(row))
	table.CloseDialog()
	assert.Nil(t, table.Active())
	assert.True(t, row.Attached())
}

func TestRestoreDraft(t *testing.T) {
	store := &memStore{
		ok: true,
		state: draft.State{
			Header:         map[string]string{"submission_number": "1001", "submission_company": "PSA"},
			RowIdentifiers: []string{"17", "", "18"},
		},
	}
	table := newTestTable(store)
	stale := table.Rows()[0]

	lookups, restored, err := table.RestoreDraft()
	require.NoError(t, err)
	require.True(t, restored)
	assert.False(t, stale.Attached())

	require.Equal(t, 3, table.Len())
	assert.Equal(t, "1001", table.Header("submission_number"))
	assert.Equal(t, "PSA", table.Header("submission_company"))

	require.Len(t, lookups, 2)
	assert.Equal(t, "17", lookups[0].Identifier)
	assert.Equal(t, "18", lookups[1].Identifier)
	assert.Same(t, table.Rows()[2], lookups[1].Row)

	for _, row := range table.Rows() {
		assert.False(t, row.Dirty())
	}
}

func TestRestoreEmptyDraftLeavesOneBlankRow(t *testing.T) {
	store := &memStore{ok: true, state: draft.State{Header: map[string]string{}}}
	table := newTestTable(store)

	lookups, restored, err := table.RestoreDraft()
	require.NoError(t, err)
	assert.True(t, restored)
	assert.Empty(t, lookups)
	assert.Equal(t, 1, table.Len())
}

func TestRestoreWithoutDraft(t *testing.T) {
	table := newTestTable(&memStore{})
	_, restored, err := table.RestoreDraft()
	require.NoError(t, err)
	assert.False(t, restored)
	assert.Equal(t, 1, table.Len())
}

func TestRestoreLoadError(t *testing.T) {
	table := newTestTable(&memStore{loadEr: errors.New("disk gone")})
	_, restored, err := table.RestoreDraft()
	require.Error(t, err)
	assert.False(t, restored)
}

func TestSaveFailureIsReported(t *testing.T) {
	table := newTestTable(&memStore{err: errors.New("read-only")})
	err := table.EditIdentifier(table.Rows()[0], "1")
	require.Error(t, err)
	assert.Equal(t, "1", table.Rows()[0].Identifier())
}

// Any sequence of structural edits followed by a save restores to the
// same header and identifier order, through the real file store.
func TestDraftRoundTripThroughFileStore(t *testing.T) {
	store := draft.NewStore(filepath.Join(t.TempDir(), "submission.json"), nil)
	table := newTestTable(store)

	first := table.Rows()[0]
	require.NoError(t, table.SetHeader("submission_number", "7"))
	require.NoError(t, table.SetHeader("submission_date", "2024-05-01"))
	require.NoError(t, table.EditIdentifier(first, "A"))
	b, _ := table.AddRow()
	require.NoError(t, table.EditIdentifier(b, "B"))
	c, _ := table.AddRow()
	require.NoError(t, table.EditIdentifier(c, "C"))
	_, _ = table.InsertBefore(b)
	require.NoError(t, table.Delete(c))
	d, _ := table.InsertBefore(first)
	require.NoError(t, table.EditIdentifier(d, "D"))

	want := table.Snapshot()

	restored := newTestTable(store)
	_, ok, err := restored.RestoreDraft()
	require.NoError(t, err)
	require.True(t, ok)
	if diff := cmp.Diff(want, restored.Snapshot()); diff != "" {
		t.Fatalf("restored snapshot mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"D", "A", "", "B"}, restored.Snapshot().RowIdentifiers)
}

func TestResetKeepsDraft(t *testing.T) {
	store := &memStore{}
	table := newTestTable(store)
	require.NoError(t, table.SetHeader("submission_number", "1"))
	require.NoError(t, table.EditIdentifier(table.Rows()[0], "A"))
	saves := store.saves

	table.Reset()
	assert.Equal(t, saves, store.saves)
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, "", table.Header("submission_number"))
	assert.Equal(t, "", table.Rows()[0].Identifier())
}

func TestIdentifiersSkipsBlanks(t *testing.T) {
	table := newTestTable(nil)
	require.NoError(t, table.EditIdentifier(table.Rows()[0], " 1 "))
	_, _ = table.AddRow()
	r, _ := table.AddRow()
	require.NoError(t, table.EditIdentifier(r, "3"))
	assert.Equal(t, []string{"1", "3"}, table.Identifiers())
}
