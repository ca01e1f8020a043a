package editor

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/cardtrack/cardtrack/internal/draft"
)

// DraftStore persists table snapshots.
type DraftStore interface {
	Save(draft.State) error
	Load() (draft.State, bool, error)
}

// Table owns the ordered rows of the submission form, its header fields
// and the row the lookup dialog was opened for.
type Table struct {
	columns      []string
	headerFields []string
	header       map[string]string
	rows         []*Row
	active       *Row
	store        DraftStore
	logger       *slog.Logger
}

// Options configures a Table.
type Options struct {
	// Columns are the attribute fields shown for each row.
	Columns []string
	// HeaderFields are the form fields above the table.
	HeaderFields []string
	Store        DraftStore
	Logger       *slog.Logger
}

// NewTable returns a table with a single blank row.
func NewTable(opts Options) *Table {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	t := &Table{
		columns:      slices.Clone(opts.Columns),
		headerFields: slices.Clone(opts.HeaderFields),
		header:       map[string]string{},
		store:        opts.Store,
		logger:       logger,
	}
	for _, f := range t.headerFields {
		t.header[f] = ""
	}
	t.attach(len(t.rows), t.NewRow())
	return t
}

// Columns returns the attribute fields in display order.
func (t *Table) Columns() []string { return slices.Clone(t.columns) }

// HeaderFields returns the header field names in display order.
func (t *Table) HeaderFields() []string { return slices.Clone(t.headerFields) }

// Header returns the value of a header field.
func (t *Table) Header(field string) string { return t.header[field] }

// Rows returns the attached rows in visual order.
func (t *Table) Rows() []*Row { return slices.Clone(t.rows) }

// Len is the number of attached rows.
func (t *Table) Len() int { return len(t.rows) }

// Index returns the position of row, or -1 when detached.
func (t *Table) Index(row *Row) int { return slices.Index(t.rows, row) }

// NewRow builds a blank row: empty identifier, every attribute "". It is
// not part of the table until added.
func (t *Table) NewRow() *Row {
	return newRow(t.columns)
}

// AddRow appends a blank row.
func (t *Table) AddRow() (*Row, error) {
	row := t.NewRow()
	t.attach(len(t.rows), row)
	return row, t.save()
}

// InsertBefore puts a blank row directly above target.
func (t *Table) InsertBefore(target *Row) (*Row, error) {
	idx := t.Index(target)
	if idx < 0 {
		return nil, fmt.Errorf("insert before: row is not part of the table")
	}
	row := t.NewRow()
	t.attach(idx, row)
	return row, t.save()
}

// Delete removes row. Lookups still in flight for it become no-ops.
func (t *Table) Delete(row *Row) error {
	idx := t.Index(row)
	if idx < 0 {
		return nil
	}
	t.rows = slices.Delete(t.rows, idx, idx+1)
	row.attached = false
	if t.active == row {
		t.active = nil
	}
	return t.save()
}

// EditIdentifier records raw identifier input. No lookup is issued until
// CommitIdentifier.
func (t *Table) EditIdentifier(row *Row, value string) error {
	if !row.Attached() {
		return nil
	}
	row.identifier = value
	return t.save()
}

// CommitIdentifier is called when the identifier is confirmed or the
// cursor leaves the row. It returns a lookup to perform when the
// identifier changed and is not empty. Clearing the identifier blanks the
// attributes and invalidates any lookup still in flight.
func (t *Table) CommitIdentifier(row *Row) (LookupRequest, bool) {
	if !row.Attached() || !row.Dirty() {
		return LookupRequest{}, false
	}
	return row.commit(t.columns)
}

// ApplyLookup fills the row named by req with attrs. A nil map stands for
// a failed lookup and blanks the row. Responses for detached rows or
// superseded tokens are dropped and reported as false.
func (t *Table) ApplyLookup(req LookupRequest, attrs map[string]string) bool {
	row := req.Row
	if row == nil || !row.Attached() || req.Token != row.token {
		t.logger.Debug("dropping stale lookup",
			slog.String("identifier", req.Identifier), slog.Uint64("token", req.Token))
		return false
	}
	row.populate(t.columns, attrs)
	return true
}

// SetHeader records a header field value.
func (t *Table) SetHeader(field, value string) error {
	t.header[field] = value
	return t.save()
}

// OpenFor points the lookup dialog at row.
func (t *Table) OpenFor(row *Row) bool {
	if !row.Attached() {
		return false
	}
	t.active = row
	return true
}

// Active is the row the dialog is open for, nil when closed.
func (t *Table) Active() *Row { return t.active }

// CloseDialog forgets the active row without touching it.
func (t *Table) CloseDialog() { t.active = nil }

// Select assigns identifier to the active row, commits it and closes the
// dialog. The row is re-fetched even when identifier is unchanged. The
// returned lookup, if any, must be performed by the caller.
func (t *Table) Select(identifier string) (LookupRequest, bool, error) {
	row := t.active
	t.active = nil
	if row == nil || !row.Attached() {
		return LookupRequest{}, false, nil
	}
	row.identifier = strings.TrimSpace(identifier)
	req, ok := row.commit(t.columns)
	return req, ok, t.save()
}

// Snapshot captures the header and the ordered identifiers.
func (t *Table) Snapshot() draft.State {
	ids := make([]string, len(t.rows))
	for i, r := range t.rows {
		ids[i] = r.identifier
	}
	return draft.State{Header: maps.Clone(t.header), RowIdentifiers: ids}
}

// Identifiers returns the non-empty identifiers in row order.
func (t *Table) Identifiers() []string {
	var ids []string
	for _, r := range t.rows {
		if id := strings.TrimSpace(r.identifier); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// RestoreDraft replaces the table with the saved draft, if any. Every
// restored non-empty identifier yields a lookup. The bool reports whether
// a draft was found.
func (t *Table) RestoreDraft() ([]LookupRequest, bool, error) {
	if t.store == nil {
		return nil, false, nil
	}
	state, ok, err := t.store.Load()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	for k, v := range state.Header {
		t.header[k] = v
	}
	t.dropRows()

	var lookups []LookupRequest
	for _, id := range state.RowIdentifiers {
		row := t.NewRow()
		t.attach(len(t.rows), row)
		row.identifier = id
		if req, ok := row.commit(t.columns); ok {
			lookups = append(lookups, req)
		}
	}
	if len(t.rows) == 0 {
		t.attach(0, t.NewRow())
	}
	t.logger.Info("draft restored", slog.Int("rows", len(t.rows)), slog.Int("lookups", len(lookups)))
	return lookups, true, nil
}

// Reset empties the header and leaves a single blank row. The draft
// store is not touched.
func (t *Table) Reset() {
	for k := range t.header {
		t.header[k] = ""
	}
	t.dropRows()
	t.attach(0, t.NewRow())
}

func (t *Table) dropRows() {
	for _, r := range t.rows {
		r.attached = false
	}
	t.rows = nil
	t.active = nil
}

func (t *Table) attach(idx int, row *Row) {
	row.attached = true
	t.rows = slices.Insert(t.rows, idx, row)
}

func (t *Table) save() error {
	if t.store == nil {
		return nil
	}
	if err := t.store.Save(t.Snapshot()); err != nil {
		t.logger.Error("failed to save draft", slog.Any("error", err))
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}
