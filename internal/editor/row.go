package editor

import (
	"maps"

	"github.com/google/uuid"
)

// Row is one line of the submission table: an item identifier plus the
// attributes last fetched for it. Rows are created by Table.NewRow and
// only mutated through the owning Table.
type Row struct {
	key        string
	identifier string
	committed  string
	token      uint64
	attached   bool
	attrs      map[string]string
}

// LookupRequest asks the caller to fetch the attributes of Identifier and
// hand them back through Table.ApplyLookup.
type LookupRequest struct {
	Row        *Row
	Token      uint64
	Identifier string
}

func newRow(columns []string) *Row {
	r := &Row{key: uuid.NewString()}
	r.blank(columns)
	return r
}

// Key is stable for the life of the row.
func (r *Row) Key() string { return r.key }

// Identifier is the current, possibly uncommitted, identifier text.
func (r *Row) Identifier() string { return r.identifier }

// Attached reports whether the row is still part of its table.
func (r *Row) Attached() bool { return r.attached }

// Token is the sequence number of the row's latest lookup.
func (r *Row) Token() uint64 { return r.token }

// Attribute returns the display text of field, "" when unknown.
func (r *Row) Attribute(field string) string { return r.attrs[field] }

// Attributes returns a copy of every attribute cell.
func (r *Row) Attributes() map[string]string { return maps.Clone(r.attrs) }

// Dirty reports whether the identifier changed since the last commit.
func (r *Row) Dirty() bool { return r.identifier != r.committed }

func (r *Row) blank(columns []string) {
	r.attrs = make(map[string]string, len(columns))
	for _, c := range columns {
		r.attrs[c] = ""
	}
}

func (r *Row) populate(columns []string, attrs map[string]string) {
	r.blank(columns)
	for _, c := range columns {
		r.attrs[c] = attrs[c]
	}
}

// commit marks the identifier as committed and bumps the token. It
// returns false when nothing needs fetching.
func (r *Row) commit(columns []string) (LookupRequest, bool) {
	r.committed = r.identifier
	r.token++
	if r.identifier == "" {
		r.blank(columns)
		return LookupRequest{}, false
	}
	return LookupRequest{Row: r, Token: r.token, Identifier: r.identifier}, true
}
