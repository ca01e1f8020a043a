// Package lookup holds the state of the item browser dialog used to fill a
// submission row.
package lookup

import (
	"net/url"
	"sort"
	"strings"

	"github.com/cardtrack/cardtrack/internal/markup"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// SelectionModeParam asks the backend to render entries as selectable.
const SelectionModeParam = "selection_mode"

// paginationKeys never count as active filters.
var paginationKeys = []string{"page", "skip", "limit", "show_limit", SelectionModeParam}

// Request identifies one page fetch. Only the response to the latest
// request is applied.
type Request struct {
	Seq   uint64
	Query url.Values
}

// Dialog is the browser's state. It owns no network access: every
// navigation returns a Request that the caller fetches and hands back to
// Replace.
type Dialog struct {
	open           bool
	searchExpanded bool
	query          url.Values
	page           *markup.LookupPage
	seq            uint64
	loading        bool
	filter         string
}

// Open shows the dialog for a new selection starting at initial.
func (d *Dialog) Open(initial url.Values) Request {
	q := cloneValues(initial)
	q.Set(SelectionModeParam, "1")
	d.open = true
	d.page = nil
	d.filter = ""
	d.searchExpanded = ShouldExpandSearch(q)
	return d.navigate(q)
}

// Close hides the dialog and drops its content.
func (d *Dialog) Close() {
	d.open = false
	d.loading = false
	d.page = nil
	d.filter = ""
	d.seq++
}

func (d *Dialog) IsOpen() bool { return d.open }

// Loading reports whether a request is outstanding.
func (d *Dialog) Loading() bool { return d.loading }

// SearchExpanded reports whether the search form is shown.
func (d *Dialog) SearchExpanded() bool { return d.searchExpanded }

// ToggleSearch shows or hides the search form.
func (d *Dialog) ToggleSearch() { d.searchExpanded = !d.searchExpanded }

// Query is the query of the latest request.
func (d *Dialog) Query() url.Values { return cloneValues(d.query) }

// Page is the content last applied, nil before the first response.
func (d *Dialog) Page() *markup.LookupPage { return d.page }

// Follow navigates to a link of the current page.
func (d *Dialog) Follow(link markup.Link) Request {
	q := cloneValues(link.Query)
	q.Set(SelectionModeParam, "1")
	return d.navigate(q)
}

// Submit runs the search form with values. Empty values are dropped and
// pagination restarts.
func (d *Dialog) Submit(values url.Values) Request {
	q := url.Values{}
	for k, vs := range values {
		for _, v := range vs {
			if strings.TrimSpace(v) != "" {
				q.Add(k, v)
			}
		}
	}
	for _, k := range paginationKeys {
		q.Del(k)
	}
	q.Set(SelectionModeParam, "1")
	return d.navigate(q)
}

// Replace swaps in the page fetched for req. Responses for superseded
// requests or a closed dialog are ignored.
func (d *Dialog) Replace(req Request, page *markup.LookupPage) bool {
	if !d.open || req.Seq != d.seq {
		return false
	}
	d.loading = false
	d.page = page
	d.filter = ""
	return true
}

// Fail ends the loading state of req without replacing content.
func (d *Dialog) Fail(req Request) bool {
	if !d.open || req.Seq != d.seq {
		return false
	}
	d.loading = false
	return true
}

// SetFilter narrows the visible entries of the current page.
func (d *Dialog) SetFilter(f string) { d.filter = f }

func (d *Dialog) Filter() string { return d.filter }

// Entries returns the current page's entries matching the quick filter,
// best matches first.
func (d *Dialog) Entries() []markup.LookupEntry {
	if d.page == nil {
		return nil
	}
	f := strings.TrimSpace(d.filter)
	if f == "" {
		return d.page.Entries
	}
	texts := make([]string, len(d.page.Entries))
	for i, e := range d.page.Entries {
		texts[i] = e.ID + " " + e.Text
	}
	ranks := fuzzy.RankFindNormalizedFold(f, texts)
	sort.Stable(ranks)
	out := make([]markup.LookupEntry, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, d.page.Entries[r.OriginalIndex])
	}
	return out
}

func (d *Dialog) navigate(q url.Values) Request {
	d.seq++
	d.query = q
	d.loading = true
	return Request{Seq: d.seq, Query: cloneValues(q)}
}

// ShouldExpandSearch reports whether q carries any non-empty filter once
// pagination and selection keys are ignored.
func ShouldExpandSearch(q url.Values) bool {
	for _, vs := range StripPagination(q) {
		for _, v := range vs {
			if strings.TrimSpace(v) != "" {
				return true
			}
		}
	}
	return false
}

// StripPagination returns a copy of q without pagination keys.
func StripPagination(q url.Values) url.Values {
	out := cloneValues(q)
	for _, k := range paginationKeys {
		out.Del(k)
	}
	return out
}

func cloneValues(q url.Values) url.Values {
	out := make(url.Values, len(q))
	for k, vs := range q {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
