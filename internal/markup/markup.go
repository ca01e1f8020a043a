// Package markup reads the server rendered HTML the tracker backend
// returns for the item browser, the submissions summary and rejected forms.
package markup

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// LookupPath is the only link target followed inside the item browser.
const LookupPath = "/items_lookup"

// LookupEntry is a selectable item in the browser.
type LookupEntry struct {
	ID   string
	Text string
}

// Link navigates to another browser page (pagination, sort, filter chips).
type Link struct {
	Label string
	Query url.Values
}

// FormField is one input of the browser's search form.
type FormField struct {
	Name    string
	Label   string
	Value   string
	Options []string
}

// LookupPage is one parsed page of the item browser.
type LookupPage struct {
	Entries []LookupEntry
	Links   []Link
	Fields  []FormField
}

// ParseLookup extracts entries, navigation links and search fields from
// an /items_lookup fragment.
func ParseLookup(r io.Reader) (*LookupPage, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse lookup page: %w", err)
	}

	page := &LookupPage{}
	doc.Find("[data-item-id]").Each(func(_ int, s *goquery.Selection) {
		id := strings.TrimSpace(s.AttrOr("data-item-id", ""))
		if id == "" {
			return
		}
		page.Entries = append(page.Entries, LookupEntry{ID: id, Text: entryText(s)})
	})

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		u, err := url.Parse(href)
		if err != nil || u.Path != LookupPath {
			return
		}
		page.Links = append(page.Links, Link{Label: collapse(s.Text()), Query: u.Query()})
	})

	doc.Find("form input[name], form select[name]").Each(func(_ int, s *goquery.Selection) {
		typ := strings.ToLower(s.AttrOr("type", "text"))
		if typ == "submit" || typ == "button" || typ == "hidden" {
			return
		}
		name := s.AttrOr("name", "")
		field := FormField{Name: name, Label: fieldLabel(doc, s, name)}
		if goquery.NodeName(s) == "select" {
			s.Find("option").Each(func(_ int, o *goquery.Selection) {
				v := o.AttrOr("value", collapse(o.Text()))
				field.Options = append(field.Options, v)
				if _, ok := o.Attr("selected"); ok {
					field.Value = v
				}
			})
		} else {
			field.Value = s.AttrOr("value", "")
		}
		page.Fields = append(page.Fields, field)
	})

	return page, nil
}

// entryText joins table cells with a space; cell boundaries carry no
// whitespace of their own.
func entryText(s *goquery.Selection) string {
	cells := s.Find("td")
	if cells.Length() == 0 {
		return collapse(s.Text())
	}
	parts := make([]string, 0, cells.Length())
	cells.Each(func(_ int, td *goquery.Selection) {
		if t := collapse(td.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, " ")
}

func fieldLabel(doc *goquery.Document, s *goquery.Selection, name string) string {
	if id, ok := s.Attr("id"); ok && id != "" {
		if label := collapse(doc.Find(`label[for="` + id + `"]`).First().Text()); label != "" {
			return label
		}
	}
	if ph := s.AttrOr("placeholder", ""); ph != "" {
		return ph
	}
	return name
}

// SummaryCell is one cell of the summary table. Editable cells carry the
// metadata needed to build an inline editor.
type SummaryCell struct {
	Text     string
	Editable bool
	Field    string
	RecordID string
	Type     string
	Options  []string
}

// SummaryTable is the parsed submissions summary.
type SummaryTable struct {
	Columns []string
	Rows    [][]SummaryCell
}

// ParseSummary reads the first table of a /submissions_summary_view page.
func ParseSummary(r io.Reader) (*SummaryTable, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse summary page: %w", err)
	}
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("parse summary page: no table found")
	}

	out := &SummaryTable{}
	table.Find("thead th").Each(func(_ int, s *goquery.Selection) {
		out.Columns = append(out.Columns, collapse(s.Text()))
	})
	table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		var row []SummaryCell
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			cell := SummaryCell{Text: collapse(td.Text())}
			field, hasField := td.Attr("data-field")
			id, hasID := td.Attr("data-id")
			if hasField && hasID {
				cell.Editable = true
				cell.Field = field
				cell.RecordID = id
				cell.Type = td.AttrOr("data-type", "")
				cell.Options = splitOptions(td.AttrOr("data-options", ""))
			}
			row = append(row, cell)
		})
		out.Rows = append(out.Rows, row)
	})
	return out, nil
}

// ParseErrorMessage returns the text of the first .error-message element,
// or "" when the page carries none.
func ParseErrorMessage(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parse form page: %w", err)
	}
	return collapse(doc.Find(".error-message").First().Text()), nil
}

func splitOptions(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	opts := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			opts = append(opts, p)
		}
	}
	return opts
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
