package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/ajg/form"
	"github.com/cardtrack/cardtrack/internal/httpclient"
	"github.com/cardtrack/cardtrack/internal/markup"
)

const (
	itemInfoPath    = "/item_info_for_submission_form/"
	summaryEditPath = "/submissions_summary_edit"
	summaryViewPath = "/submissions_summary_view"
	lookupPath      = "/items_lookup"
	submissionPath  = "/add_submission"

	maxErrorBody = 4096
)

// Client talks to the tracker backend.
type Client struct {
	base *url.URL
	http httpclient.Doer
}

// NewClient validates baseURL and returns a client that issues requests
// through doer.
func NewClient(baseURL string, doer httpclient.Doer) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}
	if doer == nil {
		doer = httpclient.NewLoggingHTTPClient(nil)
	}
	return &Client{base: u, http: doer}, nil
}

// BaseURL returns the backend root the client was configured with.
func (c *Client) BaseURL() *url.URL {
	u := *c.base
	return &u
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawPath = ""
	u.RawQuery = query.Encode()
	return u.String()
}

// itemEndpoint keeps a slash inside identifier from becoming a path separator.
func (c *Client) itemEndpoint(identifier string) string {
	u := *c.base
	base := strings.TrimRight(u.Path, "/")
	u.Path = base + itemInfoPath + identifier
	u.RawPath = (&url.URL{Path: base}).EscapedPath() + itemInfoPath + url.PathEscape(identifier)
	return u.String()
}

// ItemInfo fetches the attributes for identifier. Every failure mode
// (transport, status, decoding, validation) is reported as an error
// wrapping ErrNoData, transport failures additionally as TransientError.
func (c *Client) ItemInfo(ctx context.Context, identifier string) (*Item, error) {
	endpoint := c.itemEndpoint(identifier)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoData, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		logDebug(ctx, "item lookup failed", slog.String("identifier", identifier), slog.Any("error", err))
		return nil, fmt.Errorf("%w: %w", ErrNoData, wrapIfTransient(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logDebug(ctx, "item lookup returned non-200",
			slog.String("identifier", identifier), slog.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: %w", ErrNoData, &StatusError{Endpoint: itemInfoPath, Status: resp.StatusCode})
	}

	var item Item
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		logDebug(ctx, "item lookup returned undecodable body",
			slog.String("identifier", identifier), slog.Any("error", err))
		return nil, fmt.Errorf("%w: decode: %w", ErrNoData, err)
	}
	cleared, err := item.Sanitize()
	if err != nil {
		logDebug(ctx, "item lookup returned invalid payload",
			slog.String("identifier", identifier), slog.Any("error", err))
		return nil, fmt.Errorf("%w: %w", ErrNoData, err)
	}
	if len(cleared) > 0 {
		logDebug(ctx, "item lookup cleared invalid attributes",
			slog.String("identifier", identifier), slog.Any("fields", cleared))
	}
	return &item, nil
}

// EditRequest identifies one summary field update.
type EditRequest struct {
	RecordID string `json:"recordId"`
	Field    string `json:"field"`
	Value    string `json:"value"`
}

// EditResult is the backend's verdict on an EditRequest.
type EditResult struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// EditSummaryField posts a single field update. A backend that rejects the
// edit answers with Success false and a message, which is not an error.
func (c *Client) EditSummaryField(ctx context.Context, edit EditRequest) (EditResult, error) {
	body, err := json.Marshal(edit)
	if err != nil {
		return EditResult{}, fmt.Errorf("encode edit: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(summaryEditPath, nil), bytes.NewReader(body))
	if err != nil {
		return EditResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return EditResult{}, wrapIfTransient(err)
	}
	defer resp.Body.Close()

	var result EditResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		if resp.StatusCode != http.StatusOK {
			return EditResult{}, &StatusError{Endpoint: summaryEditPath, Status: resp.StatusCode}
		}
		return EditResult{}, fmt.Errorf("decode edit result: %w", err)
	}
	if !result.Success && result.ErrorMessage == "" && resp.StatusCode != http.StatusOK {
		result.ErrorMessage = (&StatusError{Endpoint: summaryEditPath, Status: resp.StatusCode}).Error()
	}
	logInfo(ctx, "summary field edited",
		slog.String("record_id", edit.RecordID),
		slog.String("field", edit.Field),
		slog.Bool("success", result.Success))
	return result, nil
}

// LookupItems fetches one page of the item browser.
func (c *Client) LookupItems(ctx context.Context, query url.Values) (*markup.LookupPage, error) {
	body, err := c.getHTML(ctx, lookupPath, query)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return markup.ParseLookup(body)
}

// SummaryTable fetches and parses the submissions summary.
func (c *Client) SummaryTable(ctx context.Context) (*markup.SummaryTable, error) {
	body, err := c.getHTML(ctx, summaryViewPath, nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return markup.ParseSummary(body)
}

func (c *Client) getHTML(ctx context.Context, path string, query url.Values) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path, query), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, wrapIfTransient(err)
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		return nil, &StatusError{Endpoint: path, Status: resp.StatusCode}
	}
	return resp.Body, nil
}

// Submission form field names.
const (
	SubmissionNumberField  = "submission_number"
	SubmissionCompanyField = "submission_company"
	SubmissionDateField    = "submission_date"
)

// SubmissionFields are the header fields of the submission form in
// display order.
var SubmissionFields = []string{SubmissionNumberField, SubmissionCompanyField, SubmissionDateField}

// GradingCompanies are the accepted submission_company values.
var GradingCompanies = []string{"RAW", "PSA", "CGC", "BGS"}

// Submission is the header of a new submission batch.
type Submission struct {
	Number  string `form:"submission_number"`
	Company string `form:"submission_company"`
	Date    string `form:"submission_date"`
}

// SubmissionFromHeader builds a Submission from form header values.
func SubmissionFromHeader(header map[string]string) Submission {
	return Submission{
		Number:  strings.TrimSpace(header[SubmissionNumberField]),
		Company: strings.TrimSpace(header[SubmissionCompanyField]),
		Date:    strings.TrimSpace(header[SubmissionDateField]),
	}
}

// SubmitResult describes how the backend answered a submission.
type SubmitResult struct {
	// Landing is the redirect target of an accepted submission.
	Landing *url.URL
	// ErrorMessage is set when the backend re-rendered the form.
	ErrorMessage string
}

// Accepted reports whether the backend redirected away from the form.
func (r SubmitResult) Accepted() bool {
	return r.Landing != nil
}

// SubmitBatch posts the submission header and the ordered item ids.
// Empty identifiers are skipped.
func (c *Client) SubmitBatch(ctx context.Context, sub Submission, itemIDs []string) (SubmitResult, error) {
	values, err := form.EncodeToValues(sub)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("encode submission: %w", err)
	}
	for _, id := range itemIDs {
		if id = strings.TrimSpace(id); id != "" {
			values.Add("item_ids", id)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(submissionPath, nil),
		strings.NewReader(values.Encode()))
	if err != nil {
		return SubmitResult{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return SubmitResult{}, wrapIfTransient(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		loc, err := resp.Location()
		if err != nil {
			return SubmitResult{}, fmt.Errorf("submission redirect without location: %w", err)
		}
		logInfo(ctx, "submission accepted", slog.String("location", loc.String()), slog.Int("items", len(values["item_ids"])))
		return SubmitResult{Landing: loc}, nil
	case resp.StatusCode == http.StatusOK:
		msg, err := markup.ParseErrorMessage(resp.Body)
		if err != nil {
			return SubmitResult{}, err
		}
		if msg == "" {
			msg = "submission was not accepted"
		}
		logWarn(ctx, "submission rejected", slog.String("error_message", msg))
		return SubmitResult{ErrorMessage: msg}, nil
	default:
		return SubmitResult{}, &StatusError{Endpoint: submissionPath, Status: resp.StatusCode}
	}
}
