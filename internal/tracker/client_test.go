package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"syscall"
	"testing"

	"github.com/cardtrack/cardtrack/internal/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (fn roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return fn(req)
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(srv.URL, httpclient.NewLoggingHTTPClient(nil))
	require.NoError(t, err)
	return client
}

func TestNewClientRejectsBadBaseURL(t *testing.T) {
	_, err := NewClient("ftp://example.com", nil)
	require.Error(t, err)
	_, err = NewClient("127.0.0.1:8000", nil)
	require.Error(t, err)
}

func TestItemInfo(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/item_info_for_submission_form/17", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":17,"name":"Pikachu","purchase_price":500}`)
	}))

	item, err := client.ItemInfo(context.Background(), "17")
	require.NoError(t, err)
	assert.Equal(t, "Pikachu", item.Name)
	assert.Equal(t, "¥500", item.Attributes()[FieldPurchasePrice])
}

func TestItemInfoNoData(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"not found", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "missing", http.StatusNotFound)
		}},
		{"undecodable", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `<html>`)
		}},
		{"missing name", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{"id":17,"status":"STORAGE"}`)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)
			_, err := client.ItemInfo(context.Background(), "17")
			require.ErrorIs(t, err, ErrNoData)
		})
	}
}

func TestItemInfoClearsInvalidAttributes(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":17,"name":"Pikachu","status":"UNKNOWN","usd_to_jpy_rate":0,"purchase_price":500}`)
	}))

	item, err := client.ItemInfo(context.Background(), "17")
	require.NoError(t, err)
	attrs := item.Attributes()
	assert.Equal(t, "Pikachu", attrs[FieldName])
	assert.Equal(t, "", attrs[FieldStatus])
	assert.Equal(t, "", attrs[FieldUSDToJPYRate])
	assert.Equal(t, "¥500", attrs[FieldPurchasePrice])
}

func TestItemInfoTransportFailureIsTransient(t *testing.T) {
	doer := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, syscall.ECONNREFUSED
	})}
	client, err := NewClient("http://tracker.test", doer)
	require.NoError(t, err)

	_, err = client.ItemInfo(context.Background(), "17")
	require.ErrorIs(t, err, ErrNoData)
	assert.True(t, IsTransientError(err))
}

func TestItemInfoEscapesIdentifier(t *testing.T) {
	var seen string
	doer := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		seen = req.URL.EscapedPath()
		return &http.Response{StatusCode: http.StatusNotFound, Body: io.NopCloser(strings.NewReader(""))}, nil
	})}
	client, err := NewClient("http://tracker.test/app/", doer)
	require.NoError(t, err)

	_, _ = client.ItemInfo(context.Background(), "a/b c")
	assert.Equal(t, "/app/item_info_for_submission_form/a%2Fb%20c", seen)
}

func TestEditSummaryField(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/submissions_summary_edit", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"recordId": "3", "field": "submission_number", "value": "12"}, body)

		if body["value"] == "12" {
			_, _ = io.WriteString(w, `{"success":false,"error_message":"duplicate number"}`)
			return
		}
		_, _ = io.WriteString(w, `{"success":true}`)
	}))

	result, err := client.EditSummaryField(context.Background(), EditRequest{RecordID: "3", Field: "submission_number", Value: "12"})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "duplicate number", result.ErrorMessage)
}

func TestEditSummaryFieldServerError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	_, err := client.EditSummaryField(context.Background(), EditRequest{RecordID: "1", Field: "f", Value: "v"})
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.Status)
}

func TestLookupItemsPassesQuery(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/items_lookup", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("selection_mode"))
		assert.Equal(t, "pika", r.URL.Query().Get("name"))
		_, _ = io.WriteString(w, `<table><tr data-item-id="4"><td>Pikachu</td></tr></table>`)
	}))

	page, err := client.LookupItems(context.Background(), url.Values{"selection_mode": {"1"}, "name": {"pika"}})
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, "4", page.Entries[0].ID)
}

func TestSummaryTable(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `<table><thead><tr><th>Number</th></tr></thead>
			<tbody><tr><td data-field="submission_number" data-id="9" data-type="integer">5</td></tr></tbody></table>`)
	}))

	table, err := client.SummaryTable(context.Background())
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.True(t, table.Rows[0][0].Editable)
}

func TestSubmitBatchAccepted(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "1001", r.PostForm.Get("submission_number"))
		assert.Equal(t, "PSA", r.PostForm.Get("submission_company"))
		assert.Equal(t, "2024-05-01", r.PostForm.Get("submission_date"))
		assert.Equal(t, []string{"17", "18"}, r.PostForm["item_ids"])
		http.Redirect(w, r, "/grading_records_view?submitted=1", http.StatusSeeOther)
	}))

	result, err := client.SubmitBatch(context.Background(),
		Submission{Number: "1001", Company: "PSA", Date: "2024-05-01"},
		[]string{"17", "", " 18 "})
	require.NoError(t, err)
	require.True(t, result.Accepted())
	assert.Equal(t, "/grading_records_view", result.Landing.Path)
	assert.Equal(t, "1", result.Landing.Query().Get("submitted"))
}

func TestSubmitBatchRejected(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `<form><div class="error-message">Item 18 already submitted</div></form>`)
	}))

	result, err := client.SubmitBatch(context.Background(), Submission{Number: "1", Company: "RAW"}, []string{"18"})
	require.NoError(t, err)
	assert.False(t, result.Accepted())
	assert.Equal(t, "Item 18 already submitted", result.ErrorMessage)
}

func TestSubmissionFromHeader(t *testing.T) {
	sub := SubmissionFromHeader(map[string]string{
		SubmissionNumberField:  " 12 ",
		SubmissionCompanyField: "CGC",
	})
	assert.Equal(t, Submission{Number: "12", Company: "CGC"}, sub)
}
