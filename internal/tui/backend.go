package tui

import (
	"context"
	"net/url"

	"github.com/cardtrack/cardtrack/internal/markup"
	"github.com/cardtrack/cardtrack/internal/tracker"
)

// SubmissionBackend is the part of the tracker the submission editor uses.
type SubmissionBackend interface {
	ItemInfo(ctx context.Context, identifier string) (*tracker.Item, error)
	LookupItems(ctx context.Context, query url.Values) (*markup.LookupPage, error)
	SubmitBatch(ctx context.Context, sub tracker.Submission, itemIDs []string) (tracker.SubmitResult, error)
}

// SummaryBackend is the part of the tracker the summary editor uses.
type SummaryBackend interface {
	SummaryTable(ctx context.Context) (*markup.SummaryTable, error)
	EditSummaryField(ctx context.Context, edit tracker.EditRequest) (tracker.EditResult, error)
}

// SubmittedClearer drops the saved draft once a submission landed.
type SubmittedClearer interface {
	ClearIfSubmitted(u *url.URL) (bool, error)
}
