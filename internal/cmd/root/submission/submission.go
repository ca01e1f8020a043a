package submission

import (
	"fmt"

	"github.com/cardtrack/cardtrack/internal/cmd"
	"github.com/cardtrack/cardtrack/internal/editor"
	"github.com/cardtrack/cardtrack/internal/log"
	"github.com/cardtrack/cardtrack/internal/meta"
	"github.com/cardtrack/cardtrack/internal/tracker"
	"github.com/cardtrack/cardtrack/internal/tui"
	"github.com/cardtrack/cardtrack/internal/util/i18n"
	"github.com/cardtrack/cardtrack/internal/util/normalizers"
	"github.com/spf13/cobra"
)

var (
	submissionUse   = "submission"
	submissionShort = i18n.T("root.submission.submissionShort", "Prepare and send a grading submission")
	submissionLong  = normalizers.LongDesc(i18n.T("root.submission.submissionLong", `
  Opens an editor for a new grading submission. Each row takes an item id
  and shows the item's details once the id is committed. The submission
  header and the ordered item ids are kept in a draft file until the
  backend accepts the submission.`))
	submissionExample = normalizers.Examples(i18n.T("root.submission.submissionExamples",
		fmt.Sprintf(`
		# Edit the pending submission of the default profile
		%[1]s submission
		# Start the item browser filtered to raw cards
		%[1]s submission --lookup-query 'category=CARD&grading_company=RAW'
		`, meta.CLIName)))
)

// NewSubmissionCmd builds the interactive submission editor command.
func NewSubmissionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     submissionUse,
		Short:   submissionShort,
		Long:    submissionLong,
		Example: submissionExample,
		Args:    cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return run(cmd.BuildHelper(c, args))
		},
	}
}

func run(helper cmd.Helper) error {
	streams := helper.GetStreams()
	if !streams.IsTerminal() {
		return &cmd.ConfigurationError{
			Err: fmt.Errorf("%s %s needs an interactive terminal", meta.CLIName, submissionUse),
		}
	}

	logger, err := helper.GetLogger()
	if err != nil {
		return err
	}
	client, err := cmd.TrackerClient(helper)
	if err != nil {
		return err
	}
	store, err := cmd.DraftStore(helper)
	if err != nil {
		return err
	}
	query, err := cmd.LookupQuery(helper)
	if err != nil {
		return err
	}

	table := editor.NewTable(editor.Options{
		Columns:      tracker.SubmissionColumns,
		HeaderFields: tracker.SubmissionFields,
		Store:        store,
		Logger:       logger,
	})

	log.DisableErrorMirroring()
	defer log.EnableErrorMirroring()

	err = tui.RunSubmission(helper.GetContext(), streams, tui.SubmissionOptions{
		Table:       table,
		Backend:     client,
		Drafts:      store,
		LookupQuery: query,
	})
	if err != nil {
		return cmd.PrepareExecutionErrorFromErr(helper, err, "draft", store.Path())
	}
	return nil
}
