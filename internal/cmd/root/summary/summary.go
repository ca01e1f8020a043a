package summary

import (
	"fmt"

	"github.com/cardtrack/cardtrack/internal/cmd"
	"github.com/cardtrack/cardtrack/internal/log"
	"github.com/cardtrack/cardtrack/internal/meta"
	"github.com/cardtrack/cardtrack/internal/tui"
	"github.com/cardtrack/cardtrack/internal/util/i18n"
	"github.com/cardtrack/cardtrack/internal/util/normalizers"
	"github.com/spf13/cobra"
)

var (
	summaryUse   = "summary"
	summaryShort = i18n.T("root.summary.summaryShort", "Review and correct past submissions")
	summaryLong  = normalizers.LongDesc(i18n.T("root.summary.summaryLong", `
  Shows the submissions summary. Editable cells are changed in place and
  saved one field at a time; a rejected change is reverted and the reason
  is shown under the cell for a moment.`))
)

// NewSummaryCmd builds the interactive summary editor command.
func NewSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   summaryUse,
		Short: summaryShort,
		Long:  summaryLong,
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return run(cmd.BuildHelper(c, args))
		},
	}
}

func run(helper cmd.Helper) error {
	streams := helper.GetStreams()
	if !streams.IsTerminal() {
		return &cmd.ConfigurationError{
			Err: fmt.Errorf("%s %s needs an interactive terminal", meta.CLIName, summaryUse),
		}
	}
	client, err := cmd.TrackerClient(helper)
	if err != nil {
		return err
	}

	log.DisableErrorMirroring()
	defer log.EnableErrorMirroring()

	if err := tui.RunSummary(helper.GetContext(), streams, tui.SummaryOptions{Backend: client}); err != nil {
		return cmd.PrepareExecutionErrorFromErr(helper, err, "base_url", client.BaseURL().String())
	}
	return nil
}
