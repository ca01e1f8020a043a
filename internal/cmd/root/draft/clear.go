package draft

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/cardtrack/cardtrack/internal/cmd"
	"github.com/cardtrack/cardtrack/internal/cmd/common"
	"github.com/cardtrack/cardtrack/internal/draft"
	"github.com/cardtrack/cardtrack/internal/meta"
	"github.com/cardtrack/cardtrack/internal/util/i18n"
	"github.com/cardtrack/cardtrack/internal/util/normalizers"
	"github.com/segmentio/cli"
	"github.com/spf13/cobra"
)

const (
	IfURLFlagName = "if-url"
	YesFlagName   = "yes"
)

var clearExample = normalizers.Examples(i18n.T("root.draft.clearExamples",
	fmt.Sprintf(`
	# Discard the draft after confirming
	%[1]s draft clear
	# Discard the draft only if the URL is a completed submission landing page
	%[1]s draft clear --if-url 'http://127.0.0.1:8000/grading_records_view?submitted=1'
	`, meta.CLIName)))

func newClearCmd() *cobra.Command {
	c := &cobra.Command{
		Use:     "clear",
		Short:   i18n.T("root.draft.clearShort", "Discard the saved submission draft"),
		Example: clearExample,
		Args:    cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return runClear(cmd.BuildHelper(c, args))
		},
	}
	c.Flags().String(IfURLFlagName, "",
		fmt.Sprintf("Only clear when the URL carries %s=1.", draft.SubmittedParam))
	c.Flags().BoolP(YesFlagName, "y", false, "Skip the confirmation prompt.")
	return c
}

type clearResult struct {
	Path    string `json:"path"`
	Cleared bool   `json:"cleared"`
}

func runClear(helper cmd.Helper) error {
	flags := helper.GetCmd().Flags()
	ifURL, err := flags.GetString(IfURLFlagName)
	if err != nil {
		return err
	}
	yes, err := flags.GetBool(YesFlagName)
	if err != nil {
		return err
	}

	store, err := cmd.DraftStore(helper)
	if err != nil {
		return err
	}

	result := clearResult{Path: store.Path()}
	if ifURL = strings.TrimSpace(ifURL); ifURL != "" {
		u, err := url.Parse(ifURL)
		if err != nil {
			return &cmd.ConfigurationError{Err: fmt.Errorf("invalid --%s: %w", IfURLFlagName, err)}
		}
		result.Cleared, err = store.ClearIfSubmitted(u)
		if err != nil {
			return cmd.PrepareExecutionErrorFromErr(helper, err, "path", store.Path())
		}
		return printClear(helper, result)
	}

	if !yes {
		if err := cmd.Confirm(helper, "discard the submission draft at "+store.Path()); err != nil {
			return err
		}
	}
	if err := store.Clear(); err != nil {
		return cmd.PrepareExecutionErrorFromErr(helper, err, "path", store.Path())
	}
	result.Cleared = true
	return printClear(helper, result)
}

func printClear(helper cmd.Helper, result clearResult) error {
	outType, err := helper.GetOutputFormat()
	if err != nil {
		return err
	}
	out := helper.GetStreams().Out
	if outType == common.TEXT {
		if result.Cleared {
			_, err = fmt.Fprintf(out, "Draft cleared: %s\n", result.Path)
		} else {
			_, err = fmt.Fprintf(out, "Draft kept: %s\n", result.Path)
		}
		return err
	}
	p, err := cli.Format(outType.String(), out)
	if err != nil {
		return err
	}
	defer p.Flush()
	p.Print(result)
	return nil
}
