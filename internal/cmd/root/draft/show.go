package draft

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/cardtrack/cardtrack/internal/cmd"
	"github.com/cardtrack/cardtrack/internal/cmd/common"
	"github.com/cardtrack/cardtrack/internal/cmd/output/jq"
	"github.com/cardtrack/cardtrack/internal/meta"
	"github.com/cardtrack/cardtrack/internal/tracker"
	"github.com/cardtrack/cardtrack/internal/util/i18n"
	"github.com/cardtrack/cardtrack/internal/util/normalizers"
	"github.com/segmentio/cli"
	"github.com/spf13/cobra"
)

var showExample = normalizers.Examples(i18n.T("root.draft.showExamples",
	fmt.Sprintf(`
	# Print the draft
	%[1]s draft show
	# Print only the item ids
	%[1]s draft show -o json --jq '.rowIdentifiers[]' -r
	`, meta.CLIName)))

func newShowCmd() *cobra.Command {
	c := &cobra.Command{
		Use:     "show",
		Short:   i18n.T("root.draft.showShort", "Print the saved submission draft"),
		Example: showExample,
		Args:    cobra.NoArgs,
		PreRunE: func(c *cobra.Command, args []string) error {
			cfg, err := cmd.BuildHelper(c, args).GetConfig()
			if err != nil {
				return err
			}
			return jq.BindFlags(cfg, c.Flags())
		},
		RunE: func(c *cobra.Command, args []string) error {
			return runShow(cmd.BuildHelper(c, args))
		},
	}
	jq.AddFlags(c.Flags())
	return c
}

func runShow(helper cmd.Helper) error {
	cfg, err := helper.GetConfig()
	if err != nil {
		return err
	}
	outType, err := helper.GetOutputFormat()
	if err != nil {
		return err
	}
	settings, err := jq.ResolveSettings(helper.GetCmd(), cfg)
	if err != nil {
		return &cmd.ConfigurationError{Err: err}
	}
	if err := jq.ValidateOutputFormat(outType, settings); err != nil {
		return err
	}

	store, err := cmd.DraftStore(helper)
	if err != nil {
		return err
	}
	state, ok, err := store.Load()
	if err != nil {
		return cmd.PrepareExecutionErrorFromErr(helper, err, "path", store.Path())
	}

	out := helper.GetStreams().Out
	if outType == common.TEXT {
		return printText(out, store.Path(), ok, state.Header, state.RowIdentifiers)
	}

	rows := state.RowIdentifiers
	if rows == nil {
		rows = []string{}
	}
	header := state.Header
	if header == nil {
		header = map[string]string{}
	}
	// jq works on the JSON shape of the draft file.
	doc := map[string]any{
		"path":           store.Path(),
		"exists":         ok,
		"header":         header,
		"rowIdentifiers": rows,
	}
	filtered, handled, err := jq.ApplyToRaw(doc, outType, settings, out)
	if err != nil {
		return cmd.PrepareExecutionErrorFromErr(helper, err)
	}
	if handled {
		return nil
	}

	p, err := cli.Format(outType.String(), out)
	if err != nil {
		return err
	}
	defer p.Flush()
	p.Print(filtered)
	return nil
}

// headerOrder lists the known submission fields first, then anything else
// the draft carries in name order.
func headerOrder(header map[string]string) []string {
	keys := slices.Clone(tracker.SubmissionFields)
	for _, k := range slices.Sorted(maps.Keys(header)) {
		if !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}
	return keys
}

func printText(out io.Writer, path string, exists bool, header map[string]string, rows []string) error {
	if !exists {
		_, err := fmt.Fprintf(out, "No draft saved at %s\n", path)
		return err
	}
	if _, err := fmt.Fprintf(out, "Draft: %s\n", path); err != nil {
		return err
	}
	for _, k := range headerOrder(header) {
		if _, err := fmt.Fprintf(out, "%-20s %s\n", k+":", header[k]); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(out, "Items (%d):\n", len(rows)); err != nil {
		return err
	}
	for i, id := range rows {
		if id == "" {
			id = "(empty)"
		}
		if _, err := fmt.Fprintf(out, "%4d. %s\n", i+1, id); err != nil {
			return err
		}
	}
	return nil
}
