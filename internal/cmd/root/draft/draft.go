// Package draft holds the commands that inspect and discard the saved
// submission draft.
package draft

import (
	"fmt"

	"github.com/cardtrack/cardtrack/internal/meta"
	"github.com/cardtrack/cardtrack/internal/util/i18n"
	"github.com/cardtrack/cardtrack/internal/util/normalizers"
	"github.com/spf13/cobra"
)

var (
	draftUse   = "draft"
	draftShort = i18n.T("root.draft.draftShort", "Inspect or discard the saved submission draft")
	draftLong  = normalizers.LongDesc(i18n.T("root.draft.draftLong", fmt.Sprintf(`
  The submission editor keeps its header and item ids in a draft file so
  an interrupted %s submission session can be resumed.`, meta.CLIName)))
)

// NewDraftCmd builds the draft command group.
func NewDraftCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   draftUse,
		Short: draftShort,
		Long:  draftLong,
	}
	c.AddCommand(newShowCmd(), newClearCmd())
	return c
}
