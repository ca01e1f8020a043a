package draft

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cardtrack/cardtrack/internal/cmd"
	"github.com/cardtrack/cardtrack/internal/cmd/common"
	"github.com/cardtrack/cardtrack/internal/cmd/output/jq"
	"github.com/cardtrack/cardtrack/internal/config"
	draftstore "github.com/cardtrack/cardtrack/internal/draft"
	"github.com/cardtrack/cardtrack/internal/iostreams"
	testCmd "github.com/cardtrack/cardtrack/test/cmd"
	testConfig "github.com/cardtrack/cardtrack/test/config"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	path    string
	values  map[string]string
	streams *iostreams.IOStreams
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "drafts", "submission.json")
	streams, _, _, _ := iostreams.NewTestIOStreams()
	return &fixture{
		path:    path,
		values:  map[string]string{common.DraftPathConfigPath: path},
		streams: streams,
	}
}

func (f *fixture) helper(c *cobra.Command, format common.OutputFormat) *testCmd.MockHelper {
	return &testCmd.MockHelper{
		GetCmdMock:          func() *cobra.Command { return c },
		GetStreamsMock:      func() *iostreams.IOStreams { return f.streams },
		GetOutputFormatMock: func() (common.OutputFormat, error) { return format, nil },
		GetConfigMock: func() (config.Hook, error) {
			return testConfig.NewStaticConfigHook(f.values), nil
		},
	}
}

func (f *fixture) out() string {
	return f.streams.Out.(interface{ String() string }).String()
}

func (f *fixture) save(t *testing.T) {
	t.Helper()
	require.NoError(t, draftstore.NewStore(f.path, nil).Save(draftstore.State{
		Header:         map[string]string{"submission_number": "42", "submission_company": "PSA", "note": "x"},
		RowIdentifiers: []string{"101", "", "102"},
	}))
}

func (f *fixture) exists(t *testing.T) bool {
	t.Helper()
	_, ok, err := draftstore.NewStore(f.path, nil).Load()
	require.NoError(t, err)
	return ok
}

func TestShowWithoutDraft(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, runShow(f.helper(newShowCmd(), common.TEXT)))
	assert.Equal(t, "No draft saved at "+f.path+"\n", f.out())
}

func TestShowText(t *testing.T) {
	f := newFixture(t)
	f.save(t)

	require.NoError(t, runShow(f.helper(newShowCmd(), common.TEXT)))
	out := f.out()
	assert.Contains(t, out, "Draft: "+f.path)
	assert.Contains(t, out, "submission_number:   42")
	assert.Contains(t, out, "Items (3):")
	assert.Contains(t, out, "   1. 101")
	assert.Contains(t, out, "   2. (empty)")
	assert.Less(t, strings.Index(out, "submission_date:"), strings.Index(out, "note:"))
}

func TestShowJSONWithFilter(t *testing.T) {
	f := newFixture(t)
	f.save(t)
	c := newShowCmd()
	require.NoError(t, c.Flags().Set(jq.FlagName, ".rowIdentifiers"))

	require.NoError(t, runShow(f.helper(c, common.JSON)))
	var got []string
	require.NoError(t, json.Unmarshal([]byte(f.out()), &got))
	assert.Equal(t, []string{"101", "", "102"}, got)
}

func TestShowRawOutput(t *testing.T) {
	f := newFixture(t)
	f.save(t)
	f.values[jq.RawOutputConfigPath] = "true"
	c := newShowCmd()
	require.NoError(t, c.Flags().Set(jq.FlagName, ".rowIdentifiers[]"))

	require.NoError(t, runShow(f.helper(c, common.JSON)))
	assert.Equal(t, "101\n\n102\n", f.out())
}

func TestShowFilterNeedsStructuredOutput(t *testing.T) {
	f := newFixture(t)
	c := newShowCmd()
	require.NoError(t, c.Flags().Set(jq.FlagName, ".header"))

	err := runShow(f.helper(c, common.TEXT))
	var cfgErr *cmd.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestClearIfURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		cleared bool
	}{
		{name: "landing page", url: "http://127.0.0.1:8000/grading_records_view?submitted=1", cleared: true},
		{name: "other page", url: "http://127.0.0.1:8000/grading_records_view", cleared: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.save(t)
			c := newClearCmd()
			require.NoError(t, c.Flags().Set(IfURLFlagName, tt.url))

			require.NoError(t, runClear(f.helper(c, common.JSON)))
			var got clearResult
			require.NoError(t, json.Unmarshal([]byte(f.out()), &got))
			assert.Equal(t, clearResult{Path: f.path, Cleared: tt.cleared}, got)
			assert.Equal(t, !tt.cleared, f.exists(t))
		})
	}
}

func TestClearWithYes(t *testing.T) {
	f := newFixture(t)
	f.save(t)
	c := newClearCmd()
	require.NoError(t, c.Flags().Set(YesFlagName, "true"))

	require.NoError(t, runClear(f.helper(c, common.TEXT)))
	assert.Equal(t, "Draft cleared: "+f.path+"\n", f.out())
	assert.False(t, f.exists(t))
}

func TestClearConfirmation(t *testing.T) {
	tests := []struct {
		input   string
		cleared bool
	}{
		{input: "yes\n", cleared: true},
		{input: "no\n", cleared: false},
		{input: "", cleared: false},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			f := newFixture(t)
			f.save(t)
			in := f.streams.In.(interface{ WriteString(string) (int, error) })
			_, err := in.WriteString(tt.input)
			require.NoError(t, err)

			err = runClear(f.helper(newClearCmd(), common.TEXT))
			if tt.cleared {
				require.NoError(t, err)
			} else {
				var execErr *cmd.ExecutionError
				require.ErrorAs(t, err, &execErr)
				assert.Equal(t, "cancelled", execErr.Msg)
			}
			assert.Equal(t, !tt.cleared, f.exists(t))
		})
	}
}
