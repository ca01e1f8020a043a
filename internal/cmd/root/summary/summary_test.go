package summary

import (
	"testing"

	"github.com/cardtrack/cardtrack/internal/cmd"
	"github.com/cardtrack/cardtrack/internal/config"
	"github.com/cardtrack/cardtrack/internal/iostreams"
	testCmd "github.com/cardtrack/cardtrack/test/cmd"
	testConfig "github.com/cardtrack/cardtrack/test/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryRequiresTerminal(t *testing.T) {
	streams, _, out, _ := iostreams.NewTestIOStreams()
	helper := &testCmd.MockHelper{
		GetStreamsMock: func() *iostreams.IOStreams { return streams },
		GetConfigMock: func() (config.Hook, error) {
			return testConfig.NewStaticConfigHook(map[string]string{}), nil
		},
	}

	err := run(helper)
	var cfgErr *cmd.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "interactive terminal")
	assert.Empty(t, out.String())
}

func TestNewSummaryCmdRejectsArgs(t *testing.T) {
	c := NewSummaryCmd()
	assert.Error(t, c.Args(c, []string{"extra"}))
}
