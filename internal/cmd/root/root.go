package root

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cardtrack/cardtrack/internal/build"
	"github.com/cardtrack/cardtrack/internal/cmd"
	"github.com/cardtrack/cardtrack/internal/cmd/common"
	"github.com/cardtrack/cardtrack/internal/cmd/root/draft"
	"github.com/cardtrack/cardtrack/internal/cmd/root/submission"
	"github.com/cardtrack/cardtrack/internal/cmd/root/summary"
	"github.com/cardtrack/cardtrack/internal/cmd/root/version"
	"github.com/cardtrack/cardtrack/internal/config"
	"github.com/cardtrack/cardtrack/internal/iostreams"
	"github.com/cardtrack/cardtrack/internal/log"
	"github.com/cardtrack/cardtrack/internal/meta"
	"github.com/cardtrack/cardtrack/internal/theme"
	"github.com/cardtrack/cardtrack/internal/util"
	"github.com/cardtrack/cardtrack/internal/util/i18n"
	"github.com/cardtrack/cardtrack/internal/util/normalizers"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/segmentio/cli"
	"github.com/spf13/cobra"
)

var (
	rootLong = normalizers.LongDesc(i18n.T("root.rootLong", `
  cardtrack is a terminal client for a trading card grading tracker.

  It prepares grading submissions item by item and edits the submissions
  summary in place, talking to the tracker's HTTP backend.`))

	rootShort = i18n.T("root/rootShort", fmt.Sprintf("%s tracks card grading submissions", meta.CLIName))

	rootCmd *cobra.Command

	// Stores the global runtime value for the Configuration file path,
	configFilePath = config.ExpandDefaultConfigFilePath()
	currProfile    = common.DefaultProfile

	currConfig   config.Hook
	streams      *iostreams.IOStreams
	logCloser    io.Closer
	outputFormat = cmd.NewEnum([]string{"json", "yaml", "text"}, common.DefaultOutputFormat)
	colorMode    = cmd.NewEnum([]string{"auto", "always", "never"}, common.DefaultColorMode)
	logLevel     = cmd.NewEnum([]string{"trace", "debug", "info", "warn", "error"}, common.DefaultLogLevel)

	buildInfo *build.Info
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   meta.CLIName,
		Short: rootShort,
		Long:  rootLong,
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			logger, closer, err := log.NewLogger(log.Options{
				Level:  currConfig.GetString(common.LogLevelConfigPath),
				File:   currConfig.GetString(common.LogFileConfigPath),
				ErrOut: streams.ErrOut,
			})
			if err != nil {
				return &cmd.ConfigurationError{Err: err}
			}
			logCloser = closer

			if err := applyColorMode(currConfig.GetString(common.ColorConfigPath)); err != nil {
				return &cmd.ConfigurationError{Err: err}
			}
			if err := theme.SetCurrent(currConfig.GetString(common.ThemeConfigPath)); err != nil {
				return &cmd.ConfigurationError{Err: err}
			}

			ctx := context.WithValue(c.Context(), config.ConfigKey, currConfig)
			ctx = context.WithValue(ctx, iostreams.StreamsKey, streams)
			ctx = context.WithValue(ctx, build.InfoKey, buildInfo)
			ctx = log.WithLogger(ctx, logger)
			c.SetContext(ctx)

			logger.Debug("command start",
				"command", c.CommandPath(),
				"profile", currConfig.GetProfile(),
				"build", buildInfo.String())
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if logCloser != nil {
				return logCloser.Close()
			}
			return nil
		},
	}

	// parses all flags not just the target command
	rootCmd.TraverseChildren = true

	rootCmd.PersistentFlags().StringVar(&configFilePath, common.ConfigFilePathFlagName,
		config.ExpandDefaultConfigFilePath(),
		i18n.T("root."+common.ConfigFilePathFlagName, "Path to the configuration file to load."))

	rootCmd.PersistentFlags().StringVarP(&currProfile, common.ProfileFlagName, common.ProfileFlagShort,
		common.DefaultProfile,
		"Specify the profile to use for this command.")

	rootCmd.PersistentFlags().VarP(outputFormat, common.OutputFlagName, common.OutputFlagShort,
		fmt.Sprintf(`Configures the output format.
- Config path: [ %s ]
- Allowed    : [ %s ]`,
			common.OutputConfigPath, strings.Join(outputFormat.Allowed, "|")))

	rootCmd.PersistentFlags().Var(colorMode, common.ColorFlagName,
		fmt.Sprintf(`Controls colored terminal output.
- Config path: [ %s ]
- Allowed    : [ %s ]`,
			common.ColorConfigPath, strings.Join(colorMode.Allowed, "|")))

	rootCmd.PersistentFlags().Var(logLevel, common.LogLevelFlagName,
		fmt.Sprintf(`Minimum level written to the log file.
- Config path: [ %s ]
- Allowed    : [ %s ]`,
			common.LogLevelConfigPath, strings.Join(logLevel.Allowed, "|")))

	rootCmd.PersistentFlags().String(common.LogFileFlagName, "",
		fmt.Sprintf(`Path of the log file.
- Config path: [ %s ]`, common.LogFileConfigPath))

	rootCmd.PersistentFlags().String(common.BaseURLFlagName, meta.DefaultBaseURL,
		fmt.Sprintf(`Base URL of the tracker backend.
- Config path: [ %s ]`, common.BaseURLConfigPath))

	rootCmd.PersistentFlags().String(common.DraftPathFlagName, "",
		fmt.Sprintf(`Path of the submission draft file.
- Config path: [ %s ]`, common.DraftPathConfigPath))

	rootCmd.PersistentFlags().String(common.LookupQueryFlagName, "",
		fmt.Sprintf(`Query string the item browser opens with.
- Config path: [ %s ]`, common.LookupQueryConfigPath))

	rootCmd.PersistentFlags().String(common.ThemeFlagName, theme.DefaultName,
		fmt.Sprintf(`Color theme of the interactive editors.
- Config path: [ %s ]
- Allowed    : [ %s ]`,
			common.ThemeConfigPath, strings.Join(theme.Available(), "|")))

	return rootCmd
}

// applyColorMode forces the lipgloss color profile for always/never and
// leaves terminal detection in place for auto.
func applyColorMode(mode string) error {
	cm, err := common.ColorModeStringToIota(mode)
	if err != nil {
		return err
	}
	switch cm {
	case common.ColorModeAlways:
		lipgloss.SetColorProfile(termenv.TrueColor)
	case common.ColorModeNever:
		lipgloss.SetColorProfile(termenv.Ascii)
	case common.ColorModeAuto:
	}
	return nil
}

// addCommands adds the root subcommands to the command.
func addCommands() {
	rootCmd.AddCommand(version.NewVersionCmd())
	rootCmd.AddCommand(submission.NewSubmissionCmd())
	rootCmd.AddCommand(summary.NewSummaryCmd())
	rootCmd.AddCommand(draft.NewDraftCmd())
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd = newRootCmd()
	addCommands()

	// Because the profile is not part of the configuration, we can't use viper
	// to read it following it's built in priorities.  So here we look for a well known
	// profile variable and set our package level variable if it's set before
	// continuing to process the command run.  This creates a ENV_VAR < CLI_FLAG priority
	profileEnvVar, found := os.LookupEnv(fmt.Sprintf("%s_PROFILE", strings.ToUpper(meta.CLIName)))
	if found {
		currProfile = profileEnvVar
	}
}

// flagBindings maps persistent flags to their config paths.
var flagBindings = map[string]string{
	common.OutputFlagName:      common.OutputConfigPath,
	common.ColorFlagName:       common.ColorConfigPath,
	common.LogLevelFlagName:    common.LogLevelConfigPath,
	common.LogFileFlagName:     common.LogFileConfigPath,
	common.BaseURLFlagName:     common.BaseURLConfigPath,
	common.DraftPathFlagName:   common.DraftPathConfigPath,
	common.LookupQueryFlagName: common.LookupQueryConfigPath,
	common.ThemeFlagName:       common.ThemeConfigPath,
}

func initConfig() {
	cfg, err := config.GetConfig(configFilePath, currProfile, config.ExpandDefaultConfigFilePath())
	util.CheckError(err)
	currConfig = cfg

	for flag, path := range flagBindings {
		f := rootCmd.PersistentFlags().Lookup(flag)
		util.CheckError(cfg.BindFlag(path, f))
	}
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context, s *iostreams.IOStreams, bi *build.Info) int {
	buildInfo = bi
	cobra.EnableTraverseRunHooks = true
	streams = s
	rootCmd.SetIn(s.In)
	rootCmd.SetOut(s.Out)
	rootCmd.SetErr(s.ErrOut)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var executionError *cmd.ExecutionError
	if errors.As(err, &executionError) {
		printer, perr := cli.Format(outputFormat.String(), s.ErrOut)
		if perr != nil {
			fmt.Fprintln(s.ErrOut, executionError.Msg)
			return 1
		}
		printer.Print(err)
		printer.Flush()
	}
	return 1
}
