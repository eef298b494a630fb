package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// LogLevel is the level shared by every logger built from it. --verbose
// lowers it to debug.
var LogLevel = zap.NewAtomicLevelAt(zap.InfoLevel)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "acb",
	Short: "AI Curious Brain - a goal-driven agent that asks about what it does not know",
	Long: `AI Curious Brain (acb) is a cognitive agent loop. It turns intents into
goals, plans and executes them against a small world model, and when an
intent contains a word it does not know it asks about it, waits to be
taught, and then carries on.

Every teaching also grows a concept graph that links words through the
objects they were observed with.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			LogLevel.SetLevel(zap.DebugLevel)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("acb %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(versionCmd)
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
