// Package commands implements the SlackPilot CLI commands using cobra.
package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root CLI command with all subcommands registered.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "slackpilot",
		Short: "SlackPilot - Slack bot backed by an OpenAI Assistant",
		Long: `SlackPilot answers Slack mentions, DMs and thread follow-ups with an
OpenAI Assistant, rewriting file citations into numbered footnotes.

Examples:
  slackpilot setup
  slackpilot serve
  slackpilot chat "What is the refund policy?"
  slackpilot config show`,
		Version: version,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newChatCmd(),
		newSetupCmd(),
		newConfigCmd(),
	)

	// Global flags.
	rootCmd.PersistentFlags().StringP("config", "c", "", "path to the configuration file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose logging")

	return rootCmd
}
