package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jholhewres/slackpilot/pkg/slackpilot/assistant"
)

// newConfigCmd creates the `slackpilot config` command group.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration with secrets masked",
		RunE:  runConfigShow,
	})

	return cmd
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	masked := *cfg
	masked.OpenAI.APIKey = maskSecret(cfg.OpenAI.APIKey)
	masked.Slack.BotToken = maskSecret(cfg.Slack.BotToken)

	data, err := yaml.Marshal(&masked)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	fmt.Print(string(data))
	return nil
}

// maskSecret keeps a short prefix of a secret for identification.
func maskSecret(s string) string {
	if s == "" || assistant.IsEnvReference(s) {
		return s
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + "****"
}
