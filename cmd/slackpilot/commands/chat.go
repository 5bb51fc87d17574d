package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jholhewres/slackpilot/pkg/slackpilot/assistant"
)

// newChatCmd creates the `slackpilot chat` command for one-shot prompts
// against the configured assistant, without going through Slack.
func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat <message>",
		Short: "Ask the assistant a one-shot question from the terminal",
		Long: `Sends a single prompt to the configured OpenAI Assistant and prints the
answer, footnotes included. Useful to verify the assistant configuration
before connecting Slack.

Examples:
  slackpilot chat "What is the refund policy?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runChat,
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	// Keep the terminal clean: only warnings and errors, text format.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	assistant.ResolveAPIKey(cfg, logger)

	generator, err := assistant.NewGenerator(cfg.OpenAI, logger)
	if err != nil {
		return fmt.Errorf("building assistant client: %w", err)
	}

	prompt := strings.Join(args, " ")
	answer, err := generator.Generate(context.Background(), prompt)
	if err != nil {
		return err
	}

	fmt.Println(answer)
	return nil
}
