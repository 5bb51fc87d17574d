package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jholhewres/slackpilot/pkg/slackpilot/assistant"
	"github.com/jholhewres/slackpilot/pkg/slackpilot/bot"
	slackchan "github.com/jholhewres/slackpilot/pkg/slackpilot/channels/slack"
)

// newServeCmd creates the `slackpilot serve` command that starts the bot.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the bot and connect to Slack",
		Long: `Start SlackPilot as a long-running service, connecting to Slack and
answering eligible messages with the configured OpenAI Assistant.

Examples:
  slackpilot serve
  slackpilot serve --config ./config.yaml`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	// ── Load config ──
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	// ── Configure logger ──
	logger := buildLogger(cmd, cfg)

	// ── Resolve secrets ──
	// Audit BEFORE resolving — checks the raw config values for hardcoded keys.
	assistant.AuditSecrets(cfg, logger)
	assistant.ResolveAPIKey(cfg, logger)

	// ── Create the generator and the bot ──
	generator, err := assistant.NewGenerator(cfg.OpenAI, logger)
	if err != nil {
		return fmt.Errorf("building assistant client: %w", err)
	}

	b := bot.New(cfg, generator, nil, logger)

	// ── Register channels ──
	sl := slackchan.New(cfg.Slack, logger)
	if err := b.ChannelManager().Register(sl); err != nil {
		return fmt.Errorf("registering Slack channel: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := b.Start(ctx); err != nil {
		return err
	}

	// ── Wait for shutdown ──
	logger.Info("SlackPilot running. Press Ctrl+C to stop.", "name", cfg.Name)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received, stopping...")

	// Graceful shutdown with timeout.
	done := make(chan struct{})
	go func() {
		b.Stop()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("shutdown complete")
	case <-time.After(10 * time.Second):
		logger.Warn("shutdown timed out, exiting anyway")
	}

	return nil
}

// resolveConfig loads the configuration from --config or standard locations.
func resolveConfig(cmd *cobra.Command) (*assistant.Config, error) {
	path, _ := cmd.Root().PersistentFlags().GetString("config")
	if path == "" {
		path = assistant.FindConfigFile()
	}
	if path == "" {
		return nil, fmt.Errorf("no config file found — run 'slackpilot setup' to create one")
	}

	cfg, err := assistant.LoadConfigFromFile(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildLogger creates the slog logger from config and the --verbose flag.
func buildLogger(cmd *cobra.Command, cfg *assistant.Config) *slog.Logger {
	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
	logLevel := slog.LevelInfo
	if verbose || cfg.Logging.Level == "debug" {
		logLevel = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	}
	return slog.New(handler)
}
