// Package bot implements the SlackPilot request pipeline. For every
// eligible incoming message it posts a loading placeholder, asks the
// assistant for an answer, and edits the placeholder with the result — or
// with a timeout / configuration / failure notice when generation does not
// produce one.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jholhewres/slackpilot/pkg/slackpilot/assistant"
	"github.com/jholhewres/slackpilot/pkg/slackpilot/channels"
)

// ResponseGenerator produces an answer for a prompt. Satisfied by
// *assistant.Generator; tests supply fakes.
type ResponseGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Bot wires channels to the response generator.
type Bot struct {
	cfg        *assistant.Config
	channelMgr *channels.Manager
	generator  ResponseGenerator
	redactor   *assistant.Redactor
	loading    *loadingPicker
	logger     *slog.Logger

	// inflight tracks per-message goroutines for a clean shutdown.
	inflight sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Bot. rng feeds the loading-message picker; pass nil for a
// time-seeded source.
func New(cfg *assistant.Config, generator ResponseGenerator, rng *rand.Rand, logger *slog.Logger) *Bot {
	if cfg == nil {
		cfg = assistant.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Bot{
		cfg:        cfg,
		channelMgr: channels.NewManager(logger.With("component", "channels")),
		generator:  generator,
		redactor:   assistant.MustRedactor(cfg.Redaction, logger),
		loading:    newLoadingPicker(rng),
		logger:     logger,
	}
}

// ChannelManager exposes the manager so callers can register channels
// before Start.
func (b *Bot) ChannelManager() *channels.Manager {
	return b.channelMgr
}

// Start connects the channels and begins processing messages.
func (b *Bot) Start(ctx context.Context) error {
	b.ctx, b.cancel = context.WithCancel(ctx)

	b.logger.Info("starting SlackPilot",
		"name", b.cfg.Name,
		"provider", b.cfg.OpenAI.Provider,
		"timeout_seconds", b.cfg.OpenAI.TimeoutSeconds,
	)

	if err := b.channelMgr.Start(b.ctx); err != nil {
		return fmt.Errorf("starting channels: %w", err)
	}

	go b.messageLoop()

	b.logger.Info("SlackPilot started")
	return nil
}

// Stop shuts down channels and waits for in-flight requests.
func (b *Bot) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
	b.channelMgr.Stop()
	b.inflight.Wait()
	b.logger.Info("SlackPilot stopped")
}

// messageLoop dispatches each incoming message to its own goroutine, so a
// slow run never blocks the other conversations.
func (b *Bot) messageLoop() {
	for msg := range b.channelMgr.Messages() {
		b.inflight.Add(1)
		go func(m *channels.IncomingMessage) {
			defer b.inflight.Done()
			b.handleMessage(m)
		}(msg)
	}
}

// handleMessage runs the placeholder → generate → edit pipeline for one message.
func (b *Bot) handleMessage(msg *channels.IncomingMessage) {
	logger := b.logger.With(
		"request_id", uuid.NewString(),
		"channel", msg.Channel,
		"chat_id", msg.ChatID,
	)

	prompt := b.redactor.Apply(msg.Content)
	if strings.TrimSpace(prompt) == "" {
		logger.Debug("skipping empty prompt")
		return
	}

	loadingText := b.loading.pick()
	placeholderID, err := b.channelMgr.Send(b.ctx, msg.Channel, msg.ChatID, &channels.OutgoingMessage{
		Content:  loadingText,
		ThreadID: msg.ThreadID,
	})
	if err != nil {
		logger.Error("failed to post placeholder", "error", err)
		return
	}

	answer, err := b.generator.Generate(b.ctx, prompt)

	var final string
	switch {
	case errors.Is(err, assistant.ErrDeadlineExceeded):
		logger.Warn("response generation timed out")
		final = loadingText + "\n\n" + timeoutNotice(b.cfg.OpenAI.TimeoutSeconds)
	case errors.Is(err, assistant.ErrConfiguration):
		logger.Error("response generation misconfigured", "error", err)
		final = loadingText + "\n\n" + fmt.Sprintf(":warning: This app isn't fully configured yet: %v", err)
	case err != nil:
		logger.Error("response generation failed", "error", err)
		final = loadingText + "\n\n" + fmt.Sprintf(":warning: Failed to reply: %v", err)
	default:
		final = truncateMessage(answer)
	}

	if err := b.channelMgr.Edit(b.ctx, msg.Channel, msg.ChatID, placeholderID, final); err != nil {
		logger.Error("failed to update placeholder", "error", err)
	}
}
