// Package assistant implements response generation against the OpenAI
// Assistants API: it opens a remote thread, submits the user prompt, drives
// an asynchronous run to completion under a deadline, extracts the newest
// message, and rewrites inline file-citation annotations into numbered
// footnotes.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ---------- Errors ----------

var (
	// ErrConfiguration indicates missing or inconsistent assistant
	// configuration (e.g. no assistant_id, incomplete azure settings).
	ErrConfiguration = errors.New("assistant configuration error")

	// ErrDeadlineExceeded indicates the run did not reach a terminal state
	// within the configured timeout. The remote run may keep executing but
	// is abandoned.
	ErrDeadlineExceeded = errors.New("assistant run deadline exceeded")
)

// ---------- Remote API surface ----------

// assistantAPI is the subset of the OpenAI client used for response
// generation. *openai.Client satisfies it; tests supply fakes.
type assistantAPI interface {
	CreateThread(ctx context.Context, request openai.ThreadRequest) (openai.Thread, error)
	CreateMessage(ctx context.Context, threadID string, request openai.MessageRequest) (openai.Message, error)
	CreateRun(ctx context.Context, threadID string, request openai.RunRequest) (openai.Run, error)
	RetrieveRun(ctx context.Context, threadID string, runID string) (openai.Run, error)
	ListMessage(ctx context.Context, threadID string, limit *int, order *string, after *string, before *string, runID *string) (openai.MessagesList, error)
	GetFile(ctx context.Context, fileID string) (openai.File, error)
}

// defaultPollInterval is how long the run poller sleeps between status checks.
const defaultPollInterval = time.Second

// ---------- Generator ----------

// Generator produces assistant answers for user prompts. Each Generate call
// owns its remote thread and run exclusively; Generators are safe for
// concurrent use.
type Generator struct {
	api    assistantAPI
	cfg    OpenAIConfig
	logger *slog.Logger

	// pollInterval and deadline are derived from config; overridable in tests.
	pollInterval time.Duration
	deadline     time.Duration
}

// NewGenerator builds a Generator from config. Fails with ErrConfiguration
// when the provider selection is invalid.
func NewGenerator(cfg OpenAIConfig, logger *slog.Logger) (*Generator, error) {
	client, err := NewAPIClient(cfg)
	if err != nil {
		return nil, err
	}
	return newGenerator(client, cfg, logger), nil
}

// newGenerator wires an explicit API implementation (used by tests).
func newGenerator(api assistantAPI, cfg OpenAIConfig, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = DefaultConfig().OpenAI.TimeoutSeconds
	}
	return &Generator{
		api:          api,
		cfg:          cfg,
		logger:       logger.With("component", "assistant"),
		pollInterval: defaultPollInterval,
		deadline:     time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
}

// Generate answers a prompt. It always returns displayable text unless an
// error occurs: a run that ends in a terminal non-success status is reported
// as text, not as an error. ErrConfiguration and ErrDeadlineExceeded are
// returned as distinguishable errors; other failures are transport errors.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.cfg.AssistantID == "" {
		g.logger.Error("no assistant ID configured")
		return "", fmt.Errorf("%w: assistant_id is not set", ErrConfiguration)
	}

	start := time.Now()

	threadID, err := g.openSession(ctx, prompt)
	if err != nil {
		return "", err
	}

	run, err := g.awaitRun(ctx, threadID)
	if err != nil {
		return "", err
	}

	if run.Status != openai.RunStatusCompleted {
		g.logger.Error("run ended without completing", "run_id", run.ID, "status", run.Status)
		if run.Status == openai.RunStatusFailed && run.LastError != nil {
			g.logger.Error("run failure detail",
				"run_id", run.ID,
				"code", run.LastError.Code,
				"message", run.LastError.Message,
			)
		}
		return fmt.Sprintf("Error: The operation failed with status: %s", run.Status), nil
	}

	resp, err := g.latestResponse(ctx, threadID)
	if err != nil {
		return "", err
	}

	g.logger.Debug("response generation finished",
		"thread_id", threadID,
		"elapsed", time.Since(start),
		"annotations", len(resp.annotations),
	)

	return g.resolveCitations(ctx, resp), nil
}

// openSession creates a remote thread and appends the user prompt to it.
func (g *Generator) openSession(ctx context.Context, prompt string) (string, error) {
	thread, err := g.api.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return "", fmt.Errorf("creating thread: %w", err)
	}

	_, err = g.api.CreateMessage(ctx, thread.ID, openai.MessageRequest{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})
	if err != nil {
		return "", fmt.Errorf("submitting prompt: %w", err)
	}

	return thread.ID, nil
}
