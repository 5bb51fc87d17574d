// Package assistant – run.go drives an assistant run to a terminal state.
package assistant

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// awaitRun starts a run for the thread and polls its status until it leaves
// the non-terminal states (queued, in_progress) or the configured deadline
// elapses. The deadline is checked before each sleep so the loop never
// oversleeps past it by more than one poll interval.
func (g *Generator) awaitRun(ctx context.Context, threadID string) (openai.Run, error) {
	run, err := g.api.CreateRun(ctx, threadID, openai.RunRequest{
		AssistantID: g.cfg.AssistantID,
	})
	if err != nil {
		return openai.Run{}, fmt.Errorf("starting run: %w", err)
	}

	start := time.Now()

	for run.Status == openai.RunStatusQueued || run.Status == openai.RunStatusInProgress {
		if time.Since(start) > g.deadline {
			g.logger.Warn("abandoning run after deadline",
				"run_id", run.ID,
				"status", run.Status,
				"deadline", g.deadline,
			)
			return run, ErrDeadlineExceeded
		}

		select {
		case <-ctx.Done():
			return run, ctx.Err()
		case <-time.After(g.pollInterval):
		}

		run, err = g.api.RetrieveRun(ctx, threadID, run.ID)
		if err != nil {
			return openai.Run{}, fmt.Errorf("retrieving run status: %w", err)
		}
	}

	return run, nil
}
