package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// fakeAPI implements assistantAPI for tests. RetrieveRun walks through
// statuses in order, repeating the last entry once exhausted.
type fakeAPI struct {
	statuses []openai.RunStatus
	pos      int

	createRunStatus openai.RunStatus
	createRunErr    error
	lastError       *openai.RunLastError

	listResult openai.MessagesList
	listErr    error

	files   map[string]string // fileID → filename
	fileErr error

	threadCalls   int
	messageCalls  int
	runCalls      int
	retrieveCalls int
	listCalls     int
	fileCalls     int

	lastPrompt string
}

func (f *fakeAPI) CreateThread(_ context.Context, _ openai.ThreadRequest) (openai.Thread, error) {
	f.threadCalls++
	return openai.Thread{ID: "thread_1"}, nil
}

func (f *fakeAPI) CreateMessage(_ context.Context, _ string, req openai.MessageRequest) (openai.Message, error) {
	f.messageCalls++
	f.lastPrompt = req.Content
	return openai.Message{ID: "msg_1"}, nil
}

func (f *fakeAPI) CreateRun(_ context.Context, _ string, _ openai.RunRequest) (openai.Run, error) {
	f.runCalls++
	if f.createRunErr != nil {
		return openai.Run{}, f.createRunErr
	}
	status := f.createRunStatus
	if status == "" {
		status = openai.RunStatusQueued
	}
	return openai.Run{ID: "run_1", Status: status, LastError: f.lastError}, nil
}

func (f *fakeAPI) RetrieveRun(_ context.Context, _ string, _ string) (openai.Run, error) {
	f.retrieveCalls++
	status := f.statuses[f.pos]
	if f.pos < len(f.statuses)-1 {
		f.pos++
	}
	return openai.Run{ID: "run_1", Status: status, LastError: f.lastError}, nil
}

func (f *fakeAPI) ListMessage(_ context.Context, _ string, _ *int, _ *string, _ *string, _ *string, _ *string) (openai.MessagesList, error) {
	f.listCalls++
	if f.listErr != nil {
		return openai.MessagesList{}, f.listErr
	}
	return f.listResult, nil
}

func (f *fakeAPI) GetFile(_ context.Context, fileID string) (openai.File, error) {
	f.fileCalls++
	if f.fileErr != nil {
		return openai.File{}, f.fileErr
	}
	name, ok := f.files[fileID]
	if !ok {
		return openai.File{}, fmt.Errorf("unknown file %q", fileID)
	}
	return openai.File{ID: fileID, FileName: name}, nil
}

// testGenerator builds a Generator over a fake with fast timings.
func testGenerator(api *fakeAPI) *Generator {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	g := newGenerator(api, OpenAIConfig{AssistantID: "asst_1", TimeoutSeconds: 30}, logger)
	g.pollInterval = time.Millisecond
	return g
}

// textMessages builds a ListMessage result with one assistant text message.
func textMessages(value string, annotations []any) openai.MessagesList {
	return openai.MessagesList{
		Messages: []openai.Message{
			{
				Role: "assistant",
				Content: []openai.MessageContent{
					{Type: "text", Text: &openai.MessageText{Value: value, Annotations: annotations}},
				},
			},
		},
	}
}

func TestGenerate(t *testing.T) {
	t.Run("returns the answer after the run completes", func(t *testing.T) {
		api := &fakeAPI{
			statuses:   []openai.RunStatus{openai.RunStatusInProgress, openai.RunStatusInProgress, openai.RunStatusCompleted},
			listResult: textMessages("The refund policy allows returns within 30 days.", nil),
		}
		g := testGenerator(api)

		answer, err := g.Generate(context.Background(), "What is the refund policy?")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if answer != "The refund policy allows returns within 30 days." {
			t.Errorf("unexpected answer: %q", answer)
		}
		if api.retrieveCalls != 3 {
			t.Errorf("expected 3 polls, got %d", api.retrieveCalls)
		}
		if api.threadCalls != 1 || api.messageCalls != 1 || api.runCalls != 1 {
			t.Errorf("expected one thread/message/run call, got %d/%d/%d",
				api.threadCalls, api.messageCalls, api.runCalls)
		}
		if api.lastPrompt != "What is the refund policy?" {
			t.Errorf("prompt not submitted verbatim: %q", api.lastPrompt)
		}
	})

	t.Run("fails with ErrConfiguration when assistant ID is missing", func(t *testing.T) {
		api := &fakeAPI{}
		g := testGenerator(api)
		g.cfg.AssistantID = ""

		_, err := g.Generate(context.Background(), "hi")
		if !errors.Is(err, ErrConfiguration) {
			t.Fatalf("expected ErrConfiguration, got %v", err)
		}
		if api.threadCalls != 0 || api.runCalls != 0 {
			t.Errorf("no remote call should be made, got %d thread / %d run calls",
				api.threadCalls, api.runCalls)
		}
	})

	t.Run("reports a failed run as text, not error", func(t *testing.T) {
		api := &fakeAPI{
			createRunStatus: openai.RunStatusFailed,
			lastError:       &openai.RunLastError{Code: "rate_limit_exceeded", Message: "rate_limited"},
		}
		g := testGenerator(api)

		answer, err := g.Generate(context.Background(), "hi")
		if err != nil {
			t.Fatalf("a failed run must not be an error, got %v", err)
		}
		if answer != "Error: The operation failed with status: failed" {
			t.Errorf("unexpected failure text: %q", answer)
		}
	})

	t.Run("reports cancelled and expired runs uniformly", func(t *testing.T) {
		for _, status := range []openai.RunStatus{openai.RunStatusCancelled, openai.RunStatusExpired} {
			api := &fakeAPI{createRunStatus: status}
			g := testGenerator(api)

			answer, err := g.Generate(context.Background(), "hi")
			if err != nil {
				t.Fatalf("status %s: unexpected error: %v", status, err)
			}
			want := fmt.Sprintf("Error: The operation failed with status: %s", status)
			if answer != want {
				t.Errorf("status %s: got %q, want %q", status, answer, want)
			}
		}
	})

	t.Run("returns the no-response sentinel when the thread is empty", func(t *testing.T) {
		api := &fakeAPI{
			createRunStatus: openai.RunStatusCompleted,
			listResult:      openai.MessagesList{},
		}
		g := testGenerator(api)

		answer, err := g.Generate(context.Background(), "hi")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if answer != noResponseMessage {
			t.Errorf("got %q, want %q", answer, noResponseMessage)
		}
	})

	t.Run("returns the no-text sentinel when content has no text block", func(t *testing.T) {
		api := &fakeAPI{
			createRunStatus: openai.RunStatusCompleted,
			listResult: openai.MessagesList{
				Messages: []openai.Message{
					{Content: []openai.MessageContent{{Type: "image_file"}}},
				},
			},
		}
		g := testGenerator(api)

		answer, err := g.Generate(context.Background(), "hi")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if answer != noTextContentMessage {
			t.Errorf("got %q, want %q", answer, noTextContentMessage)
		}
	})

	t.Run("propagates transport errors from run creation", func(t *testing.T) {
		api := &fakeAPI{createRunErr: errors.New("boom")}
		g := testGenerator(api)

		_, err := g.Generate(context.Background(), "hi")
		if err == nil || errors.Is(err, ErrConfiguration) || errors.Is(err, ErrDeadlineExceeded) {
			t.Fatalf("expected a plain transport error, got %v", err)
		}
	})
}

func TestAwaitRunDeadline(t *testing.T) {
	t.Run("raises ErrDeadlineExceeded only after the deadline", func(t *testing.T) {
		api := &fakeAPI{statuses: []openai.RunStatus{openai.RunStatusInProgress}}
		g := testGenerator(api)
		g.deadline = 20 * time.Millisecond
		g.pollInterval = 2 * time.Millisecond

		start := time.Now()
		_, err := g.awaitRun(context.Background(), "thread_1")
		elapsed := time.Since(start)

		if !errors.Is(err, ErrDeadlineExceeded) {
			t.Fatalf("expected ErrDeadlineExceeded, got %v", err)
		}
		if elapsed < g.deadline {
			t.Errorf("deadline raised early: elapsed %v < deadline %v", elapsed, g.deadline)
		}
	})

	t.Run("does not raise when the run finishes in time", func(t *testing.T) {
		api := &fakeAPI{
			statuses: []openai.RunStatus{openai.RunStatusInProgress, openai.RunStatusInProgress, openai.RunStatusCompleted},
		}
		g := testGenerator(api)
		g.deadline = time.Second
		g.pollInterval = time.Millisecond

		run, err := g.awaitRun(context.Background(), "thread_1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if run.Status != openai.RunStatusCompleted {
			t.Errorf("expected completed run, got %s", run.Status)
		}
		if api.retrieveCalls != 3 {
			t.Errorf("expected 3 polls, got %d", api.retrieveCalls)
		}
	})

	t.Run("stops when the context is cancelled", func(t *testing.T) {
		api := &fakeAPI{statuses: []openai.RunStatus{openai.RunStatusInProgress}}
		g := testGenerator(api)
		g.deadline = time.Minute
		g.pollInterval = 50 * time.Millisecond

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(5 * time.Millisecond)
			cancel()
		}()

		_, err := g.awaitRun(ctx, "thread_1")
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})
}
