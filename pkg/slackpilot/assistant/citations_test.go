package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

// fileCitation builds a wire-shaped annotation payload as go-openai
// delivers it: an untyped map.
func fileCitation(span, fileID string) map[string]any {
	return map[string]any{
		"type": "file_citation",
		"text": span,
		"file_citation": map[string]any{
			"file_id": fileID,
		},
	}
}

func TestResolveCitations(t *testing.T) {
	t.Run("rewrites a single citation into a footnote", func(t *testing.T) {
		api := &fakeAPI{files: map[string]string{"f1": "refunds.pdf"}}
		g := testGenerator(api)

		got := g.resolveCitations(context.Background(), response{
			value: "See policy doc【1】.",
			annotations: []annotation{
				{kind: annotationFileCitation, fileID: "f1", span: "【1】"},
			},
		})

		want := "See policy doc [1].\n\n[1] Citation from refunds.pdf"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("deduplicates annotations sharing a file", func(t *testing.T) {
		api := &fakeAPI{files: map[string]string{"f1": "guide.pdf"}}
		g := testGenerator(api)

		got := g.resolveCitations(context.Background(), response{
			value: "First【a】 and second【b】.",
			annotations: []annotation{
				{kind: annotationFileCitation, fileID: "f1", span: "【a】"},
				{kind: annotationFileCitation, fileID: "f1", span: "【b】"},
			},
		})

		if api.fileCalls != 1 {
			t.Errorf("expected one file lookup, got %d", api.fileCalls)
		}
		if strings.Count(got, "Citation from") != 1 {
			t.Errorf("expected one footnote line, got: %q", got)
		}
		if !strings.Contains(got, "First [1] and second [1].") {
			t.Errorf("both markers should share index 1: %q", got)
		}
	})

	t.Run("assigns indices in first-seen order", func(t *testing.T) {
		api := &fakeAPI{files: map[string]string{
			"f1": "one.pdf",
			"f2": "two.pdf",
			"f3": "three.pdf",
		}}
		g := testGenerator(api)

		got := g.resolveCitations(context.Background(), response{
			value: "a【x】 b【y】 c【z】 d【w】",
			annotations: []annotation{
				{kind: annotationFileCitation, fileID: "f2", span: "【x】"},
				{kind: annotationFilePath, fileID: "f1", span: "【y】"},
				{kind: annotationFileCitation, fileID: "f2", span: "【z】"},
				{kind: annotationFileCitation, fileID: "f3", span: "【w】"},
			},
		})

		if !strings.Contains(got, "a [1] b [2] c [1] d [3]") {
			t.Errorf("unexpected marker indices: %q", got)
		}
		wantFootnotes := "[1] Citation from two.pdf\n[2] Citation from one.pdf\n[3] Citation from three.pdf"
		if !strings.Contains(got, wantFootnotes) {
			t.Errorf("footnotes out of order: %q", got)
		}
		if api.fileCalls != 3 {
			t.Errorf("expected 3 file lookups, got %d", api.fileCalls)
		}
	})

	t.Run("is a byte-for-byte no-op without annotations", func(t *testing.T) {
		api := &fakeAPI{}
		g := testGenerator(api)

		value := "Plain answer with【brackets】left alone."
		got := g.resolveCitations(context.Background(), response{value: value})

		if got != value {
			t.Errorf("got %q, want %q", got, value)
		}
		if api.fileCalls != 0 {
			t.Errorf("no remote call expected, got %d", api.fileCalls)
		}
	})

	t.Run("returns the original text when a lookup fails", func(t *testing.T) {
		api := &fakeAPI{fileErr: errors.New("file service down")}
		g := testGenerator(api)

		value := "Cited claim【1】."
		got := g.resolveCitations(context.Background(), response{
			value: value,
			annotations: []annotation{
				{kind: annotationFileCitation, fileID: "f1", span: "【1】"},
			},
		})

		if got != value {
			t.Errorf("expected unmodified text on lookup failure, got %q", got)
		}
	})
}

func TestGenerateWithCitations(t *testing.T) {
	t.Run("end to end: wire annotations become footnotes", func(t *testing.T) {
		api := &fakeAPI{
			createRunStatus: openai.RunStatusCompleted,
			files:           map[string]string{"f1": "refunds.pdf"},
			listResult: textMessages("See policy doc【1】.", []any{
				fileCitation("【1】", "f1"),
			}),
		}
		g := testGenerator(api)

		got, err := g.Generate(context.Background(), "What is the refund policy?")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := "See policy doc [1].\n\n[1] Citation from refunds.pdf"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("malformed annotations degrade to the plain text", func(t *testing.T) {
		api := &fakeAPI{
			createRunStatus: openai.RunStatusCompleted,
			files:           map[string]string{"f1": "refunds.pdf"},
			listResult: textMessages("See policy doc【1】.", []any{
				map[string]any{"type": "hologram", "text": "【1】"},
			}),
		}
		g := testGenerator(api)

		got, err := g.Generate(context.Background(), "hi")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "See policy doc【1】." {
			t.Errorf("expected unmodified text, got %q", got)
		}
		if api.fileCalls != 0 {
			t.Errorf("no file lookup expected for malformed annotations, got %d", api.fileCalls)
		}
	})
}
