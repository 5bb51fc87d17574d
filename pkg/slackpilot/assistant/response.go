// Package assistant – response.go extracts the assistant's reply from the
// thread and ingests its citation annotations.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
)

// Sentinel reply values. These are displayable results, not errors: the
// caller always receives some text to show the user.
const (
	noResponseMessage    = "No response received from the assistant"
	noTextContentMessage = "No text content found in the assistant's response"
)

// messageContentText is the content block type carrying the reply text.
const messageContentText = "text"

// response is the extracted assistant reply: the raw text plus the citation
// annotations found in it, in payload order.
type response struct {
	value       string
	annotations []annotation
}

// annotationKind is a closed set: annotations are classified exactly once
// at ingestion and never re-probed downstream.
type annotationKind int

const (
	annotationFileCitation annotationKind = iota
	annotationFilePath
)

// annotation is one inline citation marker in the reply text.
type annotation struct {
	kind annotationKind

	// fileID references the source file backing the citation.
	fileID string

	// span is the literal substring of the reply text the marker occupies.
	span string
}

// latestResponse fetches the newest message in the thread (one network call)
// and isolates its first text content block. Missing messages or text
// blocks yield sentinel values, not errors.
func (g *Generator) latestResponse(ctx context.Context, threadID string) (response, error) {
	limit := 1
	order := "desc"
	msgs, err := g.api.ListMessage(ctx, threadID, &limit, &order, nil, nil, nil)
	if err != nil {
		return response{}, fmt.Errorf("listing messages: %w", err)
	}

	if len(msgs.Messages) == 0 {
		return response{value: noResponseMessage}, nil
	}

	for _, part := range msgs.Messages[0].Content {
		if part.Type != messageContentText || part.Text == nil {
			continue
		}

		anns, err := parseAnnotations(part.Text.Annotations)
		if err != nil {
			// Unusable annotations must never block the answer: deliver
			// the text as-is, without citation rewriting.
			g.logger.Error("dropping unusable annotations", "thread_id", threadID, "error", err)
			return response{value: part.Text.Value}, nil
		}
		return response{value: part.Text.Value, annotations: anns}, nil
	}

	return response{value: noTextContentMessage}, nil
}

// wireAnnotation mirrors the annotation payload shape of the Assistants API.
// go-openai delivers annotations untyped, so ingestion re-marshals each
// entry into this struct.
type wireAnnotation struct {
	Type         string `json:"type"`
	Text         string `json:"text"`
	FileCitation *struct {
		FileID string `json:"file_id"`
	} `json:"file_citation,omitempty"`
	FilePath *struct {
		FileID string `json:"file_id"`
	} `json:"file_path,omitempty"`
}

// parseAnnotations converts raw annotation payloads into the typed union.
// Any malformed entry fails the whole batch; the caller degrades to the
// unannotated text.
func parseAnnotations(raw []any) ([]annotation, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	anns := make([]annotation, 0, len(raw))
	for i, entry := range raw {
		data, err := json.Marshal(entry)
		if err != nil {
			return nil, fmt.Errorf("annotation %d: %w", i, err)
		}

		var wire wireAnnotation
		if err := json.Unmarshal(data, &wire); err != nil {
			return nil, fmt.Errorf("annotation %d: %w", i, err)
		}
		if wire.Text == "" {
			return nil, fmt.Errorf("annotation %d: empty source span", i)
		}

		switch wire.Type {
		case "file_citation":
			if wire.FileCitation == nil || wire.FileCitation.FileID == "" {
				return nil, fmt.Errorf("annotation %d: file_citation without file_id", i)
			}
			anns = append(anns, annotation{
				kind:   annotationFileCitation,
				fileID: wire.FileCitation.FileID,
				span:   wire.Text,
			})
		case "file_path":
			if wire.FilePath == nil || wire.FilePath.FileID == "" {
				return nil, fmt.Errorf("annotation %d: file_path without file_id", i)
			}
			anns = append(anns, annotation{
				kind:   annotationFilePath,
				fileID: wire.FilePath.FileID,
				span:   wire.Text,
			})
		default:
			return nil, fmt.Errorf("annotation %d: unknown type %q", i, wire.Type)
		}
	}

	return anns, nil
}
