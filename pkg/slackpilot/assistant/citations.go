// Package assistant – citations.go rewrites inline citation annotations
// into numbered, deduplicated footnotes.
//
// Two passes over the annotation sequence:
//
//  1. Cataloguing: each fileID gets one citation the first time it appears;
//     the filename is resolved remotely once and cached for the call.
//  2. Substitution: each annotation's literal source span in the text is
//     replaced with " [<index>]".
//
// A footnote list ("[<index>] Citation from <filename>") is appended after
// a blank line, one line per distinct citation in first-seen order.
package assistant

import (
	"context"
	"fmt"
	"strings"
)

// citation is the resolved, numbered rendering of an annotation. Indices
// are 1-based and assigned in first-seen fileID order.
type citation struct {
	index    int
	filename string
}

// resolveCitations rewrites the annotations of resp into footnotes.
// Citation failure must never block the answer: on any lookup error the
// original text is returned unmodified. With no annotations the text is
// returned unchanged and no remote call is made.
func (g *Generator) resolveCitations(ctx context.Context, resp response) string {
	if len(resp.annotations) == 0 {
		return resp.value
	}

	// Pass 1: resolve one citation per distinct fileID, first-seen order.
	byFile := make(map[string]citation, len(resp.annotations))
	order := make([]string, 0, len(resp.annotations))
	for _, ann := range resp.annotations {
		if _, seen := byFile[ann.fileID]; seen {
			continue
		}

		file, err := g.api.GetFile(ctx, ann.fileID)
		if err != nil {
			g.logger.Error("citation lookup failed, returning unannotated text",
				"file_id", ann.fileID,
				"error", err,
			)
			return resp.value
		}

		byFile[ann.fileID] = citation{index: len(order) + 1, filename: file.FileName}
		order = append(order, ann.fileID)
	}

	// Pass 2: replace each literal span with its citation marker. Spans
	// come from the annotation payload, so substitution targets the
	// matched text, not positions.
	text := resp.value
	for _, ann := range resp.annotations {
		marker := fmt.Sprintf(" [%d]", byFile[ann.fileID].index)
		text = strings.Replace(text, ann.span, marker, 1)
	}

	var b strings.Builder
	b.WriteString(text)
	b.WriteString("\n")
	for _, fileID := range order {
		c := byFile[fileID]
		fmt.Fprintf(&b, "\n[%d] Citation from %s", c.index, c.filename)
	}
	return b.String()
}
