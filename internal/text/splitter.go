// Package text splits documents into retrieval-sized fragments.
package text

import (
	"fmt"

	"paperscout/internal/paper"
)

// Fragment is a bounded-length slice of a document's content. It inherits the
// parent document's metadata so provenance survives retrieval.
type Fragment struct {
	Text string
	Meta paper.Metadata
}

// SplitDocuments breaks each document's content into overlapping windows of
// chunkSize characters, with overlap characters shared between consecutive
// windows. Fragments follow their position in the source text; fragments from
// different documents keep the input document order.
func SplitDocuments(docs []paper.Document, chunkSize, overlap int) ([]Fragment, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("overlap must be smaller than chunk size, got %d/%d", overlap, chunkSize)
	}

	step := chunkSize - overlap
	var fragments []Fragment
	for _, doc := range docs {
		content := []rune(doc.Content)
		if len(content) == 0 {
			continue
		}
		for start := 0; ; start += step {
			end := start + chunkSize
			if end > len(content) {
				end = len(content)
			}
			fragments = append(fragments, Fragment{
				Text: string(content[start:end]),
				Meta: doc.Meta,
			})
			if end == len(content) {
				break
			}
		}
	}
	return fragments, nil
}
