package paper

import (
	"fmt"
	"strings"
)

// Enrich rewrites the document content to a standardized provenance-prefixed
// form so that retrieved fragments always surface their source, even when the
// metadata is not read separately. The transform is deterministic: the same
// input always yields the same output.
func Enrich(doc Document) Document {
	name := doc.Meta.SourceName
	if name == "" {
		name = strings.ToUpper(doc.Meta.SourceID)
	}
	doc.Content = fmt.Sprintf(
		"SOURCE: %s\nTITLE: %s\nDATE: %s\nLINK: %s\nSUMMARY: %s",
		name, doc.Meta.Title, doc.Meta.Published, doc.Meta.URL, doc.Content,
	)
	return doc
}

// EnrichAll applies Enrich to every document, preserving count and order.
func EnrichAll(docs []Document) []Document {
	out := make([]Document, len(docs))
	for i, doc := range docs {
		out[i] = Enrich(doc)
	}
	return out
}
