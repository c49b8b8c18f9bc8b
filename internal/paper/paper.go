// Package paper defines the document model flowing through the ingestion
// pipeline, from source adapters to the vector index.
package paper

// Metadata carries the provenance of a document. Every source adapter stamps
// SourceID and SourceName on the documents it returns.
type Metadata struct {
	SourceID   string
	SourceName string
	Title      string
	Published  string
	URL        string
	Extra      map[string]string
}

// Document is one paper returned by a source adapter. Content holds the text
// to be indexed (usually the abstract); Meta is immutable after creation.
type Document struct {
	Content string
	Meta    Metadata
}
