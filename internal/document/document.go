// Package document provides document loading for ingestion.
package document

// Metadata identifies where a piece of text came from.
type Metadata struct {
	// Source is the originating file name.
	Source string `json:"source"`

	// Page is the 1-based page number within the source.
	Page int `json:"page"`
}

// Document is one page of raw source text plus its metadata.
// Documents are immutable once loaded.
type Document struct {
	Text     string
	Metadata Metadata
}
