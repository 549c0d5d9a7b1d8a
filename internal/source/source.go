// Package source enumerates the documents a pipeline run will embed.
//
// A Source produces the full, deterministically ordered set of documents for
// one run. Determinism matters: resume compares positions against the
// previous enumeration, so two enumerations of an unchanged source must
// yield the same order.
package source

import (
	"context"
	"time"
)

// Format identifies the markup of a document's raw content, selecting the
// normalizer applied before embedding.
type Format int

const (
	// FormatText is plain text, cleaned but not parsed.
	FormatText Format = iota

	// FormatStorage is HTML/XML storage markup from a wiki-style system.
	FormatStorage

	// FormatMarkdown is Markdown.
	FormatMarkdown
)

// String returns the format name for logs.
func (f Format) String() string {
	switch f {
	case FormatStorage:
		return "storage"
	case FormatMarkdown:
		return "markdown"
	default:
		return "text"
	}
}

// Document is one embeddable unit as produced by a source: raw content plus
// the identity and freshness metadata the pipeline needs.
type Document struct {
	// Name is the document's stable name (page title or relative file
	// path). Record ids are derived from it, so it must not depend on the
	// document's position in the enumeration.
	Name string

	// Path locates the document for humans: a file path or page URL.
	Path string

	// Raw is the unprocessed content in the markup Format describes.
	Raw string

	Format Format

	// LastModified is when the source last changed this document. Drives
	// the skip-if-unchanged decision.
	LastModified time.Time
}

// Source enumerates documents for one pipeline run.
type Source interface {
	// Enumerate returns every document in the source, in an order that is
	// stable across calls while the source is unchanged.
	Enumerate(ctx context.Context) ([]Document, error)
}
