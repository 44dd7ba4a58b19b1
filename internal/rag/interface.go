// Package rag defines the retrieval contracts the FAQ pipelines depend on —
// text embedding and vector-collection access — and the Qdrant
// implementation of the collection side. Keeping the interfaces here means
// the indexer and the chat engine never import a specific backend.
package rag

import (
	"context"

	"github.com/faqops/faqbot-go/internal/faq"
)

// Embedder converts text into dense vector embeddings.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Searcher is the query-time view of the FAQ collection.
// Implementations must be safe to call from multiple goroutines.
type Searcher interface {
	// Search returns the k most similar records to the query vector,
	// most-similar-first, together with the total number of records in the
	// collection (reported as retrieval metadata, mirroring the search
	// service's total-count facility).
	Search(ctx context.Context, vector []float32, k int) ([]faq.Match, uint64, error)
}

// Writer is the index-build-time view of the FAQ collection.
type Writer interface {
	// EnsureCollection creates the collection with the configured vector
	// schema if it does not exist. It is idempotent and never touches
	// existing data unless recreate is true, in which case the collection
	// is deleted and rebuilt empty. Recreation is an explicit opt-in —
	// callers must never default to it.
	EnsureCollection(ctx context.Context, recreate bool) error

	// Upsert writes records keyed by their ID (insert-or-overwrite) and
	// returns the number of records written.
	Upsert(ctx context.Context, recs []faq.Record) (int, error)

	// UpsertInferred writes raw rows and delegates embedding of the
	// question text to the search service's own inference pipeline.
	// Functionally equivalent to embedding client-side and calling Upsert.
	UpsertInferred(ctx context.Context, rows []faq.Row, ids []string) (int, error)
}

// Index combines both views plus lifecycle. *QdrantIndex satisfies it.
type Index interface {
	Searcher
	Writer

	// Ping reports whether the backing service is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the index.
	Close() error
}
