// Package faq defines the FAQ record model shared by the indexing pipeline
// and the chat engine, plus the CSV source loader. Records are persisted
// only in the external vector-search collection — this package holds no
// durable state of its own.
package faq

import (
	"github.com/google/uuid"
)

// idNamespace is the fixed UUIDv5 namespace for deterministic record IDs.
// Changing it invalidates every previously indexed collection, so it is a
// constant rather than configuration.
var idNamespace = uuid.MustParse("8f6b2a44-1f3e-4c0a-9d5b-7e2f31c0a9e1")

// Row is one question/answer pair as read from the tabular source,
// before embedding.
type Row struct {
	// Question is the natural-language prompt a user might ask.
	Question string
	// Answer is the canonical response.
	Answer string
}

// Record is the unit of knowledge stored in the vector-search collection.
type Record struct {
	// ID is the upsert key. See DeterministicID and RandomID.
	ID string
	// Question is the indexed question text.
	Question string
	// Answer is the indexed answer text.
	Answer string
	// Vector is the question's embedding. Records with an empty vector are
	// never persisted — the indexer drops them instead.
	Vector []float32
}

// Match is one retrieval result for a query, most-similar-first in the
// slice returned by the index. Matches are ephemeral: built per query,
// rendered into the chat context, then discarded.
type Match struct {
	// Question is the stored question text of the matched record.
	Question string
	// Answer is the stored answer text of the matched record.
	Answer string
	// Score is the provider-assigned similarity score.
	Score float32
}

// DeterministicID derives a stable UUID from the question text, so
// re-indexing the same source overwrites prior records instead of
// duplicating them. This is the default ID scheme.
func DeterministicID(question string) string {
	return uuid.NewSHA1(idNamespace, []byte(question)).String()
}

// RandomID returns a fresh UUIDv4. Opt-in via `index --random-ids`; every
// indexing run then inserts new records regardless of content.
func RandomID() string {
	return uuid.NewString()
}
