package server

import (
	"context"
	"fmt"

	"github.com/faqops/faqbot-go/internal/rag"
)

// IndexPinger probes the vector store using its native health check RPC.
// It satisfies the Pinger interface and is used by GET /api/ready.
type IndexPinger struct {
	// index is the vector store to probe.
	index rag.Index
}

// NewIndexPinger constructs an IndexPinger for the given index.
func NewIndexPinger(index rag.Index) *IndexPinger {
	return &IndexPinger{index: index}
}

// Name returns the dependency label used in readiness responses.
func (p *IndexPinger) Name() string { return "qdrant" }

// Ping calls the vector store's health check.
// Returns nil if the store is reachable, or a descriptive error otherwise.
func (p *IndexPinger) Ping(ctx context.Context) error {
	if err := p.index.Ping(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// EmbedderPinger probes the embedding backend by embedding a single short
// string. Cheap compared to a chat completion, and exercises the same
// credentials and endpoint the answer path uses.
type EmbedderPinger struct {
	// embedder is the embedding backend to probe.
	embedder rag.Embedder
	// name identifies the backend in readiness responses (e.g. "openai").
	name string
}

// NewEmbedderPinger constructs an EmbedderPinger for the given backend name.
func NewEmbedderPinger(e rag.Embedder, name string) *EmbedderPinger {
	return &EmbedderPinger{embedder: e, name: name}
}

// Name returns the backend label used in readiness responses.
func (p *EmbedderPinger) Name() string { return p.name }

// Ping embeds a single probe string and verifies a non-empty vector comes back.
func (p *EmbedderPinger) Ping(ctx context.Context) error {
	vecs, err := p.embedder.Embed(ctx, []string{"ping"})
	if err != nil {
		return fmt.Errorf("embed failed: %w", err)
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return fmt.Errorf("embed returned an empty vector")
	}
	return nil
}
