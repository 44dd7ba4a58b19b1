// Package indexer builds the FAQ vector index: it embeds each loaded
// question, attaches the answer as payload, and upserts the batch into the
// search backend. Rows that cannot be embedded are skipped rather than
// failing the run, so one bad entry never blocks the rest of the dataset.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/faqops/faqbot-go/internal/faq"
	"github.com/faqops/faqbot-go/internal/logging"
	"github.com/faqops/faqbot-go/internal/rag"
	"github.com/faqops/faqbot-go/internal/util"
)

const (
	defaultEmbedAttempts = 3
	defaultEmbedBackoff  = 500 * time.Millisecond
)

// Summary reports the outcome of an indexing run.
type Summary struct {
	// Attempted is the number of rows loaded from the source.
	Attempted int
	// Indexed is the number of rows successfully embedded and upserted.
	Indexed int
	// Skipped is the number of rows dropped due to embedding failures.
	Skipped int
}

// Config holds the dependencies required to construct a Pipeline.
type Config struct {
	// Embedder converts questions into vectors.
	Embedder rag.Embedder

	// Index is the vector store write surface.
	Index rag.Writer

	// VectorSize, when non-zero, rejects embeddings whose dimension does not
	// match the collection schema instead of letting the upsert fail.
	VectorSize int

	// IDFn derives a point ID from the question text. Defaults to
	// faq.DeterministicID so re-indexing the same dataset overwrites
	// rather than duplicates.
	IDFn func(question string) string

	// EmbedAttempts and EmbedBackoff control per-row retry behaviour.
	// Defaults: 3 attempts, 500ms base backoff.
	EmbedAttempts int
	EmbedBackoff  time.Duration
}

// Pipeline embeds FAQ rows and writes them to the vector store.
type Pipeline struct {
	embedder      rag.Embedder
	index         rag.Writer
	vectorSize    int
	idFn          func(string) string
	embedAttempts int
	embedBackoff  time.Duration
}

// New constructs a Pipeline from the provided Config. Embedder may be nil
// when only BuildServerSide will be used.
func New(cfg *Config) (*Pipeline, error) {
	if cfg.Index == nil {
		return nil, fmt.Errorf("indexer: Index must not be nil")
	}

	idFn := cfg.IDFn
	if idFn == nil {
		idFn = faq.DeterministicID
	}
	attempts := cfg.EmbedAttempts
	if attempts <= 0 {
		attempts = defaultEmbedAttempts
	}
	backoff := cfg.EmbedBackoff
	if backoff <= 0 {
		backoff = defaultEmbedBackoff
	}

	return &Pipeline{
		embedder:      cfg.Embedder,
		index:         cfg.Index,
		vectorSize:    cfg.VectorSize,
		idFn:          idFn,
		embedAttempts: attempts,
		embedBackoff:  backoff,
	}, nil
}

// Build embeds every row and upserts the successful ones as a single batch.
// Rows whose embedding fails after retries, comes back empty, or has the
// wrong dimension are logged and skipped. The batch upsert itself is fatal:
// if the store rejects the write, nothing was indexed and the caller should
// know.
func (p *Pipeline) Build(ctx context.Context, rows []faq.Row) (Summary, error) {
	log := logging.FromContext(ctx)
	sum := Summary{Attempted: len(rows)}
	if p.embedder == nil {
		return sum, fmt.Errorf("indexer: Embedder is required for client-side indexing")
	}

	records := make([]faq.Record, 0, len(rows))
	for _, row := range rows {
		vec, err := p.embedRow(ctx, row.Question)
		if err != nil {
			log.Warn("indexer: skipping row",
				slog.String("question", row.Question),
				slog.Any("error", err))
			sum.Skipped++
			continue
		}
		records = append(records, faq.Record{
			ID:       p.idFn(row.Question),
			Question: row.Question,
			Answer:   row.Answer,
			Vector:   vec,
		})
	}

	if len(records) == 0 {
		return sum, nil
	}

	n, err := p.index.Upsert(ctx, records)
	if err != nil {
		return sum, fmt.Errorf("indexer: upsert failed: %w", err)
	}
	sum.Indexed = n

	log.Info("indexer: run complete",
		slog.Int("attempted", sum.Attempted),
		slog.Int("indexed", sum.Indexed),
		slog.Int("skipped", sum.Skipped))
	return sum, nil
}

// BuildServerSide upserts rows without client-side embedding, delegating
// vectorisation to the store's inference service. Used when the Qdrant
// deployment has cloud inference enabled.
func (p *Pipeline) BuildServerSide(ctx context.Context, rows []faq.Row) (Summary, error) {
	log := logging.FromContext(ctx)
	sum := Summary{Attempted: len(rows)}
	if len(rows) == 0 {
		return sum, nil
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = p.idFn(row.Question)
	}

	n, err := p.index.UpsertInferred(ctx, rows, ids)
	if err != nil {
		return sum, fmt.Errorf("indexer: server-side upsert failed: %w", err)
	}
	sum.Indexed = n

	log.Info("indexer: server-side run complete",
		slog.Int("attempted", sum.Attempted),
		slog.Int("indexed", sum.Indexed))
	return sum, nil
}

// embedRow embeds a single question with bounded retry and validates the
// returned vector.
func (p *Pipeline) embedRow(ctx context.Context, question string) ([]float32, error) {
	var vecs [][]float32
	err := util.Retry(ctx, p.embedAttempts, p.embedBackoff, func() error {
		var embErr error
		vecs, embErr = p.embedder.Embed(ctx, []string{question})
		return embErr
	})
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return nil, fmt.Errorf("embed: empty vector returned")
	}
	if p.vectorSize > 0 && len(vecs[0]) != p.vectorSize {
		return nil, fmt.Errorf("embed: dimension mismatch: got %d, collection expects %d", len(vecs[0]), p.vectorSize)
	}
	return vecs[0], nil
}
