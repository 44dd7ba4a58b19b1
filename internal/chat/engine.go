// Package chat implements the retrieval-augmented answer flow: embed the
// user's question, search the FAQ index for the closest entries, fold them
// into a context block, and ask the chat model to answer grounded in that
// context.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/faqops/faqbot-go/internal/budget"
	"github.com/faqops/faqbot-go/internal/faq"
	"github.com/faqops/faqbot-go/internal/logging"
	"github.com/faqops/faqbot-go/internal/rag"
	"github.com/faqops/faqbot-go/internal/store"
	"github.com/faqops/faqbot-go/internal/util"
)

// systemPreamble instructs the model to ground its answer in the retrieved
// FAQ entries. The context block is appended directly after it.
const systemPreamble = "You are an AI assistant. Use the following context to answer:\n"

// ErrEmptyQuestion is returned when the question is empty or whitespace-only.
var ErrEmptyQuestion = errors.New("chat: question must not be empty")

const (
	defaultTopK          = 5
	defaultEmbedAttempts = 3
	defaultEmbedBackoff  = 500 * time.Millisecond
)

// Generator is the minimal chat-completion surface the engine needs.
// Satisfied by any Eino ChatModel.
type Generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Config holds the dependencies required to construct an Engine.
type Config struct {
	// Embedder converts the question into a vector for similarity search.
	Embedder rag.Embedder

	// Index is the vector search backend over indexed FAQ entries.
	Index rag.Searcher

	// Model is the chat-completion backend constructed by the provider factory.
	Model Generator

	// TopK controls how many FAQ entries are retrieved per question.
	// Defaults to 5 if zero.
	TopK int

	// MaxContextTokens is the estimated token budget for the full input
	// (preamble + context + question). Retrieved entries are trimmed
	// weakest-first to fit. Defaults to budget.DefaultMaxContextTokens if zero.
	MaxContextTokens int

	// History is the optional turn log used to persist conversations.
	// May be nil, in which case turns are not recorded.
	History store.TurnLog
}

// Engine answers questions using retrieval-augmented generation over an
// indexed FAQ collection.
type Engine struct {
	embedder         rag.Embedder
	index            rag.Searcher
	model            Generator
	topK             int
	maxContextTokens int
	history          store.TurnLog

	embedAttempts int
	embedBackoff  time.Duration
}

// New constructs an Engine from the provided Config.
func New(cfg *Config) (*Engine, error) {
	if cfg.Model == nil {
		return nil, fmt.Errorf("chat: Model must not be nil")
	}
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("chat: Embedder must not be nil")
	}
	if cfg.Index == nil {
		return nil, fmt.Errorf("chat: Index must not be nil")
	}

	topK := cfg.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	maxCtx := cfg.MaxContextTokens
	if maxCtx <= 0 {
		maxCtx = budget.DefaultMaxContextTokens
	}

	return &Engine{
		embedder:         cfg.Embedder,
		index:            cfg.Index,
		model:            cfg.Model,
		topK:             topK,
		maxContextTokens: maxCtx,
		history:          cfg.History,
		embedAttempts:    defaultEmbedAttempts,
		embedBackoff:     defaultEmbedBackoff,
	}, nil
}

// Answer runs one full turn: embed the question, retrieve the closest FAQ
// entries, and generate a grounded answer.
//
// Retrieval is best-effort: if embedding or search fails, the turn proceeds
// with an empty context block and the failure is logged. A chat-completion
// failure is fatal for the turn and returned to the caller.
func (e *Engine) Answer(ctx context.Context, sessionID, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}

	log := logging.FromContext(ctx)

	contextBlock := e.retrieve(ctx, question, log)

	messages := []*schema.Message{
		schema.SystemMessage(systemPreamble + contextBlock),
		schema.UserMessage(question),
	}

	resp, err := e.model.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("chat: completion failed: %w", err)
	}

	answer := resp.Content

	if e.history != nil {
		if err := e.history.Append(ctx, sessionID, store.RoleUser, question); err != nil {
			log.Warn("history: failed to persist question", slog.Any("error", err))
		}
		if err := e.history.Append(ctx, sessionID, store.RoleAssistant, answer); err != nil {
			log.Warn("history: failed to persist answer", slog.Any("error", err))
		}
	}

	return answer, nil
}

// retrieve embeds the question and searches the index, returning the
// formatted context block. Any failure degrades to an empty block: the
// model still sees the question, just without grounding.
func (e *Engine) retrieve(ctx context.Context, question string, log *slog.Logger) string {
	var vecs [][]float32
	err := util.Retry(ctx, e.embedAttempts, e.embedBackoff, func() error {
		var embErr error
		vecs, embErr = e.embedder.Embed(ctx, []string{question})
		return embErr
	})
	if err != nil {
		log.Warn("retrieval: failed to embed question, answering without context",
			slog.Any("error", err))
		return ""
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		log.Warn("retrieval: embedder returned an empty vector, answering without context")
		return ""
	}

	matches, total, err := e.index.Search(ctx, vecs[0], e.topK)
	if err != nil {
		log.Warn("retrieval: search failed, answering without context",
			slog.Any("error", err))
		return ""
	}

	log.Debug("retrieval: search complete",
		slog.Int("matches", len(matches)),
		slog.Uint64("collection_size", total))

	return e.buildContext(question, matches)
}

// buildContext formats the retrieved matches as one line per FAQ entry,
// trimmed weakest-first to the token budget.
func (e *Engine) buildContext(question string, matches []faq.Match) string {
	if len(matches) == 0 {
		return ""
	}
	lines := make([]string, 0, len(matches))
	for _, m := range matches {
		lines = append(lines, fmt.Sprintf("- Question: %s, Answer: %s", m.Question, m.Answer))
	}
	reserved := budget.Estimate(systemPreamble) + budget.Estimate(question)
	lines = budget.TrimContext(lines, reserved, e.maxContextTokens)
	return strings.Join(lines, "\n")
}
