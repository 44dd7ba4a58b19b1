package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/faqops/faqbot-go/internal/blob"
	"github.com/faqops/faqbot-go/internal/chat"
	"github.com/faqops/faqbot-go/internal/embedder"
	"github.com/faqops/faqbot-go/internal/faq"
	"github.com/faqops/faqbot-go/internal/provider"
	"github.com/faqops/faqbot-go/internal/rag"
	"github.com/faqops/faqbot-go/internal/store"
)

// defaultCollection is the Qdrant collection holding the FAQ index.
const defaultCollection = "faq"

// buildIndex connects to Qdrant using the QDRANT_* environment variables.
// The caller owns closing the returned index.
func buildIndex() (*rag.QdrantIndex, error) {
	embBackend := embedder.Backend()

	cfg := &rag.QdrantConfig{
		Host:           getEnvOrDefault("QDRANT_HOST", "localhost"),
		Port:           getEnvInt("QDRANT_PORT", 6334),
		Collection:     getEnvOrDefault("QDRANT_COLLECTION", defaultCollection),
		VectorSize:     uint64(embedder.DefaultDimensions(embBackend)), //nolint:gosec // dimensions are bounded
		InferenceModel: os.Getenv("QDRANT_INFERENCE_MODEL"),
		APIKey:         os.Getenv("QDRANT_API_KEY"),
		UseTLS:         os.Getenv("QDRANT_TLS") == "true",
	}

	index, err := rag.NewQdrantIndex(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant at %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return index, nil
}

// buildEngine wires the embedder, index, chat model, and optional history
// store into an answer engine. The returned cleanup closes everything the
// engine holds open.
func buildEngine(ctx context.Context, log *slog.Logger) (*chat.Engine, func(), error) {
	cleanup := func() {}

	if err := embedder.Validate(log); err != nil {
		return nil, cleanup, err
	}
	emb, err := embedder.NewFromEnv()
	if err != nil {
		return nil, cleanup, fmt.Errorf("failed to initialise embedder: %w", err)
	}

	index, err := buildIndex()
	if err != nil {
		return nil, cleanup, err
	}

	chatModel, err := provider.NewFromEnv(ctx)
	if err != nil {
		index.Close()
		return nil, cleanup, fmt.Errorf("failed to initialise model provider: %w", err)
	}

	history, closeHistory := openHistory(log)

	engine, err := chat.New(&chat.Config{
		Embedder:         emb,
		Index:            index,
		Model:            chatModel,
		TopK:             getEnvInt("CHAT_TOP_K", 0),
		MaxContextTokens: getEnvInt("CHAT_MAX_CONTEXT_TOKENS", 0),
		History:          history,
	})
	if err != nil {
		closeHistory()
		index.Close()
		return nil, cleanup, err
	}

	cleanup = func() {
		closeHistory()
		index.Close()
	}
	return engine, cleanup, nil
}

// openHistory opens the turn history store. FAQBOT_HISTORY_DB overrides the
// default path (~/.faqbot/history.db); "disabled" turns persistence off.
// Failures are non-fatal: the bot runs without history.
func openHistory(log *slog.Logger) (store.TurnLog, func()) {
	dbPath := os.Getenv("FAQBOT_HISTORY_DB")
	if dbPath == "disabled" {
		log.Info("history: disabled via FAQBOT_HISTORY_DB=disabled")
		return nil, func() {}
	}
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			log.Warn("history: could not resolve default DB path, disabling", slog.Any("error", err))
			return nil, func() {}
		}
	}
	hs, err := store.Open(dbPath)
	if err != nil {
		log.Warn("history: failed to open store, disabling", slog.Any("error", err))
		return nil, func() {}
	}
	log.Info("history: store opened", slog.String("path", dbPath))
	return hs, func() { _ = hs.Close() }
}

// loadRows reads FAQ rows from either a local CSV file or an object in the
// configured blob bucket. Exactly one of filePath and blobKey is non-empty.
func loadRows(ctx context.Context, filePath, blobKey string, log *slog.Logger) ([]faq.Row, error) {
	var r io.ReadCloser
	if blobKey != "" {
		bs, err := blob.New(blob.ConfigFromEnv(), log)
		if err != nil {
			return nil, err
		}
		r, err = bs.Fetch(ctx, blobKey)
		if err != nil {
			return nil, err
		}
	} else {
		f, err := os.Open(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", filePath, err)
		}
		r = f
	}
	defer r.Close()

	rows, err := faq.LoadCSV(r, log)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// getEnvOrDefault returns the value of the named environment variable, or
// fallback if the variable is unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the integer value of the named environment variable, or
// fallback if the variable is unset, empty, or not parseable.
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
