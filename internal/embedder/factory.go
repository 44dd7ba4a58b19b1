package embedder

import (
	"fmt"
	"os"
	"strconv"

	"github.com/faqops/faqbot-go/internal/rag"
)

// Default embedding models per backend. The FAQ collections were built with
// text-embedding-3-large, so that is the default for the hosted backends.
const (
	defaultOpenAIModel = "text-embedding-3-large"
	defaultOllamaModel = "nomic-embed-text"

	// defaultOpenAIDimensions is the output width of text-embedding-3-large.
	defaultOpenAIDimensions = 3072
	// defaultOllamaDimensions is the output width of nomic-embed-text.
	defaultOllamaDimensions = 768
)

// DefaultDimensions returns the embedding vector width for the given backend.
// Callers that pre-configure the vector collection must use this rather than
// hardcoding a value, so the collection schema and the embedder can never
// disagree. EMBEDDING_DIMENSIONS always takes precedence when set.
func DefaultDimensions(backend string) int {
	if v := getEnvInt("EMBEDDING_DIMENSIONS", 0); v > 0 {
		return v
	}
	if backend == "ollama" {
		return defaultOllamaDimensions
	}
	return defaultOpenAIDimensions
}

// Backend returns the effective embedding backend name. EMBEDDING_PROVIDER
// wins; otherwise the chat provider's backend is inherited so a plain
// MODEL_PROVIDER=azure setup embeds through Azure too.
func Backend() string {
	if b := os.Getenv("EMBEDDING_PROVIDER"); b != "" {
		return b
	}
	return getEnvOrDefault("MODEL_PROVIDER", "openai")
}

// NewFromEnv constructs a rag.Embedder from environment variables.
//
// Resolution order:
//
//  1. EMBEDDING_PROVIDER — if unset, inherits MODEL_PROVIDER (default: openai)
//  2. Per-backend credentials inherit the chat provider's env vars
//  3. EMBEDDING_MODEL — overrides the backend's default model
//  4. EMBEDDING_API_KEY / EMBEDDING_ENDPOINT — override inherited credentials
//  5. EMBEDDING_DIMENSIONS — overrides the default width (openai/azure: 3072, ollama: 768)
func NewFromEnv() (rag.Embedder, error) {
	backend := Backend()

	switch backend {
	case "openai":
		apiKey := getEnvOrDefault("EMBEDDING_API_KEY", os.Getenv("OPENAI_API_KEY"))
		if apiKey == "" {
			return nil, fmt.Errorf("embedder: openai requires OPENAI_API_KEY or EMBEDDING_API_KEY")
		}
		return NewOpenAIEmbedder(&OpenAIConfig{
			BaseURL:    getEnvOrDefault("EMBEDDING_ENDPOINT", "https://api.openai.com/v1"),
			APIKey:     apiKey,
			Model:      getEnvOrDefault("EMBEDDING_MODEL", defaultOpenAIModel),
			Dimensions: getEnvInt("EMBEDDING_DIMENSIONS", defaultOpenAIDimensions),
		}), nil

	case "azure":
		apiKey := getEnvOrDefault("EMBEDDING_API_KEY", os.Getenv("AZURE_OPENAI_API_KEY"))
		if apiKey == "" {
			return nil, fmt.Errorf("embedder: azure requires AZURE_OPENAI_API_KEY or EMBEDDING_API_KEY")
		}
		endpoint := getEnvOrDefault("EMBEDDING_ENDPOINT", os.Getenv("AZURE_OPENAI_ENDPOINT"))
		if endpoint == "" {
			return nil, fmt.Errorf("embedder: azure requires AZURE_OPENAI_ENDPOINT or EMBEDDING_ENDPOINT")
		}
		return NewOpenAIEmbedder(&OpenAIConfig{
			BaseURL:    endpoint + "/openai",
			APIKey:     apiKey,
			Model:      getEnvOrDefault("EMBEDDING_MODEL", defaultOpenAIModel),
			Dimensions: getEnvInt("EMBEDDING_DIMENSIONS", defaultOpenAIDimensions),
			Azure:      true,
			APIVersion: getEnvOrDefault("AZURE_OPENAI_API_VERSION", "2025-04-01-preview"),
		}), nil

	case "ollama":
		host := getEnvOrDefault("EMBEDDING_ENDPOINT", getEnvOrDefault("OLLAMA_HOST", "http://localhost:11434"))
		return NewOllamaEmbedder(&OllamaConfig{
			Host:  host,
			Model: getEnvOrDefault("EMBEDDING_MODEL", defaultOllamaModel),
		}), nil

	default:
		return nil, fmt.Errorf("embedder: unknown backend %q — valid values: openai, azure, ollama", backend)
	}
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
