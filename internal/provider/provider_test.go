package provider

import (
	"strings"
	"testing"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MODEL_PROVIDER", "MODEL_MAX_TOKENS", "MODEL_TEMPERATURE",
		"OLLAMA_HOST", "OLLAMA_MODEL",
		"OPENAI_API_KEY", "OPENAI_MODEL",
		"AZURE_OPENAI_API_KEY", "AZURE_OPENAI_ENDPOINT",
		"AZURE_OPENAI_DEPLOYMENT", "AZURE_OPENAI_API_VERSION",
		"GOOGLE_API_KEY", "GEMINI_MODEL",
	} {
		t.Setenv(key, "")
	}
}

func TestConfigFromEnvDefaults(t *testing.T) {
	clearProviderEnv(t)

	cfg := ConfigFromEnv()
	if cfg.Backend != BackendOpenAI {
		t.Errorf("default backend = %q, want %q", cfg.Backend, BackendOpenAI)
	}
	if cfg.Model != "gpt-4o" {
		t.Errorf("default model = %q, want gpt-4o", cfg.Model)
	}
	if cfg.MaxTokens != 4096 {
		t.Errorf("default max tokens = %d, want 4096", cfg.MaxTokens)
	}
	if cfg.Temperature != 0.2 {
		t.Errorf("default temperature = %v, want 0.2", cfg.Temperature)
	}
}

func TestConfigFromEnvOllama(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("MODEL_PROVIDER", "ollama")
	t.Setenv("OLLAMA_MODEL", "mistral")

	cfg := ConfigFromEnv()
	if cfg.Backend != BackendOllama {
		t.Fatalf("backend = %q, want ollama", cfg.Backend)
	}
	if cfg.BaseURL != "http://localhost:11434" {
		t.Errorf("base URL = %q, want default Ollama host", cfg.BaseURL)
	}
	if cfg.Model != "mistral" {
		t.Errorf("model = %q, want mistral", cfg.Model)
	}
}

func TestConfigFromEnvAzure(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("MODEL_PROVIDER", "azure")
	t.Setenv("AZURE_OPENAI_API_KEY", "key")
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://example.openai.azure.com")
	t.Setenv("AZURE_OPENAI_DEPLOYMENT", "gpt-4.1")

	cfg := ConfigFromEnv()
	if cfg.AzureDeployment != "gpt-4.1" {
		t.Errorf("deployment = %q, want gpt-4.1", cfg.AzureDeployment)
	}
	if cfg.AzureAPIVersion == "" {
		t.Error("expected default API version to be set")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestValidateMissingCredentials(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
		want string
	}{
		{"openai no key", &Config{Backend: BackendOpenAI}, "OPENAI_API_KEY"},
		{"azure no key", &Config{Backend: BackendAzure, BaseURL: "https://x", AzureDeployment: "d"}, "AZURE_OPENAI_API_KEY"},
		{"azure no endpoint", &Config{Backend: BackendAzure, APIKey: "k", AzureDeployment: "d"}, "AZURE_OPENAI_ENDPOINT"},
		{"azure no deployment", &Config{Backend: BackendAzure, APIKey: "k", BaseURL: "https://x"}, "AZURE_OPENAI_DEPLOYMENT"},
		{"gemini no key", &Config{Backend: BackendGemini}, "GOOGLE_API_KEY"},
		{"unknown backend", &Config{Backend: "bedrock"}, "unknown backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidateOllamaNeedsNothing(t *testing.T) {
	cfg := &Config{Backend: BackendOllama}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}
