// Package budget provides token budget estimation and retrieval-context
// trimming for the FAQ bot. Because the bot supports multiple LLM backends
// with different tokenizers, this package uses a conservative character-based
// heuristic: 1 token ≈ 4 characters (English prose). This deliberately
// under-estimates token counts to leave headroom for model-specific overhead.
package budget

import (
	"github.com/cloudwego/eino/schema"
)

const (
	// charsPerToken is the conservative character-to-token ratio used for
	// estimation. 4 chars/token is standard for English; using 3 would be
	// more aggressive but risks overflowing context windows.
	charsPerToken = 4

	// DefaultMaxContextTokens is the default input context budget in tokens.
	// Conservative enough to fit within 8k-context models (Llama 3 8B,
	// GPT-3.5) while leaving room for the output.
	DefaultMaxContextTokens = 6000
)

// Estimate returns a rough token count for s using the character heuristic.
func Estimate(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// EstimateMessages returns the estimated total token count for a slice of
// schema.Message values, summing role + content for each message.
func EstimateMessages(msgs []*schema.Message) int {
	total := 0
	for _, m := range msgs {
		// Each message has a small per-message overhead (~4 tokens in most APIs).
		total += 4
		total += Estimate(string(m.Role))
		total += Estimate(m.Content)
	}
	return total
}

// TrimContext drops retrieved FAQ context lines until the lines plus
// reserved tokens (system preamble + user question) fit within maxTokens.
// Lines are assumed ranked best-first, so trimming removes from the tail:
// the weakest matches go first. Each retained line costs its own estimate
// plus one token for the joining newline.
//
// If even a single line cannot fit, the empty slice is returned; the caller
// proceeds with no context rather than failing the turn.
func TrimContext(lines []string, reserved, maxTokens int) []string {
	for len(lines) > 0 {
		total := reserved
		for _, l := range lines {
			total += Estimate(l) + 1
		}
		if total <= maxTokens {
			break
		}
		lines = lines[:len(lines)-1]
	}
	return lines
}
