package budget

import (
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
)

func Test_Estimate(t *testing.T) {
	t.Parallel()
	cases := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"a", 1},        // < 4 chars → 1
		{"abcd", 1},     // exactly 4 chars → 1
		{"abcdefgh", 2}, // 8 chars → 2
		{strings.Repeat("x", 400), 100},
	}
	for _, tc := range cases {
		got := Estimate(tc.input)
		if got != tc.want {
			t.Errorf("Estimate(%q) = %d, want %d", tc.input, got, tc.want)
		}
	}
}

func Test_EstimateMessages(t *testing.T) {
	t.Parallel()
	msgs := []*schema.Message{
		schema.UserMessage("hello world"),
		schema.UserMessage("hello world"),
	}
	got := EstimateMessages(msgs)
	// Each message: 4 overhead + Estimate("user")=1 + Estimate("hello world")=2 = 7
	if got != 14 {
		t.Errorf("EstimateMessages = %d, want 14", got)
	}
}

func Test_TrimContext_NoTrimNeeded(t *testing.T) {
	t.Parallel()
	lines := []string{"- Question: a, Answer: b", "- Question: c, Answer: d"}
	got := TrimContext(lines, 100, DefaultMaxContextTokens)
	if len(got) != 2 {
		t.Errorf("trimmed %d lines, want 0 trimmed", 2-len(got))
	}
}

func Test_TrimContext_DropsWeakestFirst(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("x", 400) // 100 tokens + 1 newline each
	lines := []string{"best " + long, "mid " + long, "worst " + long}

	got := TrimContext(lines, 0, 210)
	if len(got) != 2 {
		t.Fatalf("kept %d lines, want 2", len(got))
	}
	if !strings.HasPrefix(got[0], "best") || !strings.HasPrefix(got[1], "mid") {
		t.Errorf("wrong lines kept: %q", got)
	}
}

func Test_TrimContext_AllDroppedWhenReservedExceedsBudget(t *testing.T) {
	t.Parallel()
	lines := []string{"- Question: a, Answer: b"}
	got := TrimContext(lines, 7000, DefaultMaxContextTokens)
	if len(got) != 0 {
		t.Errorf("kept %d lines, want 0", len(got))
	}
}
