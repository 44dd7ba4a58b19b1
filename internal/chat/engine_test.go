package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/faqops/faqbot-go/internal/faq"
	"github.com/faqops/faqbot-go/internal/store"
)

type fakeEmbedder struct {
	vecs [][]float32
	err  error
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vecs, nil
}

type fakeSearcher struct {
	matches []faq.Match
	err     error
	called  bool
	gotK    int
}

func (f *fakeSearcher) Search(_ context.Context, _ []float32, k int) ([]faq.Match, uint64, error) {
	f.called = true
	f.gotK = k
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.matches, uint64(len(f.matches)), nil
}

type fakeModel struct {
	answer string
	err    error
	got    []*schema.Message
}

func (f *fakeModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.got = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.answer, nil), nil
}

type fakeTurnLog struct {
	entries []store.Turn
	err     error
}

func (f *fakeTurnLog) Append(_ context.Context, sessionID string, role store.Role, content string) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, store.Turn{SessionID: sessionID, Role: role, Content: content})
	return nil
}

func (f *fakeTurnLog) Recent(_ context.Context, _ string, _ int) ([]store.Turn, error) {
	return f.entries, nil
}

func (f *fakeTurnLog) Close() error { return nil }

func newTestEngine(t *testing.T, cfg *Config) *Engine {
	t.Helper()
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e.embedAttempts = 1
	e.embedBackoff = time.Millisecond
	return e
}

func Test_Answer_EmptyQuestion(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, &Config{
		Embedder: &fakeEmbedder{},
		Index:    &fakeSearcher{},
		Model:    &fakeModel{answer: "x"},
	})

	for _, q := range []string{"", "   ", "\t\n"} {
		if _, err := e.Answer(context.Background(), "s1", q); !errors.Is(err, ErrEmptyQuestion) {
			t.Errorf("Answer(%q) error = %v, want ErrEmptyQuestion", q, err)
		}
	}
}

func Test_Answer_WithContext(t *testing.T) {
	t.Parallel()
	searcher := &fakeSearcher{matches: []faq.Match{
		{Question: "How do I reset my password?", Answer: "Use the reset link.", Score: 0.91},
		{Question: "Where is billing?", Answer: "Under account settings.", Score: 0.55},
	}}
	mdl := &fakeModel{answer: "Use the reset link."}
	e := newTestEngine(t, &Config{
		Embedder: &fakeEmbedder{vecs: [][]float32{{0.1, 0.2}}},
		Index:    searcher,
		Model:    mdl,
	})

	got, err := e.Answer(context.Background(), "s1", "How do I reset my password?")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if got != "Use the reset link." {
		t.Errorf("answer = %q", got)
	}
	if searcher.gotK != 5 {
		t.Errorf("search k = %d, want default 5", searcher.gotK)
	}

	if len(mdl.got) != 2 {
		t.Fatalf("model received %d messages, want 2", len(mdl.got))
	}
	sys := mdl.got[0]
	if sys.Role != schema.System {
		t.Errorf("first message role = %q, want system", sys.Role)
	}
	if !strings.HasPrefix(sys.Content, systemPreamble) {
		t.Errorf("system message missing preamble: %q", sys.Content)
	}
	wantCtx := "- Question: How do I reset my password?, Answer: Use the reset link.\n" +
		"- Question: Where is billing?, Answer: Under account settings."
	if !strings.Contains(sys.Content, wantCtx) {
		t.Errorf("system message missing context block:\n%q", sys.Content)
	}
	if mdl.got[1].Role != schema.User || mdl.got[1].Content != "How do I reset my password?" {
		t.Errorf("unexpected user message: %+v", mdl.got[1])
	}
}

func Test_Answer_EmbedFailureDegradesToNoContext(t *testing.T) {
	t.Parallel()
	searcher := &fakeSearcher{}
	mdl := &fakeModel{answer: "best effort"}
	e := newTestEngine(t, &Config{
		Embedder: &fakeEmbedder{err: errors.New("embedding backend down")},
		Index:    searcher,
		Model:    mdl,
	})

	got, err := e.Answer(context.Background(), "s1", "anything")
	if err != nil {
		t.Fatalf("Answer should not fail on retrieval error, got %v", err)
	}
	if got != "best effort" {
		t.Errorf("answer = %q", got)
	}
	if searcher.called {
		t.Error("search should not run when embedding fails")
	}
	if mdl.got[0].Content != systemPreamble {
		t.Errorf("system message should carry no context, got %q", mdl.got[0].Content)
	}
}

func Test_Answer_EmptyVectorSkipsSearch(t *testing.T) {
	t.Parallel()
	searcher := &fakeSearcher{}
	e := newTestEngine(t, &Config{
		Embedder: &fakeEmbedder{vecs: [][]float32{{}}},
		Index:    searcher,
		Model:    &fakeModel{answer: "ok"},
	})

	if _, err := e.Answer(context.Background(), "s1", "q"); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if searcher.called {
		t.Error("search should not run on an empty embedding vector")
	}
}

func Test_Answer_SearchFailureDegradesToNoContext(t *testing.T) {
	t.Parallel()
	mdl := &fakeModel{answer: "still answers"}
	e := newTestEngine(t, &Config{
		Embedder: &fakeEmbedder{vecs: [][]float32{{0.5}}},
		Index:    &fakeSearcher{err: errors.New("qdrant unreachable")},
		Model:    mdl,
	})

	got, err := e.Answer(context.Background(), "s1", "q")
	if err != nil {
		t.Fatalf("Answer should not fail on search error, got %v", err)
	}
	if got != "still answers" {
		t.Errorf("answer = %q", got)
	}
	if mdl.got[0].Content != systemPreamble {
		t.Errorf("system message should carry no context, got %q", mdl.got[0].Content)
	}
}

func Test_Answer_GenerateFailureIsFatal(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, &Config{
		Embedder: &fakeEmbedder{vecs: [][]float32{{0.5}}},
		Index:    &fakeSearcher{},
		Model:    &fakeModel{err: errors.New("model overloaded")},
	})

	if _, err := e.Answer(context.Background(), "s1", "q"); err == nil {
		t.Fatal("expected error from failed completion")
	}
}

func Test_Answer_PersistsTurns(t *testing.T) {
	t.Parallel()
	log := &fakeTurnLog{}
	e := newTestEngine(t, &Config{
		Embedder: &fakeEmbedder{vecs: [][]float32{{0.5}}},
		Index:    &fakeSearcher{},
		Model:    &fakeModel{answer: "the answer"},
		History:  log,
	})

	if _, err := e.Answer(context.Background(), "session-42", "the question"); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if len(log.entries) != 2 {
		t.Fatalf("persisted %d turns, want 2", len(log.entries))
	}
	if log.entries[0].Role != store.RoleUser || log.entries[0].Content != "the question" {
		t.Errorf("unexpected user turn: %+v", log.entries[0])
	}
	if log.entries[1].Role != store.RoleAssistant || log.entries[1].Content != "the answer" {
		t.Errorf("unexpected assistant turn: %+v", log.entries[1])
	}
	if log.entries[0].SessionID != "session-42" {
		t.Errorf("session ID = %q", log.entries[0].SessionID)
	}
}

func Test_Answer_HistoryFailureIsNonFatal(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, &Config{
		Embedder: &fakeEmbedder{vecs: [][]float32{{0.5}}},
		Index:    &fakeSearcher{},
		Model:    &fakeModel{answer: "fine"},
		History:  &fakeTurnLog{err: errors.New("disk full")},
	})

	got, err := e.Answer(context.Background(), "s1", "q")
	if err != nil {
		t.Fatalf("Answer should not fail on history error, got %v", err)
	}
	if got != "fine" {
		t.Errorf("answer = %q", got)
	}
}
