package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/faqops/faqbot-go/internal/chat"
)

// fakeEngine is a canned answerer for handler tests.
type fakeEngine struct {
	answer  string
	err     error
	gotQ    string
	gotSess string
}

func (f *fakeEngine) Answer(_ context.Context, sessionID, question string) (string, error) {
	f.gotSess = sessionID
	f.gotQ = question
	if strings.TrimSpace(question) == "" {
		return "", chat.ErrEmptyQuestion
	}
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

// newTestServer builds a Server with a hermetic metrics registry and returns
// its root handler.
func newTestServer(t *testing.T, engine answerer, cfg *Config) http.Handler {
	t.Helper()
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.Registry = prometheus.NewRegistry()
	s, err := New(engine, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.stopRL)
	return s.httpServer.Handler
}

func Test_HandleChat_OK(t *testing.T) {
	t.Parallel()
	engine := &fakeEngine{answer: "use the reset link"}
	h := newTestServer(t, engine, nil)

	body := `{"question":"how do I reset my password?","sessionId":"web-7"}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Answer != "use the reset link" {
		t.Errorf("answer = %q", resp.Answer)
	}
	if resp.SessionID != "web-7" || engine.gotSess != "web-7" {
		t.Errorf("session = %q / %q, want web-7", resp.SessionID, engine.gotSess)
	}
}

func Test_HandleChat_DefaultSession(t *testing.T) {
	t.Parallel()
	engine := &fakeEngine{answer: "a"}
	h := newTestServer(t, engine, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"question":"q"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if engine.gotSess != defaultSessionID {
		t.Errorf("session = %q, want %q", engine.gotSess, defaultSessionID)
	}
}

func Test_HandleChat_BadRequests(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, &fakeEngine{answer: "a"}, nil)

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"question":`},
		{"empty question", `{"question":""}`},
		{"whitespace question", `{"question":"   "}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func Test_HandleChat_EngineFailure(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, &fakeEngine{err: errors.New("model overloaded")}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"question":"q"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func Test_Auth_Enforced(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, &fakeEngine{answer: "a"}, &Config{APIKey: "sekrit"})

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"malformed header", "Basic sekrit", http.StatusUnauthorized},
		{"valid token", "Bearer sekrit", http.StatusOK},
		{"case-insensitive scheme", "bearer sekrit", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"question":"q"}`))
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func Test_Auth_HealthNotProtected(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, &fakeEngine{}, &Config{APIKey: "sekrit"})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200 without auth", rec.Code)
	}
}

func Test_RateLimit(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, &fakeEngine{answer: "a"}, &Config{RateLimit: 1, RateBurst: 2})

	codes := make([]int, 0, 4)
	for range 4 {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"question":"q"}`))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("burst requests should pass, got %v", codes)
	}
	if codes[3] != http.StatusTooManyRequests {
		t.Errorf("expected 429 after burst exhausted, got %v", codes)
	}
}

type fakePinger struct {
	name string
	err  error
}

func (p *fakePinger) Ping(context.Context) error { return p.err }
func (p *fakePinger) Name() string               { return p.name }

func Test_Ready_AllHealthy(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, &fakeEngine{}, &Config{
		Pingers: []Pinger{&fakePinger{name: "qdrant"}, &fakePinger{name: "openai"}},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/ready", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp readyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Ready || len(resp.Checks) != 2 {
		t.Errorf("response = %+v", resp)
	}
}

func Test_Ready_DependencyDown(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, &fakeEngine{}, &Config{
		Pingers: []Pinger{
			&fakePinger{name: "qdrant"},
			&fakePinger{name: "openai", err: errors.New("connection refused")},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/ready", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var resp readyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Ready {
		t.Error("ready should be false")
	}
	if resp.Checks[1].OK || resp.Checks[1].Error == "" {
		t.Errorf("failed check not reported: %+v", resp.Checks[1])
	}
}

func Test_MetricsEndpointExposed(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, &fakeEngine{answer: "a"}, nil)

	// Drive one chat request so the counters exist.
	chatReq := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"question":"q"}`))
	h.ServeHTTP(httptest.NewRecorder(), chatReq)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "faqbot_chat_requests_total") {
		t.Error("chat counter missing from /metrics output")
	}
	if !strings.Contains(body, "faqbot_http_requests_total") {
		t.Error("http counter missing from /metrics output")
	}
}

func Test_MultiPinger_FirstError(t *testing.T) {
	t.Parallel()
	mp := NewMultiPinger(
		&fakePinger{name: "a"},
		&fakePinger{name: "b", err: errors.New("down")},
		&fakePinger{name: "c"},
	)
	err := mp.Ping(context.Background())
	if err == nil || !strings.Contains(err.Error(), "b:") {
		t.Errorf("err = %v, want wrapped error naming b", err)
	}
}
