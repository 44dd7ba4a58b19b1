package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, slog.Default is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected /api/* routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// Registry receives the server's Prometheus metrics. If nil, the default
	// registry is used. Tests inject a fresh registry to stay hermetic.
	Registry *prometheus.Registry
}

// answerer is the interface handleChat calls to produce an answer.
// *chat.Engine satisfies it; tests inject a fake.
type answerer interface {
	// Answer runs one retrieval-augmented turn for the given session.
	Answer(ctx context.Context, sessionID, question string) (string, error)
}

// Server is the HTTP server that exposes the FAQ answer engine.
type Server struct {
	// engine produces answers for /api/chat requests.
	engine answerer
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// metrics holds the Prometheus instruments owned by this server.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// chatRequest is the JSON body for POST /api/chat.
type chatRequest struct {
	// Question is the user's natural language question.
	Question string `json:"question"`
	// SessionID groups turns into a conversation thread. Optional; requests
	// without one share the "api" session.
	SessionID string `json:"sessionId,omitempty"`
}

// chatResponse is the JSON response for POST /api/chat.
type chatResponse struct {
	// Answer is the model's grounded answer.
	Answer string `json:"answer"`
	// SessionID echoes the session the turn was recorded under.
	SessionID string `json:"sessionId"`
}
