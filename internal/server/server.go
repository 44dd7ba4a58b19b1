// Package server implements the HTTP server that exposes the FAQ answer
// engine via a small JSON API. The server is started by the `faqbot serve`
// CLI command.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/faqops/faqbot-go/internal/chat"
	"github.com/faqops/faqbot-go/internal/logging"
)

// defaultSessionID groups API turns that do not carry their own session.
const defaultSessionID = "api"

// New constructs a Server from the provided answer engine and config.
func New(engine answerer, cfg *Config) (*Server, error) {
	if engine == nil {
		return nil, fmt.Errorf("server: engine must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// Generation can take a while on slow backends.
		cfg.WriteTimeout = 2 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	var reg prometheus.Registerer = prometheus.DefaultRegisterer
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if cfg.Registry != nil {
		reg = cfg.Registry
		gatherer = cfg.Registry
	}

	s := &Server{
		engine:  engine,
		cfg:     cfg,
		log:     log,
		pingers: cfg.Pingers,
		metrics: newServerMetrics(reg),
	}

	rps := cfg.RateLimit
	if rps <= 0 {
		rps = defaultRateLimit
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = defaultRateBurst
	}
	rl, stopRL := newRateLimiter(rps, burst, log)
	s.stopRL = stopRL

	if cfg.APIKey == "" {
		log.Warn("server: FAQBOT_API_KEY not set, API authentication disabled")
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/chat",
		authMiddleware(cfg.APIKey, rl.middleware(http.HandlerFunc(s.handleChat))))
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      requestLogger(log, s.httpMetrics(mux)),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("server: listening", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.stopRL()
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		s.stopRL()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// handleChat handles POST /api/chat requests. One request is one full
// retrieval-augmented turn; the answer is returned as a single JSON body.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.finishChat("bad_request", start)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		req.SessionID = defaultSessionID
	}

	answer, err := s.engine.Answer(r.Context(), req.SessionID, req.Question)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyQuestion) {
			s.finishChat("bad_request", start)
			http.Error(w, "question is required", http.StatusBadRequest)
			return
		}
		s.finishChat("error", start)
		logging.FromContext(r.Context()).Error("chat: turn failed", slog.Any("error", err))
		http.Error(w, "answer generation failed", http.StatusBadGateway)
		return
	}

	s.finishChat("ok", start)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(chatResponse{Answer: answer, SessionID: req.SessionID}); err != nil {
		logging.FromContext(r.Context()).Error("chat: encode error", slog.Any("error", err))
	}
}

// finishChat records the outcome metrics for one /api/chat request.
func (s *Server) finishChat(outcome string, start time.Time) {
	s.metrics.chatRequestsTotal.WithLabelValues(outcome).Inc()
	s.metrics.chatDurationSeconds.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}

// handleHealth handles GET /api/health for liveness checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
