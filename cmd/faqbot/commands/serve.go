package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino/callbacks"
	"github.com/spf13/cobra"

	"github.com/faqops/faqbot-go/internal/chat"
	"github.com/faqops/faqbot-go/internal/embedder"
	"github.com/faqops/faqbot-go/internal/logging"
	"github.com/faqops/faqbot-go/internal/provider"
	"github.com/faqops/faqbot-go/internal/server"
	"github.com/faqops/faqbot-go/internal/tracing"
)

// NewServeCmd constructs the `faqbot serve` command, which starts the HTTP
// API server.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the faqbot HTTP API server",
		Long: `Start the faqbot HTTP server on localhost.

The server exposes POST /api/chat for question answering, GET /api/health
and /api/ready for probes, and GET /metrics for Prometheus scraping.
Set FAQBOT_API_KEY to require Bearer authentication on /api/chat.

Examples:
  faqbot serve
  faqbot serve --port 9090
  MODEL_PROVIDER=azure faqbot serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			log.Info("serve starting", slog.String("provider", os.Getenv("MODEL_PROVIDER")))

			// Setup Langfuse tracing — opt-in, no-op if keys are absent.
			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("langfuse tracing enabled")
			} else {
				log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY not set"))
			}

			if err := embedder.Validate(log); err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			emb, err := embedder.NewFromEnv()
			if err != nil {
				return fmt.Errorf("serve: failed to initialise embedder: %w", err)
			}

			index, err := buildIndex()
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer index.Close()

			providerCfg := provider.ConfigFromEnv()
			chatModel, err := provider.New(ctx, providerCfg)
			if err != nil {
				return fmt.Errorf("serve: failed to initialise model provider: %w", err)
			}
			log.Info("provider initialised", slog.String("provider", string(providerCfg.Backend)))

			history, closeHistory := openHistory(log)
			defer closeHistory()

			engine, err := chat.New(&chat.Config{
				Embedder:         emb,
				Index:            index,
				Model:            chatModel,
				TopK:             getEnvInt("CHAT_TOP_K", 0),
				MaxContextTokens: getEnvInt("CHAT_MAX_CONTEXT_TOKENS", 0),
				History:          history,
			})
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			pingers := []server.Pinger{
				server.NewIndexPinger(index),
				server.NewEmbedderPinger(emb, embedder.Backend()),
			}

			srv, err := server.New(engine, &server.Config{
				Host:      host,
				Port:      port,
				Logger:    log,
				Pingers:   pingers,
				APIKey:    os.Getenv("FAQBOT_API_KEY"),
				RateLimit: float64(getEnvInt("SERVER_RATE_LIMIT", 0)),
				RateBurst: getEnvInt("SERVER_RATE_BURST", 0),
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on")

	return cmd
}
