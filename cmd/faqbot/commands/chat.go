package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/faqops/faqbot-go/internal/logging"
)

// NewChatCmd constructs the `faqbot chat` command, an interactive
// question-answering loop over the indexed FAQ collection.
func NewChatCmd() *cobra.Command {
	var session string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the FAQ bot interactively",
		Long: `Start an interactive chat session against the indexed FAQ collection.

Each question is embedded, matched against the closest FAQ entries, and
answered by the chat model grounded in those entries. Type "exit" or "quit"
to leave the session.

Examples:
  faqbot chat
  faqbot chat --session support-triage
  MODEL_PROVIDER=ollama faqbot chat`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			engine, cleanup, err := buildEngine(ctx, log)
			if err != nil {
				return fmt.Errorf("chat: %w", err)
			}
			defer cleanup()

			if session == "" {
				session = uuid.NewString()
			}

			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("You: ")
				if !scanner.Scan() {
					// EOF (ctrl-d) ends the session like "exit" does.
					fmt.Println()
					return scanner.Err()
				}

				question := strings.TrimSpace(scanner.Text())
				if question == "" {
					continue
				}
				switch strings.ToLower(question) {
				case "exit", "quit":
					return nil
				}

				answer, err := engine.Answer(ctx, session, question)
				if err != nil {
					// One failed turn never ends the session.
					fmt.Fprintf(os.Stderr, "error: %v\n", err)
					continue
				}
				fmt.Printf("AI: %s\n", answer)
			}
		},
	}

	cmd.Flags().StringVarP(&session, "session", "s", "", "Session ID for history grouping (default: random)")

	return cmd
}
