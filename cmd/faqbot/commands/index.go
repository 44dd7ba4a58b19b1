package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/faqops/faqbot-go/internal/embedder"
	"github.com/faqops/faqbot-go/internal/faq"
	"github.com/faqops/faqbot-go/internal/indexer"
	"github.com/faqops/faqbot-go/internal/logging"
)

// NewIndexCmd constructs the `faqbot index` command, which loads a FAQ CSV
// dataset and builds the vector index.
func NewIndexCmd() *cobra.Command {
	var filePath string
	var blobKey string
	var recreate bool
	var randomIDs bool
	var serverSide bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index a FAQ CSV dataset into the vector store",
		Long: `Load a FAQ dataset (question,answer CSV) and index it into Qdrant.

Each question is embedded and upserted with its answer as payload. Point IDs
are derived from the question text, so re-running index on the same dataset
updates entries in place instead of duplicating them (--random-ids restores
duplicating behaviour). The collection is created on first run; --recreate
drops and rebuilds it, which is destructive and never implicit.

With --server-side, embedding is delegated to Qdrant cloud inference
(QDRANT_INFERENCE_MODEL names the model) and no embedding backend is needed.

Required environment variables:
  QDRANT_HOST          Qdrant server hostname (default: localhost)
  QDRANT_PORT          Qdrant gRPC port (default: 6334)
  QDRANT_COLLECTION    Collection name (default: faq)
  QDRANT_API_KEY       Optional API key for authenticated clusters
  EMBEDDING_PROVIDER   Embedding backend: openai, azure, ollama
  EMBEDDING_*          Provider-specific overrides (model, base URL, API key)
  BLOB_*               Object store settings, required with --blob

Examples:
  faqbot index
  faqbot index --file ./datasets/support.csv --recreate
  faqbot index --blob faq/2026-08.csv
  faqbot index --server-side`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			if blobKey != "" && cmd.Flags().Changed("file") {
				return fmt.Errorf("index: --file and --blob are mutually exclusive")
			}

			rows, err := loadRows(ctx, filePath, blobKey, log)
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}
			log.Info("dataset loaded", slog.Int("rows", len(rows)))

			index, err := buildIndex()
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}
			defer index.Close()

			if err := index.EnsureCollection(ctx, recreate); err != nil {
				return fmt.Errorf("index: %w", err)
			}

			cfg := &indexer.Config{Index: index}
			if randomIDs {
				cfg.IDFn = func(string) string { return faq.RandomID() }
			}

			var sum indexer.Summary
			if serverSide {
				pipeline, err := indexer.New(cfg)
				if err != nil {
					return fmt.Errorf("index: %w", err)
				}
				sum, err = pipeline.BuildServerSide(ctx, rows)
				if err != nil {
					return err
				}
			} else {
				if err := embedder.Validate(log); err != nil {
					return fmt.Errorf("index: %w", err)
				}
				emb, err := embedder.NewFromEnv()
				if err != nil {
					return fmt.Errorf("index: failed to initialise embedder: %w", err)
				}
				cfg.Embedder = emb
				cfg.VectorSize = embedder.DefaultDimensions(embedder.Backend())

				pipeline, err := indexer.New(cfg)
				if err != nil {
					return fmt.Errorf("index: %w", err)
				}
				sum, err = pipeline.Build(ctx, rows)
				if err != nil {
					return err
				}
			}

			fmt.Printf("indexed %d/%d rows (%d skipped)\n", sum.Indexed, sum.Attempted, sum.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVarP(&filePath, "file", "f", "data/faq.csv", "Path to the FAQ CSV file")
	cmd.Flags().StringVarP(&blobKey, "blob", "b", "", "Fetch the CSV from the configured blob bucket instead of disk")
	cmd.Flags().BoolVar(&recreate, "recreate", false, "Drop and recreate the collection before indexing (destructive)")
	cmd.Flags().BoolVar(&randomIDs, "random-ids", false, "Use random point IDs; re-indexing duplicates entries")
	cmd.Flags().BoolVar(&serverSide, "server-side", false, "Delegate embedding to Qdrant cloud inference")

	return cmd
}
