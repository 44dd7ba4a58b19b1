package rag

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/faqops/faqbot-go/internal/faq"
)

// Payload field names stored alongside each vector. The chat engine selects
// exactly these two fields at query time.
const (
	fieldQuestion = "question"
	fieldAnswer   = "answer"
)

// QdrantConfig holds connection parameters for the FAQ collection.
type QdrantConfig struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// Collection is the collection holding the FAQ records.
	Collection string

	// VectorSize is the embedding dimensionality of the collection.
	// Must match the embedding model's output width.
	VectorSize uint64

	// InferenceModel names the server-side embedding model used by
	// UpsertInferred (Qdrant cloud inference). Empty disables that mode.
	InferenceModel string

	// APIKey is the optional API key for authenticated clusters.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool
}

// QdrantIndex implements Index backed by a Qdrant collection.
type QdrantIndex struct {
	client *qdrant.Client
	cfg    *QdrantConfig
}

// NewQdrantIndex connects to Qdrant and returns a ready-to-use Index.
// It does not create the collection — callers decide when to run
// EnsureCollection so that query-only paths never mutate schema.
func NewQdrantIndex(cfg *QdrantConfig) (*QdrantIndex, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("qdrant: collection name is required")
	}
	if cfg.VectorSize == 0 {
		return nil, fmt.Errorf("qdrant: vector size is required")
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to create client: %w", err)
	}

	return &QdrantIndex{client: client, cfg: cfg}, nil
}

// EnsureCollection creates the FAQ collection if missing. With recreate=true
// an existing collection is deleted first — destructive, and therefore only
// reachable through the explicit `index --recreate` flag.
func (x *QdrantIndex) EnsureCollection(ctx context.Context, recreate bool) error {
	exists, err := x.client.CollectionExists(ctx, x.cfg.Collection)
	if err != nil {
		return fmt.Errorf("qdrant: failed to check collection existence: %w", err)
	}

	if exists {
		if !recreate {
			return nil
		}
		if err := x.client.DeleteCollection(ctx, x.cfg.Collection); err != nil {
			return fmt.Errorf("qdrant: failed to delete collection %q: %w", x.cfg.Collection, err)
		}
	}

	err = x.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: x.cfg.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     x.cfg.VectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: failed to create collection %q: %w", x.cfg.Collection, err)
	}

	return nil
}

// Upsert writes records with their client-side embeddings. Records sharing
// an ID overwrite each other — the collection never holds two points with
// the same key.
func (x *QdrantIndex) Upsert(ctx context.Context, recs []faq.Record) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	points := make([]*qdrant.PointStruct, 0, len(recs))
	for _, rec := range recs {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(rec.ID),
			Vectors: qdrant.NewVectors(rec.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				fieldQuestion: rec.Question,
				fieldAnswer:   rec.Answer,
			}),
		})
	}

	_, err := x.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: x.cfg.Collection,
		Points:         points,
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant: upsert failed: %w", err)
	}

	return len(points), nil
}

// UpsertInferred writes raw rows as Document vectors so the service computes
// the embeddings itself (Qdrant cloud inference). ids must be parallel to
// rows. This is the pull-style analog of a managed ingestion skillset: the
// input is rows, the output is a searchable collection.
func (x *QdrantIndex) UpsertInferred(ctx context.Context, rows []faq.Row, ids []string) (int, error) {
	if x.cfg.InferenceModel == "" {
		return 0, fmt.Errorf("qdrant: server-side embedding requires an inference model name")
	}
	if len(rows) != len(ids) {
		return 0, fmt.Errorf("qdrant: rows/ids length mismatch: %d vs %d", len(rows), len(ids))
	}
	if len(rows) == 0 {
		return 0, nil
	}

	points := make([]*qdrant.PointStruct, 0, len(rows))
	for i, row := range rows {
		points = append(points, &qdrant.PointStruct{
			Id: qdrant.NewIDUUID(ids[i]),
			Vectors: qdrant.NewVectorsDocument(&qdrant.Document{
				Text:  row.Question,
				Model: x.cfg.InferenceModel,
			}),
			Payload: qdrant.NewValueMap(map[string]any{
				fieldQuestion: row.Question,
				fieldAnswer:   row.Answer,
			}),
		})
	}

	_, err := x.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: x.cfg.Collection,
		Points:         points,
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant: inferred upsert failed: %w", err)
	}

	return len(points), nil
}

// Search performs a cosine similarity search and returns the top-k matches
// plus the approximate total number of records in the collection.
func (x *QdrantIndex) Search(ctx context.Context, vector []float32, k int) ([]faq.Match, uint64, error) {
	limit := uint64(k) //nolint:gosec // k is a small positive design constant
	results, err := x.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: x.cfg.Collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("qdrant: search failed: %w", err)
	}

	total, err := x.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: x.cfg.Collection,
		Exact:          qdrant.PtrOf(false),
	})
	if err != nil {
		// Total is advisory metadata only — a failed count never fails the search.
		total = 0
	}

	return matchesFromPoints(results), total, nil
}

// matchesFromPoints converts scored Qdrant points to Match values,
// preserving the provider's similarity order.
func matchesFromPoints(points []*qdrant.ScoredPoint) []faq.Match {
	matches := make([]faq.Match, 0, len(points))
	for _, p := range points {
		m := faq.Match{Score: p.Score}
		if payload := p.Payload; payload != nil {
			if v, ok := payload[fieldQuestion]; ok {
				m.Question = v.GetStringValue()
			}
			if v, ok := payload[fieldAnswer]; ok {
				m.Answer = v.GetStringValue()
			}
		}
		matches = append(matches, m)
	}
	return matches
}

// Ping calls the Qdrant HealthCheck RPC.
func (x *QdrantIndex) Ping(ctx context.Context) error {
	if _, err := x.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant: health check failed: %w", err)
	}
	return nil
}

// Close closes the underlying gRPC connection.
func (x *QdrantIndex) Close() error {
	return x.client.Close()
}

// Client exposes the raw Qdrant client for dependency probes.
func (x *QdrantIndex) Client() *qdrant.Client {
	return x.client
}
