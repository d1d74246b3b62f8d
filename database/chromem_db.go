package database

import (
	"context"
	"fmt"
	"runtime"

	"github.com/philippgille/chromem-go"
)

// ChromemStore is a VectorStore backed by an embedded chromem-go
// database. Each namespace maps to its own collection, so namespace
// isolation falls out of the collection boundary. Used for local
// deployments without a weaviate cluster, and by the tests.
type ChromemStore struct {
	db *chromem.DB
}

func NewChromemStore(path string) (*ChromemStore, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to create chromem database: %v", err)
	}
	return &ChromemStore{db: db}, nil
}

// NewInMemoryChromemStore keeps everything in process memory.
func NewInMemoryChromemStore() *ChromemStore {
	return &ChromemStore{db: chromem.NewDB()}
}

func (s *ChromemStore) Upsert(ctx context.Context, namespace string, records []VectorRecord) (int, error) {
	collection, err := s.db.GetOrCreateCollection(namespace, nil, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get collection %s: %v", namespace, err)
	}

	stored := 0
	for i := 0; i < len(records); i += BATCH_SIZE {
		end := i + BATCH_SIZE
		if end > len(records) {
			end = len(records)
		}
		docs := make([]chromem.Document, 0, end-i)
		for _, rec := range records[i:end] {
			docs = append(docs, chromem.Document{
				ID:        rec.ID,
				Content:   rec.Content,
				Metadata:  rec.Metadata,
				Embedding: rec.Vector,
			})
		}
		if err := collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
			return stored, fmt.Errorf("failed to upsert batch %d-%d: %v", i, end, err)
		}
		stored += len(docs)
	}
	return stored, nil
}

func (s *ChromemStore) Search(ctx context.Context, namespace string, vector []float32, limit int) ([]SearchResult, error) {
	collection := s.db.GetCollection(namespace, nil)
	if collection == nil {
		return nil, nil
	}
	// chromem rejects nResults larger than the collection
	count := collection.Count()
	if count == 0 {
		return nil, nil
	}
	if limit > count {
		limit = count
	}

	results, err := collection.QueryEmbedding(ctx, vector, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection %s: %v", namespace, err)
	}

	out := make([]SearchResult, 0, len(results))
	for _, r := range results {
		out = append(out, SearchResult{
			Content:  r.Content,
			Metadata: r.Metadata,
			Score:    r.Similarity,
		})
	}
	return out, nil
}

func (s *ChromemStore) DeleteNamespace(ctx context.Context, namespace string) error {
	if s.db.GetCollection(namespace, nil) == nil {
		return nil
	}
	return s.db.DeleteCollection(namespace)
}
