package database

import (
	"context"
)

// VectorRecord is one (id, vector, payload) triple persisted under a
// namespace.
type VectorRecord struct {
	ID       string
	Vector   []float32
	Content  string
	Metadata map[string]string
}

// SearchResult is one retrieved record with its similarity score.
type SearchResult struct {
	Content  string
	Metadata map[string]string
	Score    float32
}

// VectorStore defines the namespaced vector index operations the
// pipelines depend on. A query against a namespace only ever sees
// records upserted under that namespace.
type VectorStore interface {
	// Upsert writes records in batches, overwriting by record ID.
	// It returns the number of records actually stored, which may be
	// less than len(records) when a batch fails.
	Upsert(ctx context.Context, namespace string, records []VectorRecord) (int, error)

	// Search returns up to limit results ordered by descending
	// similarity. An empty namespace yields an empty result, not an
	// error.
	Search(ctx context.Context, namespace string, vector []float32, limit int) ([]SearchResult, error)

	// DeleteNamespace removes every record under the namespace.
	DeleteNamespace(ctx context.Context, namespace string) error
}
