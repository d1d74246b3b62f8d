package database

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tieubaoca/docqa-be/config"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

const BATCH_SIZE = 200

// DEFAULT_CLASS is the fallback index name when none is configured.
const DEFAULT_CLASS = "DocumentChunk"

func chunkClassObject(className string) *models.Class {
	return &models.Class{
		Class: className,
		Properties: []*models.Property{
			{Name: "content", DataType: []string{"text"}},
			{Name: "namespace", DataType: []string{"text"}},
			{Name: "title", DataType: []string{"text"}},
			{Name: "source", DataType: []string{"text"}},
			{Name: "page", DataType: []string{"text"}},
			{Name: "seq", DataType: []string{"int"}},
		},
		// vectors are supplied by the embedding client, not a weaviate module
		Vectorizer:      "none",
		VectorIndexType: "hnsw",
	}
}

// WeaviateStore is a VectorStore backed by a remote weaviate index.
// Records of all documents share one class, partitioned by the
// namespace property.
type WeaviateStore struct {
	client    *weaviate.Client
	className string
}

func NewWeaviateStore(cfg config.WeaviateStoreConfig) (*WeaviateStore, error) {
	var scheme string
	if strings.Contains(cfg.Host, "https") {
		scheme = "https"
	} else {
		scheme = "http"
	}
	host := strings.TrimPrefix(cfg.Host, scheme+"://")
	wcfg := weaviate.Config{
		Host:   host,
		Scheme: scheme,
	}
	if cfg.APIKey != "" {
		wcfg.AuthConfig = auth.ApiKey{
			Value: cfg.APIKey,
		}
	}
	className := cfg.ClassName
	if className == "" {
		className = DEFAULT_CLASS
	}
	client, err := weaviate.NewClient(wcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %v", err)
	}

	schema, err := client.Schema().Getter().Do(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to get schema: %v", err)
	}

	hasClass := false
	for _, class := range schema.Classes {
		if class.Class == className {
			hasClass = true
			break
		}
	}
	if !hasClass {
		err = client.Schema().ClassCreator().WithClass(chunkClassObject(className)).Do(context.Background())
		if err != nil {
			return nil, fmt.Errorf("failed to create %s class: %v", className, err)
		}
	}
	return &WeaviateStore{
		client:    client,
		className: className,
	}, nil
}

// ReInit drops and recreates the chunk class, wiping every namespace.
func (s *WeaviateStore) ReInit() error {
	err := s.client.Schema().ClassDeleter().WithClassName(s.className).Do(context.Background())
	if err != nil {
		return fmt.Errorf("failed to delete %s class: %v", s.className, err)
	}

	err = s.client.Schema().ClassCreator().WithClass(chunkClassObject(s.className)).Do(context.Background())
	if err != nil {
		return fmt.Errorf("failed to create %s class: %v", s.className, err)
	}
	return nil
}

func (s *WeaviateStore) Upsert(ctx context.Context, namespace string, records []VectorRecord) (int, error) {
	total := len(records)
	stored := 0
	for i := 0; i < total; i += BATCH_SIZE {
		end := i + BATCH_SIZE
		if end > total {
			end = total
		}

		batcher := s.client.Batch().ObjectsBatcher()
		for j := i; j < end; j++ {
			rec := records[j]
			batcher = batcher.WithObjects(&models.Object{
				Class:      s.className,
				ID:         strfmt.UUID(objectID(namespace, rec.ID)),
				Properties: recordProperties(namespace, rec),
				Vector:     rec.Vector,
			})
		}

		resp, err := batcher.Do(ctx)
		if err != nil {
			return stored, fmt.Errorf("failed to upsert batch %d-%d: %v", i, end, err)
		}
		for _, obj := range resp {
			if obj.Result != nil && obj.Result.Errors != nil && len(obj.Result.Errors.Error) > 0 {
				return stored, fmt.Errorf("failed to upsert batch %d-%d: %s", i, end, obj.Result.Errors.Error[0].Message)
			}
			stored++
		}

		log.Debug().
			Str("namespace", namespace).
			Int("from", i).
			Int("to", end).
			Int("total", total).
			Msg("upserted batch")
	}

	return stored, nil
}

func (s *WeaviateStore) Search(ctx context.Context, namespace string, vector []float32, limit int) ([]SearchResult, error) {
	fields := []graphql.Field{
		{Name: "content"},
		{Name: "title"},
		{Name: "source"},
		{Name: "page"},
		{Name: "seq"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}}},
	}
	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(vector)
	where := filters.Where().
		WithPath([]string{"namespace"}).
		WithOperator(filters.Equal).
		WithValueString(namespace)

	getBuilder := s.client.GraphQL().Get().
		WithClassName(s.className).
		WithFields(fields...).
		WithNearVector(nearVector).
		WithWhere(where)
	if limit > 0 {
		getBuilder = getBuilder.WithLimit(limit)
	}

	result, err := getBuilder.Do(ctx)
	if err != nil {
		return nil, err
	}
	if result.Errors != nil {
		return nil, fmt.Errorf("search failed: %v", result.Errors[0].Message)
	}

	var out []SearchResult
	if data, ok := result.Data["Get"].(map[string]interface{})[s.className].([]interface{}); ok {
		for _, item := range data {
			obj, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			res := SearchResult{
				Content: asString(obj["content"]),
				Metadata: map[string]string{
					"title":  asString(obj["title"]),
					"source": asString(obj["source"]),
					"page":   asString(obj["page"]),
				},
			}
			if additional, ok := obj["_additional"].(map[string]interface{}); ok {
				if distance, ok := additional["distance"].(float64); ok {
					// weaviate reports cosine distance, nearest first
					res.Score = 1 - float32(distance)
				}
			}
			out = append(out, res)
		}
	}
	return out, nil
}

func (s *WeaviateStore) DeleteNamespace(ctx context.Context, namespace string) error {
	where := filters.Where().
		WithPath([]string{"namespace"}).
		WithOperator(filters.Equal).
		WithValueString(namespace)
	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(s.className).
		WithWhere(where).
		WithOutput("minimal").
		Do(ctx)
	return err
}

// objectID maps a record id to a deterministic weaviate object UUID so
// that re-upserting the same record id overwrites the existing object.
func objectID(namespace, recordID string) string {
	ns, err := uuid.Parse(namespace)
	if err != nil {
		ns = uuid.NewSHA1(uuid.NameSpaceOID, []byte(namespace))
	}
	return uuid.NewSHA1(ns, []byte(recordID)).String()
}

func recordProperties(namespace string, rec VectorRecord) map[string]interface{} {
	props := map[string]interface{}{
		"content":   rec.Content,
		"namespace": namespace,
	}
	for _, key := range []string{"title", "source", "page"} {
		if v, ok := rec.Metadata[key]; ok {
			props[key] = v
		}
	}
	if v, ok := rec.Metadata["seq"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			props["seq"] = n
		}
	}
	return props
}

func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
