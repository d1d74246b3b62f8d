package repository

import (
	"context"

	"github.com/tieubaoca/docqa-be/types"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DocumentRepo is the ingestion ledger: which namespaces exist and what
// was stored under them.
type DocumentRepo interface {
	CreateDocument(ctx context.Context, doc *types.DocumentRecord) error
	GetDocument(ctx context.Context, namespace string) (*types.DocumentRecord, error)
	PaginateDocuments(ctx context.Context, page, limit int64) ([]*types.DocumentRecord, error)
	DeleteDocument(ctx context.Context, namespace string) error
}

type documentRepo struct {
	collection *mongo.Collection
}

func NewDocumentRepo(collection *mongo.Collection) DocumentRepo {
	return &documentRepo{
		collection: collection,
	}
}

func (r *documentRepo) CreateDocument(ctx context.Context, doc *types.DocumentRecord) error {
	_, err := r.collection.InsertOne(ctx, doc)
	return err
}

func (r *documentRepo) GetDocument(ctx context.Context, namespace string) (*types.DocumentRecord, error) {
	var doc types.DocumentRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": namespace}).Decode(&doc)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepo) PaginateDocuments(ctx context.Context, page, limit int64) ([]*types.DocumentRecord, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	opts := options.Find().
		SetSkip((page - 1) * limit).
		SetLimit(limit).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []*types.DocumentRecord
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *documentRepo) DeleteDocument(ctx context.Context, namespace string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": namespace})
	return err
}
