package records

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/carebridge/carebridge/internal/platform/docstore"
)

type repoMongo struct {
	coll *mongo.Collection
}

func NewRepoMongo(store *docstore.Store) Repository {
	return &repoMongo{coll: store.Collection(docstore.HealthRecords)}
}

func (r *repoMongo) Create(ctx context.Context, rec *HealthRecord) error {
	if _, err := r.coll.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("insert health record: %w", err)
	}
	return nil
}

func (r *repoMongo) ListByOwner(ctx context.Context, ownerUserID string, limit int) ([]*HealthRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.coll.Find(ctx, bson.M{"owner_user_id": ownerUserID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find health records: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*HealthRecord
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode health records: %w", err)
	}
	return out, nil
}
