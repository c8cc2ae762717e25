package symptom

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/carebridge/carebridge/internal/platform/docstore"
)

type recordRepoMongo struct {
	coll *mongo.Collection
}

// NewRecordRepoMongo returns a RecordRepository backed by the symptom_records collection.
func NewRecordRepoMongo(store *docstore.Store) RecordRepository {
	return &recordRepoMongo{coll: store.Collection(docstore.SymptomRecords)}
}

func (r *recordRepoMongo) Create(ctx context.Context, rec *Record) error {
	if _, err := r.coll.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("insert symptom record: %w", err)
	}
	return nil
}

func (r *recordRepoMongo) ListByPatient(ctx context.Context, patientUserID string, limit, offset int) ([]*Record, int, error) {
	var records []*Record
	sort := bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	total, err := docstore.FindPage(ctx, r.coll, bson.M{"patient_user_id": patientUserID}, sort, limit, offset, &records)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}
