package prescription

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/carebridge/carebridge/internal/platform/docstore"
)

type repoMongo struct {
	coll *mongo.Collection
}

func NewRepoMongo(store *docstore.Store) Repository {
	return &repoMongo{coll: store.Collection(docstore.Prescriptions)}
}

func (r *repoMongo) Create(ctx context.Context, p *Prescription) error {
	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("insert prescription: %w", err)
	}
	return nil
}

func (r *repoMongo) GetByID(ctx context.Context, id string) (*Prescription, error) {
	var p Prescription
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if docstore.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find prescription: %w", err)
	}
	return &p, nil
}

func (r *repoMongo) ListByPatient(ctx context.Context, patientUserID string, limit, offset int) ([]*Prescription, int, error) {
	var out []*Prescription
	sort := bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}}
	total, err := docstore.FindPage(ctx, r.coll, bson.M{"patient_user_id": patientUserID}, sort, limit, offset, &out)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *repoMongo) Update(ctx context.Context, id string, patch UpdateRequest, updatedAt time.Time) error {
	set := bson.M{"updated_at": updatedAt}
	if patch.Diagnosis != nil {
		set["diagnosis"] = *patch.Diagnosis
	}
	if patch.Medicines != nil {
		set["medicines"] = *patch.Medicines
	}
	if patch.Notes != nil {
		set["notes"] = *patch.Notes
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update prescription: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoMongo) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete prescription: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
