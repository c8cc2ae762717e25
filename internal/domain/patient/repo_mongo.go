package patient

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/carebridge/carebridge/internal/platform/docstore"
)

type profileRepoMongo struct {
	coll *mongo.Collection
}

func NewProfileRepoMongo(store *docstore.Store) ProfileRepository {
	return &profileRepoMongo{coll: store.Collection(docstore.PatientProfiles)}
}

func (r *profileRepoMongo) Create(ctx context.Context, p *Profile) error {
	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		if docstore.IsDuplicate(err) {
			return ErrProfileExists
		}
		return fmt.Errorf("insert patient profile: %w", err)
	}
	return nil
}

func (r *profileRepoMongo) GetByUserID(ctx context.Context, userID string) (*Profile, error) {
	var p Profile
	if err := r.coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(&p); err != nil {
		if docstore.IsNotFound(err) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("find patient profile: %w", err)
	}
	return &p, nil
}

func (r *profileRepoMongo) Update(ctx context.Context, p *Profile) error {
	set := bson.M{
		"age":             p.Age,
		"gender":          p.Gender,
		"blood_group":     p.BloodGroup,
		"allergies":       p.Allergies,
		"medical_history": p.MedicalHistory,
		"updated_at":      p.UpdatedAt,
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"user_id": p.UserID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update patient profile: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *profileRepoMongo) Delete(ctx context.Context, userID string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"user_id": userID})
	if err != nil {
		return fmt.Errorf("delete patient profile: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrProfileNotFound
	}
	return nil
}
