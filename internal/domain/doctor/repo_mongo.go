package doctor

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/carebridge/carebridge/internal/platform/docstore"
)

type profileRepoMongo struct {
	coll *mongo.Collection
}

func NewProfileRepoMongo(store *docstore.Store) ProfileRepository {
	return &profileRepoMongo{coll: store.Collection(docstore.DoctorProfiles)}
}

func (r *profileRepoMongo) Create(ctx context.Context, p *Profile) error {
	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		if docstore.IsDuplicate(err) {
			return ErrProfileExists
		}
		return fmt.Errorf("insert doctor profile: %w", err)
	}
	return nil
}

func (r *profileRepoMongo) GetByUserID(ctx context.Context, userID string) (*Profile, error) {
	var p Profile
	if err := r.coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(&p); err != nil {
		if docstore.IsNotFound(err) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("find doctor profile: %w", err)
	}
	return &p, nil
}

// Update sets the editable fields and returns ErrProfileNotFound when no
// profile matched.
func (r *profileRepoMongo) Update(ctx context.Context, p *Profile) error {
	update := bson.M{"$set": bson.M{
		"specialization":   p.Specialization,
		"experience_years": p.ExperienceYears,
		"clinic_address":   p.ClinicAddress,
		"license_number":   p.LicenseNumber,
		"updated_at":       p.UpdatedAt,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"user_id": p.UserID}, update, opts).Decode(p); err != nil {
		if docstore.IsNotFound(err) {
			return ErrProfileNotFound
		}
		return fmt.Errorf("update doctor profile: %w", err)
	}
	return nil
}

func (r *profileRepoMongo) Delete(ctx context.Context, userID string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"user_id": userID})
	if err != nil {
		return fmt.Errorf("delete doctor profile: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrProfileNotFound
	}
	return nil
}
