package family

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/carebridge/carebridge/internal/platform/docstore"
)

// maxLinks bounds how many links one family member can list.
const maxLinks = 100

type linkRepoMongo struct {
	coll *mongo.Collection
}

func NewLinkRepoMongo(store *docstore.Store) LinkRepository {
	return &linkRepoMongo{coll: store.Collection(docstore.FamilyLinks)}
}

func (r *linkRepoMongo) Create(ctx context.Context, l *Link) error {
	if _, err := r.coll.InsertOne(ctx, l); err != nil {
		if docstore.IsDuplicate(err) {
			return ErrLinkExists
		}
		return fmt.Errorf("insert family link: %w", err)
	}
	return nil
}

func (r *linkRepoMongo) ListByFamily(ctx context.Context, familyUserID string) ([]*Link, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(maxLinks)
	cursor, err := r.coll.Find(ctx, bson.M{"family_user_id": familyUserID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find family links: %w", err)
	}
	defer cursor.Close(ctx)

	var links []*Link
	if err := cursor.All(ctx, &links); err != nil {
		return nil, fmt.Errorf("decode family links: %w", err)
	}
	return links, nil
}

func (r *linkRepoMongo) Exists(ctx context.Context, familyUserID, patientUserID string) (bool, error) {
	filter := bson.M{"family_user_id": familyUserID, "patient_user_id": patientUserID}
	n, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count family links: %w", err)
	}
	return n > 0, nil
}

func (r *linkRepoMongo) Delete(ctx context.Context, familyUserID, patientUserID string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"family_user_id": familyUserID, "patient_user_id": patientUserID})
	if err != nil {
		return fmt.Errorf("delete family link: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrLinkNotFound
	}
	return nil
}
