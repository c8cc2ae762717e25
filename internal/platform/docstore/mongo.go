// Package docstore wraps the MongoDB client that backs profile, link,
// prescription and record documents.
package docstore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Collection names.
const (
	PatientProfiles = "patient_profiles"
	DoctorProfiles  = "doctor_profiles"
	FamilyLinks     = "family_links"
	Prescriptions   = "prescriptions"
	SymptomRecords  = "symptom_records"
	HealthRecords   = "health_records"
)

// Store holds a connected client and the application database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials MongoDB at uri and verifies the connection with a ping.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return &Store{client: client, db: client.Database(database)}, nil
}

// Collection returns a handle to the named collection.
func (s *Store) Collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// Ping checks that the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the unique indexes the repositories rely on to
// reject duplicate profiles and links.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	unique := []struct {
		coll string
		keys bson.D
	}{
		{PatientProfiles, bson.D{{Key: "user_id", Value: 1}}},
		{DoctorProfiles, bson.D{{Key: "user_id", Value: 1}}},
		{FamilyLinks, bson.D{{Key: "family_user_id", Value: 1}, {Key: "patient_user_id", Value: 1}}},
	}
	for _, u := range unique {
		model := mongo.IndexModel{Keys: u.keys, Options: options.Index().SetUnique(true)}
		if _, err := s.Collection(u.coll).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create index on %s: %w", u.coll, err)
		}
	}

	lookup := []struct {
		coll string
		keys bson.D
	}{
		{Prescriptions, bson.D{{Key: "patient_user_id", Value: 1}, {Key: "date", Value: -1}}},
		{SymptomRecords, bson.D{{Key: "patient_user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{HealthRecords, bson.D{{Key: "owner_user_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	for _, l := range lookup {
		if _, err := s.Collection(l.coll).Indexes().CreateOne(ctx, mongo.IndexModel{Keys: l.keys}); err != nil {
			return fmt.Errorf("create index on %s: %w", l.coll, err)
		}
	}
	return nil
}

// IsNotFound reports whether err means a single-document lookup matched nothing.
func IsNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// IsDuplicate reports whether err is a unique index violation.
func IsDuplicate(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

// FindPage decodes one page of documents matching filter into out (a pointer
// to a slice) and returns the total number of matching documents.
func FindPage(ctx context.Context, coll *mongo.Collection, filter any, sort bson.D, limit, offset int, out any) (int, error) {
	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", coll.Name(), err)
	}

	opts := options.Find().SetSort(sort).SetLimit(int64(limit)).SetSkip(int64(offset))
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return 0, fmt.Errorf("find %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, out); err != nil {
		return 0, fmt.Errorf("decode %s: %w", coll.Name(), err)
	}
	return int(total), nil
}
