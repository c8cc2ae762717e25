package records

import (
	"context"
	"errors"
	"time"
)

var ErrInvalidInput = errors.New("invalid input")

// HealthRecord is a free-form health note owned by a user.
type HealthRecord struct {
	ID          string    `json:"id" bson:"_id"`
	OwnerUserID string    `json:"owner_user_id" bson:"owner_user_id"`
	Type        string    `json:"type" bson:"type"`
	Content     string    `json:"content,omitempty" bson:"content,omitempty"`
	Tags        []string  `json:"tags" bson:"tags"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

type CreateRequest struct {
	Type    string   `json:"type"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

type Repository interface {
	Create(ctx context.Context, r *HealthRecord) error
	// ListByOwner returns at most limit records, newest first.
	ListByOwner(ctx context.Context, ownerUserID string, limit int) ([]*HealthRecord, error)
}
