package patient

import (
	"context"
	"errors"
	"time"
)

var (
	ErrProfileExists   = errors.New("profile already exists")
	ErrProfileNotFound = errors.New("profile not found")
	ErrInvalidInput    = errors.New("invalid input")
)

// Profile is the medical profile a patient keeps about themself.
type Profile struct {
	UserID         string    `json:"user_id" bson:"user_id"`
	Age            int       `json:"age" bson:"age"`
	Gender         string    `json:"gender" bson:"gender"`
	BloodGroup     string    `json:"blood_group,omitempty" bson:"blood_group,omitempty"`
	Allergies      string    `json:"allergies,omitempty" bson:"allergies,omitempty"`
	MedicalHistory string    `json:"medical_history,omitempty" bson:"medical_history,omitempty"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`
}

// ProfileRequest is the body of profile create and update calls.
type ProfileRequest struct {
	Age            *int   `json:"age"`
	Gender         string `json:"gender"`
	BloodGroup     string `json:"blood_group"`
	Allergies      string `json:"allergies"`
	MedicalHistory string `json:"medical_history"`
}

// ProfileRepository stores one profile per patient user.
type ProfileRepository interface {
	// Create returns ErrProfileExists when the user already has a profile.
	Create(ctx context.Context, p *Profile) error
	GetByUserID(ctx context.Context, userID string) (*Profile, error)
	// Update replaces the editable fields, keeping created_at.
	Update(ctx context.Context, p *Profile) error
	Delete(ctx context.Context, userID string) error
}
