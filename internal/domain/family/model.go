package family

import (
	"context"
	"errors"
	"time"
)

var (
	ErrPatientNotFound = errors.New("patient user not found")
	ErrLinkExists      = errors.New("link already exists")
	ErrLinkNotFound    = errors.New("link not found")
	ErrInvalidInput    = errors.New("invalid input")
)

// Link grants a family member read access to a patient's prescriptions.
type Link struct {
	ID            string    `json:"id" bson:"_id"`
	FamilyUserID  string    `json:"family_user_id" bson:"family_user_id"`
	PatientUserID string    `json:"patient_user_id" bson:"patient_user_id"`
	Relation      string    `json:"relation" bson:"relation"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}

type LinkRequest struct {
	PatientEmail string `json:"patient_email"`
	Relation     string `json:"relation"`
}

// LinkedPatient is one entry of a family member's patient list.
type LinkedPatient struct {
	PatientUserID string `json:"patient_user_id"`
	Email         string `json:"email"`
	FullName      string `json:"full_name"`
	Relation      string `json:"relation"`
}

type LinkRepository interface {
	// Create returns ErrLinkExists for a duplicate (family, patient) pair.
	Create(ctx context.Context, l *Link) error
	// ListByFamily returns the member's links oldest first.
	ListByFamily(ctx context.Context, familyUserID string) ([]*Link, error)
	Exists(ctx context.Context, familyUserID, patientUserID string) (bool, error)
	Delete(ctx context.Context, familyUserID, patientUserID string) error
}
