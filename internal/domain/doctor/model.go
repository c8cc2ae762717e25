package doctor

import (
	"context"
	"errors"
	"time"
)

var (
	ErrProfileExists   = errors.New("profile already exists")
	ErrProfileNotFound = errors.New("doctor profile not found")
	ErrInvalidInput    = errors.New("invalid input")
)

// Profile describes a doctor's practice.
type Profile struct {
	UserID          string    `json:"user_id" bson:"user_id"`
	Specialization  string    `json:"specialization" bson:"specialization"`
	ExperienceYears int       `json:"experience_years" bson:"experience_years"`
	ClinicAddress   string    `json:"clinic_address,omitempty" bson:"clinic_address,omitempty"`
	LicenseNumber   string    `json:"license_number" bson:"license_number"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" bson:"updated_at"`
}

type ProfileRequest struct {
	Specialization  string `json:"specialization"`
	ExperienceYears int    `json:"experience_years"`
	ClinicAddress   string `json:"clinic_address"`
	LicenseNumber   string `json:"license_number"`
}

// Validate checks the required fields and normalizes whitespace.
func (r *ProfileRequest) Validate() error {
	r.Specialization = trim(r.Specialization)
	r.LicenseNumber = trim(r.LicenseNumber)
	r.ClinicAddress = trim(r.ClinicAddress)
	switch {
	case r.Specialization == "":
		return errorf("specialization is required")
	case r.LicenseNumber == "":
		return errorf("license_number is required")
	case r.ExperienceYears < 0:
		return errorf("experience_years must be non-negative")
	}
	return nil
}

type ProfileRepository interface {
	Create(ctx context.Context, p *Profile) error
	GetByUserID(ctx context.Context, userID string) (*Profile, error)
	Update(ctx context.Context, p *Profile) error
	Delete(ctx context.Context, userID string) error
}
