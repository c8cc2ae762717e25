package prescription

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("prescription not found")
	ErrPatientNotFound = errors.New("patient not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrCannotView      = errors.New("not authorized to view this patient's prescriptions")
	ErrCannotModify    = errors.New("cannot modify another doctor's prescription")
	ErrCannotDelete    = errors.New("cannot delete another doctor's prescription")
)

// Prescription is written by a doctor for a patient. Diagnosis and notes
// are sealed at rest when a PHI key is configured.
type Prescription struct {
	ID            string    `json:"id" bson:"_id"`
	DoctorUserID  string    `json:"doctor_user_id" bson:"doctor_user_id"`
	PatientUserID string    `json:"patient_user_id" bson:"patient_user_id"`
	Diagnosis     string    `json:"diagnosis" bson:"diagnosis"`
	Medicines     []string  `json:"medicines" bson:"medicines"`
	Notes         string    `json:"notes,omitempty" bson:"notes,omitempty"`
	Date          time.Time `json:"date" bson:"date"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

type CreateRequest struct {
	PatientUserID string   `json:"patient_user_id"`
	Diagnosis     string   `json:"diagnosis"`
	Medicines     []string `json:"medicines"`
	Notes         string   `json:"notes"`
}

// UpdateRequest is a partial update; nil fields are left unchanged.
type UpdateRequest struct {
	Diagnosis *string   `json:"diagnosis"`
	Medicines *[]string `json:"medicines"`
	Notes     *string   `json:"notes"`
}

func (r UpdateRequest) empty() bool {
	return r.Diagnosis == nil && r.Medicines == nil && r.Notes == nil
}

type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id string) (*Prescription, error)
	// ListByPatient returns one page of a patient's prescriptions, newest
	// first, and the total count.
	ListByPatient(ctx context.Context, patientUserID string, limit, offset int) ([]*Prescription, int, error)
	// Update sets only the non-nil fields of patch.
	Update(ctx context.Context, id string, patch UpdateRequest, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}
