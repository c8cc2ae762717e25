package symptom

import (
	"context"
	"time"
)

// Record is a stored symptom check made by a patient.
type Record struct {
	ID            string    `json:"id" bson:"_id"`
	PatientUserID string    `json:"patient_user_id" bson:"patient_user_id"`
	Symptoms      []string  `json:"symptoms" bson:"symptoms"`
	Description   string    `json:"description,omitempty" bson:"description,omitempty"`
	Result        Result    `json:"result" bson:"result"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}

// RecordRepository persists symptom records.
type RecordRepository interface {
	Create(ctx context.Context, r *Record) error
	// ListByPatient returns one page of a patient's records, newest first,
	// and the total number of records the patient has.
	ListByPatient(ctx context.Context, patientUserID string, limit, offset int) ([]*Record, int, error)
}
