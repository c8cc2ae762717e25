package symptom

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNoSymptoms is returned when a check request carries an empty symptom list.
var ErrNoSymptoms = errors.New("no symptoms provided")

// Service runs symptom checks and keeps a patient's check history.
type Service struct {
	engine  *Engine
	records RecordRepository
	now     func() time.Time
}

// NewService creates a symptom Service. records may be nil when history is
// not served, in which case Record and History fail.
func NewService(engine *Engine, records RecordRepository) *Service {
	return &Service{engine: engine, records: records, now: time.Now}
}

// Check analyzes a report. An empty list is rejected here; the engine itself
// accepts it.
func (s *Service) Check(symptoms []string) (Result, error) {
	if len(symptoms) == 0 {
		return Result{}, ErrNoSymptoms
	}
	return s.engine.Analyze(symptoms), nil
}

// Record analyzes a report and stores it for the patient.
func (s *Service) Record(ctx context.Context, patientUserID string, symptoms []string, description string) (*Record, error) {
	result, err := s.Check(symptoms)
	if err != nil {
		return nil, err
	}
	if s.records == nil {
		return nil, errors.New("symptom history is not configured")
	}

	rec := &Record{
		ID:            uuid.NewString(),
		PatientUserID: patientUserID,
		Symptoms:      Normalize(symptoms),
		Description:   description,
		Result:        result,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.records.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// History lists a patient's stored checks, newest first.
func (s *Service) History(ctx context.Context, patientUserID string, limit, offset int) ([]*Record, int, error) {
	if s.records == nil {
		return nil, 0, errors.New("symptom history is not configured")
	}
	return s.records.ListByPatient(ctx, patientUserID, limit, offset)
}
