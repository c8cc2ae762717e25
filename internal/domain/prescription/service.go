package prescription

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/carebridge/internal/domain/identity"
	"github.com/carebridge/carebridge/internal/platform/auth"
	"github.com/carebridge/carebridge/internal/platform/hipaa"
)

// PatientDirectory resolves the patient a prescription is written for.
type PatientDirectory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*identity.User, error)
}

// LinkChecker reports family links between users.
type LinkChecker interface {
	IsLinked(ctx context.Context, familyUserID, patientUserID string) (bool, error)
}

type Service struct {
	repo   Repository
	users  PatientDirectory
	links  LinkChecker
	cipher *hipaa.FieldCipher
	now    func() time.Time
}

func NewService(repo Repository, users PatientDirectory, links LinkChecker, cipher *hipaa.FieldCipher) *Service {
	return &Service{repo: repo, users: users, links: links, cipher: cipher, now: time.Now}
}

func (s *Service) Create(ctx context.Context, doctorUserID string, req CreateRequest) (*Prescription, error) {
	req.Diagnosis = strings.TrimSpace(req.Diagnosis)
	switch {
	case req.PatientUserID == "":
		return nil, fmt.Errorf("%w: patient_user_id is required", ErrInvalidInput)
	case req.Diagnosis == "":
		return nil, fmt.Errorf("%w: diagnosis is required", ErrInvalidInput)
	case req.Medicines == nil:
		return nil, fmt.Errorf("%w: medicines is required", ErrInvalidInput)
	}

	if err := s.requirePatient(ctx, req.PatientUserID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p := &Prescription{
		ID:            uuid.NewString(),
		DoctorUserID:  doctorUserID,
		PatientUserID: req.PatientUserID,
		Diagnosis:     req.Diagnosis,
		Medicines:     req.Medicines,
		Notes:         req.Notes,
		Date:          now,
		UpdatedAt:     now,
	}
	stored := *p
	if err := s.cipher.SealAll(&stored.Diagnosis, &stored.Notes); err != nil {
		return nil, fmt.Errorf("seal prescription: %w", err)
	}
	if err := s.repo.Create(ctx, &stored); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) requirePatient(ctx context.Context, patientUserID string) error {
	id, err := uuid.Parse(patientUserID)
	if err != nil {
		return ErrPatientNotFound
	}
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return ErrPatientNotFound
		}
		return err
	}
	if u.Role != auth.RolePatient {
		return ErrPatientNotFound
	}
	return nil
}

// CanView reports whether caller may read patientUserID's prescriptions:
// the patient themself or a linked family member.
func (s *Service) CanView(ctx context.Context, caller auth.Principal, patientUserID string) (bool, error) {
	if caller.UserID == patientUserID {
		return true, nil
	}
	if caller.Role != auth.RoleFamily {
		return false, nil
	}
	return s.links.IsLinked(ctx, caller.UserID, patientUserID)
}

func (s *Service) ListForPatient(ctx context.Context, caller auth.Principal, patientUserID string, limit, offset int) ([]*Prescription, int, error) {
	ok, err := s.CanView(ctx, caller, patientUserID)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, ErrCannotView
	}

	items, total, err := s.repo.ListByPatient(ctx, patientUserID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	for _, p := range items {
		if err := s.open(p); err != nil {
			return nil, 0, err
		}
	}
	return items, total, nil
}

// Update applies a partial update. Only the authoring doctor may change a
// prescription.
func (s *Service) Update(ctx context.Context, doctorUserID, id string, req UpdateRequest) (*Prescription, error) {
	if req.empty() {
		return nil, fmt.Errorf("%w: no fields to update", ErrInvalidInput)
	}
	if req.Diagnosis != nil && strings.TrimSpace(*req.Diagnosis) == "" {
		return nil, fmt.Errorf("%w: diagnosis must not be empty", ErrInvalidInput)
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.DoctorUserID != doctorUserID {
		return nil, ErrCannotModify
	}

	patch := UpdateRequest{Medicines: req.Medicines}
	if req.Diagnosis != nil {
		v, err := s.cipher.Seal(strings.TrimSpace(*req.Diagnosis))
		if err != nil {
			return nil, fmt.Errorf("seal prescription: %w", err)
		}
		patch.Diagnosis = &v
	}
	if req.Notes != nil {
		v, err := s.cipher.Seal(*req.Notes)
		if err != nil {
			return nil, fmt.Errorf("seal prescription: %w", err)
		}
		patch.Notes = &v
	}
	if err := s.repo.Update(ctx, id, patch, s.now().UTC()); err != nil {
		return nil, err
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.open(updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, doctorUserID, id string) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.DoctorUserID != doctorUserID {
		return ErrCannotDelete
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) open(p *Prescription) error {
	if err := s.cipher.OpenAll(&p.Diagnosis, &p.Notes); err != nil {
		return fmt.Errorf("open prescription %s: %w", p.ID, err)
	}
	return nil
}
