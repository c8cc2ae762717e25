package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carebridge/carebridge/internal/platform/hipaa"
)

// Service manages patient profiles. Allergies and medical history are
// sealed with the field cipher before they reach the repository.
type Service struct {
	repo   ProfileRepository
	cipher *hipaa.FieldCipher
	now    func() time.Time
}

// NewService creates a profile service. cipher may be nil to store PHI in
// plaintext.
func NewService(repo ProfileRepository, cipher *hipaa.FieldCipher) *Service {
	return &Service{repo: repo, cipher: cipher, now: time.Now}
}

func validate(req ProfileRequest) error {
	if req.Age == nil {
		return fmt.Errorf("%w: age is required", ErrInvalidInput)
	}
	if *req.Age < 0 {
		return fmt.Errorf("%w: age must be non-negative", ErrInvalidInput)
	}
	if strings.TrimSpace(req.Gender) == "" {
		return fmt.Errorf("%w: gender is required", ErrInvalidInput)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, userID string, req ProfileRequest) (*Profile, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	p := &Profile{
		UserID:         userID,
		Age:            *req.Age,
		Gender:         strings.TrimSpace(req.Gender),
		BloodGroup:     strings.TrimSpace(req.BloodGroup),
		Allergies:      req.Allergies,
		MedicalHistory: req.MedicalHistory,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := s.repo.GetByUserID(ctx, userID); err == nil {
		return nil, ErrProfileExists
	} else if !errors.Is(err, ErrProfileNotFound) {
		return nil, err
	}

	stored, err := s.seal(p)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, stored); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, userID string) (*Profile, error) {
	p, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.cipher.OpenAll(&p.Allergies, &p.MedicalHistory); err != nil {
		return nil, fmt.Errorf("open patient profile: %w", err)
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, userID string, req ProfileRequest) (*Profile, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	p := &Profile{
		UserID:         userID,
		Age:            *req.Age,
		Gender:         strings.TrimSpace(req.Gender),
		BloodGroup:     strings.TrimSpace(req.BloodGroup),
		Allergies:      req.Allergies,
		MedicalHistory: req.MedicalHistory,
		UpdatedAt:      s.now().UTC(),
	}
	stored, err := s.seal(p)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, stored); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, userID string) error {
	return s.repo.Delete(ctx, userID)
}

// seal returns a copy of p with PHI fields encrypted.
func (s *Service) seal(p *Profile) (*Profile, error) {
	stored := *p
	if err := s.cipher.SealAll(&stored.Allergies, &stored.MedicalHistory); err != nil {
		return nil, fmt.Errorf("seal patient profile: %w", err)
	}
	return &stored, nil
}
