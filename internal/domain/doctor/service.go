package doctor

import (
	"context"
	"fmt"
	"strings"
	"time"
)

func trim(s string) string { return strings.TrimSpace(s) }

func errorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidInput}, args...)...)
}

type Service struct {
	repo ProfileRepository
	now  func() time.Time
}

func NewService(repo ProfileRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Create(ctx context.Context, userID string, req ProfileRequest) (*Profile, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	p := &Profile{
		UserID:          userID,
		Specialization:  req.Specialization,
		ExperienceYears: req.ExperienceYears,
		ClinicAddress:   req.ClinicAddress,
		LicenseNumber:   req.LicenseNumber,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, userID string) (*Profile, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// Update replaces the profile's editable fields; the repository fills in
// the stored created_at.
func (s *Service) Update(ctx context.Context, userID string, req ProfileRequest) (*Profile, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p := &Profile{
		UserID:          userID,
		Specialization:  req.Specialization,
		ExperienceYears: req.ExperienceYears,
		ClinicAddress:   req.ClinicAddress,
		LicenseNumber:   req.LicenseNumber,
		UpdatedAt:       s.now().UTC(),
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, userID string) error {
	return s.repo.Delete(ctx, userID)
}
