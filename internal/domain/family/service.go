package family

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/carebridge/carebridge/internal/domain/identity"
	"github.com/carebridge/carebridge/internal/platform/auth"
)

// lookupConcurrency caps parallel user lookups when listing patients.
const lookupConcurrency = 8

// UserDirectory resolves users from the relational store.
type UserDirectory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*identity.User, error)
	GetUserByEmail(ctx context.Context, email string) (*identity.User, error)
}

type Service struct {
	links LinkRepository
	users UserDirectory
	now   func() time.Time
}

func NewService(links LinkRepository, users UserDirectory) *Service {
	return &Service{links: links, users: users, now: time.Now}
}

// Link connects familyUserID to the patient registered under req.PatientEmail.
func (s *Service) Link(ctx context.Context, familyUserID string, req LinkRequest) (*Link, error) {
	relation := strings.TrimSpace(req.Relation)
	if strings.TrimSpace(req.PatientEmail) == "" {
		return nil, fmt.Errorf("%w: patient_email is required", ErrInvalidInput)
	}
	if relation == "" {
		return nil, fmt.Errorf("%w: relation is required", ErrInvalidInput)
	}

	patient, err := s.users.GetUserByEmail(ctx, req.PatientEmail)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	if patient.Role != auth.RolePatient {
		return nil, ErrPatientNotFound
	}

	patientID := patient.ID.String()
	exists, err := s.links.Exists(ctx, familyUserID, patientID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrLinkExists
	}

	l := &Link{
		ID:            uuid.NewString(),
		FamilyUserID:  familyUserID,
		PatientUserID: patientID,
		Relation:      relation,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.links.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// MyPatients resolves every linked patient concurrently. Links whose
// patient account no longer exists are skipped; the result keeps link order.
func (s *Service) MyPatients(ctx context.Context, familyUserID string) ([]LinkedPatient, error) {
	links, err := s.links.ListByFamily(ctx, familyUserID)
	if err != nil {
		return nil, err
	}

	resolved := make([]*identity.User, len(links))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupConcurrency)
	for i, l := range links {
		i, l := i, l
		g.Go(func() error {
			id, err := uuid.Parse(l.PatientUserID)
			if err != nil {
				return nil
			}
			u, err := s.users.GetUser(gctx, id)
			if errors.Is(err, identity.ErrUserNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("lookup patient %s: %w", l.PatientUserID, err)
			}
			resolved[i] = u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]LinkedPatient, 0, len(links))
	for i, l := range links {
		u := resolved[i]
		if u == nil {
			continue
		}
		out = append(out, LinkedPatient{
			PatientUserID: l.PatientUserID,
			Email:         u.Email,
			FullName:      u.FullName,
			Relation:      l.Relation,
		})
	}
	return out, nil
}

func (s *Service) Unlink(ctx context.Context, familyUserID, patientUserID string) error {
	return s.links.Delete(ctx, familyUserID, patientUserID)
}

// IsLinked reports whether familyUserID has a link to patientUserID.
func (s *Service) IsLinked(ctx context.Context, familyUserID, patientUserID string) (bool, error) {
	return s.links.Exists(ctx, familyUserID, patientUserID)
}
