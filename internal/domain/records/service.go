package records

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/carebridge/internal/platform/hipaa"
)

// ListLimit is the number of records returned by List.
const ListLimit = 50

type Service struct {
	repo   Repository
	cipher *hipaa.FieldCipher
	now    func() time.Time
}

func NewService(repo Repository, cipher *hipaa.FieldCipher) *Service {
	return &Service{repo: repo, cipher: cipher, now: time.Now}
}

func (s *Service) Create(ctx context.Context, ownerUserID string, req CreateRequest) (*HealthRecord, error) {
	typ := strings.TrimSpace(req.Type)
	if typ == "" {
		return nil, fmt.Errorf("%w: type is required", ErrInvalidInput)
	}
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	rec := &HealthRecord{
		ID:          uuid.NewString(),
		OwnerUserID: ownerUserID,
		Type:        typ,
		Content:     req.Content,
		Tags:        tags,
		CreatedAt:   s.now().UTC(),
	}
	stored := *rec
	if err := s.cipher.SealAll(&stored.Content); err != nil {
		return nil, fmt.Errorf("seal health record: %w", err)
	}
	if err := s.repo.Create(ctx, &stored); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) List(ctx context.Context, ownerUserID string) ([]*HealthRecord, error) {
	recs, err := s.repo.ListByOwner(ctx, ownerUserID, ListLimit)
	if err != nil {
		return nil, err
	}
	for _, r := range recs {
		if err := s.cipher.OpenAll(&r.Content); err != nil {
			return nil, fmt.Errorf("open health record %s: %w", r.ID, err)
		}
		if r.Tags == nil {
			r.Tags = []string{}
		}
	}
	return recs, nil
}
