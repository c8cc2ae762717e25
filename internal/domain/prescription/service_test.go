package prescription

import (
	"context"
	"crypto/rand"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/carebridge/internal/domain/identity"
	"github.com/carebridge/carebridge/internal/platform/auth"
	"github.com/carebridge/carebridge/internal/platform/hipaa"
)

// =========== Mocks ===========

type mockRepo struct {
	items map[string]*Prescription
	err   error
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[string]*Prescription)}
}

func (m *mockRepo) Create(_ context.Context, p *Prescription) error {
	if m.err != nil {
		return m.err
	}
	cp := *p
	m.items[p.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id string) (*Prescription, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientUserID string, limit, offset int) ([]*Prescription, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	var out []*Prescription
	for _, p := range m.items {
		if p.PatientUserID == patientUserID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	total := len(out)
	if offset >= total {
		return []*Prescription{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return out[offset:end], total, nil
}

func (m *mockRepo) Update(_ context.Context, id string, patch UpdateRequest, updatedAt time.Time) error {
	if m.err != nil {
		return m.err
	}
	p, ok := m.items[id]
	if !ok {
		return ErrNotFound
	}
	if patch.Diagnosis != nil {
		p.Diagnosis = *patch.Diagnosis
	}
	if patch.Medicines != nil {
		p.Medicines = *patch.Medicines
	}
	if patch.Notes != nil {
		p.Notes = *patch.Notes
	}
	p.UpdatedAt = updatedAt
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

type mockDirectory map[uuid.UUID]*identity.User

func (d mockDirectory) GetUser(_ context.Context, id uuid.UUID) (*identity.User, error) {
	u, ok := d[id]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	return u, nil
}

type mockLinks map[[2]string]bool

func (l mockLinks) IsLinked(_ context.Context, familyUserID, patientUserID string) (bool, error) {
	return l[[2]string{familyUserID, patientUserID}], nil
}

type fixture struct {
	svc     *Service
	repo    *mockRepo
	patient *identity.User
	links   mockLinks
}

func newFixture(t *testing.T, cipher *hipaa.FieldCipher) *fixture {
	t.Helper()
	patient := &identity.User{ID: uuid.New(), Email: "p@example.com", Role: auth.RolePatient}
	doctor := &identity.User{ID: uuid.New(), Email: "d@example.com", Role: auth.RoleDoctor}
	dir := mockDirectory{patient.ID: patient, doctor.ID: doctor}
	links := mockLinks{}
	repo := newMockRepo()
	return &fixture{
		svc:     NewService(repo, dir, links, cipher),
		repo:    repo,
		patient: patient,
		links:   links,
	}
}

func strPtr(s string) *string { return &s }

func (f *fixture) create(t *testing.T, doctorID string) *Prescription {
	t.Helper()
	p, err := f.svc.Create(context.Background(), doctorID, CreateRequest{
		PatientUserID: f.patient.ID.String(),
		Diagnosis:     "bronchitis",
		Medicines:     []string{"amoxicillin"},
		Notes:         "take with food",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return p
}

// =========== Service Tests ===========

func TestService_Create(t *testing.T) {
	f := newFixture(t, nil)
	p := f.create(t, "doc-1")
	if p.ID == "" || p.DoctorUserID != "doc-1" || p.Date.IsZero() {
		t.Errorf("unexpected prescription %+v", p)
	}
	if len(f.repo.items) != 1 {
		t.Errorf("expected 1 stored prescription, got %d", len(f.repo.items))
	}
}

func TestService_Create_PatientChecks(t *testing.T) {
	f := newFixture(t, nil)
	var doctorID string
	for id, u := range f.svc.users.(mockDirectory) {
		if u.Role == auth.RoleDoctor {
			doctorID = id.String()
		}
	}
	for _, pid := range []string{"not-a-uuid", uuid.NewString(), doctorID} {
		_, err := f.svc.Create(context.Background(), "doc", CreateRequest{PatientUserID: pid, Diagnosis: "x", Medicines: []string{}})
		if !errors.Is(err, ErrPatientNotFound) {
			t.Errorf("%s: expected ErrPatientNotFound, got %v", pid, err)
		}
	}
}

func TestService_Create_Validation(t *testing.T) {
	f := newFixture(t, nil)
	pid := f.patient.ID.String()
	for _, req := range []CreateRequest{
		{Diagnosis: "x", Medicines: []string{}},
		{PatientUserID: pid, Diagnosis: " ", Medicines: []string{}},
		{PatientUserID: pid, Diagnosis: "x"},
	} {
		if _, err := f.svc.Create(context.Background(), "doc", req); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%+v: expected ErrInvalidInput, got %v", req, err)
		}
	}
}

func TestService_ListForPatient_Access(t *testing.T) {
	f := newFixture(t, nil)
	f.create(t, "doc-1")
	pid := f.patient.ID.String()
	ctx := context.Background()

	self := auth.Principal{UserID: pid, Role: auth.RolePatient}
	items, total, err := f.svc.ListForPatient(ctx, self, pid, 20, 0)
	if err != nil || total != 1 || len(items) != 1 {
		t.Fatalf("self: %v total=%d len=%d", err, total, len(items))
	}

	relative := auth.Principal{UserID: "fam-1", Role: auth.RoleFamily}
	if _, _, err := f.svc.ListForPatient(ctx, relative, pid, 20, 0); !errors.Is(err, ErrCannotView) {
		t.Errorf("unlinked family: expected ErrCannotView, got %v", err)
	}
	f.links[[2]string{"fam-1", pid}] = true
	if _, _, err := f.svc.ListForPatient(ctx, relative, pid, 20, 0); err != nil {
		t.Errorf("linked family: %v", err)
	}

	doctor := auth.Principal{UserID: "doc-1", Role: auth.RoleDoctor}
	if _, _, err := f.svc.ListForPatient(ctx, doctor, pid, 20, 0); !errors.Is(err, ErrCannotView) {
		t.Errorf("doctor: expected ErrCannotView, got %v", err)
	}
}

func TestService_Update(t *testing.T) {
	f := newFixture(t, nil)
	p := f.create(t, "doc-1")
	ctx := context.Background()

	meds := []string{"azithromycin", "ibuprofen"}
	got, err := f.svc.Update(ctx, "doc-1", p.ID, UpdateRequest{Medicines: &meds})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Diagnosis != "bronchitis" || got.Notes != "take with food" || len(got.Medicines) != 2 {
		t.Errorf("partial update changed other fields: %+v", got)
	}

	if _, err := f.svc.Update(ctx, "doc-2", p.ID, UpdateRequest{Notes: strPtr("x")}); !errors.Is(err, ErrCannotModify) {
		t.Errorf("expected ErrCannotModify, got %v", err)
	}
	if _, err := f.svc.Update(ctx, "doc-1", "missing", UpdateRequest{Notes: strPtr("x")}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := f.svc.Update(ctx, "doc-1", p.ID, UpdateRequest{}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty patch, got %v", err)
	}
	if _, err := f.svc.Update(ctx, "doc-1", p.ID, UpdateRequest{Diagnosis: strPtr("")}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty diagnosis, got %v", err)
	}
}

func TestService_Delete(t *testing.T) {
	f := newFixture(t, nil)
	p := f.create(t, "doc-1")
	ctx := context.Background()

	if err := f.svc.Delete(ctx, "doc-2", p.ID); !errors.Is(err, ErrCannotDelete) {
		t.Errorf("expected ErrCannotDelete, got %v", err)
	}
	if err := f.svc.Delete(ctx, "doc-1", p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := f.svc.Delete(ctx, "doc-1", p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_EncryptsDiagnosisAndNotes(t *testing.T) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatal(err)
	}
	cipher, err := hipaa.NewFieldCipher(key)
	if err != nil {
		t.Fatal(err)
	}
	f := newFixture(t, cipher)
	p := f.create(t, "doc-1")

	stored := f.repo.items[p.ID]
	if !hipaa.IsSealed(stored.Diagnosis) || !hipaa.IsSealed(stored.Notes) {
		t.Fatalf("expected sealed fields at rest: %+v", stored)
	}

	updated, err := f.svc.Update(context.Background(), "doc-1", p.ID, UpdateRequest{Notes: strPtr("twice daily")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Notes != "twice daily" || updated.Diagnosis != "bronchitis" {
		t.Errorf("expected decrypted fields, got %+v", updated)
	}
	if !hipaa.IsSealed(f.repo.items[p.ID].Notes) {
		t.Error("updated notes must be sealed at rest")
	}

	pid := f.patient.ID.String()
	items, _, err := f.svc.ListForPatient(context.Background(), auth.Principal{UserID: pid}, pid, 20, 0)
	if err != nil || len(items) != 1 || items[0].Diagnosis != "bronchitis" {
		t.Errorf("list: %v %+v", err, items)
	}
}
