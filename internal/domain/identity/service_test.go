package identity

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/carebridge/internal/platform/auth"
)

// =========== Mock Repository ===========

type mockUserRepo struct {
	byID map[uuid.UUID]*User
	err  error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{byID: make(map[uuid.UUID]*User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	if m.err != nil {
		return m.err
	}
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return ErrUserExists
		}
	}
	m.byID[u.ID] = u
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func newTestService(t *testing.T) (*Service, *mockUserRepo, *auth.MemoryRevocationStore) {
	t.Helper()
	issuer, err := auth.NewTokenIssuer([]byte("identity-test-key"), time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	repo := newMockUserRepo()
	revoked := auth.NewMemoryRevocationStore(0)
	t.Cleanup(revoked.Close)
	return NewService(repo, issuer, revoked), repo, revoked
}

func register(t *testing.T, svc *Service, email, role string) *User {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterRequest{
		Email: email, FullName: "Test User", Password: "s3cret", Role: role,
	})
	if err != nil {
		t.Fatalf("Register(%s): %v", email, err)
	}
	return u
}

// =========== Service Tests ===========

func TestService_Register(t *testing.T) {
	svc, repo, _ := newTestService(t)

	u := register(t, svc, "  Alice@Example.COM ", auth.RolePatient)
	if u.Email != "alice@example.com" {
		t.Errorf("expected normalized email, got %q", u.Email)
	}
	if u.ID == uuid.Nil {
		t.Error("expected id to be assigned")
	}
	if u.PasswordHash == "" || u.PasswordHash == "s3cret" {
		t.Error("expected password to be hashed")
	}
	if len(repo.byID) != 1 {
		t.Errorf("expected 1 stored user, got %d", len(repo.byID))
	}
}

func TestService_Register_Duplicate(t *testing.T) {
	svc, _, _ := newTestService(t)
	register(t, svc, "bob@example.com", auth.RoleDoctor)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email: "BOB@example.com", Password: "x", Role: auth.RoleFamily,
	})
	if !errors.Is(err, ErrUserExists) {
		t.Errorf("expected ErrUserExists, got %v", err)
	}
}

func TestService_Register_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	tests := []struct {
		name string
		req  RegisterRequest
		want string
	}{
		{"bad email", RegisterRequest{Email: "not-an-email", Password: "x", Role: "patient"}, "email"},
		{"display name", RegisterRequest{Email: "Bob <bob@example.com>", Password: "x", Role: "patient"}, "email"},
		{"empty password", RegisterRequest{Email: "a@example.com", Role: "patient"}, "password is required"},
		{"long password", RegisterRequest{Email: "a@example.com", Password: strings.Repeat("p", 73), Role: "patient"}, "at most 72"},
		{"unknown role", RegisterRequest{Email: "a@example.com", Password: "x", Role: "admin"}, "role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.req)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected message to mention %q, got %v", tt.want, err)
			}
		})
	}
}

func TestService_Login(t *testing.T) {
	svc, _, _ := newTestService(t)
	u := register(t, svc, "carol@example.com", auth.RoleFamily)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "Carol@Example.com", Password: "s3cret"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.TokenType != "bearer" || resp.AccessToken == "" {
		t.Fatalf("unexpected response %+v", resp)
	}

	claims, err := svc.tokens.Parse(resp.AccessToken)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != u.ID.String() || claims.Role != auth.RoleFamily || claims.Email != u.Email {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestService_Login_Errors(t *testing.T) {
	svc, _, _ := newTestService(t)
	register(t, svc, "dave@example.com", auth.RolePatient)

	if _, err := svc.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "s3cret"}); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := svc.Login(context.Background(), LoginRequest{Email: "dave@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("expected ErrInvalidPassword, got %v", err)
	}
}

func TestService_Logout(t *testing.T) {
	svc, _, revoked := newTestService(t)
	p := auth.Principal{UserID: "u", TokenID: "jti-1", ExpiresAt: time.Now().Add(time.Hour)}

	if err := svc.Logout(context.Background(), p); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if ok, _ := revoked.IsRevoked(context.Background(), "jti-1"); !ok {
		t.Error("expected token to be revoked")
	}
}

func TestService_GetUserByEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	u := register(t, svc, "erin@example.com", auth.RolePatient)

	got, err := svc.GetUserByEmail(context.Background(), " ERIN@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("expected %s, got %s", u.ID, got.ID)
	}

	byID, err := svc.GetUser(context.Background(), u.ID)
	if err != nil || byID.Email != u.Email {
		t.Errorf("GetUser: %v %+v", err, byID)
	}
}

func TestSentinelErrors_LowerCase(t *testing.T) {
	for _, err := range []error{ErrUserExists, ErrUserNotFound, ErrInvalidPassword, ErrInvalidInput} {
		msg := err.Error()
		if msg != strings.ToLower(msg[:1])+msg[1:] {
			t.Errorf("error string %q should start lower-case", msg)
		}
	}
}
