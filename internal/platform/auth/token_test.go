package auth

import (
	"errors"
	"testing"
	"time"
)

func TestNewTokenIssuer_RequiresKey(t *testing.T) {
	if _, err := NewTokenIssuer(nil, time.Hour); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestNewTokenIssuer_DefaultTTL(t *testing.T) {
	issuer, err := NewTokenIssuer(testSigningKey, 0)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	if issuer.TTL() != DefaultTokenTTL {
		t.Errorf("expected TTL %v, got %v", DefaultTokenTTL, issuer.TTL())
	}
}

func TestTokenIssuer_IssueAndParse(t *testing.T) {
	issuer := newTestIssuer(t)

	token, issued, err := issuer.Issue("user-7", "doc@example.com", RoleDoctor)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if issued.ID == "" {
		t.Error("expected a token id")
	}

	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != "user-7" {
		t.Errorf("expected subject user-7, got %q", claims.Subject)
	}
	if claims.Role != RoleDoctor {
		t.Errorf("expected role doctor, got %q", claims.Role)
	}
	if claims.Email != "doc@example.com" {
		t.Errorf("expected email, got %q", claims.Email)
	}
	if claims.ID != issued.ID {
		t.Errorf("expected id %q, got %q", issued.ID, claims.ID)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != time.Hour {
		t.Errorf("expected 1h lifetime, got %v", got)
	}
}

func TestTokenIssuer_UniqueIDs(t *testing.T) {
	issuer := newTestIssuer(t)
	_, a, _ := issuer.Issue("u", "e", RolePatient)
	_, b, _ := issuer.Issue("u", "e", RolePatient)
	if a.ID == b.ID {
		t.Error("expected distinct token ids")
	}
}

func TestTokenIssuer_ParseGarbage(t *testing.T) {
	issuer := newTestIssuer(t)
	for _, tok := range []string{"", "abc", "a.b.c"} {
		if _, err := issuer.Parse(tok); err == nil {
			t.Errorf("Parse(%q): expected error", tok)
		}
	}
}

func TestTokenIssuer_ParseOtherKey(t *testing.T) {
	issuer := newTestIssuer(t)
	token, _, err := issuer.Issue("u", "e", RolePatient)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other, _ := NewTokenIssuer([]byte("another-key"), time.Hour)
	if _, err := other.Parse(token); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestPassword_HashAndCheck(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "s3cret" {
		t.Fatal("hash must differ from plaintext")
	}
	if err := CheckPassword(hash, "s3cret"); err != nil {
		t.Errorf("expected match, got %v", err)
	}
	if err := CheckPassword(hash, "wrong"); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestPassword_BadHash(t *testing.T) {
	err := CheckPassword("not-a-hash", "pw")
	if err == nil || errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("expected non-mismatch error, got %v", err)
	}
}
