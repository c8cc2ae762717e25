package auth

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemoryRevocationStore_RevokeAndCheck(t *testing.T) {
	store := NewMemoryRevocationStore(0)
	defer store.Close()
	ctx := context.Background()

	if err := store.Revoke(ctx, "token-abc-123", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	revoked, err := store.IsRevoked(ctx, "token-abc-123")
	if err != nil {
		t.Fatalf("IsRevoked: %v", err)
	}
	if !revoked {
		t.Error("expected token to be revoked")
	}

	revoked, _ = store.IsRevoked(ctx, "unknown-jti")
	if revoked {
		t.Error("expected unknown token to not be revoked")
	}
}

func TestMemoryRevocationStore_AlreadyExpired(t *testing.T) {
	store := NewMemoryRevocationStore(0)
	defer store.Close()

	if err := store.Revoke(context.Background(), "old", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if store.Count() != 0 {
		t.Errorf("expected expired token to be ignored, count = %d", store.Count())
	}
}

func TestMemoryRevocationStore_Cleanup(t *testing.T) {
	store := NewMemoryRevocationStore(0)
	defer store.Close()
	ctx := context.Background()

	now := time.Now()
	_ = store.Revoke(ctx, "short", now.Add(time.Minute))
	_ = store.Revoke(ctx, "long", now.Add(time.Hour))

	store.now = func() time.Time { return now.Add(10 * time.Minute) }
	store.cleanup()

	if store.Count() != 1 {
		t.Fatalf("expected 1 entry after cleanup, got %d", store.Count())
	}
	if revoked, _ := store.IsRevoked(ctx, "long"); !revoked {
		t.Error("expected long-lived token to survive cleanup")
	}
}

func TestMemoryRevocationStore_CloseTwice(t *testing.T) {
	store := NewMemoryRevocationStore(time.Minute)
	store.Close()
	store.Close()
}

func TestMemoryRevocationStore_Concurrent(t *testing.T) {
	store := NewMemoryRevocationStore(0)
	defer store.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			jti := fmt.Sprintf("jti-%d", i)
			_ = store.Revoke(ctx, jti, time.Now().Add(time.Hour))
			_, _ = store.IsRevoked(ctx, jti)
		}(i)
	}
	wg.Wait()

	if store.Count() != 50 {
		t.Errorf("expected 50 entries, got %d", store.Count())
	}
}
