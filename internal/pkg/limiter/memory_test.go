package limiter

import (
	"context"
	"testing"
	"time"
)

func TestMemoryAllowWithinLimit(t *testing.T) {
	// Arrange
	lim := NewMemory(3, time.Minute)
	ctx := context.Background()
	key := AttemptKey("twofactor:verify", 42)

	// Act & Assert
	for i := 0; i < 3; i++ {
		ok, err := lim.Allow(ctx, key)
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !ok {
			t.Fatalf("expected hit %d to be allowed", i)
		}
	}

	ok, err := lim.Allow(ctx, key)
	if err != nil {
		t.Fatalf("allow past limit: %v", err)
	}
	if ok {
		t.Fatal("expected fourth hit to be denied")
	}
}

func TestMemoryWindowExpiry(t *testing.T) {
	// Arrange
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	lim := NewMemory(1, time.Minute)
	lim.now = func() time.Time { return now }
	ctx := context.Background()

	if ok, _ := lim.Allow(ctx, "k"); !ok {
		t.Fatal("expected first hit to be allowed")
	}
	if ok, _ := lim.Allow(ctx, "k"); ok {
		t.Fatal("expected second hit inside window to be denied")
	}

	// Act: advance past the window.
	now = now.Add(time.Minute)

	// Assert: a fresh window opens.
	if ok, _ := lim.Allow(ctx, "k"); !ok {
		t.Fatal("expected hit after window expiry to be allowed")
	}
}

func TestMemoryReset(t *testing.T) {
	lim := NewMemory(1, time.Minute)
	ctx := context.Background()

	if ok, _ := lim.Allow(ctx, "k"); !ok {
		t.Fatal("expected first hit to be allowed")
	}
	if ok, _ := lim.Allow(ctx, "k"); ok {
		t.Fatal("expected second hit to be denied")
	}

	if err := lim.Reset(ctx, "k"); err != nil {
		t.Fatalf("reset: %v", err)
	}

	if ok, _ := lim.Allow(ctx, "k"); !ok {
		t.Fatal("expected hit after reset to be allowed")
	}
}

func TestMemoryKeysAreIndependent(t *testing.T) {
	lim := NewMemory(1, time.Minute)
	ctx := context.Background()

	if ok, _ := lim.Allow(ctx, AttemptKey("twofactor:verify", 1)); !ok {
		t.Fatal("expected first key to be allowed")
	}
	if ok, _ := lim.Allow(ctx, AttemptKey("twofactor:verify", 2)); !ok {
		t.Fatal("expected second key to be allowed")
	}
}
