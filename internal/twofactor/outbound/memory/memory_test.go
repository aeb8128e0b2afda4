package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/wicaksono/authstep/internal/pkg/goerror"
	"github.com/wicaksono/authstep/internal/twofactor/entity"
)

func TestStoreSessionLifecycle(t *testing.T) {
	// Arrange
	store := NewStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	session := entity.Session{
		ID:        1,
		UserID:    42,
		Token:     "hash-1",
		CreatedAt: now,
		ExpiresAt: now.Add(5 * time.Minute),
	}

	// Act
	if err := store.CreateSession(ctx, session); err != nil {
		t.Fatalf("create session: %v", err)
	}

	// Assert
	got, err := store.GetSessionByToken(ctx, "hash-1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.ID != 1 || got.UserID != 42 {
		t.Fatalf("unexpected session: %+v", got)
	}

	if err := store.CreateSession(ctx, session); !errors.Is(err, goerror.ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate, got %v", err)
	}

	attempts, err := store.IncrementSessionAttempts(ctx, 1)
	if err != nil {
		t.Fatalf("increment attempts: %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected attempts 1, got %d", attempts)
	}

	ok, err := store.FinalizeSession(ctx, 1)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if !ok {
		t.Fatal("expected first finalize to win")
	}
	if ok, _ := store.FinalizeSession(ctx, 1); ok {
		t.Fatal("expected second finalize to lose")
	}
}

func TestStoreDeleteExpiredSessions(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	for i, age := range []time.Duration{-time.Minute, 0, time.Minute} {
		err := store.CreateSession(ctx, entity.Session{
			ID:        int64(i + 1),
			UserID:    42,
			Token:     string(rune('a' + i)),
			CreatedAt: now.Add(-5 * time.Minute),
			ExpiresAt: now.Add(age),
		})
		if err != nil {
			t.Fatalf("create session %d: %v", i, err)
		}
	}

	// Sessions expiring at or before now go, the live one stays.
	deleted, err := store.DeleteExpiredSessions(ctx, now)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted, got %d", deleted)
	}

	if _, err := store.GetSessionByToken(ctx, "c"); err != nil {
		t.Fatalf("expected live session to survive, got %v", err)
	}
	if _, err := store.GetSessionByToken(ctx, "a"); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("expected expired session gone, got %v", err)
	}
}

func TestStoreDeleteSecondFactorCascades(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	now := time.Now()

	factor := entity.SecondFactor{UserID: 42, Secret: []byte("sealed"), UpdatedAt: now}
	codes := []entity.BackupCode{{ID: 10, UserID: 42, Code: "h1"}, {ID: 11, UserID: 42, Code: "h2"}}
	if err := store.ReplaceSecondFactor(ctx, factor, codes); err != nil {
		t.Fatalf("replace factor: %v", err)
	}
	if err := store.CreateSession(ctx, entity.Session{ID: 1, UserID: 42, Token: "t", CreatedAt: now, ExpiresAt: now.Add(time.Minute)}); err != nil {
		t.Fatalf("create session: %v", err)
	}

	if err := store.DeleteSecondFactor(ctx, 42); err != nil {
		t.Fatalf("delete factor: %v", err)
	}

	if _, err := store.GetSecondFactor(ctx, 42); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("expected factor gone, got %v", err)
	}
	if count, _ := store.CountBackupCodes(ctx, 42); count != 0 {
		t.Fatalf("expected 0 backup codes, got %d", count)
	}
	if _, err := store.GetSessionByToken(ctx, "t"); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("expected session gone, got %v", err)
	}
}

func TestStoreConsumeBackupCodeRace(t *testing.T) {
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		store := NewStore()
		if err := store.ReplaceBackupCodes(ctx, 42, []entity.BackupCode{{ID: 1, UserID: 42, Code: "h"}}); err != nil {
			t.Fatalf("seed codes: %v", err)
		}

		var wg sync.WaitGroup
		wins := make([]bool, 2)

		for g := 0; g < 2; g++ {
			wg.Add(1)
			go func(g int) {
				defer wg.Done()
				ok, err := store.ConsumeBackupCode(ctx, 1, 42)
				if err != nil {
					t.Errorf("consume: %v", err)
					return
				}
				wins[g] = ok
			}(g)
		}
		wg.Wait()

		if wins[0] == wins[1] {
			t.Fatalf("iteration %d: expected exactly one winner, got %v", i, wins)
		}
	}
}

func TestStoreFinalizeSessionRace(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 100; i++ {
		store := NewStore()
		err := store.CreateSession(ctx, entity.Session{ID: 1, UserID: 42, Token: "t", CreatedAt: now, ExpiresAt: now.Add(time.Minute)})
		if err != nil {
			t.Fatalf("create session: %v", err)
		}

		var wg sync.WaitGroup
		wins := make([]bool, 2)

		for g := 0; g < 2; g++ {
			wg.Add(1)
			go func(g int) {
				defer wg.Done()
				ok, err := store.FinalizeSession(ctx, 1)
				if err != nil {
					t.Errorf("finalize: %v", err)
					return
				}
				wins[g] = ok
			}(g)
		}
		wg.Wait()

		if wins[0] == wins[1] {
			t.Fatalf("iteration %d: expected exactly one winner, got %v", i, wins)
		}
	}
}
