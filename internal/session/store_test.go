package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/campushub/session-system/common/redis"
	"github.com/campushub/session-system/internal/session"
)

func TestRefreshLifecycle(t *testing.T) {
	ctx := context.Background()
	store := session.NewStore(redis.NewMemory())

	if _, err := store.GetRefresh(ctx, "42"); !errors.Is(err, session.ErrNoSession) {
		t.Fatalf("GetRefresh on empty store: err = %v, want ErrNoSession", err)
	}

	if err := store.SaveRefresh(ctx, "42", "r1", time.Hour); err != nil {
		t.Fatalf("SaveRefresh: %v", err)
	}
	got, err := store.GetRefresh(ctx, "42")
	if err != nil || got != "r1" {
		t.Fatalf("GetRefresh = (%q, %v), want (r1, nil)", got, err)
	}

	// Повторный login перезаписывает сессию: одна сессия на пользователя.
	if err := store.SaveRefresh(ctx, "42", "r2", time.Hour); err != nil {
		t.Fatalf("SaveRefresh overwrite: %v", err)
	}
	got, _ = store.GetRefresh(ctx, "42")
	if got != "r2" {
		t.Errorf("GetRefresh after overwrite = %q, want r2", got)
	}

	if err := store.DeleteRefresh(ctx, "42"); err != nil {
		t.Fatalf("DeleteRefresh: %v", err)
	}
	if _, err := store.GetRefresh(ctx, "42"); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("GetRefresh after delete: err = %v, want ErrNoSession", err)
	}
	// Удаление отсутствующей сессии — no-op.
	if err := store.DeleteRefresh(ctx, "42"); err != nil {
		t.Errorf("DeleteRefresh twice: %v", err)
	}
}

func TestSwapRefresh(t *testing.T) {
	ctx := context.Background()
	store := session.NewStore(redis.NewMemory())

	if err := store.SaveRefresh(ctx, "42", "r1", time.Hour); err != nil {
		t.Fatalf("SaveRefresh: %v", err)
	}

	ok, err := store.SwapRefresh(ctx, "42", "r1", "r2", time.Hour)
	if err != nil || !ok {
		t.Fatalf("SwapRefresh = (%v, %v), want (true, nil)", ok, err)
	}
	got, _ := store.GetRefresh(ctx, "42")
	if got != "r2" {
		t.Errorf("value after swap = %q, want r2", got)
	}

	// Старое значение больше не принимается.
	ok, err = store.SwapRefresh(ctx, "42", "r1", "r3", time.Hour)
	if err != nil {
		t.Fatalf("SwapRefresh stale: %v", err)
	}
	if ok {
		t.Error("SwapRefresh with stale value succeeded")
	}

	// Отсутствующий ключ — проигрыш, не ошибка.
	ok, err = store.SwapRefresh(ctx, "no-such-user", "x", "y", time.Hour)
	if err != nil || ok {
		t.Errorf("SwapRefresh missing key = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestSwapRefreshConcurrent(t *testing.T) {
	ctx := context.Background()
	store := session.NewStore(redis.NewMemory())

	if err := store.SaveRefresh(ctx, "42", "r1", time.Hour); err != nil {
		t.Fatalf("SaveRefresh: %v", err)
	}

	const racers = 16
	var wg sync.WaitGroup
	wins := make(chan int, racers)
	for i := 0; i < racers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.SwapRefresh(ctx, "42", "r1", "new", time.Hour)
			if err != nil {
				t.Errorf("racer %d: %v", i, err)
				return
			}
			if ok {
				wins <- i
			}
		}()
	}
	wg.Wait()
	close(wins)

	var winners int
	for range wins {
		winners++
	}
	if winners != 1 {
		t.Errorf("winners = %d, want exactly 1", winners)
	}
}

func TestRevocation(t *testing.T) {
	ctx := context.Background()
	store := session.NewStore(redis.NewMemory())

	revoked, err := store.IsRevoked(ctx, "tok")
	if err != nil || revoked {
		t.Fatalf("IsRevoked fresh = (%v, %v), want (false, nil)", revoked, err)
	}

	if err := store.Revoke(ctx, "tok", time.Minute); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	revoked, err = store.IsRevoked(ctx, "tok")
	if err != nil || !revoked {
		t.Fatalf("IsRevoked = (%v, %v), want (true, nil)", revoked, err)
	}

	// Повторный revoke того же токена — idempotent.
	if err := store.Revoke(ctx, "tok", time.Minute); err != nil {
		t.Errorf("Revoke twice: %v", err)
	}
}

func TestRevocationMarkerExpires(t *testing.T) {
	ctx := context.Background()
	store := session.NewStore(redis.NewMemory())

	// Маркер с истёкшим TTL пишется, но сразу устаревает: он не должен
	// пережить токен, который блокирует.
	if err := store.Revoke(ctx, "tok", 10*time.Millisecond); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	revoked, err := store.IsRevoked(ctx, "tok")
	if err != nil {
		t.Fatalf("IsRevoked: %v", err)
	}
	if revoked {
		t.Error("revocation marker outlived its TTL")
	}
}
