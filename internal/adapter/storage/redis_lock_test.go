package storage

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func TestAcquire_Success(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	lock := NewRedisLock(client)

	// Setup
	client.Del(ctx, "lock:test-resource")

	// Test
	token, err := lock.Acquire(ctx, "test-resource", 30*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token")
	}

	// Verify the stored value is our token
	stored, _ := client.Get(ctx, "lock:test-resource").Result()
	if stored != token {
		t.Errorf("expected stored token %s, got %s", token, stored)
	}
}

func TestAcquire_Busy(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	lock := NewRedisLock(client)

	client.Del(ctx, "lock:busy-resource")

	first, err := lock.Acquire(ctx, "busy-resource", 30*time.Second)
	if err != nil || first == "" {
		t.Fatalf("setup acquire failed: token=%q err=%v", first, err)
	}

	second, err := lock.Acquire(ctx, "busy-resource", 30*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second != "" {
		t.Errorf("expected empty token while held, got %s", second)
	}
}

func TestRelease_Success(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	lock := NewRedisLock(client)

	client.Del(ctx, "lock:release-resource")

	token, err := lock.Acquire(ctx, "release-resource", 30*time.Second)
	if err != nil || token == "" {
		t.Fatalf("setup acquire failed: token=%q err=%v", token, err)
	}

	released, err := lock.Release(ctx, "release-resource", token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !released {
		t.Error("expected release to succeed")
	}

	// Lock is acquirable again
	again, err := lock.Acquire(ctx, "release-resource", 30*time.Second)
	if err != nil || again == "" {
		t.Errorf("expected re-acquire after release: token=%q err=%v", again, err)
	}
}

func TestRelease_WrongToken(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	lock := NewRedisLock(client)

	client.Del(ctx, "lock:wrong-token-resource")

	token, err := lock.Acquire(ctx, "wrong-token-resource", 30*time.Second)
	if err != nil || token == "" {
		t.Fatalf("setup acquire failed: token=%q err=%v", token, err)
	}

	released, err := lock.Release(ctx, "wrong-token-resource", "not-the-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if released {
		t.Error("expected release with wrong token to fail")
	}

	// Entry untouched
	stored, _ := client.Get(ctx, "lock:wrong-token-resource").Result()
	if stored != token {
		t.Errorf("entry changed: expected %s, got %s", token, stored)
	}
}

func TestAcquire_TTLExpiry(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	lock := NewRedisLock(client)

	client.Del(ctx, "lock:ttl-resource")

	token, err := lock.Acquire(ctx, "ttl-resource", 1*time.Second)
	if err != nil || token == "" {
		t.Fatalf("setup acquire failed: token=%q err=%v", token, err)
	}

	time.Sleep(1100 * time.Millisecond)

	// The entry expired, so a new acquirer wins.
	second, err := lock.Acquire(ctx, "ttl-resource", 30*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second == "" {
		t.Error("expected acquire after TTL expiry")
	}

	// The stale holder's release must not remove the new holder's entry.
	released, err := lock.Release(ctx, "ttl-resource", token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if released {
		t.Error("stale token must not release the new holder's lock")
	}
}

func TestAcquire_Concurrent(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	lock := NewRedisLock(client)

	client.Del(ctx, "lock:concurrent-resource")

	var successCount atomic.Int32
	var wg sync.WaitGroup
	concurrency := 50

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := lock.Acquire(ctx, "concurrent-resource", 30*time.Second)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if token != "" {
				successCount.Add(1)
			}
		}()
	}

	wg.Wait()

	if successCount.Load() != 1 {
		t.Errorf("expected exactly 1 successful acquire, got %d", successCount.Load())
	}
}
