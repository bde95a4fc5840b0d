package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryLimiterWindow(t *testing.T) {
	l := NewMemoryLimiter(3, time.Minute)
	ctx := context.Background()
	key := KeyForURL("https://example.webhook.office.com/a")

	for i := 0; i < 3; i++ {
		allowed, err := l.Allow(ctx, key)
		if err != nil {
			t.Fatalf("Allow failed: %v", err)
		}
		if !allowed {
			t.Fatalf("call %d should be admitted", i+1)
		}
	}

	allowed, err := l.Allow(ctx, key)
	if err != nil {
		t.Fatalf("Allow failed: %v", err)
	}
	if allowed {
		t.Error("call past the limit should be rejected")
	}
}

func TestMemoryLimiterWindowExpiry(t *testing.T) {
	l := NewMemoryLimiter(1, time.Minute)
	now := time.Now()
	l.now = func() time.Time { return now }

	ctx := context.Background()
	key := KeyForURL("https://example.webhook.office.com/a")

	if allowed, _ := l.Allow(ctx, key); !allowed {
		t.Fatal("first call should be admitted")
	}
	if allowed, _ := l.Allow(ctx, key); allowed {
		t.Fatal("second call within the window should be rejected")
	}

	now = now.Add(61 * time.Second)
	if allowed, _ := l.Allow(ctx, key); !allowed {
		t.Error("call after window expiry should be admitted")
	}
}

func TestMemoryLimiterKeysIndependent(t *testing.T) {
	l := NewMemoryLimiter(1, time.Minute)
	ctx := context.Background()

	if allowed, _ := l.Allow(ctx, KeyForURL("https://a.example.com")); !allowed {
		t.Fatal("first endpoint should be admitted")
	}
	if allowed, _ := l.Allow(ctx, KeyForURL("https://b.example.com")); !allowed {
		t.Error("a different endpoint must have its own counter")
	}
}

func TestMemoryLimiterConcurrent(t *testing.T) {
	const limit = 50
	l := NewMemoryLimiter(limit, time.Minute)
	ctx := context.Background()
	key := KeyForURL("https://example.webhook.office.com/a")

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed, err := l.Allow(ctx, key)
			if err != nil {
				t.Errorf("Allow failed: %v", err)
				return
			}
			if allowed {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != limit {
		t.Errorf("expected exactly %d admissions, got %d", limit, admitted)
	}
}

func TestKeyForURLStable(t *testing.T) {
	a := KeyForURL("https://example.webhook.office.com/a")
	b := KeyForURL("https://example.webhook.office.com/a")
	if a != b {
		t.Error("key derivation must be stable")
	}
	if a == KeyForURL("https://example.webhook.office.com/b") {
		t.Error("different URLs must derive different keys")
	}
}
