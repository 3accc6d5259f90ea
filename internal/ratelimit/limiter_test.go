package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryLimiter_CeilingWithinWindow(t *testing.T) {
	l := NewMemoryLimiter()
	rule := Rule{Max: 5, Window: time.Minute}
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if !l.Allow(ctx, "1.2.3.4:login", rule) {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow(ctx, "1.2.3.4:login", rule) {
		t.Fatal("6th request within the window should be rejected")
	}
}

func TestMemoryLimiter_WindowReset(t *testing.T) {
	l := NewMemoryLimiter()
	now := time.Unix(1_700_000_000, 0).UTC()
	l.nowF = func() time.Time { return now }
	rule := Rule{Max: 2, Window: time.Minute}
	ctx := context.Background()

	if !l.Allow(ctx, "k", rule) || !l.Allow(ctx, "k", rule) {
		t.Fatal("first two requests should be allowed")
	}
	if l.Allow(ctx, "k", rule) {
		t.Fatal("third request should be rejected")
	}

	now = now.Add(time.Minute)
	if !l.Allow(ctx, "k", rule) {
		t.Fatal("request after the window elapsed should be allowed")
	}
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	l := NewMemoryLimiter()
	rule := Rule{Max: 1, Window: time.Minute}
	ctx := context.Background()

	if !l.Allow(ctx, "a:login", rule) {
		t.Fatal("first key should be allowed")
	}
	if l.Allow(ctx, "a:login", rule) {
		t.Fatal("first key should now be limited")
	}
	if !l.Allow(ctx, "b:login", rule) {
		t.Fatal("second key should not share the first key's counter")
	}
	if !l.Allow(ctx, "a:signup", rule) {
		t.Fatal("same client, different endpoint tag should have its own counter")
	}
}

func TestMemoryLimiter_ConcurrentIncrements(t *testing.T) {
	l := NewMemoryLimiter()
	rule := Rule{Max: 50, Window: time.Minute}
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow(ctx, "hot", rule) {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if allowed != 50 {
		t.Errorf("allowed = %d, want exactly 50 under concurrency", allowed)
	}
}

func TestMemoryLimiter_ZeroRuleAllows(t *testing.T) {
	l := NewMemoryLimiter()
	if !l.Allow(context.Background(), "k", Rule{}) {
		t.Fatal("zero-valued rule should not limit")
	}
}

func TestDisabled_AlwaysAllows(t *testing.T) {
	var l Limiter = Disabled{}
	rule := Rule{Max: 1, Window: time.Minute}
	for i := 0; i < 10; i++ {
		if !l.Allow(context.Background(), "k", rule) {
			t.Fatal("disabled limiter must always allow")
		}
	}
}
