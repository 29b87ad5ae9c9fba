package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/agoraboard/agora/pkg/config"
)

// memoryCounter is a clock-injected in-memory CounterStore
type memoryCounter struct {
	mu      sync.Mutex
	now     time.Time
	counts  map[string]int64
	expires map[string]time.Time
}

func newMemoryCounter() *memoryCounter {
	return &memoryCounter{
		now:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		counts:  make(map[string]int64),
		expires: make(map[string]time.Time),
	}
}

func (m *memoryCounter) IncrWindow(_ context.Context, key string, window time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if exp, ok := m.expires[key]; ok && !m.now.Before(exp) {
		delete(m.counts, key)
		delete(m.expires, key)
	}

	m.counts[key]++
	if m.counts[key] == 1 {
		m.expires[key] = m.now.Add(window)
	}
	return m.counts[key], nil
}

func (m *memoryCounter) advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

func testConfig() *config.RateLimitConfig {
	return &config.RateLimitConfig{
		WindowSeconds:    60,
		MaxSignup:        5,
		MaxLogin:         5,
		MaxCreatePost:    3,
		MaxCreateComment: 20,
		MaxReport:        10,
	}
}

func TestLimiter_Consume(t *testing.T) {
	store := newMemoryCounter()
	limiter := New(store, testConfig())
	ctx := context.Background()
	key := ActorKey("user:u1")

	// Max for create_post is 3: three admits, then rejection
	for i := 0; i < 3; i++ {
		ok, err := limiter.Consume(ctx, ActionCreatePost, key)
		if err != nil {
			t.Fatalf("Consume() error: %v", err)
		}
		if !ok {
			t.Fatalf("call %d should be admitted", i+1)
		}
	}

	ok, err := limiter.Consume(ctx, ActionCreatePost, key)
	if err != nil {
		t.Fatalf("Consume() error: %v", err)
	}
	if ok {
		t.Error("call over budget should be rejected")
	}
}

func TestLimiter_WindowElapses(t *testing.T) {
	store := newMemoryCounter()
	limiter := New(store, testConfig())
	ctx := context.Background()
	key := ActorKey("user:u1")

	for i := 0; i < 4; i++ {
		limiter.Consume(ctx, ActionCreatePost, key)
	}

	store.advance(61 * time.Second)

	ok, err := limiter.Consume(ctx, ActionCreatePost, key)
	if err != nil {
		t.Fatalf("Consume() error: %v", err)
	}
	if !ok {
		t.Error("call after window elapsed should be admitted")
	}
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	store := newMemoryCounter()
	limiter := New(store, testConfig())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		limiter.Consume(ctx, ActionCreatePost, ActorKey("user:u1"))
	}

	ok, _ := limiter.Consume(ctx, ActionCreatePost, ActorKey("user:u2"))
	if !ok {
		t.Error("a different actor key must have its own budget")
	}

	// Same key under a different action also has its own budget
	ok, _ = limiter.Consume(ctx, ActionReport, ActorKey("user:u1"))
	if !ok {
		t.Error("a different action must have its own budget")
	}
}

func TestLimiter_ConsumeAll(t *testing.T) {
	store := newMemoryCounter()
	limiter := New(store, testConfig())
	ctx := context.Background()

	ipKey := ActorKey("ip:10.0.0.1")
	userKey := ActorKey("user:u1")

	// Exhaust only the IP budget via a second user on the same IP
	otherKey := ActorKey("user:u2")
	for i := 0; i < 3; i++ {
		limiter.ConsumeAll(ctx, ActionCreatePost, ipKey, otherKey)
	}

	// Fresh user, exhausted IP: both keys must admit, so reject
	ok, err := limiter.ConsumeAll(ctx, ActionCreatePost, ipKey, userKey)
	if err != nil {
		t.Fatalf("ConsumeAll() error: %v", err)
	}
	if ok {
		t.Error("exhausted IP budget must reject regardless of user budget")
	}
}

func TestLimiter_NilStoreFailsOpen(t *testing.T) {
	limiter := New(nil, testConfig())

	ok, err := limiter.Consume(context.Background(), ActionSignup, ActorKey("ip:10.0.0.1"))
	if err != nil {
		t.Fatalf("Consume() error: %v", err)
	}
	if !ok {
		t.Error("limiter without a store must fail open")
	}
}

func TestLimiter_ConcurrentSameActor(t *testing.T) {
	store := newMemoryCounter()
	limiter := New(store, testConfig())
	ctx := context.Background()
	key := ActorKey("user:u1")

	const calls = 20
	var wg sync.WaitGroup
	admitted := make(chan bool, calls)

	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := limiter.Consume(ctx, ActionCreatePost, key)
			if err != nil {
				t.Errorf("Consume() error: %v", err)
				return
			}
			admitted <- ok
		}()
	}
	wg.Wait()
	close(admitted)

	count := 0
	for ok := range admitted {
		if ok {
			count++
		}
	}
	if count != 3 {
		t.Errorf("expected exactly 3 admissions under concurrency, got %d", count)
	}
}

func TestActorKey(t *testing.T) {
	if ActorKey("user:u1") != ActorKey("user:u1") {
		t.Error("ActorKey must be deterministic")
	}
	if ActorKey("user:u1") == ActorKey("user:u2") {
		t.Error("distinct identities must map to distinct keys")
	}
	key := ActorKey("ip:203.0.113.9")
	if len(key) != 64 {
		t.Errorf("expected 64-char sha256 hex key, got length %d", len(key))
	}
	if key == "ip:203.0.113.9" {
		t.Error("raw identity must never be used as the counter key")
	}
}
