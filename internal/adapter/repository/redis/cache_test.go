package redis

import (
	"context"
	"testing"
	"time"
)

func TestCacheSetGet(t *testing.T) {
	client, _ := newTestRedisClient(t)
	cache := NewCache(client)

	ctx := context.Background()

	if err := cache.Set(ctx, "currency:USD", []byte(`{"code":"USD"}`), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	data, err := cache.Get(ctx, "currency:USD")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(data) != `{"code":"USD"}` {
		t.Fatalf("unexpected value: %s", data)
	}
}

func TestCacheGetMissing(t *testing.T) {
	client, _ := newTestRedisClient(t)
	cache := NewCache(client)

	data, err := cache.Get(context.Background(), "currency:XXX")
	if err != nil {
		t.Fatalf("expected miss to be silent, got %v", err)
	}
	if data != nil {
		t.Fatalf("expected nil value on miss, got %s", data)
	}
}

func TestCacheDelete(t *testing.T) {
	client, _ := newTestRedisClient(t)
	cache := NewCache(client)

	ctx := context.Background()

	if err := cache.Set(ctx, "currency:EUR", []byte("x"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := cache.Delete(ctx, "currency:EUR"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	data, err := cache.Get(ctx, "currency:EUR")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if data != nil {
		t.Fatalf("expected nil after delete, got %s", data)
	}
}

func TestCacheExpiry(t *testing.T) {
	client, mr := newTestRedisClient(t)
	cache := NewCache(client)

	ctx := context.Background()

	if err := cache.Set(ctx, "currency:GBP", []byte("x"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	data, err := cache.Get(ctx, "currency:GBP")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if data != nil {
		t.Fatalf("expected nil after expiry, got %s", data)
	}
}
