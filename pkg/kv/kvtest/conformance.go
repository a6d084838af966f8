// Package kvtest provides conformance tests for kv.Store implementations
package kvtest

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pulseboard/pulseboard-backend/pkg/kv"
)

// StoreFactory creates a fresh Store instance for testing
type StoreFactory func(t *testing.T) kv.Store

// RunConformanceTests runs all conformance tests against a Store implementation
func RunConformanceTests(t *testing.T, factory StoreFactory) {
	tests := []struct {
		name string
		test func(t *testing.T, store kv.Store)
	}{
		{"SetGet", testSetGet},
		{"GetNonExistent", testGetNonExistent},
		{"Overwrite", testOverwrite},
		{"DelExists", testDelExists},
		{"TTL", testTTL},
		{"Expiry", testExpiry},
		{"HealthCheck", testHealthCheck},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := factory(t)
			defer store.Close()
			tt.test(t, store)
		})
	}
}

func testSetGet(t *testing.T, store kv.Store) {
	ctx := context.Background()
	key := "test:string"
	value := []byte("hello world")

	if err := store.Set(ctx, key, value, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	result, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(result, value) {
		t.Fatalf("Expected %q, got %q", value, result)
	}
}

func testGetNonExistent(t *testing.T, store kv.Store) {
	_, err := store.Get(context.Background(), "test:missing")
	if !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func testOverwrite(t *testing.T, store kv.Store) {
	ctx := context.Background()
	key := "test:overwrite"

	if err := store.Set(ctx, key, []byte("one"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set(ctx, key, []byte("two"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	result, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(result) != "two" {
		t.Fatalf("Expected %q, got %q", "two", result)
	}
}

func testDelExists(t *testing.T, store kv.Store) {
	ctx := context.Background()

	for _, key := range []string{"test:a", "test:b"} {
		if err := store.Set(ctx, key, []byte("v"), 0); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}

	n, err := store.Exists(ctx, "test:a", "test:b", "test:c")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("Expected 2 existing keys, got %d", n)
	}

	n, err = store.Del(ctx, "test:a", "test:c")
	if err != nil {
		t.Fatalf("Del failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("Expected 1 deleted key, got %d", n)
	}

	if _, err := store.Get(ctx, "test:a"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound after Del, got %v", err)
	}
}

func testTTL(t *testing.T, store kv.Store) {
	ctx := context.Background()

	if err := store.Set(ctx, "test:ttl", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	ttl, err := store.TTL(ctx, "test:ttl")
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Fatalf("Expected TTL in (0, 1m], got %v", ttl)
	}

	if err := store.Set(ctx, "test:forever", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	ttl, err = store.TTL(ctx, "test:forever")
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	if ttl >= 0 {
		t.Fatalf("Expected negative TTL for key without expiry, got %v", ttl)
	}

	if _, err := store.TTL(ctx, "test:nothing"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func testExpiry(t *testing.T, store kv.Store) {
	ctx := context.Background()

	if err := store.Set(ctx, "test:short", []byte("v"), 50*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	time.Sleep(1100 * time.Millisecond)

	if _, err := store.Get(ctx, "test:short"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("Expected expired key to be gone, got %v", err)
	}
}

func testHealthCheck(t *testing.T, store kv.Store) {
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}
