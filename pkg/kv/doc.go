// Package kv provides a small key-value store abstraction with in-memory
// and Redis-backed implementations.
//
// Backends register themselves on import:
//
//	import (
//		_ "github.com/pulseboard/pulseboard-backend/pkg/kv/memory"
//		_ "github.com/pulseboard/pulseboard-backend/pkg/kv/redis"
//	)
//
//	store, err := kv.NewStoreFromConfig(kv.Config{
//		Backend:         kv.BackendRedis,
//		RedisURL:        "redis://127.0.0.1:6379/0",
//		FailoverEnabled: true,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//
// With FailoverEnabled a Redis store that becomes unreachable is replaced by the
// in-memory store until a background probe sees Redis healthy again.
package kv
