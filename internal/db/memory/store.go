// Package memory implements db.Store with sharded in-process maps.
// It backs keyless development and tests; state lives only for the
// process lifetime.
package memory

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/kailas-cloud/trovex/internal/db"
)

// shardCount splits keys across independent locks to reduce contention
// between concurrent requests and feedback writers.
const shardCount = 16

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Store is a sharded in-memory db.Store.
type Store struct {
	shards [shardCount]*shard
}

type shard struct {
	mu     sync.RWMutex
	kv     map[string]entry
	hashes map[string]map[string]string
	sets   map[string]map[string]struct{}
}

type entry struct {
	value     []byte
	expiresAt time.Time // zero = no expiry
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	s := &Store{}
	for i := range s.shards {
		s.shards[i] = &shard{
			kv:     make(map[string]entry),
			hashes: make(map[string]map[string]string),
			sets:   make(map[string]map[string]struct{}),
		}
	}
	return s
}

func (s *Store) shard(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return s.shards[h.Sum32()%shardCount]
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// WaitForReady always succeeds immediately.
func (s *Store) WaitForReady(context.Context, time.Duration) error { return nil }

// Get retrieves a value by key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	sh := s.shard(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	e, ok := sh.kv[key]
	if !ok || e.expired() {
		return nil, db.ErrKeyNotFound
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set stores a value at the given key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sh.kv[key] = entry{value: append([]byte(nil), value...)}
	return nil
}

// SetWithTTL stores a value with an expiration.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sh.kv[key] = entry{
		value:     append([]byte(nil), value...),
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Del removes a key from every keyspace.
func (s *Store) Del(_ context.Context, key string) error {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	delete(sh.kv, key)
	delete(sh.hashes, key)
	delete(sh.sets, key)
	return nil
}

// Exists reports whether a key is present in any keyspace.
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	sh := s.shard(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	if e, ok := sh.kv[key]; ok && !e.expired() {
		return true, nil
	}
	if _, ok := sh.hashes[key]; ok {
		return true, nil
	}
	_, ok := sh.sets[key]
	return ok, nil
}

// HSet sets hash fields.
func (s *Store) HSet(_ context.Context, key string, fields map[string]string) error {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	h, ok := sh.hashes[key]
	if !ok {
		h = make(map[string]string, len(fields))
		sh.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

// HGet returns one field of a hash.
func (s *Store) HGet(_ context.Context, key, field string) (string, error) {
	sh := s.shard(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	v, ok := sh.hashes[key][field]
	if !ok {
		return "", db.ErrKeyNotFound
	}
	return v, nil
}

// HGetAll returns a copy of all fields of a hash.
func (s *Store) HGetAll(_ context.Context, key string) (map[string]string, error) {
	sh := s.shard(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	out := make(map[string]string, len(sh.hashes[key]))
	for k, v := range sh.hashes[key] {
		out[k] = v
	}
	return out, nil
}

// HDel removes specific fields from a hash.
func (s *Store) HDel(_ context.Context, key string, fields ...string) error {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	for _, f := range fields {
		delete(sh.hashes[key], f)
	}
	return nil
}

// SAdd adds members to a set.
func (s *Store) SAdd(_ context.Context, key string, members ...string) error {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	set, ok := sh.sets[key]
	if !ok {
		set = make(map[string]struct{}, len(members))
		sh.sets[key] = set
	}
	for _, m := range members {
		set[m] = struct{}{}
	}
	return nil
}

// SRem removes members from a set.
func (s *Store) SRem(_ context.Context, key string, members ...string) error {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	for _, m := range members {
		delete(sh.sets[key], m)
	}
	return nil
}

// SIsMember reports whether member is in the set.
func (s *Store) SIsMember(_ context.Context, key, member string) (bool, error) {
	sh := s.shard(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	_, ok := sh.sets[key][member]
	return ok, nil
}

// SMembers returns all members of a set.
func (s *Store) SMembers(_ context.Context, key string) ([]string, error) {
	sh := s.shard(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	out := make([]string, 0, len(sh.sets[key]))
	for m := range sh.sets[key] {
		out = append(out, m)
	}
	return out, nil
}

func (e entry) expired() bool {
	return !e.expiresAt.IsZero() && time.Now().After(e.expiresAt)
}
