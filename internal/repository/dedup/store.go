// Package dedup persists the set of URLs already admitted to the downstream
// store, so no URL is ever re-admitted across requests.
package dedup

import (
	"context"
	"fmt"
)

const admittedKey = "trovex:admitted:urls"

// store is the consumer interface for dedup-history operations (ISP).
type store interface {
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SIsMember(ctx context.Context, key, member string) (bool, error)
	SMembers(ctx context.Context, key string) ([]string, error)
}

// Store tracks admitted URLs in a shared set.
type Store struct {
	store store
}

// New creates an admitted-URL history store.
func New(s store) *Store {
	return &Store{store: s}
}

// Seen reports whether url was admitted by any past request.
func (s *Store) Seen(ctx context.Context, url string) (bool, error) {
	ok, err := s.store.SIsMember(ctx, admittedKey, url)
	if err != nil {
		return false, fmt.Errorf("dedup SISMEMBER: %w", err)
	}
	return ok, nil
}

// Mark records urls as admitted.
func (s *Store) Mark(ctx context.Context, urls ...string) error {
	if len(urls) == 0 {
		return nil
	}
	if err := s.store.SAdd(ctx, admittedKey, urls...); err != nil {
		return fmt.Errorf("dedup SADD: %w", err)
	}
	return nil
}

// Unmark removes urls from the admitted set. Used to roll back a mark
// whose downstream write failed.
func (s *Store) Unmark(ctx context.Context, urls ...string) error {
	if len(urls) == 0 {
		return nil
	}
	if err := s.store.SRem(ctx, admittedKey, urls...); err != nil {
		return fmt.Errorf("dedup SREM: %w", err)
	}
	return nil
}

// All returns every admitted URL. Intended for diagnostics and tests.
func (s *Store) All(ctx context.Context) ([]string, error) {
	urls, err := s.store.SMembers(ctx, admittedKey)
	if err != nil {
		return nil, fmt.Errorf("dedup SMEMBERS: %w", err)
	}
	return urls, nil
}
