// Package feedback persists user ratings and bookmarks keyed by URL.
package feedback

import (
	"context"
	"fmt"
	"strconv"
)

const (
	ratingsKey   = "trovex:feedback:ratings"
	bookmarksKey = "trovex:feedback:bookmarks"
)

// store is the consumer interface for feedback operations (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// Repo stores ratings as a hash (url -> rating) and bookmarks as a set.
// Last write wins on ratings; the backing store serializes concurrent
// writers.
type Repo struct {
	store store
}

// New creates a feedback repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// SetRating records a rating for url, overwriting any previous value.
func (r *Repo) SetRating(ctx context.Context, url string, rating int) error {
	fields := map[string]string{url: strconv.Itoa(rating)}
	if err := r.store.HSet(ctx, ratingsKey, fields); err != nil {
		return fmt.Errorf("feedback HSET: %w", err)
	}
	return nil
}

// SetBookmark adds or removes url from the bookmark set.
func (r *Repo) SetBookmark(ctx context.Context, url string, bookmarked bool) error {
	if bookmarked {
		if err := r.store.SAdd(ctx, bookmarksKey, url); err != nil {
			return fmt.Errorf("feedback SADD: %w", err)
		}
		return nil
	}
	if err := r.store.SRem(ctx, bookmarksKey, url); err != nil {
		return fmt.Errorf("feedback SREM: %w", err)
	}
	return nil
}

// Ratings returns a snapshot of all ratings. Entries that fail to parse are
// skipped rather than failing the read.
func (r *Repo) Ratings(ctx context.Context) (map[string]int, error) {
	raw, err := r.store.HGetAll(ctx, ratingsKey)
	if err != nil {
		return nil, fmt.Errorf("feedback HGETALL: %w", err)
	}

	out := make(map[string]int, len(raw))
	for url, v := range raw {
		rating, err := strconv.Atoi(v)
		if err != nil {
			continue
		}
		out[url] = rating
	}
	return out, nil
}

// Bookmarks returns a snapshot of all bookmarked URLs.
func (r *Repo) Bookmarks(ctx context.Context) ([]string, error) {
	urls, err := r.store.SMembers(ctx, bookmarksKey)
	if err != nil {
		return nil, fmt.Errorf("feedback SMEMBERS: %w", err)
	}
	return urls, nil
}
