// Package archive is the reference downstream-store implementation: admitted
// records are written as hashes and identified by generated storage IDs.
// The admission service depends only on its interface, not on this package.
package archive

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/kailas-cloud/trovex/internal/domain/admission"
)

const keyPrefix = "trovex:archive:"

// store is the consumer interface for archive persistence (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
}

// Store persists admitted records.
type Store struct {
	store store
}

// New creates an archive store.
func New(s store) *Store {
	return &Store{store: s}
}

// Put stores a batch of admitted records and returns their storage IDs,
// positionally aligned with the batch.
func (s *Store) Put(ctx context.Context, batch []admission.Result) ([]string, error) {
	ids := make([]string, 0, len(batch))
	for i := range batch {
		rec := &batch[i].Record

		id := uuid.NewString()
		fields := map[string]string{
			"url":         rec.URL,
			"title":       rec.Title,
			"snippet":     rec.Snippet,
			"domain":      rec.Domain,
			"source_type": string(rec.SourceType),
			"engine":      rec.OriginEngine,
			"credibility": strconv.FormatFloat(rec.CredibilityScore, 'f', -1, 64),
			"freshness":   strconv.FormatFloat(rec.FreshnessScore, 'f', -1, 64),
			"tier":        strconv.Itoa(int(batch[i].Tier)),
		}
		if rec.PublishedAt != "" {
			fields["published_at"] = rec.PublishedAt
		}

		if err := s.store.HSet(ctx, keyPrefix+id, fields); err != nil {
			return nil, fmt.Errorf("archive HSET %s: %w", rec.URL, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Get reads back one archived record's fields by storage ID.
func (s *Store) Get(ctx context.Context, id string) (map[string]string, error) {
	fields, err := s.store.HGetAll(ctx, keyPrefix+id)
	if err != nil {
		return nil, fmt.Errorf("archive HGETALL %s: %w", id, err)
	}
	return fields, nil
}
