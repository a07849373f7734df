// Package feedback records user ratings and bookmarks that bias future
// result ranking.
package feedback

import (
	"context"
	"fmt"
	"net/url"

	"github.com/kailas-cloud/trovex/internal/domain"
)

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// Service handles user feedback on retrieved sources.
type Service struct {
	repo Repository
}

// New creates a feedback service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Rate stores a 1..5 rating for a URL. Re-rating overwrites.
func (s *Service) Rate(ctx context.Context, rawURL string, rating int) error {
	if err := validateURL(rawURL); err != nil {
		return err
	}
	if rating < MinRating || rating > MaxRating {
		return fmt.Errorf("%w: rating must be between %d and %d",
			domain.ErrInvalidRequest, MinRating, MaxRating)
	}
	if err := s.repo.SetRating(ctx, rawURL, rating); err != nil {
		return fmt.Errorf("set rating: %w", err)
	}
	return nil
}

// Bookmark sets or clears the bookmark flag for a URL.
func (s *Service) Bookmark(ctx context.Context, rawURL string, bookmarked bool) error {
	if err := validateURL(rawURL); err != nil {
		return err
	}
	if err := s.repo.SetBookmark(ctx, rawURL, bookmarked); err != nil {
		return fmt.Errorf("set bookmark: %w", err)
	}
	return nil
}

// Ratings returns all stored ratings keyed by URL.
func (s *Service) Ratings(ctx context.Context) (map[string]int, error) {
	ratings, err := s.repo.Ratings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	return ratings, nil
}

// Bookmarks returns all bookmarked URLs.
func (s *Service) Bookmarks(ctx context.Context) ([]string, error) {
	bookmarks, err := s.repo.Bookmarks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	return bookmarks, nil
}

func validateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("%w: url is required", domain.ErrInvalidRequest)
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: url must be absolute http(s)", domain.ErrInvalidRequest)
	}
	return nil
}
