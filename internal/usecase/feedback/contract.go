package feedback

import "context"

// Repository is the storage contract for user feedback.
type Repository interface {
	SetRating(ctx context.Context, url string, rating int) error
	SetBookmark(ctx context.Context, url string, bookmarked bool) error
	Ratings(ctx context.Context) (map[string]int, error)
	Bookmarks(ctx context.Context) ([]string, error)
}
