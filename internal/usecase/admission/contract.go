package admission

import (
	"context"

	domadm "github.com/kailas-cloud/trovex/internal/domain/admission"
)

// History tracks URLs already admitted to the downstream store.
type History interface {
	Seen(ctx context.Context, url string) (bool, error)
	Mark(ctx context.Context, urls ...string) error
	Unmark(ctx context.Context, urls ...string) error
}

// Archive persists admitted records downstream.
type Archive interface {
	Put(ctx context.Context, batch []domadm.Result) ([]string, error)
}
