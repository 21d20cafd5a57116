package catalog

import (
	"context"

	"lrcview/pkg/lrclib"
)

// Catalog is a searchable source of track records.
type Catalog interface {
	// Name identifies the catalog in logs.
	Name() string

	// Search runs a free-text query.
	Search(ctx context.Context, query string) ([]lrclib.Track, error)

	// SearchByInfo searches by title and artist fields.
	SearchByInfo(ctx context.Context, title, artist string) ([]lrclib.Track, error)

	// Get fetches one record by id.
	Get(ctx context.Context, id int64) (lrclib.Track, error)
}

var _ Catalog = (*lrclib.Client)(nil)
