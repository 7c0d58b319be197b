package ports

import (
	"context"
)

// TrackSearcher defines the interface for searching candidate tracks.
type TrackSearcher interface {
	// Search returns up to limit candidates for the query, best match first.
	Search(ctx context.Context, query string, limit int) ([]SearchCandidate, error)
}

// TrackProber defines the interface for checking that a URL is playable.
type TrackProber interface {
	// Probe extracts full metadata for url. When the source refuses the URL
	// because of an access restriction the error is marked
	// domain.ErrAccessRestricted.
	Probe(ctx context.Context, url string) (*TrackInfo, error)
}
