package ports

import "context"

// Suggester produces search queries from a free-form prompt.
type Suggester interface {
	// SuggestOne returns a single "Artist - Title" style query.
	SuggestOne(ctx context.Context, prompt string) (string, error)

	// SuggestMany returns up to count queries.
	SuggestMany(ctx context.Context, prompt string, count int) ([]string, error)
}
