package usecases

import (
	"context"
	"time"

	"github.com/sglre6355/mtube/internal/modules/music_player/application/ports"
	"github.com/sglre6355/mtube/internal/modules/music_player/domain"
)

// Autocomplete bounds.
const (
	minAutocompleteQueryLength = 2
	defaultAutocompleteLimit   = 10
	maxAutocompleteLimit       = 25
)

// SearchTracksInput contains the input for the SearchTracks use case.
type SearchTracksInput struct {
	Query string
	Limit int // 0 means 10, capped at 25
}

// SearchTracksOutput contains the result of the SearchTracks use case.
type SearchTracksOutput struct {
	Candidates []ports.SearchCandidate
}

// AutocompleteService suggests search hits while a user is typing.
// Candidates are not probed, so a pick may still fail to resolve.
type AutocompleteService struct {
	searcher ports.TrackSearcher
	timeout  time.Duration
}

// NewAutocompleteService creates a new AutocompleteService.
func NewAutocompleteService(searcher ports.TrackSearcher, timeout time.Duration) *AutocompleteService {
	return &AutocompleteService{
		searcher: searcher,
		timeout:  timeout,
	}
}

// SearchTracks returns search candidates for a partial query. URLs and very
// short queries yield no candidates.
func (s *AutocompleteService) SearchTracks(
	ctx context.Context,
	input SearchTracksInput,
) (*SearchTracksOutput, error) {
	query := domain.NewSearchQuery(input.Query)
	if s.searcher == nil || query.IsURL || len([]rune(query.Query)) < minAutocompleteQueryLength {
		return &SearchTracksOutput{}, nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultAutocompleteLimit
	}
	limit = min(limit, maxAutocompleteLimit)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	candidates, err := s.searcher.Search(ctx, query.Query, limit)
	if err != nil {
		return nil, err
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return &SearchTracksOutput{Candidates: candidates}, nil
}
