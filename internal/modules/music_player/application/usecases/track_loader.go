package usecases

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/sglre6355/mtube/internal/modules/music_player/application/ports"
	"github.com/sglre6355/mtube/internal/modules/music_player/domain"
)

// DefaultMaxProbeAttempts bounds how many search candidates are probed.
const DefaultMaxProbeAttempts = 5

// LoadTrackInput contains the input for the LoadTrack use case.
type LoadTrackInput struct {
	Query     string
	Requester string
}

// LoadTrackOutput contains the result of the LoadTrack use case.
type LoadTrackOutput struct {
	Track domain.Track
}

// TrackLoaderService resolves user input into playable tracks.
type TrackLoaderService struct {
	searcher         ports.TrackSearcher
	prober           ports.TrackProber
	maxProbeAttempts int
	callTimeout      time.Duration
}

// NewTrackLoaderService creates a new TrackLoaderService.
// A non-positive callTimeout leaves external calls bounded only by ctx.
func NewTrackLoaderService(
	searcher ports.TrackSearcher,
	prober ports.TrackProber,
	maxProbeAttempts int,
	callTimeout time.Duration,
) *TrackLoaderService {
	if maxProbeAttempts <= 0 {
		maxProbeAttempts = DefaultMaxProbeAttempts
	}
	return &TrackLoaderService{
		searcher:         searcher,
		prober:           prober,
		maxProbeAttempts: maxProbeAttempts,
		callTimeout:      callTimeout,
	}
}

// LoadTrack resolves a URL or a search query into a single track.
func (s *TrackLoaderService) LoadTrack(
	ctx context.Context,
	input LoadTrackInput,
) (*LoadTrackOutput, error) {
	query := domain.NewSearchQuery(input.Query)
	if !query.IsValid() {
		return nil, ErrEmptyQuery
	}

	var (
		track domain.Track
		err   error
	)
	if query.IsURL {
		track, err = s.ResolveByURL(ctx, query.Query, input.Requester)
	} else {
		track, err = s.ResolveByQuery(ctx, query.Query, input.Requester)
	}
	if err != nil {
		return nil, err
	}

	return &LoadTrackOutput{Track: track}, nil
}

// ResolveByURL probes a single URL. Access-restricted URLs fail with
// domain.ErrNotPlayable; there is no fallback.
func (s *TrackLoaderService) ResolveByURL(
	ctx context.Context,
	url string,
	requester string,
) (domain.Track, error) {
	info, err := s.probe(ctx, url)
	if err != nil {
		if errors.Is(err, domain.ErrAccessRestricted) {
			return domain.Track{}, errors.Mark(err, domain.ErrNotPlayable)
		}
		return domain.Track{}, errors.Mark(errors.Wrapf(err, "probe %s", url), domain.ErrToolFailure)
	}

	return toTrack(info, url, requester), nil
}

// ResolveByQuery searches for candidates and returns the first one that
// passes probing. Access-restricted candidates are skipped; any other probe
// failure aborts resolution.
func (s *TrackLoaderService) ResolveByQuery(
	ctx context.Context,
	query string,
	requester string,
) (domain.Track, error) {
	candidates, err := s.search(ctx, query)
	if err != nil {
		return domain.Track{}, errors.Mark(errors.Wrapf(err, "search %q", query), domain.ErrToolFailure)
	}
	if len(candidates) > s.maxProbeAttempts {
		candidates = candidates[:s.maxProbeAttempts]
	}

	for i, candidate := range candidates {
		info, err := s.probe(ctx, candidate.URL)
		if err == nil {
			return toTrack(info, candidate.URL, requester), nil
		}
		if !errors.Is(err, domain.ErrAccessRestricted) {
			return domain.Track{}, errors.Mark(
				errors.Wrapf(err, "probe candidate %d of %q", i+1, query),
				domain.ErrToolFailure,
			)
		}

		zlog.Debug().
			Str("query", query).
			Str("url", candidate.URL).
			Int("attempt", i+1).
			Msg("Skipping access restricted candidate")
	}

	return domain.Track{}, domain.ErrNoPlayableResults
}

func (s *TrackLoaderService) search(ctx context.Context, query string) ([]ports.SearchCandidate, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.searcher.Search(ctx, query, s.maxProbeAttempts)
}

func (s *TrackLoaderService) probe(ctx context.Context, url string) (*ports.TrackInfo, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.prober.Probe(ctx, url)
}

func (s *TrackLoaderService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.callTimeout)
}

func toTrack(info *ports.TrackInfo, fallbackURL, requester string) domain.Track {
	url := info.URL
	if url == "" {
		url = fallbackURL
	}

	var duration string
	switch {
	case info.IsLive:
		duration = domain.DurationLive
	case info.Duration > 0:
		duration = domain.FormatDuration(info.Duration)
	}

	return domain.NewTrack(url, info.Title, duration, requester)
}
