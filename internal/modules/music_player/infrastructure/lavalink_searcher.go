package infrastructure

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/disgoorg/disgolink/v3/disgolink"
	"github.com/disgoorg/disgolink/v3/lavalink"
	"github.com/disgoorg/snowflake/v2"
	zlog "github.com/rs/zerolog/log"
	"github.com/sglre6355/mtube/internal/modules/music_player/application/ports"
	"github.com/sglre6355/mtube/internal/modules/music_player/domain"
)

// LavalinkConfig contains Lavalink connection configuration.
type LavalinkConfig struct {
	Address  string
	Password string
	Secure   bool
}

// trackLoader is the part of a Lavalink node the searcher needs.
type trackLoader interface {
	LoadTracks(ctx context.Context, identifier string) (*lavalink.LoadResult, error)
}

// LavalinkSearcher searches tracks through a Lavalink node's REST API.
// Playback never goes through Lavalink; only search results are used.
type LavalinkSearcher struct {
	link disgolink.Client
	node func() trackLoader
}

// NewLavalinkSearcher connects to the Lavalink node.
func NewLavalinkSearcher(
	ctx context.Context,
	botID snowflake.ID,
	config LavalinkConfig,
) (*LavalinkSearcher, error) {
	link := disgolink.New(botID)

	node, err := link.AddNode(ctx, disgolink.NodeConfig{
		Name:     "main",
		Address:  config.Address,
		Password: config.Password,
		Secure:   config.Secure,
	})
	if err != nil {
		return nil, errors.Wrap(err, "add Lavalink node")
	}

	zlog.Info().
		Str("node", node.Config().Name).
		Str("address", config.Address).
		Msg("Connected to Lavalink")

	return &LavalinkSearcher{
		link: link,
		node: func() trackLoader {
			if best := link.BestNode(); best != nil {
				return best
			}
			return nil
		},
	}, nil
}

// Search loads "ytsearch:<query>" and returns up to limit candidates.
func (s *LavalinkSearcher) Search(ctx context.Context, query string, limit int) ([]ports.SearchCandidate, error) {
	node := s.node()
	if node == nil {
		return nil, errors.New("no available Lavalink node")
	}

	result, err := node.LoadTracks(ctx, domain.NewSearchQuery(query).LavalinkQuery())
	if err != nil {
		return nil, errors.Wrap(err, "load tracks")
	}

	candidates, err := convertLoadResult(result)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// Close disconnects from all nodes.
func (s *LavalinkSearcher) Close() {
	if s.link != nil {
		s.link.Close()
	}
}

// convertLoadResult converts a Lavalink load result to search candidates.
func convertLoadResult(result *lavalink.LoadResult) ([]ports.SearchCandidate, error) {
	switch data := result.Data.(type) {
	case lavalink.Track:
		return convertTracks([]lavalink.Track{data}), nil

	case lavalink.Playlist:
		return convertTracks(data.Tracks), nil

	case lavalink.Search:
		return convertTracks(data), nil

	case lavalink.Exception:
		return nil, errors.Newf("lavalink: %s", data.Message)

	default:
		return nil, nil
	}
}

func convertTracks(tracks []lavalink.Track) []ports.SearchCandidate {
	candidates := make([]ports.SearchCandidate, 0, len(tracks))
	for _, track := range tracks {
		if track.Info.URI == nil || *track.Info.URI == "" {
			continue
		}
		candidates = append(candidates, ports.SearchCandidate{
			URL:   *track.Info.URI,
			Title: track.Info.Title,
		})
	}
	return candidates
}

// Ensure LavalinkSearcher implements ports.TrackSearcher.
var _ ports.TrackSearcher = (*LavalinkSearcher)(nil)
