package ports

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/mtube/internal/modules/music_player/domain"
)

// TrackInfo contains the metadata of a probed, playable URL.
type TrackInfo struct {
	URL      string
	Title    string
	Duration time.Duration
	IsLive   bool
}

// SearchCandidate is a single search hit that has not been probed yet.
type SearchCandidate struct {
	URL   string
	Title string
}

// NowPlayingView is everything the UI needs to draw the progress message.
type NowPlayingView struct {
	Track    domain.Track
	Elapsed  time.Duration
	Paused   bool
	Volume   float64
	Upcoming int
}

// MessageHandle identifies a rendered now-playing message.
type MessageHandle struct {
	ChannelID snowflake.ID
	MessageID snowflake.ID
}
