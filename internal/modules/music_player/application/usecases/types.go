package usecases

import (
	"github.com/sglre6355/mtube/internal/modules/music_player/application/playback"
	"github.com/sglre6355/mtube/internal/modules/music_player/domain"
)

// Re-export types for presentation layer use.
// This allows presentation to depend only on usecases.

// Track is an alias for domain.Track.
type Track = domain.Track

// Status is an alias for domain.Status.
type Status = domain.Status

// SessionConfig is an alias for playback.Config.
type SessionConfig = playback.Config
