package domain

// Status represents the playback status of a session.
type Status int

const (
	StatusIdle    Status = iota // No track targeted; terminal for a session
	StatusPlaying               // queue[0] is being produced by the live pipeline
	StatusPaused                // Output paused, pipeline kept alive
)

// String returns a human-readable representation of the status.
func (s Status) String() string {
	switch s {
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "idle"
	}
}

// IsActive returns true if a track is targeted (Playing or Paused).
func (s Status) IsActive() bool {
	return s == StatusPlaying || s == StatusPaused
}
