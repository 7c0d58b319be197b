package domain

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Display strings used when a duration cannot be expressed as a clock time.
const (
	DurationLive    = "LIVE"
	DurationUnknown = "??:??"
)

var youTubeIDPattern = regexp.MustCompile(`[?&]v=([^&]+)`)

// Track represents a resolved, playable audio track.
// Tracks are values: once created by the resolver they are never mutated.
type Track struct {
	URL       string
	Title     string
	Duration  string // display form, e.g. "3:04" or "1:02:34"
	Requester string // opaque identity, e.g. a Discord mention
}

// NewTrack creates a new Track, falling back to sensible display values
// when the source did not report a title or a duration.
func NewTrack(url, title, duration, requester string) Track {
	if title == "" {
		title = url
	}
	if duration == "" {
		duration = DurationUnknown
	}
	return Track{
		URL:       url,
		Title:     title,
		Duration:  duration,
		Requester: requester,
	}
}

// IsValid returns true if the track has the minimum required fields.
func (t Track) IsValid() bool {
	return t.URL != "" && t.Title != ""
}

// IsLive returns true if the track is a live stream without a fixed length.
func (t Track) IsLive() bool {
	return t.Duration == DurationLive
}

// TotalDuration parses the display duration back into a time.Duration.
// Returns 0 for live streams and unparseable values.
func (t Track) TotalDuration() time.Duration {
	return ParseDuration(t.Duration)
}

// ThumbnailURL returns the YouTube thumbnail for the track, or "" when the
// URL does not carry a video ID.
func (t Track) ThumbnailURL() string {
	match := youTubeIDPattern.FindStringSubmatch(t.URL)
	if match == nil {
		return ""
	}
	return "https://img.youtube.com/vi/" + match[1] + "/mqdefault.jpg"
}

// FormatDuration formats a duration as m:ss or h:mm:ss.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	totalSeconds := int(d.Seconds())
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return strconv.Itoa(hours) + ":" + pad(minutes) + ":" + pad(seconds)
	}
	return strconv.Itoa(minutes) + ":" + pad(seconds)
}

// ParseDuration parses "h:mm:ss" or "m:ss" into a duration.
// Anything else yields 0.
func ParseDuration(s string) time.Duration {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0
	}

	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return time.Duration(total) * time.Second
}

func pad(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
