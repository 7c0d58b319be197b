package domain

import "github.com/cockroachdb/errors"

// Resolution errors. Returned before any session is touched.
var (
	// ErrNotPlayable is returned when the source rejects a URL.
	ErrNotPlayable = errors.New("this track cannot be played")

	// ErrNoPlayableResults is returned when every search candidate was rejected.
	ErrNoPlayableResults = errors.New("no playable results found")

	// ErrToolFailure marks failures of the external resolution tooling.
	ErrToolFailure = errors.New("track lookup failed")

	// ErrAccessRestricted marks probe failures caused by access restrictions
	// (private, age-gated, members-only, region-locked).
	ErrAccessRestricted = errors.New("track is access restricted")
)

// Pipeline errors. Reported to the UI; they never advance the queue on their own.
var (
	// ErrSpawnFailure is returned when the fetch or transcode process cannot start.
	ErrSpawnFailure = errors.New("failed to start audio pipeline")

	// ErrStreamBroken is returned when the pipeline dies mid-stream.
	ErrStreamBroken = errors.New("audio stream broke")
)

// UI errors returned by the now-playing adapter.
var (
	// ErrUIGone means the progress message no longer exists.
	ErrUIGone = errors.New("now playing message is gone")

	// ErrUIPermissionDenied means the bot may no longer edit the message.
	ErrUIPermissionDenied = errors.New("missing permission to edit now playing message")

	// ErrUITransient covers rate limits and other retryable failures.
	ErrUITransient = errors.New("transient ui failure")
)

// Session errors. These signal "nothing to do" rather than a fault.
var (
	// ErrSessionNotFound is returned when the guild has no active session.
	ErrSessionNotFound = errors.New("nothing is playing in this server")

	// ErrSessionClosed is returned by a session that has already been torn down.
	ErrSessionClosed = errors.New("session has been closed")

	// ErrNotPlaying is returned when no track is targeted.
	ErrNotPlaying = errors.New("nothing is currently playing")

	// ErrAlreadyPaused is returned when trying to pause while already paused.
	ErrAlreadyPaused = errors.New("playback is already paused")

	// ErrNotPaused is returned when trying to resume while not paused.
	ErrNotPaused = errors.New("playback is not paused")

	// ErrUserNotInVoice is returned when the requesting user is not in a voice channel.
	ErrUserNotInVoice = errors.New("join a voice channel first")
)
