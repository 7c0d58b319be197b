package usecases

import "github.com/cockroachdb/errors"

// Use case errors for the music player module. Playback and resolution
// errors live in the domain package.
var (
	// ErrEmptyQuery is returned when a command carries no query or prompt.
	ErrEmptyQuery = errors.New("enter a song name or URL")

	// ErrSuggestionsDisabled is returned when no suggestion backend is configured.
	ErrSuggestionsDisabled = errors.New("AI suggestions are not configured")

	// ErrSuggesterFailure marks failures of the suggestion backend itself.
	ErrSuggesterFailure = errors.New("could not reach the AI backend, is it running?")

	// ErrNoSuggestions is returned when the suggestion backend produced nothing usable.
	ErrNoSuggestions = errors.New("the AI did not suggest any songs")
)
