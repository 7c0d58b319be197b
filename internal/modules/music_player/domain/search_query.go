package domain

import (
	"strconv"
	"strings"
)

// youtubeSearchPrefix is the search scheme understood by both yt-dlp and
// Lavalink's YouTube source.
const youtubeSearchPrefix = "ytsearch"

// SearchQuery is user input classified as either a direct link or free text
// to search YouTube for.
type SearchQuery struct {
	Query string
	IsURL bool
}

// NewSearchQuery trims the input and classifies it. Anything starting with
// http(s):// or www. is treated as a link, everything else as search text.
func NewSearchQuery(input string) *SearchQuery {
	input = strings.TrimSpace(input)
	return &SearchQuery{
		Query: input,
		IsURL: looksLikeLink(input),
	}
}

// YtdlpQuery returns the yt-dlp argument asking for up to limit results.
// Links pass through unchanged.
func (q *SearchQuery) YtdlpQuery(limit int) string {
	if q.IsURL {
		return q.Query
	}
	return youtubeSearchPrefix + strconv.Itoa(max(limit, 1)) + ":" + q.Query
}

// LavalinkQuery returns the identifier for Lavalink's loadtracks endpoint.
func (q *SearchQuery) LavalinkQuery() string {
	if q.IsURL {
		return q.Query
	}
	return youtubeSearchPrefix + ":" + q.Query
}

// IsValid reports whether there is anything to resolve.
func (q *SearchQuery) IsValid() bool {
	return q.Query != ""
}

func looksLikeLink(input string) bool {
	lower := strings.ToLower(input)
	for _, prefix := range []string{"http://", "https://", "www."} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
