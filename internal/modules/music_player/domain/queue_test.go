package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func track(name string) Track {
	return NewTrack("https://www.youtube.com/watch?v="+name, "Song "+name, "3:04", "<@1>")
}

func titles(tracks []Track) []string {
	result := make([]string, len(tracks))
	for i, t := range tracks {
		result[i] = t.Title
	}
	return result
}

func TestNewQueue(t *testing.T) {
	q := NewQueue()

	assert.True(t, q.IsEmpty())
	assert.Equal(t, 0, q.Len())
	assert.Nil(t, q.Head())
	assert.Empty(t, q.Upcoming())
}

func TestQueue_Append(t *testing.T) {
	q := NewQueue()

	q.Append(track("A"))
	q.Append(track("B"), track("C"))

	assert.Equal(t, 3, q.Len())
	assert.Equal(t, []string{"Song A", "Song B", "Song C"}, titles(q.List()))
	require.NotNil(t, q.Head())
	assert.Equal(t, "Song A", q.Head().Title)
	assert.Equal(t, []string{"Song B", "Song C"}, titles(q.Upcoming()))
}

func TestQueue_PopHead(t *testing.T) {
	q := NewQueue()
	assert.Nil(t, q.PopHead(), "pop on empty queue")

	q.Append(track("A"), track("B"))

	popped := q.PopHead()
	require.NotNil(t, popped)
	assert.Equal(t, "Song A", popped.Title)
	assert.Equal(t, 1, q.Len())

	popped = q.PopHead()
	require.NotNil(t, popped)
	assert.Equal(t, "Song B", popped.Title)
	assert.True(t, q.IsEmpty())
}

func TestQueue_ReplaceHead(t *testing.T) {
	tests := []struct {
		name         string
		initial      []Track
		replacement  Track
		wantTitles   []string
		wantReplaced string
	}{
		{
			name:         "preserves tail order and length",
			initial:      []Track{track("A"), track("B"), track("C")},
			replacement:  track("D"),
			wantTitles:   []string{"Song D", "Song B", "Song C"},
			wantReplaced: "Song A",
		},
		{
			name:         "single entry",
			initial:      []Track{track("A")},
			replacement:  track("D"),
			wantTitles:   []string{"Song D"},
			wantReplaced: "Song A",
		},
		{
			name:        "empty queue",
			replacement: track("D"),
			wantTitles:  []string{"Song D"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQueue()
			q.Append(tt.initial...)

			replaced := q.ReplaceHead(tt.replacement)

			assert.Equal(t, tt.wantTitles, titles(q.List()))
			if tt.wantReplaced == "" {
				assert.Nil(t, replaced)
				return
			}
			require.NotNil(t, replaced)
			assert.Equal(t, tt.wantReplaced, replaced.Title)
		})
	}
}

func TestQueue_ListReturnsCopy(t *testing.T) {
	q := NewQueue()
	q.Append(track("A"))

	list := q.List()
	list[0] = track("Z")

	assert.Equal(t, "Song A", q.Head().Title)
}

func TestQueue_Clear(t *testing.T) {
	q := NewQueue()
	q.Append(track("A"), track("B"))

	q.Clear()

	assert.True(t, q.IsEmpty())
	assert.Nil(t, q.Head())
}
