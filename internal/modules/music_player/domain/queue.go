package domain

// Queue is an ordered list of tracks. The head is the track the session is
// currently targeting; finished tracks are popped off the front.
type Queue struct {
	tracks []Track
}

// NewQueue creates a new empty Queue.
func NewQueue() Queue {
	return Queue{
		tracks: make([]Track, 0),
	}
}

// IsEmpty returns true if the queue has no tracks.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

// Len returns the total number of tracks in the queue, including the head.
func (q *Queue) Len() int {
	return len(q.tracks)
}

// Head returns the track at the front of the queue, or nil if empty.
func (q *Queue) Head() *Track {
	if q.IsEmpty() {
		return nil
	}
	head := q.tracks[0]
	return &head
}

// Upcoming returns the tracks after the head (for queue display).
func (q *Queue) Upcoming() []Track {
	if q.Len() <= 1 {
		return []Track{}
	}
	result := make([]Track, q.Len()-1)
	copy(result, q.tracks[1:])
	return result
}

// List returns a copy of all tracks in the queue.
func (q *Queue) List() []Track {
	result := make([]Track, q.Len())
	copy(result, q.tracks)
	return result
}

// Append adds track(s) to the end of the queue.
func (q *Queue) Append(tracks ...Track) {
	q.tracks = append(q.tracks, tracks...)
}

// PopHead removes and returns the head of the queue.
// Returns nil if the queue is empty.
func (q *Queue) PopHead() *Track {
	if q.IsEmpty() {
		return nil
	}
	head := q.tracks[0]
	q.tracks = q.tracks[1:]
	return &head
}

// ReplaceHead swaps the head for the given track, leaving the rest of the
// queue untouched. On an empty queue the track becomes the only entry.
// Returns the replaced track, or nil if the queue was empty.
func (q *Queue) ReplaceHead(track Track) *Track {
	if q.IsEmpty() {
		q.tracks = append(q.tracks, track)
		return nil
	}
	old := q.tracks[0]
	q.tracks[0] = track
	return &old
}

// Clear removes all tracks from the queue.
func (q *Queue) Clear() {
	q.tracks = make([]Track, 0)
}
