package playlist

import (
	"sync"

	"github.com/richcobrien1/TrafficJamz-sub002/internal/domain"
)

// Coordinator maintains the local view of the shared playlist. Adds apply
// optimistically so the UI never waits on the round trip; the authoritative
// broadcast reconciles everyone afterwards.
type Coordinator struct {
	mu           sync.Mutex
	tracks       domain.Playlist
	currentIdx   int
	previousSecs float64 // grace window for the previous control
}

// New creates a coordinator. previousGrace is the window, in seconds of
// playback, inside which the previous control steps back a track instead
// of restarting the current one.
func New(previousGrace float64) *Coordinator {
	return &Coordinator{currentIdx: -1, previousSecs: previousGrace}
}

// Tracks returns a copy of the current playlist.
func (c *Coordinator) Tracks() domain.Playlist {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append(domain.Playlist(nil), c.tracks...)
}

// Len returns the number of tracks.
func (c *Coordinator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tracks)
}

// Current returns the active track, if any.
func (c *Coordinator) Current() (domain.Track, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.currentIdx < 0 || c.currentIdx >= len(c.tracks) {
		return domain.Track{}, false
	}
	return c.tracks[c.currentIdx], true
}

// Add appends a track unless the playlist already holds a duplicate.
// Reports whether the track went in.
func (c *Coordinator) Add(t domain.Track) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	updated, added := c.tracks.Add(t)
	c.tracks = updated
	return added
}

// Remove drops a track by id. Removing the active track clears selection.
func (c *Coordinator) Remove(trackID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var currentID string
	if c.currentIdx >= 0 && c.currentIdx < len(c.tracks) {
		currentID = c.tracks[c.currentIdx].ID
	}
	c.tracks = c.tracks.Remove(trackID)
	if currentID == trackID {
		c.currentIdx = -1
	} else {
		c.currentIdx = c.tracks.IndexOf(currentID)
	}
}

// Reconcile replaces the local playlist with the authoritative one,
// deduplicated, and re-locates the active track by id. A local optimistic
// add that the session rejected disappears here.
func (c *Coordinator) Reconcile(authoritative domain.Playlist) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var currentID string
	if c.currentIdx >= 0 && c.currentIdx < len(c.tracks) {
		currentID = c.tracks[c.currentIdx].ID
	}
	c.tracks = authoritative.Dedupe()
	c.currentIdx = c.tracks.IndexOf(currentID)
}

// SetCurrent marks the track with the given id active. Unknown ids clear
// the selection.
func (c *Coordinator) SetCurrent(trackID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentIdx = c.tracks.IndexOf(trackID)
}

// Next returns the following track, wrapping to the first after the last.
func (c *Coordinator) Next() (domain.Track, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.tracks) == 0 {
		return domain.Track{}, false
	}
	c.currentIdx = (c.currentIdx + 1) % len(c.tracks)
	return c.tracks[c.currentIdx], true
}

// Previous implements the conventional back control: within the grace
// window it steps to the prior track (wrapping from the first to the
// last); past it, it restarts the current track. elapsed is seconds of
// playback into the current track. The boolean reports whether the
// selection moved.
func (c *Coordinator) Previous(elapsed float64) (domain.Track, bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.tracks) == 0 {
		return domain.Track{}, false, false
	}
	if c.currentIdx < 0 {
		c.currentIdx = 0
		return c.tracks[0], true, true
	}
	if elapsed > c.previousSecs {
		return c.tracks[c.currentIdx], false, true
	}
	c.currentIdx = (c.currentIdx - 1 + len(c.tracks)) % len(c.tracks)
	return c.tracks[c.currentIdx], true, true
}
