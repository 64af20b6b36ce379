package domain

// TrackSource identifies where a track's playable reference comes from.
const (
	SourceLocal      = "local"
	SourceSpotify    = "spotify"
	SourceYouTube    = "youtube"
	SourceAppleMusic = "apple_music"
)

// Track is a single playlist entry.
type Track struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Artist      string  `json:"artist"`
	Album       string  `json:"album,omitempty"`
	DurationSec float64 `json:"duration_sec,omitempty"`
	Source      string  `json:"source"`
	URL         string  `json:"url,omitempty"`         // directly playable stream URL
	PreviewURL  string  `json:"preview_url,omitempty"` // cached/preview fallback
	ExternalRef string  `json:"external_ref,omitempty"`
	AlbumArt    string  `json:"album_art,omitempty"`
}

// SameAs reports whether two tracks are duplicates for playlist purposes:
// either they share a playable URL or they share a (title, artist) pair.
func (t Track) SameAs(other Track) bool {
	if t.URL != "" && other.URL != "" && t.URL == other.URL {
		return true
	}
	return t.Title == other.Title && t.Artist == other.Artist
}

// Playable reports whether the track carries a resolvable playable reference.
func (t Track) Playable() bool {
	return t.URL != "" || t.PreviewURL != "" || t.ExternalRef != ""
}

// Playlist is an ordered sequence of tracks. Insertion order is significant.
type Playlist []Track

// Contains reports whether the playlist already holds a duplicate of t.
func (p Playlist) Contains(t Track) bool {
	for _, existing := range p {
		if existing.SameAs(t) {
			return true
		}
	}
	return false
}

// IndexOf returns the index of the track with the given id, or -1.
func (p Playlist) IndexOf(trackID string) int {
	for i, t := range p {
		if t.ID == trackID {
			return i
		}
	}
	return -1
}

// Add appends t unless a duplicate entry exists. The boolean reports
// whether the track was added.
func (p Playlist) Add(t Track) (Playlist, bool) {
	if p.Contains(t) {
		return p, false
	}
	return append(p, t), true
}

// Remove deletes the track with the given id, preserving order.
func (p Playlist) Remove(trackID string) Playlist {
	out := p[:0:0]
	for _, t := range p {
		if t.ID != trackID {
			out = append(out, t)
		}
	}
	return out
}

// Dedupe returns a copy with duplicate entries dropped, keeping the first
// occurrence. Authoritative broadcasts may carry duplicates persisted by
// older clients.
func (p Playlist) Dedupe() Playlist {
	out := make(Playlist, 0, len(p))
	for _, t := range p {
		if !out.Contains(t) {
			out = append(out, t)
		}
	}
	return out
}
