package player

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/richcobrien1/TrafficJamz-sub002/internal/domain"
	"github.com/richcobrien1/TrafficJamz-sub002/internal/source"
	pkglog "github.com/richcobrien1/TrafficJamz-sub002/pkg/log"
)

// AudioOutput is the audio sink the deck drives. Implementations wrap a
// platform audio element; tests use an in-memory fake.
type AudioOutput interface {
	Load(url string) error
	Play() error
	Pause() error
	Seek(position float64) error
}

// ErrNoTrack is returned by transport controls before any track is loaded.
var ErrNoTrack = errors.New("no track loaded")

// Deck is the local playback unit: one loaded track, one output, and a
// position clock. Position advances from a wall-clock anchor while playing,
// so reads never depend on polling the output.
type Deck struct {
	mu    sync.Mutex
	out   AudioOutput
	chain *source.Chain
	bus   *Bus
	now   func() time.Time

	current    *domain.Track
	resolution *source.Resolution
	playing    bool
	base       float64   // position at the last anchor
	anchor     time.Time // wall clock when base was set
}

// NewDeck creates a deck over the given output and resolution chain.
func NewDeck(out AudioOutput, chain *source.Chain, bus *Bus) *Deck {
	return &Deck{out: out, chain: chain, bus: bus, now: time.Now}
}

// LoadTrack resolves the track through the source chain and loads the
// winning URL. Playback stops; position resets to zero.
func (d *Deck) LoadTrack(ctx context.Context, track domain.Track) error {
	res, err := d.chain.Resolve(ctx, track)
	if err != nil {
		d.bus.Publish(Event{Type: EventPlaybackError, Track: &track, Detail: err.Error()})
		return err
	}

	d.mu.Lock()
	if err := d.out.Load(res.URL); err != nil {
		d.mu.Unlock()
		d.bus.Publish(Event{Type: EventPlaybackError, Track: &track, Detail: err.Error()})
		return err
	}

	t := track
	d.current = &t
	d.resolution = res
	d.playing = false
	d.base = 0
	d.anchor = d.now()
	d.mu.Unlock()

	// Published outside the lock; subscribers are free to read deck state.
	if res.Fallback {
		pkglog.L().Info().
			Str(pkglog.FieldTrackID, track.ID).
			Str("via", res.Source).
			Msg("track loaded from fallback source")
		d.bus.Publish(Event{Type: EventSourceFallback, Track: &t, Resolution: res})
	}
	d.bus.Publish(Event{Type: EventTrackLoaded, Track: &t, Resolution: res})
	return nil
}

// Play starts or resumes playback from the current position.
func (d *Deck) Play() error {
	d.mu.Lock()
	if d.current == nil {
		d.mu.Unlock()
		return ErrNoTrack
	}
	if d.playing {
		d.mu.Unlock()
		return nil
	}
	if err := d.out.Play(); err != nil {
		d.mu.Unlock()
		return err
	}
	d.anchor = d.now()
	d.playing = true
	track, position := d.current, d.base
	d.mu.Unlock()

	d.bus.Publish(Event{Type: EventStateChanged, Track: track, Position: position, IsPlaying: true})
	return nil
}

// Pause freezes playback at the current position.
func (d *Deck) Pause() error {
	d.mu.Lock()
	if d.current == nil {
		d.mu.Unlock()
		return ErrNoTrack
	}
	if !d.playing {
		d.mu.Unlock()
		return nil
	}
	if err := d.out.Pause(); err != nil {
		d.mu.Unlock()
		return err
	}
	d.base = d.positionLocked()
	d.playing = false
	track, position := d.current, d.base
	d.mu.Unlock()

	d.bus.Publish(Event{Type: EventStateChanged, Track: track, Position: position, IsPlaying: false})
	return nil
}

// Seek moves the position. Play state is preserved.
func (d *Deck) Seek(position float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.current == nil {
		return ErrNoTrack
	}
	if position < 0 {
		position = 0
	}
	if err := d.out.Seek(position); err != nil {
		return err
	}
	d.base = position
	d.anchor = d.now()
	return nil
}

// TrackEnded records the natural end of the current track. Playback stops
// and a track-ended event fires so a controller can advance the playlist.
// Call it from the output's ended callback.
func (d *Deck) TrackEnded() {
	d.mu.Lock()
	if d.current == nil {
		d.mu.Unlock()
		return
	}
	d.base = d.positionLocked()
	d.playing = false
	track, position := d.current, d.base
	d.mu.Unlock()

	d.bus.Publish(Event{Type: EventTrackEnded, Track: track, Position: position})
}

// Position returns the current playback position in seconds.
func (d *Deck) Position() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.positionLocked()
}

func (d *Deck) positionLocked() float64 {
	if !d.playing {
		return d.base
	}
	return d.base + d.now().Sub(d.anchor).Seconds()
}

// IsPlaying reports whether the deck is currently playing.
func (d *Deck) IsPlaying() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.playing
}

// CurrentTrack returns the loaded track, or nil.
func (d *Deck) CurrentTrack() *domain.Track {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// Resolution returns how the current track was resolved, or nil.
func (d *Deck) Resolution() *source.Resolution {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.resolution
}
