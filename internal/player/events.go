package player

import (
	"sync"

	"github.com/richcobrien1/TrafficJamz-sub002/internal/domain"
	"github.com/richcobrien1/TrafficJamz-sub002/internal/source"
)

// EventType classifies playback engine notifications.
type EventType string

const (
	EventTrackLoaded       EventType = "track-loaded"
	EventSourceFallback    EventType = "source-fallback"
	EventPlaybackError     EventType = "playback-error"
	EventStateChanged      EventType = "state-changed"
	EventResynced          EventType = "resynced"
	EventControllerChanged EventType = "controller-changed"
	EventTrackEnded        EventType = "track-ended"
)

// Event is a playback engine notification delivered to subscribers.
type Event struct {
	Type       EventType
	Track      *domain.Track
	Position   float64
	IsPlaying  bool
	Controller string
	Detail     string
	Resolution *source.Resolution
}

// Bus delivers playback events to an arbitrary set of subscribers. Every
// subscriber sees every event; subscribing returns a cancel function, so
// UI layers attach and detach without touching each other's handlers.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(Event)
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(Event))}
}

// Subscribe registers a handler and returns its cancel function. Handlers
// run synchronously on the publishing goroutine and must not block.
func (b *Bus) Subscribe(fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Publish delivers an event to every current subscriber.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	handlers := make([]func(Event), 0, len(b.subs))
	for _, fn := range b.subs {
		handlers = append(handlers, fn)
	}
	b.mu.Unlock()

	for _, fn := range handlers {
		fn(ev)
	}
}
