package pubsub

import "fmt"

// Channel naming conventions for cross-instance session relay.
// Every sync-service instance publishes the signaling events it relays
// locally, and subscribes to the pattern so clients of a group connected
// to different instances still converge.
const (
	ChannelSessionEvents        = "sync:session:%s:events"
	ChannelSessionEventsPattern = "sync:session:*:events"
)

// Relay event types.
const (
	EventMusicControl      = "music_control"
	EventControllerChanged = "controller_changed"
	EventPlaylistUpdate    = "playlist_update"
	EventPositionSync      = "position_sync"
	EventNewProducer       = "new_producer"
	EventParticipantJoined = "participant_joined"
	EventParticipantLeft   = "participant_left"
)

// SessionEventsChannel returns the relay channel name for a session.
func SessionEventsChannel(sessionID string) string {
	return fmt.Sprintf(ChannelSessionEvents, sessionID)
}

// RelayPayload carries an already-encoded signaling frame plus the
// connection it originated from, so the receiving instance can exclude
// the sender when re-broadcasting.
type RelayPayload struct {
	SessionID string `json:"session_id"`
	Exclude   string `json:"exclude,omitempty"`
	Frame     []byte `json:"frame"`
}
