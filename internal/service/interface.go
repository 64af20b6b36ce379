package service

import (
	"context"

	"github.com/richcobrien1/TrafficJamz-sub002/internal/domain"
	"github.com/richcobrien1/TrafficJamz-sub002/internal/hub"
)

// Coordinator is the signaling surface the handlers drive. SyncService is
// the only production implementation.
type Coordinator interface {
	// JoinAudio registers a voice participant in a session.
	JoinAudio(ctx context.Context, c *hub.Client, msg domain.JoinAudioSessionMessage)

	// LeaveAudio removes the client from its session, keeping the socket.
	LeaveAudio(ctx context.Context, c *hub.Client)

	// JoinMusic subscribes the client to shared playback state.
	JoinMusic(ctx context.Context, c *hub.Client, msg domain.JoinMusicSessionMessage)

	// MusicControl applies and relays a controller playback command.
	MusicControl(ctx context.Context, c *hub.Client, msg domain.MusicControlMessage)

	// TakeControl runs the controller election.
	TakeControl(ctx context.Context, c *hub.Client, msg domain.TakeControlMessage)

	// ReleaseControl gives up the controller role.
	ReleaseControl(ctx context.Context, c *hub.Client, msg domain.ReleaseControlMessage)

	// PlaylistUpdate reconciles and rebroadcasts a playlist edit.
	PlaylistUpdate(ctx context.Context, c *hub.Client, msg domain.PlaylistUpdateMessage)

	// PositionSync re-anchors the controller's playback position.
	PositionSync(ctx context.Context, c *hub.Client, msg domain.PositionSyncMessage)

	// InitDevice validates codec capabilities.
	InitDevice(c *hub.Client, msg domain.InitDeviceMessage)

	// TransportOffer answers an SDP offer for a media transport.
	TransportOffer(c *hub.Client, msg domain.TransportOfferMessage)

	// TransportICE applies a trickled ICE candidate.
	TransportICE(c *hub.Client, msg domain.TransportICEMessage)

	// Produce arms forwarding for the client's voice track.
	Produce(c *hub.Client, msg domain.ProduceMessage)

	// PauseProducer suspends forwarding of a producer.
	PauseProducer(c *hub.Client, msg domain.ProducerControlMessage)

	// ResumeProducer restores forwarding of a producer.
	ResumeProducer(c *hub.Client, msg domain.ProducerControlMessage)

	// Consume attaches a producer's track to the client's recv transport.
	Consume(c *hub.Client, msg domain.ConsumeMessage)

	// Disconnect tears down everything the connection owned.
	Disconnect(c *hub.Client)

	// Snapshot returns the authoritative session snapshot.
	Snapshot(sessionID string) (*domain.SessionSnapshot, error)

	// Start runs background consumers until the context ends.
	Start(ctx context.Context) error
}

var _ Coordinator = (*SyncService)(nil)
