package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"

	"github.com/richcobrien1/TrafficJamz-sub002/internal/client"
	"github.com/richcobrien1/TrafficJamz-sub002/internal/config"
	"github.com/richcobrien1/TrafficJamz-sub002/internal/domain"
	"github.com/richcobrien1/TrafficJamz-sub002/internal/hub"
	"github.com/richcobrien1/TrafficJamz-sub002/internal/registry"
	"github.com/richcobrien1/TrafficJamz-sub002/internal/sfu"
	pkglog "github.com/richcobrien1/TrafficJamz-sub002/pkg/log"
	"github.com/richcobrien1/TrafficJamz-sub002/pkg/pubsub"
)

// SyncService wires the connection hub, the session registry, per-client
// media negotiators, the cross-instance relay and the catalog backend into
// the signaling surface the WebSocket handler drives.
type SyncService struct {
	hub        *hub.Hub
	reg        *registry.Registry
	catalog    *client.CatalogClient
	bus        pubsub.PubSub
	cfg        *config.Config
	instanceID string
	iceServers []webrtc.ICEServer

	mu          sync.Mutex
	negotiators map[string]*sfu.Negotiator           // by client id
	forwarders  map[string]map[string]*sfu.Forwarder // session id -> producer id
	producers   map[string]string                    // client id -> producer id
	limits      map[string]*clientLimits             // by client id
	ordering    map[string]*sync.Mutex               // per-session join/broadcast ordering
}

// NewSyncService creates the service. bus may be nil for single-instance
// deployments; catalog persistence is best effort either way.
func NewSyncService(h *hub.Hub, reg *registry.Registry, catalog *client.CatalogClient, bus pubsub.PubSub, cfg *config.Config) *SyncService {
	iceServers := make([]webrtc.ICEServer, 0, len(cfg.Media.ICEServers))
	for _, u := range cfg.Media.ICEServers {
		iceServers = append(iceServers, webrtc.ICEServer{URLs: []string{u}})
	}
	return &SyncService{
		hub:         h,
		reg:         reg,
		catalog:     catalog,
		bus:         bus,
		cfg:         cfg,
		instanceID:  uuid.New().String(),
		iceServers:  iceServers,
		negotiators: make(map[string]*sfu.Negotiator),
		forwarders:  make(map[string]map[string]*sfu.Forwarder),
		producers:   make(map[string]string),
		limits:      make(map[string]*clientLimits),
		ordering:    make(map[string]*sync.Mutex),
	}
}

// Start consumes the cross-instance relay until the context ends. Frames
// published by this instance come back with our origin id and are dropped.
func (s *SyncService) Start(ctx context.Context) error {
	if s.bus == nil {
		<-ctx.Done()
		return nil
	}

	events, err := s.bus.SubscribePattern(ctx, pubsub.ChannelSessionEventsPattern)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Origin == s.instanceID {
				continue
			}
			var payload pubsub.RelayPayload
			if err := ev.UnmarshalPayload(&payload); err != nil {
				pkglog.L().Warn().Err(err).Msg("bad relay payload")
				continue
			}
			if err := s.deliverLocal(ev.SessionID, payload.Frame, ""); err != nil {
				pkglog.L().Warn().Err(err).Str(pkglog.FieldSessionID, ev.SessionID).Msg("relay broadcast failed")
			}
		}
	}
}

// sessionOrdering returns the mutex serializing joins against broadcasts
// for one session. A join holds it across snapshot capture, room join and
// snapshot enqueue; every local broadcast holds it for delivery. A command
// therefore lands either inside the joiner's snapshot or in its queue
// after it, never both and never neither.
func (s *SyncService) sessionOrdering(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.ordering[sessionID]
	if !ok {
		m = &sync.Mutex{}
		s.ordering[sessionID] = m
	}
	return m
}

// deliverLocal pushes a frame to the session's local clients under the
// per-session ordering lock.
func (s *SyncService) deliverLocal(sessionID string, frame []byte, exclude string) error {
	mu := s.sessionOrdering(sessionID)
	mu.Lock()
	defer mu.Unlock()
	return s.hub.BroadcastRaw(sessionID, frame, exclude)
}

// broadcast fans a message out locally and across instances.
func (s *SyncService) broadcast(sessionID string, msg interface{}, exclude, relayType string) {
	data, err := json.Marshal(msg)
	if err != nil {
		pkglog.L().Error().Err(err).Msg("failed to encode broadcast")
		return
	}
	if err := s.deliverLocal(sessionID, data, exclude); err != nil {
		pkglog.L().Warn().Err(err).Str(pkglog.FieldSessionID, sessionID).Msg("local broadcast failed")
	}
	if s.bus == nil {
		return
	}

	ev, err := pubsub.NewEvent(relayType, sessionID, s.instanceID, pubsub.RelayPayload{
		SessionID: sessionID,
		Frame:     data,
	})
	if err != nil {
		pkglog.L().Error().Err(err).Msg("failed to build relay event")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.bus.Publish(ctx, pubsub.SessionEventsChannel(sessionID), ev); err != nil {
		pkglog.L().Warn().Err(err).Str(pkglog.FieldSessionID, sessionID).Msg("relay publish failed")
	}
}

func (s *SyncService) joinTimeout() time.Duration {
	if s.cfg.Sync.JoinTimeout > 0 {
		return s.cfg.Sync.JoinTimeout
	}
	return 7 * time.Second
}

func (s *SyncService) limitsFor(clientID string) *clientLimits {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limits[clientID]
	if !ok {
		l = newClientLimits()
		s.limits[clientID] = l
	}
	return l
}

// JoinAudio registers a voice participant, sends the existing roster to the
// joiner and announces the arrival to everyone else.
func (s *SyncService) JoinAudio(ctx context.Context, c *hub.Client, msg domain.JoinAudioSessionMessage) {
	if msg.SessionID == "" || msg.UserID == "" {
		c.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "session_id and user_id are required"))
		return
	}

	// The registry may hit the snapshot store on a cold session; joins are
	// bounded so a slow store cannot hang the socket.
	ctx, cancel := context.WithTimeout(ctx, s.joinTimeout())
	defer cancel()

	mu := s.sessionOrdering(msg.SessionID)
	mu.Lock()
	existing := s.reg.JoinAudio(ctx, msg.SessionID, msg.UserID, c.ID, msg.DisplayName)
	c.Session.JoinAudio(msg.SessionID, msg.UserID, msg.DisplayName)
	s.hub.JoinSessionAndSend(c, msg.SessionID, &domain.CurrentParticipantsMessage{
		Type:         domain.MsgTypeCurrentParticipants,
		SessionID:    msg.SessionID,
		Participants: existing,
	})
	mu.Unlock()

	s.broadcast(msg.SessionID, &domain.ParticipantJoinedMessage{
		Type:        domain.MsgTypeParticipantJoined,
		SessionID:   msg.SessionID,
		UserID:      msg.UserID,
		ClientID:    c.ID,
		DisplayName: msg.DisplayName,
	}, c.ID, pubsub.EventParticipantJoined)

	// Late joiners still need the producers that already exist.
	s.mu.Lock()
	fwds := make([]*sfu.Forwarder, 0)
	for _, f := range s.forwarders[msg.SessionID] {
		fwds = append(fwds, f)
	}
	s.mu.Unlock()
	for _, f := range fwds {
		c.SendMessage(&domain.NewProducerMessage{
			Type:       domain.MsgTypeNewProducer,
			SessionID:  msg.SessionID,
			ProducerID: f.ProducerID,
			UserID:     f.UserID,
		})
	}
}

// LeaveAudio removes the client from its session without closing the socket.
func (s *SyncService) LeaveAudio(ctx context.Context, c *hub.Client) {
	s.teardown(ctx, c)
	sessionID := c.Session.CurrentSession()
	if sessionID != "" {
		s.hub.LeaveSession(c, sessionID)
	}
	c.Session.LeaveAudio()
}

// JoinMusic subscribes the client to shared playback state. The room join
// and the snapshot enqueue happen atomically with respect to session
// broadcasts, so the joiner always sees the snapshot before any command
// applied after it joined.
func (s *SyncService) JoinMusic(ctx context.Context, c *hub.Client, msg domain.JoinMusicSessionMessage) {
	if msg.SessionID == "" {
		c.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "session_id is required"))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.joinTimeout())
	defer cancel()

	mu := s.sessionOrdering(msg.SessionID)
	mu.Lock()
	snap := s.reg.JoinMusic(ctx, msg.SessionID, msg.GroupID, msg.UserID)
	c.Session.JoinMusic(msg.SessionID, msg.UserID)
	s.hub.JoinSessionAndSend(c, msg.SessionID, &domain.MusicSessionStateMessage{
		Type:     domain.MsgTypeMusicSessionState,
		Snapshot: *snap,
	})
	mu.Unlock()
}

// MusicControl validates a controller command against the registry and
// relays it to every other participant as "music-<action>".
func (s *SyncService) MusicControl(ctx context.Context, c *hub.Client, msg domain.MusicControlMessage) {
	stamped, err := s.reg.ApplyCommand(ctx, msg.SessionID, msg.UserID, msg.Command)
	if err != nil {
		s.sendRegistryError(c, err)
		return
	}

	s.broadcast(msg.SessionID, &domain.MusicEventMessage{
		Type:      domain.MusicEventType(stamped.Action),
		SessionID: msg.SessionID,
		From:      c.ID,
		Command:   stamped,
	}, c.ID, pubsub.EventMusicControl)
}

// TakeControl runs the compare-and-swap controller election.
func (s *SyncService) TakeControl(ctx context.Context, c *hub.Client, msg domain.TakeControlMessage) {
	epoch, err := s.reg.TakeControl(ctx, msg.SessionID, msg.UserID, msg.ExpectedControllerID)
	if err != nil {
		if errors.Is(err, registry.ErrControlTaken) {
			c.SendMessage(domain.NewErrorMessage(domain.ErrCodeControlTaken, "controller changed since your last update"))
			return
		}
		s.sendRegistryError(c, err)
		return
	}

	s.persistController(msg.SessionID, msg.UserID)
	s.broadcast(msg.SessionID, &domain.ControllerChangedMessage{
		Type:      domain.MsgTypeControllerChanged,
		SessionID: msg.SessionID,
		UserID:    msg.UserID,
		Epoch:     epoch,
		Timestamp: time.Now().UnixMilli(),
	}, "", pubsub.EventControllerChanged)
}

// ReleaseControl gives up the controller role. Releases by non-holders are
// ignored silently; the client may have already lost control.
func (s *SyncService) ReleaseControl(ctx context.Context, c *hub.Client, msg domain.ReleaseControlMessage) {
	epoch, released := s.reg.ReleaseControl(ctx, msg.SessionID, msg.UserID)
	if !released {
		return
	}

	s.persistController(msg.SessionID, "")
	s.broadcast(msg.SessionID, &domain.ControllerChangedMessage{
		Type:      domain.MsgTypeControllerChanged,
		SessionID: msg.SessionID,
		Epoch:     epoch,
		Timestamp: time.Now().UnixMilli(),
	}, "", pubsub.EventControllerChanged)
}

// PlaylistUpdate reconciles a client playlist edit and broadcasts the
// authoritative deduplicated result to the whole session, sender included,
// so an optimistic add the session rejected disappears everywhere.
func (s *SyncService) PlaylistUpdate(ctx context.Context, c *hub.Client, msg domain.PlaylistUpdateMessage) {
	var authoritative domain.Playlist
	if len(msg.Playlist) == 0 {
		// An emptied playlist also stops playback and clears the track.
		if err := s.reg.ClearPlaylist(ctx, msg.SessionID); err != nil {
			s.sendRegistryError(c, err)
			return
		}
	} else {
		authoritative = s.reg.SetPlaylist(ctx, msg.SessionID, msg.Playlist)
	}
	s.persistPlaylist(msg.SessionID, authoritative)

	s.broadcast(msg.SessionID, &domain.PlaylistUpdateMessage{
		Type:      domain.MsgTypePlaylistUpdate,
		SessionID: msg.SessionID,
		UserID:    msg.UserID,
		Playlist:  authoritative,
		Timestamp: time.Now().UnixMilli(),
	}, "", pubsub.EventPlaylistUpdate)
}

// PositionSync re-anchors the authoritative position and relays it to
// followers. Controller-only, and rate limited per connection.
func (s *SyncService) PositionSync(ctx context.Context, c *hub.Client, msg domain.PositionSyncMessage) {
	if !s.limitsFor(c.ID).positionSync.allow() {
		c.SendMessage(domain.NewErrorMessage(domain.ErrCodeRateLimited, "position sync rate exceeded"))
		return
	}

	userID := c.Session.GetUserID()
	if err := s.reg.PositionSync(ctx, msg.SessionID, userID, msg.Position, time.UnixMilli(msg.Timestamp)); err != nil {
		s.sendRegistryError(c, err)
		return
	}

	msg.Type = domain.MsgTypePositionSync
	s.broadcast(msg.SessionID, &msg, c.ID, pubsub.EventPositionSync)
}

// InitDevice validates codec capabilities and creates the client's
// negotiator if it does not exist yet.
func (s *SyncService) InitDevice(c *hub.Client, msg domain.InitDeviceMessage) {
	neg, err := s.negotiatorFor(c.ID)
	if err != nil {
		c.SendMessage(domain.NewErrorMessage(domain.ErrCodeInternalError, "failed to create negotiator"))
		return
	}

	caps, err := neg.InitDevice(sfu.Capabilities{Codecs: msg.Codecs})
	if err != nil {
		var capErr *sfu.CapabilityError
		if errors.As(err, &capErr) {
			c.SendMessage(domain.NewErrorMessage(domain.ErrCodeCapability, capErr.Error()))
			return
		}
		c.SendMessage(domain.NewErrorMessage(domain.ErrCodeTransport, err.Error()))
		return
	}

	c.SendMessage(&domain.DeviceReadyMessage{
		Type:      domain.MsgTypeDeviceReady,
		SessionID: msg.SessionID,
		Codecs:    caps.Codecs,
	})
}

func (s *SyncService) negotiatorFor(clientID string) (*sfu.Negotiator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if neg, ok := s.negotiators[clientID]; ok {
		return neg, nil
	}
	neg, err := sfu.NewNegotiator(clientID, s.iceServers)
	if err != nil {
		return nil, err
	}
	neg.OnICECandidate(func(transport string, candidate *webrtc.ICECandidate) {
		s.hub.SendToClient(clientID, &domain.TransportICEMessage{
			Type:      domain.MsgTypeTransportICE,
			Direction: transport,
			Candidate: candidate.ToJSON().Candidate,
		})
	})
	s.negotiators[clientID] = neg
	return neg, nil
}

// TransportOffer answers an SDP offer, lazily creating the transport on
// first use. The same message renegotiates an existing transport.
func (s *SyncService) TransportOffer(c *hub.Client, msg domain.TransportOfferMessage) {
	s.mu.Lock()
	neg, ok := s.negotiators[c.ID]
	s.mu.Unlock()
	if !ok {
		c.SendMessage(domain.NewErrorMessage(domain.ErrCodeTransport, "device not initialized"))
		return
	}

	if err := neg.CreateTransport(msg.Direction); err != nil {
		var transportErr *sfu.TransportError
		// An existing transport is fine; this is a renegotiation.
		if !errors.As(err, &transportErr) {
			s.sendTransportError(c, err)
			return
		}
	}

	answer, err := neg.Connect(msg.Direction, msg.SDP)
	if err != nil {
		s.sendTransportError(c, err)
		return
	}

	c.SendMessage(&domain.TransportAnswerMessage{
		Type:      domain.MsgTypeTransportAnswer,
		SessionID: msg.SessionID,
		Direction: msg.Direction,
		SDP:       answer,
	})
}

// Produce announces that the client is about to send voice. Forwarding is
// armed here; the producer becomes visible to the session once the audio
// track actually arrives on the send transport.
func (s *SyncService) Produce(c *hub.Client, msg domain.ProduceMessage) {
	s.mu.Lock()
	neg, ok := s.negotiators[c.ID]
	s.mu.Unlock()
	if !ok {
		c.SendMessage(domain.NewErrorMessage(domain.ErrCodeTransport, "device not initialized"))
		return
	}
	if c.Session.IsProducing() {
		return
	}
	s.prepareProducer(c, neg, msg.SessionID)
}

// prepareProducer arranges forwarding for the audio track that will arrive
// on the send transport.
func (s *SyncService) prepareProducer(c *hub.Client, neg *sfu.Negotiator, sessionID string) {
	clientID := c.ID
	userID := c.Session.GetUserID()

	neg.OnProducerTrack(func(track *webrtc.TrackRemote) {
		producerID := uuid.New().String()
		fwd, err := sfu.NewForwarder(producerID, userID, track)
		if err != nil {
			pkglog.L().Error().Err(err).Str(pkglog.FieldClientID, clientID).Msg("failed to create forwarder")
			return
		}

		s.mu.Lock()
		if s.forwarders[sessionID] == nil {
			s.forwarders[sessionID] = make(map[string]*sfu.Forwarder)
		}
		s.forwarders[sessionID][producerID] = fwd
		s.producers[clientID] = producerID
		s.mu.Unlock()

		go fwd.Run(track)

		s.reg.SetProducer(sessionID, clientID, producerID)
		c.Session.SetProducing(true)

		c.SendMessage(&domain.ProducerCreatedMessage{
			Type:       domain.MsgTypeProducerCreated,
			SessionID:  sessionID,
			ProducerID: producerID,
		})
		s.broadcast(sessionID, &domain.NewProducerMessage{
			Type:       domain.MsgTypeNewProducer,
			SessionID:  sessionID,
			ProducerID: producerID,
			UserID:     userID,
			ClientID:   clientID,
		}, clientID, pubsub.EventNewProducer)
	})
}

// TransportICE applies a trickled candidate. Rate limited per connection.
func (s *SyncService) TransportICE(c *hub.Client, msg domain.TransportICEMessage) {
	if !s.limitsFor(c.ID).ice.allow() {
		c.SendMessage(domain.NewErrorMessage(domain.ErrCodeRateLimited, "ice candidate rate exceeded"))
		return
	}

	s.mu.Lock()
	neg, ok := s.negotiators[c.ID]
	s.mu.Unlock()
	if !ok {
		c.SendMessage(domain.NewErrorMessage(domain.ErrCodeTransport, "device not initialized"))
		return
	}
	if err := neg.AddICECandidate(msg.Direction, msg.Candidate); err != nil {
		s.sendTransportError(c, err)
	}
}

// PauseProducer suspends forwarding of the client's own producer.
func (s *SyncService) PauseProducer(c *hub.Client, msg domain.ProducerControlMessage) {
	if fwd := s.forwarderByID(msg.SessionID, msg.ProducerID); fwd != nil {
		fwd.SetPaused(true)
	}
}

// ResumeProducer restores forwarding of the client's own producer.
func (s *SyncService) ResumeProducer(c *hub.Client, msg domain.ProducerControlMessage) {
	if fwd := s.forwarderByID(msg.SessionID, msg.ProducerID); fwd != nil {
		fwd.SetPaused(false)
	}
}

func (s *SyncService) forwarderByID(sessionID, producerID string) *sfu.Forwarder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forwarders[sessionID][producerID]
}

// Consume attaches a producer's forwarded track to the client's recv
// transport. The client follows up with a renegotiation offer.
func (s *SyncService) Consume(c *hub.Client, msg domain.ConsumeMessage) {
	fwd := s.forwarderByID(msg.SessionID, msg.ProducerID)
	if fwd == nil {
		c.SendMessage(domain.NewErrorMessage(domain.ErrCodeNotFound, "producer not found"))
		return
	}

	s.mu.Lock()
	neg, ok := s.negotiators[c.ID]
	s.mu.Unlock()
	if !ok {
		c.SendMessage(domain.NewErrorMessage(domain.ErrCodeTransport, "device not initialized"))
		return
	}

	consumerID := uuid.New().String()
	if err := neg.Consume(consumerID, fwd.Track()); err != nil {
		s.sendTransportError(c, err)
		return
	}

	c.SendMessage(&domain.ConsumerCreatedMessage{
		Type:       domain.MsgTypeConsumerCreated,
		SessionID:  msg.SessionID,
		ConsumerID: consumerID,
		ProducerID: msg.ProducerID,
	})
}

// Disconnect tears down everything the connection owned: membership,
// producer forwarding, media transports and, if held, the controller role.
func (s *SyncService) Disconnect(c *hub.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.teardown(ctx, c)

	s.mu.Lock()
	delete(s.limits, c.ID)
	s.mu.Unlock()
}

func (s *SyncService) teardown(ctx context.Context, c *hub.Client) {
	sessionID := c.Session.CurrentSession()
	userID := c.Session.GetUserID()

	s.mu.Lock()
	neg := s.negotiators[c.ID]
	delete(s.negotiators, c.ID)
	var fwd *sfu.Forwarder
	if producerID, ok := s.producers[c.ID]; ok {
		delete(s.producers, c.ID)
		if m := s.forwarders[sessionID]; m != nil {
			fwd = m[producerID]
			delete(m, producerID)
			if len(m) == 0 {
				delete(s.forwarders, sessionID)
			}
		}
	}
	s.mu.Unlock()

	if neg != nil {
		neg.Close()
	}
	if fwd != nil {
		fwd.Close()
	}

	if sessionID == "" {
		return
	}

	participant, controllerCleared, epoch := s.reg.Disconnect(ctx, sessionID, c.ID, userID)
	if participant != nil {
		s.broadcast(sessionID, &domain.ParticipantLeftMessage{
			Type:      domain.MsgTypeParticipantLeft,
			SessionID: sessionID,
			UserID:    participant.UserID,
			ClientID:  c.ID,
		}, c.ID, pubsub.EventParticipantLeft)
	}
	if controllerCleared {
		s.persistController(sessionID, "")
		s.broadcast(sessionID, &domain.ControllerChangedMessage{
			Type:      domain.MsgTypeControllerChanged,
			SessionID: sessionID,
			Epoch:     epoch,
			Timestamp: time.Now().UnixMilli(),
		}, "", pubsub.EventControllerChanged)
	}

	if len(s.hub.SessionClients(sessionID)) == 0 {
		s.reg.Evict(sessionID)
		s.mu.Lock()
		delete(s.ordering, sessionID)
		s.mu.Unlock()
	}
}

// Snapshot exposes the registry snapshot for the HTTP API.
func (s *SyncService) Snapshot(sessionID string) (*domain.SessionSnapshot, error) {
	return s.reg.Snapshot(sessionID)
}

// persistController mirrors the controller assignment to the catalog
// backend. Best effort; the live session never waits on it.
func (s *SyncService) persistController(sessionID, userID string) {
	if s.catalog == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.catalog.SaveController(ctx, sessionID, userID); err != nil {
			pkglog.L().Warn().Err(err).Str(pkglog.FieldSessionID, sessionID).Msg("controller persist failed")
		}
	}()
}

func (s *SyncService) persistPlaylist(sessionID string, playlist domain.Playlist) {
	if s.catalog == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.catalog.SavePlaylist(ctx, sessionID, playlist); err != nil {
			pkglog.L().Warn().Err(err).Str(pkglog.FieldSessionID, sessionID).Msg("playlist persist failed")
		}
	}()
}

func (s *SyncService) sendRegistryError(c *hub.Client, err error) {
	switch {
	case errors.Is(err, registry.ErrSessionNotFound):
		c.SendMessage(domain.NewErrorMessage(domain.ErrCodeNotFound, "session not found"))
	case errors.Is(err, registry.ErrNotController):
		c.SendMessage(domain.NewErrorMessage(domain.ErrCodeNotController, "only the controller can do that"))
	case errors.Is(err, registry.ErrStaleCommand):
		// Stale by sequence; drop quietly, a fresher command already won.
	case errors.Is(err, registry.ErrNotPlayable), errors.Is(err, registry.ErrEmptyPlaylist), errors.Is(err, registry.ErrUnknownAction):
		c.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, err.Error()))
	default:
		c.SendMessage(domain.NewErrorMessage(domain.ErrCodeInternalError, "internal error"))
	}
}

func (s *SyncService) sendTransportError(c *hub.Client, err error) {
	var capErr *sfu.CapabilityError
	if errors.As(err, &capErr) {
		c.SendMessage(domain.NewErrorMessage(domain.ErrCodeCapability, capErr.Error()))
		return
	}
	c.SendMessage(domain.NewErrorMessage(domain.ErrCodeTransport, err.Error()))
}
