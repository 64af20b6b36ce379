package sfu

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v4"

	pkglog "github.com/richcobrien1/TrafficJamz-sub002/pkg/log"
)

// State is the negotiation lifecycle of one participant's transports.
type State int

const (
	StateUninitialized State = iota
	StateDeviceReady
	StateTransportsReady
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateDeviceReady:
		return "device-ready"
	case StateTransportsReady:
		return "transports-ready"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Transport kinds. Send carries the participant's microphone upstream;
// recv carries other participants' audio downstream.
const (
	TransportSend = "send"
	TransportRecv = "recv"
)

// Capabilities is the codec capability set a client announces at init.
type Capabilities struct {
	Codecs []string `json:"codecs"`
}

// ICECandidateHandler receives locally gathered candidates for one transport.
type ICECandidateHandler func(transport string, candidate *webrtc.ICECandidate)

// ProducerTrackHandler receives the remote audio track once the client
// starts sending on its send transport.
type ProducerTrackHandler func(track *webrtc.TrackRemote)

// Negotiator owns the WebRTC transports of a single participant in a
// single session. It is created at join and discarded at leave; nothing
// here outlives the socket.
type Negotiator struct {
	ClientID string

	api *webrtc.API
	cfg webrtc.Configuration

	mu        sync.Mutex
	state     State
	sendPC    *webrtc.PeerConnection
	recvPC    *webrtc.PeerConnection
	consumers map[string]*consumer // consumer id -> sender

	onICECandidate  ICECandidateHandler
	onProducerTrack ProducerTrackHandler
}

type consumer struct {
	sender *webrtc.RTPSender
	track  webrtc.TrackLocal
	paused bool
}

// NewNegotiator builds a negotiator for one participant.
func NewNegotiator(clientID string, iceServers []webrtc.ICEServer) (*Negotiator, error) {
	api, err := newAPI()
	if err != nil {
		return nil, err
	}
	return &Negotiator{
		ClientID:  clientID,
		api:       api,
		cfg:       webrtc.Configuration{ICEServers: iceServers},
		consumers: make(map[string]*consumer),
	}, nil
}

// newAPI builds a webrtc.API restricted to Opus. Voice sessions carry no
// video, so no other codec is registered.
func newAPI() (*webrtc.API, error) {
	m := &webrtc.MediaEngine{}
	if err := m.RegisterCodec(webrtc.RTPCodecParameters{
		RTPCodecCapability: webrtc.RTPCodecCapability{
			MimeType:    webrtc.MimeTypeOpus,
			ClockRate:   48000,
			Channels:    2,
			SDPFmtpLine: "minptime=10;useinbandfec=1",
		},
		PayloadType: 111,
	}, webrtc.RTPCodecTypeAudio); err != nil {
		return nil, err
	}

	i := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(m, i); err != nil {
		return nil, err
	}

	return webrtc.NewAPI(webrtc.WithMediaEngine(m), webrtc.WithInterceptorRegistry(i)), nil
}

// OnICECandidate registers the candidate relay. Must be set before
// transports are created.
func (n *Negotiator) OnICECandidate(h ICECandidateHandler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onICECandidate = h
}

// OnProducerTrack registers the handler invoked when the participant's
// audio track arrives on the send transport.
func (n *Negotiator) OnProducerTrack(h ProducerTrackHandler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onProducerTrack = h
}

// State returns the current lifecycle state.
func (n *Negotiator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// InitDevice validates the client's announced capabilities and returns the
// server's audio capability set. Calling it again after success is a no-op
// returning the same capabilities.
func (n *Negotiator) InitDevice(caps Capabilities) (Capabilities, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state == StateClosed {
		return Capabilities{}, ErrClosed
	}
	if n.state >= StateDeviceReady {
		return serverCapabilities(), nil
	}

	if !supportsOpus(caps) {
		return Capabilities{}, &CapabilityError{Reason: "client does not support opus audio"}
	}

	n.state = StateDeviceReady
	return serverCapabilities(), nil
}

func serverCapabilities() Capabilities {
	return Capabilities{Codecs: []string{webrtc.MimeTypeOpus}}
}

func supportsOpus(caps Capabilities) bool {
	for _, c := range caps.Codecs {
		if strings.EqualFold(c, webrtc.MimeTypeOpus) {
			return true
		}
	}
	return false
}

// CreateTransport creates the send or recv peer connection. The first
// successful creation moves the negotiator to TransportsReady. Creating a
// transport that already exists is an error.
func (n *Negotiator) CreateTransport(kind string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state == StateClosed {
		return ErrClosed
	}
	if n.state < StateDeviceReady {
		return ErrDeviceNotReady
	}

	switch kind {
	case TransportSend:
		if n.sendPC != nil {
			return &TransportError{Transport: kind, Op: "create", Err: fmt.Errorf("already exists")}
		}
		pc, err := n.newPeerConnection(kind)
		if err != nil {
			return &TransportError{Transport: kind, Op: "create", Err: err}
		}
		pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
			pkglog.L().Debug().
				Str(pkglog.FieldClientID, n.ClientID).
				Str("codec", track.Codec().MimeType).
				Msg("producer track received")
			n.mu.Lock()
			h := n.onProducerTrack
			n.mu.Unlock()
			if h != nil {
				h(track)
			}
		})
		n.sendPC = pc
	case TransportRecv:
		if n.recvPC != nil {
			return &TransportError{Transport: kind, Op: "create", Err: fmt.Errorf("already exists")}
		}
		pc, err := n.newPeerConnection(kind)
		if err != nil {
			return &TransportError{Transport: kind, Op: "create", Err: err}
		}
		n.recvPC = pc
	default:
		return ErrUnknownTransport
	}

	if n.state < StateTransportsReady {
		n.state = StateTransportsReady
	}
	return nil
}

func (n *Negotiator) newPeerConnection(kind string) (*webrtc.PeerConnection, error) {
	pc, err := n.api.NewPeerConnection(n.cfg)
	if err != nil {
		return nil, err
	}

	pc.OnICECandidate(func(candidate *webrtc.ICECandidate) {
		if candidate == nil {
			return
		}
		n.mu.Lock()
		h := n.onICECandidate
		n.mu.Unlock()
		if h != nil {
			h(kind, candidate)
		}
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		pkglog.L().Debug().
			Str(pkglog.FieldClientID, n.ClientID).
			Str("transport", kind).
			Str("state", state.String()).
			Msg("peer connection state changed")
	})

	return pc, nil
}

// Connect applies the client's SDP offer for one transport and returns the
// answer with ICE candidates gathered. Renegotiation reuses the same path:
// a later offer on a connected transport produces a fresh answer.
func (n *Negotiator) Connect(kind, offerSDP string) (string, error) {
	pc, err := n.transport(kind)
	if err != nil {
		return "", err
	}

	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: offerSDP}
	if err := pc.SetRemoteDescription(offer); err != nil {
		return "", &TransportError{Transport: kind, Op: "set remote description", Err: err}
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		return "", &TransportError{Transport: kind, Op: "create answer", Err: err}
	}

	gatherComplete := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(answer); err != nil {
		return "", &TransportError{Transport: kind, Op: "set local description", Err: err}
	}
	<-gatherComplete

	return pc.LocalDescription().SDP, nil
}

// AddICECandidate applies a trickled remote candidate to one transport.
func (n *Negotiator) AddICECandidate(kind, candidate string) error {
	pc, err := n.transport(kind)
	if err != nil {
		return err
	}
	if err := pc.AddICECandidate(webrtc.ICECandidateInit{Candidate: candidate}); err != nil {
		return &TransportError{Transport: kind, Op: "add ice candidate", Err: err}
	}
	return nil
}

func (n *Negotiator) transport(kind string) (*webrtc.PeerConnection, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state == StateClosed {
		return nil, ErrClosed
	}
	switch kind {
	case TransportSend:
		if n.sendPC == nil {
			return nil, ErrTransportNotReady
		}
		return n.sendPC, nil
	case TransportRecv:
		if n.recvPC == nil {
			return nil, ErrTransportNotReady
		}
		return n.recvPC, nil
	default:
		return nil, ErrUnknownTransport
	}
}

// Consume attaches another participant's forwarded track to this
// participant's recv transport. The client completes the change with a
// renegotiation offer. Returns the consumer id.
func (n *Negotiator) Consume(consumerID string, track webrtc.TrackLocal) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state == StateClosed {
		return ErrClosed
	}
	if n.recvPC == nil {
		return ErrTransportNotReady
	}

	sender, err := n.recvPC.AddTrack(track)
	if err != nil {
		return &TransportError{Transport: TransportRecv, Op: "add track", Err: err}
	}
	n.consumers[consumerID] = &consumer{sender: sender, track: track}
	return nil
}

// PauseConsumer stops delivery on one consumer without renegotiating.
func (n *Negotiator) PauseConsumer(consumerID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	c, ok := n.consumers[consumerID]
	if !ok {
		return ErrUnknownConsumer
	}
	if c.paused {
		return nil
	}
	if err := c.sender.ReplaceTrack(nil); err != nil {
		return &TransportError{Transport: TransportRecv, Op: "pause consumer", Err: err}
	}
	c.paused = true
	return nil
}

// ResumeConsumer restores delivery on a paused consumer.
func (n *Negotiator) ResumeConsumer(consumerID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	c, ok := n.consumers[consumerID]
	if !ok {
		return ErrUnknownConsumer
	}
	if !c.paused {
		return nil
	}
	if err := c.sender.ReplaceTrack(c.track); err != nil {
		return &TransportError{Transport: TransportRecv, Op: "resume consumer", Err: err}
	}
	c.paused = false
	return nil
}

// RemoveConsumer detaches a consumer, typically because its producer left.
func (n *Negotiator) RemoveConsumer(consumerID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	c, ok := n.consumers[consumerID]
	if !ok {
		return ErrUnknownConsumer
	}
	delete(n.consumers, consumerID)
	if n.recvPC != nil {
		if err := n.recvPC.RemoveTrack(c.sender); err != nil {
			return &TransportError{Transport: TransportRecv, Op: "remove track", Err: err}
		}
	}
	return nil
}

// ConsumerIDs returns the ids of all attached consumers.
func (n *Negotiator) ConsumerIDs() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	ids := make([]string, 0, len(n.consumers))
	for id := range n.consumers {
		ids = append(ids, id)
	}
	return ids
}

// Close tears down both transports. Safe to call more than once.
func (n *Negotiator) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state == StateClosed {
		return
	}
	n.state = StateClosed
	n.consumers = make(map[string]*consumer)

	if n.sendPC != nil {
		if err := n.sendPC.Close(); err != nil {
			pkglog.L().Warn().Err(err).
				Str(pkglog.FieldClientID, n.ClientID).
				Msg("failed to close send transport")
		}
		n.sendPC = nil
	}
	if n.recvPC != nil {
		if err := n.recvPC.Close(); err != nil {
			pkglog.L().Warn().Err(err).
				Str(pkglog.FieldClientID, n.ClientID).
				Msg("failed to close recv transport")
		}
		n.recvPC = nil
	}
}
