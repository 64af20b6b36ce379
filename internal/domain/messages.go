package domain

// WebSocket message types from client.
const (
	MsgTypeJoinAudioSession  = "join-audio-session"
	MsgTypeLeaveAudioSession = "leave-audio-session"
	MsgTypeJoinMusicSession  = "join-music-session"
	MsgTypeMusicControl      = "music-control"
	MsgTypeTakeControl       = "music-take-control"
	MsgTypeReleaseControl    = "music-release-control"
	MsgTypePlaylistUpdate    = "playlist-update"
	MsgTypePositionSync      = "music-position-sync"
	MsgTypeInitDevice        = "init-device"
	MsgTypeTransportOffer    = "transport-offer"
	MsgTypeTransportICE      = "transport-ice"
	MsgTypeProduce           = "produce"
	MsgTypePauseProducer     = "pause-producer"
	MsgTypeResumeProducer    = "resume-producer"
	MsgTypeConsume           = "consume"
	MsgTypePing              = "ping"
)

// WebSocket message types to client.
const (
	MsgTypeCurrentParticipants = "current-participants"
	MsgTypeParticipantJoined   = "participant-joined"
	MsgTypeParticipantLeft     = "participant-left"
	MsgTypeNewProducer         = "new-producer"
	MsgTypeMusicSessionState   = "music-session-state"
	MsgTypeControllerChanged   = "music-controller-changed"
	MsgTypeDeviceReady         = "device-ready"
	MsgTypeTransportAnswer     = "transport-answer"
	MsgTypeProducerCreated     = "producer-created"
	MsgTypeConsumerCreated     = "consumer-created"
	MsgTypeError               = "error"
	MsgTypePong                = "pong"
)

// MusicEventType returns the relayed event name for a playback command,
// e.g. "music-play" for ActionPlay.
func MusicEventType(action Action) string {
	return "music-" + string(action)
}

// BaseMessage is the base structure for all WebSocket messages.
type BaseMessage struct {
	Type string `json:"type"`
}

// Client -> Server messages

// JoinAudioSessionMessage registers the client as a voice participant.
type JoinAudioSessionMessage struct {
	Type        string `json:"type"`
	SessionID   string `json:"session_id"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
}

// LeaveAudioSessionMessage removes the client from the voice session.
type LeaveAudioSessionMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
}

// JoinMusicSessionMessage subscribes the client to the shared playlist and
// playback state. The server replies with a MusicSessionStateMessage before
// relaying any incremental event for the session.
type JoinMusicSessionMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	GroupID   string `json:"group_id,omitempty"`
	UserID    string `json:"user_id"`
}

// MusicControlMessage carries a controller playback command.
type MusicControlMessage struct {
	Type      string  `json:"type"`
	SessionID string  `json:"session_id"`
	UserID    string  `json:"user_id"`
	Command   Command `json:"command"`
}

// TakeControlMessage requests the controller (DJ) role. ExpectedControllerID
// is the controller the client last observed; the registry rejects the
// request if the actual controller changed since.
type TakeControlMessage struct {
	Type                 string `json:"type"`
	SessionID            string `json:"session_id"`
	UserID               string `json:"user_id"`
	ExpectedControllerID string `json:"expected_controller_id,omitempty"`
}

// ReleaseControlMessage gives up the controller role.
type ReleaseControlMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

// PlaylistUpdateMessage carries the full ordered playlist.
type PlaylistUpdateMessage struct {
	Type      string   `json:"type"`
	SessionID string   `json:"session_id"`
	UserID    string   `json:"user_id,omitempty"`
	Playlist  Playlist `json:"playlist"`
	Timestamp int64    `json:"timestamp,omitempty"`
}

// PositionSyncMessage is the periodic controller position re-anchor.
type PositionSyncMessage struct {
	Type      string  `json:"type"`
	SessionID string  `json:"session_id"`
	TrackID   string  `json:"track_id,omitempty"`
	Position  float64 `json:"position"`
	Timestamp int64   `json:"timestamp"`
	Seq       int64   `json:"seq"`
	Epoch     int64   `json:"epoch"`
}

// InitDeviceMessage announces the client's codec capabilities before any
// transport is created.
type InitDeviceMessage struct {
	Type      string   `json:"type"`
	SessionID string   `json:"session_id"`
	Codecs    []string `json:"codecs"`
}

// TransportOfferMessage opens or renegotiates a send or receive media
// transport.
type TransportOfferMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Direction string `json:"direction"` // "send" or "recv"
	SDP       string `json:"sdp"`
}

// TransportICEMessage carries a trickled ICE candidate.
type TransportICEMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Direction string `json:"direction"` // "send" or "recv"
	Candidate string `json:"candidate"`
}

// ProduceMessage starts sending the client's voice on its send transport.
type ProduceMessage struct {
	Type        string `json:"type"`
	SessionID   string `json:"session_id"`
	TransportID string `json:"transport_id"`
}

// ProducerControlMessage pauses or resumes an existing producer.
type ProducerControlMessage struct {
	Type       string `json:"type"`
	SessionID  string `json:"session_id"`
	ProducerID string `json:"producer_id"`
}

// ConsumeMessage starts receiving a remote participant's voice.
type ConsumeMessage struct {
	Type       string `json:"type"`
	SessionID  string `json:"session_id"`
	ProducerID string `json:"producer_id"`
}

// Server -> Client messages

// CurrentParticipantsMessage lists the participants already in the session.
type CurrentParticipantsMessage struct {
	Type         string        `json:"type"`
	SessionID    string        `json:"session_id"`
	Participants []Participant `json:"participants"`
}

// ParticipantJoinedMessage announces a new voice participant.
type ParticipantJoinedMessage struct {
	Type        string `json:"type"`
	SessionID   string `json:"session_id"`
	UserID      string `json:"user_id"`
	ClientID    string `json:"client_id"`
	DisplayName string `json:"display_name,omitempty"`
}

// ParticipantLeftMessage announces a departed participant.
type ParticipantLeftMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	ClientID  string `json:"client_id"`
}

// NewProducerMessage announces that a peer started producing audio.
type NewProducerMessage struct {
	Type       string `json:"type"`
	SessionID  string `json:"session_id"`
	ProducerID string `json:"producer_id"`
	UserID     string `json:"user_id"`
	ClientID   string `json:"client_id"`
}

// MusicSessionStateMessage delivers the full session snapshot to a joiner.
type MusicSessionStateMessage struct {
	Type     string          `json:"type"`
	Snapshot SessionSnapshot `json:"snapshot"`
}

// MusicEventMessage is a relayed playback command, emitted to all
// participants except the originating controller.
type MusicEventMessage struct {
	Type      string  `json:"type"` // "music-" + action
	SessionID string  `json:"session_id"`
	From      string  `json:"from"` // originating client id
	Command   Command `json:"command"`
}

// ControllerChangedMessage announces a controller (DJ) change. UserID is
// empty when control was released or lost.
type ControllerChangedMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id,omitempty"`
	Epoch     int64  `json:"epoch"`
	Timestamp int64  `json:"timestamp"`
}

// DeviceReadyMessage returns the server's codec capabilities.
type DeviceReadyMessage struct {
	Type      string   `json:"type"`
	SessionID string   `json:"session_id"`
	Codecs    []string `json:"codecs"`
}

// TransportAnswerMessage completes transport negotiation.
type TransportAnswerMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Direction string `json:"direction"`
	SDP       string `json:"sdp"`
}

// ProducerCreatedMessage acknowledges a produce request.
type ProducerCreatedMessage struct {
	Type       string `json:"type"`
	SessionID  string `json:"session_id"`
	ProducerID string `json:"producer_id"`
}

// ConsumerCreatedMessage acknowledges a consume request.
type ConsumerCreatedMessage struct {
	Type       string `json:"type"`
	SessionID  string `json:"session_id"`
	ConsumerID string `json:"consumer_id"`
	ProducerID string `json:"producer_id"`
}

// ErrorMessage is sent when an error occurs.
type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeNotController = "NOT_CONTROLLER"
	ErrCodeControlTaken  = "CONTROL_TAKEN"
	ErrCodeTransport     = "TRANSPORT_ERROR"
	ErrCodeCapability    = "CAPABILITY_ERROR"
	ErrCodeRateLimited   = "RATE_LIMITED"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// NewErrorMessage creates a new error message.
func NewErrorMessage(code, message string) *ErrorMessage {
	return &ErrorMessage{
		Type:    MsgTypeError,
		Code:    code,
		Message: message,
	}
}
