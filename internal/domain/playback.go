package domain

import "time"

// Action is a playback command verb issued by the controller.
type Action string

const (
	ActionPlay        Action = "play"
	ActionPause       Action = "pause"
	ActionSeek        Action = "seek"
	ActionNext        Action = "next"
	ActionPrevious    Action = "previous"
	ActionChangeTrack Action = "change-track"
)

// Command is a controller-originated playback state change. Timestamp is
// the sender's wall clock in Unix milliseconds; Seq increases monotonically
// per controller and Epoch identifies the controller generation, so
// followers can discard stale or reordered commands.
type Command struct {
	Action    Action  `json:"action"`
	Position  float64 `json:"position,omitempty"`
	Timestamp int64   `json:"timestamp"`
	Seq       int64   `json:"seq"`
	Epoch     int64   `json:"epoch"`
	IsPlaying bool    `json:"is_playing,omitempty"`
	AutoPlay  bool    `json:"auto_play,omitempty"`
	Track     *Track  `json:"track,omitempty"`
	TrackID   string  `json:"track_id,omitempty"`
}

// SentAt returns the command timestamp as time.Time.
func (c Command) SentAt() time.Time {
	return time.UnixMilli(c.Timestamp)
}

// PlaybackState is the authoritative playback snapshot for one session.
// Mutated only by controller-originated commands at the Session Registry.
type PlaybackState struct {
	CurrentTrack    *Track    `json:"current_track,omitempty"`
	Position        float64   `json:"position"`
	IsPlaying       bool      `json:"is_playing"`
	ControllerID    string    `json:"controller_id,omitempty"`
	ControllerEpoch int64     `json:"controller_epoch"`
	LastSeq         int64     `json:"last_seq"`
	TrackStartedAt  time.Time `json:"track_started_at,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Participant is a member of an audio session.
type Participant struct {
	UserID      string `json:"user_id"`
	ClientID    string `json:"client_id"`
	DisplayName string `json:"display_name,omitempty"`
	ProducerID  string `json:"producer_id,omitempty"`
	Muted       bool   `json:"muted,omitempty"`
	Speaking    bool   `json:"speaking,omitempty"`
}

// SessionSnapshot is the full-state payload delivered to a joining client
// before any incremental event for the same session.
type SessionSnapshot struct {
	SessionID       string        `json:"session_id"`
	GroupID         string        `json:"group_id,omitempty"`
	Playlist        Playlist      `json:"playlist"`
	CurrentTrack    *Track        `json:"current_track,omitempty"`
	ControllerID    string        `json:"controller_id,omitempty"`
	ControllerEpoch int64         `json:"controller_epoch"`
	LastSeq         int64         `json:"last_seq"`
	IsPlaying       bool          `json:"is_playing"`
	Position        float64       `json:"position"`
	TrackStartedAt  int64         `json:"track_started_at,omitempty"` // Unix millis
	Timestamp       int64         `json:"timestamp"`                  // Unix millis, snapshot creation
	Participants    []Participant `json:"participants,omitempty"`
}
