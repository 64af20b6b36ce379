package domain

import (
	"sync"
	"time"
)

// Session represents a client's WebSocket session.
type Session struct {
	ID           string
	UserID       string
	DisplayName  string
	SessionID    string // audio session currently joined, if any
	InMusic      bool   // subscribed to the shared playlist
	Producing    bool
	CreatedAt    time.Time
	LastActiveAt time.Time
	mu           sync.RWMutex
}

// NewSession creates a new session with a unique ID.
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		CreatedAt:    now,
		LastActiveAt: now,
	}
}

// JoinAudio records the audio session this client joined.
func (s *Session) JoinAudio(sessionID, userID, displayName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SessionID = sessionID
	s.UserID = userID
	s.DisplayName = displayName
	s.LastActiveAt = time.Now()
}

// JoinMusic marks the client as subscribed to playback state.
func (s *Session) JoinMusic(sessionID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SessionID = sessionID
	if userID != "" {
		s.UserID = userID
	}
	s.InMusic = true
	s.LastActiveAt = time.Now()
}

// LeaveAudio clears the joined session.
func (s *Session) LeaveAudio() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SessionID = ""
	s.InMusic = false
	s.Producing = false
	s.LastActiveAt = time.Now()
}

// CurrentSession returns the joined audio session id, or "".
func (s *Session) CurrentSession() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.SessionID
}

// GetUserID returns the user id.
func (s *Session) GetUserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.UserID
}

// GetDisplayName returns the display name.
func (s *Session) GetDisplayName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.DisplayName
}

// SetProducing records whether the client is sending voice.
func (s *Session) SetProducing(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Producing = v
}

// IsProducing reports whether the client is sending voice.
func (s *Session) IsProducing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Producing
}

// UpdateActivity updates the last active timestamp.
func (s *Session) UpdateActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastActiveAt = time.Now()
}
