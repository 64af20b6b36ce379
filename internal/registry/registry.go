package registry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/richcobrien1/TrafficJamz-sub002/internal/domain"
	pkglog "github.com/richcobrien1/TrafficJamz-sub002/pkg/log"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNotController   = errors.New("not the controller")
	ErrControlTaken    = errors.New("controller changed since request was issued")
	ErrStaleCommand    = errors.New("stale command sequence")
	ErrUnknownAction   = errors.New("unknown playback action")
	ErrDuplicateTrack  = errors.New("duplicate track")
	ErrNotPlayable     = errors.New("track has no playable reference")
	ErrEmptyPlaylist   = errors.New("playlist is empty")
)

// Registry is the authority-side source of truth for per-session playback
// state, playlists and participant membership. Each session is serialized
// behind its own mutex; there is no global playback state.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*session
	store    SessionStore
	grace    float64 // previous-track grace window, seconds
	now      func() time.Time
}

type session struct {
	mu           sync.Mutex
	id           string
	groupID      string
	participants map[string]*domain.Participant // by client id
	playlist     domain.Playlist
	state        domain.PlaybackState
}

// New creates a Registry backed by the given snapshot store.
func New(store SessionStore, previousGrace float64) *Registry {
	return &Registry{
		sessions: make(map[string]*session),
		store:    store,
		grace:    previousGrace,
		now:      time.Now,
	}
}

// getOrCreate returns the live session, rebuilding it from the snapshot
// store when the authority is cold.
func (r *Registry) getOrCreate(ctx context.Context, sessionID, groupID string) *session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[sessionID]; ok {
		return s
	}

	s := &session{
		id:           sessionID,
		groupID:      groupID,
		participants: make(map[string]*domain.Participant),
	}

	if snap, err := r.store.Load(ctx, sessionID); err == nil && snap != nil {
		s.playlist = snap.Playlist.Dedupe()
		s.state = domain.PlaybackState{
			CurrentTrack:    snap.CurrentTrack,
			Position:        snap.Position,
			IsPlaying:       snap.IsPlaying,
			ControllerID:    snap.ControllerID,
			ControllerEpoch: snap.ControllerEpoch,
			LastSeq:         snap.LastSeq,
			UpdatedAt:       time.UnixMilli(snap.Timestamp),
		}
		if snap.TrackStartedAt > 0 {
			s.state.TrackStartedAt = time.UnixMilli(snap.TrackStartedAt)
		}
	} else if err != nil {
		pkglog.L().Warn().Err(err).Str(pkglog.FieldSessionID, sessionID).Msg("snapshot load failed, starting empty")
	}

	r.sessions[sessionID] = s
	return s
}

func (r *Registry) get(sessionID string) (*session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// JoinAudio registers a voice participant and returns the participants that
// were already present, for the current-participants reply.
func (r *Registry) JoinAudio(ctx context.Context, sessionID, userID, clientID, displayName string) []domain.Participant {
	s := r.getOrCreate(ctx, sessionID, "")

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := make([]domain.Participant, 0, len(s.participants))
	for _, p := range s.participants {
		existing = append(existing, *p)
	}

	s.participants[clientID] = &domain.Participant{
		UserID:      userID,
		ClientID:    clientID,
		DisplayName: displayName,
	}
	return existing
}

// JoinMusic subscribes a client to the shared playback state and returns the
// full session snapshot. The caller must deliver the snapshot to the joining
// client before relaying any later incremental event.
func (r *Registry) JoinMusic(ctx context.Context, sessionID, groupID, userID string) *domain.SessionSnapshot {
	s := r.getOrCreate(ctx, sessionID, groupID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if groupID != "" && s.groupID == "" {
		s.groupID = groupID
	}
	return s.snapshotLocked(r.now())
}

// Snapshot returns the current session snapshot, for the HTTP API and
// reconnect flows.
func (r *Registry) Snapshot(sessionID string) (*domain.SessionSnapshot, error) {
	s, err := r.get(sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(r.now()), nil
}

// snapshotLocked builds a snapshot; callers hold s.mu.
func (s *session) snapshotLocked(now time.Time) *domain.SessionSnapshot {
	snap := &domain.SessionSnapshot{
		SessionID:       s.id,
		GroupID:         s.groupID,
		Playlist:        append(domain.Playlist(nil), s.playlist...),
		CurrentTrack:    s.state.CurrentTrack,
		ControllerID:    s.state.ControllerID,
		ControllerEpoch: s.state.ControllerEpoch,
		LastSeq:         s.state.LastSeq,
		IsPlaying:       s.state.IsPlaying,
		Position:        s.state.Position,
		Timestamp:       now.UnixMilli(),
	}
	if !s.state.TrackStartedAt.IsZero() {
		snap.TrackStartedAt = s.state.TrackStartedAt.UnixMilli()
	}
	for _, p := range s.participants {
		snap.Participants = append(snap.Participants, *p)
	}
	return snap
}

// TakeControl assigns the controller role with a compare-and-swap against
// the controller the requester last observed. On success the controller
// epoch is bumped; every subsequent broadcast carries it so followers can
// ignore commands from a deposed controller.
func (r *Registry) TakeControl(ctx context.Context, sessionID, userID, expectedControllerID string) (int64, error) {
	s := r.getOrCreate(ctx, sessionID, "")

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.ControllerID == userID {
		return s.state.ControllerEpoch, nil
	}
	if s.state.ControllerID != expectedControllerID {
		return s.state.ControllerEpoch, ErrControlTaken
	}

	s.state.ControllerID = userID
	s.state.ControllerEpoch++
	s.state.LastSeq = 0
	s.state.UpdatedAt = r.now()
	r.persist(ctx, s)
	return s.state.ControllerEpoch, nil
}

// ReleaseControl clears the controller only if it currently equals userID.
// The boolean reports whether anything changed.
func (r *Registry) ReleaseControl(ctx context.Context, sessionID, userID string) (int64, bool) {
	s, err := r.get(sessionID)
	if err != nil {
		return 0, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.ControllerID != userID {
		return s.state.ControllerEpoch, false
	}
	s.state.ControllerID = ""
	s.state.ControllerEpoch++
	s.state.LastSeq = 0
	s.state.UpdatedAt = r.now()
	r.persist(ctx, s)
	return s.state.ControllerEpoch, true
}

// ControllerID returns the current controller for a session.
func (r *Registry) ControllerID(sessionID string) string {
	s, err := r.get(sessionID)
	if err != nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ControllerID
}

// ApplyCommand validates and records a controller command, returning the
// command stamped with the session's controller epoch for relay. Commands
// from non-controllers and commands whose sequence does not advance are
// rejected.
func (r *Registry) ApplyCommand(ctx context.Context, sessionID, userID string, cmd domain.Command) (domain.Command, error) {
	s, err := r.get(sessionID)
	if err != nil {
		return cmd, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.ControllerID == "" || s.state.ControllerID != userID {
		return cmd, ErrNotController
	}
	if cmd.Seq <= s.state.LastSeq {
		return cmd, ErrStaleCommand
	}

	cmd.Epoch = s.state.ControllerEpoch
	sentAt := cmd.SentAt()

	switch cmd.Action {
	case domain.ActionPlay:
		if cmd.Track != nil && !cmd.Track.Playable() {
			return cmd, ErrNotPlayable
		}
		s.state.IsPlaying = true
		s.state.Position = cmd.Position
		s.state.TrackStartedAt = sentAt
		if cmd.Track != nil {
			s.state.CurrentTrack = cmd.Track
		}

	case domain.ActionPause:
		s.state.IsPlaying = false
		s.state.Position = cmd.Position

	case domain.ActionSeek:
		s.state.Position = cmd.Position
		s.state.IsPlaying = cmd.IsPlaying
		s.state.TrackStartedAt = sentAt

	case domain.ActionChangeTrack:
		if cmd.Track == nil {
			return cmd, ErrNotPlayable
		}
		if !cmd.Track.Playable() {
			return cmd, ErrNotPlayable
		}
		s.state.CurrentTrack = cmd.Track
		s.state.Position = cmd.Position
		s.state.IsPlaying = cmd.AutoPlay
		s.state.TrackStartedAt = sentAt

	case domain.ActionNext, domain.ActionPrevious:
		next, err := s.advanceLocked(cmd.Action, cmd.Position, r.grace)
		if err != nil {
			return cmd, err
		}
		cmd.Track = &next
		cmd.Position = 0
		cmd.AutoPlay = true
		s.state.CurrentTrack = cmd.Track
		s.state.Position = 0
		s.state.IsPlaying = true
		s.state.TrackStartedAt = sentAt

	default:
		return cmd, ErrUnknownAction
	}

	s.state.LastSeq = cmd.Seq
	s.state.UpdatedAt = r.now()
	r.persist(ctx, s)
	return cmd, nil
}

// advanceLocked applies the track-advance policy: next wraps forward;
// previous restarts the current track when more than the grace window has
// elapsed, otherwise wraps backward. elapsed is seconds into the current
// track at the controller.
func (s *session) advanceLocked(action domain.Action, elapsed, grace float64) (domain.Track, error) {
	if len(s.playlist) == 0 {
		return domain.Track{}, ErrEmptyPlaylist
	}

	idx := 0
	if s.state.CurrentTrack != nil {
		if i := s.playlist.IndexOf(s.state.CurrentTrack.ID); i >= 0 {
			idx = i
		}
	}

	n := len(s.playlist)
	switch action {
	case domain.ActionNext:
		idx = (idx + 1) % n
	case domain.ActionPrevious:
		if elapsed <= grace {
			idx = (idx - 1 + n) % n
		}
		// otherwise restart the current track
	}
	return s.playlist[idx], nil
}

// PositionSync re-anchors the authoritative position from the controller's
// periodic broadcast.
func (r *Registry) PositionSync(ctx context.Context, sessionID, userID string, position float64, at time.Time) error {
	s, err := r.get(sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.ControllerID != userID {
		return ErrNotController
	}
	s.state.Position = position
	s.state.TrackStartedAt = at
	s.state.UpdatedAt = r.now()
	r.persist(ctx, s)
	return nil
}

// AddTrack appends a track unless a duplicate exists (same URL, or same
// title and artist). Returns the updated playlist.
func (r *Registry) AddTrack(ctx context.Context, sessionID string, track domain.Track) (domain.Playlist, error) {
	s := r.getOrCreate(ctx, sessionID, "")

	s.mu.Lock()
	defer s.mu.Unlock()

	updated, added := s.playlist.Add(track)
	if !added {
		return s.playlist, ErrDuplicateTrack
	}
	s.playlist = updated
	r.persist(ctx, s)
	return append(domain.Playlist(nil), s.playlist...), nil
}

// RemoveTrack deletes a track by id and returns the updated playlist.
func (r *Registry) RemoveTrack(ctx context.Context, sessionID, trackID string) (domain.Playlist, error) {
	s, err := r.get(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.playlist = s.playlist.Remove(trackID)
	if s.state.CurrentTrack != nil && s.state.CurrentTrack.ID == trackID {
		s.state.CurrentTrack = nil
		s.state.IsPlaying = false
		s.state.Position = 0
	}
	r.persist(ctx, s)
	return append(domain.Playlist(nil), s.playlist...), nil
}

// SetPlaylist replaces the playlist with a deduplicated copy of the given
// list, reconciling an optimistic client edit.
func (r *Registry) SetPlaylist(ctx context.Context, sessionID string, playlist domain.Playlist) domain.Playlist {
	s := r.getOrCreate(ctx, sessionID, "")

	s.mu.Lock()
	defer s.mu.Unlock()

	s.playlist = playlist.Dedupe()
	r.persist(ctx, s)
	return append(domain.Playlist(nil), s.playlist...)
}

// ClearPlaylist empties the playlist and stops playback.
func (r *Registry) ClearPlaylist(ctx context.Context, sessionID string) error {
	s, err := r.get(sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.playlist = nil
	s.state.CurrentTrack = nil
	s.state.IsPlaying = false
	s.state.Position = 0
	s.state.UpdatedAt = r.now()
	r.persist(ctx, s)
	return nil
}

// SetProducer records the producer id on a participant.
func (r *Registry) SetProducer(sessionID, clientID, producerID string) {
	s, err := r.get(sessionID)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.participants[clientID]; ok {
		p.ProducerID = producerID
	}
}

// Disconnect removes a participant. If the departing user held the
// controller role it is cleared, not reassigned; the returned epoch is valid
// only when controllerCleared is true.
func (r *Registry) Disconnect(ctx context.Context, sessionID, clientID, userID string) (participant *domain.Participant, controllerCleared bool, epoch int64) {
	s, err := r.get(sessionID)
	if err != nil {
		return nil, false, 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.participants[clientID]; ok {
		participant = p
		delete(s.participants, clientID)
	}

	if userID != "" && s.state.ControllerID == userID {
		s.state.ControllerID = ""
		s.state.ControllerEpoch++
		s.state.LastSeq = 0
		s.state.UpdatedAt = r.now()
		controllerCleared = true
		epoch = s.state.ControllerEpoch
		r.persist(ctx, s)
	}
	return participant, controllerCleared, epoch
}

// Evict drops an empty session from memory, keeping the stored snapshot.
func (r *Registry) Evict(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[sessionID]; ok {
		s.mu.Lock()
		empty := len(s.participants) == 0
		s.mu.Unlock()
		if empty {
			delete(r.sessions, sessionID)
		}
	}
}

// persist writes the current snapshot; callers hold s.mu. Store failures
// are logged, not surfaced: the live state remains authoritative.
func (r *Registry) persist(ctx context.Context, s *session) {
	snap := s.snapshotLocked(r.now())
	if err := r.store.Save(ctx, snap); err != nil {
		pkglog.L().Warn().Err(err).Str(pkglog.FieldSessionID, s.id).Msg("snapshot save failed")
	}
}
